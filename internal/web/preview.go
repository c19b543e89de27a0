package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/listingbridge/internal/platform"
	"github.com/JonMunkholm/listingbridge/internal/transform"
	"github.com/JonMunkholm/listingbridge/internal/web/templates"
)

// handlePreview renders a stored product as it would be listed on a platform.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	p, err := platformParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	src, err := s.resolveOne(r.Context(), nil, chi.URLParam(r, "sku"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.engine.Transform(r.Context(), src, transform.Request{
		Platform:      p,
		TargetCountry: r.URL.Query().Get("country"),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Preview(previewData(res)).Render(r.Context(), w); err != nil {
		s.logger.Error("render preview", "error", err, "sku", src.SKU)
	}
}

func previewData(res transform.Result) templates.PreviewData {
	t := res.Product
	cfg := platform.Config(t.Platform)

	d := templates.PreviewData{
		PlatformName: cfg.DisplayName,
		Language:     string(cfg.Language),
		SKU:          t.SKU,
		Title:        t.Title,
		Description:  t.Description,
		Currency:     t.Currency,
		Stock:        t.Stock,
		Images:       t.Images,
		Fields:       t.PlatformSpecific,
		Warnings:     t.Warnings,
		Errors:       res.Errors,
	}
	if price, ok := t.PlatformSpecific["price"]; ok {
		d.Price = price
		fees := platform.EstimateFees(t.Platform, t.Price, t.Category)
		d.Fees = fmt.Sprintf("%s %s (net %s)",
			platform.Format(fees.TotalFees, cfg.Currency), fees.Currency, platform.Format(fees.NetProceeds, cfg.Currency))
	}
	return d
}
