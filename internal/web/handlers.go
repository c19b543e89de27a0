package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/listingbridge/internal/csvexport"
	"github.com/JonMunkholm/listingbridge/internal/fields"
	"github.com/JonMunkholm/listingbridge/internal/images"
	"github.com/JonMunkholm/listingbridge/internal/platform"
	"github.com/JonMunkholm/listingbridge/internal/product"
	"github.com/JonMunkholm/listingbridge/internal/transform"
)

// PlatformSummary describes one marketplace for API clients.
type PlatformSummary struct {
	platform.PlatformConfig
	Currency   string   `json:"currency"`
	CSVColumns []string `json:"csvColumns"`
}

func summarize(p platform.Platform) PlatformSummary {
	cfg := platform.Config(p)
	return PlatformSummary{
		PlatformConfig: cfg,
		Currency:       cfg.CurrencyCode(),
		CSVColumns:     csvexport.Header(p),
	}
}

// platformParam parses the {platform} URL parameter.
func platformParam(r *http.Request) (platform.Platform, error) {
	return platform.Parse(chi.URLParam(r, "platform"))
}

// decodeJSON reads a size-limited JSON body into dst.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode body: %v", ErrBadRequest, err)
	}
	return nil
}

func (s *Server) handleListPlatforms(w http.ResponseWriter, r *http.Request) {
	all := platform.All()
	out := make([]PlatformSummary, 0, len(all))
	for _, p := range all {
		out = append(out, summarize(p))
	}
	writeJSON(w, out)
}

func (s *Server) handleGetPlatform(w http.ResponseWriter, r *http.Request) {
	p, err := platformParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, summarize(p))
}

func (s *Server) handlePlatformFields(w http.ResponseWriter, r *http.Request) {
	p, err := platformParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"platform": p,
		"groups":   fields.Groups(p),
		"required": platform.RequiredFields(p),
	})
}

// handleValidateFields checks form data against the platform's field schema.
func (s *Server) handleValidateFields(w http.ResponseWriter, r *http.Request) {
	p, err := platformParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var data map[string]any
	if err := s.decodeJSON(w, r, &data); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, fields.ValidateAllFields(data, p))
}

// TransformRequest selects one product and a target marketplace. Exactly
// one of SKU and Product is used; Product wins when both are set.
type TransformRequest struct {
	SKU                string            `json:"sku,omitempty"`
	Product            *product.Source   `json:"product,omitempty"`
	TargetPlatform     string            `json:"targetPlatform"`
	TargetCountry      string            `json:"targetCountry,omitempty"`
	Images             []images.Metadata `json:"images,omitempty"`
	FetchImageMetadata bool              `json:"fetchImageMetadata,omitempty"`
	SourceLanguage     string            `json:"sourceLanguage,omitempty"`
}

// TransformResponse is the engine result plus a fee estimate.
type TransformResponse struct {
	transform.Result
	Exportable bool                   `json:"exportable"`
	Fees       *platform.FeeBreakdown `json:"fees,omitempty"`
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	var req TransformRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	p, err := platform.Parse(req.TargetPlatform)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	src, err := s.resolveOne(r.Context(), req.Product, req.SKU)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.engine.Transform(r.Context(), src, transform.Request{
		Platform:           p,
		TargetCountry:      req.TargetCountry,
		Images:             req.Images,
		FetchImageMetadata: req.FetchImageMetadata,
		SourceLanguage:     platform.Language(req.SourceLanguage),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	transformsTotal.WithLabelValues(string(p), fmt.Sprint(res.Exportable())).Inc()
	writeJSON(w, transformResponse(res))
}

func transformResponse(res transform.Result) TransformResponse {
	out := TransformResponse{Result: res, Exportable: res.Exportable()}
	if _, ok := res.Product.PlatformSpecific["price"]; ok {
		fees := platform.EstimateFees(res.Product.Platform, res.Product.Price, res.Product.Category)
		out.Fees = &fees
	}
	return out
}

// resolveOne returns the inline product, or loads sku from the store.
func (s *Server) resolveOne(ctx context.Context, inline *product.Source, sku string) (product.Source, error) {
	if inline != nil {
		if strings.TrimSpace(inline.SKU) == "" {
			return product.Source{}, fmt.Errorf("%w: product.sku is required", ErrBadRequest)
		}
		return *inline, nil
	}
	if strings.TrimSpace(sku) == "" {
		return product.Source{}, fmt.Errorf("%w: sku or product is required", ErrBadRequest)
	}
	if s.products == nil {
		return product.Source{}, ErrNoProductStore
	}
	return s.products.GetBySKU(ctx, sku)
}

// ExportRequest selects the products of a CSV export.
type ExportRequest struct {
	SKUs               []string         `json:"skus,omitempty"`
	Products           []product.Source `json:"products,omitempty"`
	TargetCountry      string           `json:"targetCountry,omitempty"`
	IncludeHeaders     *bool            `json:"includeHeaders,omitempty"`
	ExpandImages       bool             `json:"expandImages,omitempty"`
	FetchImageMetadata bool             `json:"fetchImageMetadata,omitempty"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	p, err := platformParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req ExportRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	export, err := s.runExport(r.Context(), p, req)
	if err != nil {
		exportsTotal.WithLabelValues(string(p), MapError(err).Code).Inc()
		if errors.Is(err, ErrTooManyExports) {
			w.Header().Set("Retry-After", "10")
		}
		s.respondError(w, r, err)
		return
	}
	exportsTotal.WithLabelValues(string(p), "ok").Inc()
	exportedProducts.WithLabelValues(string(p)).Observe(float64(export.Exported))

	h := w.Header()
	h.Set("Content-Type", "text/csv; charset=utf-8")
	h.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename))
	h.Set("X-Export-ID", export.ID)
	h.Set("X-Export-Count", fmt.Sprint(export.Exported))
	h.Set("X-Export-Skipped", fmt.Sprint(len(export.Skipped)))
	if len(export.Missing) > 0 {
		h.Set("X-Export-Missing", strings.Join(export.Missing, ","))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Body)
}

func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.limiter.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for name, c := range s.checks {
		if err := c.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	writeJSONStatus(w, status, map[string]any{
		"status":  overall,
		"checks":  checks,
		"exports": s.limiter.Status(),
	})
}
