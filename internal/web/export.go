package web

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/listingbridge/internal/csvexport"
	"github.com/JonMunkholm/listingbridge/internal/logging"
	"github.com/JonMunkholm/listingbridge/internal/platform"
	"github.com/JonMunkholm/listingbridge/internal/product"
	"github.com/JonMunkholm/listingbridge/internal/transform"
)

// SkippedProduct is a product left out of an export with its blocking errors.
type SkippedProduct struct {
	SKU    string   `json:"sku"`
	Errors []string `json:"errors"`
}

// Export is a finished CSV export.
type Export struct {
	ID       string
	Filename string
	Body     []byte // UTF-8 with BOM
	Exported int
	Skipped  []SkippedProduct
	Missing  []string
}

// runExport transforms the requested products under an export slot and
// renders the exportable ones as CSV.
func (s *Server) runExport(ctx context.Context, p platform.Platform, req ExportRequest) (*Export, error) {
	total := len(req.SKUs) + len(req.Products)
	if total == 0 {
		return nil, fmt.Errorf("%w: skus or products is required", ErrBadRequest)
	}
	if total > s.cfg.Export.MaxProducts {
		return nil, fmt.Errorf("%w: %d requested, limit %d", ErrTooManyProducts, total, s.cfg.Export.MaxProducts)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	id := uuid.NewString()
	logger := logging.WithFields(ctx, "export_id", id, "platform", p)
	start := time.Now()

	srcs := append([]product.Source(nil), req.Products...)
	var missing []string
	if len(req.SKUs) > 0 {
		if s.products == nil {
			return nil, ErrNoProductStore
		}
		found, notFound, err := s.products.GetBySKUs(ctx, req.SKUs)
		if err != nil {
			return nil, fmt.Errorf("load products: %w", err)
		}
		srcs = append(srcs, found...)
		missing = notFound
	}

	results, err := s.engine.TransformBatch(ctx, srcs, transform.Request{
		Platform:           p,
		TargetCountry:      req.TargetCountry,
		FetchImageMetadata: req.FetchImageMetadata,
	})
	if err != nil {
		return nil, fmt.Errorf("transform batch: %w", err)
	}

	var skipped []SkippedProduct
	for _, res := range results {
		if !res.Exportable() {
			skipped = append(skipped, SkippedProduct{SKU: res.Product.SKU, Errors: res.Errors})
		}
	}
	ok := transform.Exportable(results)

	includeHeaders := req.IncludeHeaders == nil || *req.IncludeHeaders
	var buf bytes.Buffer
	buf.WriteString(csvexport.BOM)
	if err := csvexport.Write(&buf, csvexport.Options{
		Platform:       p,
		Products:       ok,
		IncludeHeaders: includeHeaders,
		ExpandImages:   req.ExpandImages,
		Logger:         logger,
	}); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}

	logger.Info("export completed",
		"requested", total,
		"exported", len(ok),
		"skipped", len(skipped),
		"missing", len(missing),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	for _, sk := range skipped {
		logger.Debug("product skipped", "sku", sk.SKU, "errors", sk.Errors)
	}

	return &Export{
		ID:       id,
		Filename: csvexport.Filename(p, len(ok), time.Now()),
		Body:     buf.Bytes(),
		Exported: len(ok),
		Skipped:  skipped,
		Missing:  missing,
	}, nil
}
