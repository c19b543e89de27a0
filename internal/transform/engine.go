// Package transform runs a canonical product through the listing pipeline:
// field gate, image rules, translation and assembly of the platform record.
//
// The engine keeps no state between calls. Each Transform works only on its
// own inputs, so batches run in parallel without locking.
package transform

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/listingbridge/internal/csvexport"
	"github.com/JonMunkholm/listingbridge/internal/fields"
	"github.com/JonMunkholm/listingbridge/internal/images"
	"github.com/JonMunkholm/listingbridge/internal/platform"
	"github.com/JonMunkholm/listingbridge/internal/product"
	"github.com/JonMunkholm/listingbridge/internal/translate"
)

// Translator localizes a title and description for a platform.
type Translator interface {
	ProductContent(ctx context.Context, title, description string, p platform.Platform, source platform.Language) translate.Content
}

// MetadataFetcher resolves image metadata for URLs.
type MetadataFetcher interface {
	FetchAll(ctx context.Context, urls []string) []images.Metadata
}

// Request selects the target of one transformation.
type Request struct {
	Platform      platform.Platform `json:"platform"`
	TargetCountry string            `json:"targetCountry,omitempty"`

	// Images enables dimension, size and format checks. When nil only the
	// image count is checked, unless FetchImageMetadata is set.
	Images []images.Metadata `json:"images,omitempty"`

	// FetchImageMetadata downloads metadata for the source image URLs when
	// Images is nil and the engine has a fetcher.
	FetchImageMetadata bool `json:"fetchImageMetadata,omitempty"`

	// SourceLanguage overrides detection of the source text language.
	SourceLanguage platform.Language `json:"sourceLanguage,omitempty"`
}

// Result is the outcome of one transformation.
type Result struct {
	Product     product.Transformed `json:"product"`
	FieldErrors map[string]string   `json:"fieldErrors"`
	Errors      []string            `json:"errors"`
	Images      *images.Result      `json:"images,omitempty"`
	Translation translate.Content   `json:"translation"`
}

// Exportable reports whether the product has no blocking errors.
func (r Result) Exportable() bool {
	return len(r.Errors) == 0
}

// Engine assembles the pipeline stages.
type Engine struct {
	translator  Translator
	fetcher     MetadataFetcher
	rates       platform.RateTable
	concurrency int
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRates sets the JPY exchange rate table.
func WithRates(rates platform.RateTable) Option {
	return func(e *Engine) { e.rates = rates }
}

// WithFetcher enables image metadata downloads.
func WithFetcher(f MetadataFetcher) Option {
	return func(e *Engine) { e.fetcher = f }
}

// WithConcurrency bounds the number of products transformed at once by
// TransformBatch.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine. A nil translator disables translation; every
// product then ships in its source language with a warning.
func New(tr Translator, opts ...Option) *Engine {
	e := &Engine{
		translator:  tr,
		rates:       platform.DefaultRates(),
		concurrency: 8,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.translator == nil {
		e.translator = translate.New(nil, translate.WithLogger(e.logger))
	}
	return e
}

// Transform converts src into a listing for req.Platform. It returns an
// error only for an unknown platform; every product problem is reported on
// the Result.
func (e *Engine) Transform(ctx context.Context, src product.Source, req Request) (Result, error) {
	if !req.Platform.Valid() {
		return Result{}, fmt.Errorf("transform %s: %w", src.SKU, platform.ErrUnknownPlatform)
	}

	cfg := platform.Config(req.Platform)
	res := Result{FieldErrors: map[string]string{}, Errors: []string{}}
	var warnings []string

	title, description, sourceLang := pickContent(src, cfg.Language, req.SourceLanguage)

	// Field gate.
	data := formData(src, cfg, title, description)
	report := fields.ValidateFields(data, gateDefinitions(req.Platform))
	res.FieldErrors = report.Errors
	for _, id := range slices.Sorted(maps.Keys(report.Errors)) {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", id, report.Errors[id]))
	}

	// Images.
	imageURLs, imageWarnings, imageErrors, imgRes := e.checkImages(ctx, src, req)
	res.Images = imgRes
	warnings = append(warnings, imageWarnings...)
	res.Errors = append(res.Errors, imageErrors...)
	if cols := csvexport.ImageColumns(req.Platform); cols > 0 && len(imageURLs) > cols {
		warnings = append(warnings, fmt.Sprintf(
			"%d images but the %s CSV has %d image columns; images after %d are not exported",
			len(imageURLs), cfg.DisplayName, cols, cols))
	}

	// Translation.
	content := e.translator.ProductContent(ctx, title, description, req.Platform, sourceLang)
	res.Translation = content
	warnings = append(warnings, translationWarnings("title", content.Title)...)
	warnings = append(warnings, translationWarnings("description", content.Description)...)

	finalTitle, w := fitToField(req.Platform, cfg.Language, "title", content.Title.TranslatedText)
	warnings = append(warnings, w...)
	finalDescription, w := fitToField(req.Platform, cfg.Language, "description", content.Description.TranslatedText)
	warnings = append(warnings, w...)

	// Price.
	price, err := platform.ConvertFromJPY(src.PriceJPY, cfg.Currency, e.rates)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("price: %v", err))
	}

	extras := platformSpecific(data, cfg, req.TargetCountry)
	if err == nil {
		extras["price"] = platform.Format(price, cfg.Currency)
	} else {
		delete(extras, "price")
	}

	res.Product = product.Transformed{
		Platform:         req.Platform,
		SKU:              src.SKU,
		Title:            finalTitle,
		Description:      finalDescription,
		Price:            price,
		Currency:         cfg.CurrencyCode(),
		Images:           imageURLs,
		Stock:            src.Stock,
		Category:         src.Category,
		PlatformSpecific: extras,
		Warnings:         nonNil(warnings),
	}

	if !res.Exportable() {
		e.logger.Debug("product not exportable",
			"sku", src.SKU, "platform", req.Platform, "errors", len(res.Errors))
	}

	return res, nil
}

// TransformBatch transforms every product for the same request in
// parallel. Results are in input order.
func (e *Engine) TransformBatch(ctx context.Context, srcs []product.Source, req Request) ([]Result, error) {
	if !req.Platform.Valid() {
		return nil, fmt.Errorf("transform batch: %w", platform.ErrUnknownPlatform)
	}

	out := make([]Result, len(srcs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, src := range srcs {
		g.Go(func() error {
			r, err := e.Transform(gctx, src, req)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Exportable returns the products of results that have no blocking errors.
func Exportable(results []Result) []product.Transformed {
	var out []product.Transformed
	for _, r := range results {
		if r.Exportable() {
			out = append(out, r.Product)
		}
	}
	return out
}

func (e *Engine) checkImages(ctx context.Context, src product.Source, req Request) (urls, warnings, errs []string, res *images.Result) {
	metadata := req.Images
	if metadata == nil && req.FetchImageMetadata && e.fetcher != nil && len(src.ImageURLs) > 0 {
		metadata = e.fetcher.FetchAll(ctx, src.ImageURLs)
	}

	if metadata != nil {
		r := images.Validate(metadata, req.Platform)
		return r.URLs(), r.Warnings, r.Errors, &r
	}

	adjusted, w := images.AdjustList(src.ImageURLs, req.Platform)
	if len(adjusted) == 0 {
		return adjusted, nil, []string{images.ErrNoImages}, nil
	}
	return adjusted, w, nil, nil
}

func translationWarnings(field string, r translate.Result) []string {
	if !r.Degraded() {
		return nil
	}
	return []string{fmt.Sprintf("%s was not translated to %s (%s); source text used",
		field, r.TargetLanguage.Name(), r.FallbackReason)}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func itoa(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
