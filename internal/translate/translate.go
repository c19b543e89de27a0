// Package translate localizes listing text through one injected provider.
//
// Translation is fail-open: when the provider is missing or fails, the
// original text is returned so an export is never blocked by a translation
// outage. Every such degradation is visible on the Result (Method fallback
// with a FallbackReason), logged at warn level and counted in
// listingbridge_translations_total.
package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/listingbridge/internal/platform"
)

// Method says how a Result's text was produced.
type Method string

const (
	MethodCached   Method = "cached"
	MethodAPI      Method = "api"
	MethodFallback Method = "fallback"
)

// FallbackReason says why no real translation happened.
type FallbackReason string

const (
	ReasonEmptyText     FallbackReason = "empty_text"
	ReasonSameLanguage  FallbackReason = "same_language"
	ReasonNoProvider    FallbackReason = "no_provider"
	ReasonProviderError FallbackReason = "provider_error"
)

// Result is the outcome of one translation.
type Result struct {
	OriginalText   string            `json:"originalText"`
	TranslatedText string            `json:"translatedText"`
	SourceLanguage platform.Language `json:"sourceLanguage"`
	TargetLanguage platform.Language `json:"targetLanguage"`
	Method         Method            `json:"method"`
	FallbackReason FallbackReason    `json:"fallbackReason,omitempty"`
	Error          string            `json:"error,omitempty"`
}

// Degraded reports whether a translation was needed but did not happen.
// Empty input and matching languages are not degradations.
func (r Result) Degraded() bool {
	return r.FallbackReason == ReasonNoProvider || r.FallbackReason == ReasonProviderError
}

// Provider is the single external translation capability.
type Provider interface {
	Translate(ctx context.Context, text string, target, source platform.Language) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, text string, target, source platform.Language) (string, error)

// Translate calls f.
func (f ProviderFunc) Translate(ctx context.Context, text string, target, source platform.Language) (string, error) {
	return f(ctx, text, target, source)
}

// Cache stores finished translations. Implementations must be safe for
// concurrent use. Cache errors never fail a translation.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Translator delegates to a Provider with caching, a timeout and the
// fail-open policy.
type Translator struct {
	provider Provider
	cache    Cache
	cacheTTL time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithCache enables caching of API translations for ttl.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(t *Translator) {
		t.cache = c
		t.cacheTTL = ttl
	}
}

// WithTimeout bounds each provider call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(t *Translator) { t.timeout = d }
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l *slog.Logger) Option {
	return func(t *Translator) { t.logger = l }
}

// New creates a Translator. provider may be nil, in which case every
// translation that needs a provider falls back.
func New(provider Provider, opts ...Option) *Translator {
	t := &Translator{
		provider: provider,
		timeout:  10 * time.Second,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate translates text into target. An empty source is detected from
// the text. It never returns an error; see Result.Method and
// Result.FallbackReason.
func (t *Translator) Translate(ctx context.Context, text string, target, source platform.Language) Result {
	res := Result{
		OriginalText:   text,
		TranslatedText: text,
		TargetLanguage: target,
		Method:         MethodFallback,
	}

	if strings.TrimSpace(text) == "" {
		res.SourceLanguage = source
		res.FallbackReason = ReasonEmptyText
		observe(res)
		return res
	}

	if source == "" {
		source = DetectLanguage(text)
	}
	res.SourceLanguage = source

	if source == target {
		res.FallbackReason = ReasonSameLanguage
		observe(res)
		return res
	}

	key := cacheKey(text, target, source)
	if t.cache != nil {
		cached, ok, err := t.cache.Get(ctx, key)
		if err != nil {
			t.logger.Warn("translation cache read failed", "error", err)
		} else if ok {
			res.TranslatedText = cached
			res.Method = MethodCached
			observe(res)
			return res
		}
	}

	if t.provider == nil {
		res.FallbackReason = ReasonNoProvider
		t.logger.Warn("translation skipped, no provider configured",
			"source", source, "target", target)
		observe(res)
		return res
	}

	callCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	translated, err := t.provider.Translate(callCtx, text, target, source)
	if err != nil {
		res.FallbackReason = ReasonProviderError
		res.Error = err.Error()
		t.logger.Warn("translation failed, using original text",
			"source", source, "target", target, "error", err)
		observe(res)
		return res
	}

	res.TranslatedText = translated
	res.Method = MethodAPI
	observe(res)

	if t.cache != nil {
		if err := t.cache.Set(ctx, key, translated, t.cacheTTL); err != nil {
			t.logger.Warn("translation cache write failed", "error", err)
		}
	}

	return res
}

// ForPlatform translates text into the listing language of p.
func (t *Translator) ForPlatform(ctx context.Context, text string, p platform.Platform, source platform.Language) Result {
	return t.Translate(ctx, text, platform.PrimaryLanguage(p), source)
}

// Content is a translated title and description pair.
type Content struct {
	Title       Result `json:"title"`
	Description Result `json:"description"`
}

// ProductContent translates title and description for p concurrently and
// returns once both are done.
func (t *Translator) ProductContent(ctx context.Context, title, description string, p platform.Platform, source platform.Language) Content {
	var out Content

	var g errgroup.Group
	g.Go(func() error {
		out.Title = t.ForPlatform(ctx, title, p, source)
		return nil
	})
	g.Go(func() error {
		out.Description = t.ForPlatform(ctx, description, p, source)
		return nil
	})
	_ = g.Wait()

	return out
}

func cacheKey(text string, target, source platform.Language) string {
	sum := sha256.Sum256([]byte(text))
	return string(source) + ":" + string(target) + ":" + hex.EncodeToString(sum[:])
}
