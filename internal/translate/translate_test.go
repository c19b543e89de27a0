package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go/v3/option"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/listingbridge/internal/platform"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]string)}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", false, c.err
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.data[key] = value
	return nil
}

func echoProvider(calls *atomic.Int32) ProviderFunc {
	return func(_ context.Context, text string, target, _ platform.Language) (string, error) {
		if calls != nil {
			calls.Add(1)
		}
		return "[" + string(target) + "] " + text, nil
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		text string
		want platform.Language
	}{
		{"こんにちは", platform.Japanese},
		{"カメラ", platform.Japanese},
		{"日本製", platform.Japanese},
		{"안녕하세요", platform.Korean},
		{"Canon EOS 安녕", platform.Japanese},
		{"\u3400", platform.Chinese},
		{"Vintage camera", platform.English},
		{"12345", platform.English},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.text))
		})
	}
}

func TestTranslate_SameLanguageIsFallback(t *testing.T) {
	var calls atomic.Int32
	tr := New(echoProvider(&calls))

	for _, lang := range []platform.Language{platform.Japanese, platform.English, platform.Korean, platform.Chinese} {
		for _, text := range []string{"hello", "こんにちは", "x, \"y\""} {
			res := tr.Translate(context.Background(), text, lang, lang)
			assert.Equal(t, text, res.TranslatedText)
			assert.Equal(t, MethodFallback, res.Method)
			assert.Equal(t, ReasonSameLanguage, res.FallbackReason)
			assert.False(t, res.Degraded())
		}
	}
	assert.Zero(t, calls.Load())
}

func TestTranslate_EmptyText(t *testing.T) {
	tr := New(echoProvider(nil))
	res := tr.Translate(context.Background(), "   ", platform.English, "")
	assert.Equal(t, "   ", res.TranslatedText)
	assert.Equal(t, MethodFallback, res.Method)
	assert.Equal(t, ReasonEmptyText, res.FallbackReason)
}

func TestTranslate_DetectsSource(t *testing.T) {
	tr := New(echoProvider(nil))
	res := tr.Translate(context.Background(), "カメラ", platform.English, "")
	assert.Equal(t, platform.Japanese, res.SourceLanguage)
	assert.Equal(t, MethodAPI, res.Method)
	assert.Equal(t, "[en] カメラ", res.TranslatedText)
	assert.Empty(t, res.FallbackReason)
}

func TestTranslate_ProviderErrorFailsOpen(t *testing.T) {
	failing := ProviderFunc(func(context.Context, string, platform.Language, platform.Language) (string, error) {
		return "", errors.New("quota exceeded")
	})
	tr := New(failing)

	before := testutil.ToFloat64(translationsTotal.WithLabelValues("fallback", "provider_error"))
	res := tr.Translate(context.Background(), "カメラ", platform.English, "")

	assert.Equal(t, "カメラ", res.TranslatedText)
	assert.Equal(t, MethodFallback, res.Method)
	assert.Equal(t, ReasonProviderError, res.FallbackReason)
	assert.Equal(t, "quota exceeded", res.Error)
	assert.True(t, res.Degraded())
	assert.Equal(t, before+1, testutil.ToFloat64(translationsTotal.WithLabelValues("fallback", "provider_error")))
}

func TestTranslate_NoProvider(t *testing.T) {
	tr := New(nil)
	res := tr.Translate(context.Background(), "camera", platform.Japanese, platform.English)
	assert.Equal(t, "camera", res.TranslatedText)
	assert.Equal(t, ReasonNoProvider, res.FallbackReason)
	assert.True(t, res.Degraded())
}

func TestTranslate_Timeout(t *testing.T) {
	slow := ProviderFunc(func(ctx context.Context, text string, _, _ platform.Language) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	tr := New(slow, WithTimeout(10*time.Millisecond))

	res := tr.Translate(context.Background(), "camera", platform.Korean, platform.English)
	assert.Equal(t, "camera", res.TranslatedText)
	assert.Equal(t, ReasonProviderError, res.FallbackReason)
}

func TestTranslate_Cache(t *testing.T) {
	var calls atomic.Int32
	cache := newMemoryCache()
	tr := New(echoProvider(&calls), WithCache(cache, time.Hour))

	first := tr.Translate(context.Background(), "camera", platform.Japanese, platform.English)
	second := tr.Translate(context.Background(), "camera", platform.Japanese, platform.English)

	assert.Equal(t, MethodAPI, first.Method)
	assert.Equal(t, MethodCached, second.Method)
	assert.Equal(t, first.TranslatedText, second.TranslatedText)
	assert.EqualValues(t, 1, calls.Load())
}

func TestTranslate_CacheErrorsIgnored(t *testing.T) {
	cache := newMemoryCache()
	cache.err = errors.New("connection refused")
	tr := New(echoProvider(nil), WithCache(cache, time.Hour))

	res := tr.Translate(context.Background(), "camera", platform.Japanese, platform.English)
	assert.Equal(t, MethodAPI, res.Method)
}

func TestForPlatform(t *testing.T) {
	tr := New(echoProvider(nil))

	res := tr.ForPlatform(context.Background(), "camera", platform.Coupang, platform.English)
	assert.Equal(t, platform.Korean, res.TargetLanguage)
	assert.Equal(t, "[ko] camera", res.TranslatedText)

	res = tr.ForPlatform(context.Background(), "camera", platform.EBay, platform.English)
	assert.Equal(t, MethodFallback, res.Method)
}

func TestProductContent_RunsConcurrently(t *testing.T) {
	var started sync.WaitGroup
	started.Add(2)
	release := make(chan struct{})

	blocking := ProviderFunc(func(ctx context.Context, text string, target, _ platform.Language) (string, error) {
		started.Done()
		<-release
		return text + "!", nil
	})
	tr := New(blocking, WithTimeout(0))

	go func() {
		started.Wait()
		close(release)
	}()

	c := tr.ProductContent(context.Background(), "タイトル", "説明", platform.EBay, "")
	assert.Equal(t, "タイトル!", c.Title.TranslatedText)
	assert.Equal(t, "説明!", c.Description.TranslatedText)
	assert.Equal(t, platform.English, c.Title.TargetLanguage)
}

func TestOpenAIProvider(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": " Vintage film camera "}
			}]
		}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", "", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	out, err := p.Translate(context.Background(), "ヴィンテージフィルムカメラ", platform.English, platform.Japanese)
	require.NoError(t, err)
	assert.Equal(t, "Vintage film camera", out)
	assert.Equal(t, DefaultOpenAIModel, gotBody["model"])
}

func TestOpenAIProvider_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited", "type": "rate_limit"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", "gpt-4o", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	_, err := p.Translate(context.Background(), "camera", platform.Japanese, platform.English)
	require.Error(t, err)
}

func TestNewRedisCache_RequiresURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), RedisCacheOptions{})
	require.Error(t, err)

	_, err = NewRedisCache(context.Background(), RedisCacheOptions{URL: "not a url"})
	require.Error(t, err)
}

func TestCacheKey_DistinguishesLanguages(t *testing.T) {
	a := cacheKey("camera", platform.Japanese, platform.English)
	b := cacheKey("camera", platform.Korean, platform.English)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, cacheKey("camera", platform.Japanese, platform.English))
}
