package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/listingbridge/internal/config"
	"github.com/JonMunkholm/listingbridge/internal/platform"
	"github.com/JonMunkholm/listingbridge/internal/product"
	"github.com/JonMunkholm/listingbridge/internal/transform"
	"github.com/JonMunkholm/listingbridge/internal/translate"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            8080,
			ShutdownTimeout: time.Second,
			RequestTimeout:  5 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Export:   config.ExportConfig{MaxConcurrent: 1, MaxWaitTime: 50 * time.Millisecond, MaxProducts: 5, Workers: 2},
		Security: config.SecurityConfig{EnableCSP: true},
		Logging:  config.LoggingConfig{Level: "info", Format: "text"},
	}
}

func camera(sku string) product.Source {
	return product.Source{
		SKU:           sku,
		TitleJA:       "ヴィンテージカメラ",
		TitleEN:       "Vintage camera",
		DescriptionEN: "Mint condition",
		PriceJPY:      decimal.NewFromInt(30000),
		Stock:         2,
		ImageURLs:     []string{"https://cdn.example.com/" + sku + "/1.jpg", "https://cdn.example.com/" + sku + "/2.jpg"},
		Category:      "Cameras",
		Brand:         "Nikon",
		Condition:     "Used",
	}
}

type fakeProducts map[string]product.Source

func (f fakeProducts) GetBySKU(_ context.Context, sku string) (product.Source, error) {
	if src, ok := f[sku]; ok {
		return src, nil
	}
	return product.Source{}, fmt.Errorf("get product %s: %w", sku, product.ErrNotFound)
}

func (f fakeProducts) GetBySKUs(_ context.Context, skus []string) ([]product.Source, []string, error) {
	var found []product.Source
	var missing []string
	for _, sku := range skus {
		if src, ok := f[sku]; ok {
			found = append(found, src)
		} else {
			missing = append(missing, sku)
		}
	}
	return found, missing, nil
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestServer(t *testing.T, cfg *config.Config, opts ...Option) *Server {
	t.Helper()
	provider := translate.ProviderFunc(func(_ context.Context, text string, target, _ platform.Language) (string, error) {
		return "[" + string(target) + "] " + text, nil
	})
	engine := transform.New(translate.New(provider), transform.WithConcurrency(2))

	noImages := camera("NOIMG")
	noImages.ImageURLs = nil
	products := fakeProducts{"ABC-1": camera("ABC-1"), "ABC-2": camera("ABC-2"), "NOIMG": noImages}

	return NewServer(engine, cfg, append([]Option{WithProducts(products)}, opts...)...)
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.RemoteAddr = "198.51.100.10:1234"
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e), rec.Body.String())
	return e
}

func TestListPlatforms(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, http.MethodGet, "/api/platforms", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out []struct {
		Platform   string   `json:"platform"`
		Currency   string   `json:"currency"`
		CSVColumns []string `json:"csvColumns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 9)
	assert.Equal(t, "ebay", out[0].Platform)
	assert.Equal(t, "USD", out[0].Currency)
	assert.Len(t, out[0].CSVColumns, 20)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestGetPlatform(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodGet, "/api/platforms/mercari", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"currency":"JPY"`)

	rec = do(t, s, http.MethodGet, "/api/platforms/etsy", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "PLT001", decodeError(t, rec).Code)
}

func TestPlatformFields(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, http.MethodGet, "/api/platforms/amazon_jp/fields", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Groups   []json.RawMessage `json:"groups"`
		Required []string          `json:"required"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NotEmpty(t, out.Groups)
	assert.Contains(t, out.Required, "jan_code")
}

func TestValidateFields(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodPost, "/api/platforms/ebay/validate", map[string]any{"title": "Camera"})
	require.Equal(t, http.StatusOK, rec.Code)

	var report struct {
		Valid  bool              `json:"valid"`
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.False(t, report.Valid)
	assert.Contains(t, report.Errors, "description")
	assert.NotContains(t, report.Errors, "title")
}

func TestTransform_BySKU(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, http.MethodPost, "/api/transform", TransformRequest{SKU: "ABC-1", TargetPlatform: "coupang"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Product    product.Transformed    `json:"product"`
		Exportable bool                   `json:"exportable"`
		Fees       *platform.FeeBreakdown `json:"fees"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "[ko] Vintage camera", out.Product.Title)
	assert.Equal(t, "KRW", out.Product.Currency)
	require.NotNil(t, out.Fees)
	assert.Equal(t, "KRW", out.Fees.Currency)
}

func TestTransform_InlineProduct(t *testing.T) {
	s := newTestServer(t, testConfig())
	src := camera("INLINE-1")
	rec := do(t, s, http.MethodPost, "/api/transform", TransformRequest{Product: &src, TargetPlatform: "shopify"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"exportable":true`)
}

func TestTransform_Errors(t *testing.T) {
	s := newTestServer(t, testConfig())
	noStore := NewServer(transform.New(nil), testConfig())

	tests := []struct {
		name     string
		server   *Server
		body     any
		wantCode int
		wantErr  string
	}{
		{"unknown sku", s, TransformRequest{SKU: "NOPE", TargetPlatform: "ebay"}, http.StatusNotFound, "PRD001"},
		{"unknown platform", s, TransformRequest{SKU: "ABC-1", TargetPlatform: "etsy"}, http.StatusBadRequest, "PLT001"},
		{"missing product", s, TransformRequest{TargetPlatform: "ebay"}, http.StatusBadRequest, "REQ001"},
		{"malformed json", s, "{", http.StatusBadRequest, "REQ001"},
		{"no product store", noStore, TransformRequest{SKU: "ABC-1", TargetPlatform: "ebay"}, http.StatusBadRequest, "PRD002"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, tt.server, http.MethodPost, "/api/transform", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, decodeError(t, rec).Code)
		})
	}
}

func TestExport_CSV(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, http.MethodPost, "/api/export/shopify", ExportRequest{SKUs: []string{"ABC-1", "NOIMG", "GONE"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := rec.Body.Bytes()
	require.True(t, bytes.HasPrefix(body, []byte{0xEF, 0xBB, 0xBF}))
	lines := strings.Split(string(body[3:]), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Handle,Title,"))
	assert.Contains(t, lines[1], "ABC-1")

	h := rec.Header()
	assert.Equal(t, "text/csv; charset=utf-8", h.Get("Content-Type"))
	assert.Contains(t, h.Get("Content-Disposition"), `filename="shopify_products_1_`)
	assert.Len(t, h.Get("X-Export-ID"), 36)
	assert.Equal(t, "1", h.Get("X-Export-Count"))
	assert.Equal(t, "1", h.Get("X-Export-Skipped"))
	assert.Equal(t, "GONE", h.Get("X-Export-Missing"))
}

func TestExport_NoHeadersExpandImages(t *testing.T) {
	s := newTestServer(t, testConfig())
	no := false
	rec := do(t, s, http.MethodPost, "/api/export/shopify", ExportRequest{
		Products:       []product.Source{camera("X-1")},
		IncludeHeaders: &no,
		ExpandImages:   true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	lines := strings.Split(strings.TrimPrefix(rec.Body.String(), "\ufeff"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[1], ",2"))
}

func TestExport_Limits(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodPost, "/api/export/ebay", ExportRequest{SKUs: []string{"1", "2", "3", "4", "5", "6"}})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "EXP002", decodeError(t, rec).Code)

	rec = do(t, s, http.MethodPost, "/api/export/ebay", ExportRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.True(t, s.limiter.TryAcquire())
	defer s.limiter.Release()

	rec = do(t, s, http.MethodPost, "/api/export/ebay", ExportRequest{SKUs: []string{"ABC-1"}})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "EXP001", decodeError(t, rec).Code)
	assert.Equal(t, "10", rec.Header().Get("Retry-After"))
}

func TestExportStatus(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, http.MethodGet, "/api/export/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"active":0,"available":1,"maxConcurrent":1}`, rec.Body.String())
}

func TestPreview(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodGet, "/preview/ebay/ABC-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Vintage camera")
	assert.Contains(t, rec.Body.String(), "200.00 USD")

	rec = do(t, s, http.MethodGet, "/preview/ebay/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "PRD001")
}

func TestHealth(t *testing.T) {
	healthy := newTestServer(t, testConfig(), WithHealthCheck("postgres", pingerFunc(func(context.Context) error { return nil })))
	rec := do(t, healthy, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"postgres":"ok"`)

	sick := newTestServer(t, testConfig(), WithHealthCheck("redis", pingerFunc(func(context.Context) error {
		return errors.New("dial tcp: connection refused")
	})))
	rec = do(t, sick, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	s := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/platforms", nil).Code)
	rec := do(t, s, http.MethodGet, "/api/platforms", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE001", decodeError(t, rec).Code)
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	s := newTestServer(t, cfg)

	assert.Equal(t, http.StatusUnauthorized, do(t, s, http.MethodGet, "/api/platforms", nil).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/platforms", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig())
	do(t, s, http.MethodPost, "/api/export/shopify", ExportRequest{SKUs: []string{"ABC-1"}})

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "listingbridge_exports_total")
}

func TestShutdown_WaitsForExports(t *testing.T) {
	s := newTestServer(t, testConfig())
	require.True(t, s.limiter.TryAcquire())

	go func() {
		time.Sleep(150 * time.Millisecond)
		s.limiter.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.Zero(t, s.limiter.ActiveCount())
}
