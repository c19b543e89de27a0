package images

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"time"

	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder

	_ "golang.org/x/image/webp" // WebP decoder
	"golang.org/x/sync/errgroup"
)

const bytesPerMB = 1024 * 1024

// Fetcher retrieves image metadata over HTTP.
type Fetcher struct {
	client      *http.Client
	concurrency int
	maxBytes    int64
	logger      *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the HTTP client used for downloads.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithConcurrency bounds the number of in-flight downloads.
func WithConcurrency(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithLogger sets the logger used for per-image failures.
func WithLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a Fetcher with sane defaults.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: 15 * time.Second},
		concurrency: 4,
		maxBytes:    50 * bytesPerMB,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchAll retrieves metadata for every URL and waits for all of them.
// The result has one entry per URL in input order. A failed fetch yields
// metadata with only the URL set; it never fails the batch.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []Metadata {
	out := make([]Metadata, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for i, u := range urls {
		g.Go(func() error {
			md, err := f.Fetch(gctx, u)
			if err != nil {
				f.logger.Warn("image metadata fetch failed", "url", u, "error", err)
				md = Metadata{URL: u}
			}
			out[i] = md
			return nil
		})
	}

	_ = g.Wait()
	return out
}

// Fetch downloads one image and reads its dimensions, format and size.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Metadata{}, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}

	counter := &countingReader{r: io.LimitReader(resp.Body, f.maxBytes)}
	br := bufio.NewReader(counter)

	cfg, format, err := image.DecodeConfig(br)
	if err != nil {
		return Metadata{}, fmt.Errorf("decode %s: %w", url, err)
	}

	size := resp.ContentLength
	if size <= 0 {
		if _, err := io.Copy(io.Discard, br); err != nil {
			return Metadata{}, fmt.Errorf("read %s: %w", url, err)
		}
		size = counter.n
	}

	return Metadata{
		URL:        url,
		Width:      cfg.Width,
		Height:     cfg.Height,
		FileSizeMB: float64(size) / bytesPerMB,
		Format:     NormalizeFormat(format),
	}, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
