package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/listingbridge/internal/config"
	"github.com/JonMunkholm/listingbridge/internal/csvexport"
	"github.com/JonMunkholm/listingbridge/internal/images"
	"github.com/JonMunkholm/listingbridge/internal/platform"
	"github.com/JonMunkholm/listingbridge/internal/product"
	"github.com/JonMunkholm/listingbridge/internal/transform"
	"github.com/JonMunkholm/listingbridge/internal/translate"
)

type exportOptions struct {
	platform      string
	input         string
	outDir        string
	country       string
	noHeaders     bool
	expandImages  bool
	fetchMetadata bool
}

func newExportCommand(root *rootOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a product file as a marketplace CSV",
		Long: `Transform every product in a JSON or YAML file for one marketplace and
write the exportable ones as a UTF-8 CSV with byte order mark.

Products with blocking errors are listed on stderr and left out of the file.
Translation uses the provider configured in the environment
(TRANSLATION_PROVIDER, OPENAI_API_KEY, REDIS_URL).`,
		Example: `  # Write shopify_products_<n>_<timestamp>.csv into ./out
  listingctl export --platform shopify --input products.yaml --out ./out

  # Stream an eBay CSV to stdout without a header row
  listingctl export --platform ebay --input products.json --out - --no-headers`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.platform, "platform", "p", "", "target marketplace (see 'listingctl platforms')")
	f.StringVarP(&opts.input, "input", "i", "", "product file (.json, .yaml or .yml)")
	f.StringVarP(&opts.outDir, "out", "o", ".", "output directory, or - for stdout")
	f.StringVar(&opts.country, "country", "", "target country (default: the platform's default)")
	f.BoolVar(&opts.noHeaders, "no-headers", false, "omit the header row")
	f.BoolVar(&opts.expandImages, "expand-images", false, "emit one extra row per additional image where the layout supports it")
	f.BoolVar(&opts.fetchMetadata, "fetch-images", false, "download image headers to validate dimensions and formats")
	_ = cmd.MarkFlagRequired("platform")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runExport(cmd *cobra.Command, root *rootOptions, opts *exportOptions) error {
	p, err := platform.Parse(opts.platform)
	if err != nil {
		return err
	}

	srcs, err := readProducts(opts.input)
	if err != nil {
		return err
	}
	if len(srcs) == 0 {
		return fmt.Errorf("%s contains no products", opts.input)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	engine, cleanup, err := buildEngine(ctx, cfg, root)
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := engine.TransformBatch(ctx, srcs, transform.Request{
		Platform:           p,
		TargetCountry:      opts.country,
		FetchImageMetadata: opts.fetchMetadata,
	})
	if err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	for _, res := range results {
		if !res.Exportable() {
			fmt.Fprintf(errOut, "skipped %s: %s\n", res.Product.SKU, strings.Join(res.Errors, "; "))
			continue
		}
		for _, w := range res.Product.Warnings {
			fmt.Fprintf(errOut, "warning %s: %s\n", res.Product.SKU, w)
		}
	}
	ok := transform.Exportable(results)

	csvOpts := csvexport.Options{
		Platform:       p,
		Products:       ok,
		IncludeHeaders: !opts.noHeaders,
		ExpandImages:   opts.expandImages,
		Logger:         root.logger,
	}

	if opts.outDir == "-" {
		return writeCSV(cmd.OutOrStdout(), csvOpts)
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(opts.outDir, csvexport.Filename(p, len(ok), time.Now()))
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := writeCSV(file, csvOpts); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d exported, %d skipped\n", path, len(ok), len(results)-len(ok))
	return nil
}

func writeCSV(w io.Writer, opts csvexport.Options) error {
	if _, err := io.WriteString(w, csvexport.BOM); err != nil {
		return err
	}
	return csvexport.Write(w, opts)
}

// readProducts decodes a list of product records. YAML is chosen by file
// extension; everything else is read as JSON.
func readProducts(path string) ([]product.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}

	var srcs []product.Source
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &srcs)
	default:
		err = json.Unmarshal(data, &srcs)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return srcs, nil
}

// buildEngine wires the translator, FX rates and image fetcher from cfg.
func buildEngine(ctx context.Context, cfg *config.Config, root *rootOptions) (*transform.Engine, func(), error) {
	cleanup := func() {}
	trOpts := []translate.Option{
		translate.WithTimeout(cfg.Translation.Timeout),
		translate.WithLogger(root.logger),
	}

	if cfg.Redis.URL != "" {
		cache, err := translate.NewRedisCache(ctx, translate.RedisCacheOptions{
			URL:            cfg.Redis.URL,
			Prefix:         cfg.Redis.Prefix,
			ConnectTimeout: cfg.Redis.ConnectTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect translation cache: %w", err)
		}
		cleanup = func() { _ = cache.Close() }
		trOpts = append(trOpts, translate.WithCache(cache, cfg.Translation.CacheTTL))
	}

	var provider translate.Provider
	if cfg.Translation.Provider == "openai" {
		provider = translate.NewOpenAIProvider(cfg.Translation.OpenAIAPIKey, cfg.Translation.Model)
	}

	fetcher := images.NewFetcher(
		images.WithHTTPClient(&http.Client{Timeout: cfg.Images.FetchTimeout}),
		images.WithConcurrency(cfg.Images.FetchConcurrency),
		images.WithLogger(root.logger),
	)

	engine := transform.New(
		translate.New(provider, trOpts...),
		transform.WithRates(cfg.Pricing.RateTable()),
		transform.WithFetcher(fetcher),
		transform.WithConcurrency(cfg.Export.Workers),
		transform.WithLogger(root.logger),
	)
	return engine, cleanup, nil
}
