// Package csvexport encodes transformed products as marketplace bulk-upload
// CSV files.
//
// Each platform registers one Layout. Every emitted row, and the header, has
// exactly len(Header()) columns for that platform: short rows are padded
// with empty cells and long rows are cut.
package csvexport

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JonMunkholm/listingbridge/internal/platform"
	"github.com/JonMunkholm/listingbridge/internal/product"
)

// BOM is the UTF-8 byte order mark prepended to downloads.
const BOM = "\uFEFF"

var rowsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "listingbridge_export_rows_skipped_total",
	Help: "Products dropped from a CSV export because their row could not be built.",
}, []string{"platform"})

// Layout builds the header and rows of one platform's CSV.
type Layout interface {
	Header() []string
	Row(p product.Transformed) []string
}

// ExtraRowLayout is implemented by layouts that can emit additional rows
// per product, such as one row per extra image.
type ExtraRowLayout interface {
	Layout
	ExtraRows(p product.Transformed) [][]string
}

// ImageColumnLayout is implemented by layouts with a fixed number of image
// columns. Images past that count are not written.
type ImageColumnLayout interface {
	Layout
	ImageColumns() int
}

// layouts is populated by init in layouts.go and read-only afterwards.
var layouts = make(map[platform.Platform]Layout)

func register(p platform.Platform, l Layout) {
	if _, exists := layouts[p]; exists {
		panic(fmt.Sprintf("csv layout already registered: %s", p))
	}
	layouts[p] = l
}

func verifyLayouts() {
	for _, p := range platform.All() {
		if _, ok := layouts[p]; !ok {
			panic(fmt.Sprintf("csvexport: platform %s has no layout", p))
		}
	}
}

// LayoutFor returns the layout registered for p.
func LayoutFor(p platform.Platform) Layout {
	l, ok := layouts[p]
	if !ok {
		panic(fmt.Sprintf("csvexport: no layout for %q", string(p)))
	}
	return l
}

// ImageColumns returns how many images a row of p's CSV can carry, or 0
// when the layout has no fixed limit.
func ImageColumns(p platform.Platform) int {
	if l, ok := LayoutFor(p).(ImageColumnLayout); ok {
		return l.ImageColumns()
	}
	return 0
}

// Header returns a copy of the column names for p.
func Header(p platform.Platform) []string {
	return append([]string(nil), LayoutFor(p).Header()...)
}

// Options controls CSV generation.
type Options struct {
	Platform       platform.Platform
	Products       []product.Transformed
	IncludeHeaders bool

	// ExpandImages emits extra rows for layouts that support them.
	ExpandImages bool

	Logger *slog.Logger
}

// Generate renders products as CSV text without a BOM. Rows are separated
// by "\n". A product whose row cannot be built is logged and skipped.
func Generate(opts Options) string {
	var b strings.Builder
	_ = write(&b, opts)
	return b.String()
}

// Write streams the same bytes Generate returns to w.
func Write(w io.Writer, opts Options) error {
	return write(w, opts)
}

func write(w io.Writer, opts Options) error {
	return writeLayout(w, LayoutFor(opts.Platform), opts)
}

func writeLayout(w io.Writer, layout Layout, opts Options) error {
	width := len(layout.Header())

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	first := true
	emit := func(values []string) error {
		line := FormatRow(fit(values, width))
		if !first {
			line = "\n" + line
		}
		first = false
		_, err := io.WriteString(w, line)
		return err
	}

	if opts.IncludeHeaders {
		if err := emit(layout.Header()); err != nil {
			return err
		}
	}

	for i, p := range opts.Products {
		rows, err := buildRows(layout, p, opts.ExpandImages)
		if err != nil {
			rowsSkipped.WithLabelValues(string(opts.Platform)).Inc()
			logger.Error("skipping product in csv export",
				"platform", opts.Platform,
				"sku", p.SKU,
				"index", i,
				"error", err,
			)
			continue
		}
		for _, row := range rows {
			if err := emit(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildRows runs the layout for one product, converting a panic into an
// error so one malformed product cannot abort a batch.
func buildRows(layout Layout, p product.Transformed, expand bool) (rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows = nil
			err = fmt.Errorf("building row: %v", r)
		}
	}()

	rows = append(rows, layout.Row(p))
	if expand {
		if x, ok := layout.(ExtraRowLayout); ok {
			rows = append(rows, x.ExtraRows(p)...)
		}
	}
	return rows, nil
}

// fit pads values with empty cells or cuts them to exactly n columns.
func fit(values []string, n int) []string {
	out := make([]string, n)
	copy(out, values)
	return out
}

// FormatRow joins values with commas, quoting any value that contains a
// comma, double quote, CR or LF and doubling its inner quotes.
func FormatRow(values []string) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		if strings.ContainsAny(v, ",\"\r\n") {
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(v, `"`, `""`))
			b.WriteByte('"')
			continue
		}
		b.WriteString(v)
	}
	return b.String()
}

// WithBOM prepends the UTF-8 byte order mark so spreadsheet tools detect
// the encoding.
func WithBOM(content string) []byte {
	out := make([]byte, 0, len(BOM)+len(content))
	out = append(out, BOM...)
	return append(out, content...)
}

var stampReplacer = strings.NewReplacer(":", "", ".", "")

// Filename returns "{platform}_products_{count}_{timestamp}.csv" where the
// timestamp is ISO 8601 UTC with ":" and "." removed.
func Filename(p platform.Platform, count int, now time.Time) string {
	stamp := stampReplacer.Replace(now.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
	return fmt.Sprintf("%s_products_%d_%s.csv", p, count, stamp)
}
