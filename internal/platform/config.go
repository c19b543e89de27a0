package platform

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// ImageRequirements describes what a marketplace accepts for product images.
// Zero MaxWidth/MaxHeight and an empty AspectRatio mean "not constrained".
// The built-in platforms set no maximum dimensions.
type ImageRequirements struct {
	MinWidth         int      `json:"minWidth"`
	MinHeight        int      `json:"minHeight"`
	MaxWidth         int      `json:"maxWidth,omitempty"`
	MaxHeight        int      `json:"maxHeight,omitempty"`
	AspectRatio      string   `json:"aspectRatio,omitempty"` // "W:H"
	MaxFileSizeMB    float64  `json:"maxFileSizeMB"`
	SupportedFormats []string `json:"supportedFormats"`
}

// HasMaxBounds reports whether both maximum dimensions are configured.
func (r ImageRequirements) HasMaxBounds() bool {
	return r.MaxWidth > 0 && r.MaxHeight > 0
}

// TargetRatio parses AspectRatio into width/height.
// ok is false when no ratio is configured or the string is malformed.
func (r ImageRequirements) TargetRatio() (ratio float64, ok bool) {
	if r.AspectRatio == "" {
		return 0, false
	}
	w, h, found := strings.Cut(r.AspectRatio, ":")
	if !found {
		return 0, false
	}
	wf, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
	if err != nil || wf <= 0 {
		return 0, false
	}
	hf, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
	if err != nil || hf <= 0 {
		return 0, false
	}
	return wf / hf, true
}

// SupportsFormat reports whether a normalized format is accepted.
func (r ImageRequirements) SupportsFormat(format string) bool {
	for _, f := range r.SupportedFormats {
		if f == format {
			return true
		}
	}
	return false
}

// FeeStructure is the marketplace's selling-fee shape.
// Percentages are expressed as 0-100.
type FeeStructure struct {
	BaseFeePercent       decimal.Decimal            `json:"baseFeePercent"`
	PaymentProcessingFee decimal.Decimal            `json:"paymentProcessingFee"`
	FixedFee             decimal.Decimal            `json:"fixedFee"`
	CategoryFees         map[string]decimal.Decimal `json:"categoryFees,omitempty"`
}

// PlatformConfig is the immutable per-marketplace configuration.
type PlatformConfig struct {
	Platform          Platform          `json:"platform"`
	DisplayName       string            `json:"displayName"`
	Language          Language          `json:"language"`
	Currency          currency.Unit     `json:"-"`
	DefaultCountry    string            `json:"defaultCountry"`
	MaxImages         int               `json:"maxImages"`
	ImageRequirements ImageRequirements `json:"imageRequirements"`
	FeeStructure      FeeStructure      `json:"feeStructure"`
	RequiredFields    []string          `json:"requiredFields"`
}

// CurrencyCode returns the ISO 4217 code, e.g. "USD".
func (c PlatformConfig) CurrencyCode() string {
	return c.Currency.String()
}

func pct(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	usd = currency.MustParseISO("USD")
	aud = currency.MustParseISO("AUD")
	jpy = currency.MustParseISO("JPY")
	krw = currency.MustParseISO("KRW")
	sgd = currency.MustParseISO("SGD")
)

var amazonImages = ImageRequirements{
	MinWidth:         1000,
	MinHeight:        1000,
	MaxFileSizeMB:    10,
	SupportedFormats: []string{"jpg", "png", "gif"},
}

var configs = map[Platform]PlatformConfig{
	EBay: {
		DisplayName:    "eBay",
		Language:       English,
		Currency:       usd,
		DefaultCountry: "US",
		MaxImages:      12,
		ImageRequirements: ImageRequirements{
			MinWidth:         500,
			MinHeight:        500,
			MaxFileSizeMB:    12,
			SupportedFormats: []string{"jpg", "png"},
		},
		FeeStructure: FeeStructure{
			BaseFeePercent: pct("13.25"),
			FixedFee:       pct("0.30"),
		},
		RequiredFields: []string{"title", "description", "category", "condition"},
	},
	AmazonUS: {
		DisplayName:       "Amazon US",
		Language:          English,
		Currency:          usd,
		DefaultCountry:    "US",
		MaxImages:         9,
		ImageRequirements: amazonImages,
		FeeStructure:      FeeStructure{BaseFeePercent: pct("15")},
		RequiredFields:    []string{"title", "description", "brand", "upc", "fulfillment_method"},
	},
	AmazonAU: {
		DisplayName:       "Amazon AU",
		Language:          English,
		Currency:          aud,
		DefaultCountry:    "AU",
		MaxImages:         9,
		ImageRequirements: amazonImages,
		FeeStructure:      FeeStructure{BaseFeePercent: pct("15")},
		RequiredFields:    []string{"title", "description", "brand", "asin", "fulfillment_method"},
	},
	AmazonJP: {
		DisplayName:       "Amazon JP",
		Language:          Japanese,
		Currency:          jpy,
		DefaultCountry:    "JP",
		MaxImages:         9,
		ImageRequirements: amazonImages,
		FeeStructure:      FeeStructure{BaseFeePercent: pct("10")},
		RequiredFields:    []string{"title", "description", "brand", "jan_code", "fulfillment_method"},
	},
	Coupang: {
		DisplayName:    "Coupang",
		Language:       Korean,
		Currency:       krw,
		DefaultCountry: "KR",
		MaxImages:      20,
		ImageRequirements: ImageRequirements{
			MinWidth:         800,
			MinHeight:        800,
			MaxFileSizeMB:    10,
			SupportedFormats: []string{"jpg", "png"},
		},
		FeeStructure: FeeStructure{BaseFeePercent: pct("10.8")},
		RequiredFields: []string{
			"title_ko", "description_ko", "brand", "origin_country",
			"item_id", "category", "delivery_method",
		},
	},
	Qoo10: {
		DisplayName:    "Qoo10",
		Language:       English,
		Currency:       sgd,
		DefaultCountry: "SG",
		MaxImages:      15,
		ImageRequirements: ImageRequirements{
			MinWidth:         500,
			MinHeight:        500,
			MaxFileSizeMB:    5,
			SupportedFormats: []string{"jpg", "png", "gif"},
		},
		FeeStructure:   FeeStructure{BaseFeePercent: pct("12")},
		RequiredFields: []string{"title", "description", "category", "price", "shipping_method", "weight_g"},
	},
	Shopee: {
		DisplayName:    "Shopee",
		Language:       English,
		Currency:       sgd,
		DefaultCountry: "SG",
		MaxImages:      10,
		ImageRequirements: ImageRequirements{
			MinWidth:         800,
			MinHeight:        800,
			AspectRatio:      "1:1",
			MaxFileSizeMB:    5,
			SupportedFormats: []string{"jpg", "png"},
		},
		FeeStructure: FeeStructure{
			BaseFeePercent:       pct("6"),
			PaymentProcessingFee: pct("2"),
		},
		RequiredFields: []string{"title", "description", "category", "weight_g"},
	},
	Shopify: {
		DisplayName:    "Shopify",
		Language:       English,
		Currency:       usd,
		DefaultCountry: "US",
		MaxImages:      25,
		ImageRequirements: ImageRequirements{
			MinWidth:         800,
			MinHeight:        800,
			MaxFileSizeMB:    20,
			SupportedFormats: []string{"jpg", "png", "gif", "webp"},
		},
		FeeStructure: FeeStructure{
			PaymentProcessingFee: pct("2.9"),
			FixedFee:             pct("0.30"),
		},
		RequiredFields: []string{"title", "description", "sku"},
	},
	Mercari: {
		DisplayName:    "Mercari",
		Language:       Japanese,
		Currency:       jpy,
		DefaultCountry: "JP",
		MaxImages:      10,
		ImageRequirements: ImageRequirements{
			MinWidth:         500,
			MinHeight:        500,
			MaxFileSizeMB:    5,
			SupportedFormats: []string{"jpg", "png"},
		},
		FeeStructure: FeeStructure{BaseFeePercent: pct("10")},
		RequiredFields: []string{
			"title", "description", "category", "condition",
			"shipping_method", "shipping_payer",
		},
	},
}

func init() {
	if len(configs) != len(all) {
		panic(fmt.Sprintf("platform registry has %d configs for %d platforms", len(configs), len(all)))
	}
	for _, p := range all {
		cfg, ok := configs[p]
		if !ok {
			panic(fmt.Sprintf("platform %s has no config", p))
		}
		cfg.Platform = p
		configs[p] = cfg
	}
}

// Config returns the configuration for p.
// p must be a registered platform; use Parse on untrusted input.
func Config(p Platform) PlatformConfig {
	cfg, ok := configs[p]
	if !ok {
		panic(fmt.Sprintf("platform: no config for %q", string(p)))
	}
	cfg.RequiredFields = slices.Clone(cfg.RequiredFields)
	cfg.ImageRequirements.SupportedFormats = slices.Clone(cfg.ImageRequirements.SupportedFormats)
	cfg.FeeStructure.CategoryFees = maps.Clone(cfg.FeeStructure.CategoryFees)
	return cfg
}

// Configs returns every platform configuration in All() order.
func Configs() []PlatformConfig {
	out := make([]PlatformConfig, 0, len(all))
	for _, p := range all {
		out = append(out, Config(p))
	}
	return out
}

// MaxImages returns the maximum number of listing images for p.
func MaxImages(p Platform) int {
	return Config(p).MaxImages
}

// PrimaryLanguage returns the listing language of p.
func PrimaryLanguage(p Platform) Language {
	return Config(p).Language
}

// PrimaryCurrency returns the listing currency of p.
func PrimaryCurrency(p Platform) currency.Unit {
	return Config(p).Currency
}

// RequiredFields returns the ids of fields p will not accept a listing without.
func RequiredFields(p Platform) []string {
	return Config(p).RequiredFields
}
