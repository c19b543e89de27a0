// Package product defines the canonical product record read from the master
// catalogue and the platform-specific record the transformation engine emits.
package product

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/listingbridge/internal/platform"
)

// ErrNotFound is returned by stores when no product has the requested SKU.
var ErrNotFound = errors.New("product not found")

// Dimensions are package dimensions in centimetres. Zero means unknown.
type Dimensions struct {
	LengthCM float64 `json:"lengthCm,omitempty" yaml:"lengthCm,omitempty"`
	WidthCM  float64 `json:"widthCm,omitempty" yaml:"widthCm,omitempty"`
	HeightCM float64 `json:"heightCm,omitempty" yaml:"heightCm,omitempty"`
}

// Source is the canonical record owned by the persistence layer.
// The engine reads it and never writes it back.
type Source struct {
	SKU           string          `json:"sku" yaml:"sku"`
	TitleJA       string          `json:"titleJa,omitempty" yaml:"titleJa,omitempty"`
	TitleEN       string          `json:"titleEn,omitempty" yaml:"titleEn,omitempty"`
	DescriptionJA string          `json:"descriptionJa,omitempty" yaml:"descriptionJa,omitempty"`
	DescriptionEN string          `json:"descriptionEn,omitempty" yaml:"descriptionEn,omitempty"`
	PriceJPY      decimal.Decimal `json:"priceJpy" yaml:"priceJpy"`
	Stock         int             `json:"stock" yaml:"stock"`
	ImageURLs     []string        `json:"imageUrls,omitempty" yaml:"imageUrls,omitempty"`
	WeightG       int             `json:"weightG,omitempty" yaml:"weightG,omitempty"`
	Dimensions    Dimensions      `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	Category      string          `json:"category,omitempty" yaml:"category,omitempty"`
	Brand         string          `json:"brand,omitempty" yaml:"brand,omitempty"`
	OriginCountry string          `json:"originCountry,omitempty" yaml:"originCountry,omitempty"`
	Condition     string          `json:"condition,omitempty" yaml:"condition,omitempty"`
	JAN           string          `json:"jan,omitempty" yaml:"jan,omitempty"`
	UPC           string          `json:"upc,omitempty" yaml:"upc,omitempty"`
	ASIN          string          `json:"asin,omitempty" yaml:"asin,omitempty"`

	// Attributes holds marketplace-only inputs keyed by field id,
	// e.g. "fulfillment_method", "shipping_payer" or "title_ko". A key of
	// the form "<platform>.<field>", such as "mercari.condition", applies
	// to that platform only.
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Attr returns a trimmed attribute value, or "" when unset.
func (s Source) Attr(key string) string {
	return strings.TrimSpace(s.Attributes[key])
}

// Title returns the title in lang, or "" if the record has none.
func (s Source) Title(lang platform.Language) string {
	switch lang {
	case platform.Japanese:
		return s.TitleJA
	case platform.English:
		return s.TitleEN
	}
	return ""
}

// Description returns the description in lang, or "" if the record has none.
func (s Source) Description(lang platform.Language) string {
	switch lang {
	case platform.Japanese:
		return s.DescriptionJA
	case platform.English:
		return s.DescriptionEN
	}
	return ""
}

// Transformed is the platform-specific listing produced by the engine.
// It is the sole input of every export format.
type Transformed struct {
	Platform    platform.Platform `json:"platform"`
	SKU         string            `json:"sku"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Price       decimal.Decimal   `json:"price"`
	Currency    string            `json:"currency"`
	Images      []string          `json:"images"`
	Stock       int               `json:"stock"`
	Category    string            `json:"category"`

	// PlatformSpecific carries per-platform extras keyed by field id
	// (brand, asin, upc, jan_code, fulfillment_method, weight_g, ...).
	PlatformSpecific map[string]string `json:"platformSpecific"`

	Warnings []string `json:"warnings"`
}

// Extra returns a PlatformSpecific value, or "" when unset.
func (t Transformed) Extra(key string) string {
	return t.PlatformSpecific[key]
}

// Image returns the i-th image URL, or "" when the slot is empty.
func (t Transformed) Image(i int) string {
	if i < 0 || i >= len(t.Images) {
		return ""
	}
	return t.Images[i]
}
