// Package platform holds the static registry of supported marketplaces.
//
// Every marketplace the engine can export to is a [Platform] value. The set is
// closed: the nine constants below are the only valid values, and every
// per-platform table in the module (configuration, field groups, CSV layouts)
// carries exactly one entry per value. Untrusted identifiers must go through
// [Parse] before they reach the rest of the engine.
//
// The registry is built once at package init and never mutated afterwards, so
// all lookups are safe for concurrent use without locking.
package platform

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ErrUnknownPlatform is returned by Parse for identifiers outside the registry.
var ErrUnknownPlatform = errors.New("unknown platform")

// Platform identifies a target marketplace.
type Platform string

const (
	EBay     Platform = "ebay"
	AmazonUS Platform = "amazon_us"
	AmazonAU Platform = "amazon_au"
	AmazonJP Platform = "amazon_jp"
	Coupang  Platform = "coupang"
	Qoo10    Platform = "qoo10"
	Shopee   Platform = "shopee"
	Shopify  Platform = "shopify"
	Mercari  Platform = "mercari"
)

// all lists every platform in display order.
var all = []Platform{
	EBay,
	AmazonUS,
	AmazonAU,
	AmazonJP,
	Coupang,
	Qoo10,
	Shopee,
	Shopify,
	Mercari,
}

// All returns every supported platform in a stable order.
// The returned slice is a copy and may be modified by the caller.
func All() []Platform {
	out := make([]Platform, len(all))
	copy(out, all)
	return out
}

// Parse converts an external identifier into a Platform.
// Matching is case-insensitive and ignores surrounding whitespace.
func Parse(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
	}
	return p, nil
}

// Valid reports whether p is one of the registered platforms.
func (p Platform) Valid() bool {
	_, ok := configs[p]
	return ok
}

func (p Platform) String() string {
	return string(p)
}

// Language is a two-letter language code used for listing content.
type Language string

const (
	Japanese Language = "ja"
	English  Language = "en"
	Korean   Language = "ko"
	Chinese  Language = "zh"
)

// Tag returns the BCP 47 tag for the language.
func (l Language) Tag() language.Tag {
	return language.Make(string(l))
}

// Name returns the English display name, e.g. "Japanese".
func (l Language) Name() string {
	if name := display.English.Tags().Name(l.Tag()); name != "" {
		return name
	}
	return string(l)
}
