package csvexport

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mozillazg/go-unidecode"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/JonMunkholm/listingbridge/internal/product"
)

var shopifyHeader = []string{
	"Handle", "Title", "Body (HTML)", "Vendor", "Type", "Tags", "Published",
	"Option1 Name", "Option1 Value", "Variant SKU", "Variant Grams",
	"Variant Inventory Qty", "Variant Price", "Image Src", "Image Position",
}

// shopifyLayout emits one row per (product, image position). The base row
// carries the product and its first image; ExtraRows adds the rest.
type shopifyLayout struct {
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

func newShopifyLayout() shopifyLayout {
	return shopifyLayout{
		markdown: goldmark.New(
			goldmark.WithRendererOptions(html.WithHardWraps(), html.WithUnsafe()),
		),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

func (shopifyLayout) Header() []string {
	return shopifyHeader
}

func (l shopifyLayout) Row(p product.Transformed) []string {
	position := ""
	if len(p.Images) > 0 {
		position = "1"
	}

	vendor := p.Extra("vendor")
	if vendor == "" {
		vendor = p.Extra("brand")
	}

	return []string{
		Handle(p.Title, p.SKU),
		p.Title,
		l.body(p.Description),
		vendor,
		p.Category,
		p.Extra("tags"),
		"TRUE",
		"Title",
		"Default Title",
		p.SKU,
		p.Extra("weight_g"),
		quantity(p),
		price(p),
		p.Image(0),
		position,
	}
}

// ExtraRows returns one image-only row per image after the first.
func (shopifyLayout) ExtraRows(p product.Transformed) [][]string {
	if len(p.Images) < 2 {
		return nil
	}
	handle := Handle(p.Title, p.SKU)
	rows := make([][]string, 0, len(p.Images)-1)
	for i := 1; i < len(p.Images); i++ {
		row := make([]string, len(shopifyHeader))
		row[0] = handle
		row[13] = p.Images[i]
		row[14] = strconv.Itoa(i + 1)
		rows = append(rows, row)
	}
	return rows
}

// body renders a Markdown or HTML description to sanitized HTML.
func (l shopifyLayout) body(description string) string {
	if strings.TrimSpace(description) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := l.markdown.Convert([]byte(description), &buf); err != nil {
		return l.sanitizer.Sanitize(description)
	}
	return strings.TrimSpace(l.sanitizer.Sanitize(buf.String()))
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Handle builds a Shopify URL handle from a title, transliterating
// non-Latin text. It falls back to the lower-cased SKU.
func Handle(title, sku string) string {
	h := strings.ToLower(unidecode.Unidecode(title))
	h = strings.Trim(nonSlug.ReplaceAllString(h, "-"), "-")
	if h == "" {
		h = strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(sku), "-"), "-")
	}
	return h
}
