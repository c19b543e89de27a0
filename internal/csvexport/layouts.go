package csvexport

import (
	"fmt"
	"strconv"

	"golang.org/x/text/currency"

	"github.com/JonMunkholm/listingbridge/internal/platform"
	"github.com/JonMunkholm/listingbridge/internal/product"
)

func init() {
	register(platform.EBay, ebayLayout{})
	register(platform.AmazonUS, amazonLayout{withUPC: true})
	register(platform.AmazonAU, amazonLayout{})
	register(platform.AmazonJP, amazonJPLayout{})
	register(platform.Coupang, coupangLayout{})
	register(platform.Qoo10, qoo10Layout{})
	register(platform.Shopee, shopeeLayout{})
	register(platform.Shopify, newShopifyLayout())
	register(platform.Mercari, mercariLayout{})
	verifyLayouts()
}

// numbered returns "prefix1".."prefixN".
func numbered(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return out
}

// imageSlots returns exactly n image cells starting at offset.
func imageSlots(p product.Transformed, offset, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = p.Image(offset + i)
	}
	return out
}

func price(p product.Transformed) string {
	if unit, err := currency.ParseISO(p.Currency); err == nil {
		return platform.Format(p.Price, unit)
	}
	return p.Price.String()
}

func quantity(p product.Transformed) string {
	return strconv.Itoa(p.Stock)
}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

type ebayLayout struct{}

func (ebayLayout) ImageColumns() int { return 12 }

func (ebayLayout) Header() []string {
	return concat(
		[]string{"Action", "SKU", "Title", "Description", "Category", "Price", "Quantity", "Condition"},
		numbered("Image", 12),
	)
}

func (ebayLayout) Row(p product.Transformed) []string {
	return concat(
		[]string{"Add", p.SKU, p.Title, p.Description, p.Category, price(p), quantity(p), p.Extra("condition")},
		imageSlots(p, 0, 12),
	)
}

// amazonLayout covers the US and AU marketplaces; only the US file has a
// UPC column.
type amazonLayout struct {
	withUPC bool
}

// ImageColumns counts the main image and the eight "Other Image URL" cells.
func (amazonLayout) ImageColumns() int { return 9 }

func (l amazonLayout) Header() []string {
	cols := []string{"SKU", "Product Name", "Product Description", "Brand", "ASIN"}
	if l.withUPC {
		cols = append(cols, "UPC")
	}
	cols = append(cols, "Price", "Quantity", "Condition", "Fulfillment", "Main Image URL")
	return concat(cols, numbered("Other Image URL", 8))
}

func (l amazonLayout) Row(p product.Transformed) []string {
	cols := []string{p.SKU, p.Title, p.Description, p.Extra("brand"), p.Extra("asin")}
	if l.withUPC {
		cols = append(cols, p.Extra("upc"))
	}
	cols = append(cols, price(p), quantity(p), p.Extra("condition"), p.Extra("fulfillment_method"), p.Image(0))
	return concat(cols, imageSlots(p, 1, 8))
}

type amazonJPLayout struct{}

func (amazonJPLayout) ImageColumns() int { return 9 }

func (amazonJPLayout) Header() []string {
	return concat(
		[]string{"SKU", "商品名", "商品説明", "ブランド", "ASIN", "JANコード", "価格", "在庫数", "コンディション", "フルフィルメント", "メイン画像URL"},
		numbered("サブ画像URL", 8),
	)
}

func (amazonJPLayout) Row(p product.Transformed) []string {
	return concat(
		[]string{
			p.SKU, p.Title, p.Description, p.Extra("brand"), p.Extra("asin"), p.Extra("jan_code"),
			price(p), quantity(p), p.Extra("condition"), p.Extra("fulfillment_method"), p.Image(0),
		},
		imageSlots(p, 1, 8),
	)
}

type coupangLayout struct{}

func (coupangLayout) ImageColumns() int { return 10 }

func (coupangLayout) Header() []string {
	return concat(
		[]string{"Item ID", "SKU", "상품명", "상품설명", "브랜드", "원산지", "가격", "재고수량", "배송방법", "카테고리"},
		numbered("이미지", 10),
	)
}

func (coupangLayout) Row(p product.Transformed) []string {
	return concat(
		[]string{
			p.Extra("item_id"), p.SKU, p.Title, p.Description, p.Extra("brand"), p.Extra("origin_country"),
			price(p), quantity(p), p.Extra("delivery_method"), p.Category,
		},
		imageSlots(p, 0, 10),
	)
}

type qoo10Layout struct{}

func (qoo10Layout) ImageColumns() int { return 10 }

func (qoo10Layout) Header() []string {
	return concat(
		[]string{"SKU", "Title", "Description", "Category", "Price", "Sale Price", "Quantity", "Weight (g)", "Shipping Method"},
		numbered("Image ", 10),
	)
}

func (qoo10Layout) Row(p product.Transformed) []string {
	return concat(
		[]string{
			p.SKU, p.Title, p.Description, p.Category, price(p), p.Extra("sale_price"),
			quantity(p), p.Extra("weight_g"), p.Extra("shipping_method"),
		},
		imageSlots(p, 0, 10),
	)
}

type shopeeLayout struct{}

func (shopeeLayout) ImageColumns() int { return 10 }

func (shopeeLayout) Header() []string {
	return concat(
		[]string{"SKU", "Product Name", "Description", "Category", "Price", "Stock", "Weight (g)", "Condition"},
		numbered("Image ", 10),
	)
}

func (shopeeLayout) Row(p product.Transformed) []string {
	return concat(
		[]string{
			p.SKU, p.Title, p.Description, p.Category, price(p), quantity(p),
			p.Extra("weight_g"), p.Extra("condition"),
		},
		imageSlots(p, 0, 10),
	)
}

type mercariLayout struct{}

func (mercariLayout) ImageColumns() int { return 10 }

func (mercariLayout) Header() []string {
	return concat(
		[]string{"SKU", "商品名", "説明", "カテゴリ", "価格", "コンディション", "配送方法", "配送料負担"},
		numbered("画像", 10),
	)
}

func (mercariLayout) Row(p product.Transformed) []string {
	return concat(
		[]string{
			p.SKU, p.Title, p.Description, p.Category, price(p), p.Extra("condition"),
			p.Extra("shipping_method"), p.Extra("shipping_payer"),
		},
		imageSlots(p, 0, 10),
	)
}
