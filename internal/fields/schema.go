package fields

import "github.com/JonMunkholm/listingbridge/internal/platform"

// Labels are written in the marketplace's own listing language.

var fulfillmentOptions = []Option{
	{Value: "FBA", Label: "FBA (Fulfillment by Amazon)"},
	{Value: "FBM", Label: "FBM (Fulfillment by Merchant)"},
}

func amazonBasics() Group {
	return Group{
		Title: "Basic information",
		Fields: []Definition{
			{ID: "title", Label: "Product Title", Type: Text, Required: true, Validation: &Constraint{Max: Bound(200)}},
			{ID: "description", Label: "Product Description", Type: TextArea, Required: true, Validation: &Constraint{Max: Bound(2000)}},
			{ID: "brand", Label: "Brand", Type: Text, Required: true},
		},
	}
}

var (
	asinRule = &Constraint{Pattern: `^[A-Z0-9]{10}$`, CustomError: "ASIN must be 10 uppercase letters or digits"}
	upcRule  = &Constraint{Pattern: `^(\d{8}|\d{12,14})$`, CustomError: "UPC must be a GTIN of 8, 12, 13 or 14 digits"}
	janRule  = &Constraint{Pattern: `^(\d{8}|\d{13})$`, CustomError: "JAN code must be 8 or 13 digits"}
)

func init() {
	register(platform.EBay,
		Group{
			Title: "Basic information",
			Fields: []Definition{
				{ID: "title", Label: "Title", Type: Text, Required: true, Validation: &Constraint{Max: Bound(80)}, HelpText: "Up to 80 characters"},
				{ID: "description", Label: "Description", Type: TextArea, Required: true},
				{ID: "category", Label: "Category", Type: Text, Required: true},
				{ID: "condition", Label: "Condition", Type: Select, Required: true, Options: []Option{
					{Value: "New", Label: "New"},
					{Value: "Used", Label: "Used"},
					{Value: "Refurbished", Label: "Refurbished"},
				}},
			},
		},
	)

	register(platform.AmazonUS,
		amazonBasics(),
		Group{
			Title: "Product identifiers",
			Fields: []Definition{
				{ID: "asin", Label: "ASIN", Type: Text, Validation: asinRule},
				{ID: "upc", Label: "UPC", Type: Text, Required: true, Validation: upcRule, Placeholder: "012345678905"},
			},
		},
		Group{
			Title: "Fulfillment",
			Fields: []Definition{
				{ID: "fulfillment_method", Label: "Fulfillment Method", Type: Select, Required: true, Options: fulfillmentOptions},
			},
		},
	)

	register(platform.AmazonAU,
		amazonBasics(),
		Group{
			Title: "Product identifiers",
			Fields: []Definition{
				{ID: "asin", Label: "ASIN", Type: Text, Required: true, Validation: asinRule},
			},
		},
		Group{
			Title: "Fulfillment",
			Fields: []Definition{
				{ID: "fulfillment_method", Label: "Fulfillment Method", Type: Select, Required: true, Options: fulfillmentOptions},
			},
		},
	)

	register(platform.AmazonJP,
		Group{
			Title: "基本情報",
			Fields: []Definition{
				{ID: "title", Label: "商品名", Type: Text, Required: true, Validation: &Constraint{Max: Bound(200)}},
				{ID: "description", Label: "商品説明", Type: TextArea, Required: true, Validation: &Constraint{Max: Bound(2000)}},
				{ID: "brand", Label: "ブランド", Type: Text, Required: true},
			},
		},
		Group{
			Title: "商品識別",
			Fields: []Definition{
				{ID: "jan_code", Label: "JANコード", Type: Text, Required: true, Validation: janRule, Placeholder: "4901234567894"},
				{ID: "asin", Label: "ASIN", Type: Text, Validation: asinRule},
			},
		},
		Group{
			Title: "フルフィルメント",
			Fields: []Definition{
				{ID: "fulfillment_method", Label: "フルフィルメント方法", Type: Select, Required: true, Options: []Option{
					{Value: "FBA", Label: "FBA（Amazonから出荷）"},
					{Value: "FBM", Label: "FBM（出品者から出荷）"},
				}},
			},
		},
	)

	register(platform.Coupang,
		Group{
			Title: "기본 정보",
			Fields: []Definition{
				{ID: "title_ko", Label: "상품명", Type: Text, Required: true, Validation: &Constraint{Max: Bound(100)}},
				{ID: "description_ko", Label: "상품설명", Type: TextArea, Required: true},
				{ID: "brand", Label: "브랜드", Type: Text, Required: true},
				{ID: "origin_country", Label: "원산지", Type: Text, Required: true, Placeholder: "JP"},
			},
		},
		Group{
			Title: "상품 관리",
			Fields: []Definition{
				{ID: "item_id", Label: "Item ID", Type: Text, Required: true},
				{ID: "category", Label: "카테고리", Type: Text, Required: true},
			},
		},
		Group{
			Title: "배송",
			Fields: []Definition{
				{ID: "delivery_method", Label: "배송방법", Type: Select, Required: true, Options: []Option{
					{Value: "Coupang Wing", Label: "Coupang Wing"},
					{Value: "Rocket", Label: "Rocket Delivery"},
					{Value: "Standard", Label: "Standard"},
				}},
			},
		},
	)

	register(platform.Qoo10,
		Group{
			Title: "Basic information",
			Fields: []Definition{
				{ID: "title", Label: "Title", Type: Text, Required: true, Validation: &Constraint{Max: Bound(100)}},
				{ID: "description", Label: "Description", Type: TextArea, Required: true},
				{ID: "category", Label: "Category", Type: Text, Required: true},
			},
		},
		Group{
			Title: "Pricing",
			Fields: []Definition{
				{ID: "price", Label: "Price", Type: Number, Required: true, Validation: &Constraint{Min: Bound(0)}},
				{ID: "sale_price", Label: "Sale Price", Type: Number, Validation: &Constraint{Min: Bound(0)}},
			},
		},
		Group{
			Title: "Shipping",
			Fields: []Definition{
				{ID: "shipping_method", Label: "Shipping Method", Type: Select, Required: true, Options: []Option{
					{Value: "Qxpress", Label: "Qxpress"},
					{Value: "Standard", Label: "Standard"},
				}},
				{ID: "weight_g", Label: "Weight (g)", Type: Number, Required: true, Validation: &Constraint{Min: Bound(1)}},
			},
		},
	)

	register(platform.Shopee,
		Group{
			Title: "Basic information",
			Fields: []Definition{
				{ID: "title", Label: "Product Name", Type: Text, Required: true, Validation: &Constraint{Max: Bound(120)}},
				{ID: "description", Label: "Description", Type: TextArea, Required: true, Validation: &Constraint{Max: Bound(3000)}},
				{ID: "category", Label: "Category", Type: Text, Required: true},
			},
		},
		Group{
			Title: "Shipping",
			Fields: []Definition{
				{ID: "weight_g", Label: "Weight (g)", Type: Number, Required: true, Validation: &Constraint{Min: Bound(1)}},
				{ID: "shipping_method", Label: "Shipping Method", Type: Select, Options: []Option{
					{Value: "SLS", Label: "Shopee Logistics Service (SLS)"},
					{Value: "Standard", Label: "Standard Shipping"},
				}},
			},
		},
	)

	register(platform.Shopify,
		Group{
			Title: "Basic information",
			Fields: []Definition{
				{ID: "title", Label: "Product Title", Type: Text, Required: true},
				{ID: "description", Label: "Product Description (HTML)", Type: TextArea, Required: true, HelpText: "Markdown or HTML; sanitized on export"},
				{ID: "vendor", Label: "Vendor", Type: Text},
			},
		},
		Group{
			Title: "Variants",
			Fields: []Definition{
				{ID: "sku", Label: "SKU", Type: Text, Required: true},
			},
		},
	)

	register(platform.Mercari,
		Group{
			Title: "基本情報",
			Fields: []Definition{
				{ID: "title", Label: "商品名", Type: Text, Required: true, Validation: &Constraint{Max: Bound(40)}},
				{ID: "description", Label: "商品説明", Type: TextArea, Required: true, Validation: &Constraint{Max: Bound(1000)}},
				{ID: "category", Label: "カテゴリ", Type: Text, Required: true},
			},
		},
		Group{
			Title: "コンディション",
			Fields: []Definition{
				{ID: "condition", Label: "コンディション", Type: Select, Required: true, Options: []Option{
					{Value: "New", Label: "新品、未使用"},
					{Value: "Like New", Label: "未使用に近い"},
					{Value: "Good", Label: "目立った傷や汚れなし"},
				}},
			},
		},
		Group{
			Title: "配送",
			Fields: []Definition{
				{ID: "shipping_method", Label: "配送方法", Type: Select, Required: true, Options: []Option{
					{Value: "Mercari", Label: "らくらくメルカリ便"},
					{Value: "Yu-Packet", Label: "ゆうゆうメルカリ便"},
				}},
				{ID: "shipping_payer", Label: "送料負担", Type: Select, Required: true, Options: []Option{
					{Value: "Seller", Label: "送料込み（出品者負担）"},
					{Value: "Buyer", Label: "着払い（購入者負担）"},
				}},
			},
		},
	)

	verifyRegistry()
}
