// Package store reads canonical products from the PostgreSQL product master.
//
// The store is read-only: the transformation engine never writes a product
// back. Callers supply a DBTX, which is satisfied by *pgxpool.Pool, *pgx.Conn
// and pgx.Tx.
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/listingbridge/internal/product"
)

// DBTX is the subset of pgx used by the store.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// selectProduct lists the columns in the order scanProduct expects.
// Nullable columns are coalesced so every scan target is a plain Go type.
const selectProduct = `
SELECT sku,
       COALESCE(title_ja, ''),
       COALESCE(title_en, ''),
       COALESCE(description_ja, ''),
       COALESCE(description_en, ''),
       COALESCE(price_jpy, 0)::text,
       COALESCE(stock, 0),
       COALESCE(image_urls, '{}'::text[]),
       COALESCE(weight_g, 0),
       COALESCE(length_cm, 0)::float8,
       COALESCE(width_cm, 0)::float8,
       COALESCE(height_cm, 0)::float8,
       COALESCE(category, ''),
       COALESCE(brand, ''),
       COALESCE(origin_country, ''),
       COALESCE(condition, ''),
       COALESCE(jan_code, ''),
       COALESCE(upc, ''),
       COALESCE(asin, ''),
       COALESCE(attributes, '{}'::jsonb)
FROM products_master`

// Store loads products by SKU.
type Store struct {
	db DBTX
}

// New creates a Store backed by db.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// GetBySKU returns the product with the given SKU, or an error wrapping
// product.ErrNotFound.
func (s *Store) GetBySKU(ctx context.Context, sku string) (product.Source, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return product.Source{}, fmt.Errorf("get product: empty sku: %w", product.ErrNotFound)
	}

	src, err := scanProduct(s.db.QueryRow(ctx, selectProduct+" WHERE sku = $1", sku))
	if errors.Is(err, pgx.ErrNoRows) {
		return product.Source{}, fmt.Errorf("get product %s: %w", sku, product.ErrNotFound)
	}
	if err != nil {
		return product.Source{}, fmt.Errorf("get product %s: %w", sku, err)
	}
	return src, nil
}

// GetBySKUs returns the products for skus in request order, skipping
// duplicates. SKUs with no product are returned in missing.
func (s *Store) GetBySKUs(ctx context.Context, skus []string) (found []product.Source, missing []string, err error) {
	wanted := dedupe(skus)
	if len(wanted) == 0 {
		return nil, nil, nil
	}

	rows, err := s.db.Query(ctx, selectProduct+" WHERE sku = ANY($1)", wanted)
	if err != nil {
		return nil, nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	bySKU := make(map[string]product.Source, len(wanted))
	for rows.Next() {
		src, err := scanProduct(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("scan product: %w", err)
		}
		bySKU[src.SKU] = src
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate products: %w", err)
	}

	for _, sku := range wanted {
		if src, ok := bySKU[sku]; ok {
			found = append(found, src)
		} else {
			missing = append(missing, sku)
		}
	}
	return found, missing, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (product.Source, error) {
	var (
		src   product.Source
		price string
	)
	err := row.Scan(
		&src.SKU,
		&src.TitleJA,
		&src.TitleEN,
		&src.DescriptionJA,
		&src.DescriptionEN,
		&price,
		&src.Stock,
		&src.ImageURLs,
		&src.WeightG,
		&src.Dimensions.LengthCM,
		&src.Dimensions.WidthCM,
		&src.Dimensions.HeightCM,
		&src.Category,
		&src.Brand,
		&src.OriginCountry,
		&src.Condition,
		&src.JAN,
		&src.UPC,
		&src.ASIN,
		&src.Attributes,
	)
	if err != nil {
		return product.Source{}, err
	}

	src.PriceJPY, err = decimal.NewFromString(price)
	if err != nil {
		return product.Source{}, fmt.Errorf("price_jpy %q for %s: %w", price, src.SKU, err)
	}
	return src, nil
}

func dedupe(skus []string) []string {
	seen := make(map[string]bool, len(skus))
	out := make([]string, 0, len(skus))
	for _, sku := range skus {
		sku = strings.TrimSpace(sku)
		if sku == "" || seen[sku] {
			continue
		}
		seen[sku] = true
		out = append(out, sku)
	}
	return out
}

// Schema is the DDL of the product master table.
//
//go:embed schema.sql
var Schema string
