package store

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/listingbridge/internal/product"
)

// productRow returns column values in selectProduct order.
func productRow(sku, price string) []any {
	return []any{
		sku, "カメラ", "Camera", "説明", "Description",
		price, 3, []string{"https://cdn.example.com/" + sku + ".jpg"}, 850,
		10.5, 8.0, 6.25,
		"Cameras", "Nikon", "JP", "Used", "4901234567894", "012345678905", "",
		map[string]string{"fulfillment_method": "FBM"},
	}
}

func assign(dest []any, values []any) error {
	if len(dest) != len(values) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(values[i]))
	}
	return nil
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type fakeRows struct {
	data [][]any
	pos  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.data[r.pos-1], nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(dest, r.data[r.pos-1])
}

type fakeDB struct {
	row      fakeRow
	rows     *fakeRows
	queryErr error

	sql  string
	args []any
}

func (db *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.sql, db.args = sql, args
	if db.queryErr != nil {
		return nil, db.queryErr
	}
	return db.rows, nil
}

func (db *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	db.sql, db.args = sql, args
	return db.row
}

func TestGetBySKU(t *testing.T) {
	db := &fakeDB{row: fakeRow{values: productRow("ABC-1", "30000")}}
	s := New(db)

	src, err := s.GetBySKU(context.Background(), " ABC-1 ")
	require.NoError(t, err)

	assert.Equal(t, []any{"ABC-1"}, db.args)
	assert.Contains(t, db.sql, "WHERE sku = $1")
	assert.Equal(t, "ABC-1", src.SKU)
	assert.Equal(t, "Camera", src.TitleEN)
	assert.True(t, src.PriceJPY.Equal(decimal.NewFromInt(30000)))
	assert.Equal(t, 3, src.Stock)
	assert.Equal(t, 850, src.WeightG)
	assert.Equal(t, 6.25, src.Dimensions.HeightCM)
	assert.Equal(t, "4901234567894", src.JAN)
	assert.Equal(t, "FBM", src.Attr("fulfillment_method"))
}

func TestGetBySKU_NotFound(t *testing.T) {
	s := New(&fakeDB{row: fakeRow{err: pgx.ErrNoRows}})

	_, err := s.GetBySKU(context.Background(), "NOPE")
	require.ErrorIs(t, err, product.ErrNotFound)

	_, err = s.GetBySKU(context.Background(), "  ")
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestGetBySKU_DatabaseError(t *testing.T) {
	boom := errors.New("connection reset")
	s := New(&fakeDB{row: fakeRow{err: boom}})

	_, err := s.GetBySKU(context.Background(), "ABC-1")
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, product.ErrNotFound)
}

func TestGetBySKU_BadPrice(t *testing.T) {
	s := New(&fakeDB{row: fakeRow{values: productRow("ABC-1", "n/a")}})

	_, err := s.GetBySKU(context.Background(), "ABC-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price_jpy")
}

func TestGetBySKUs_OrderAndMissing(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{data: [][]any{
		productRow("C", "300"),
		productRow("A", "100"),
	}}}
	s := New(db)

	found, missing, err := s.GetBySKUs(context.Background(), []string{"A", "B", "A", " ", "C"})
	require.NoError(t, err)

	require.Len(t, found, 2)
	assert.Equal(t, "A", found[0].SKU)
	assert.Equal(t, "C", found[1].SKU)
	assert.Equal(t, []string{"B"}, missing)
	assert.Equal(t, []any{[]string{"A", "B", "C"}}, db.args)
	assert.True(t, strings.Contains(db.sql, "ANY($1)"))
}

func TestGetBySKUs_Empty(t *testing.T) {
	db := &fakeDB{}
	found, missing, err := New(db).GetBySKUs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, found)
	assert.Nil(t, missing)
	assert.Empty(t, db.sql)
}

func TestGetBySKUs_Errors(t *testing.T) {
	boom := errors.New("timeout")

	_, _, err := New(&fakeDB{queryErr: boom}).GetBySKUs(context.Background(), []string{"A"})
	require.ErrorIs(t, err, boom)

	_, _, err = New(&fakeDB{rows: &fakeRows{err: boom}}).GetBySKUs(context.Background(), []string{"A"})
	require.ErrorIs(t, err, boom)
}

func TestSchema_DeclaresSelectedColumns(t *testing.T) {
	for _, col := range []string{"sku", "price_jpy", "image_urls", "jan_code", "attributes"} {
		assert.Contains(t, Schema, col)
	}
}
