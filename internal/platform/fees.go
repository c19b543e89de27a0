package platform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// ErrNoRate is returned when a conversion needs a rate the table does not have.
var ErrNoRate = errors.New("no exchange rate")

var hundred = decimal.NewFromInt(100)

// RateTable maps ISO currency codes to the JPY price of one unit of that
// currency (USD=150 means 1 USD costs 150 JPY). Rates are injected by the
// caller; the engine never fetches them.
type RateTable map[string]decimal.Decimal

// DefaultRates are the fallback rates used when configuration supplies none.
func DefaultRates() RateTable {
	return RateTable{
		"JPY": decimal.NewFromInt(1),
		"USD": decimal.NewFromInt(150),
		"AUD": decimal.NewFromInt(100),
		"KRW": decimal.RequireFromString("0.11"),
		"SGD": decimal.NewFromInt(110),
	}
}

// Round rounds amount to the standard number of decimals for unit
// (0 for JPY/KRW, 2 for USD/AUD/SGD).
func Round(amount decimal.Decimal, unit currency.Unit) decimal.Decimal {
	scale, _ := currency.Standard.Rounding(unit)
	return amount.Round(int32(scale))
}

// Format renders amount with the currency's standard decimals, e.g. "12.50".
func Format(amount decimal.Decimal, unit currency.Unit) string {
	scale, _ := currency.Standard.Rounding(unit)
	return amount.StringFixed(int32(scale))
}

// ConvertFromJPY converts a home-currency price into unit using rates.
func ConvertFromJPY(amountJPY decimal.Decimal, unit currency.Unit, rates RateTable) (decimal.Decimal, error) {
	code := unit.String()
	if code == "JPY" {
		return Round(amountJPY, unit), nil
	}
	rate, ok := rates[strings.ToUpper(code)]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w for %s", ErrNoRate, code)
	}
	return Round(amountJPY.Div(rate), unit), nil
}

// FeeBreakdown is the estimated marketplace cost of selling at a price.
type FeeBreakdown struct {
	Currency     string          `json:"currency"`
	Price        decimal.Decimal `json:"price"`
	PlatformFee  decimal.Decimal `json:"platformFee"`
	PaymentFee   decimal.Decimal `json:"paymentFee"`
	FixedFee     decimal.Decimal `json:"fixedFee"`
	TotalFees    decimal.Decimal `json:"totalFees"`
	NetProceeds  decimal.Decimal `json:"netProceeds"`
	FeePercent   decimal.Decimal `json:"feePercent"`
	CategoryRate bool            `json:"categoryRate"`
}

// Estimate computes fees for a sale at price. A category-specific percentage
// replaces the base percentage when one is configured for category.
func (f FeeStructure) Estimate(price decimal.Decimal, category string, unit currency.Unit) FeeBreakdown {
	feePercent := f.BaseFeePercent
	categoryRate := false
	if category != "" {
		if rate, ok := f.CategoryFees[category]; ok {
			feePercent = rate
			categoryRate = true
		}
	}

	platformFee := Round(price.Mul(feePercent).Div(hundred), unit)
	paymentFee := Round(price.Mul(f.PaymentProcessingFee).Div(hundred), unit)
	fixed := Round(f.FixedFee, unit)
	total := platformFee.Add(paymentFee).Add(fixed)

	return FeeBreakdown{
		Currency:     unit.String(),
		Price:        Round(price, unit),
		PlatformFee:  platformFee,
		PaymentFee:   paymentFee,
		FixedFee:     fixed,
		TotalFees:    total,
		NetProceeds:  Round(price.Sub(total), unit),
		FeePercent:   feePercent,
		CategoryRate: categoryRate,
	}
}

// EstimateFees estimates selling fees on p at price (in p's currency).
func EstimateFees(p Platform, price decimal.Decimal, category string) FeeBreakdown {
	cfg := Config(p)
	return cfg.FeeStructure.Estimate(price, category, cfg.Currency)
}
