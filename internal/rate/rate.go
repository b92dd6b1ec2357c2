// Package rate implements the brokerage rate model: effective totals,
// master-value mutation rules gated by per-entity blocking, and the
// override-resolution precedence algorithm.
//
// All monetary values use shopspring/decimal — never float64 for money.
package rate

import (
	"github.com/shopspring/decimal"

	"github.com/OceanLab-Technology/masterJGS/internal/model"
)

// CurrencySymbol prefixes fixed-amount brokerage values when formatting.
const CurrencySymbol = "₹"

// WithMasterValue returns a copy of v with the master value replaced.
// Fails with a ValidationError when newValue is negative; the admin value is
// never touched.
func WithMasterValue(v model.RateValue, newValue decimal.Decimal) (model.RateValue, error) {
	if newValue.IsNegative() {
		return model.RateValue{}, model.Invalid("masterValue", "must be non-negative")
	}
	v.MasterValue = newValue
	return v, nil
}

// Format renders a rate value for display: percentage values with two
// decimal places and a % suffix, fixed amounts with two decimal places and a
// currency prefix.
func Format(kind model.RateKind, value decimal.Decimal) string {
	if kind == model.KindPercentage {
		return value.StringFixed(2) + "%"
	}
	return CurrencySymbol + value.StringFixed(2)
}

// FormatTotal renders the effective total of a rate value.
func FormatTotal(v model.RateValue) string {
	return Format(v.Kind, v.Total())
}
