package vat

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// roundCurrency rounds an accumulated sum half-up to two decimal
// places, the precision class of boxes 1-5.
func roundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// roundWhole rounds an accumulated sum half-up to the nearest whole
// unit, the precision class of boxes 6-9.
func roundWhole(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}
