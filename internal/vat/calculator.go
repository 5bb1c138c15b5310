package vat

import (
	"github.com/fiscus-erp/fiscus/internal/ledger"
	"github.com/fiscus-erp/fiscus/internal/settings"
)

// Calculator transforms aggregated ledger data into the nine boxes.
// Implementations are pure; they never touch a store.
type Calculator interface {
	Calculate(data ledger.PeriodData, cfg settings.SchemeConfig) (Calculation, error)
}

// forScheme returns the calculator implementation for a scheme. The
// switch is exhaustive over the closed Scheme set; adding a scheme
// without a calculator fails here, not at runtime dispatch on strings.
func forScheme(scheme Scheme) Calculator {
	switch scheme {
	case SchemeStandard:
		return standardCalculator{}
	case SchemeFlatRate:
		return flatRateCalculator{}
	case SchemeCashBasis:
		return cashBasisCalculator{}
	case SchemeAnnualBasis:
		return annualBasisCalculator{}
	}
	return nil
}
