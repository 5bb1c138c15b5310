package vat

import (
	"github.com/fiscus-erp/fiscus/internal/ledger"
	"github.com/fiscus-erp/fiscus/internal/settings"
)

// annualBasisCalculator is the standard calculation over a yearly
// period. Cadence is the caller's concern; the arithmetic is identical.
type annualBasisCalculator struct{}

func (annualBasisCalculator) Calculate(data ledger.PeriodData, cfg settings.SchemeConfig) (Calculation, error) {
	return standardCalculator{}.Calculate(data, cfg)
}
