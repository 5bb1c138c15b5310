package vat

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fiscus-erp/fiscus/internal/ledger"
	"github.com/fiscus-erp/fiscus/internal/settings"
)

// flatRateCalculator remits a flat percentage of gross settled turnover
// instead of output minus input tax. Purchases are not reported and no
// input tax is reclaimed under this scheme; capital-asset exceptions
// are out of scope.
type flatRateCalculator struct{}

func (flatRateCalculator) Calculate(data ledger.PeriodData, cfg settings.SchemeConfig) (Calculation, error) {
	if !cfg.FlatRatePercentage.Valid {
		return Calculation{}, fmt.Errorf("%w: flat rate percentage not configured", ErrConfiguration)
	}

	var turnover decimal.Decimal
	for _, sale := range data.Sales {
		if sale.Settled() {
			turnover = turnover.Add(sale.BaseGross())
		}
	}

	classification := ClassifyLimitedCost(data.Purchases, turnover, data.Period.Days())
	percentage := cfg.FlatRatePercentage.Decimal
	if classification.LimitedCost {
		percentage = cfg.LimitedCostOverridePercentage
	}

	var boxes Boxes
	boxes.Box1 = roundCurrency(turnover.Mul(percentage).Div(oneHundred))
	boxes.Box2 = decimal.Zero
	boxes.Box3 = boxes.Box1
	boxes.Box4 = decimal.Zero
	boxes.Box5 = boxes.Box3
	boxes.Box6 = roundWhole(turnover)
	boxes.Box7 = decimal.Zero
	boxes.Box8 = decimal.Zero
	boxes.Box9 = decimal.Zero

	return Calculation{
		Boxes:          boxes,
		PercentageUsed: decimal.NullDecimal{Decimal: percentage, Valid: true},
		LimitedCost:    classification.LimitedCost,
	}, nil
}
