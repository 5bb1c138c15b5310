package vat

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fiscus-erp/fiscus/internal/ledger"
)

// Categories that do not count as goods for the limited cost test.
var excludedServiceCategories = map[string]struct{}{
	"consultancy":   {},
	"software":      {},
	"subscriptions": {},
	"accountancy":   {},
	"advertising":   {},
	"travel":        {},
}

var (
	limitedCostPercentFloor = decimal.NewFromInt(2)
	// Statutory quarterly goods threshold, scaled to the period length.
	limitedCostQuarterThreshold = decimal.NewFromInt(250)
	quarterDays                 = decimal.NewFromInt(91)
)

// Classification is the limited cost trader verdict for a period.
type Classification struct {
	LimitedCost  bool
	GoodsTotal   decimal.Decimal
	GoodsPercent decimal.Decimal
	Reason       string
}

// ClassifyLimitedCost decides whether the statutory flat-rate override
// applies: goods purchases below 2% of turnover AND below the absolute
// threshold for the period length. A zero-turnover period is never
// classified limited cost; the percentage test is vacuous there and the
// override would punish an owner with no activity.
func ClassifyLimitedCost(purchases []ledger.Entry, turnover decimal.Decimal, periodDays int) Classification {
	var goods decimal.Decimal
	for _, p := range purchases {
		category := strings.ToLower(strings.TrimSpace(p.Category))
		if _, excluded := excludedServiceCategories[category]; excluded {
			continue
		}
		goods = goods.Add(p.BaseNet())
	}

	c := Classification{GoodsTotal: goods}

	if turnover.Sign() <= 0 {
		c.GoodsPercent = decimal.Zero
		c.Reason = "no turnover in period; limited cost classification not applied"
		return c
	}

	c.GoodsPercent = goods.Div(turnover).Mul(oneHundred)
	threshold := limitedCostQuarterThreshold.Mul(decimal.NewFromInt(int64(periodDays))).Div(quarterDays)

	belowPercent := c.GoodsPercent.LessThan(limitedCostPercentFloor)
	belowThreshold := goods.LessThan(threshold)

	if belowPercent && belowThreshold {
		c.LimitedCost = true
		c.Reason = fmt.Sprintf("goods purchases %s are %s%% of turnover (below 2%%) and below the %s period threshold",
			goods.StringFixed(2), c.GoodsPercent.StringFixed(2), threshold.StringFixed(2))
		return c
	}

	switch {
	case !belowPercent:
		c.Reason = fmt.Sprintf("goods purchases are %s%% of turnover, at or above the 2%% floor", c.GoodsPercent.StringFixed(2))
	default:
		c.Reason = fmt.Sprintf("goods purchases %s meet the %s period threshold", goods.StringFixed(2), threshold.StringFixed(2))
	}
	return c
}
