package vat

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	// Statutory joining ceiling above which only standard accrual applies.
	standardCeiling = decimal.NewFromInt(1350000)
	// Turnover floor under which flat rate tends to win.
	flatRateCeiling = decimal.NewFromInt(150000)
	// Unpaid-invoice ratio beyond which cash accounting helps cashflow.
	cashBasisUnpaidRatio = decimal.NewFromFloat(0.20)
)

// Recommendation is an advisory scheme suggestion. It is never applied
// to configuration automatically.
type Recommendation struct {
	Scheme Scheme `json:"scheme"`
	Reason string `json:"reason"`
}

var reasonPrinter = message.NewPrinter(language.BritishEnglish)

// Recommend suggests a scheme from period turnover, the ratio of unpaid
// sales to turnover, and the limited cost verdict. Pure decision tree.
func Recommend(turnover, unpaidRatio decimal.Decimal, limitedCost bool) Recommendation {
	switch {
	case turnover.GreaterThan(standardCeiling):
		return Recommendation{
			Scheme: SchemeStandard,
			Reason: reasonPrinter.Sprintf("turnover %v is above the %v ceiling; only standard accrual accounting is available",
				number.Decimal(turnover.InexactFloat64()), number.Decimal(standardCeiling.InexactFloat64())),
		}
	case turnover.LessThan(flatRateCeiling) && !limitedCost:
		return Recommendation{
			Scheme: SchemeFlatRate,
			Reason: reasonPrinter.Sprintf("turnover %v is under the %v flat rate ceiling and the business is not a limited cost trader",
				number.Decimal(turnover.InexactFloat64()), number.Decimal(flatRateCeiling.InexactFloat64())),
		}
	case unpaidRatio.GreaterThan(cashBasisUnpaidRatio):
		return Recommendation{
			Scheme: SchemeCashBasis,
			Reason: reasonPrinter.Sprintf("%v%% of turnover is unpaid; cash basis defers VAT until invoices are settled",
				number.Decimal(unpaidRatio.Mul(oneHundred).Round(1).InexactFloat64())),
		}
	default:
		return Recommendation{
			Scheme: SchemeStandard,
			Reason: "no scheme offers a clear advantage; standard accrual accounting applies",
		}
	}
}
