package vat

import (
	"fmt"

	"github.com/fiscus-erp/fiscus/internal/ledger"
	"github.com/fiscus-erp/fiscus/internal/settings"
)

// cashBasisCalculator recognises sales on the date money was received
// rather than the invoice date. The arithmetic is the standard
// calculator's; the difference is entirely in how the aggregator framed
// the data. Purchases stay invoice-date filtered: the ledger store has
// no settlement date for supplier payments, an inherited asymmetry kept
// on purpose rather than silently fixed.
type cashBasisCalculator struct{}

func (cashBasisCalculator) Calculate(data ledger.PeriodData, cfg settings.SchemeConfig) (Calculation, error) {
	if data.Framing != ledger.FrameSettlementDate {
		return Calculation{}, fmt.Errorf("%w: cash basis requires settlement-date framed data", ErrConfiguration)
	}
	return standardCalculator{}.Calculate(data, cfg)
}
