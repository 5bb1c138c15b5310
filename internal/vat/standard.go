package vat

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fiscus-erp/fiscus/internal/ledger"
	"github.com/fiscus-erp/fiscus/internal/settings"
)

// standardCalculator implements standard accrual accounting: output tax
// on sales net of applied credit notes, input tax reclaimed on
// purchases, recognition by invoice date.
type standardCalculator struct{}

func (standardCalculator) Calculate(data ledger.PeriodData, _ settings.SchemeConfig) (Calculation, error) {
	credited := make(map[uuid.UUID]struct{}, len(data.CreditNotes))
	for _, note := range data.CreditNotes {
		if note.AppliedTo.Valid {
			credited[note.AppliedTo.UUID] = struct{}{}
		}
	}

	var salesVAT, salesNet, purchaseVAT, purchaseNet decimal.Decimal
	for _, sale := range data.Sales {
		if _, ok := credited[sale.ID]; !ok {
			salesVAT = salesVAT.Add(sale.VATAmount)
		}
		salesNet = salesNet.Add(sale.BaseNet())
	}
	for _, note := range data.CreditNotes {
		if note.AppliedTo.Valid {
			salesVAT = salesVAT.Sub(note.VATAmount)
		}
	}
	for _, purchase := range data.Purchases {
		purchaseVAT = purchaseVAT.Add(purchase.VATAmount)
		purchaseNet = purchaseNet.Add(purchase.BaseNet())
	}

	var boxes Boxes
	boxes.Box1 = roundCurrency(salesVAT)
	// Boxes 2, 8, and 9 cover cross-border acquisitions and supplies,
	// which are not modeled; they stay zero until that feature lands.
	boxes.Box2 = decimal.Zero
	boxes.Box4 = roundCurrency(purchaseVAT)
	boxes.Box6 = roundWhole(salesNet)
	boxes.Box7 = roundWhole(purchaseNet)
	boxes.Box8 = decimal.Zero
	boxes.Box9 = decimal.Zero
	boxes.Box3 = boxes.Box1.Add(boxes.Box2)
	boxes.Box5 = boxes.Box3.Sub(boxes.Box4)

	return Calculation{Boxes: boxes}, nil
}
