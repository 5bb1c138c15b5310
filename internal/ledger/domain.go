// Package ledger reads sales, purchases, and credit notes from the
// ledger store and aggregates them per reporting period. It is the only
// package that touches ledger rows; locking on submission goes through
// its transactional repository as well.
package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fiscus-erp/fiscus/internal/shared"
)

// EntryKind discriminates ledger entry rows.
type EntryKind string

const (
	KindSale       EntryKind = "SALE"
	KindPurchase   EntryKind = "PURCHASE"
	KindCreditNote EntryKind = "CREDIT_NOTE"
)

// EntryStatus mirrors the ledger store's lifecycle states.
type EntryStatus string

const (
	StatusDraft   EntryStatus = "DRAFT"
	StatusPosted  EntryStatus = "POSTED"
	StatusSettled EntryStatus = "SETTLED"
	StatusVoid    EntryStatus = "VOID"
)

// Framing selects which date recognises an entry within a period.
// Invoice framing keys off the recording date; settlement framing keys
// off the date money moved, as cash accounting requires.
type Framing string

const (
	FrameInvoiceDate    Framing = "INVOICE_DATE"
	FrameSettlementDate Framing = "SETTLEMENT_DATE"
)

// Entry is a single ledger row. Base amounts are currency-normalized
// upstream by the conversion collaborator; when absent the native
// amount stands in.
type Entry struct {
	ID              uuid.UUID
	OwnerID         int64
	Kind            EntryKind
	Date            time.Time
	SettledDate     *time.Time
	NetAmount       decimal.Decimal
	VATAmount       decimal.Decimal
	GrossAmount     decimal.Decimal
	BaseNetAmount   decimal.NullDecimal
	BaseGrossAmount decimal.NullDecimal
	Status          EntryStatus
	Category        string
	AppliedTo       uuid.NullUUID
	LockedByReturn  uuid.NullUUID
	LockedAt        *time.Time
}

// BaseNet returns the currency-normalized net amount, falling back to
// the native amount when no conversion was supplied.
func (e Entry) BaseNet() decimal.Decimal {
	if e.BaseNetAmount.Valid {
		return e.BaseNetAmount.Decimal
	}
	return e.NetAmount
}

// BaseGross returns the currency-normalized gross amount with the same
// fallback rule as BaseNet.
func (e Entry) BaseGross() decimal.Decimal {
	if e.BaseGrossAmount.Valid {
		return e.BaseGrossAmount.Decimal
	}
	return e.GrossAmount
}

// Settled reports whether payment has been recorded for the entry.
func (e Entry) Settled() bool {
	return e.SettledDate != nil
}

// Locked reports whether a submitted return already covers the entry.
func (e Entry) Locked() bool {
	return e.LockedByReturn.Valid
}

// PeriodData bundles everything a scheme calculator consumes for one
// owner and period.
type PeriodData struct {
	OwnerID     int64
	Period      shared.Period
	Framing     Framing
	Sales       []Entry
	Purchases   []Entry
	CreditNotes []Entry
}

// ErrFetch wraps any ledger store read failure. Calculations abort on
// it; no partial period data is ever returned.
var ErrFetch = errors.New("ledger: fetch failed")
