// Package vat computes multi-scheme VAT returns over aggregated ledger
// data and coordinates their submission. Calculation is a pure read;
// submission is the only mutating path and runs inside one transaction.
package vat

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fiscus-erp/fiscus/internal/shared"
)

// Scheme is the closed set of accounting schemes the engine supports.
type Scheme string

const (
	SchemeStandard    Scheme = "STANDARD"
	SchemeFlatRate    Scheme = "FLAT_RATE"
	SchemeCashBasis   Scheme = "CASH_BASIS"
	SchemeAnnualBasis Scheme = "ANNUAL_BASIS"
)

// ParseScheme validates a stored scheme value.
func ParseScheme(raw string) (Scheme, error) {
	switch Scheme(raw) {
	case SchemeStandard, SchemeFlatRate, SchemeCashBasis, SchemeAnnualBasis:
		return Scheme(raw), nil
	default:
		return "", fmt.Errorf("%w: unknown scheme %q", ErrConfiguration, raw)
	}
}

// ReturnStatus tracks the return lifecycle. A return is created DRAFT
// and transitions once, irreversibly, to SUBMITTED.
type ReturnStatus string

const (
	StatusDraft     ReturnStatus = "DRAFT"
	StatusSubmitted ReturnStatus = "SUBMITTED"
)

// Boxes holds the nine standardized return fields. Boxes 1-5 carry
// two-decimal currency precision; boxes 6-9 are whole units. Each box
// is rounded from its own accumulated sum, never from a sibling.
type Boxes struct {
	Box1 decimal.Decimal
	Box2 decimal.Decimal
	Box3 decimal.Decimal
	Box4 decimal.Decimal
	Box5 decimal.Decimal
	Box6 decimal.Decimal
	Box7 decimal.Decimal
	Box8 decimal.Decimal
	Box9 decimal.Decimal
}

// BoxPrecision tags a box value with its precision class.
type BoxPrecision string

const (
	PrecisionCurrency BoxPrecision = "currency-2dp"
	PrecisionInteger  BoxPrecision = "integer"
)

// TaggedBox pairs a box number with its value and precision class.
type TaggedBox struct {
	Box       int             `json:"box"`
	Value     decimal.Decimal `json:"value"`
	Precision BoxPrecision    `json:"precision"`
}

// Tagged renders the nine boxes with their precision classes, in order.
func (b Boxes) Tagged() []TaggedBox {
	values := []decimal.Decimal{b.Box1, b.Box2, b.Box3, b.Box4, b.Box5, b.Box6, b.Box7, b.Box8, b.Box9}
	tagged := make([]TaggedBox, 0, len(values))
	for i, v := range values {
		precision := PrecisionCurrency
		if i >= 5 {
			precision = PrecisionInteger
		}
		tagged = append(tagged, TaggedBox{Box: i + 1, Value: v, Precision: precision})
	}
	return tagged
}

// Return is a computed tax return. Once submitted it is never updated
// or deleted; a correction requires a new period's return.
type Return struct {
	ID             uuid.UUID
	OwnerID        int64
	Period         shared.Period
	Scheme         Scheme
	PercentageUsed decimal.NullDecimal
	Boxes          Boxes
	Status         ReturnStatus
	SubmittedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Calculation is a calculator's output before it becomes a Return.
type Calculation struct {
	Boxes          Boxes
	PercentageUsed decimal.NullDecimal
	LimitedCost    bool
}

// ComplianceResult reports structural invariant checks on a computed
// return. Violations indicate a calculator defect; they are data, not
// errors, and callers decide whether to block submission on them.
type ComplianceResult struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
}

// SubmissionResult reports the outcome of a successful submission.
// FailedLocks is retained for API compatibility; the transactional
// submit either locks every entry or rolls the whole submission back,
// so it is always empty on success.
type SubmissionResult struct {
	ReturnID    uuid.UUID   `json:"returnId"`
	LockedCount int64       `json:"lockedCount"`
	FailedLocks []uuid.UUID `json:"failedLocks"`
}

var (
	// ErrConfiguration indicates missing or unsupported scheme settings.
	// Raised before any ledger fetch.
	ErrConfiguration = errors.New("vat: configuration invalid")
	// ErrAlreadyLocked indicates the period overlaps a prior submission.
	ErrAlreadyLocked = errors.New("vat: period already locked by a submitted return")
	// ErrDuplicateSubmission indicates a racing submission won the
	// unique constraint on (owner, period).
	ErrDuplicateSubmission = errors.New("vat: return already submitted for this period")
	// ErrReturnNotFound indicates the requested return does not exist.
	ErrReturnNotFound = errors.New("vat: return not found")
	// ErrNotSubmittable indicates the return is not in DRAFT state.
	ErrNotSubmittable = errors.New("vat: return is not submittable")
)
