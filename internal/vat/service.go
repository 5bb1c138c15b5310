package vat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fiscus-erp/fiscus/internal/ledger"
	"github.com/fiscus-erp/fiscus/internal/observability"
	"github.com/fiscus-erp/fiscus/internal/settings"
	"github.com/fiscus-erp/fiscus/internal/shared"
)

// AggregatorPort supplies period ledger data.
type AggregatorPort interface {
	Fetch(ctx context.Context, ownerID int64, period shared.Period, framing ledger.Framing) (ledger.PeriodData, error)
}

// SettingsPort supplies per-owner tax configuration.
type SettingsPort interface {
	TaxSettings(ctx context.Context, ownerID int64) (settings.SchemeConfig, error)
}

// Service orchestrates return calculation and submission. Calculation
// is side-effect free and safe to run concurrently; submission mutates
// inside a single transaction and never retries (fail closed, to avoid
// double submission).
type Service struct {
	agg      AggregatorPort
	settings SettingsPort
	repo     RepositoryPort
	metrics  *observability.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a Service instance.
func NewService(agg AggregatorPort, settingsSvc SettingsPort, repo RepositoryPort, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		agg:      agg,
		settings: settingsSvc,
		repo:     repo,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// ComputedReturn is the calculation output handed to callers: a draft
// return, its compliance check, and the scheme parameters that applied.
type ComputedReturn struct {
	Return         Return
	Compliance     ComplianceResult
	SchemeUsed     Scheme
	PercentageUsed decimal.NullDecimal
	LimitedCost    bool
}

// CalculateReturn computes a draft return for the owner's configured
// scheme over the period. Identical ledger snapshots produce identical
// boxes; nothing is persisted.
func (s *Service) CalculateReturn(ctx context.Context, ownerID int64, period shared.Period) (ComputedReturn, error) {
	if err := period.Validate(); err != nil {
		return ComputedReturn{}, err
	}

	cfg, err := s.settings.TaxSettings(ctx, ownerID)
	if err != nil {
		if errors.Is(err, settings.ErrNotFound) {
			return ComputedReturn{}, fmt.Errorf("%w: no tax settings for owner %d", ErrConfiguration, ownerID)
		}
		return ComputedReturn{}, err
	}

	calculator, scheme, framing, err := SelectCalculator(cfg)
	if err != nil {
		return ComputedReturn{}, err
	}

	data, err := s.agg.Fetch(ctx, ownerID, period, framing)
	if err != nil {
		return ComputedReturn{}, err
	}

	calc, err := calculator.Calculate(data, cfg)
	if err != nil {
		return ComputedReturn{}, err
	}

	compliance := ValidateReturn(calc.Boxes)
	if !compliance.Valid && s.logger != nil {
		s.logger.Warn("computed return violates box invariants",
			slog.Int64("owner", ownerID),
			slog.String("period", period.String()),
			slog.Any("violations", compliance.Violations))
	}

	now := s.now()
	ret := Return{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Period:         period,
		Scheme:         scheme,
		PercentageUsed: calc.PercentageUsed,
		Boxes:          calc.Boxes,
		Status:         StatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	s.metrics.ObserveCalculation(string(scheme))

	return ComputedReturn{
		Return:         ret,
		Compliance:     compliance,
		SchemeUsed:     scheme,
		PercentageUsed: calc.PercentageUsed,
		LimitedCost:    calc.LimitedCost,
	}, nil
}

// SubmitReturn persists a computed draft return as SUBMITTED and locks
// every ledger entry dated inside its period, all in one transaction.
// Any failure rolls the whole submission back; there is no partially
// locked state to reconcile.
func (s *Service) SubmitReturn(ctx context.Context, ownerID int64, ret Return) (SubmissionResult, error) {
	if ret.OwnerID != ownerID {
		return SubmissionResult{}, fmt.Errorf("%w: return does not belong to owner %d", ErrNotSubmittable, ownerID)
	}
	if ret.Status != StatusDraft {
		return SubmissionResult{}, fmt.Errorf("%w: status is %s", ErrNotSubmittable, ret.Status)
	}
	if err := ret.Period.Validate(); err != nil {
		return SubmissionResult{}, err
	}
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}

	now := s.now()
	ret.Status = StatusSubmitted
	ret.SubmittedAt = &now
	ret.UpdatedAt = now
	if ret.CreatedAt.IsZero() {
		ret.CreatedAt = now
	}

	var lockedCount int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxPort) error {
		locked, err := tx.AnyLockedInPeriod(ctx, ownerID, ret.Period)
		if err != nil {
			return err
		}
		if locked {
			return ErrAlreadyLocked
		}
		if err := tx.InsertSubmittedReturn(ctx, ret); err != nil {
			return err
		}
		lockedCount, err = tx.LockPeriodEntries(ctx, ownerID, ret.Period, ret.ID, now)
		return err
	})
	if err != nil {
		outcome := "error"
		switch {
		case errors.Is(err, ErrAlreadyLocked):
			outcome = "already_locked"
		case errors.Is(err, ErrDuplicateSubmission):
			outcome = "duplicate"
		}
		s.metrics.ObserveSubmission(outcome)
		return SubmissionResult{}, err
	}

	s.metrics.ObserveSubmission("submitted")
	if s.logger != nil {
		s.logger.Info("return submitted",
			slog.Int64("owner", ownerID),
			slog.String("return", ret.ID.String()),
			slog.String("period", ret.Period.String()),
			slog.Int64("locked", lockedCount))
	}

	return SubmissionResult{ReturnID: ret.ID, LockedCount: lockedCount, FailedLocks: []uuid.UUID{}}, nil
}

// GetReturn loads a stored return.
func (s *Service) GetReturn(ctx context.Context, id uuid.UUID) (Return, error) {
	return s.repo.GetReturn(ctx, id)
}

// ListReturns loads an owner's stored returns.
func (s *Service) ListReturns(ctx context.Context, ownerID int64) ([]Return, error) {
	return s.repo.ListReturns(ctx, ownerID)
}

// RecommendScheme suggests a scheme for the owner from the period's
// turnover, unpaid ratio, and limited cost verdict. Advisory only.
func (s *Service) RecommendScheme(ctx context.Context, ownerID int64, period shared.Period) (Recommendation, error) {
	if err := period.Validate(); err != nil {
		return Recommendation{}, err
	}

	data, err := s.agg.Fetch(ctx, ownerID, period, ledger.FrameInvoiceDate)
	if err != nil {
		return Recommendation{}, err
	}

	var turnover, unpaid decimal.Decimal
	for _, sale := range data.Sales {
		turnover = turnover.Add(sale.BaseGross())
		if !sale.Settled() {
			unpaid = unpaid.Add(sale.BaseGross())
		}
	}

	unpaidRatio := decimal.Zero
	if turnover.Sign() > 0 {
		unpaidRatio = unpaid.Div(turnover)
	}

	classification := ClassifyLimitedCost(data.Purchases, turnover, period.Days())
	return Recommend(turnover, unpaidRatio, classification.LimitedCost), nil
}
