package vat

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fiscus-erp/fiscus/internal/shared"
)

// TxPort groups the writes that must land atomically on submission.
type TxPort interface {
	AnyLockedInPeriod(ctx context.Context, ownerID int64, period shared.Period) (bool, error)
	InsertSubmittedReturn(ctx context.Context, ret Return) error
	LockPeriodEntries(ctx context.Context, ownerID int64, period shared.Period, returnID uuid.UUID, lockedAt time.Time) (int64, error)
}

// RepositoryPort defines persistence for tax returns.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxPort) error) error
	GetReturn(ctx context.Context, id uuid.UUID) (Return, error)
	ListReturns(ctx context.Context, ownerID int64) ([]Return, error)
}
