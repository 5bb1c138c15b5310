package vat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fiscus-erp/fiscus/internal/ledger"
	"github.com/fiscus-erp/fiscus/internal/platform/db"
	"github.com/fiscus-erp/fiscus/internal/shared"
)

// Repository provides PostgreSQL backed persistence for tax returns.
// Entry locking SQL lives in the ledger repository; this repository
// reuses it inside the submission transaction so return insert and
// entry locks commit or roll back together.
type Repository struct {
	pool   *pgxpool.Pool
	ledger *ledger.Repository
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool, ledgerRepo *ledger.Repository) *Repository {
	return &Repository{pool: pool, ledger: ledgerRepo}
}

type txRepo struct {
	tx     pgx.Tx
	ledger *ledger.Repository
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxPort) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx, ledger: r.ledger})
	})
}

const returnColumns = `id, owner_id, period_start, period_end, scheme, percentage_used,
box1, box2, box3, box4, box5, box6, box7, box8, box9, status, submitted_at, created_at, updated_at`

// GetReturn loads a single return by id.
func (r *Repository) GetReturn(ctx context.Context, id uuid.UUID) (Return, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+returnColumns+` FROM tax_returns WHERE id = $1`, id)
	ret, err := scanReturn(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Return{}, ErrReturnNotFound
		}
		return Return{}, err
	}
	return ret, nil
}

// ListReturns returns an owner's returns, newest period first.
func (r *Repository) ListReturns(ctx context.Context, ownerID int64) ([]Return, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+returnColumns+` FROM tax_returns
WHERE owner_id = $1 ORDER BY period_start DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var returns []Return
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		returns = append(returns, ret)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return returns, nil
}

// AnyLockedInPeriod delegates to the ledger repository inside the tx.
func (t *txRepo) AnyLockedInPeriod(ctx context.Context, ownerID int64, period shared.Period) (bool, error) {
	return t.ledger.AnyLockedInPeriod(ctx, t.tx, ownerID, period)
}

// InsertSubmittedReturn persists the return record as source of truth.
// A partial unique index on (owner_id, period_start, period_end) for
// submitted rows catches two submissions racing on the same period.
func (t *txRepo) InsertSubmittedReturn(ctx context.Context, ret Return) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO tax_returns (`+returnColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		ret.ID, ret.OwnerID, ret.Period.Start, ret.Period.End, ret.Scheme, ret.PercentageUsed,
		ret.Boxes.Box1, ret.Boxes.Box2, ret.Boxes.Box3, ret.Boxes.Box4, ret.Boxes.Box5,
		ret.Boxes.Box6, ret.Boxes.Box7, ret.Boxes.Box8, ret.Boxes.Box9,
		ret.Status, ret.SubmittedAt, ret.CreatedAt, ret.UpdatedAt)
	if err != nil {
		if duplicateSubmission(err) {
			return ErrDuplicateSubmission
		}
		return err
	}
	return nil
}

// uqSubmittedPeriod is the partial unique index over submitted returns.
const uqSubmittedPeriod = "uq_tax_returns_period_submitted"

func duplicateSubmission(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.ConstraintName == uqSubmittedPeriod
}

// LockPeriodEntries delegates to the ledger repository inside the tx.
func (t *txRepo) LockPeriodEntries(ctx context.Context, ownerID int64, period shared.Period, returnID uuid.UUID, lockedAt time.Time) (int64, error) {
	return t.ledger.LockPeriodEntries(ctx, t.tx, ownerID, period, returnID, lockedAt)
}

func scanReturn(row pgx.Row) (Return, error) {
	var ret Return
	err := row.Scan(&ret.ID, &ret.OwnerID, &ret.Period.Start, &ret.Period.End, &ret.Scheme, &ret.PercentageUsed,
		&ret.Boxes.Box1, &ret.Boxes.Box2, &ret.Boxes.Box3, &ret.Boxes.Box4, &ret.Boxes.Box5,
		&ret.Boxes.Box6, &ret.Boxes.Box7, &ret.Boxes.Box8, &ret.Boxes.Box9,
		&ret.Status, &ret.SubmittedAt, &ret.CreatedAt, &ret.UpdatedAt)
	if err != nil {
		return Return{}, err
	}
	return ret, nil
}
