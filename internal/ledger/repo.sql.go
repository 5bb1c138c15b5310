package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fiscus-erp/fiscus/internal/shared"
)

// Repository provides PostgreSQL backed persistence for ledger entries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entryColumns = `id, owner_id, kind, entry_date, settled_date, net_amount, vat_amount, gross_amount,
base_net_amount, base_gross_amount, status, category, applied_to, locked_by_return, locked_at`

// ListSales returns sale entries recognised within the period under the
// requested framing. Settlement framing selects on settled_date, so a
// sale invoiced before the period but paid inside it is included.
func (r *Repository) ListSales(ctx context.Context, ownerID int64, period shared.Period, framing Framing) ([]Entry, error) {
	dateColumn := "entry_date"
	if framing == FrameSettlementDate {
		dateColumn = "settled_date"
	}
	rows, err := r.pool.Query(ctx, `SELECT `+entryColumns+` FROM ledger_entries
WHERE owner_id = $1 AND kind = 'SALE' AND status <> 'VOID' AND `+dateColumn+` BETWEEN $2 AND $3
ORDER BY entry_date, id`, ownerID, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// ListPurchases returns purchase entries recognised by recording date.
// Purchases keep invoice-date filtering even under settlement framing;
// the store has no reliable settlement date for supplier payments, an
// asymmetry the cash-basis calculator inherits deliberately.
func (r *Repository) ListPurchases(ctx context.Context, ownerID int64, period shared.Period) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+entryColumns+` FROM ledger_entries
WHERE owner_id = $1 AND kind = 'PURCHASE' AND status <> 'VOID' AND entry_date BETWEEN $2 AND $3
ORDER BY entry_date, id`, ownerID, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// ListCreditNotes returns credit notes recorded within the period.
func (r *Repository) ListCreditNotes(ctx context.Context, ownerID int64, period shared.Period) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+entryColumns+` FROM ledger_entries
WHERE owner_id = $1 AND kind = 'CREDIT_NOTE' AND status <> 'VOID' AND entry_date BETWEEN $2 AND $3
ORDER BY entry_date, id`, ownerID, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// AnyLockedInPeriod reports whether any entry dated inside the period
// already carries a lock from a prior submitted return.
func (r *Repository) AnyLockedInPeriod(ctx context.Context, tx pgx.Tx, ownerID int64, period shared.Period) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM ledger_entries
WHERE owner_id = $1 AND entry_date BETWEEN $2 AND $3 AND locked_by_return IS NOT NULL)`,
		ownerID, period.Start, period.End).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// LockPeriodEntries stamps every unlocked entry dated inside the period
// with the submitted return's id and the lock timestamp. Runs inside
// the submission transaction so a later failure unwinds the stamps.
func (r *Repository) LockPeriodEntries(ctx context.Context, tx pgx.Tx, ownerID int64, period shared.Period, returnID uuid.UUID, lockedAt time.Time) (int64, error) {
	tag, err := tx.Exec(ctx, `UPDATE ledger_entries
SET locked_by_return = $4, locked_at = $5
WHERE owner_id = $1 AND entry_date BETWEEN $2 AND $3 AND locked_by_return IS NULL AND status <> 'VOID'`,
		ownerID, period.Start, period.End, returnID, lockedAt)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Kind, &e.Date, &e.SettledDate,
			&e.NetAmount, &e.VATAmount, &e.GrossAmount, &e.BaseNetAmount, &e.BaseGrossAmount,
			&e.Status, &e.Category, &e.AppliedTo, &e.LockedByReturn, &e.LockedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
