package jobs

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fiscus-erp/fiscus/internal/observability"
)

// LockIntegrityResult summarises one scan pass.
type LockIntegrityResult struct {
	OrphanedLocks    int64
	UnlockedInPeriod int64
}

// RunLockIntegrityScan audits the locking invariant: every locked
// ledger entry must reference a submitted return, and every entry dated
// inside a submitted period must carry a lock. Read-only; findings are
// logged and published as gauges for reconciliation, never repaired
// automatically.
func RunLockIntegrityScan(ctx context.Context, pool *pgxpool.Pool, metrics *observability.Metrics, logger *slog.Logger) (LockIntegrityResult, error) {
	var result LockIntegrityResult

	err := pool.QueryRow(ctx, `SELECT count(*) FROM ledger_entries le
WHERE le.locked_by_return IS NOT NULL
AND NOT EXISTS (
	SELECT 1 FROM tax_returns tr
	WHERE tr.id = le.locked_by_return AND tr.status = 'SUBMITTED')`).Scan(&result.OrphanedLocks)
	if err != nil {
		return LockIntegrityResult{}, err
	}

	err = pool.QueryRow(ctx, `SELECT count(*) FROM ledger_entries le
WHERE le.locked_by_return IS NULL AND le.status <> 'VOID'
AND EXISTS (
	SELECT 1 FROM tax_returns tr
	WHERE tr.owner_id = le.owner_id AND tr.status = 'SUBMITTED'
	AND le.entry_date BETWEEN tr.period_start AND tr.period_end)`).Scan(&result.UnlockedInPeriod)
	if err != nil {
		return LockIntegrityResult{}, err
	}

	metrics.SetLockIntegrity(result.OrphanedLocks, result.UnlockedInPeriod)

	if logger != nil {
		level := slog.LevelInfo
		if result.OrphanedLocks > 0 || result.UnlockedInPeriod > 0 {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "lock integrity scan",
			slog.Int64("orphaned_locks", result.OrphanedLocks),
			slog.Int64("unlocked_in_submitted_period", result.UnlockedInPeriod))
	}

	return result, nil
}
