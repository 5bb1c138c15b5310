package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeLockIntegrity scans ledger locks against submitted returns.
	TaskTypeLockIntegrity = "vat:lock_integrity"
)

// NewLockIntegrityTask constructs the lock integrity scan task. The
// scan takes no parameters; it always covers the whole ledger.
func NewLockIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskTypeLockIntegrity, nil)
}
