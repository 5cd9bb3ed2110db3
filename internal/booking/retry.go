package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/studio-lesson-booking/internal/repository"
)

// MySQL server error numbers that indicate the transaction lost a
// race and can simply be replayed.
const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// IsRetryable reports whether err represents a transient conflict
// worth replaying: a deadlock or lock-wait timeout from the storage
// layer, or a bounded-timeout expiry on the unit of work.  The error
// chain is walked so wrapped driver errors are recognized.
func IsRetryable(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlErrDeadlock, mysqlErrLockWaitTimeout:
			return true
		}
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// withRetry runs fn inside a unit of work, bounded by the engine's
// per-transaction timeout, replaying it up to maxRetries times when
// the failure is a transient conflict.  Exhausting the budget
// surfaces repository.ErrConflict so callers can tell the client to
// retry; validation errors pass through untouched on the first
// attempt.
func (e *Engine) withRetry(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	var last error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		txCtx, cancel := context.WithTimeout(ctx, e.txTimeout)
		err := e.runner.InTx(txCtx, fn)
		cancel()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		last = err
		// Linear backoff keeps retries from re-colliding immediately.
		time.Sleep(time.Duration(attempt+1) * 20 * time.Millisecond)
	}
	return fmt.Errorf("%w: retries exhausted: %v", repository.ErrConflict, last)
}
