package store

import (
	"context"
	"time"

	perr "datacompliance/internal/platform/errors"
)

// DefaultTxAttempts bounds RetryTx when callers pass attempts <= 0
const DefaultTxAttempts = 5

// retryBackoff is a seam for tests
var retryBackoff = func(attempt int) time.Duration {
	return time.Duration(attempt*attempt) * 10 * time.Millisecond
}

// RetryTx runs fn in a transaction and replays the whole transaction when it
// loses a serialization or deadlock race. fn must be safe to run again
func RetryTx(ctx context.Context, tx TxRunner, attempts int, fn func(q RowQuerier) error) error {
	if attempts <= 0 {
		attempts = DefaultTxAttempts
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = tx.Tx(ctx, fn)
		if err == nil || !perr.IsRetryable(err) {
			return err
		}
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff(i)):
		}
	}
	return perr.Wrapf(err, perr.ErrorCodeConflict, "transaction still contended after %d attempts", attempts)
}
