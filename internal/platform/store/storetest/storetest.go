// Package storetest provides a fake TxRunner for service tests whose repos are in-memory fakes
package storetest

import (
	"context"
	"sync"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/store"
)

// Tx runs fn inline and counts commits and rollbacks. It hands itself to fn as
// the Queryer so binders that reject nil keep working. CommitErr fails the
// next commit once
type Tx struct {
	mu        sync.Mutex
	Commits   int
	Rollbacks int
	CommitErr error
}

var _ store.TxRunner = (*Tx)(nil)

// Tx runs fn and records the outcome
func (t *Tx) Tx(_ context.Context, fn func(q store.RowQuerier) error) error {
	err := fn(t)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err == nil && t.CommitErr != nil {
		err, t.CommitErr = t.CommitErr, nil
	}
	if err != nil {
		t.Rollbacks++
		return err
	}
	t.Commits++
	return nil
}

// Exec is a no-op
func (t *Tx) Exec(context.Context, string, ...any) (store.CommandTag, error) { return tag{}, nil }

// Query always fails; fakes should never reach raw SQL
func (t *Tx) Query(context.Context, string, ...any) (store.Rows, error) {
	return nil, perr.Unavailablef("storetest: raw queries are not supported")
}

// QueryRow returns a row whose Scan fails
func (t *Tx) QueryRow(context.Context, string, ...any) store.Row {
	return row{err: perr.Unavailablef("storetest: raw queries are not supported")}
}

// Counts returns commits and rollbacks so far
func (t *Tx) Counts() (commits, rollbacks int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Commits, t.Rollbacks
}

type tag struct{}

func (tag) String() string      { return "OK" }
func (tag) RowsAffected() int64 { return 0 }

type row struct{ err error }

func (r row) Scan(...any) error { return r.err }
