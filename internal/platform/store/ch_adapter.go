package store

import (
	"context"
	"errors"

	"datacompliance/internal/platform/store/ch"
)

// chConn is the slice of *ch.CH the adapter needs
type chConn interface {
	Insert(ctx context.Context, table string, rows [][]any) error
	Query(ctx context.Context, sql string, args ...any) (ch.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) error
	Ping(ctx context.Context) error
	Close() error
}

func newCHAdapter(c chConn) Clickhouse { return &clickhouseAdapter{inner: c} }

// clickhouseAdapter adapts the clickhouse client to the Clickhouse seam
type clickhouseAdapter struct {
	inner chConn
}

var _ Clickhouse = (*clickhouseAdapter)(nil)

func (a *clickhouseAdapter) AppendBatch(ctx context.Context, table string, rows [][]any) error {
	return a.inner.Insert(ctx, table, rows)
}

func (a *clickhouseAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := a.inner.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{r}, nil
}

func (a *clickhouseAdapter) Exec(ctx context.Context, sql string, args ...any) error {
	return a.inner.Exec(ctx, sql, args...)
}

func (a *clickhouseAdapter) Ping(ctx context.Context) error {
	if a == nil || a.inner == nil {
		return errors.New("store: nil clickhouse adapter")
	}
	return a.inner.Ping(ctx)
}

func (a *clickhouseAdapter) Close() error { return a.inner.Close() }

// chRows drops the Close error so clickhouse rows satisfy Rows
type chRows struct{ ch.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
