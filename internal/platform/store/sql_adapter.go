package store

import (
	"context"
	"errors"
	"time"

	"datacompliance/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is the subset shared by *pgxpool.Pool and pgx.Tx
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// traced wraps a pgx querier and reports every statement to the tracer
type traced struct {
	q      pgxQuerier
	tracer pg.QueryTracer
	slowUS int64
}

func (t traced) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := t.q.Exec(ctx, sql, args...)
	t.emit(ctx, sql, args, start, err)
	return ct, err
}

func (t traced) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := t.q.Query(ctx, sql, args...)
	t.emit(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

func (t traced) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	r := t.q.QueryRow(ctx, sql, args...)
	return row{r: r, after: func(err error) { t.emit(ctx, sql, args, start, err) }}
}

func (t traced) emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if t.tracer == nil {
		return
	}
	elapsed := time.Since(start).Microseconds()
	t.tracer.OnQuery(ctx, pg.QueryEvent{
		SQL:       sql,
		Args:      args,
		ElapsedUS: elapsed,
		Err:       err,
		Slow:      t.slowUS > 0 && elapsed >= t.slowUS,
	})
}

// pgAdapter implements TxRunner over a pg.PG pool
type pgAdapter struct {
	traced
	p *pg.PG
}

func newPGAdapter(p *pg.PG) *pgAdapter {
	return &pgAdapter{
		traced: traced{q: p.Pool, tracer: p.Tracer, slowUS: int64(p.SlowMs) * 1000},
		p:      p,
	}
}

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil || a.p == nil {
		return errors.New("pg: nil adapter")
	}
	return a.p.Pool.Ping(ctx)
}

func (a *pgAdapter) Close() error { a.p.Close(); return nil }

func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	q := traced{q: tx, tracer: a.tracer, slowUS: a.slowUS}
	if err := fn(q); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// row reports to the tracer once Scan has run, so scan errors are traced too
type row struct {
	r     pgx.Row
	after func(error)
}

func (x row) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	return err
}
