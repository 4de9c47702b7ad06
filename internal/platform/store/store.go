// Package store opens the storage backends the engine uses and exposes them
// behind small seams: Postgres for durable state, ClickHouse for the audit ledger
package store

import (
	"context"
	"errors"
	"fmt"

	"datacompliance/internal/platform/logger"
)

// Store is the facade over the configured backends
// zero value is safe but does nothing
type Store struct {
	// Log is the logger used by subclients
	Log logger.Logger

	// PG is the postgres seam, nil when disabled
	PG TxRunner

	// CH is the clickhouse seam, nil when disabled
	CH Clickhouse
}

// Row exposes the minimal scan contract a single row needs
type Row interface {
	Scan(dest ...any) error
}

// Rows exposes iteration and scan for a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// CommandTag reports what a write did
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the read and write surface repos use for sql
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner runs fn inside one transaction; fn's error rolls back
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse is the columnar append seam used by the audit ledger
type Clickhouse interface {
	AppendBatch(ctx context.Context, table string, rows [][]any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Exec(ctx context.Context, sql string, args ...any) error
	Close() error
}

// Pinger is any seam that can report readiness
type Pinger interface{ Ping(context.Context) error }

// Open constructs a Store with the requested backends
// backends not enabled in cfg remain nil
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}
	s.Log = s.Log.With().Logger()

	if cfg.PG.Enabled {
		pg, err := openPG(ctx, cfg, s)
		if err != nil {
			return nil, err
		}
		s.PG = pg
		if cfg.PG.Migrate {
			if err := Migrate(ctx, cfg.PG.URL, s.Log); err != nil {
				_ = s.Close(ctx)
				return nil, err
			}
		}
	}

	if cfg.CH.Enabled {
		ch, err := openCH(ctx, cfg)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.CH = ch
	}
	return s, nil
}

// Guard pings every configured seam that supports it
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	if p, ok := s.PG.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("pg: %w", err))
		}
	}
	if p, ok := s.CH.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("ch: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close closes all initialized backends; nil backends are ignored
func (s *Store) Close(_ context.Context) error {
	var errs []error
	if s.CH != nil {
		if e := s.CH.Close(); e != nil {
			errs = append(errs, e)
		}
	}
	if c, ok := s.PG.(interface{ Close() error }); ok {
		if e := c.Close(); e != nil {
			errs = append(errs, e)
		}
	}
	return errors.Join(errs...)
}
