package store

import (
	"context"
	"fmt"
	"time"

	chx "datacompliance/internal/platform/store/ch"
	"datacompliance/internal/platform/store/pg"

	"github.com/jackc/pgx/v5/pgxpool"
)

// openPG opens the pool and only publishes the adapter once a ping succeeds
func openPG(ctx context.Context, cfg Config, s *Store) (*pgAdapter, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
	}, tracer, func(pc *pgxpool.Config) {
		if cfg.AppName != "" {
			pc.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
		}
	})
	if err != nil {
		return nil, err
	}

	attempts := cfg.PG.ConnectRetries
	if attempts <= 0 {
		attempts = 20
	}
	pingTimeout := cfg.PG.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 3 * time.Second
	}
	const ceiling = 2 * time.Second

	var lastErr error
	backoff := 150 * time.Millisecond
	for i := 0; i < attempts; i++ {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = p.Pool.Ping(toCtx)
		cancel()
		if lastErr == nil {
			return newPGAdapter(p), nil
		}

		s.Log.Warn().Int("attempt", i+1).Err(lastErr).Msg("postgres not ready")
		select {
		case <-ctx.Done():
			p.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, ceiling)
	}

	p.Close()
	return nil, fmt.Errorf("postgres ping failed after %d attempts: %w", attempts, lastErr)
}

func openCH(ctx context.Context, cfg Config) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{URL: cfg.CH.URL, Role: cfg.CH.Role})
	if err != nil {
		return nil, err
	}
	return newCHAdapter(c), nil
}
