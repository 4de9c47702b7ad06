// Package ch provides the ClickHouse client used for append-only ledgers
package ch

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config configures the clickhouse client
type Config struct {
	URL  string
	Role string
}

// Rows is the result set surface returned by Query
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// CH wraps a native clickhouse connection
type CH struct {
	conn driver.Conn
}

var openConn = clickhouse.Open

// Open parses the DSN, opens a native connection and pings it
func Open(ctx context.Context, cfg Config) (*CH, error) {
	opts, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("ch: parse dsn: %w", err)
	}
	opts.ClientInfo = BuildClientInfo(cfg.Role)

	conn, err := openConn(opts)
	if err != nil {
		return nil, fmt.Errorf("ch: open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ch: ping: %w", err)
	}
	return &CH{conn: conn}, nil
}

// Insert appends rows to table in one batch; column order follows the table definition
func (c *CH) Insert(ctx context.Context, table string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	batch, err := c.conn.PrepareBatch(ctx, "INSERT INTO "+table)
	if err != nil {
		return fmt.Errorf("ch: prepare %s: %w", table, err)
	}
	for i, r := range rows {
		if err := batch.Append(r...); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("ch: append %s row %d: %w", table, i, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("ch: send %s: %w", table, err)
	}
	return nil
}

// Query runs a read query
func (c *CH) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return c.conn.Query(ctx, sql, args...)
}

// Exec runs a statement that returns no rows, such as DDL
func (c *CH) Exec(ctx context.Context, sql string, args ...any) error {
	return c.conn.Exec(ctx, sql, args...)
}

// Ping checks connectivity
func (c *CH) Ping(ctx context.Context) error { return c.conn.Ping(ctx) }

// Close closes the connection
func (c *CH) Close() error { return c.conn.Close() }
