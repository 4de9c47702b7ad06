package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/logger"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// MigrationsTable records the applied schema version
const MigrationsTable = "schema_migrations"

// migrationLog routes migrate's progress lines through zerolog
type migrationLog struct{ l logger.Logger }

func (m migrationLog) Printf(format string, v ...any) {
	m.l.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (m migrationLog) Verbose() bool { return m.l.GetLevel() <= zerolog.DebugLevel }

// schemaSource reads the embedded NNN_name.up.sql / .down.sql files
func schemaSource() (source.Driver, error) {
	return iofs.New(schemaFS, "schema")
}

// Migrate brings the database at dsn up to the newest embedded schema version.
// Cancelling ctx stops after the migration in flight
func Migrate(ctx context.Context, dsn string, log logger.Logger) error {
	src, err := schemaSource()
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "open embedded schema")
	}
	db, err := sql.Open("pgx/v5", dsn)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "open migration connection")
	}
	drv, err := migratepgx.WithInstance(db, &migratepgx.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		_ = db.Close()
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", drv)
	if err != nil {
		_ = drv.Close()
		return perr.Wrap(err, perr.ErrorCodeDB, "init migrations")
	}
	defer m.Close()
	m.Log = migrationLog{l: log}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Debug().Msg("schema up to date")
		return nil
	}
	if err != nil {
		version, dirty, _ := m.Version()
		return perr.Wrapf(err, perr.ErrorCodeDB, "migrate schema (version %d, dirty %t)", version, dirty)
	}
	version, _, _ := m.Version()
	log.Info().Uint("version", version).Msg("schema migrated")
	return nil
}
