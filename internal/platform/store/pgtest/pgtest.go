//go:build integration_pg

// Package pgtest starts a throwaway Postgres for integration tests and applies the schema
package pgtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"datacompliance/internal/platform/store"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Start runs postgres:16-alpine and returns its DSN; the container is removed on cleanup
func Start(t *testing.T) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "retention",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/retention?sslmode=disable", host, port.Port())
}

// Open starts a container, opens the store with the schema applied and closes it on cleanup
func Open(t *testing.T) *store.Store {
	t.Helper()
	return Connect(t, Start(t))
}

// Connect opens a migrated store on an already running database
func Connect(t *testing.T, dsn string) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), store.Config{
		AppName: "retention-it",
		PG:      store.PGConfig{Enabled: true, URL: dsn, MaxConns: 16, Migrate: true},
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}
