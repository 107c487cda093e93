// Package dbtest starts a shared PostgreSQL container for integration tests.
package dbtest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/p-n-ai/pai-vocab/internal/platform/database"
)

var (
	once      sync.Once
	sharedURL string
	initErr   error
)

// Setup starts PostgreSQL once per test binary, applies the schema and returns
// a connected DB that is closed via t.Cleanup. Tests are skipped with -short.
func Setup(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	once.Do(func() {
		sharedURL, initErr = startContainer()
	})
	if initErr != nil {
		t.Fatalf("dbtest: start postgres: %v", initErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(ctx, sharedURL, 4, 1)
	if err != nil {
		t.Fatalf("dbtest: connect: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		t.Fatalf("dbtest: migrate: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

// Truncate empties the given tables.
func Truncate(t *testing.T, db *database.DB, tables ...string) {
	t.Helper()
	for _, table := range tables {
		if _, err := db.Pool.Exec(context.Background(), "TRUNCATE "+table); err != nil {
			t.Fatalf("dbtest: truncate %s: %v", table, err)
		}
	}
}

func startContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	ctr, err := postgres.Run(ctx, "postgres:17-alpine",
		postgres.WithDatabase("vocab"),
		postgres.WithUsername("vocab"),
		postgres.WithPassword("vocab"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return "", fmt.Errorf("run container: %w", err)
	}

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = testcontainers.TerminateContainer(ctr)
		return "", fmt.Errorf("connection string: %w", err)
	}
	return url, nil
}
