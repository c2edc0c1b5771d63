package pgutil

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"

	"github.com/chainsafe/vault-ledger/pkg/config"
)

const (
	testImage    = "postgres:15-alpine"
	testDatabase = "vault_test"
	testUser     = "vault"
	testPassword = "vault"

	connectAttempts = 8
)

// SetupTestDB starts a throwaway PostgreSQL container and connects to it.
// The test is skipped when no container runtime is reachable. The returned
// func closes the connection and removes the container.
func SetupTestDB(t *testing.T) (*bun.DB, func()) {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	container, err := postgres.Run(ctx, testImage,
		postgres.WithDatabase(testDatabase),
		postgres.WithUsername(testUser),
		postgres.WithPassword(testPassword),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	terminate := func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		terminate()
		t.Fatalf("failed to read container connection string: %v", err)
	}

	db, err := connectWithRetry(&config.DatabaseConfig{URL: dsn, Timeout: 10})
	if err != nil {
		terminate()
		t.Fatalf("failed to connect to test database: %v", err)
	}

	return db, func() {
		_ = db.Close()
		terminate()
	}
}

// connectWithRetry covers the short window in which postgres reports ready
// but still refuses connections.
func connectWithRetry(cfg *config.DatabaseConfig) (*bun.DB, error) {
	var err error
	for attempt := 0; attempt < connectAttempts; attempt++ {
		var db *bun.DB
		if db, err = ConnectDB(cfg); err == nil {
			return db, nil
		}
		time.Sleep(time.Duration(100<<attempt) * time.Millisecond)
	}
	return nil, err
}

func exists(t *testing.T, db *bun.DB, what, query string, args ...interface{}) bool {
	t.Helper()
	var found bool
	if err := db.NewSelect().ColumnExpr("EXISTS ("+query+")", args...).Scan(context.Background(), &found); err != nil {
		t.Fatalf("failed to look up %s: %v", what, err)
	}
	return found
}

func tableExists(t *testing.T, db *bun.DB, table string) bool {
	return exists(t, db, "table "+table,
		"SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = ?", table)
}

// AssertTableExists fails the test if table is missing.
func AssertTableExists(t *testing.T, db *bun.DB, table string) {
	t.Helper()
	if !tableExists(t, db, table) {
		t.Errorf("table %s does not exist", table)
	}
}

// AssertTableNotExists fails the test if table is present.
func AssertTableNotExists(t *testing.T, db *bun.DB, table string) {
	t.Helper()
	if tableExists(t, db, table) {
		t.Errorf("table %s should not exist", table)
	}
}

// AssertIndexExists fails the test if index is missing.
func AssertIndexExists(t *testing.T, db *bun.DB, index string) {
	t.Helper()
	if !exists(t, db, "index "+index,
		"SELECT 1 FROM pg_indexes WHERE schemaname = 'public' AND indexname = ?", index) {
		t.Errorf("index %s does not exist", index)
	}
}

// AssertColumnExists fails the test if table has no such column.
func AssertColumnExists(t *testing.T, db *bun.DB, table, column string) {
	t.Helper()
	if !exists(t, db, "column "+table+"."+column,
		"SELECT 1 FROM information_schema.columns WHERE table_schema = 'public' AND table_name = ? AND column_name = ?",
		table, column) {
		t.Errorf("column %s.%s does not exist", table, column)
	}
}

// AssertRowCount fails the test unless table holds want rows.
func AssertRowCount(t *testing.T, db *bun.DB, table string, want int) {
	t.Helper()
	count, err := db.NewSelect().TableExpr("?", bun.Ident(table)).Count(context.Background())
	if err != nil {
		t.Fatalf("failed to count rows in %s: %v", table, err)
	}
	if count != want {
		t.Errorf("table %s: want %d rows, got %d", table, want, count)
	}
}
