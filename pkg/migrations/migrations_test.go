package migrations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/migrate"

	"github.com/chainsafe/vault-ledger/pkg/migrations/vaultdb"
	"github.com/chainsafe/vault-ledger/pkg/pgutil"
)

var vaultTables = []string{
	"vault_state",
	"vault_accounts",
	"vault_holdings",
	"vault_assets",
	"ledger_events",
}

func TestVaultDBMigrations_Apply(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, vaultdb.Migrations)
	require.NoError(t, migrator.Init(ctx))

	group, err := migrator.Migrate(ctx)
	require.NoError(t, err)
	require.False(t, group.IsZero(), "expected migrations to run")

	for _, table := range append(vaultTables, "bun_migrations") {
		pgutil.AssertTableExists(t, db, table)
	}
	pgutil.AssertColumnExists(t, db, "vault_holdings", "book_usd")
	pgutil.AssertIndexExists(t, db, "idx_vault_holdings_asset_address")
	pgutil.AssertIndexExists(t, db, "idx_ledger_events_user_address")
	pgutil.AssertIndexExists(t, db, "idx_ledger_events_created_at")

	// the aggregate row is seeded and unique
	pgutil.AssertRowCount(t, db, "vault_state", 1)
	_, err = db.ExecContext(ctx, "INSERT INTO vault_state (id, total_usd) VALUES (2, 0)")
	require.Error(t, err)

	// holdings can never go negative
	_, err = db.ExecContext(ctx,
		"INSERT INTO vault_holdings (user_address, asset_address, amount, book_usd) VALUES ('0xa', '0xb', -1, 0)")
	require.Error(t, err)
}

func TestVaultDBMigrations_Idempotency(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, vaultdb.Migrations)
	require.NoError(t, migrator.Init(ctx))

	_, err := migrator.Migrate(ctx)
	require.NoError(t, err)

	group, err := migrator.Migrate(ctx)
	require.NoError(t, err)
	require.True(t, group.IsZero(), "expected no new migrations on second run")
}

func TestVaultDBMigrations_Rollback(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, vaultdb.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err := migrator.Migrate(ctx)
	require.NoError(t, err)

	group, err := migrator.Rollback(ctx)
	require.NoError(t, err)
	require.False(t, group.IsZero())

	for _, table := range vaultTables {
		pgutil.AssertTableNotExists(t, db, table)
	}
}
