package vaultdb

import (
	"context"
	"log"

	mghelper "github.com/chainsafe/vault-ledger/pkg/pgutil/migrations"
	"github.com/chainsafe/vault-ledger/pkg/vaultstore"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating vault_accounts and vault_holdings tables...")
		if err := mghelper.CreateSchema(ctx, db, &vaultstore.AccountDao{}, &vaultstore.HoldingDao{}); err != nil {
			return err
		}
		_, err := db.ExecContext(ctx,
			"ALTER TABLE vault_holdings ADD CONSTRAINT holdings_non_negative CHECK (amount >= 0 AND book_usd >= 0)")
		if err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &vaultstore.HoldingDao{}, "asset_address")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping vault_accounts and vault_holdings tables...")
		return mghelper.DropTables(ctx, db, &vaultstore.HoldingDao{}, &vaultstore.AccountDao{})
	})
}
