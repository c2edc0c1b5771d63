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
		log.Println("creating ledger_events table...")
		if err := mghelper.CreateSchema(ctx, db, &vaultstore.EventDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &vaultstore.EventDao{}, "user_address", "asset_address", "created_at")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping ledger_events table...")
		if err := mghelper.DropModelIndexes(ctx, db, &vaultstore.EventDao{}, "user_address", "asset_address", "created_at"); err != nil {
			return err
		}
		return mghelper.DropTables(ctx, db, &vaultstore.EventDao{})
	})
}
