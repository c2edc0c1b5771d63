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
		log.Println("creating vault_state table...")
		if err := mghelper.CreateSchema(ctx, db, &vaultstore.StateDao{}); err != nil {
			return err
		}
		_, err := db.ExecContext(ctx, "ALTER TABLE vault_state ADD CONSTRAINT singleton_check CHECK (id = 1)")
		if err != nil {
			return err
		}
		_, err = db.NewInsert().
			Model(&vaultstore.StateDao{ID: 1, TotalUSD: "0"}).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping vault_state table...")
		return mghelper.DropTables(ctx, db, &vaultstore.StateDao{})
	})
}
