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
		log.Println("creating vault_assets table...")
		return mghelper.CreateSchema(ctx, db, &vaultstore.AssetDao{})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping vault_assets table...")
		return mghelper.DropTables(ctx, db, &vaultstore.AssetDao{})
	})
}
