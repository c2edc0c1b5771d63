package main

import (
	"context"
	"flag"
	"log"

	"github.com/uptrace/bun/migrate"

	"github.com/chainsafe/vault-ledger/pkg/config"
	"github.com/chainsafe/vault-ledger/pkg/migrations/vaultdb"
	"github.com/chainsafe/vault-ledger/pkg/pgutil"
	mghelper "github.com/chainsafe/vault-ledger/pkg/pgutil/migrations"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Usage = mghelper.Usage
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("error reading configuration file: %s", err.Error())
	}
	if !cfg.Database.Enabled() {
		log.Fatalf("no database configured in %s", *cfgPath)
	}

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatalf("error connecting to database: %s", err.Error())
	}
	defer db.Close()

	log.Printf("Running migrations for vault database (%s)...\n", cfg.Database.Database)

	migrator := migrate.NewMigrator(db, vaultdb.Migrations)
	if err := mghelper.RunMigrations(context.Background(), migrator, flag.Args()...); err != nil {
		mghelper.Exitf("%s", err)
	}
}
