// Package migrations holds the bun migration helpers shared by the vault
// database migrations and the migrate command.
package migrations

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

const usageText = `Usage:
  go run ./cmd/vault-server/migrate [-config config.yaml] <command>

Commands:
%s
Examples:
  go run ./cmd/vault-server/migrate -config config.yaml init
  go run ./cmd/vault-server/migrate -config config.yaml up
`

type command struct {
	help string
	run  func(ctx context.Context, m *migrate.Migrator) error
}

var commands = map[string]command{
	"init":         {"create the migration bookkeeping tables", initTables},
	"up":           {"apply every pending migration", locked(migrateUp)},
	"down":         {"roll back the last migration group", locked(migrateDown)},
	"status":       {"print applied and pending migrations", status},
	"mark_applied": {"record pending migrations as applied without running them", locked(markApplied)},
}

// Usage prints command usage
func Usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "  %-13s %s\n", name, commands[name].help)
	}
	fmt.Printf(usageText, b.String())
	flag.PrintDefaults()
	os.Exit(2)
}

// Exitf prints the message followed by usage and exits
func Exitf(s string, args ...any) {
	fmt.Fprintf(os.Stderr, s+"\n", args...)
	Usage()
}

// RunMigrations runs the command named by args[0]
func RunMigrations(ctx context.Context, migrator *migrate.Migrator, args ...string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command provided")
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command: %s", args[0])
	}
	return cmd.run(ctx, migrator)
}

func locked(run func(ctx context.Context, m *migrate.Migrator) error) func(ctx context.Context, m *migrate.Migrator) error {
	return func(ctx context.Context, m *migrate.Migrator) error {
		if err := m.Lock(ctx); err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}
		defer func() {
			if err := m.Unlock(ctx); err != nil {
				log.Printf("failed to release migration lock: %v", err)
			}
		}()
		return run(ctx, m)
	}
}

func initTables(ctx context.Context, m *migrate.Migrator) error {
	if err := m.Init(ctx); err != nil {
		return err
	}
	log.Println("migration tables created")
	return nil
}

func migrateUp(ctx context.Context, m *migrate.Migrator) error {
	group, err := m.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Println("database is up to date")
		return nil
	}
	log.Printf("migrated to %s", group)
	return nil
}

func migrateDown(ctx context.Context, m *migrate.Migrator) error {
	group, err := m.Rollback(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Println("nothing to roll back")
		return nil
	}
	log.Printf("rolled back %s", group)
	return nil
}

func markApplied(ctx context.Context, m *migrate.Migrator) error {
	group, err := m.Migrate(ctx, migrate.WithNopMigration())
	if err != nil {
		return err
	}
	log.Printf("marked %s as applied", group)
	return nil
}

func status(ctx context.Context, m *migrate.Migrator) error {
	ms, err := m.MigrationsWithStatus(ctx)
	if err != nil {
		return err
	}
	log.Printf("migrations: %s", ms)
	log.Printf("pending: %s", ms.Unapplied())
	log.Printf("last group: %s", ms.LastGroup())
	return nil
}

// CreateSchema creates a table per model, skipping existing ones
func CreateSchema(ctx context.Context, db bun.IDB, models ...any) error {
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	return nil
}

// DropTables drops the tables of the given models
func DropTables(ctx context.Context, db bun.IDB, models ...any) error {
	for _, model := range models {
		if _, err := db.NewDropTable().Model(model).IfExists().Cascade().Exec(ctx); err != nil {
			return fmt.Errorf("drop table for %T: %w", model, err)
		}
	}
	return nil
}

// TruncateTables removes every row from the tables of the given models
func TruncateTables(ctx context.Context, db bun.IDB, models ...any) error {
	for _, model := range models {
		if _, err := db.NewTruncateTable().Model(model).Exec(ctx); err != nil {
			return fmt.Errorf("truncate table for %T: %w", model, err)
		}
	}
	return nil
}

// CreateModelIndexes creates idx_<table>_<column> for each column.
func CreateModelIndexes(ctx context.Context, db bun.IDB, model any, columns ...string) error {
	for _, column := range columns {
		name, err := modelIndexName(db, model, column)
		if err != nil {
			return err
		}
		if _, err := db.NewCreateIndex().Model(model).Index(name).Column(column).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", name, err)
		}
	}
	return nil
}

// DropModelIndexes drops indexes created by CreateModelIndexes.
func DropModelIndexes(ctx context.Context, db bun.IDB, model any, columns ...string) error {
	for _, column := range columns {
		name, err := modelIndexName(db, model, column)
		if err != nil {
			return err
		}
		if _, err := db.NewDropIndex().Model(model).Index(name).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("drop index %s: %w", name, err)
		}
	}
	return nil
}

func modelIndexName(db bun.IDB, model any, column string) (string, error) {
	if model == nil {
		return "", fmt.Errorf("model cannot be nil")
	}
	table := db.NewCreateIndex().Model(model).GetTableName()
	if table == "" {
		return "", fmt.Errorf("failed to resolve table name for model %T", model)
	}
	table = strings.NewReplacer(`"`, "", ".", "_").Replace(table)
	return fmt.Sprintf("idx_%s_%s", table, column), nil
}
