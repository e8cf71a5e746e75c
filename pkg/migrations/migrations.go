package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

// BringUpToDate creates the migration tables if needed and applies every
// pending migration.
func BringUpToDate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(db, Migrations)
	err := migrator.Init(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return group, nil
}

// Pending returns the migrations that have not been applied yet.
func Pending(ctx context.Context, db *bun.DB) (migrate.MigrationSlice, error) {
	migrator := migrate.NewMigrator(db, Migrations)
	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return ms.Unapplied(), nil
}
