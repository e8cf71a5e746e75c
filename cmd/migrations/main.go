package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Seg0r/MuShee-sub000/pkg/config"
	"github.com/Seg0r/MuShee-sub000/pkg/database"
	"github.com/Seg0r/MuShee-sub000/pkg/migrations"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}
	defer db.Close()

	app := &cli.App{
		Name:  "migrations",
		Usage: "manage the catalog database schema",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "apply all pending migrations",
				Action: func(c *cli.Context) error {
					group, err := migrations.BringUpToDate(c.Context, db)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("There are no new migrations to run")
						return nil
					}
					fmt.Printf("Migrated to %s\n", group)
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "roll back the last migration group",
				Action: func(c *cli.Context) error {
					migrator := migrate.NewMigrator(db, migrations.Migrations)
					group, err := migrator.Rollback(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("There are no groups to roll back")
						return nil
					}
					fmt.Printf("Rolled back %s\n", group)
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "create a Go migration",
				Action: func(c *cli.Context) error {
					migrator := migrate.NewMigrator(db, migrations.Migrations)
					name := strings.Join(c.Args().Slice(), "_")
					mf, err := migrator.CreateGoMigration(c.Context, name, migrate.WithGoTemplate(migrationTemplate))
					if err != nil {
						return err
					}
					fmt.Printf("Created migration %s (%s)\n", mf.Name, mf.Path)
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "list unapplied migrations",
				Action: func(c *cli.Context) error {
					pending, err := migrations.Pending(c.Context, db)
					if err != nil {
						return err
					}
					if len(pending) == 0 {
						fmt.Println("Database is up to date")
						return nil
					}
					fmt.Printf("Unapplied migrations: %s\n", pending)
					return nil
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("app run error")
	}
}

const migrationTemplate = `package %s

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec("")
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec("")
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
`
