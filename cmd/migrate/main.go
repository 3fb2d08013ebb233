package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"soundshelf/internal/logging"
	"soundshelf/internal/store"
	"soundshelf/migrations"
)

func main() {
	_ = godotenv.Load("config/local.env")
	_ = godotenv.Load(".env")

	logging.SetGlobalLogger(logging.New(logging.Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: "text",
	}))

	app := &cli.Command{
		Name:  "migrate",
		Usage: "Manage the soundshelf Postgres schema",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Postgres connection URL",
				Sources:  cli.EnvVars("DATABASE_URL"),
				Required: true,
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply all pending migrations",
				Action: withMigrator(runUp),
			},
			{
				Name:  "down",
				Usage: "Roll back migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "steps",
						Usage: "Number of migrations to roll back; 0 rolls back everything",
						Value: 1,
					},
				},
				Action: withMigrator(runDown),
			},
			{
				Name:   "version",
				Usage:  "Print the current schema version",
				Action: withMigrator(runVersion),
			},
			{
				Name:      "force",
				Usage:     "Mark the schema as being at VERSION without running migrations",
				ArgsUsage: "VERSION",
				Action:    withMigrator(runForce),
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}
}

type migratorAction func(ctx context.Context, cmd *cli.Command, m *migrate.Migrate) error

func withMigrator(action migratorAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		db, err := store.Open(ctx, cmd.String("database-url"), store.ConnectOptions{})
		if err != nil {
			return err
		}
		defer db.Close()

		m, err := migrations.New(db)
		if err != nil {
			return err
		}
		return action(ctx, cmd, m)
	}
}

func runUp(_ context.Context, _ *cli.Command, m *migrate.Migrate) error {
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("schema already up to date")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}
	log.Info().Msg("migrations applied")
	return nil
}

func runDown(_ context.Context, cmd *cli.Command, m *migrate.Migrate) error {
	steps := cmd.Int("steps")
	var err error
	if steps <= 0 {
		err = m.Down()
	} else {
		err = m.Steps(-int(steps))
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("roll back migrations: %w", err)
	}
	log.Info().Int("steps", int(steps)).Msg("migrations rolled back")
	return nil
}

func runVersion(_ context.Context, _ *cli.Command, m *migrate.Migrate) error {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("no migrations applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	fmt.Printf("version %d (dirty: %t)\n", version, dirty)
	return nil
}

func runForce(_ context.Context, cmd *cli.Command, m *migrate.Migrate) error {
	if cmd.Args().Len() != 1 {
		return errors.New("force expects exactly one VERSION argument")
	}
	version, err := strconv.Atoi(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", cmd.Args().First(), err)
	}
	if err := m.Force(version); err != nil {
		return fmt.Errorf("force version: %w", err)
	}
	log.Info().Int("version", version).Msg("schema version forced")
	return nil
}
