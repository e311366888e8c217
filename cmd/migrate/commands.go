package main

import (
	"context"
	"database/sql"
	"fmt"

	"booksapi/internal/config"
	"booksapi/internal/platform/database"
	"booksapi/internal/platform/logging"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the books database schema",
		Long:          "Runs goose migrations against the database named by DB_DRIVER and DB_DSN.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withGoose(cmd.Context(), func(ctx context.Context, db *sql.DB, dir string) error {
					return goose.UpContext(ctx, db, dir)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withGoose(cmd.Context(), func(ctx context.Context, db *sql.DB, dir string) error {
					return goose.DownContext(ctx, db, dir)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the state of every migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withGoose(cmd.Context(), func(ctx context.Context, db *sql.DB, dir string) error {
					return goose.StatusContext(ctx, db, dir)
				})
			},
		},
		newCreateCmd(),
	)
	return root
}

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Write a new empty SQL migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			goose.SetBaseFS(nil)
			goose.SetSequential(true)
			dir := createDir(cfg)
			if err := goose.Create(nil, dir, args[0], "sql"); err != nil {
				return fmt.Errorf("create migration: %w", err)
			}
			cmd.Printf("Migration created in %s: %s\n", dir, args[0])
			return nil
		},
	}
}

// withGoose opens the configured database, points goose at it and runs fn.
func withGoose(ctx context.Context, fn func(ctx context.Context, db *sql.DB, dir string) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	dir, err := database.ConfigureGoose(cfg.DBDriver, sourceDir(cfg), logger)
	if err != nil {
		return err
	}
	logger.Info("running migrations",
		zap.String("driver", cfg.DBDriver),
		zap.String("dsn", database.RedactDSN(cfg.DBDSN)),
		zap.String("dir", dir),
	)
	return fn(ctx, db.SQLDB(), dir)
}
