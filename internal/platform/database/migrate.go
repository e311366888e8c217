package database

import (
	"context"
	"fmt"
	"strings"

	"booksapi/db/migrations"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

type gooseLogger struct {
	s *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.s.Infof(strings.TrimSuffix(format, "\n"), v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.s.Fatalf(strings.TrimSuffix(format, "\n"), v...)
}

// ConfigureGoose points goose at the dialect for driver and at the migration
// source. An empty dir selects the embedded migrations; the returned dir is
// what goose commands must be given.
func ConfigureGoose(driver, dir string, logger *zap.Logger) (string, error) {
	dialect, err := gooseDialect(driver)
	if err != nil {
		return "", err
	}
	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetLogger(gooseLogger{s: logger.Sugar()})

	if dir == "" {
		goose.SetBaseFS(migrations.FS)
		return ".", nil
	}
	goose.SetBaseFS(nil)
	return dir, nil
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *DB, dir string, logger *zap.Logger) error {
	migrationsDir, err := ConfigureGoose(db.Driver, dir, logger)
	if err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.SQLDB(), migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func gooseDialect(driver string) (string, error) {
	switch driver {
	case DriverPostgres:
		return "postgres", nil
	case DriverSQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}
