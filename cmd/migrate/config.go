package main

import (
	"booksapi/internal/config"
)

const defaultMigrationsDir = "db/migrations"

// sourceDir is the directory handed to goose for up/down/status. Empty means
// the migrations embedded in the binary.
func sourceDir(cfg config.Config) string {
	return cfg.MigrationsDir
}

// createDir is where new migration files are written. The embedded set is
// read-only, so it falls back to the source tree.
func createDir(cfg config.Config) string {
	if cfg.MigrationsDir != "" {
		return cfg.MigrationsDir
	}
	return defaultMigrationsDir
}
