// Package database opens the relational store behind the books API and applies
// its goose migrations. Postgres is reached through a pgx pool, SQLite through
// sqlx on top of the pure Go modernc driver.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const pingTimeout = 2 * time.Second

// DB is the process-wide store handle. Exactly one of Pool or SQLite is set.
type DB struct {
	Driver string
	Pool   *pgxpool.Pool
	SQLite *sqlx.DB

	stdlibDB *sql.DB
}

// Open connects to the configured driver and verifies the connection with a ping.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	switch driver {
	case DriverPostgres:
		pool, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return &DB{Driver: driver, Pool: pool}, nil
	case DriverSQLite:
		db, err := OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return &DB{Driver: driver, SQLite: db}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database (%s): %w", RedactDSN(dsn), err)
	}
	return pool, nil
}

func OpenSQLite(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", SQLiteDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite (%s): %w", dsn, err)
	}
	return db, nil
}

// SQLiteDSN adds a busy timeout so concurrent writers wait instead of failing.
func SQLiteDSN(dsn string) string {
	if strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)"
}

// SQLDB exposes the handle as *sql.DB for goose.
func (db *DB) SQLDB() *sql.DB {
	if db.SQLite != nil {
		return db.SQLite.DB
	}
	if db.stdlibDB == nil {
		db.stdlibDB = stdlib.OpenDBFromPool(db.Pool)
	}
	return db.stdlibDB
}

func (db *DB) Ping(ctx context.Context) error {
	if db.SQLite != nil {
		return db.SQLite.PingContext(ctx)
	}
	return db.Pool.Ping(ctx)
}

func (db *DB) Close() {
	if db.stdlibDB != nil {
		_ = db.stdlibDB.Close()
	}
	if db.SQLite != nil {
		_ = db.SQLite.Close()
	}
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// RedactDSN masks the password of a URL DSN or of a keyword/value DSN
// ("host=db password=secret"). Anything else is returned unchanged.
func RedactDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		return u.Redacted()
	}
	fields := strings.Fields(dsn)
	redacted := false
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=xxxxx"
			redacted = true
		}
	}
	if !redacted {
		return dsn
	}
	return strings.Join(fields, " ")
}
