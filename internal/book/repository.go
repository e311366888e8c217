package book

import (
	"fmt"
	"time"

	"booksapi/internal/platform/database"
)

// NewRepository returns the store implementation matching db's driver.
func NewRepository(db *database.DB, timeout time.Duration) (Repository, error) {
	switch db.Driver {
	case database.DriverPostgres:
		return NewPostgresRepo(db.Pool, timeout), nil
	case database.DriverSQLite:
		return NewSQLiteRepo(db.SQLite, timeout), nil
	default:
		return nil, fmt.Errorf("no book repository for driver %q", db.Driver)
	}
}
