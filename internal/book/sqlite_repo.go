package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteRepo stores books in an embedded SQLite database.
// The sqlite3 dialect has no RETURNING support, so writes read the row back.
type SQLiteRepo struct {
	db      *sqlx.DB
	q       queries
	timeout time.Duration
}

func NewSQLiteRepo(db *sqlx.DB, timeout time.Duration) *SQLiteRepo {
	return &SQLiteRepo{db: db, q: newQueries("sqlite3"), timeout: timeout}
}

func (r *SQLiteRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *SQLiteRepo) Create(ctx context.Context, b Book) (Book, error) {
	query, args, err := r.q.insert(b).ToSQL()
	if err != nil {
		return Book{}, fmt.Errorf("build insert: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if _, err := r.db.ExecContext(timeoutCtx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return Book{}, ErrConflict
		}
		return Book{}, err
	}
	return r.GetByISBN(ctx, b.ISBN)
}

func (r *SQLiteRepo) List(ctx context.Context) ([]Book, error) {
	query, args, err := r.q.selectAll().ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	out := []Book{}
	if err := r.db.SelectContext(timeoutCtx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLiteRepo) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	query, args, err := r.q.selectByISBN(isbn).ToSQL()
	if err != nil {
		return Book{}, fmt.Errorf("build select: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var b Book
	if err := r.db.GetContext(timeoutCtx, &b, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func (r *SQLiteRepo) Update(ctx context.Context, b Book) (Book, error) {
	query, args, err := r.q.update(b).ToSQL()
	if err != nil {
		return Book{}, fmt.Errorf("build update: %w", err)
	}
	if err := r.execOne(ctx, query, args); err != nil {
		return Book{}, err
	}
	return r.GetByISBN(ctx, b.ISBN)
}

func (r *SQLiteRepo) Delete(ctx context.Context, isbn string) error {
	query, args, err := r.q.delete(isbn).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	return r.execOne(ctx, query, args)
}

// execOne runs a keyed write and reports ErrNotFound when it touched no row.
func (r *SQLiteRepo) execOne(ctx context.Context, query string, args []interface{}) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(timeoutCtx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
