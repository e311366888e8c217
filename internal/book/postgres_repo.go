package book

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

type PostgresRepo struct {
	db      *pgxpool.Pool
	q       queries
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, q: newQueries("postgres"), timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) Create(ctx context.Context, b Book) (Book, error) {
	sql, args, err := r.q.insert(b).Returning(bookColumns...).ToSQL()
	if err != nil {
		return Book{}, fmt.Errorf("build insert: %w", err)
	}
	return r.queryOne(ctx, sql, args)
}

func (r *PostgresRepo) List(ctx context.Context) ([]Book, error) {
	sql, args, err := r.q.selectAll().ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, sql, args...)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[Book])
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Book{}
	}
	return out, nil
}

func (r *PostgresRepo) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	sql, args, err := r.q.selectByISBN(isbn).ToSQL()
	if err != nil {
		return Book{}, fmt.Errorf("build select: %w", err)
	}
	return r.queryOne(ctx, sql, args)
}

func (r *PostgresRepo) Update(ctx context.Context, b Book) (Book, error) {
	sql, args, err := r.q.update(b).Returning(bookColumns...).ToSQL()
	if err != nil {
		return Book{}, fmt.Errorf("build update: %w", err)
	}
	return r.queryOne(ctx, sql, args)
}

func (r *PostgresRepo) Delete(ctx context.Context, isbn string) error {
	sql, args, err := r.q.delete(isbn).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// queryOne runs a statement expected to yield exactly one book row.
func (r *PostgresRepo) queryOne(ctx context.Context, sql string, args []interface{}) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(timeoutCtx, sql, args...)
	if err != nil {
		return Book{}, mapPgError(err)
	}
	b, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Book])
	if err != nil {
		return Book{}, mapPgError(err)
	}
	return b, nil
}

func mapPgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrConflict
	}
	return err
}
