package book

import (
	"context"
)

//go:generate mockgen -destination=mock_repository_test.go -package=book . Repository

// Repository defines the contract for book data storage.
type Repository interface {
	Create(ctx context.Context, b Book) (Book, error)
	List(ctx context.Context) ([]Book, error)
	GetByISBN(ctx context.Context, isbn string) (Book, error)
	Update(ctx context.Context, b Book) (Book, error)
	Delete(ctx context.Context, isbn string) error
}
