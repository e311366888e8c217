package book

import (
	"context"
)

// Service provides book-related business logic.
type Service struct {
	repo Repository
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stores a new book.
func (s *Service) Create(ctx context.Context, b Book) (Book, error) {
	return s.repo.Create(ctx, b)
}

// List returns every book ordered by title.
func (s *Service) List(ctx context.Context) ([]Book, error) {
	return s.repo.List(ctx)
}

// GetByISBN returns a book by its ISBN.
func (s *Service) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	return s.repo.GetByISBN(ctx, isbn)
}

// Update replaces the mutable fields of the book stored under isbn.
// Whatever ISBN b carries is overwritten by the key.
func (s *Service) Update(ctx context.Context, isbn string, b Book) (Book, error) {
	b.ISBN = isbn
	return s.repo.Update(ctx, b)
}

// Delete removes the book stored under isbn.
func (s *Service) Delete(ctx context.Context, isbn string) error {
	return s.repo.Delete(ctx, isbn)
}
