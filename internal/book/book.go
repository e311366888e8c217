package book

import (
	"errors"
)

var (
	// ErrNotFound is returned when no book matches the requested ISBN.
	ErrNotFound = errors.New("book not found")
	// ErrConflict is returned when a book with the same ISBN already exists.
	ErrConflict = errors.New("book already exists")
)

// Book represents a row of the books table.
type Book struct {
	ISBN      string `json:"isbn" db:"isbn"`
	AmazonURL string `json:"amazon_url" db:"amazon_url"`
	Author    string `json:"author" db:"author"`
	Language  string `json:"language" db:"language"`
	Pages     int    `json:"pages" db:"pages"`
	Publisher string `json:"publisher" db:"publisher"`
	Title     string `json:"title" db:"title"`
	Year      int    `json:"year" db:"year"`
}
