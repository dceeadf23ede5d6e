package books

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Repository persists the catalogue. Get methods return ErrNotFound for unknown ids.
type Repository interface {
	ListBooks(ctx context.Context, q BookQuery) ([]Book, error)
	GetBook(ctx context.Context, id string) (*Book, error)
	CreateBook(ctx context.Context, book Book) error
	UpdateBook(ctx context.Context, book Book) error
	// DeleteBook removes the book and its reviews.
	DeleteBook(ctx context.Context, id string) error
	CountBooksByAuthor(ctx context.Context, authorID string) (int, error)

	ListAuthors(ctx context.Context, q AuthorQuery) ([]Author, error)
	GetAuthor(ctx context.Context, id string) (*Author, error)
	CreateAuthor(ctx context.Context, author Author) error

	ListReviews(ctx context.Context, q ReviewQuery) ([]Review, error)
	CreateReview(ctx context.Context, review Review) error
	// ReviewStats returns the review count and mean rating; mean is nil without reviews.
	ReviewStats(ctx context.Context, bookID string) (count int, mean *float64, err error)
}
