package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/leviettung200/ByteDefence/internal/domain/books"
	"github.com/leviettung200/ByteDefence/internal/domain/query"
)

var _ books.Repository = (*BookRepository)(nil)

// BookRepository keeps the catalogue in insertion-ordered slices.
type BookRepository struct {
	mu      sync.RWMutex
	authors []books.Author
	books   []books.Book
	reviews []books.Review
}

func NewBookRepository() *BookRepository {
	return NewBookRepositoryWith(books.SeedData{})
}

// NewSeededBookRepository starts from the demo catalogue.
func NewSeededBookRepository() *BookRepository {
	return NewBookRepositoryWith(books.Seed(time.Now().UTC()))
}

func NewBookRepositoryWith(seed books.SeedData) *BookRepository {
	return &BookRepository{
		authors: slices.Clone(seed.Authors),
		books:   slices.Clone(seed.Books),
		reviews: slices.Clone(seed.Reviews),
	}
}

func (r *BookRepository) ListBooks(_ context.Context, q books.BookQuery) ([]books.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := lo.Filter(r.books, func(b books.Book, _ int) bool { return q.Where.Match(b) })
	query.Apply(out, q.Order, books.CompareBooks)
	return out, nil
}

func (r *BookRepository) GetBook(_ context.Context, id string) (*books.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	book, ok := lo.Find(r.books, func(b books.Book) bool { return b.ID == id })
	if !ok {
		return nil, books.ErrNotFound
	}
	return &book, nil
}

func (r *BookRepository) CreateBook(_ context.Context, book books.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.hasAuthor(book.AuthorID) {
		return fmt.Errorf("author %s: %w", book.AuthorID, books.ErrNotFound)
	}
	if lo.ContainsBy(r.books, func(b books.Book) bool { return b.ID == book.ID }) {
		return fmt.Errorf("memory: book %s already exists", book.ID)
	}
	r.books = append(r.books, book)
	return nil
}

func (r *BookRepository) UpdateBook(_ context.Context, book books.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, idx, ok := lo.FindIndexOf(r.books, func(b books.Book) bool { return b.ID == book.ID })
	if !ok {
		return books.ErrNotFound
	}
	if !r.hasAuthor(book.AuthorID) {
		return fmt.Errorf("author %s: %w", book.AuthorID, books.ErrNotFound)
	}
	r.books[idx] = book
	return nil
}

func (r *BookRepository) DeleteBook(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !lo.ContainsBy(r.books, func(b books.Book) bool { return b.ID == id }) {
		return books.ErrNotFound
	}
	r.reviews = lo.Reject(r.reviews, func(rv books.Review, _ int) bool { return rv.BookID == id })
	r.books = lo.Reject(r.books, func(b books.Book, _ int) bool { return b.ID == id })
	return nil
}

func (r *BookRepository) CountBooksByAuthor(_ context.Context, authorID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.CountBy(r.books, func(b books.Book) bool { return b.AuthorID == authorID }), nil
}

func (r *BookRepository) ListAuthors(_ context.Context, q books.AuthorQuery) ([]books.Author, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := lo.Filter(r.authors, func(a books.Author, _ int) bool { return q.Where.Match(a) })
	query.Apply(out, q.Order, books.CompareAuthors)
	return out, nil
}

func (r *BookRepository) GetAuthor(_ context.Context, id string) (*books.Author, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	author, ok := lo.Find(r.authors, func(a books.Author) bool { return a.ID == id })
	if !ok {
		return nil, books.ErrNotFound
	}
	return &author, nil
}

func (r *BookRepository) CreateAuthor(_ context.Context, author books.Author) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hasAuthor(author.ID) {
		return fmt.Errorf("memory: author %s already exists", author.ID)
	}
	r.authors = append(r.authors, author)
	return nil
}

func (r *BookRepository) ListReviews(_ context.Context, q books.ReviewQuery) ([]books.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := lo.Filter(r.reviews, func(rv books.Review, _ int) bool { return q.Where.Match(rv) })
	query.Apply(out, q.Order, books.CompareReviews)
	return out, nil
}

func (r *BookRepository) CreateReview(_ context.Context, review books.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !lo.ContainsBy(r.books, func(b books.Book) bool { return b.ID == review.BookID }) {
		return fmt.Errorf("book %s: %w", review.BookID, books.ErrNotFound)
	}
	if review.Rating < 1 || review.Rating > 5 {
		return fmt.Errorf("memory: rating %d out of range", review.Rating)
	}
	r.reviews = append(r.reviews, review)
	return nil
}

func (r *BookRepository) ReviewStats(_ context.Context, bookID string) (int, *float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ratings := lo.FilterMap(r.reviews, func(rv books.Review, _ int) (int, bool) {
		return rv.Rating, rv.BookID == bookID
	})
	if len(ratings) == 0 {
		return 0, nil, nil
	}
	mean := float64(lo.Sum(ratings)) / float64(len(ratings))
	return len(ratings), &mean, nil
}

func (r *BookRepository) hasAuthor(id string) bool {
	return lo.ContainsBy(r.authors, func(a books.Author) bool { return a.ID == id })
}
