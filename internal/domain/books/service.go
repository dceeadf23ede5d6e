// Package books implements the BookStore catalogue: authors, their books and
// reader reviews.
//
// Reads pass straight through to the Repository with optional where/order
// arguments. Writes validate their input, enforce referential integrity and
// publish an event on the subscription topics below once the change is stored.
//
// Domain failures (unknown author, unknown book, bad rating, invalid input) are
// returned as *UserError so the GraphQL layer can place them in mutation
// payloads instead of the top-level errors list.
package books

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/leviettung200/ByteDefence/internal/domain/ids"
	"github.com/leviettung200/ByteDefence/internal/domain/query"
	"github.com/leviettung200/ByteDefence/internal/pubsub"
)

// Subscription topics. Names match the GraphQL subscription fields.
const (
	TopicBookCreated = "onBookCreated"
	TopicBookUpdated = "onBookUpdated"
	TopicBookDeleted = "onBookDeleted"
	TopicReviewAdded = "onReviewAdded"
)

// Event carries the payload of one topic message. Only the field matching the
// topic is set.
type Event struct {
	Book   *Book
	BookID string
	Review *Review
}

type CreateBookInput struct {
	Title         string  `validate:"required,max=200"`
	Description   *string `validate:"omitempty,max=2000"`
	ISBN          *string `validate:"omitempty,max=20"`
	PublishedYear int
	AuthorID      string `validate:"required"`
	Status        *Status
}

type UpdateBookInput struct {
	ID            string  `validate:"required"`
	Title         *string `validate:"omitempty,min=1,max=200"`
	Description   *string `validate:"omitempty,max=2000"`
	ISBN          *string `validate:"omitempty,max=20"`
	PublishedYear *int
	AuthorID      *string
	Status        *Status
}

type CreateAuthorInput struct {
	Name      string  `validate:"required,max=200"`
	Biography *string `validate:"omitempty,max=4000"`
}

type CreateReviewInput struct {
	BookID       string `validate:"required"`
	Title        string `validate:"required,max=200"`
	Content      *string
	Rating       int
	ReviewerName string `validate:"required,max=100"`
}

// ConcurrentData is the result of loading every collection in parallel.
type ConcurrentData struct {
	Books   []Book
	Authors []Author
	Reviews []Review
}

// MockBook is returned by BookWithError when no error is requested.
var MockBook = Book{
	ID:          "mock-book",
	Title:       "Mock Book",
	Description: strPtr("This is a mock book for testing"),
	Status:      StatusDraft,
}

type Service struct {
	repo      Repository
	events    *pubsub.Broker[Event]
	logger    zerolog.Logger
	validator *validator.Validate
	now       func() time.Time
}

// NewService wires the catalogue to its store and event broker.
func NewService(repo Repository, events *pubsub.Broker[Event], logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		events:    events,
		logger:    logger.With().Str("component", "books").Logger(),
		validator: validator.New(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Events exposes the broker so subscription resolvers can listen on topics.
func (s *Service) Events() *pubsub.Broker[Event] {
	return s.events
}

func (s *Service) Books(ctx context.Context, q BookQuery) ([]Book, error) {
	return s.repo.ListBooks(ctx, q)
}

// BookByID returns nil without error for unknown ids.
func (s *Service) BookByID(ctx context.Context, id string) (*Book, error) {
	book, err := s.repo.GetBook(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return book, err
}

func (s *Service) Authors(ctx context.Context, q AuthorQuery) ([]Author, error) {
	return s.repo.ListAuthors(ctx, q)
}

// AuthorByID returns nil without error for unknown ids.
func (s *Service) AuthorByID(ctx context.Context, id string) (*Author, error) {
	author, err := s.repo.GetAuthor(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return author, err
}

func (s *Service) Reviews(ctx context.Context, q ReviewQuery) ([]Review, error) {
	return s.repo.ListReviews(ctx, q)
}

func (s *Service) BooksByAuthor(ctx context.Context, authorID string) ([]Book, error) {
	return s.repo.ListBooks(ctx, BookQuery{Where: &BookFilter{AuthorID: &query.StringFilter{Eq: &authorID}}})
}

func (s *Service) ReviewsForBook(ctx context.Context, bookID string) ([]Review, error) {
	return s.repo.ListReviews(ctx, ReviewQuery{Where: &ReviewFilter{BookID: &query.StringFilter{Eq: &bookID}}})
}

func (s *Service) BookCount(ctx context.Context, authorID string) (int, error) {
	return s.repo.CountBooksByAuthor(ctx, authorID)
}

func (s *Service) ReviewCount(ctx context.Context, bookID string) (int, error) {
	count, _, err := s.repo.ReviewStats(ctx, bookID)
	return count, err
}

// AverageRating is nil for books without reviews.
func (s *Service) AverageRating(ctx context.Context, bookID string) (*float64, error) {
	_, mean, err := s.repo.ReviewStats(ctx, bookID)
	return mean, err
}

// ConcurrentData loads books, authors and reviews in parallel.
func (s *Service) ConcurrentData(ctx context.Context) (*ConcurrentData, error) {
	var out ConcurrentData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.Books, err = s.repo.ListBooks(gctx, BookQuery{})
		return err
	})
	g.Go(func() error {
		var err error
		out.Authors, err = s.repo.ListAuthors(gctx, AuthorQuery{})
		return err
	})
	g.Go(func() error {
		var err error
		out.Reviews, err = s.repo.ListReviews(gctx, ReviewQuery{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load concurrent data: %w", err)
	}
	return &out, nil
}

// BookWithError fails with SimulatedError when simulate is set.
func (s *Service) BookWithError(simulate bool) (*Book, error) {
	if simulate {
		return nil, SimulatedError{}
	}
	book := MockBook
	return &book, nil
}

func (s *Service) CreateBook(ctx context.Context, input CreateBookInput) (*Book, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetAuthor(ctx, input.AuthorID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAuthorNotFound
		}
		return nil, fmt.Errorf("lookup author: %w", err)
	}

	status := StatusDraft
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, validationError("status", "unknown book status")
		}
		status = *input.Status
	}

	now := s.now()
	book := Book{
		ID:            ids.New(),
		Title:         input.Title,
		Description:   input.Description,
		ISBN:          input.ISBN,
		PublishedYear: input.PublishedYear,
		Status:        status,
		AuthorID:      input.AuthorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.logger.Info().Str("book_id", book.ID).Str("author_id", book.AuthorID).Msg("book created")
	s.events.Publish(TopicBookCreated, Event{Book: &book})
	return &book, nil
}

// UpdateBook applies the non-nil fields of input. The author is only checked
// when it changes.
func (s *Service) UpdateBook(ctx context.Context, input UpdateBookInput) (*Book, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	book, err := s.repo.GetBook(ctx, input.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("lookup book: %w", err)
	}

	if input.Title != nil {
		book.Title = *input.Title
	}
	if input.Description != nil {
		book.Description = input.Description
	}
	if input.ISBN != nil {
		book.ISBN = input.ISBN
	}
	if input.PublishedYear != nil {
		book.PublishedYear = *input.PublishedYear
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, validationError("status", "unknown book status")
		}
		book.Status = *input.Status
	}
	if input.AuthorID != nil && *input.AuthorID != book.AuthorID {
		if _, err := s.repo.GetAuthor(ctx, *input.AuthorID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrAuthorNotFound
			}
			return nil, fmt.Errorf("lookup author: %w", err)
		}
		book.AuthorID = *input.AuthorID
	}
	book.UpdatedAt = s.now()

	if err := s.repo.UpdateBook(ctx, *book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}

	s.logger.Info().Str("book_id", book.ID).Msg("book updated")
	s.events.Publish(TopicBookUpdated, Event{Book: book})
	return book, nil
}

// DeleteBook removes the book together with its reviews.
func (s *Service) DeleteBook(ctx context.Context, id string) error {
	if err := s.repo.DeleteBook(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrBookNotFound
		}
		return fmt.Errorf("delete book: %w", err)
	}

	s.logger.Info().Str("book_id", id).Msg("book deleted")
	s.events.Publish(TopicBookDeleted, Event{BookID: id})
	return nil
}

func (s *Service) CreateAuthor(ctx context.Context, input CreateAuthorInput) (*Author, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	now := s.now()
	author := Author{
		ID:        ids.New(),
		Name:      input.Name,
		Biography: input.Biography,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateAuthor(ctx, author); err != nil {
		return nil, fmt.Errorf("create author: %w", err)
	}
	s.logger.Info().Str("author_id", author.ID).Msg("author created")
	return &author, nil
}

// CreateReview checks the book before the rating, so an unknown book wins
// over an out-of-range rating.
func (s *Service) CreateReview(ctx context.Context, input CreateReviewInput) (*Review, error) {
	if _, err := s.repo.GetBook(ctx, input.BookID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("lookup book: %w", err)
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if err := s.validate(input); err != nil {
		return nil, err
	}

	now := s.now()
	review := Review{
		ID:           ids.New(),
		Title:        input.Title,
		Content:      input.Content,
		Rating:       input.Rating,
		ReviewerName: input.ReviewerName,
		BookID:       input.BookID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.logger.Info().Str("review_id", review.ID).Str("book_id", review.BookID).Int("rating", review.Rating).Msg("review added")
	s.events.Publish(TopicReviewAdded, Event{Review: &review})
	return &review, nil
}

func (s *Service) validate(v any) error {
	err := s.validator.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return validationError(lowerFirst(fe.Field()), fmt.Sprintf("failed %s validation", fe.Tag()))
	}
	return &UserError{Message: err.Error(), Code: CodeValidation}
}

func validationError(field, msg string) *UserError {
	return &UserError{Message: fmt.Sprintf("%s: %s", field, msg), Code: CodeValidation}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func strPtr(s string) *string { return &s }
