package books_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leviettung200/ByteDefence/internal/domain/books"
	"github.com/leviettung200/ByteDefence/internal/domain/query"
	"github.com/leviettung200/ByteDefence/internal/pubsub"
	"github.com/leviettung200/ByteDefence/internal/storage/memory"
)

func newService(t *testing.T) (*books.Service, *pubsub.Broker[books.Event]) {
	t.Helper()
	broker := pubsub.New[books.Event]()
	return books.NewService(memory.NewSeededBookRepository(), broker, zerolog.Nop()), broker
}

func ptr[T any](v T) *T { return &v }

func TestBooksFilterAndOrder(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	list, err := svc.Books(ctx, books.BookQuery{
		Where: &books.BookFilter{PublishedYear: &query.IntFilter{Gte: ptr(1900)}},
		Order: []query.Sort{{Field: "publishedYear", Direction: query.Desc}},
	})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Foundation", list[0].Title)
	assert.Equal(t, "1984", list[1].Title)
	assert.Equal(t, "Animal Farm", list[2].Title)
}

func TestBookByIDUnknownReturnsNil(t *testing.T) {
	svc, _ := newService(t)

	book, err := svc.BookByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, book)
}

func TestAuthorFieldResolvers(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	count, err := svc.BookCount(ctx, "author-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	byAuthor, err := svc.BooksByAuthor(ctx, "author-1")
	require.NoError(t, err)
	assert.Len(t, byAuthor, 2)

	mean, err := svc.AverageRating(ctx, "book-1")
	require.NoError(t, err)
	require.NotNil(t, mean)
	assert.InDelta(t, 4.5, *mean, 0.0001)

	reviews, err := svc.ReviewCount(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, 2, reviews)
}

func TestCreateBookPublishesEvent(t *testing.T) {
	svc, broker := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := broker.Subscribe(ctx, books.TopicBookCreated)

	book, err := svc.CreateBook(ctx, books.CreateBookInput{
		Title:         "I, Robot",
		PublishedYear: 1950,
		AuthorID:      "author-3",
	})
	require.NoError(t, err)
	assert.Equal(t, books.StatusDraft, book.Status)
	assert.NotEmpty(t, book.ID)

	select {
	case ev := <-ch:
		require.NotNil(t, ev.Book)
		assert.Equal(t, book.ID, ev.Book.ID)
	case <-time.After(time.Second):
		t.Fatal("expected onBookCreated event")
	}
}

func TestCreateBookUnknownAuthor(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.CreateBook(context.Background(), books.CreateBookInput{Title: "X", AuthorID: "ghost"})
	ue, ok := books.AsUserError(err)
	require.True(t, ok)
	assert.Equal(t, "AUTHOR_NOT_FOUND", ue.Code)
	assert.Equal(t, "Author not found", ue.Message)
}

func TestCreateBookValidation(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.CreateBook(context.Background(), books.CreateBookInput{Title: "", AuthorID: "author-1"})
	ue, ok := books.AsUserError(err)
	require.True(t, ok)
	assert.Equal(t, books.CodeValidation, ue.Code)
	assert.Contains(t, ue.Message, "title")
}

func TestUpdateBookPartial(t *testing.T) {
	svc, broker := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := broker.Subscribe(ctx, books.TopicBookUpdated)

	updated, err := svc.UpdateBook(ctx, books.UpdateBookInput{ID: "book-2", Status: ptr(books.StatusOutOfPrint)})
	require.NoError(t, err)
	assert.Equal(t, "Animal Farm", updated.Title)
	assert.Equal(t, books.StatusOutOfPrint, updated.Status)
	assert.True(t, !updated.UpdatedAt.Before(updated.CreatedAt))

	select {
	case ev := <-ch:
		assert.Equal(t, "book-2", ev.Book.ID)
	case <-time.After(time.Second):
		t.Fatal("expected onBookUpdated event")
	}

	_, err = svc.UpdateBook(ctx, books.UpdateBookInput{ID: "book-2", AuthorID: ptr("ghost")})
	assert.ErrorIs(t, err, books.ErrAuthorNotFound)

	_, err = svc.UpdateBook(ctx, books.UpdateBookInput{ID: "missing"})
	assert.ErrorIs(t, err, books.ErrBookNotFound)
}

func TestDeleteBookCascadesReviews(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.DeleteBook(ctx, "book-1"))

	reviews, err := svc.ReviewsForBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Empty(t, reviews)

	assert.ErrorIs(t, svc.DeleteBook(ctx, "book-1"), books.ErrBookNotFound)
}

func TestCreateReviewChecksBookBeforeRating(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateReview(ctx, books.CreateReviewInput{BookID: "ghost", Title: "t", Rating: 9, ReviewerName: "r"})
	assert.ErrorIs(t, err, books.ErrBookNotFound)

	_, err = svc.CreateReview(ctx, books.CreateReviewInput{BookID: "book-4", Title: "t", Rating: 0, ReviewerName: "r"})
	assert.ErrorIs(t, err, books.ErrInvalidRating)

	review, err := svc.CreateReview(ctx, books.CreateReviewInput{BookID: "book-4", Title: "Solid", Rating: 3, ReviewerName: "r"})
	require.NoError(t, err)
	assert.Equal(t, 3, review.Rating)

	mean, err := svc.AverageRating(ctx, "book-4")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, *mean, 0.0001)
}

func TestCreateReviewRatingRange(t *testing.T) {
	tests := []struct {
		rating  int
		wantErr bool
	}{
		{rating: 0, wantErr: true},
		{rating: 1},
		{rating: 5},
		{rating: 6, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("rating %d", tt.rating), func(t *testing.T) {
			svc, _ := newService(t)
			review, err := svc.CreateReview(context.Background(), books.CreateReviewInput{
				BookID: "book-4", Title: "Range", Rating: tt.rating, ReviewerName: "r",
			})
			if tt.wantErr {
				assert.ErrorIs(t, err, books.ErrInvalidRating)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.rating, review.Rating)
		})
	}
}

func TestCreateAuthorAndConcurrentData(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	author, err := svc.CreateAuthor(ctx, books.CreateAuthorInput{Name: "Octavia Butler"})
	require.NoError(t, err)
	assert.Nil(t, author.Biography)

	data, err := svc.ConcurrentData(ctx)
	require.NoError(t, err)
	assert.Len(t, data.Authors, 4)
	assert.Len(t, data.Books, 4)
	assert.Len(t, data.Reviews, 5)
}

func TestBookWithError(t *testing.T) {
	svc, _ := newService(t)

	book, err := svc.BookWithError(false)
	require.NoError(t, err)
	assert.Equal(t, "mock-book", book.ID)

	_, err = svc.BookWithError(true)
	require.Error(t, err)
	assert.Equal(t, "Simulated error for testing purposes", err.Error())
}
