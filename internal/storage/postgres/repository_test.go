package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leviettung200/ByteDefence/internal/domain/books"
	"github.com/leviettung200/ByteDefence/internal/domain/orders"
	"github.com/leviettung200/ByteDefence/internal/domain/query"
)

func TestSeedIfEmptyIsIdempotent(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, store.SeedIfEmpty(ctx, now))
	require.NoError(t, store.SeedIfEmpty(ctx, now))

	list, err := store.Books().ListBooks(ctx, books.BookQuery{})
	require.NoError(t, err)
	assert.Len(t, list, 4)

	all, err := store.Orders().ListOrders(ctx, orders.OrderQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBookRepositoryFilterAndSort(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.SeedIfEmpty(ctx, time.Now().UTC()))

	list, err := store.Books().ListBooks(ctx, books.BookQuery{
		Where: &books.BookFilter{AuthorID: &query.StringFilter{Eq: ptr("author-1")}},
		Order: []query.Sort{{Field: "publishedYear", Direction: query.Asc}},
	})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Animal Farm", list[0].Title)
	assert.Equal(t, "1984", list[1].Title)

	list, err = store.Books().ListBooks(ctx, books.BookQuery{
		Where: &books.BookFilter{Title: &query.StringFilter{Contains: ptr("Pride")}},
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "book-3", list[0].ID)
}

func TestBookRepositoryCRUD(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	repo := store.Books()
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, repo.CreateAuthor(ctx, books.Author{ID: "a1", Name: "Ursula K. Le Guin", CreatedAt: now, UpdatedAt: now}))

	err := repo.CreateBook(ctx, books.Book{ID: "b0", Title: "Orphan", AuthorID: "missing", Status: books.StatusDraft, CreatedAt: now, UpdatedAt: now})
	assert.ErrorIs(t, err, books.ErrNotFound)

	book := books.Book{ID: "b1", Title: "The Dispossessed", PublishedYear: 1974, Status: books.StatusDraft, AuthorID: "a1", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.CreateBook(ctx, book))

	book.Status = books.StatusPublished
	book.ISBN = ptr("978-0061054884")
	require.NoError(t, repo.UpdateBook(ctx, book))

	got, err := repo.GetBook(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, books.StatusPublished, got.Status)
	assert.Equal(t, "978-0061054884", *got.ISBN)
	assert.Nil(t, got.Description)

	require.NoError(t, repo.CreateReview(ctx, books.Review{ID: "r1", Title: "Great", Rating: 5, ReviewerName: "A", BookID: "b1", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, repo.CreateReview(ctx, books.Review{ID: "r2", Title: "Good", Rating: 4, ReviewerName: "B", BookID: "b1", CreatedAt: now, UpdatedAt: now}))

	count, mean, err := repo.ReviewStats(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.NotNil(t, mean)
	assert.InDelta(t, 4.5, *mean, 0.0001)

	n, err := repo.CountBooksByAuthor(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.DeleteBook(ctx, "b1"))
	assert.ErrorIs(t, repo.DeleteBook(ctx, "b1"), books.ErrNotFound)

	reviews, err := repo.ListReviews(ctx, books.ReviewQuery{Where: &books.ReviewFilter{BookID: &query.StringFilter{Eq: ptr("b1")}}})
	require.NoError(t, err)
	assert.Empty(t, reviews)

	count, mean, err = repo.ReviewStats(ctx, "b1")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Nil(t, mean)
}

func TestOrderRepositoryUpdateAppliesItemChanges(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.SeedIfEmpty(ctx, time.Now().UTC()))
	repo := store.Orders()

	order, err := repo.GetOrder(ctx, "order-1")
	require.NoError(t, err)
	require.NotNil(t, order.CreatedBy)
	assert.Equal(t, "admin", order.CreatedBy.Username)
	assert.Equal(t, 5400.0, order.Total())

	order.Status = orders.StatusApproved
	order.UpdatedAt = time.Now().UTC()
	changes := orders.ItemChanges{
		Updated: []orders.OrderItem{{ID: "item-1", OrderID: "order-1", Name: "Firewall appliance", Quantity: 3, Price: 1200}},
		Removed: []string{"item-2"},
		Added:   []orders.OrderItem{{ID: "item-9", OrderID: "order-1", Name: "Cabling", Quantity: 10, Price: 12.5}},
	}
	require.NoError(t, repo.UpdateOrder(ctx, *order, changes))

	order, err = repo.GetOrder(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusApproved, order.Status)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "item-1", order.Items[0].ID)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, "item-9", order.Items[1].ID)
	assert.Equal(t, 3725.0, order.Total())

	stats, err := repo.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Approved)
	assert.Zero(t, stats.Pending)
}

func TestOrderRepositoryDefaultSortAndDelete(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.SeedIfEmpty(ctx, time.Now().UTC()))
	repo := store.Orders()

	list, err := repo.ListOrders(ctx, orders.OrderQuery{Order: orders.DefaultOrder})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "order-1", list[0].ID)

	require.NoError(t, repo.DeleteOrder(ctx, "order-1"))
	_, err = repo.GetOrder(ctx, "order-1")
	assert.ErrorIs(t, err, orders.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteOrder(ctx, "order-1"), orders.ErrNotFound)
}

func TestMigrationStatus(t *testing.T) {
	store := setupStore(t)

	version, dirty, err := store.MigrationStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	assert.False(t, dirty)
}
