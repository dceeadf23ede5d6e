package bookstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leviettung200/ByteDefence/internal/auth"
	"github.com/leviettung200/ByteDefence/internal/domain/books"
	"github.com/leviettung200/ByteDefence/internal/pubsub"
	"github.com/leviettung200/ByteDefence/internal/storage/memory"
)

func newTestSchema(t *testing.T) (*graphql.Schema, *books.Service) {
	t.Helper()
	svc := books.NewService(memory.NewSeededBookRepository(), pubsub.New[books.Event](), zerolog.Nop())
	schema, err := NewSchema(svc)
	require.NoError(t, err)
	return schema, svc
}

func authed() context.Context {
	p := auth.DemoPrincipal
	return auth.WithPrincipal(context.Background(), &p)
}

func exec(t *testing.T, ctx context.Context, schema *graphql.Schema, query string, vars map[string]any) (map[string]any, []map[string]any) {
	t.Helper()
	resp := schema.Exec(ctx, query, "", vars)
	var data map[string]any
	if len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, &data))
	}
	raw, err := json.Marshal(resp.Errors)
	require.NoError(t, err)
	var errs []map[string]any
	require.NoError(t, json.Unmarshal(raw, &errs))
	return data, errs
}

func code(e map[string]any) any {
	ext, _ := e["extensions"].(map[string]any)
	return ext["code"]
}

func TestBooksWhereAndOrder(t *testing.T) {
	schema, _ := newTestSchema(t)

	data, errs := exec(t, context.Background(), schema, `{
		books(where: {publishedYear: {gte: 1900}}, order: [{publishedYear: DESC}]) {
			title
			averageRating
			reviewCount
			author { name }
		}
	}`, nil)
	require.Empty(t, errs)

	list := data["books"].([]any)
	require.Len(t, list, 3)
	first := list[0].(map[string]any)
	assert.Equal(t, "Foundation", first["title"])
	assert.Equal(t, 5.0, first["averageRating"])
	assert.Equal(t, 1.0, first["reviewCount"])
	assert.Equal(t, "Isaac Asimov", first["author"].(map[string]any)["name"])
	assert.Equal(t, "1984", list[1].(map[string]any)["title"])
}

func TestNestedOrFilter(t *testing.T) {
	schema, _ := newTestSchema(t)

	data, errs := exec(t, context.Background(), schema, `{
		books(where: {or: [{title: {startsWith: "Pride"}}, {isbn: {eq: "978-0553293357"}}]}, order: [{title: ASC}]) { id }
	}`, nil)
	require.Empty(t, errs)
	assert.Equal(t, []any{
		map[string]any{"id": "book-4"},
		map[string]any{"id": "book-3"},
	}, data["books"])
}

func TestAuthorFieldsAndLookups(t *testing.T) {
	schema, _ := newTestSchema(t)

	data, errs := exec(t, context.Background(), schema, `{
		authorById(id: "author-1") { name bookCount books { title } }
		bookById(id: "missing") { id }
		reviews(where: {rating: {lt: 5}}) { title book { title } }
	}`, nil)
	require.Empty(t, errs)

	author := data["authorById"].(map[string]any)
	assert.Equal(t, "George Orwell", author["name"])
	assert.Equal(t, 2.0, author["bookCount"])
	assert.Len(t, author["books"], 2)
	assert.Nil(t, data["bookById"])
	reviews := data["reviews"].([]any)
	require.Len(t, reviews, 1)
	assert.Equal(t, "1984", reviews[0].(map[string]any)["book"].(map[string]any)["title"])
}

func TestConcurrentDataAndBookWithError(t *testing.T) {
	schema, _ := newTestSchema(t)

	data, errs := exec(t, context.Background(), schema, `{
		concurrentData { books { id } authors { id } reviews { id } }
		bookWithError(simulateError: false) { id title description status }
	}`, nil)
	require.Empty(t, errs)
	cd := data["concurrentData"].(map[string]any)
	assert.Len(t, cd["books"], 4)
	assert.Len(t, cd["authors"], 3)
	assert.Len(t, cd["reviews"], 5)
	assert.Equal(t, map[string]any{
		"id": "mock-book", "title": "Mock Book", "description": "This is a mock book for testing", "status": "DRAFT",
	}, data["bookWithError"])

	_, errs = exec(t, context.Background(), schema, `{ bookWithError(simulateError: true) { id } }`, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "Simulated error for testing purposes", errs[0]["message"])
	assert.Equal(t, "SIMULATED_ERROR", code(errs[0]))
}

func TestMutationsRequireAuthentication(t *testing.T) {
	schema, _ := newTestSchema(t)

	data, errs := exec(t, context.Background(), schema, `mutation {
		createAuthor(input: {name: "Ursula K. Le Guin"}) { author { id } }
	}`, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "The current user is not authorized to access this resource.", errs[0]["message"])
	assert.Equal(t, "AUTH_NOT_AUTHORIZED", code(errs[0]))
	assert.Nil(t, data)
}

func TestCreateBookPayloads(t *testing.T) {
	schema, _ := newTestSchema(t)
	const mutation = `mutation($input: CreateBookInput!) {
		createBook(input: $input) { book { id title status author { name } } errors { message code } }
	}`

	data, errs := exec(t, authed(), schema, mutation, map[string]any{
		"input": map[string]any{"title": "Emma", "publishedYear": 1815, "authorId": "author-2"},
	})
	require.Empty(t, errs)
	payload := data["createBook"].(map[string]any)
	book := payload["book"].(map[string]any)
	assert.Equal(t, "Emma", book["title"])
	assert.Equal(t, "DRAFT", book["status"])
	assert.Equal(t, "Jane Austen", book["author"].(map[string]any)["name"])
	assert.Empty(t, payload["errors"])

	data, errs = exec(t, authed(), schema, mutation, map[string]any{
		"input": map[string]any{"title": "Ghost", "publishedYear": 2000, "authorId": "author-404"},
	})
	require.Empty(t, errs)
	payload = data["createBook"].(map[string]any)
	assert.Nil(t, payload["book"])
	assert.Equal(t, []any{map[string]any{"message": "Author not found", "code": "AUTHOR_NOT_FOUND"}}, payload["errors"])
}

func TestUpdateDeleteAndReview(t *testing.T) {
	schema, _ := newTestSchema(t)
	ctx := authed()

	data, errs := exec(t, ctx, schema, `mutation {
		updateBook(input: {id: "book-2", status: OUT_OF_PRINT, publishedYear: 1946}) { book { status publishedYear title } errors { code } }
	}`, nil)
	require.Empty(t, errs)
	book := data["updateBook"].(map[string]any)["book"].(map[string]any)
	assert.Equal(t, "OUT_OF_PRINT", book["status"])
	assert.Equal(t, 1946.0, book["publishedYear"])
	assert.Equal(t, "Animal Farm", book["title"])

	data, errs = exec(t, ctx, schema, `mutation {
		createReview(input: {bookId: "book-404", title: "x", rating: 9, reviewerName: "r"}) { review { id } errors { code } }
	}`, nil)
	require.Empty(t, errs)
	assert.Equal(t, []any{map[string]any{"code": "BOOK_NOT_FOUND"}}, data["createReview"].(map[string]any)["errors"])

	data, errs = exec(t, ctx, schema, `mutation {
		createReview(input: {bookId: "book-3", title: "x", rating: 0, reviewerName: "r"}) { review { id } errors { message code } }
	}`, nil)
	require.Empty(t, errs)
	assert.Equal(t, []any{map[string]any{"message": "Rating must be between 1 and 5", "code": "INVALID_RATING"}},
		data["createReview"].(map[string]any)["errors"])

	data, errs = exec(t, ctx, schema, `mutation { deleteBook(id: "book-1") { success errors { code } } }`, nil)
	require.Empty(t, errs)
	assert.Equal(t, map[string]any{"success": true, "errors": []any{}}, data["deleteBook"])

	data, errs = exec(t, ctx, schema, `mutation { deleteBook(id: "book-1") { success errors { code } } }`, nil)
	require.Empty(t, errs)
	assert.Equal(t, map[string]any{"success": false, "errors": []any{map[string]any{"code": "BOOK_NOT_FOUND"}}}, data["deleteBook"])

	data, errs = exec(t, context.Background(), schema, `{ reviews(where: {bookId: {eq: "book-1"}}) { id } }`, nil)
	require.Empty(t, errs)
	assert.Empty(t, data["reviews"])
}

func TestSubscriptionReceivesCreatedBook(t *testing.T) {
	schema, svc := newTestSchema(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := schema.Subscribe(ctx, `subscription { onBookCreated { title authorId } }`, "", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return svc.Events().Subscribers(books.TopicBookCreated) == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, err = svc.CreateBook(context.Background(), books.CreateBookInput{Title: "I, Robot", PublishedYear: 1950, AuthorID: "author-3"})
	require.NoError(t, err)

	select {
	case msg := <-events:
		resp, ok := msg.(*graphql.Response)
		require.True(t, ok)
		require.Empty(t, resp.Errors)
		assert.JSONEq(t, `{"onBookCreated":{"title":"I, Robot","authorId":"author-3"}}`, string(resp.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscription event")
	}
}
