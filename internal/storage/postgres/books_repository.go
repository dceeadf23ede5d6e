package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leviettung200/ByteDefence/internal/domain/books"
	"github.com/leviettung200/ByteDefence/internal/metrics"
)

var _ books.Repository = (*BookRepository)(nil)

const bookStatusRank = "array_position(ARRAY['DRAFT','PUBLISHED','OUT_OF_PRINT','ARCHIVED']::text[], status)"

var (
	bookColumns   = []string{"id", "title", "description", "isbn", "published_year", "status", "author_id", "created_at", "updated_at"}
	authorColumns = []string{"id", "name", "biography", "created_at", "updated_at"}
	reviewColumns = []string{"id", "title", "content", "rating", "reviewer_name", "book_id", "created_at", "updated_at"}

	bookSortColumns = map[string]string{
		"id":            "id",
		"title":         "title",
		"description":   "description",
		"isbn":          "isbn",
		"publishedYear": "published_year",
		"status":        bookStatusRank,
		"authorId":      "author_id",
		"createdAt":     "created_at",
		"updatedAt":     "updated_at",
	}
	authorSortColumns = map[string]string{
		"id":        "id",
		"name":      "name",
		"biography": "biography",
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	}
	reviewSortColumns = map[string]string{
		"id":           "id",
		"title":        "title",
		"content":      "content",
		"rating":       "rating",
		"reviewerName": "reviewer_name",
		"bookId":       "book_id",
		"createdAt":    "created_at",
		"updatedAt":    "updated_at",
	}
)

type BookRepository struct {
	pool *pgxpool.Pool
}

func (r *BookRepository) queryer() queryer {
	return r.pool
}

func (r *BookRepository) ListBooks(ctx context.Context, q books.BookQuery) (out []books.Book, err error) {
	defer func(start time.Time) { metrics.RecordQuery("list_books", start, err) }(time.Now())

	stmt := psql.Select(bookColumns...).From("books").
		OrderBy(orderClauses(q.Order, bookSortColumns, "seq ASC")...)
	if where := bookWhere(q.Where); where != nil {
		stmt = stmt.Where(where)
	}
	sqlStr, args, err := stmt.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list books: %w", err)
	}

	rows, err := r.queryer().Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return out, nil
}

func (r *BookRepository) GetBook(ctx context.Context, id string) (*books.Book, error) {
	row := r.queryer().QueryRow(ctx,
		`SELECT `+strings.Join(bookColumns, ", ")+` FROM books WHERE id = $1`, id)
	b, err := scanBook(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, books.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &b, nil
}

func (r *BookRepository) CreateBook(ctx context.Context, b books.Book) error {
	_, err := r.queryer().Exec(ctx, `
INSERT INTO books (id, title, description, isbn, published_year, status, author_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.Title, b.Description, b.ISBN, b.PublishedYear, string(b.Status), b.AuthorID, b.CreatedAt, b.UpdatedAt)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("author %s: %w", b.AuthorID, books.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

func (r *BookRepository) UpdateBook(ctx context.Context, b books.Book) error {
	tag, err := r.queryer().Exec(ctx, `
UPDATE books
   SET title = $2, description = $3, isbn = $4, published_year = $5,
       status = $6, author_id = $7, updated_at = $8
 WHERE id = $1`,
		b.ID, b.Title, b.Description, b.ISBN, b.PublishedYear, string(b.Status), b.AuthorID, b.UpdatedAt)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("author %s: %w", b.AuthorID, books.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return books.ErrNotFound
	}
	return nil
}

// DeleteBook relies on ON DELETE CASCADE for reviews.
func (r *BookRepository) DeleteBook(ctx context.Context, id string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return books.ErrNotFound
	}
	return nil
}

func (r *BookRepository) CountBooksByAuthor(ctx context.Context, authorID string) (int, error) {
	var n int
	if err := r.queryer().QueryRow(ctx, `SELECT count(*) FROM books WHERE author_id = $1`, authorID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

func (r *BookRepository) ListAuthors(ctx context.Context, q books.AuthorQuery) (out []books.Author, err error) {
	defer func(start time.Time) { metrics.RecordQuery("list_authors", start, err) }(time.Now())

	stmt := psql.Select(authorColumns...).From("authors").
		OrderBy(orderClauses(q.Order, authorSortColumns, "seq ASC")...)
	if where := authorWhere(q.Where); where != nil {
		stmt = stmt.Where(where)
	}
	sqlStr, args, err := stmt.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list authors: %w", err)
	}

	rows, err := r.queryer().Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate authors: %w", err)
	}
	return out, nil
}

func (r *BookRepository) GetAuthor(ctx context.Context, id string) (*books.Author, error) {
	row := r.queryer().QueryRow(ctx,
		`SELECT `+strings.Join(authorColumns, ", ")+` FROM authors WHERE id = $1`, id)
	a, err := scanAuthor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, books.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get author: %w", err)
	}
	return &a, nil
}

func (r *BookRepository) CreateAuthor(ctx context.Context, a books.Author) error {
	_, err := r.queryer().Exec(ctx, `
INSERT INTO authors (id, name, biography, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Name, a.Biography, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create author: %w", err)
	}
	return nil
}

func (r *BookRepository) ListReviews(ctx context.Context, q books.ReviewQuery) (out []books.Review, err error) {
	defer func(start time.Time) { metrics.RecordQuery("list_reviews", start, err) }(time.Now())

	stmt := psql.Select(reviewColumns...).From("reviews").
		OrderBy(orderClauses(q.Order, reviewSortColumns, "seq ASC")...)
	if where := reviewWhere(q.Where); where != nil {
		stmt = stmt.Where(where)
	}
	sqlStr, args, err := stmt.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list reviews: %w", err)
	}

	rows, err := r.queryer().Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return out, nil
}

func (r *BookRepository) CreateReview(ctx context.Context, rv books.Review) error {
	_, err := r.queryer().Exec(ctx, `
INSERT INTO reviews (id, title, content, rating, reviewer_name, book_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rv.ID, rv.Title, rv.Content, rv.Rating, rv.ReviewerName, rv.BookID, rv.CreatedAt, rv.UpdatedAt)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("book %s: %w", rv.BookID, books.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (r *BookRepository) ReviewStats(ctx context.Context, bookID string) (int, *float64, error) {
	var (
		count int
		mean  *float64
	)
	err := r.queryer().QueryRow(ctx,
		`SELECT count(*), avg(rating)::float8 FROM reviews WHERE book_id = $1`, bookID).Scan(&count, &mean)
	if err != nil {
		return 0, nil, fmt.Errorf("review stats: %w", err)
	}
	return count, mean, nil
}

func bookWhere(f *books.BookFilter) sq.Sqlizer {
	if f == nil {
		return nil
	}
	var fields sq.And
	fields = append(fields, stringConds("id", f.ID)...)
	fields = append(fields, stringConds("title", f.Title)...)
	fields = append(fields, stringConds("description", f.Description)...)
	fields = append(fields, stringConds("isbn", f.ISBN)...)
	fields = append(fields, numberConds("published_year", f.PublishedYear)...)
	fields = append(fields, enumConds("status", f.Status)...)
	fields = append(fields, stringConds("author_id", f.AuthorID)...)
	fields = append(fields, timeConds("created_at", f.CreatedAt)...)
	fields = append(fields, timeConds("updated_at", f.UpdatedAt)...)
	return group(fields, nested(f.And, bookWhere), nested(f.Or, bookWhere))
}

func authorWhere(f *books.AuthorFilter) sq.Sqlizer {
	if f == nil {
		return nil
	}
	var fields sq.And
	fields = append(fields, stringConds("id", f.ID)...)
	fields = append(fields, stringConds("name", f.Name)...)
	fields = append(fields, stringConds("biography", f.Biography)...)
	fields = append(fields, timeConds("created_at", f.CreatedAt)...)
	fields = append(fields, timeConds("updated_at", f.UpdatedAt)...)
	return group(fields, nested(f.And, authorWhere), nested(f.Or, authorWhere))
}

func reviewWhere(f *books.ReviewFilter) sq.Sqlizer {
	if f == nil {
		return nil
	}
	var fields sq.And
	fields = append(fields, stringConds("id", f.ID)...)
	fields = append(fields, stringConds("title", f.Title)...)
	fields = append(fields, stringConds("content", f.Content)...)
	fields = append(fields, numberConds("rating", f.Rating)...)
	fields = append(fields, stringConds("reviewer_name", f.ReviewerName)...)
	fields = append(fields, stringConds("book_id", f.BookID)...)
	fields = append(fields, timeConds("created_at", f.CreatedAt)...)
	fields = append(fields, timeConds("updated_at", f.UpdatedAt)...)
	return group(fields, nested(f.And, reviewWhere), nested(f.Or, reviewWhere))
}

// nested translates each sub-filter; an empty sub-filter becomes TRUE.
func nested[F any](filters []F, where func(*F) sq.Sqlizer) []sq.Sqlizer {
	out := make([]sq.Sqlizer, 0, len(filters))
	for i := range filters {
		cond := where(&filters[i])
		if cond == nil {
			cond = sq.Expr("TRUE")
		}
		out = append(out, cond)
	}
	return out
}

func scanBook(row pgx.Row) (books.Book, error) {
	var (
		b      books.Book
		status string
	)
	err := row.Scan(&b.ID, &b.Title, &b.Description, &b.ISBN, &b.PublishedYear, &status, &b.AuthorID, &b.CreatedAt, &b.UpdatedAt)
	b.Status = books.Status(status)
	return b, err
}

func scanAuthor(row pgx.Row) (books.Author, error) {
	var a books.Author
	err := row.Scan(&a.ID, &a.Name, &a.Biography, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func scanReview(row pgx.Row) (books.Review, error) {
	var rv books.Review
	err := row.Scan(&rv.ID, &rv.Title, &rv.Content, &rv.Rating, &rv.ReviewerName, &rv.BookID, &rv.CreatedAt, &rv.UpdatedAt)
	return rv, err
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
