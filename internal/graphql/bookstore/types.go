package bookstore

import (
	"context"

	"github.com/leviettung200/ByteDefence/internal/domain/books"
	"github.com/leviettung200/ByteDefence/internal/graphql/gqlutil"
)

type bookResolver struct {
	r *Resolver
	b books.Book
}

func (b *bookResolver) ID() string                  { return b.b.ID }
func (b *bookResolver) Title() string               { return b.b.Title }
func (b *bookResolver) Description() *string        { return b.b.Description }
func (b *bookResolver) ISBN() *string               { return b.b.ISBN }
func (b *bookResolver) PublishedYear() int32        { return int32(b.b.PublishedYear) }
func (b *bookResolver) Status() string              { return string(b.b.Status) }
func (b *bookResolver) CreatedAt() gqlutil.DateTime { return gqlutil.NewDateTime(b.b.CreatedAt) }
func (b *bookResolver) UpdatedAt() gqlutil.DateTime { return gqlutil.NewDateTime(b.b.UpdatedAt) }
func (b *bookResolver) AuthorID() string            { return b.b.AuthorID }

func (b *bookResolver) Author(ctx context.Context) (*authorResolver, error) {
	if b.b.AuthorID == "" {
		return nil, nil
	}
	author, err := b.r.svc.AuthorByID(ctx, b.b.AuthorID)
	if err != nil || author == nil {
		return nil, err
	}
	return &authorResolver{r: b.r, a: *author}, nil
}

func (b *bookResolver) Reviews(ctx context.Context) ([]*reviewResolver, error) {
	list, err := b.r.svc.ReviewsForBook(ctx, b.b.ID)
	if err != nil {
		return nil, err
	}
	return b.r.reviewList(list), nil
}

// AverageRating is null for books without reviews.
func (b *bookResolver) AverageRating(ctx context.Context) (*float64, error) {
	return b.r.svc.AverageRating(ctx, b.b.ID)
}

func (b *bookResolver) ReviewCount(ctx context.Context) (int32, error) {
	n, err := b.r.svc.ReviewCount(ctx, b.b.ID)
	return int32(n), err
}

type authorResolver struct {
	r *Resolver
	a books.Author
}

func (a *authorResolver) ID() string                  { return a.a.ID }
func (a *authorResolver) Name() string                { return a.a.Name }
func (a *authorResolver) Biography() *string          { return a.a.Biography }
func (a *authorResolver) CreatedAt() gqlutil.DateTime { return gqlutil.NewDateTime(a.a.CreatedAt) }
func (a *authorResolver) UpdatedAt() gqlutil.DateTime { return gqlutil.NewDateTime(a.a.UpdatedAt) }

func (a *authorResolver) Books(ctx context.Context) ([]*bookResolver, error) {
	list, err := a.r.svc.BooksByAuthor(ctx, a.a.ID)
	if err != nil {
		return nil, err
	}
	return a.r.bookList(list), nil
}

func (a *authorResolver) BookCount(ctx context.Context) (int32, error) {
	n, err := a.r.svc.BookCount(ctx, a.a.ID)
	return int32(n), err
}

type reviewResolver struct {
	r *Resolver
	v books.Review
}

func (v *reviewResolver) ID() string                  { return v.v.ID }
func (v *reviewResolver) Title() string               { return v.v.Title }
func (v *reviewResolver) Content() *string            { return v.v.Content }
func (v *reviewResolver) Rating() int32               { return int32(v.v.Rating) }
func (v *reviewResolver) ReviewerName() string        { return v.v.ReviewerName }
func (v *reviewResolver) CreatedAt() gqlutil.DateTime { return gqlutil.NewDateTime(v.v.CreatedAt) }
func (v *reviewResolver) UpdatedAt() gqlutil.DateTime { return gqlutil.NewDateTime(v.v.UpdatedAt) }
func (v *reviewResolver) BookID() string              { return v.v.BookID }

func (v *reviewResolver) Book(ctx context.Context) (*bookResolver, error) {
	book, err := v.r.svc.BookByID(ctx, v.v.BookID)
	if err != nil || book == nil {
		return nil, err
	}
	return &bookResolver{r: v.r, b: *book}, nil
}

type concurrentResolver struct {
	r *Resolver
	d books.ConcurrentData
}

func (c *concurrentResolver) Books() []*bookResolver     { return c.r.bookList(c.d.Books) }
func (c *concurrentResolver) Authors() []*authorResolver { return c.r.authorList(c.d.Authors) }
func (c *concurrentResolver) Reviews() []*reviewResolver { return c.r.reviewList(c.d.Reviews) }

type userErrorResolver struct {
	e books.UserError
}

func (u *userErrorResolver) Message() string { return u.e.Message }
func (u *userErrorResolver) Code() string    { return u.e.Code }

func userErrors(errs ...*books.UserError) []*userErrorResolver {
	out := make([]*userErrorResolver, 0, len(errs))
	for _, e := range errs {
		out = append(out, &userErrorResolver{e: *e})
	}
	return out
}

type bookPayload struct {
	book   *bookResolver
	errors []*userErrorResolver
}

func (p *bookPayload) Book() *bookResolver          { return p.book }
func (p *bookPayload) Errors() []*userErrorResolver { return p.errors }

type authorPayload struct {
	author *authorResolver
	errors []*userErrorResolver
}

func (p *authorPayload) Author() *authorResolver      { return p.author }
func (p *authorPayload) Errors() []*userErrorResolver { return p.errors }

type reviewPayload struct {
	review *reviewResolver
	errors []*userErrorResolver
}

func (p *reviewPayload) Review() *reviewResolver      { return p.review }
func (p *reviewPayload) Errors() []*userErrorResolver { return p.errors }

type deletePayload struct {
	success bool
	errors  []*userErrorResolver
}

func (p *deletePayload) Success() bool                { return p.success }
func (p *deletePayload) Errors() []*userErrorResolver { return p.errors }
