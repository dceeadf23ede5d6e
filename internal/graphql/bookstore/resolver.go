// Package bookstore is the BookStore GraphQL schema and its resolvers.
package bookstore

import (
	"context"
	_ "embed"
	"errors"

	graphql "github.com/graph-gophers/graphql-go"
	gqlotel "github.com/graph-gophers/graphql-go/trace/otel"

	"github.com/leviettung200/ByteDefence/internal/domain/books"
	"github.com/leviettung200/ByteDefence/internal/graphql/gqlutil"
)

//go:embed schema.graphql
var schemaSDL string

// SDL returns the schema document.
func SDL() string {
	return schemaSDL
}

const maxDepth = 12

// Resolver is the root for queries, mutations and subscriptions.
type Resolver struct {
	svc *books.Service
}

// NewSchema parses the schema against svc.
func NewSchema(svc *books.Service, opts ...graphql.SchemaOpt) (*graphql.Schema, error) {
	base := []graphql.SchemaOpt{
		graphql.MaxDepth(maxDepth),
		graphql.Tracer(gqlotel.DefaultTracer()),
	}
	return graphql.ParseSchema(schemaSDL, &Resolver{svc: svc}, append(base, opts...)...)
}

func (r *Resolver) Books(ctx context.Context, args struct {
	Where *BookFilterInput
	Order *[]BookSortInput
}) ([]*bookResolver, error) {
	list, err := r.svc.Books(ctx, books.BookQuery{
		Where: args.Where.filter(),
		Order: gqlutil.Sorts(args.Order, (*BookSortInput).sorts),
	})
	if err != nil {
		return nil, err
	}
	return r.bookList(list), nil
}

func (r *Resolver) BookByID(ctx context.Context, args struct{ ID string }) (*bookResolver, error) {
	book, err := r.svc.BookByID(ctx, args.ID)
	if err != nil || book == nil {
		return nil, err
	}
	return &bookResolver{r: r, b: *book}, nil
}

func (r *Resolver) Authors(ctx context.Context, args struct {
	Where *AuthorFilterInput
	Order *[]AuthorSortInput
}) ([]*authorResolver, error) {
	list, err := r.svc.Authors(ctx, books.AuthorQuery{
		Where: args.Where.filter(),
		Order: gqlutil.Sorts(args.Order, (*AuthorSortInput).sorts),
	})
	if err != nil {
		return nil, err
	}
	return r.authorList(list), nil
}

func (r *Resolver) AuthorByID(ctx context.Context, args struct{ ID string }) (*authorResolver, error) {
	author, err := r.svc.AuthorByID(ctx, args.ID)
	if err != nil || author == nil {
		return nil, err
	}
	return &authorResolver{r: r, a: *author}, nil
}

func (r *Resolver) Reviews(ctx context.Context, args struct {
	Where *ReviewFilterInput
	Order *[]ReviewSortInput
}) ([]*reviewResolver, error) {
	list, err := r.svc.Reviews(ctx, books.ReviewQuery{
		Where: args.Where.filter(),
		Order: gqlutil.Sorts(args.Order, (*ReviewSortInput).sorts),
	})
	if err != nil {
		return nil, err
	}
	return r.reviewList(list), nil
}

func (r *Resolver) ConcurrentData(ctx context.Context) (*concurrentResolver, error) {
	data, err := r.svc.ConcurrentData(ctx)
	if err != nil {
		return nil, err
	}
	return &concurrentResolver{r: r, d: *data}, nil
}

func (r *Resolver) BookWithError(args struct{ SimulateError bool }) (*bookResolver, error) {
	book, err := r.svc.BookWithError(args.SimulateError)
	if err != nil {
		var sim books.SimulatedError
		if errors.As(err, &sim) {
			return nil, gqlutil.NewError(sim.Code(), sim.Error())
		}
		return nil, err
	}
	return &bookResolver{r: r, b: *book}, nil
}

func (r *Resolver) bookList(list []books.Book) []*bookResolver {
	out := make([]*bookResolver, len(list))
	for i := range list {
		out[i] = &bookResolver{r: r, b: list[i]}
	}
	return out
}

func (r *Resolver) authorList(list []books.Author) []*authorResolver {
	out := make([]*authorResolver, len(list))
	for i := range list {
		out[i] = &authorResolver{r: r, a: list[i]}
	}
	return out
}

func (r *Resolver) reviewList(list []books.Review) []*reviewResolver {
	out := make([]*reviewResolver, len(list))
	for i := range list {
		out[i] = &reviewResolver{r: r, v: list[i]}
	}
	return out
}
