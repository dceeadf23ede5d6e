package bookstore

import (
	"context"

	"github.com/leviettung200/ByteDefence/internal/auth"
	"github.com/leviettung200/ByteDefence/internal/domain/books"
	"github.com/leviettung200/ByteDefence/internal/graphql/gqlutil"
)

// ErrNotAuthorized is returned by every mutation for anonymous callers.
var ErrNotAuthorized = gqlutil.NewError(gqlutil.CodeNotAuthorized, "The current user is not authorized to access this resource.")

func requireAuthenticated(ctx context.Context) error {
	if auth.PrincipalFrom(ctx) == nil {
		return ErrNotAuthorized
	}
	return nil
}

func statusPtr(s *string) *books.Status {
	if s == nil {
		return nil
	}
	v := books.Status(*s)
	return &v
}

func (r *Resolver) CreateBook(ctx context.Context, args struct{ Input CreateBookInput }) (*bookPayload, error) {
	if err := requireAuthenticated(ctx); err != nil {
		return nil, err
	}
	in := args.Input
	book, err := r.svc.CreateBook(ctx, books.CreateBookInput{
		Title:         in.Title,
		Description:   in.Description,
		ISBN:          in.ISBN,
		PublishedYear: int(in.PublishedYear),
		AuthorID:      in.AuthorID,
		Status:        statusPtr(in.Status),
	})
	if ue, ok := books.AsUserError(err); ok {
		return &bookPayload{errors: userErrors(ue)}, nil
	}
	if err != nil {
		return nil, err
	}
	return &bookPayload{book: &bookResolver{r: r, b: *book}, errors: userErrors()}, nil
}

func (r *Resolver) UpdateBook(ctx context.Context, args struct{ Input UpdateBookInput }) (*bookPayload, error) {
	if err := requireAuthenticated(ctx); err != nil {
		return nil, err
	}
	in := args.Input
	update := books.UpdateBookInput{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		ISBN:        in.ISBN,
		AuthorID:    in.AuthorID,
		Status:      statusPtr(in.Status),
	}
	if in.PublishedYear != nil {
		year := int(*in.PublishedYear)
		update.PublishedYear = &year
	}
	book, err := r.svc.UpdateBook(ctx, update)
	if ue, ok := books.AsUserError(err); ok {
		return &bookPayload{errors: userErrors(ue)}, nil
	}
	if err != nil {
		return nil, err
	}
	return &bookPayload{book: &bookResolver{r: r, b: *book}, errors: userErrors()}, nil
}

func (r *Resolver) DeleteBook(ctx context.Context, args struct{ ID string }) (*deletePayload, error) {
	if err := requireAuthenticated(ctx); err != nil {
		return nil, err
	}
	err := r.svc.DeleteBook(ctx, args.ID)
	if ue, ok := books.AsUserError(err); ok {
		return &deletePayload{errors: userErrors(ue)}, nil
	}
	if err != nil {
		return nil, err
	}
	return &deletePayload{success: true, errors: userErrors()}, nil
}

func (r *Resolver) CreateAuthor(ctx context.Context, args struct{ Input CreateAuthorInput }) (*authorPayload, error) {
	if err := requireAuthenticated(ctx); err != nil {
		return nil, err
	}
	author, err := r.svc.CreateAuthor(ctx, books.CreateAuthorInput{
		Name:      args.Input.Name,
		Biography: args.Input.Biography,
	})
	if ue, ok := books.AsUserError(err); ok {
		return &authorPayload{errors: userErrors(ue)}, nil
	}
	if err != nil {
		return nil, err
	}
	return &authorPayload{author: &authorResolver{r: r, a: *author}, errors: userErrors()}, nil
}

func (r *Resolver) CreateReview(ctx context.Context, args struct{ Input CreateReviewInput }) (*reviewPayload, error) {
	if err := requireAuthenticated(ctx); err != nil {
		return nil, err
	}
	in := args.Input
	review, err := r.svc.CreateReview(ctx, books.CreateReviewInput{
		BookID:       in.BookID,
		Title:        in.Title,
		Content:      in.Content,
		Rating:       int(in.Rating),
		ReviewerName: in.ReviewerName,
	})
	if ue, ok := books.AsUserError(err); ok {
		return &reviewPayload{errors: userErrors(ue)}, nil
	}
	if err != nil {
		return nil, err
	}
	return &reviewPayload{review: &reviewResolver{r: r, v: *review}, errors: userErrors()}, nil
}
