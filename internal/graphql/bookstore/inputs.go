package bookstore

import (
	"github.com/leviettung200/ByteDefence/internal/domain/books"
	"github.com/leviettung200/ByteDefence/internal/domain/query"
	"github.com/leviettung200/ByteDefence/internal/graphql/gqlutil"
)

type BookFilterInput struct {
	And           *[]BookFilterInput
	Or            *[]BookFilterInput
	ID            *gqlutil.StringOperationFilterInput
	Title         *gqlutil.StringOperationFilterInput
	Description   *gqlutil.StringOperationFilterInput
	ISBN          *gqlutil.StringOperationFilterInput
	PublishedYear *gqlutil.IntOperationFilterInput
	Status        *gqlutil.EnumOperationFilterInput
	AuthorID      *gqlutil.StringOperationFilterInput
	CreatedAt     *gqlutil.DateTimeOperationFilterInput
	UpdatedAt     *gqlutil.DateTimeOperationFilterInput
}

func (in *BookFilterInput) filter() *books.BookFilter {
	if in == nil {
		return nil
	}
	return &books.BookFilter{
		And:           gqlutil.Nested(in.And, (*BookFilterInput).filter),
		Or:            gqlutil.Nested(in.Or, (*BookFilterInput).filter),
		ID:            in.ID.Filter(),
		Title:         in.Title.Filter(),
		Description:   in.Description.Filter(),
		ISBN:          in.ISBN.Filter(),
		PublishedYear: in.PublishedYear.Filter(),
		Status:        gqlutil.EnumFilter[books.Status](in.Status),
		AuthorID:      in.AuthorID.Filter(),
		CreatedAt:     in.CreatedAt.Filter(),
		UpdatedAt:     in.UpdatedAt.Filter(),
	}
}

type AuthorFilterInput struct {
	And       *[]AuthorFilterInput
	Or        *[]AuthorFilterInput
	ID        *gqlutil.StringOperationFilterInput
	Name      *gqlutil.StringOperationFilterInput
	Biography *gqlutil.StringOperationFilterInput
	CreatedAt *gqlutil.DateTimeOperationFilterInput
	UpdatedAt *gqlutil.DateTimeOperationFilterInput
}

func (in *AuthorFilterInput) filter() *books.AuthorFilter {
	if in == nil {
		return nil
	}
	return &books.AuthorFilter{
		And:       gqlutil.Nested(in.And, (*AuthorFilterInput).filter),
		Or:        gqlutil.Nested(in.Or, (*AuthorFilterInput).filter),
		ID:        in.ID.Filter(),
		Name:      in.Name.Filter(),
		Biography: in.Biography.Filter(),
		CreatedAt: in.CreatedAt.Filter(),
		UpdatedAt: in.UpdatedAt.Filter(),
	}
}

type ReviewFilterInput struct {
	And          *[]ReviewFilterInput
	Or           *[]ReviewFilterInput
	ID           *gqlutil.StringOperationFilterInput
	Title        *gqlutil.StringOperationFilterInput
	Content      *gqlutil.StringOperationFilterInput
	Rating       *gqlutil.IntOperationFilterInput
	ReviewerName *gqlutil.StringOperationFilterInput
	BookID       *gqlutil.StringOperationFilterInput
	CreatedAt    *gqlutil.DateTimeOperationFilterInput
	UpdatedAt    *gqlutil.DateTimeOperationFilterInput
}

func (in *ReviewFilterInput) filter() *books.ReviewFilter {
	if in == nil {
		return nil
	}
	return &books.ReviewFilter{
		And:          gqlutil.Nested(in.And, (*ReviewFilterInput).filter),
		Or:           gqlutil.Nested(in.Or, (*ReviewFilterInput).filter),
		ID:           in.ID.Filter(),
		Title:        in.Title.Filter(),
		Content:      in.Content.Filter(),
		Rating:       in.Rating.Filter(),
		ReviewerName: in.ReviewerName.Filter(),
		BookID:       in.BookID.Filter(),
		CreatedAt:    in.CreatedAt.Filter(),
		UpdatedAt:    in.UpdatedAt.Filter(),
	}
}

type BookSortInput struct {
	ID            *string
	Title         *string
	Description   *string
	ISBN          *string
	PublishedYear *string
	Status        *string
	AuthorID      *string
	CreatedAt     *string
	UpdatedAt     *string
}

func (in *BookSortInput) sorts() []query.Sort {
	var out []query.Sort
	out = gqlutil.Sort(out, "id", in.ID)
	out = gqlutil.Sort(out, "title", in.Title)
	out = gqlutil.Sort(out, "description", in.Description)
	out = gqlutil.Sort(out, "isbn", in.ISBN)
	out = gqlutil.Sort(out, "publishedYear", in.PublishedYear)
	out = gqlutil.Sort(out, "status", in.Status)
	out = gqlutil.Sort(out, "authorId", in.AuthorID)
	out = gqlutil.Sort(out, "createdAt", in.CreatedAt)
	out = gqlutil.Sort(out, "updatedAt", in.UpdatedAt)
	return out
}

type AuthorSortInput struct {
	ID        *string
	Name      *string
	Biography *string
	CreatedAt *string
	UpdatedAt *string
}

func (in *AuthorSortInput) sorts() []query.Sort {
	var out []query.Sort
	out = gqlutil.Sort(out, "id", in.ID)
	out = gqlutil.Sort(out, "name", in.Name)
	out = gqlutil.Sort(out, "biography", in.Biography)
	out = gqlutil.Sort(out, "createdAt", in.CreatedAt)
	out = gqlutil.Sort(out, "updatedAt", in.UpdatedAt)
	return out
}

type ReviewSortInput struct {
	ID           *string
	Title        *string
	Content      *string
	Rating       *string
	ReviewerName *string
	BookID       *string
	CreatedAt    *string
	UpdatedAt    *string
}

func (in *ReviewSortInput) sorts() []query.Sort {
	var out []query.Sort
	out = gqlutil.Sort(out, "id", in.ID)
	out = gqlutil.Sort(out, "title", in.Title)
	out = gqlutil.Sort(out, "content", in.Content)
	out = gqlutil.Sort(out, "rating", in.Rating)
	out = gqlutil.Sort(out, "reviewerName", in.ReviewerName)
	out = gqlutil.Sort(out, "bookId", in.BookID)
	out = gqlutil.Sort(out, "createdAt", in.CreatedAt)
	out = gqlutil.Sort(out, "updatedAt", in.UpdatedAt)
	return out
}

type CreateBookInput struct {
	Title         string
	Description   *string
	ISBN          *string
	PublishedYear int32
	AuthorID      string
	Status        *string
}

type UpdateBookInput struct {
	ID            string
	Title         *string
	Description   *string
	ISBN          *string
	PublishedYear *int32
	AuthorID      *string
	Status        *string
}

type CreateAuthorInput struct {
	Name      string
	Biography *string
}

type CreateReviewInput struct {
	BookID       string
	Title        string
	Content      *string
	Rating       int32
	ReviewerName string
}
