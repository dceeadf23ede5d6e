package books

import (
	"time"

	"github.com/leviettung200/ByteDefence/internal/domain/query"
)

type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusPublished  Status = "PUBLISHED"
	StatusOutOfPrint Status = "OUT_OF_PRINT"
	StatusArchived   Status = "ARCHIVED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusOutOfPrint, StatusArchived:
		return true
	}
	return false
}

type Author struct {
	ID        string
	Name      string
	Biography *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Book struct {
	ID            string
	Title         string
	Description   *string
	ISBN          *string
	PublishedYear int
	Status        Status
	AuthorID      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Review struct {
	ID           string
	Title        string
	Content      *string
	Rating       int
	ReviewerName string
	BookID       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type BookFilter struct {
	And           []BookFilter
	Or            []BookFilter
	ID            *query.StringFilter
	Title         *query.StringFilter
	Description   *query.StringFilter
	ISBN          *query.StringFilter
	PublishedYear *query.IntFilter
	Status        *query.EnumFilter[Status]
	AuthorID      *query.StringFilter
	CreatedAt     *query.TimeFilter
	UpdatedAt     *query.TimeFilter
}

func (f *BookFilter) Match(b Book) bool {
	if f == nil {
		return true
	}
	for i := range f.And {
		if !f.And[i].Match(b) {
			return false
		}
	}
	if len(f.Or) > 0 {
		matched := false
		for i := range f.Or {
			if f.Or[i].Match(b) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return f.ID.Match(b.ID) &&
		f.Title.Match(b.Title) &&
		f.Description.MatchNullable(b.Description) &&
		f.ISBN.MatchNullable(b.ISBN) &&
		f.PublishedYear.Match(b.PublishedYear) &&
		f.Status.Match(b.Status) &&
		f.AuthorID.Match(b.AuthorID) &&
		f.CreatedAt.Match(b.CreatedAt) &&
		f.UpdatedAt.Match(b.UpdatedAt)
}

type AuthorFilter struct {
	And       []AuthorFilter
	Or        []AuthorFilter
	ID        *query.StringFilter
	Name      *query.StringFilter
	Biography *query.StringFilter
	CreatedAt *query.TimeFilter
	UpdatedAt *query.TimeFilter
}

func (f *AuthorFilter) Match(a Author) bool {
	if f == nil {
		return true
	}
	for i := range f.And {
		if !f.And[i].Match(a) {
			return false
		}
	}
	if len(f.Or) > 0 {
		matched := false
		for i := range f.Or {
			if f.Or[i].Match(a) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return f.ID.Match(a.ID) &&
		f.Name.Match(a.Name) &&
		f.Biography.MatchNullable(a.Biography) &&
		f.CreatedAt.Match(a.CreatedAt) &&
		f.UpdatedAt.Match(a.UpdatedAt)
}

type ReviewFilter struct {
	And          []ReviewFilter
	Or           []ReviewFilter
	ID           *query.StringFilter
	Title        *query.StringFilter
	Content      *query.StringFilter
	Rating       *query.IntFilter
	ReviewerName *query.StringFilter
	BookID       *query.StringFilter
	CreatedAt    *query.TimeFilter
	UpdatedAt    *query.TimeFilter
}

func (f *ReviewFilter) Match(r Review) bool {
	if f == nil {
		return true
	}
	for i := range f.And {
		if !f.And[i].Match(r) {
			return false
		}
	}
	if len(f.Or) > 0 {
		matched := false
		for i := range f.Or {
			if f.Or[i].Match(r) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return f.ID.Match(r.ID) &&
		f.Title.Match(r.Title) &&
		f.Content.MatchNullable(r.Content) &&
		f.Rating.Match(r.Rating) &&
		f.ReviewerName.Match(r.ReviewerName) &&
		f.BookID.Match(r.BookID) &&
		f.CreatedAt.Match(r.CreatedAt) &&
		f.UpdatedAt.Match(r.UpdatedAt)
}

type BookQuery struct {
	Where *BookFilter
	Order []query.Sort
}

type AuthorQuery struct {
	Where *AuthorFilter
	Order []query.Sort
}

type ReviewQuery struct {
	Where *ReviewFilter
	Order []query.Sort
}

// CompareBooks orders books on a GraphQL sort field name.
func CompareBooks(field string, a, b Book) (int, bool) {
	switch field {
	case "id":
		return query.CompareNullable(&a.ID, &b.ID), true
	case "title":
		return query.CompareNullable(&a.Title, &b.Title), true
	case "description":
		return query.CompareNullable(a.Description, b.Description), true
	case "isbn":
		return query.CompareNullable(a.ISBN, b.ISBN), true
	case "publishedYear":
		return a.PublishedYear - b.PublishedYear, true
	case "status":
		return statusRank(a.Status) - statusRank(b.Status), true
	case "authorId":
		return query.CompareNullable(&a.AuthorID, &b.AuthorID), true
	case "createdAt":
		return query.CompareTime(a.CreatedAt, b.CreatedAt), true
	case "updatedAt":
		return query.CompareTime(a.UpdatedAt, b.UpdatedAt), true
	}
	return 0, false
}

func CompareAuthors(field string, a, b Author) (int, bool) {
	switch field {
	case "id":
		return query.CompareNullable(&a.ID, &b.ID), true
	case "name":
		return query.CompareNullable(&a.Name, &b.Name), true
	case "biography":
		return query.CompareNullable(a.Biography, b.Biography), true
	case "createdAt":
		return query.CompareTime(a.CreatedAt, b.CreatedAt), true
	case "updatedAt":
		return query.CompareTime(a.UpdatedAt, b.UpdatedAt), true
	}
	return 0, false
}

func CompareReviews(field string, a, b Review) (int, bool) {
	switch field {
	case "id":
		return query.CompareNullable(&a.ID, &b.ID), true
	case "title":
		return query.CompareNullable(&a.Title, &b.Title), true
	case "content":
		return query.CompareNullable(a.Content, b.Content), true
	case "rating":
		return a.Rating - b.Rating, true
	case "reviewerName":
		return query.CompareNullable(&a.ReviewerName, &b.ReviewerName), true
	case "bookId":
		return query.CompareNullable(&a.BookID, &b.BookID), true
	case "createdAt":
		return query.CompareTime(a.CreatedAt, b.CreatedAt), true
	case "updatedAt":
		return query.CompareTime(a.UpdatedAt, b.UpdatedAt), true
	}
	return 0, false
}

// statusRank follows declaration order, which is how enum columns sort.
func statusRank(s Status) int {
	switch s {
	case StatusDraft:
		return 0
	case StatusPublished:
		return 1
	case StatusOutOfPrint:
		return 2
	case StatusArchived:
		return 3
	}
	return 4
}
