package orders

import (
	"math"
	"time"

	"github.com/leviettung200/ByteDefence/internal/domain/query"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

type User struct {
	ID          string
	Username    string
	DisplayName string
	Role        Role
}

type Order struct {
	ID              string
	Title           string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CreatedByUserID string
	CreatedBy       *User
	Items           []OrderItem
}

// Total is the sum of the line totals, rounded to cents.
func (o Order) Total() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.LineTotal()
	}
	return roundCents(total)
}

type OrderItem struct {
	ID       string
	OrderID  string
	Name     string
	Quantity int
	Price    float64
}

func (i OrderItem) LineTotal() float64 {
	return roundCents(i.Price * float64(i.Quantity))
}

type Statistics struct {
	Draft     int
	Pending   int
	Approved  int
	Completed int
	Cancelled int
}

func (s Statistics) Total() int {
	return s.Draft + s.Pending + s.Approved + s.Completed + s.Cancelled
}

// Add counts n orders of status.
func (s *Statistics) Add(status Status, n int) {
	switch status {
	case StatusDraft:
		s.Draft += n
	case StatusPending:
		s.Pending += n
	case StatusApproved:
		s.Approved += n
	case StatusCompleted:
		s.Completed += n
	case StatusCancelled:
		s.Cancelled += n
	}
}

type OrderFilter struct {
	And             []OrderFilter
	Or              []OrderFilter
	ID              *query.StringFilter
	Title           *query.StringFilter
	Status          *query.EnumFilter[Status]
	CreatedByUserID *query.StringFilter
	CreatedAt       *query.TimeFilter
	UpdatedAt       *query.TimeFilter
}

func (f *OrderFilter) Match(o Order) bool {
	if f == nil {
		return true
	}
	for i := range f.And {
		if !f.And[i].Match(o) {
			return false
		}
	}
	if len(f.Or) > 0 {
		matched := false
		for i := range f.Or {
			if f.Or[i].Match(o) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return f.ID.Match(o.ID) &&
		f.Title.Match(o.Title) &&
		f.Status.Match(o.Status) &&
		f.CreatedByUserID.Match(o.CreatedByUserID) &&
		f.CreatedAt.Match(o.CreatedAt) &&
		f.UpdatedAt.Match(o.UpdatedAt)
}

type OrderQuery struct {
	Where *OrderFilter
	Order []query.Sort
}

// DefaultOrder lists newest orders first.
var DefaultOrder = []query.Sort{{Field: "createdAt", Direction: query.Desc}}

func CompareOrders(field string, a, b Order) (int, bool) {
	switch field {
	case "id":
		return query.CompareNullable(&a.ID, &b.ID), true
	case "title":
		return query.CompareNullable(&a.Title, &b.Title), true
	case "status":
		return statusRank(a.Status) - statusRank(b.Status), true
	case "createdByUserId":
		return query.CompareNullable(&a.CreatedByUserID, &b.CreatedByUserID), true
	case "createdAt":
		return query.CompareTime(a.CreatedAt, b.CreatedAt), true
	case "updatedAt":
		return query.CompareTime(a.UpdatedAt, b.UpdatedAt), true
	}
	return 0, false
}

func statusRank(s Status) int {
	switch s {
	case StatusDraft:
		return 0
	case StatusPending:
		return 1
	case StatusApproved:
		return 2
	case StatusCompleted:
		return 3
	case StatusCancelled:
		return 4
	}
	return 5
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
