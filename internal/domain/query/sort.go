package query

import (
	"cmp"
	"slices"
	"time"
)

type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Sort orders by one field. A list of Sorts is applied left to right.
type Sort struct {
	Field     string
	Direction Direction
}

func (s Sort) Descending() bool {
	return s.Direction == Desc
}

// Comparator compares two items on the named field. ok is false for unknown fields.
type Comparator[T any] func(field string, a, b T) (c int, ok bool)

// Apply sorts items in place by sorts, keeping the original order on ties.
func Apply[T any](items []T, sorts []Sort, compare Comparator[T]) {
	if len(sorts) == 0 {
		return
	}
	slices.SortStableFunc(items, func(a, b T) int {
		for _, s := range sorts {
			c, ok := compare(s.Field, a, b)
			if !ok || c == 0 {
				continue
			}
			if s.Descending() {
				return -c
			}
			return c
		}
		return 0
	})
}

// CompareNullable orders nil before any value.
func CompareNullable[T cmp.Ordered](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cmp.Compare(*a, *b)
}

func CompareTime(a, b time.Time) int {
	return a.Compare(b)
}
