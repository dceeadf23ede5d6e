// Package query holds the where/order primitives shared by both APIs.
// Stores evaluate them in memory (Match) or translate them to SQL.
package query

import (
	"strings"
	"time"
)

type StringFilter struct {
	Eq         *string
	Neq        *string
	Contains   *string
	NContains  *string
	StartsWith *string
	EndsWith   *string
	In         []string
	Nin        []string
}

// Match is case-sensitive.
func (f *StringFilter) Match(v string) bool {
	if f == nil {
		return true
	}
	switch {
	case f.Eq != nil && v != *f.Eq,
		f.Neq != nil && v == *f.Neq,
		f.Contains != nil && !strings.Contains(v, *f.Contains),
		f.NContains != nil && strings.Contains(v, *f.NContains),
		f.StartsWith != nil && !strings.HasPrefix(v, *f.StartsWith),
		f.EndsWith != nil && !strings.HasSuffix(v, *f.EndsWith),
		f.In != nil && !contains(f.In, v),
		f.Nin != nil && contains(f.Nin, v):
		return false
	}
	return true
}

// MatchNullable treats a nil value as failing every positive operator.
func (f *StringFilter) MatchNullable(v *string) bool {
	if f == nil {
		return true
	}
	if v == nil {
		return f.Eq == nil && f.Contains == nil && f.StartsWith == nil && f.EndsWith == nil && f.In == nil
	}
	return f.Match(*v)
}

type number interface {
	~int | ~int32 | ~int64 | ~float64
}

// NumberFilter covers both the Int and Float operation inputs.
type NumberFilter[T number] struct {
	Eq  *T
	Neq *T
	Gt  *T
	Gte *T
	Lt  *T
	Lte *T
	In  []T
	Nin []T
}

type (
	IntFilter   = NumberFilter[int]
	FloatFilter = NumberFilter[float64]
)

func (f *NumberFilter[T]) Match(v T) bool {
	if f == nil {
		return true
	}
	switch {
	case f.Eq != nil && v != *f.Eq,
		f.Neq != nil && v == *f.Neq,
		f.Gt != nil && !(v > *f.Gt),
		f.Gte != nil && !(v >= *f.Gte),
		f.Lt != nil && !(v < *f.Lt),
		f.Lte != nil && !(v <= *f.Lte),
		f.In != nil && !contains(f.In, v),
		f.Nin != nil && contains(f.Nin, v):
		return false
	}
	return true
}

// MatchNullable treats a nil value as failing every operator except neq and nin.
func (f *NumberFilter[T]) MatchNullable(v *T) bool {
	if f == nil {
		return true
	}
	if v == nil {
		return f.Eq == nil && f.Gt == nil && f.Gte == nil && f.Lt == nil && f.Lte == nil && f.In == nil
	}
	return f.Match(*v)
}

type TimeFilter struct {
	Eq  *time.Time
	Neq *time.Time
	Gt  *time.Time
	Gte *time.Time
	Lt  *time.Time
	Lte *time.Time
}

func (f *TimeFilter) Match(v time.Time) bool {
	if f == nil {
		return true
	}
	switch {
	case f.Eq != nil && !v.Equal(*f.Eq),
		f.Neq != nil && v.Equal(*f.Neq),
		f.Gt != nil && !v.After(*f.Gt),
		f.Gte != nil && v.Before(*f.Gte),
		f.Lt != nil && !v.Before(*f.Lt),
		f.Lte != nil && v.After(*f.Lte):
		return false
	}
	return true
}

// EnumFilter matches string-backed enums.
type EnumFilter[T ~string] struct {
	Eq  *T
	Neq *T
	In  []T
	Nin []T
}

func (f *EnumFilter[T]) Match(v T) bool {
	if f == nil {
		return true
	}
	switch {
	case f.Eq != nil && v != *f.Eq,
		f.Neq != nil && v == *f.Neq,
		f.In != nil && !contains(f.In, v),
		f.Nin != nil && contains(f.Nin, v):
		return false
	}
	return true
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
