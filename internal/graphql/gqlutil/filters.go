package gqlutil

import (
	"time"

	"github.com/samber/lo"

	"github.com/leviettung200/ByteDefence/internal/domain/query"
)

// StringOperationFilterInput mirrors the schema input of the same name.
// graphql-go matches input fields to struct fields case-insensitively.
type StringOperationFilterInput struct {
	Eq         *string
	Neq        *string
	Contains   *string
	Ncontains  *string
	StartsWith *string
	EndsWith   *string
	In         *[]string
	Nin        *[]string
}

func (in *StringOperationFilterInput) Filter() *query.StringFilter {
	if in == nil {
		return nil
	}
	return &query.StringFilter{
		Eq:         in.Eq,
		Neq:        in.Neq,
		Contains:   in.Contains,
		NContains:  in.Ncontains,
		StartsWith: in.StartsWith,
		EndsWith:   in.EndsWith,
		In:         deref(in.In),
		Nin:        deref(in.Nin),
	}
}

type IntOperationFilterInput struct {
	Eq  *int32
	Neq *int32
	Gt  *int32
	Gte *int32
	Lt  *int32
	Lte *int32
	In  *[]int32
	Nin *[]int32
}

func (in *IntOperationFilterInput) Filter() *query.IntFilter {
	if in == nil {
		return nil
	}
	return &query.IntFilter{
		Eq:  intPtr(in.Eq),
		Neq: intPtr(in.Neq),
		Gt:  intPtr(in.Gt),
		Gte: intPtr(in.Gte),
		Lt:  intPtr(in.Lt),
		Lte: intPtr(in.Lte),
		In:  ints(in.In),
		Nin: ints(in.Nin),
	}
}

type DateTimeOperationFilterInput struct {
	Eq  *DateTime
	Neq *DateTime
	Gt  *DateTime
	Gte *DateTime
	Lt  *DateTime
	Lte *DateTime
}

func (in *DateTimeOperationFilterInput) Filter() *query.TimeFilter {
	if in == nil {
		return nil
	}
	return &query.TimeFilter{
		Eq:  timePtr(in.Eq),
		Neq: timePtr(in.Neq),
		Gt:  timePtr(in.Gt),
		Gte: timePtr(in.Gte),
		Lt:  timePtr(in.Lt),
		Lte: timePtr(in.Lte),
	}
}

// EnumOperationFilterInput serves every <Enum>OperationFilterInput.
type EnumOperationFilterInput struct {
	Eq  *string
	Neq *string
	In  *[]string
	Nin *[]string
}

// EnumFilter converts in for an enum type T.
func EnumFilter[T ~string](in *EnumOperationFilterInput) *query.EnumFilter[T] {
	if in == nil {
		return nil
	}
	conv := func(s *string) *T {
		if s == nil {
			return nil
		}
		v := T(*s)
		return &v
	}
	list := func(s *[]string) []T {
		if s == nil {
			return nil
		}
		return lo.Map(*s, func(v string, _ int) T { return T(v) })
	}
	return &query.EnumFilter[T]{Eq: conv(in.Eq), Neq: conv(in.Neq), In: list(in.In), Nin: list(in.Nin)}
}

// Nested converts an optional and/or list with convert.
func Nested[In, Out any](list *[]In, convert func(*In) *Out) []Out {
	if list == nil {
		return nil
	}
	out := make([]Out, 0, len(*list))
	for i := range *list {
		if f := convert(&(*list)[i]); f != nil {
			out = append(out, *f)
		}
	}
	return out
}

// Sort appends field when a direction was given. Unknown directions sort ascending.
func Sort(out []query.Sort, field string, dir *string) []query.Sort {
	if dir == nil {
		return out
	}
	d := query.Asc
	if *dir == string(query.Desc) {
		d = query.Desc
	}
	return append(out, query.Sort{Field: field, Direction: d})
}

// Sorts flattens an order argument. Fields inside one input object apply in
// the order the input type declares them.
func Sorts[In any](order *[]In, convert func(*In) []query.Sort) []query.Sort {
	if order == nil {
		return nil
	}
	var out []query.Sort
	for i := range *order {
		out = append(out, convert(&(*order)[i])...)
	}
	return out
}

func deref[T any](p *[]T) []T {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(p *int32) *int {
	if p == nil {
		return nil
	}
	v := int(*p)
	return &v
}

func ints(p *[]int32) []int {
	if p == nil {
		return nil
	}
	return lo.Map(*p, func(v int32, _ int) int { return int(v) })
}

func timePtr(p *DateTime) *time.Time {
	if p == nil {
		return nil
	}
	t := p.Time
	return &t
}
