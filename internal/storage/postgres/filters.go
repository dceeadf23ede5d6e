package postgres

import (
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/leviettung200/ByteDefence/internal/domain/query"
)

// escapeLikePattern escapes LIKE metacharacters using the default backslash escape.
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// Negative operators also match NULL, mirroring in-memory evaluation.
func orNull(col string, cond sq.Sqlizer) sq.Sqlizer {
	return sq.Or{sq.Eq{col: nil}, cond}
}

func stringConds(col string, f *query.StringFilter) sq.And {
	if f == nil {
		return nil
	}
	var c sq.And
	if f.Eq != nil {
		c = append(c, sq.Eq{col: *f.Eq})
	}
	if f.Neq != nil {
		c = append(c, orNull(col, sq.NotEq{col: *f.Neq}))
	}
	if f.Contains != nil {
		c = append(c, sq.Like{col: "%" + escapeLikePattern(*f.Contains) + "%"})
	}
	if f.NContains != nil {
		c = append(c, orNull(col, sq.NotLike{col: "%" + escapeLikePattern(*f.NContains) + "%"}))
	}
	if f.StartsWith != nil {
		c = append(c, sq.Like{col: escapeLikePattern(*f.StartsWith) + "%"})
	}
	if f.EndsWith != nil {
		c = append(c, sq.Like{col: "%" + escapeLikePattern(*f.EndsWith)})
	}
	if f.In != nil {
		c = append(c, sq.Eq{col: f.In})
	}
	if f.Nin != nil {
		c = append(c, orNull(col, sq.NotEq{col: f.Nin}))
	}
	return c
}

func numberConds[T int | float64](col string, f *query.NumberFilter[T]) sq.And {
	if f == nil {
		return nil
	}
	var c sq.And
	if f.Eq != nil {
		c = append(c, sq.Eq{col: *f.Eq})
	}
	if f.Neq != nil {
		c = append(c, orNull(col, sq.NotEq{col: *f.Neq}))
	}
	if f.Gt != nil {
		c = append(c, sq.Gt{col: *f.Gt})
	}
	if f.Gte != nil {
		c = append(c, sq.GtOrEq{col: *f.Gte})
	}
	if f.Lt != nil {
		c = append(c, sq.Lt{col: *f.Lt})
	}
	if f.Lte != nil {
		c = append(c, sq.LtOrEq{col: *f.Lte})
	}
	if f.In != nil {
		c = append(c, sq.Eq{col: f.In})
	}
	if f.Nin != nil {
		c = append(c, orNull(col, sq.NotEq{col: f.Nin}))
	}
	return c
}

func timeConds(col string, f *query.TimeFilter) sq.And {
	if f == nil {
		return nil
	}
	var c sq.And
	if f.Eq != nil {
		c = append(c, sq.Eq{col: *f.Eq})
	}
	if f.Neq != nil {
		c = append(c, sq.NotEq{col: *f.Neq})
	}
	if f.Gt != nil {
		c = append(c, sq.Gt{col: *f.Gt})
	}
	if f.Gte != nil {
		c = append(c, sq.GtOrEq{col: *f.Gte})
	}
	if f.Lt != nil {
		c = append(c, sq.Lt{col: *f.Lt})
	}
	if f.Lte != nil {
		c = append(c, sq.LtOrEq{col: *f.Lte})
	}
	return c
}

func enumConds[T ~string](col string, f *query.EnumFilter[T]) sq.And {
	if f == nil {
		return nil
	}
	var c sq.And
	if f.Eq != nil {
		c = append(c, sq.Eq{col: string(*f.Eq)})
	}
	if f.Neq != nil {
		c = append(c, sq.NotEq{col: string(*f.Neq)})
	}
	if f.In != nil {
		c = append(c, sq.Eq{col: toStrings(f.In)})
	}
	if f.Nin != nil {
		c = append(c, sq.NotEq{col: toStrings(f.Nin)})
	}
	return c
}

// group combines field conditions with nested and/or lists.
func group(fields sq.And, and []sq.Sqlizer, or []sq.Sqlizer) sq.Sqlizer {
	all := append(sq.And{}, fields...)
	all = append(all, and...)
	if len(or) > 0 {
		all = append(all, sq.Or(or))
	}
	if len(all) == 0 {
		return nil
	}
	return all
}

// orderClauses maps sort fields to column expressions; unknown fields are skipped.
// NULL sorts before any value ascending and after any value descending.
// tiebreak is appended so rows with equal keys keep insertion order.
func orderClauses(sorts []query.Sort, columns map[string]string, tiebreak ...string) []string {
	out := make([]string, 0, len(sorts)+len(tiebreak))
	for _, s := range sorts {
		expr, ok := columns[s.Field]
		if !ok {
			continue
		}
		if s.Descending() {
			out = append(out, expr+" DESC NULLS LAST")
		} else {
			out = append(out, expr+" ASC NULLS FIRST")
		}
	}
	return append(out, tiebreak...)
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
