package gqlutil

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leviettung200/ByteDefence/internal/domain/query"
)

func ptr[T any](v T) *T { return &v }

func TestDateTime(t *testing.T) {
	var dt DateTime
	require.NoError(t, dt.UnmarshalGraphQL("2024-03-01T10:30:00+02:00"))
	assert.True(t, dt.Equal(time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)))

	out, err := json.Marshal(dt)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-01T08:30:00Z"`, string(out))

	assert.Error(t, dt.UnmarshalGraphQL("yesterday"))
	assert.Error(t, dt.UnmarshalGraphQL(42))
	assert.True(t, dt.ImplementsGraphQLType("DateTime"))
}

func TestErrorExtensions(t *testing.T) {
	err := NewError(CodeForbidden, "Forbidden")
	assert.Equal(t, "Forbidden", err.Error())
	assert.Equal(t, map[string]any{"code": "FORBIDDEN"}, err.Extensions())

	var coded *Error
	assert.True(t, errors.As(error(err), &coded))
}

func TestFilterConversion(t *testing.T) {
	var nilString *StringOperationFilterInput
	assert.Nil(t, nilString.Filter())

	sf := (&StringOperationFilterInput{Contains: ptr("war"), In: &[]string{"a", "b"}}).Filter()
	assert.False(t, sf.Match("The war of worlds"))
	sf = (&StringOperationFilterInput{Contains: ptr("war")}).Filter()
	assert.True(t, sf.Match("warp"))

	intf := (&IntOperationFilterInput{Gte: ptr(int32(1900)), Nin: &[]int32{1949}}).Filter()
	assert.True(t, intf.Match(1951))
	assert.False(t, intf.Match(1949))
	assert.False(t, intf.Match(1813))

	cutoff := NewDateTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	tf := (&DateTimeOperationFilterInput{Lt: &cutoff}).Filter()
	assert.True(t, tf.Match(cutoff.Add(-time.Hour)))
	assert.False(t, tf.Match(cutoff.Time))
}

type shade string

func TestEnumFilter(t *testing.T) {
	assert.Nil(t, EnumFilter[shade](nil))

	f := EnumFilter[shade](&EnumOperationFilterInput{In: &[]string{"RED", "BLUE"}, Neq: ptr("BLUE")})
	assert.Equal(t, []shade{"RED", "BLUE"}, f.In)
	assert.True(t, f.Match("RED"))
	assert.False(t, f.Match("BLUE"))
}

type pair struct{ A, B *string }

func TestSortsAndNested(t *testing.T) {
	convert := func(p *pair) []query.Sort {
		var out []query.Sort
		out = Sort(out, "a", p.A)
		out = Sort(out, "b", p.B)
		return out
	}
	assert.Nil(t, Sorts[pair](nil, convert))
	got := Sorts(&[]pair{{B: ptr("DESC"), A: ptr("ASC")}, {B: ptr("sideways")}}, convert)
	assert.Equal(t, []query.Sort{
		{Field: "a", Direction: query.Asc},
		{Field: "b", Direction: query.Desc},
		{Field: "b", Direction: query.Asc},
	}, got)

	nested := Nested(&[]pair{{}, {}}, func(p *pair) *string {
		if p.A == nil {
			return ptr("empty")
		}
		return nil
	})
	assert.Equal(t, []string{"empty", "empty"}, nested)
	assert.Nil(t, Nested[pair, string](nil, nil))
}
