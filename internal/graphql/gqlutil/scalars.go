// Package gqlutil holds the pieces both GraphQL schemas share: the DateTime
// scalar, coded errors and the filter/sort input types.
package gqlutil

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateTime is an ISO-8601 timestamp scalar named like the HotChocolate one,
// so existing clients keep their variable types.
type DateTime struct {
	time.Time
}

func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t}
}

func (DateTime) ImplementsGraphQLType(name string) bool {
	return name == "DateTime"
}

func (t *DateTime) UnmarshalGraphQL(input any) error {
	switch v := input.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return fmt.Errorf("invalid DateTime %q: %w", v, err)
		}
		t.Time = parsed
		return nil
	case time.Time:
		t.Time = v
		return nil
	}
	return fmt.Errorf("wrong type for DateTime: %T", input)
}

func (t DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
