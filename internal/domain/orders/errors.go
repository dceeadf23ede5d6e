package orders

import (
	"errors"
	"fmt"
)

// ErrInvalidOperation classifies caller mistakes: unknown orders and invalid input.
var ErrInvalidOperation = errors.New("invalid operation")

type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Order %s not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrInvalidOperation || target == ErrNotFound
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidOperation
}
