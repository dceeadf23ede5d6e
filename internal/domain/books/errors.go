package books

import "errors"

// UserError is a domain failure reported inside a mutation payload.
type UserError struct {
	Message string
	Code    string
}

func (e *UserError) Error() string {
	return e.Message
}

var (
	ErrBookNotFound   = &UserError{Message: "Book not found", Code: "BOOK_NOT_FOUND"}
	ErrAuthorNotFound = &UserError{Message: "Author not found", Code: "AUTHOR_NOT_FOUND"}
	ErrInvalidRating  = &UserError{Message: "Rating must be between 1 and 5", Code: "INVALID_RATING"}
)

const CodeValidation = "VALIDATION_ERROR"

// AsUserError extracts a UserError from err's chain.
func AsUserError(err error) (*UserError, bool) {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// SimulatedError is raised by BookWithError on request.
type SimulatedError struct{}

func (SimulatedError) Error() string { return "Simulated error for testing purposes" }

func (SimulatedError) Code() string { return "SIMULATED_ERROR" }
