package gqlutil

// Error codes placed in extensions.code.
const (
	CodeNotAuthorized   = "AUTH_NOT_AUTHORIZED"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeBadRequest      = "BAD_REQUEST"
	CodeServerError     = "SERVER_ERROR"
)

// Error is a resolver error with a code. graphql-go copies Extensions into
// the response, but only when the resolver returns it unwrapped.
type Error struct {
	Message string
	Code    string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Extensions() map[string]any {
	return map[string]any{"code": e.Code}
}

func NewError(code, message string) *Error {
	return &Error{Message: message, Code: code}
}
