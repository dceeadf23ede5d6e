package orders

import (
	"context"
	"errors"

	"github.com/leviettung200/ByteDefence/internal/auth"
	domain "github.com/leviettung200/ByteDefence/internal/domain/orders"
	"github.com/leviettung200/ByteDefence/internal/graphql/gqlutil"
)

var (
	errUnauthenticated = gqlutil.NewError(gqlutil.CodeUnauthenticated, "Unauthorized")
	errForbidden       = gqlutil.NewError(gqlutil.CodeForbidden, "Forbidden")
)

func requireRole(ctx context.Context, role auth.Role) (*auth.Principal, error) {
	p := auth.PrincipalFrom(ctx)
	if p == nil {
		return nil, errUnauthenticated
	}
	if !auth.HasRole(p.Role, role) {
		return nil, errForbidden
	}
	return p, nil
}

// classify maps service errors onto response codes. Invalid operations keep
// the message of the typed error rather than any wrapping context.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var coded *gqlutil.Error
	if errors.As(err, &coded) {
		return coded
	}
	if errors.Is(err, auth.ErrMissingToken) || errors.Is(err, auth.ErrInvalidToken) {
		return errUnauthenticated
	}

	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		return gqlutil.NewError(gqlutil.CodeBadRequest, notFound.Error())
	}
	var invalid *domain.ValidationError
	if errors.As(err, &invalid) {
		return gqlutil.NewError(gqlutil.CodeBadRequest, invalid.Error())
	}
	if errors.Is(err, domain.ErrInvalidOperation) {
		return gqlutil.NewError(gqlutil.CodeBadRequest, err.Error())
	}
	return gqlutil.NewError(gqlutil.CodeServerError, err.Error())
}
