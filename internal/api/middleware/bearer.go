package middleware

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/leviettung200/ByteDefence/internal/auth"
)

// Authenticator turns a raw bearer token into a principal.
type Authenticator interface {
	Authenticate(token string) (*auth.Principal, error)
}

// Bearer decodes the Authorization header into a request principal. It never
// rejects: a missing or invalid token leaves the request anonymous and the
// handler or resolver decides what that means.
func Bearer(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, err := auth.TokenFromHeader(header)
			if err == nil {
				var p *auth.Principal
				if p, err = authn.Authenticate(token); err == nil {
					r = r.WithContext(auth.WithPrincipal(r.Context(), p))
				}
			}
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("bearer token rejected")
			}
			next.ServeHTTP(w, r)
		})
	}
}
