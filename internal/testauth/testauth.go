// Package testauth mints development tokens signed with the configured
// secrets, for the token CLI command and integration tests.
//
// Never wire it into a request path: it signs whatever identity it is given.
package testauth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/leviettung200/ByteDefence/internal/auth"
	"github.com/leviettung200/ByteDefence/internal/config"
)

// Token is a signed bearer token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Header is the Authorization header value.
func (t Token) Header() string {
	return "Bearer " + t.Value
}

// Apply sets the Authorization header on req.
func (t Token) Apply(req *http.Request) {
	if req != nil {
		req.Header.Set("Authorization", t.Header())
	}
}

// Manager builds the JWT manager a service validates c with.
func Manager(c config.JWTConfig) *auth.JWTManager {
	return auth.NewJWTManager(auth.JWTOptions{
		Secret:    c.Secret,
		Issuer:    c.Issuer,
		Audience:  c.Audience,
		Expiry:    c.Expiry,
		ClockSkew: c.ClockSkew,
	})
}

// BookStoreToken signs a token for an arbitrary caller. role defaults to User.
func BookStoreToken(cfg config.BookStoreConfig, userID, userName, role string) (Token, error) {
	userID, userName = strings.TrimSpace(userID), strings.TrimSpace(userName)
	if userID == "" || userName == "" {
		return Token{}, fmt.Errorf("user id and user name are required")
	}
	if role == "" {
		role = string(auth.RoleUser)
	}
	value, expires, err := Manager(cfg.JWT).Generate(auth.Principal{
		ID:          userID,
		Username:    userName,
		DisplayName: userName,
		Role:        auth.NormalizeRole(role),
	})
	if err != nil {
		return Token{}, fmt.Errorf("sign bookstore token: %w", err)
	}
	return Token{Value: value, ExpiresAt: expires}, nil
}

// OrdersToken signs a token for a directory account without its password.
func OrdersToken(cfg config.OrdersConfig, username string) (Token, error) {
	dir, err := auth.NewDirectory(Manager(cfg.JWT), auth.DefaultAccounts)
	if err != nil {
		return Token{}, err
	}
	user, ok := dir.UserByUsername(username)
	if !ok {
		return Token{}, fmt.Errorf("unknown user %q", username)
	}
	value, expires, err := dir.IssueToken(user)
	if err != nil {
		return Token{}, fmt.Errorf("sign orders token: %w", err)
	}
	return Token{Value: value, ExpiresAt: expires}, nil
}
