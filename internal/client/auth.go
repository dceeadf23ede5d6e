package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// AuthClient logs in against /api/auth/login and keeps the session in a
// TokenStore.
type AuthClient struct {
	base  *url.URL
	store TokenStore
	opts  options
}

func NewAuthClient(apiBase string, store TokenStore, opts ...Option) (*AuthClient, error) {
	base, err := parseBase(apiBase)
	if err != nil {
		return nil, err
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &AuthClient{base: base, store: store, opts: newOptions(opts)}, nil
}

// Login stores the token and user on success. A rejected login returns
// ErrInvalidCredentials and leaves any previous session untouched.
func (c *AuthClient) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	endpoint := c.base.ResolveReference(&url.URL{Path: "auth/login"}).String()
	resp, err := postJSON(ctx, c.opts.httpClient, endpoint, "", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrInvalidCredentials
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, readStatusError(resp)
	}

	var result AuthResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if result.Token == "" {
		return nil, fmt.Errorf("login response carried no token")
	}
	if err := c.save(result); err != nil {
		return nil, err
	}
	c.opts.logger.Info().Str("user_id", result.User.ID).Msg("signed in")
	return &result, nil
}

func (c *AuthClient) Logout() error {
	if err := c.store.Delete(TokenKey); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	if err := c.store.Delete(UserKey); err != nil {
		return fmt.Errorf("clear user: %w", err)
	}
	return nil
}

// Token returns the stored bearer token, or "" when signed out.
func (c *AuthClient) Token() (string, error) {
	token, _, err := c.store.Get(TokenKey)
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return strings.TrimSpace(token), nil
}

// CurrentUser returns nil when signed out.
func (c *AuthClient) CurrentUser() (*User, error) {
	raw, ok, err := c.store.Get(UserKey)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode stored user: %w", err)
	}
	return &u, nil
}

func (c *AuthClient) save(result AuthResult) error {
	user, err := json.Marshal(result.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := c.store.Set(TokenKey, result.Token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := c.store.Set(UserKey, string(user)); err != nil {
		return fmt.Errorf("store user: %w", err)
	}
	return nil
}
