// Package client is a typed Go client for the ByteDefence APIs: login and
// token storage, the orders GraphQL endpoint and the notification relay.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultAPIBase = "http://localhost:7071/api/"
	DefaultHubURL  = "http://localhost:5000/hubs/notifications"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
)

// StatusError is a non-2xx response that carries no GraphQL errors.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// User is the account as returned by login and the orders API.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

type AuthResult struct {
	Token        string    `json:"token"`
	ExpiresAtUTC time.Time `json:"expiresAtUtc"`
	User         User      `json:"user"`
}

type options struct {
	httpClient  *http.Client
	logger      zerolog.Logger
	delays      []time.Duration
	dialTimeout time.Duration
}

type Option func(*options)

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithReconnectDelays replaces the notification client's retry schedule.
func WithReconnectDelays(delays ...time.Duration) Option {
	return func(o *options) {
		o.delays = delays
	}
}

// WithDialTimeout bounds each reconnect attempt, including the handshake.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) {
		o.dialTimeout = d
	}
}

func newOptions(opts []Option) options {
	o := options{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      zerolog.Nop(),
		delays:      DefaultReconnectDelays,
		dialTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// parseBase makes sure relative references resolve under the base path.
func parseBase(raw string) (*url.URL, error) {
	if raw == "" {
		raw = DefaultAPIBase
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse api base %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base %q must be http or https", raw)
	}
	return u, nil
}

func postJSON(ctx context.Context, hc *http.Client, endpoint, token string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return hc.Do(req)
}

func readStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
