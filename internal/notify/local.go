package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultTimeout = 5 * time.Second
	// AccessKeyHeader carries the relay broadcast key.
	AccessKeyHeader = "X-Relay-Key"
)

type localSender struct {
	httpClient *http.Client
	endpoint   string
	accessKey  string
}

type Option func(*localSender, *Dispatcher)

func WithHTTPClient(client *http.Client) Option {
	return func(s *localSender, _ *Dispatcher) {
		s.httpClient = client
	}
}

// WithAccessKey sends key in AccessKeyHeader. Blank keys are ignored.
func WithAccessKey(key string) Option {
	return func(s *localSender, _ *Dispatcher) {
		s.accessKey = key
	}
}

// WithTimeout bounds each broadcast. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(_ *localSender, disp *Dispatcher) {
		if d > 0 {
			disp.timeout = d
		}
	}
}

// NewLocal posts envelopes to {hubURL}/api/broadcast.
func NewLocal(hubURL string, logger zerolog.Logger, opts ...Option) *Dispatcher {
	s := &localSender{
		httpClient: &http.Client{},
		endpoint:   strings.TrimRight(hubURL, "/") + "/api/broadcast",
	}
	d := &Dispatcher{sender: s, logger: logger, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(s, d)
	}
	return d
}

func (s *localSender) send(ctx context.Context, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.accessKey != "" {
		req.Header.Set(AccessKeyHeader, s.accessKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
