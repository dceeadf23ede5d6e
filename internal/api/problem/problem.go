// Package problem writes RFC 7807 problem documents for the non-GraphQL
// endpoints (login, token, relay broadcast).
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/problem+json"

// Problem type URIs.
const (
	TypeValidation   = "https://bytedefence.dev/problems/validation-error"
	TypeUnauthorized = "https://bytedefence.dev/problems/unauthorized"
	TypeForbidden    = "https://bytedefence.dev/problems/forbidden"
	TypeNotFound     = "https://bytedefence.dev/problems/not-found"
	TypeMethod       = "https://bytedefence.dev/problems/method-not-allowed"
	TypeRateLimited  = "https://bytedefence.dev/problems/rate-limited"
	TypeTooLarge     = "https://bytedefence.dev/problems/payload-too-large"
	TypeServerError  = "https://bytedefence.dev/problems/server-error"
)

type ProblemDetails struct {
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Status   int            `json:"status"`
	Detail   string         `json:"detail,omitempty"`
	Instance string         `json:"instance,omitempty"`
	Errors   map[string]any `json:"errors,omitempty"`
}

type Option func(*ProblemDetails)

func WithDetail(detail string) Option {
	return func(p *ProblemDetails) {
		p.Detail = detail
	}
}

// WithErrors attaches per-field messages.
func WithErrors(errs map[string]any) Option {
	return func(p *ProblemDetails) {
		p.Errors = errs
	}
}

// Write renders a problem for r. err.Error() is only exposed outside
// production; 4xx errors are logged at warn and 5xx at error.
func Write(w http.ResponseWriter, r *http.Request, status int, typ, title string, err error, env string, opts ...Option) {
	p := ProblemDetails{Type: typ, Title: title, Status: status}
	for _, opt := range opts {
		opt(&p)
	}

	if p.Detail == "" && err != nil {
		if env == "production" {
			p.Detail = http.StatusText(status)
		} else {
			p.Detail = err.Error()
		}
	}
	if r != nil {
		p.Instance = r.URL.Path
		logProblem(r, p, err)
	}

	WriteProblem(w, p)
}

func logProblem(r *http.Request, p ProblemDetails, err error) {
	if err == nil || p.Status < 400 {
		return
	}
	logger := zerolog.Ctx(r.Context())
	event := logger.Warn()
	if p.Status >= 500 {
		event = logger.Error()
	}
	event.Err(err).
		Int("status", p.Status).
		Str("type", p.Type).
		Str("path", r.URL.Path).
		Str("method", r.Method).
		Msg(p.Title)
}

func WriteProblem(w http.ResponseWriter, p ProblemDetails) {
	payload, err := json.Marshal(p)
	if err != nil {
		p = ProblemDetails{Type: "about:blank", Title: http.StatusText(http.StatusInternalServerError), Status: http.StatusInternalServerError}
		payload, _ = json.Marshal(p)
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(p.Status)
	_, _ = w.Write(payload)
}
