package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/graph-gophers/graphql-transport-ws/graphqlws"
	"github.com/rs/zerolog"

	"github.com/leviettung200/ByteDefence/internal/api/problem"
	"github.com/leviettung200/ByteDefence/internal/auth"
	"github.com/leviettung200/ByteDefence/internal/metrics"
	"github.com/leviettung200/ByteDefence/web"
)

// GraphQLRequest is the standard GraphQL-over-HTTP request body.
type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

var errUnsupportedMediaType = errors.New("unsupported media type")

// ParseGraphQLRequest reads GET parameters or a POST body in
// application/json or application/graphql.
func ParseGraphQLRequest(r *http.Request) (*GraphQLRequest, error) {
	req := &GraphQLRequest{}

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if vars := q.Get("variables"); vars != "" {
			if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
				return nil, fmt.Errorf("invalid variables: %w", err)
			}
		}
	case http.MethodPost:
		mediaType := "application/json"
		if ct := r.Header.Get("Content-Type"); ct != "" {
			var err error
			if mediaType, _, err = mime.ParseMediaType(ct); err != nil {
				return nil, fmt.Errorf("parse media type: %w", err)
			}
		}
		switch mediaType {
		case "application/json":
			if err := json.NewDecoder(r.Body).Decode(req); err != nil {
				return nil, fmt.Errorf("not a valid GraphQL request body: %w", err)
			}
		case "application/graphql":
			body, err := io.ReadAll(r.Body)
			if err != nil {
				return nil, fmt.Errorf("read body: %w", err)
			}
			req.Query = string(body)
		default:
			return nil, fmt.Errorf("%w %q", errUnsupportedMediaType, mediaType)
		}
	default:
		return nil, fmt.Errorf("method %s not supported", r.Method)
	}
	return req, nil
}

type executor struct {
	schema  *graphql.Schema
	service string
}

func (e executor) exec(ctx context.Context, req *GraphQLRequest) *graphql.Response {
	start := time.Now()
	resp := e.schema.Exec(ctx, req.Query, req.OperationName, req.Variables)

	outcome := "ok"
	if len(resp.Errors) > 0 {
		outcome = "error"
	}
	metrics.ObserveGraphQL(e.service, req.OperationName, outcome, time.Since(start))
	if outcome == "error" {
		zerolog.Ctx(ctx).Debug().
			Str("operation", req.OperationName).
			Int("errors", len(resp.Errors)).
			Msg("graphql operation returned errors")
	}
	return resp
}

func errorResponse(message string) *graphql.Response {
	return &graphql.Response{Errors: []*gqlerrors.QueryError{gqlerrors.Errorf("%s", message)}}
}

func writeGraphQL(w http.ResponseWriter, status int, resp *graphql.Response) {
	writeJSON(w, status, resp)
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

func wantsPlayground(r *http.Request) bool {
	return r.Method == http.MethodGet &&
		r.URL.Query().Get("query") == "" &&
		strings.Contains(r.Header.Get("Accept"), "text/html")
}

// BookStoreGraphQL serves GET and POST queries, the GraphiQL page for
// browsers and graphql-ws subscriptions on the same path. Authentication is
// optional here; resolvers enforce it per mutation.
func BookStoreGraphQL(schema *graphql.Schema, env string) http.Handler {
	e := executor{schema: schema, service: "bookstore"}
	playground := web.PlaygroundHandler()

	queries := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wantsPlayground(r) {
			playground.ServeHTTP(w, r)
			return
		}
		req, err := ParseGraphQLRequest(r)
		switch {
		case err != nil && isTooLarge(err):
			problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeTooLarge, "Request Entity Too Large", err, env)
			return
		case errors.Is(err, errUnsupportedMediaType):
			writeGraphQL(w, http.StatusUnsupportedMediaType, errorResponse(err.Error()))
			return
		case err != nil:
			writeGraphQL(w, http.StatusBadRequest, errorResponse(err.Error()))
			return
		case strings.TrimSpace(req.Query) == "":
			writeGraphQL(w, http.StatusBadRequest, errorResponse("Missing GraphQL query"))
			return
		}
		writeGraphQL(w, http.StatusOK, e.exec(r.Context(), req))
	})
	return graphqlws.NewHandlerFunc(schema, queries)
}

// OrdersGraphQL serves POST and OPTIONS /api/graphql for ByteDefence. Every
// query needs an authenticated principal.
func OrdersGraphQL(schema *graphql.Schema, env string) http.Handler {
	e := executor{schema: schema, service: "orders"}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods", "POST,OPTIONS")
			h.Set("Access-Control-Allow-Headers", "authorization,content-type")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if auth.PrincipalFrom(r.Context()) == nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req GraphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Query) == "" {
			if err != nil && isTooLarge(err) {
				problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeTooLarge, "Request Entity Too Large", err, env)
				return
			}
			writeText(w, http.StatusBadRequest, "Missing GraphQL query")
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		writeGraphQL(w, http.StatusOK, e.exec(r.Context(), &req))
	})
}
