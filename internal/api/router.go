package api

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/leviettung200/ByteDefence/internal/api/handlers"
	"github.com/leviettung200/ByteDefence/internal/api/middleware"
	"github.com/leviettung200/ByteDefence/internal/api/problem"
	"github.com/leviettung200/ByteDefence/internal/auth"
	"github.com/leviettung200/ByteDefence/internal/config"
	"github.com/leviettung200/ByteDefence/internal/metrics"
)

const loginPath = "/api/auth/login"

// Router is a service's HTTP handler together with the rate limiter it owns.
type Router struct {
	http.Handler
	limiter *middleware.RateLimiter
}

// Close stops the rate limiter cleanup loop.
func (r *Router) Close() {
	r.limiter.Stop()
}

type BookStoreDeps struct {
	Schema *graphql.Schema
	Auth   *auth.BookStoreAuthenticator
	Store  handlers.Pinger
	Build  BuildInfo
}

type OrdersDeps struct {
	Schema    *graphql.Schema
	Directory *auth.Directory
	Store     handlers.Pinger
	Build     BuildInfo
}

// NewBookStoreRouter serves the BookStore API. CORS wraps every route and
// the bearer principal is optional.
func NewBookStoreRouter(cfg config.Config, deps BookStoreDeps, logger zerolog.Logger) *Router {
	env := cfg.Environment
	rl := middleware.NewRateLimiter(cfg.RateLimit, env)

	gql := middleware.Chain(handlers.BookStoreGraphQL(deps.Schema, env),
		rl.Tier(middleware.TierPublic),
		middleware.Bearer(deps.Auth),
	)
	graphqlRoute := methodMux(env, map[string]http.Handler{
		http.MethodGet:  gql,
		http.MethodPost: gql,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/graphql", graphqlRoute)
	mux.Handle("/api/graphql/", graphqlRoute)
	mux.Handle("/api/token", methodMux(env, map[string]http.Handler{
		http.MethodPost: rl.Tier(middleware.TierLogin)(handlers.Token(deps.Auth)),
	}))
	mux.Handle("/api/auth-info", methodMux(env, map[string]http.Handler{
		http.MethodGet: handlers.AuthInfo(deps.Auth),
	}))
	operational(mux, env, deps.Store, deps.Build)

	stack := append(baseMiddleware(cfg, "bookstore", logger), middleware.CORS(cfg.CORS, logger))
	return &Router{Handler: middleware.Chain(mux, stack...), limiter: rl}
}

// NewOrdersRouter serves the ByteDefence API. The bearer principal is decoded
// for every route except login; the GraphQL handler rejects anonymous callers.
func NewOrdersRouter(cfg config.Config, deps OrdersDeps, logger zerolog.Logger) *Router {
	env := cfg.Environment
	rl := middleware.NewRateLimiter(cfg.RateLimit, env)

	login := handlers.Login(deps.Directory)
	gql := handlers.OrdersGraphQL(deps.Schema, env)

	mux := http.NewServeMux()
	mux.Handle(loginPath, methodMux(env, map[string]http.Handler{
		http.MethodPost:    handlers.LoginCORS(rl.Tier(middleware.TierLogin)(login)),
		http.MethodOptions: login,
	}))
	mux.Handle("/api/graphql", methodMux(env, map[string]http.Handler{
		http.MethodPost:    handlers.LoginCORS(rl.Tier(middleware.TierPublic)(gql)),
		http.MethodOptions: gql,
	}))
	operational(mux, env, deps.Store, deps.Build)

	stack := append(baseMiddleware(cfg, "orders", logger),
		exceptPath(loginPath, middleware.Bearer(deps.Directory)))
	return &Router{Handler: middleware.Chain(mux, stack...), limiter: rl}
}

func baseMiddleware(cfg config.Config, service string, logger zerolog.Logger) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.Tracing,
		middleware.CorrelationID(logger),
		middleware.RequestLogging(logger),
		metrics.HTTPMiddleware(service),
		middleware.SecurityHeaders(cfg.IsProduction()),
		middleware.RequestSize(middleware.DefaultMaxBodySize),
	}
}

// operational mounts health, liveness, version and metrics.
func operational(mux *http.ServeMux, env string, store handlers.Pinger, build BuildInfo) {
	build = build.withDefaults()
	health := handlers.NewHealthChecker(store, build.Version, build.GitCommit)

	mux.Handle("/health", methodMux(env, map[string]http.Handler{http.MethodGet: health.Health()}))
	mux.Handle("/healthz", methodMux(env, map[string]http.Handler{http.MethodGet: handlers.Healthz()}))
	mux.Handle("/version", methodMux(env, map[string]http.Handler{http.MethodGet: VersionHandler(build)}))
	mux.Handle("/metrics", methodMux(env, map[string]http.Handler{
		http.MethodGet: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
	}))
}

// exceptPath applies mw to every request whose path is not path.
func exceptPath(path string, mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		wrapped := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == path {
				next.ServeHTTP(w, r)
				return
			}
			wrapped.ServeHTTP(w, r)
		})
	}
}

func methodMux(env string, handlers map[string]http.Handler) http.Handler {
	allow := allowedMethods(handlers)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allow)
		problem.Write(w, r, http.StatusMethodNotAllowed, problem.TypeMethod, "Method Not Allowed", nil, env,
			problem.WithDetail(fmt.Sprintf("%s is not supported; allowed: %s", r.Method, allow)))
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
