// Package web holds the browser assets served next to the APIs.
package web

import (
	_ "embed"
	"net/http"
)

//go:embed graphiql.html
var graphiqlHTML []byte

// PlaygroundCSP relaxes the default policy for the CDN-hosted GraphiQL bundle
// and the websocket used by subscriptions.
const PlaygroundCSP = "default-src 'self'; " +
	"script-src 'self' 'unsafe-inline' https://unpkg.com; " +
	"style-src 'self' 'unsafe-inline' https://unpkg.com; " +
	"connect-src 'self' ws: wss:; " +
	"img-src 'self' data:"

// PlaygroundHandler serves the GraphiQL page. The page posts to its own URL
// and subscribes over a websocket on the same path.
func PlaygroundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Security-Policy", PlaygroundCSP)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(graphiqlHTML)
	})
}
