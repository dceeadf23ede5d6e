package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "graphql", input: "/api/graphql", expected: "/api/graphql"},
		{name: "graphql trailing slash", input: "/api/graphql/", expected: "/api/graphql"},
		{name: "login", input: "/api/auth/login", expected: "/api/auth/login"},
		{name: "relay hub", input: "/hubs/notifications", expected: "/hubs/notifications"},
		{name: "health", input: "/health", expected: "/health"},
		{name: "metrics", input: "/metrics", expected: "/metrics"},
		{name: "unknown", input: "/wp-login.php", expected: "other"},
		{name: "below a route", input: "/api/graphql/extra", expected: "other"},
		{name: "empty path", input: "", expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizePath(tt.input)
			if got != tt.expected {
				t.Fatalf("normalizePath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestHTTPMiddlewareBoundsPathLabels(t *testing.T) {
	h := HTTPMiddleware("label-test")(http.NotFoundHandler())
	for i := 0; i < 50; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, fmt.Sprintf("/scan/%d", i), nil))
	}

	got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("label-test", http.MethodGet, "other", "404"))
	if got != 50 {
		t.Fatalf("other/404 count = %v, want 50", got)
	}
	if hasPathLabel(t, "/scan/0") {
		t.Fatalf("raw request path leaked into labels")
	}
}

func hasPathLabel(t *testing.T, path string) bool {
	t.Helper()
	families, err := Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "path" && l.GetValue() == path {
					return true
				}
			}
		}
	}
	return false
}
