package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leviettung200/ByteDefence/internal/api/handlers"
)

const defaultHealthURL = "http://localhost:7071/health"

// errUnhealthy distinguishes a reachable but failing server from a
// transport error.
type errUnhealthy struct {
	status string
	code   int
}

func (e *errUnhealthy) Error() string {
	return fmt.Sprintf("unhealthy: status=%s http=%d", e.status, e.code)
}

func newHealthcheckCommand() *cobra.Command {
	var (
		url     string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check if a service is healthy",
		Long: `Performs a health check by calling a service's /health endpoint.

This command is used by container health checks. It exits with code 0 when
the service reports "healthy" and non-zero otherwise. A "degraded" status
counts as unhealthy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			health, err := checkHealth(ctx, http.DefaultClient, url)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), health.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", defaultHealthURL, "health check URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}

// checkHealth returns the decoded body when the service is healthy.
func checkHealth(ctx context.Context, client *http.Client, url string) (*handlers.HealthCheck, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read health response: %w", err)
	}
	// The relay answers with a bare "ok".
	if resp.StatusCode == http.StatusOK && strings.TrimSpace(string(body)) == "ok" {
		return &handlers.HealthCheck{Status: "healthy"}, nil
	}

	var health handlers.HealthCheck
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, fmt.Errorf("parse health response (http %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || health.Status != "healthy" {
		return nil, &errUnhealthy{status: health.Status, code: resp.StatusCode}
	}
	return &health, nil
}
