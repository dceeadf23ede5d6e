package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leviettung200/ByteDefence/internal/config"
	"github.com/leviettung200/ByteDefence/internal/metrics"
)

// services selects which listeners a process runs.
type services struct {
	bookstore bool
	orders    bool
	relay     bool
}

var allServices = services{bookstore: true, orders: true, relay: true}

// component names the process for tracing; empty when it runs everything.
func (s services) component() string {
	switch s {
	case services{bookstore: true}:
		return "bookstore"
	case services{orders: true}:
		return "orders"
	case services{relay: true}:
		return "relay"
	}
	return ""
}

func newServeCommand(g *globalFlags) *cobra.Command {
	var host string
	var bookstorePort, ordersPort, relayPort int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start every service in one process",
		Long: `Start the BookStore API, the order management API and the notification
relay in one process. Order notifications go straight to the in-process
relay instead of over HTTP.

Examples:
  # Start with default configuration (from env vars)
  bytedefence serve

  # Bind to loopback with a different orders port
  bytedefence serve --host 127.0.0.1 --orders-port 9071

  # Start with a config file and console logs
  bytedefence serve --config ./bytedefence.yaml --log-format console`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServices(cmd.Context(), g, allServices, func(cfg *config.Config) {
				overrideString(&cfg.Server.Host, host)
				overrideInt(&cfg.Server.BookStorePort, bookstorePort)
				overrideInt(&cfg.Server.OrdersPort, ordersPort)
				overrideInt(&cfg.Server.RelayPort, relayPort)
			})
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&bookstorePort, "bookstore-port", 0, "BookStore API port (default: 7072)")
	cmd.Flags().IntVar(&ordersPort, "orders-port", 0, "order management API port (default: 7071)")
	cmd.Flags().IntVar(&relayPort, "relay-port", 0, "notification relay port (default: 5000)")
	return cmd
}

func newBookStoreCommand(g *globalFlags) *cobra.Command {
	return newSingleServiceCommand(g, "bookstore", "Start the BookStore GraphQL API",
		services{bookstore: true}, 7072, func(c *config.ServerConfig) *int { return &c.BookStorePort })
}

func newOrdersCommand(g *globalFlags) *cobra.Command {
	return newSingleServiceCommand(g, "orders", "Start the order management GraphQL API",
		services{orders: true}, 7071, func(c *config.ServerConfig) *int { return &c.OrdersPort })
}

func newRelayCommand(g *globalFlags) *cobra.Command {
	return newSingleServiceCommand(g, "relay", "Start the websocket notification relay",
		services{relay: true}, 5000, func(c *config.ServerConfig) *int { return &c.RelayPort })
}

func newSingleServiceCommand(g *globalFlags, use, short string, sel services, defaultPort int,
	port func(*config.ServerConfig) *int) *cobra.Command {
	var (
		host string
		p    int
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServices(cmd.Context(), g, sel, func(cfg *config.Config) {
				overrideString(&cfg.Server.Host, host)
				overrideInt(port(&cfg.Server), p)
			})
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&p, "port", 0, fmt.Sprintf("server port (default: %d)", defaultPort))
	return cmd
}

func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// runServices loads config, wires the selected services and blocks until
// SIGINT or SIGTERM.
func runServices(ctx context.Context, g *globalFlags, sel services, override func(*config.Config)) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if override != nil {
		override(&cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}

	logger := config.NewLogger(cfg.Logging)
	build := buildInfo()
	metrics.Init(build.Version, build.GitCommit, build.BuildDate)
	logger.Info().Str("version", build.Version).Str("component", sel.component()).Msg("starting bytedefence")

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, sel, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Run(ctx)
}
