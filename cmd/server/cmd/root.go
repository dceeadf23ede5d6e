package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leviettung200/ByteDefence/internal/config"
)

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCommand() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "bytedefence",
		Short: "ByteDefence order management and BookStore GraphQL services",
		Long: `bytedefence runs the ByteDefence services and the tools around them.

It provides:
- The BookStore GraphQL API (authors, books, reviews, live subscriptions)
- The order management GraphQL API with JWT login and role checks
- The notification relay that pushes order changes over websockets
- Database migrations, development tokens and a command-line client

Run without a subcommand to start every service in one process.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServices(cmd.Context(), g, allServices, nil)
		},
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "config file path (optional, uses env vars by default)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format (json, console) (default: json)")

	root.AddCommand(
		newServeCommand(g),
		newBookStoreCommand(g),
		newOrdersCommand(g),
		newRelayCommand(g),
		newMigrateCommand(g),
		newTokenCommand(g),
		newClientCommand(g),
		newHealthcheckCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command tree; main calls it once.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment (and --config when given) and applies
// the logging flag overrides.
func (g *globalFlags) loadConfig() (config.Config, error) {
	cfg, err := config.LoadFile(g.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Logging.Format = g.logFormat
	}
	return cfg, nil
}
