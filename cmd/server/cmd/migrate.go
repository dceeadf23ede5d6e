package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leviettung200/ByteDefence/internal/config"
	"github.com/leviettung200/ByteDefence/internal/storage/postgres"
)

var errNoDatabase = errors.New("DATABASE_URL is not set; the in-memory store needs no migrations")

func newMigrateCommand(g *globalFlags) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
		Long: `Apply or roll back schema migrations against DATABASE_URL.

Migrations compiled into the binary are used unless --path points at a
directory of *.up.sql / *.down.sql files.`,
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "migrations directory (default: embedded)")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := databaseConfig(g)
			if err != nil {
				return err
			}
			if err := postgres.MigrateUp(cfg.URL, path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := databaseConfig(g)
			if err != nil {
				return err
			}
			if err := postgres.MigrateDown(cfg.URL, path, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	seed := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo catalogue and orders into empty tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := databaseConfig(g)
			if err != nil {
				return err
			}
			store, err := postgres.Open(cmd.Context(), cfg.URL, cfg.MaxConnections)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.SeedIfEmpty(cmd.Context(), time.Now().UTC()); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "seed data loaded")
			return nil
		},
	}

	cmd.AddCommand(up, down, seed)
	return cmd
}

func databaseConfig(g *globalFlags) (config.DatabaseConfig, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return config.DatabaseConfig{}, fmt.Errorf("config error: %w", err)
	}
	if cfg.Database.URL == "" {
		return config.DatabaseConfig{}, errNoDatabase
	}
	return cfg.Database, nil
}
