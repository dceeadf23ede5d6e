package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leviettung200/ByteDefence/internal/testauth"
)

func newTokenCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint development bearer tokens",
		Long: `Sign a bearer token with the configured secret, without going through a
login endpoint. The token is written to stdout and its expiry to stderr.

Examples:
  # Admin token for the order management API
  bytedefence token orders --username admin

  # BookStore token for an arbitrary caller
  bytedefence token bookstore --user-id 42 --user-name alice --role Admin`,
	}

	var userID, userName, role string
	bookstore := &cobra.Command{
		Use:   "bookstore",
		Short: "Sign a BookStore API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			tok, err := testauth.BookStoreToken(cfg.BookStore, userID, userName, role)
			if err != nil {
				return err
			}
			return printToken(cmd, tok)
		},
	}
	bookstore.Flags().StringVar(&userID, "user-id", "dev-user", "subject claim")
	bookstore.Flags().StringVar(&userName, "user-name", "Developer", "name claim")
	bookstore.Flags().StringVar(&role, "role", "User", "role claim (User or Admin)")

	var username string
	orders := &cobra.Command{
		Use:   "orders",
		Short: "Sign an order management API token for a demo account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			tok, err := testauth.OrdersToken(cfg.Orders, username)
			if err != nil {
				return err
			}
			return printToken(cmd, tok)
		},
	}
	orders.Flags().StringVar(&username, "username", "admin", "account to sign for")

	cmd.AddCommand(bookstore, orders)
	return cmd
}

func printToken(cmd *cobra.Command, tok testauth.Token) error {
	fmt.Fprintln(cmd.OutOrStdout(), tok.Value)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", tok.ExpiresAt.UTC().Format(time.RFC3339))
	return nil
}
