package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/leviettung200/ByteDefence/internal/client"
	"github.com/leviettung200/ByteDefence/internal/config"
)

// clientFlags are shared by every client subcommand.
type clientFlags struct {
	api     string
	hub     string
	session string
}

func (f *clientFlags) auth(g *globalFlags) (*client.AuthClient, error) {
	path := f.session
	if path == "" {
		var err error
		if path, err = client.DefaultSessionPath(); err != nil {
			return nil, err
		}
	}
	return client.NewAuthClient(f.api, client.NewFileStore(path), client.WithLogger(g.clientLogger()))
}

func (f *clientFlags) orders(g *globalFlags) (*client.OrdersClient, error) {
	authc, err := f.auth(g)
	if err != nil {
		return nil, err
	}
	return client.NewOrdersClient(f.api, authc, client.WithLogger(g.clientLogger()))
}

// clientLogger logs to stderr in console format unless told otherwise.
func (g *globalFlags) clientLogger() zerolog.Logger {
	cfg := config.LoggingConfig{Level: "warn", Format: "console"}
	overrideString(&cfg.Level, g.logLevel)
	overrideString(&cfg.Format, g.logFormat)
	return config.NewLoggerTo(cfg, os.Stderr)
}

func newClientCommand(g *globalFlags) *cobra.Command {
	f := &clientFlags{}
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Talk to a running order management API",
		Long: `Sign in, manage orders and watch live notifications from the command line.

The session token is kept in a file under the user config directory
(override with --session) so later commands reuse it.`,
	}
	cmd.PersistentFlags().StringVar(&f.api, "api", client.DefaultAPIBase, "order management API base URL")
	cmd.PersistentFlags().StringVar(&f.hub, "hub", client.DefaultHubURL, "notification relay hub URL")
	cmd.PersistentFlags().StringVar(&f.session, "session", "", "session file (default: <user config dir>/bytedefence/session.json)")

	cmd.AddCommand(
		newClientLoginCommand(g, f),
		newClientLogoutCommand(g, f),
		newClientWhoamiCommand(g, f),
		newClientOrdersCommand(g, f),
		newClientOrderCommand(g, f),
		newClientCreateCommand(g, f),
		newClientAddItemCommand(g, f),
		newClientDeleteCommand(g, f),
		newClientWatchCommand(g, f),
	)
	return cmd
}

func newClientLoginCommand(g *globalFlags, f *clientFlags) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			authc, err := f.auth(g)
			if err != nil {
				return err
			}
			result, err := authc.Login(cmd.Context(), username, password)
			if errors.Is(err, client.ErrInvalidCredentials) {
				return errors.New("invalid username or password")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s), token expires %s\n",
				result.User.DisplayName, result.User.Role, result.ExpiresAtUTC.Format("2006-01-02 15:04:05Z"))
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "account username")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newClientLogoutCommand(g *globalFlags, f *clientFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			authc, err := f.auth(g)
			if err != nil {
				return err
			}
			return authc.Logout()
		},
	}
}

func newClientWhoamiCommand(g *globalFlags, f *clientFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			authc, err := f.auth(g)
			if err != nil {
				return err
			}
			user, err := authc.CurrentUser()
			if err != nil {
				return err
			}
			if user == nil {
				return errors.New("not signed in")
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
}

func newClientOrdersCommand(g *globalFlags, f *clientFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List every order with status counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			oc, err := f.orders(g)
			if err != nil {
				return err
			}
			list, stats, err := oc.GetOrders(cmd.Context())
			if err != nil {
				return signInHint(err)
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"orders": list, "stats": stats})
		},
	}
}

func newClientOrderCommand(g *globalFlags, f *clientFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "order ID",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oc, err := f.orders(g)
			if err != nil {
				return err
			}
			order, err := oc.GetOrder(cmd.Context(), args[0])
			if err != nil {
				return signInHint(err)
			}
			if order == nil {
				return fmt.Errorf("order %s not found", args[0])
			}
			return printJSON(cmd.OutOrStdout(), order)
		},
	}
}

func newClientCreateCommand(g *globalFlags, f *clientFlags) *cobra.Command {
	var (
		title  string
		status string
		items  []string
	)
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create an order",
		Example: `  bytedefence client create --title "Badge readers" --item "Reader:4:80" --item "Cable:4:5"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input := client.CreateOrderInput{Title: title, Status: strings.ToUpper(status)}
			for _, raw := range items {
				name, qty, price, err := parseItem(raw)
				if err != nil {
					return err
				}
				input.Items = append(input.Items, client.CreateOrderItemInput{Name: name, Quantity: qty, Price: price})
			}
			oc, err := f.orders(g)
			if err != nil {
				return err
			}
			order, err := oc.CreateOrder(cmd.Context(), input)
			if err != nil {
				return signInHint(err)
			}
			return printJSON(cmd.OutOrStdout(), order)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "order title")
	cmd.Flags().StringVar(&status, "status", "", "initial status (default: DRAFT)")
	cmd.Flags().StringArrayVar(&items, "item", nil, "item as name:quantity:price (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newClientAddItemCommand(g *globalFlags, f *clientFlags) *cobra.Command {
	var (
		name     string
		quantity int
		price    float64
	)
	cmd := &cobra.Command{
		Use:   "add-item ORDER_ID",
		Short: "Append an item to an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oc, err := f.orders(g)
			if err != nil {
				return err
			}
			order, err := oc.AddOrderItem(cmd.Context(), client.AddOrderItemInput{
				OrderID:  args[0],
				Name:     name,
				Quantity: quantity,
				Price:    price,
			})
			if err != nil {
				return signInHint(err)
			}
			return printJSON(cmd.OutOrStdout(), order)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "item name")
	cmd.Flags().IntVar(&quantity, "quantity", 1, "item quantity")
	cmd.Flags().Float64Var(&price, "price", 0, "unit price")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newClientDeleteCommand(g *globalFlags, f *clientFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ORDER_ID",
		Short: "Delete an order (Admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oc, err := f.orders(g)
			if err != nil {
				return err
			}
			deleted, err := oc.DeleteOrder(cmd.Context(), args[0])
			if err != nil {
				return signInHint(err)
			}
			if !deleted {
				return fmt.Errorf("order %s not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newClientWatchCommand(g *globalFlags, f *clientFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch ORDER_ID...",
		Short: "Print live notifications for orders until interrupted",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			authc, err := f.auth(g)
			if err != nil {
				return err
			}
			nc, err := client.NewNotificationsClient(f.hub, authc, client.WithLogger(g.clientLogger()))
			if err != nil {
				return err
			}
			defer nc.Close()

			out := cmd.OutOrStdout()
			nc.On("*", func(n client.Notification) {
				fmt.Fprintf(out, "%s %s %s\n", n.Method, n.Group, string(n.Data))
			})
			nc.OnStateChange(func(s client.ConnectionState) {
				fmt.Fprintf(cmd.ErrOrStderr(), "relay %s\n", s)
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			for _, id := range args {
				if err := nc.JoinOrderGroup(ctx, id); err != nil {
					return err
				}
			}
			<-ctx.Done()
			return nil
		},
	}
}

// parseItem splits "name:quantity:price". The name may itself contain colons.
func parseItem(raw string) (string, int, float64, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 3 {
		return "", 0, 0, fmt.Errorf("item %q: want name:quantity:price", raw)
	}
	n := len(parts)
	name := strings.TrimSpace(strings.Join(parts[:n-2], ":"))
	qty, err := strconv.Atoi(strings.TrimSpace(parts[n-2]))
	if err != nil {
		return "", 0, 0, fmt.Errorf("item %q: quantity: %w", raw, err)
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(parts[n-1]), 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("item %q: price: %w", raw, err)
	}
	return name, qty, price, nil
}

func signInHint(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("%w: run `bytedefence client login` first", err)
	}
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
