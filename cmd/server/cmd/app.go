package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/leviettung200/ByteDefence/internal/api"
	"github.com/leviettung200/ByteDefence/internal/auth"
	"github.com/leviettung200/ByteDefence/internal/config"
	"github.com/leviettung200/ByteDefence/internal/domain/books"
	"github.com/leviettung200/ByteDefence/internal/domain/orders"
	"github.com/leviettung200/ByteDefence/internal/graphql/bookstore"
	ordersgql "github.com/leviettung200/ByteDefence/internal/graphql/orders"
	"github.com/leviettung200/ByteDefence/internal/metrics"
	"github.com/leviettung200/ByteDefence/internal/notify"
	"github.com/leviettung200/ByteDefence/internal/pubsub"
	"github.com/leviettung200/ByteDefence/internal/relay"
	"github.com/leviettung200/ByteDefence/internal/storage"
	"github.com/leviettung200/ByteDefence/internal/storage/postgres"
	"github.com/leviettung200/ByteDefence/internal/telemetry"
)

const (
	shutdownTimeout    = 10 * time.Second
	dbMetricsInterval  = 15 * time.Second
	tracingFlushPeriod = 5 * time.Second
)

// app owns the listeners of one process and everything they depend on.
type app struct {
	logger  zerolog.Logger
	servers []*http.Server
	closers []func()
}

func newApp(ctx context.Context, cfg config.Config, sel services, logger zerolog.Logger) (_ *app, err error) {
	a := &app{logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	build := buildInfo()
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Tracing, sel.component(), build.Version)
	if err != nil {
		return nil, fmt.Errorf("tracing setup: %w", err)
	}
	a.onClose(func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), tracingFlushPeriod)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown")
		}
	})

	var store storage.Store
	if sel.bookstore || sel.orders {
		if store, err = storage.Open(ctx, cfg.Database, logger); err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		a.onClose(store.Close)
		if pg, ok := store.(*postgres.Store); ok {
			collector := metrics.NewDBCollector(pg.Pool())
			go collector.Start(ctx, dbMetricsInterval)
			a.onClose(collector.Stop)
		}
	}

	// A relay in the same process receives order notifications directly.
	var broadcaster notify.Broadcaster
	if sel.relay {
		hub := relay.NewHub(logger)
		a.onClose(hub.Close)
		broadcaster = hub
		a.listen("relay", cfg.Server.Host, cfg.Server.RelayPort,
			relay.NewServer(hub, cfg.Relay, cfg.Environment, logger).Router())
	}

	if sel.bookstore {
		events := pubsub.New[books.Event](pubsub.WithDropHook[books.Event](func(topic string) {
			metrics.BrokerDroppedTotal.WithLabelValues(topic).Inc()
		}))
		schema, err := bookstore.NewSchema(books.NewService(store.Books(), events, logger))
		if err != nil {
			return nil, fmt.Errorf("bookstore schema: %w", err)
		}
		router := api.NewBookStoreRouter(cfg, api.BookStoreDeps{
			Schema: schema,
			Auth:   auth.NewBookStoreAuthenticator(newJWTManager(cfg.BookStore.JWT), cfg.BookStore.DemoToken),
			Store:  store,
			Build:  build,
		}, logger)
		a.onClose(router.Close)
		a.listen("bookstore", cfg.Server.Host, cfg.Server.BookStorePort, router)
	}

	if sel.orders {
		dir, err := auth.NewDirectory(newJWTManager(cfg.Orders.JWT), auth.DefaultAccounts)
		if err != nil {
			return nil, fmt.Errorf("user directory: %w", err)
		}
		notifier, err := notify.New(cfg.Notifications, broadcaster, logger)
		if err != nil {
			return nil, fmt.Errorf("notifications: %w", err)
		}
		schema, err := ordersgql.NewSchema(orders.NewService(store.Orders(), notifier, logger), dir)
		if err != nil {
			return nil, fmt.Errorf("orders schema: %w", err)
		}
		router := api.NewOrdersRouter(cfg, api.OrdersDeps{
			Schema:    schema,
			Directory: dir,
			Store:     store,
			Build:     build,
		}, logger)
		a.onClose(router.Close)
		a.listen("orders", cfg.Server.Host, cfg.Server.OrdersPort, router)
	}

	return a, nil
}

func newJWTManager(c config.JWTConfig) *auth.JWTManager {
	return auth.NewJWTManager(auth.JWTOptions{
		Secret:    c.Secret,
		Issuer:    c.Issuer,
		Audience:  c.Audience,
		Expiry:    c.Expiry,
		ClockSkew: c.ClockSkew,
	})
}

func (a *app) listen(name, host string, port int, h http.Handler) {
	srv := &http.Server{
		Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
		Handler:           h,
		ReadTimeout:       10 * time.Second, // Total time to read request
		WriteTimeout:      30 * time.Second, // Total time to write response
		ReadHeaderTimeout: 5 * time.Second,  // Time to read headers
		MaxHeaderBytes:    1 << 20,          // 1 MB max header size
	}
	a.servers = append(a.servers, srv)
	a.logger.Debug().Str("service", name).Str("addr", srv.Addr).Msg("listener configured")
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Run serves every listener until ctx is done or one of them fails, then
// shuts all of them down.
func (a *app) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range a.servers {
		g.Go(func() error {
			a.logger.Info().Str("addr", srv.Addr).Msg("listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range a.servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
			}
		}
		return errors.Join(errs...)
	})
	return g.Wait()
}

// Close releases resources in reverse order of acquisition. It is safe to
// call more than once.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
