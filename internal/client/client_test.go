package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leviettung200/ByteDefence/internal/api"
	"github.com/leviettung200/ByteDefence/internal/auth"
	"github.com/leviettung200/ByteDefence/internal/config"
	"github.com/leviettung200/ByteDefence/internal/domain/orders"
	ordersgql "github.com/leviettung200/ByteDefence/internal/graphql/orders"
	"github.com/leviettung200/ByteDefence/internal/notify"
	"github.com/leviettung200/ByteDefence/internal/relay"
	"github.com/leviettung200/ByteDefence/internal/storage/memory"
)

func newOrdersServer(t *testing.T) string {
	t.Helper()
	manager := auth.NewJWTManager(auth.JWTOptions{
		Secret:   "client-test-secret-with-at-least-32-bytes",
		Issuer:   "client-test",
		Audience: "client-test",
		Expiry:   time.Hour,
	})
	dir, err := auth.NewDirectory(manager, auth.DefaultAccounts)
	require.NoError(t, err)
	store := memory.NewStore()
	schema, err := ordersgql.NewSchema(orders.NewService(store.Orders(), notify.Noop{}, zerolog.Nop()), dir)
	require.NoError(t, err)

	router := api.NewOrdersRouter(config.Config{Environment: "test"},
		api.OrdersDeps{Schema: schema, Directory: dir, Store: store}, zerolog.Nop())
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		router.Close()
	})
	return srv.URL + "/api/"
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)

	_, ok, err := store.Get(TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(TokenKey, "abc"))
	require.NoError(t, store.Set(UserKey, `{"id":"u"}`))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened := NewFileStore(path)
	v, ok, err := reopened.Get(TokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	require.NoError(t, reopened.Delete(TokenKey))
	require.NoError(t, reopened.Delete("missing"))
	_, ok, err = store.Get(TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))
	_, _, err = store.Get(UserKey)
	assert.ErrorContains(t, err, "decode session file")
}

func TestAuthClient(t *testing.T) {
	base := newOrdersServer(t)
	authc, err := NewAuthClient(base, NewMemoryStore())
	require.NoError(t, err)

	_, err = authc.Login(context.Background(), "user", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	token, err := authc.Token()
	require.NoError(t, err)
	assert.Empty(t, token)

	result, err := authc.Login(context.Background(), "user", "user123")
	require.NoError(t, err)
	assert.Equal(t, "user-analyst", result.User.ID)
	assert.True(t, result.ExpiresAtUTC.After(time.Now()))

	token, err = authc.Token()
	require.NoError(t, err)
	assert.Equal(t, result.Token, token)
	user, err := authc.CurrentUser()
	require.NoError(t, err)
	assert.Equal(t, &User{ID: "user-analyst", Username: "user", DisplayName: "Analyst", Role: "User"}, user)

	require.NoError(t, authc.Logout())
	user, err = authc.CurrentUser()
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestParseBase(t *testing.T) {
	u, err := parseBase("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIBase, u.String())

	u, err = parseBase("https://orders.example/api")
	require.NoError(t, err)
	assert.Equal(t, "https://orders.example/api/", u.String())

	_, err = parseBase("ftp://orders.example")
	assert.Error(t, err)
}

func TestOrdersClient(t *testing.T) {
	ctx := context.Background()
	base := newOrdersServer(t)
	authc, err := NewAuthClient(base, NewMemoryStore())
	require.NoError(t, err)
	oc, err := NewOrdersClient(base, authc)
	require.NoError(t, err)

	_, _, err = oc.GetOrders(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = authc.Login(ctx, "user", "user123")
	require.NoError(t, err)

	list, stats, err := oc.GetOrders(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "order-1", list[0].ID)
	assert.Equal(t, "Administrator", list[0].CreatedBy.DisplayName)
	assert.Equal(t, OrderStatistics{Pending: 1, Approved: 1, Total: 2}, stats)

	missing, err := oc.GetOrder(ctx, "order-404")
	require.NoError(t, err)
	assert.Nil(t, missing)

	created, err := oc.CreateOrder(ctx, CreateOrderInput{
		Title: "Badge readers",
		Items: []CreateOrderItemInput{{Name: "Reader", Quantity: 4, Price: 80}},
	})
	require.NoError(t, err)
	assert.Equal(t, "DRAFT", created.Status)
	assert.Equal(t, 320.0, created.Total)

	updated, err := oc.AddOrderItem(ctx, AddOrderItemInput{OrderID: created.ID, Name: "Cable", Quantity: 4, Price: 5})
	require.NoError(t, err)
	require.Len(t, updated.Items, 2)

	updated, err = oc.UpdateOrder(ctx, UpdateOrderInput{
		ID:     created.ID,
		Title:  "Badge readers (lobby)",
		Status: "PENDING",
		Items:  []UpdateOrderItemInput{{ID: updated.Items[0].ID, Name: "Reader", Quantity: 2, Price: 80}},
	})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", updated.Status)
	assert.Len(t, updated.Items, 1)
	assert.Equal(t, 160.0, updated.Total)

	_, err = oc.DeleteOrder(ctx, created.ID)
	var gqlErr *GraphQLError
	require.True(t, errors.As(err, &gqlErr))
	assert.True(t, gqlErr.HasCode("FORBIDDEN"))

	_, err = authc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	deleted, err := oc.DeleteOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = oc.DeleteOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

func TestNotificationsClientReconnects(t *testing.T) {
	hub := relay.NewHub(zerolog.Nop())
	srv := httptest.NewServer(relay.NewServer(hub, config.RelayConfig{}, "test", zerolog.Nop()).Router())
	t.Cleanup(srv.Close)

	nc, err := NewNotificationsClient(srv.URL+"/hubs/notifications", staticToken("tok"),
		WithReconnectDelays(0, 20*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = nc.Close() })

	var mu sync.Mutex
	var got []Notification
	nc.On("OrderUpdated", func(n Notification) {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
	})

	require.NoError(t, nc.JoinOrderGroup(context.Background(), "order-1"))
	assert.Equal(t, StateConnected, nc.State())
	require.Eventually(t, func() bool { return hub.Members("order-order-1") == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Close()
	require.Eventually(t, func() bool {
		return nc.State() == StateConnected && hub.Members("order-order-1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, hub.Broadcast("OrderUpdated", "order-order-1", map[string]string{"id": "order-1"}))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	var payload struct{ ID string }
	require.NoError(t, got[0].Decode(&payload))
	assert.Equal(t, "order-1", payload.ID)

	require.NoError(t, nc.LeaveOrderGroup(context.Background(), "order-1"))
	require.Eventually(t, func() bool { return hub.Members("order-order-1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestNotificationsClientGivesUp(t *testing.T) {
	hub := relay.NewHub(zerolog.Nop())
	srv := httptest.NewServer(relay.NewServer(hub, config.RelayConfig{}, "test", zerolog.Nop()).Router())

	nc, err := NewNotificationsClient(srv.URL+"/hubs/notifications", nil,
		WithReconnectDelays(0, 10*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = nc.Close() })

	var mu sync.Mutex
	var states []ConnectionState
	nc.OnStateChange(func(s ConnectionState) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})
	require.NoError(t, nc.Start(context.Background()))

	srv.Close()
	hub.Close()

	require.Eventually(t, func() bool { return nc.State() == StateDisconnected }, 2*time.Second, 10*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []ConnectionState{StateConnected, StateReconnecting, StateDisconnected}, states)
}

// Reconnect attempts against a relay that accepts connections but never
// completes the handshake time out one by one instead of hanging.
func TestNotificationsClientBoundsReconnectDials(t *testing.T) {
	hub := relay.NewHub(zerolog.Nop())
	router := relay.NewServer(hub, config.RelayConfig{}, "test", zerolog.Nop()).Router()
	release := make(chan struct{})
	var stalled atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if stalled.Load() {
			<-release
			return
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	nc, err := NewNotificationsClient(srv.URL+"/hubs/notifications", nil,
		WithReconnectDelays(0, 10*time.Millisecond), WithDialTimeout(50*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = nc.Close() })

	require.NoError(t, nc.Start(context.Background()))
	stalled.Store(true)
	hub.Close()

	require.Eventually(t, func() bool { return nc.State() == StateDisconnected }, 2*time.Second, 10*time.Millisecond)
}

func TestNotificationsClientURL(t *testing.T) {
	nc, err := NewNotificationsClient("", nil)
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:5000/hubs/notifications", nc.hubURL)

	nc, err = NewNotificationsClient("https://relay.example/hubs/notifications", nil)
	require.NoError(t, err)
	assert.Equal(t, "wss://relay.example/hubs/notifications", nc.hubURL)

	_, err = NewNotificationsClient("ftp://relay.example", nil)
	assert.Error(t, err)
}
