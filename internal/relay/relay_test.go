package relay

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leviettung200/ByteDefence/internal/config"
)

func newTestServer(t *testing.T, cfg config.RelayConfig) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(NewServer(hub, cfg, "test", zerolog.Nop()).Router())
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/hubs/notifications"
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, msg Message) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(msg))
}

func read(t *testing.T, ws *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, ws.ReadJSON(&msg))
	return msg
}

func postBroadcast(t *testing.T, srv *httptest.Server, key string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/broadcast", bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(AccessKeyHeader, key)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	_, srv := newTestServer(t, config.RelayConfig{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	assert.Equal(t, "ok", buf.String())
}

func TestJoinAndReceiveBroadcast(t *testing.T) {
	hub, srv := newTestServer(t, config.RelayConfig{})
	member := dial(t, srv, nil)
	outsider := dial(t, srv, nil)

	send(t, member, Message{Method: MethodJoinOrderGroup, OrderID: "order-1"})
	ack := read(t, member)
	assert.Equal(t, MethodJoinedGroup, ack.Method)
	assert.Equal(t, "order-order-1", ack.Group)
	require.Equal(t, 1, hub.Members("order-order-1"))

	resp := postBroadcast(t, srv, "", map[string]any{
		"method": "OrderUpdated",
		"group":  "order-order-1",
		"data":   map[string]any{"id": "order-1", "status": "APPROVED"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "sent", result["status"])
	assert.Equal(t, 1.0, result["delivered"])

	got := read(t, member)
	assert.Equal(t, "OrderUpdated", got.Method)
	assert.JSONEq(t, `{"id":"order-1","status":"APPROVED"}`, string(got.Data))

	// The outsider never joined, so the next thing it sees is its own error reply.
	send(t, outsider, Message{Method: "Bogus"})
	reply := read(t, outsider)
	assert.Equal(t, MethodError, reply.Method)
	assert.Contains(t, reply.Error, "Bogus")
}

func TestLeaveGroup(t *testing.T) {
	hub, srv := newTestServer(t, config.RelayConfig{})
	ws := dial(t, srv, nil)

	send(t, ws, Message{Method: MethodJoinOrderGroup, OrderID: "order-2"})
	read(t, ws)
	send(t, ws, Message{Method: MethodLeaveOrderGroup, OrderID: "order-2"})
	ack := read(t, ws)

	assert.Equal(t, MethodLeftGroup, ack.Method)
	assert.Equal(t, 0, hub.Members("order-order-2"))
	assert.Equal(t, 0, hub.Broadcast("OrderUpdated", "order-order-2", nil))
}

func TestJoinRequiresOrderID(t *testing.T) {
	_, srv := newTestServer(t, config.RelayConfig{})
	ws := dial(t, srv, nil)

	send(t, ws, Message{Method: MethodJoinOrderGroup, OrderID: "  "})
	reply := read(t, ws)
	assert.Equal(t, MethodError, reply.Method)
	assert.Equal(t, "orderId is required", reply.Error)
}

func TestDisconnectLeavesGroups(t *testing.T) {
	hub, srv := newTestServer(t, config.RelayConfig{})
	ws := dial(t, srv, nil)
	send(t, ws, Message{Method: MethodJoinOrderGroup, OrderID: "order-3"})
	read(t, ws)

	require.NoError(t, ws.Close())

	assert.Eventually(t, func() bool {
		return hub.Members("order-order-3") == 0 && hub.Connections() == 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestBroadcastValidation(t *testing.T) {
	_, srv := newTestServer(t, config.RelayConfig{})

	resp := postBroadcast(t, srv, "", map[string]any{"method": "OrderUpdated"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
}

func TestBroadcastAccessKey(t *testing.T) {
	_, srv := newTestServer(t, config.RelayConfig{AccessKey: "relay-secret"})
	body := map[string]any{"method": "OrderDeleted", "group": "order-order-1", "data": map[string]any{"id": "order-1"}}

	assert.Equal(t, http.StatusUnauthorized, postBroadcast(t, srv, "", body).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, postBroadcast(t, srv, "wrong", body).StatusCode)
	assert.Equal(t, http.StatusOK, postBroadcast(t, srv, "relay-secret", body).StatusCode)
}

func TestOriginCheck(t *testing.T) {
	_, srv := newTestServer(t, config.RelayConfig{AllowedOrigins: []string{"http://localhost:5001"}})
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/hubs/notifications"

	ws := dial(t, srv, http.Header{"Origin": []string{"http://localhost:5001"}})
	assert.NotNil(t, ws)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": []string{"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	c := &conn{id: "slow", hub: hub, send: make(chan []byte, 1), done: make(chan struct{})}
	// Mark the connection closed without a socket so close() has nothing to tear down.
	c.closeOnce.Do(func() {})
	hub.register(c)
	hub.join(c, "order-order-9")

	assert.Equal(t, 1, hub.Broadcast("OrderUpdated", "order-order-9", map[string]string{"id": "order-9"}))
	assert.Equal(t, 0, hub.Broadcast("OrderUpdated", "order-order-9", map[string]string{"id": "order-9"}))

	hub.unregister(c)
	assert.Equal(t, 0, hub.Members("order-order-9"))
}
