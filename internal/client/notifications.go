package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultReconnectDelays is the retry schedule after an unexpected
// disconnect. Once it is exhausted the client stays closed.
var DefaultReconnectDelays = []time.Duration{0, 2 * time.Second, 10 * time.Second, 30 * time.Second}

var ErrClosed = errors.New("notifications: connection closed")

type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
)

// Notification is a server push from the relay.
type Notification struct {
	Method string          `json:"method"`
	Group  string          `json:"group,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Decode unmarshals the payload, for example into an Order.
func (n Notification) Decode(v any) error {
	if len(n.Data) == 0 {
		return fmt.Errorf("notification %s has no data", n.Method)
	}
	return json.Unmarshal(n.Data, v)
}

type Handler func(Notification)

type outbound struct {
	Method  string `json:"method"`
	OrderID string `json:"orderId"`
}

// NotificationsClient keeps a websocket to the relay, re-joining its order
// groups after every reconnect.
type NotificationsClient struct {
	hubURL string
	tokens TokenSource
	opts   options
	dialer *websocket.Dialer

	mu       sync.Mutex
	ws       *websocket.Conn
	state    ConnectionState
	groups   map[string]struct{}
	handlers map[string][]Handler
	onState  []func(ConnectionState)
	closed   bool
	cancel   context.CancelFunc
	done     chan struct{}

	writeMu sync.Mutex
}

// NewNotificationsClient accepts an http(s) or ws(s) hub URL; http is
// rewritten to ws. tokens may be nil.
func NewNotificationsClient(hubURL string, tokens TokenSource, opts ...Option) (*NotificationsClient, error) {
	if hubURL == "" {
		hubURL = DefaultHubURL
	}
	u, err := url.Parse(hubURL)
	if err != nil {
		return nil, fmt.Errorf("parse hub url %q: %w", hubURL, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("hub url %q must be http(s) or ws(s)", hubURL)
	}
	return &NotificationsClient{
		hubURL:   u.String(),
		tokens:   tokens,
		opts:     newOptions(opts),
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		state:    StateDisconnected,
		groups:   make(map[string]struct{}),
		handlers: make(map[string][]Handler),
	}, nil
}

// On registers h for pushes with method, e.g. "OrderUpdated". Use "*" to
// receive everything.
func (c *NotificationsClient) On(method string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[method] = append(c.handlers[method], h)
}

// OnStateChange is called from the reader goroutine.
func (c *NotificationsClient) OnStateChange(fn func(ConnectionState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = append(c.onState, fn)
}

func (c *NotificationsClient) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start dials the relay. It is a no-op when already connected.
func (c *NotificationsClient) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.ws != nil || c.state == StateReconnecting {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	ws, err := c.dial(ctx)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	if c.closed || c.ws != nil {
		c.mu.Unlock()
		cancel()
		_ = ws.Close()
		return nil
	}
	c.ws = ws
	c.cancel = cancel
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()
	c.setState(StateConnected)

	go c.run(runCtx, ws, done)
	return nil
}

// JoinOrderGroup connects first when disconnected.
func (c *NotificationsClient) JoinOrderGroup(ctx context.Context, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return fmt.Errorf("order id is required")
	}
	if c.State() == StateDisconnected {
		if err := c.Start(ctx); err != nil {
			return err
		}
	}
	c.mu.Lock()
	c.groups[orderID] = struct{}{}
	c.mu.Unlock()
	return c.send(outbound{Method: "JoinOrderGroup", OrderID: orderID})
}

// LeaveOrderGroup only talks to the relay while connected.
func (c *NotificationsClient) LeaveOrderGroup(_ context.Context, orderID string) error {
	c.mu.Lock()
	delete(c.groups, orderID)
	c.mu.Unlock()
	if c.State() != StateConnected {
		return nil
	}
	return c.send(outbound{Method: "LeaveOrderGroup", OrderID: orderID})
}

// Close stops reconnecting and closes the socket.
func (c *NotificationsClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	ws, cancel, done := c.ws, c.cancel, c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if ws != nil {
		c.writeMu.Lock()
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = ws.Close()
	}
	if done != nil {
		<-done
	}
	c.setState(StateDisconnected)
	return nil
}

func (c *NotificationsClient) dial(ctx context.Context) (*websocket.Conn, error) {
	target := c.hubURL
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return nil, err
		}
		if token != "" {
			u, _ := url.Parse(target)
			q := u.Query()
			q.Set("access_token", token)
			u.RawQuery = q.Encode()
			target = u.String()
		}
	}

	ws, resp, err := c.dialer.DialContext(ctx, target, http.Header{})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("connect to relay: %w", err)
	}
	return ws, nil
}

func (c *NotificationsClient) send(msg outbound) error {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return ErrClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("send %s: %w", msg.Method, err)
	}
	return nil
}

// run reads until the socket fails, then walks the reconnect schedule.
func (c *NotificationsClient) run(ctx context.Context, ws *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		err := c.read(ws)
		if ctx.Err() != nil {
			return
		}
		c.opts.logger.Warn().Err(err).Msg("relay connection lost")

		c.mu.Lock()
		c.ws = nil
		c.mu.Unlock()
		c.setState(StateReconnecting)

		if ws = c.reconnect(ctx); ws == nil {
			if ctx.Err() == nil {
				c.setState(StateDisconnected)
			}
			return
		}
	}
}

func (c *NotificationsClient) reconnect(ctx context.Context) *websocket.Conn {
	for attempt, delay := range c.opts.delays {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		ws, err := c.dialAttempt(ctx)
		if err != nil {
			c.opts.logger.Debug().Err(err).Int("attempt", attempt+1).Msg("reconnect failed")
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = ws.Close()
			return nil
		}
		c.ws = ws
		groups := make([]string, 0, len(c.groups))
		for g := range c.groups {
			groups = append(groups, g)
		}
		c.mu.Unlock()

		c.setState(StateConnected)
		for _, g := range groups {
			if err := c.send(outbound{Method: "JoinOrderGroup", OrderID: g}); err != nil {
				c.opts.logger.Warn().Err(err).Str("order_id", g).Msg("rejoin failed")
			}
		}
		c.opts.logger.Info().Int("attempt", attempt+1).Int("groups", len(groups)).Msg("reconnected to relay")
		return ws
	}
	c.opts.logger.Warn().Msg("giving up on relay after reconnect schedule")
	return nil
}

// dialAttempt bounds one reconnect dial by the configured dial timeout.
func (c *NotificationsClient) dialAttempt(ctx context.Context) (*websocket.Conn, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.opts.dialTimeout)
	defer cancel()
	return c.dial(attemptCtx)
}

func (c *NotificationsClient) read(ws *websocket.Conn) error {
	for {
		var n Notification
		if err := ws.ReadJSON(&n); err != nil {
			return err
		}
		c.dispatch(n)
	}
}

func (c *NotificationsClient) dispatch(n Notification) {
	c.mu.Lock()
	hs := append(append([]Handler(nil), c.handlers[n.Method]...), c.handlers["*"]...)
	c.mu.Unlock()
	for _, h := range hs {
		h(n)
	}
}

func (c *NotificationsClient) setState(s ConnectionState) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	fns := slices.Clone(c.onState)
	c.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}
