// Package relay is the notification relay: a websocket hub where browsers
// join per-order groups and the orders API broadcasts changes.
//
// Clients speak a small JSON protocol over one websocket:
//
//	→ {"method":"JoinOrderGroup","orderId":"order-1"}
//	← {"method":"JoinedGroup","group":"order-order-1"}
//	← {"method":"OrderUpdated","group":"order-order-1","data":{...}}
//
// Broadcasts enter either through POST /api/broadcast or, in the all-in-one
// server, by calling Hub.Broadcast directly.
package relay

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/leviettung200/ByteDefence/internal/metrics"
)

// Protocol method names.
const (
	MethodJoinOrderGroup  = "JoinOrderGroup"
	MethodLeaveOrderGroup = "LeaveOrderGroup"
	MethodJoinedGroup     = "JoinedGroup"
	MethodLeftGroup       = "LeftGroup"
	MethodError           = "Error"
)

// Message is one frame in either direction.
type Message struct {
	Method  string          `json:"method"`
	OrderID string          `json:"orderId,omitempty"`
	Group   string          `json:"group,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Hub tracks connections and their group memberships.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]*conn
	groups map[string]map[string]*conn
	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		conns:  make(map[string]*conn),
		groups: make(map[string]map[string]*conn),
		logger: logger.With().Str("component", "relay").Logger(),
	}
}

func (h *Hub) register(c *conn) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
	metrics.RelayConnections.Inc()
	h.logger.Debug().Str("connection_id", c.id).Msg("client connected")
}

// unregister drops c from every group it joined.
func (h *Hub) unregister(c *conn) {
	h.mu.Lock()
	if _, ok := h.conns[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, c.id)
	for group, members := range h.groups {
		delete(members, c.id)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
	h.mu.Unlock()
	metrics.RelayConnections.Dec()
	h.logger.Debug().Str("connection_id", c.id).Msg("client disconnected")
}

func (h *Hub) join(c *conn, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]*conn)
		h.groups[group] = members
	}
	members[c.id] = c
}

func (h *Hub) leave(c *conn, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		return
	}
	delete(members, c.id)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

// Broadcast sends method and data to every member of group and returns how
// many connections accepted the frame. Slow members are disconnected.
func (h *Hub) Broadcast(method, group string, data any) int {
	raw, err := json.Marshal(data)
	if err != nil {
		h.logger.Warn().Err(err).Str("method", method).Msg("encode broadcast payload")
		return 0
	}
	frame, err := json.Marshal(Message{Method: method, Group: group, Data: raw})
	if err != nil {
		h.logger.Warn().Err(err).Str("method", method).Msg("encode broadcast frame")
		return 0
	}

	h.mu.RLock()
	members := make([]*conn, 0, len(h.groups[group]))
	for _, c := range h.groups[group] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range members {
		if c.enqueue(frame) {
			delivered++
			continue
		}
		metrics.RelayDroppedTotal.Inc()
		h.logger.Warn().Str("connection_id", c.id).Str("group", group).Msg("send buffer full, dropping client")
		c.close()
	}
	metrics.RelayBroadcastsTotal.WithLabelValues(method).Inc()
	h.logger.Debug().Str("method", method).Str("group", group).Int("delivered", delivered).Msg("broadcast")
	return delivered
}

// Members reports the size of group.
func (h *Hub) Members(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// Connections reports the number of open connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*conn, 0, len(h.conns))
	for _, c := range h.conns {
		all = append(all, c)
	}
	h.mu.RUnlock()
	for _, c := range all {
		c.close()
	}
}
