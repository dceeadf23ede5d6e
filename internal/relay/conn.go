package relay

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 32
)

// conn is one websocket client. Only writePump writes to ws.
type conn struct {
	id   string
	hub  *Hub
	ws   *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newConn(id string, hub *Hub, ws *websocket.Conn) *conn {
	return &conn{
		id:   id,
		hub:  hub,
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// enqueue never blocks; false means the buffer is full.
func (c *conn) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *conn) reply(msg Message) {
	frame, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if !c.enqueue(frame) {
		c.close()
	}
}

func (c *conn) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug().Err(err).Str("connection_id", c.id).Msg("read failed")
			}
			return
		}
		c.handle(data)
	}
}

func (c *conn) handle(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply(Message{Method: MethodError, Error: "invalid message"})
		return
	}

	switch msg.Method {
	case MethodJoinOrderGroup, MethodLeaveOrderGroup:
		orderID := strings.TrimSpace(msg.OrderID)
		if orderID == "" {
			c.reply(Message{Method: MethodError, Error: "orderId is required"})
			return
		}
		group := "order-" + orderID
		if msg.Method == MethodJoinOrderGroup {
			c.hub.join(c, group)
			c.reply(Message{Method: MethodJoinedGroup, Group: group})
			return
		}
		c.hub.leave(c, group)
		c.reply(Message{Method: MethodLeftGroup, Group: group})
	default:
		c.reply(Message{Method: MethodError, Error: "unknown method " + msg.Method})
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
