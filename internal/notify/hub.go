package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Broadcaster is the in-process side of the relay.
type Broadcaster interface {
	// Broadcast delivers to every member of group and returns how many
	// connections received it.
	Broadcast(method, group string, data any) int
}

type hubSender struct {
	hub Broadcaster
}

// NewHub delivers straight into an in-process relay hub.
func NewHub(hub Broadcaster, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{sender: hubSender{hub: hub}, logger: logger}
}

func (s hubSender) send(ctx context.Context, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.hub.Broadcast(env.Method, env.Group, env.Data)
	return nil
}
