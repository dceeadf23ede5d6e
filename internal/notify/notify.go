// Package notify fans order changes out to the notification relay.
//
// Every notifier implements orders.Notifier. Delivery is best effort: failures
// are logged and counted, never returned to the caller.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/leviettung200/ByteDefence/internal/config"
	"github.com/leviettung200/ByteDefence/internal/domain/orders"
	"github.com/leviettung200/ByteDefence/internal/metrics"
)

// Method names pushed to relay clients.
const (
	MethodOrderCreated = "OrderCreated"
	MethodOrderUpdated = "OrderUpdated"
	MethodOrderDeleted = "OrderDeleted"
)

// Envelope is the body accepted by the relay broadcast endpoint.
type Envelope struct {
	Method string `json:"method"`
	Group  string `json:"group"`
	Data   any    `json:"data"`
}

// OrderPayload is the JSON form of an order delivered to subscribers.
type OrderPayload struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Status          string        `json:"status"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
	CreatedByUserID string        `json:"createdByUserId"`
	CreatedBy       *UserPayload  `json:"createdBy,omitempty"`
	Items           []ItemPayload `json:"items"`
	Total           float64       `json:"total"`
}

type UserPayload struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

type ItemPayload struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"orderId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	LineTotal float64 `json:"lineTotal"`
}

// DeletedPayload is sent for OrderDeleted.
type DeletedPayload struct {
	ID string `json:"id"`
}

// GroupFor names the relay group that follows one order.
func GroupFor(orderID string) string {
	return "order-" + orderID
}

func NewOrderPayload(o orders.Order) OrderPayload {
	p := OrderPayload{
		ID:              o.ID,
		Title:           o.Title,
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		CreatedByUserID: o.CreatedByUserID,
		Items:           make([]ItemPayload, 0, len(o.Items)),
		Total:           o.Total(),
	}
	if o.CreatedBy != nil {
		p.CreatedBy = &UserPayload{
			ID:          o.CreatedBy.ID,
			Username:    o.CreatedBy.Username,
			DisplayName: o.CreatedBy.DisplayName,
			Role:        string(o.CreatedBy.Role),
		}
	}
	for _, item := range o.Items {
		p.Items = append(p.Items, ItemPayload{
			ID:        item.ID,
			OrderID:   item.OrderID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
			LineTotal: item.LineTotal(),
		})
	}
	return p
}

// sender delivers one envelope. Errors become logs and metrics in Dispatcher.
type sender interface {
	send(ctx context.Context, env Envelope) error
}

// Dispatcher adapts a sender to orders.Notifier.
type Dispatcher struct {
	sender  sender
	logger  zerolog.Logger
	timeout time.Duration
}

func (d *Dispatcher) OrderCreated(ctx context.Context, o orders.Order) {
	d.dispatch(ctx, Envelope{Method: MethodOrderCreated, Group: GroupFor(o.ID), Data: NewOrderPayload(o)})
}

func (d *Dispatcher) OrderUpdated(ctx context.Context, o orders.Order) {
	d.dispatch(ctx, Envelope{Method: MethodOrderUpdated, Group: GroupFor(o.ID), Data: NewOrderPayload(o)})
}

func (d *Dispatcher) OrderDeleted(ctx context.Context, id string) {
	d.dispatch(ctx, Envelope{Method: MethodOrderDeleted, Group: GroupFor(id), Data: DeletedPayload{ID: id}})
}

// dispatch detaches from the request context so a client disconnect does not
// abort delivery of a change that was already stored.
func (d *Dispatcher) dispatch(ctx context.Context, env Envelope) {
	ctx = context.WithoutCancel(ctx)
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.sender.send(ctx, env); err != nil {
		metrics.NotificationsSentTotal.WithLabelValues(env.Method, "failed").Inc()
		d.logger.Warn().Err(err).Str("method", env.Method).Str("group", env.Group).Msg("notification broadcast failed")
		return
	}
	metrics.NotificationsSentTotal.WithLabelValues(env.Method, "sent").Inc()
	d.logger.Debug().Str("method", env.Method).Str("group", env.Group).Msg("notification broadcast")
}

// Noop drops every notification. Used for modes "azure" and "none".
type Noop struct{}

func (Noop) OrderCreated(context.Context, orders.Order) {
	metrics.NotificationsSentTotal.WithLabelValues(MethodOrderCreated, "skipped").Inc()
}

func (Noop) OrderUpdated(context.Context, orders.Order) {
	metrics.NotificationsSentTotal.WithLabelValues(MethodOrderUpdated, "skipped").Inc()
}

func (Noop) OrderDeleted(context.Context, string) {
	metrics.NotificationsSentTotal.WithLabelValues(MethodOrderDeleted, "skipped").Inc()
}

var (
	_ orders.Notifier = (*Dispatcher)(nil)
	_ orders.Notifier = Noop{}
)

// New picks the notifier for cfg.Mode. hub, when non-nil, takes precedence
// over HTTP delivery in "local" mode.
func New(cfg config.NotificationsConfig, hub Broadcaster, logger zerolog.Logger) (orders.Notifier, error) {
	logger = logger.With().Str("component", "notify").Str("mode", cfg.Mode).Logger()
	switch cfg.Mode {
	case "", "local":
		if hub != nil {
			logger.Info().Msg("delivering notifications to in-process relay")
			return NewHub(hub, logger), nil
		}
		logger.Info().Str("hub_url", cfg.HubURL).Msg("delivering notifications over HTTP")
		return NewLocal(cfg.HubURL, logger, WithAccessKey(cfg.AccessKey), WithTimeout(cfg.Timeout)), nil
	case "azure":
		logger.Warn().Msg("azure notification mode has no Go transport; notifications are disabled")
		return Noop{}, nil
	case "none":
		return Noop{}, nil
	}
	return nil, fmt.Errorf("unknown notification mode %q", cfg.Mode)
}
