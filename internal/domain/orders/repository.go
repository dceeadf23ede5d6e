package orders

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("order not found")

// ItemChanges is the item diff applied by UpdateOrder.
type ItemChanges struct {
	Added   []OrderItem
	Updated []OrderItem
	Removed []string
}

func (c ItemChanges) Empty() bool {
	return len(c.Added) == 0 && len(c.Updated) == 0 && len(c.Removed) == 0
}

// Repository persists orders. Reads return orders with Items and CreatedBy loaded.
type Repository interface {
	ListOrders(ctx context.Context, q OrderQuery) ([]Order, error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	CreateOrder(ctx context.Context, order Order) error
	// UpdateOrder stores the order row and applies changes atomically.
	UpdateOrder(ctx context.Context, order Order, changes ItemChanges) error
	// DeleteOrder removes the order and its items.
	DeleteOrder(ctx context.Context, id string) error
	Statistics(ctx context.Context) (Statistics, error)
}
