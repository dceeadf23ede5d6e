package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/leviettung200/ByteDefence/internal/domain/orders"
	"github.com/leviettung200/ByteDefence/internal/domain/query"
)

var _ orders.Repository = (*OrderRepository)(nil)

type OrderRepository struct {
	mu     sync.RWMutex
	users  map[string]orders.User
	orders []orders.Order
}

func NewOrderRepository() *OrderRepository {
	return NewOrderRepositoryWith(orders.SeedData{})
}

func NewSeededOrderRepository() *OrderRepository {
	return NewOrderRepositoryWith(orders.Seed(time.Now().UTC()))
}

func NewOrderRepositoryWith(seed orders.SeedData) *OrderRepository {
	r := &OrderRepository{
		users:  lo.KeyBy(seed.Users, func(u orders.User) string { return u.ID }),
		orders: make([]orders.Order, 0, len(seed.Orders)),
	}
	for _, o := range seed.Orders {
		r.orders = append(r.orders, cloneOrder(o))
	}
	return r
}

// AddUser registers a user so orders created by them resolve CreatedBy.
func (r *OrderRepository) AddUser(u orders.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

func (r *OrderRepository) ListOrders(_ context.Context, q orders.OrderQuery) ([]orders.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := lo.FilterMap(r.orders, func(o orders.Order, _ int) (orders.Order, bool) {
		if !q.Where.Match(o) {
			return orders.Order{}, false
		}
		return r.hydrate(o), true
	})
	query.Apply(out, q.Order, orders.CompareOrders)
	return out, nil
}

func (r *OrderRepository) GetOrder(_ context.Context, id string) (*orders.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := lo.Find(r.orders, func(o orders.Order) bool { return o.ID == id })
	if !ok {
		return nil, orders.ErrNotFound
	}
	hydrated := r.hydrate(o)
	return &hydrated, nil
}

func (r *OrderRepository) CreateOrder(_ context.Context, order orders.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lo.ContainsBy(r.orders, func(o orders.Order) bool { return o.ID == order.ID }) {
		return fmt.Errorf("memory: order %s already exists", order.ID)
	}
	order.CreatedBy = nil
	r.orders = append(r.orders, cloneOrder(order))
	return nil
}

func (r *OrderRepository) UpdateOrder(_ context.Context, order orders.Order, changes orders.ItemChanges) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, idx, ok := lo.FindIndexOf(r.orders, func(o orders.Order) bool { return o.ID == order.ID })
	if !ok {
		return orders.ErrNotFound
	}

	stored := r.orders[idx]
	stored.Title = order.Title
	stored.Status = order.Status
	stored.UpdatedAt = order.UpdatedAt

	removed := lo.Keyify(changes.Removed)
	items := lo.Reject(stored.Items, func(item orders.OrderItem, _ int) bool {
		_, gone := removed[item.ID]
		return gone
	})
	updated := lo.KeyBy(changes.Updated, func(item orders.OrderItem) string { return item.ID })
	for i := range items {
		if item, ok := updated[items[i].ID]; ok {
			items[i] = item
		}
	}
	stored.Items = append(items, changes.Added...)
	r.orders[idx] = stored
	return nil
}

func (r *OrderRepository) DeleteOrder(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !lo.ContainsBy(r.orders, func(o orders.Order) bool { return o.ID == id }) {
		return orders.ErrNotFound
	}
	r.orders = lo.Reject(r.orders, func(o orders.Order, _ int) bool { return o.ID == id })
	return nil
}

func (r *OrderRepository) Statistics(_ context.Context) (orders.Statistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats orders.Statistics
	for status, n := range lo.CountValuesBy(r.orders, func(o orders.Order) orders.Status { return o.Status }) {
		stats.Add(status, n)
	}
	return stats, nil
}

func (r *OrderRepository) hydrate(o orders.Order) orders.Order {
	o = cloneOrder(o)
	if u, ok := r.users[o.CreatedByUserID]; ok {
		o.CreatedBy = &u
	}
	return o
}

func cloneOrder(o orders.Order) orders.Order {
	o.Items = slices.Clone(o.Items)
	return o
}
