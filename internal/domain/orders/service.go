// Package orders manages purchase orders and their line items.
//
// Every write broadcasts a notification through the Notifier after it is
// stored. Notification delivery is best effort and never fails the write.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/leviettung200/ByteDefence/internal/domain/ids"
)

// Notifier broadcasts order changes to connected clients.
type Notifier interface {
	OrderCreated(ctx context.Context, order Order)
	OrderUpdated(ctx context.Context, order Order)
	OrderDeleted(ctx context.Context, id string)
}

type CreateOrderInput struct {
	Title  string `validate:"required,max=120"`
	Status Status
	Items  []CreateOrderItemInput `validate:"dive"`
}

type CreateOrderItemInput struct {
	Name     string  `validate:"required,max=120"`
	Quantity int     `validate:"min=1"`
	Price    float64 `validate:"gte=0.01"`
}

type UpdateOrderInput struct {
	ID     string `validate:"required"`
	Title  string `validate:"required,max=120"`
	Status Status
	Items  []UpdateOrderItemInput `validate:"dive"`
}

// UpdateOrderItemInput with a blank or unknown ID is added as a new item.
type UpdateOrderItemInput struct {
	ID       string
	Name     string  `validate:"required,max=120"`
	Quantity int     `validate:"min=1"`
	Price    float64 `validate:"gte=0.01"`
}

type AddOrderItemInput struct {
	OrderID  string  `validate:"required"`
	Name     string  `validate:"required,max=120"`
	Quantity int     `validate:"min=1"`
	Price    float64 `validate:"gte=0.01"`
}

type Service struct {
	repo      Repository
	notifier  Notifier
	logger    zerolog.Logger
	validator *validator.Validate
	now       func() time.Time
}

func NewService(repo Repository, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		notifier:  notifier,
		logger:    logger.With().Str("component", "orders").Logger(),
		validator: validator.New(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Orders loads the orders and the status statistics concurrently.
// Without an explicit order the newest orders come first.
func (s *Service) Orders(ctx context.Context, q OrderQuery) ([]Order, error) {
	if len(q.Order) == 0 {
		q.Order = DefaultOrder
	}

	var (
		list  []Order
		stats Statistics
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = s.repo.ListOrders(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.repo.Statistics(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	s.logger.Info().
		Int("draft", stats.Draft).
		Int("pending", stats.Pending).
		Int("approved", stats.Approved).
		Int("completed", stats.Completed).
		Int("cancelled", stats.Cancelled).
		Int("total", stats.Total()).
		Msg("order stats")
	return list, nil
}

// Order returns nil without error when id is unknown.
func (s *Service) Order(ctx context.Context, id string) (*Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return order, err
}

func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	return s.repo.Statistics(ctx)
}

func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput, user User) (*Order, error) {
	if input.Status == "" {
		input.Status = StatusDraft
	}
	if err := s.validate(input); err != nil {
		return nil, err
	}
	if !input.Status.Valid() {
		return nil, &ValidationError{Field: "status", Message: "unknown order status"}
	}

	now := s.now()
	order := Order{
		ID:              ids.New(),
		Title:           input.Title,
		Status:          input.Status,
		CreatedAt:       now,
		UpdatedAt:       now,
		CreatedByUserID: user.ID,
		Items:           make([]OrderItem, 0, len(input.Items)),
	}
	for _, item := range input.Items {
		order.Items = append(order.Items, OrderItem{
			ID:       ids.New(),
			OrderID:  order.ID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.logger.Info().Str("order_id", order.ID).Str("user_id", user.ID).Int("items", len(order.Items)).Msg("order created")

	s.notifier.OrderCreated(ctx, order)
	return s.reload(ctx, order), nil
}

// UpdateOrder replaces the title and status and reconciles the item list by id.
func (s *Service) UpdateOrder(ctx context.Context, input UpdateOrderInput, user User) (*Order, error) {
	if input.Status == "" {
		input.Status = StatusPending
	}
	if err := s.validate(input); err != nil {
		return nil, err
	}
	if !input.Status.Valid() {
		return nil, &ValidationError{Field: "status", Message: "unknown order status"}
	}

	order, err := s.repo.GetOrder(ctx, input.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{ID: input.ID}
		}
		return nil, fmt.Errorf("lookup order: %w", err)
	}

	order.Title = input.Title
	order.Status = input.Status
	order.UpdatedAt = s.now()

	var changes ItemChanges
	order.Items, changes = Reconcile(order.ID, order.Items, input.Items)

	if err := s.repo.UpdateOrder(ctx, *order, changes); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	s.logger.Info().
		Str("order_id", order.ID).
		Str("user_id", user.ID).
		Int("added", len(changes.Added)).
		Int("updated", len(changes.Updated)).
		Int("removed", len(changes.Removed)).
		Msg("order updated")

	s.notifier.OrderUpdated(ctx, *order)
	return s.reload(ctx, *order), nil
}

// DeleteOrder reports false when the order does not exist.
func (s *Service) DeleteOrder(ctx context.Context, id string) (bool, error) {
	if err := s.repo.DeleteOrder(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("delete order: %w", err)
	}
	s.logger.Info().Str("order_id", id).Msg("order deleted")

	s.notifier.OrderDeleted(ctx, id)
	return true, nil
}

func (s *Service) AddOrderItem(ctx context.Context, input AddOrderItemInput, user User) (*Order, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	order, err := s.repo.GetOrder(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{ID: input.OrderID}
		}
		return nil, fmt.Errorf("lookup order: %w", err)
	}

	item := OrderItem{
		ID:       ids.New(),
		OrderID:  order.ID,
		Name:     input.Name,
		Quantity: input.Quantity,
		Price:    input.Price,
	}
	order.Items = append(order.Items, item)
	order.UpdatedAt = s.now()

	if err := s.repo.UpdateOrder(ctx, *order, ItemChanges{Added: []OrderItem{item}}); err != nil {
		return nil, fmt.Errorf("add order item: %w", err)
	}
	s.logger.Info().Str("order_id", order.ID).Str("item_id", item.ID).Str("user_id", user.ID).Msg("order item added")

	s.notifier.OrderUpdated(ctx, *order)
	return s.reload(ctx, *order), nil
}

// Reconcile merges input into existing: items missing from input are removed,
// items matching by id are updated and the rest are added. A blank input id
// gets a generated one.
func Reconcile(orderID string, existing []OrderItem, input []UpdateOrderItemInput) ([]OrderItem, ItemChanges) {
	var changes ItemChanges

	wanted := make(map[string]struct{}, len(input))
	for _, in := range input {
		wanted[in.ID] = struct{}{}
	}
	current := make(map[string]int, len(existing))
	for i, item := range existing {
		if _, keep := wanted[item.ID]; !keep {
			changes.Removed = append(changes.Removed, item.ID)
			continue
		}
		current[item.ID] = i
	}

	out := make([]OrderItem, 0, len(input))
	used := make(map[string]struct{}, len(input))
	for _, in := range input {
		if idx, ok := current[in.ID]; ok {
			delete(current, in.ID)
			item := existing[idx]
			item.Name = in.Name
			item.Quantity = in.Quantity
			item.Price = in.Price
			changes.Updated = append(changes.Updated, item)
			out = append(out, item)
			used[item.ID] = struct{}{}
			continue
		}
		id := ids.OrDefault(in.ID)
		if _, dup := used[id]; dup {
			id = ids.New()
		}
		used[id] = struct{}{}
		item := OrderItem{
			ID:       id,
			OrderID:  orderID,
			Name:     in.Name,
			Quantity: in.Quantity,
			Price:    in.Price,
		}
		changes.Added = append(changes.Added, item)
		out = append(out, item)
	}
	return out, changes
}

// reload re-reads the stored order so CreatedBy is populated, falling back to
// the in-memory copy.
func (s *Service) reload(ctx context.Context, order Order) *Order {
	stored, err := s.repo.GetOrder(ctx, order.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID).Msg("reload order after write")
		return &order
	}
	return stored
}

func (s *Service) validate(v any) error {
	err := s.validator.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{Field: strings.ToLower(fe.Field()), Message: fmt.Sprintf("failed %s validation", fe.Tag())}
	}
	return &ValidationError{Message: err.Error()}
}
