// Package orders is the ByteDefence order management GraphQL schema.
//
// Mutations are guarded by role: create, update and add-item need User,
// delete needs Admin. Errors leave the resolvers classified into
// UNAUTHENTICATED, FORBIDDEN, BAD_REQUEST or SERVER_ERROR.
package orders

import (
	"context"
	_ "embed"
	"strings"

	graphql "github.com/graph-gophers/graphql-go"
	gqlotel "github.com/graph-gophers/graphql-go/trace/otel"

	"github.com/leviettung200/ByteDefence/internal/auth"
	domain "github.com/leviettung200/ByteDefence/internal/domain/orders"
	"github.com/leviettung200/ByteDefence/internal/graphql/gqlutil"
)

//go:embed schema.graphql
var schemaSDL string

func SDL() string {
	return schemaSDL
}

const maxDepth = 10

// Users resolves the caller's account from a token principal.
type Users interface {
	UserFromPrincipal(p *auth.Principal) *auth.User
}

type Resolver struct {
	svc   *domain.Service
	users Users
}

func NewSchema(svc *domain.Service, users Users, opts ...graphql.SchemaOpt) (*graphql.Schema, error) {
	base := []graphql.SchemaOpt{
		graphql.MaxDepth(maxDepth),
		graphql.Tracer(gqlotel.DefaultTracer()),
	}
	return graphql.ParseSchema(schemaSDL, &Resolver{svc: svc, users: users}, append(base, opts...)...)
}

func (r *Resolver) Orders(ctx context.Context, args struct {
	Where *OrderFilterInput
	Order *[]OrderSortInput
}) ([]*orderResolver, error) {
	list, err := r.svc.Orders(ctx, domain.OrderQuery{
		Where: args.Where.filter(),
		Order: gqlutil.Sorts(args.Order, (*OrderSortInput).sorts),
	})
	if err != nil {
		return nil, classify(err)
	}
	out := make([]*orderResolver, len(list))
	for i := range list {
		out[i] = &orderResolver{o: list[i]}
	}
	return out, nil
}

func (r *Resolver) Order(ctx context.Context, args struct{ ID string }) (*orderResolver, error) {
	order, err := r.svc.Order(ctx, args.ID)
	if err != nil {
		return nil, classify(err)
	}
	if order == nil {
		return nil, nil
	}
	return &orderResolver{o: *order}, nil
}

func (r *Resolver) OrderStats(ctx context.Context) (*statsResolver, error) {
	stats, err := r.svc.Statistics(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return &statsResolver{s: stats}, nil
}

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	user := r.users.UserFromPrincipal(auth.PrincipalFrom(ctx))
	if user == nil {
		return nil, errUnauthenticated
	}
	return &userResolver{u: toDomainUser(*user)}, nil
}

func (r *Resolver) CreateOrder(ctx context.Context, args struct{ Input CreateOrderInput }) (*orderResolver, error) {
	user, err := r.caller(ctx, auth.RoleUser)
	if err != nil {
		return nil, err
	}
	order, err := r.svc.CreateOrder(ctx, args.Input.domain(), user)
	if err != nil {
		return nil, classify(err)
	}
	return &orderResolver{o: *order}, nil
}

func (r *Resolver) UpdateOrder(ctx context.Context, args struct{ Input UpdateOrderInput }) (*orderResolver, error) {
	user, err := r.caller(ctx, auth.RoleUser)
	if err != nil {
		return nil, err
	}
	order, err := r.svc.UpdateOrder(ctx, args.Input.domain(), user)
	if err != nil {
		return nil, classify(err)
	}
	return &orderResolver{o: *order}, nil
}

func (r *Resolver) DeleteOrder(ctx context.Context, args struct{ ID string }) (bool, error) {
	if _, err := requireRole(ctx, auth.RoleAdmin); err != nil {
		return false, err
	}
	deleted, err := r.svc.DeleteOrder(ctx, args.ID)
	if err != nil {
		return false, classify(err)
	}
	return deleted, nil
}

func (r *Resolver) AddOrderItem(ctx context.Context, args struct{ Input AddOrderItemInput }) (*orderResolver, error) {
	user, err := r.caller(ctx, auth.RoleUser)
	if err != nil {
		return nil, err
	}
	order, err := r.svc.AddOrderItem(ctx, args.Input.domain(), user)
	if err != nil {
		return nil, classify(err)
	}
	return &orderResolver{o: *order}, nil
}

// caller applies the role guard and then resolves the directory account.
func (r *Resolver) caller(ctx context.Context, role auth.Role) (domain.User, error) {
	p, err := requireRole(ctx, role)
	if err != nil {
		return domain.User{}, err
	}
	user := r.users.UserFromPrincipal(p)
	if user == nil {
		return domain.User{}, errUnauthenticated
	}
	return toDomainUser(*user), nil
}

func toDomainUser(u auth.User) domain.User {
	role := domain.RoleUser
	if auth.IsAdmin(u.Role) {
		role = domain.RoleAdmin
	}
	return domain.User{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName, Role: role}
}

type orderResolver struct {
	o domain.Order
}

func (o *orderResolver) ID() graphql.ID              { return graphql.ID(o.o.ID) }
func (o *orderResolver) Title() string               { return o.o.Title }
func (o *orderResolver) Status() string              { return string(o.o.Status) }
func (o *orderResolver) CreatedAt() gqlutil.DateTime { return gqlutil.NewDateTime(o.o.CreatedAt) }
func (o *orderResolver) UpdatedAt() gqlutil.DateTime { return gqlutil.NewDateTime(o.o.UpdatedAt) }
func (o *orderResolver) CreatedByUserID() string     { return o.o.CreatedByUserID }
func (o *orderResolver) Total() float64              { return o.o.Total() }

func (o *orderResolver) CreatedBy() *userResolver {
	if o.o.CreatedBy == nil {
		return nil
	}
	return &userResolver{u: *o.o.CreatedBy}
}

func (o *orderResolver) Items() *[]*itemResolver {
	items := make([]*itemResolver, len(o.o.Items))
	for i := range o.o.Items {
		items[i] = &itemResolver{i: o.o.Items[i]}
	}
	return &items
}

type itemResolver struct {
	i domain.OrderItem
}

func (i *itemResolver) ID() graphql.ID     { return graphql.ID(i.i.ID) }
func (i *itemResolver) OrderID() string    { return i.i.OrderID }
func (i *itemResolver) Name() string       { return i.i.Name }
func (i *itemResolver) Quantity() int32    { return int32(i.i.Quantity) }
func (i *itemResolver) Price() float64     { return i.i.Price }
func (i *itemResolver) LineTotal() float64 { return i.i.LineTotal() }

type userResolver struct {
	u domain.User
}

func (u *userResolver) ID() graphql.ID      { return graphql.ID(u.u.ID) }
func (u *userResolver) Username() string    { return u.u.Username }
func (u *userResolver) DisplayName() string { return u.u.DisplayName }
func (u *userResolver) Role() string        { return strings.ToUpper(string(u.u.Role)) }

type statsResolver struct {
	s domain.Statistics
}

func (s *statsResolver) Draft() int32     { return int32(s.s.Draft) }
func (s *statsResolver) Pending() int32   { return int32(s.s.Pending) }
func (s *statsResolver) Approved() int32  { return int32(s.s.Approved) }
func (s *statsResolver) Completed() int32 { return int32(s.s.Completed) }
func (s *statsResolver) Cancelled() int32 { return int32(s.s.Cancelled) }
func (s *statsResolver) Total() int32     { return int32(s.s.Total()) }
