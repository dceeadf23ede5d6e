package orders

import (
	domain "github.com/leviettung200/ByteDefence/internal/domain/orders"
	"github.com/leviettung200/ByteDefence/internal/domain/query"
	"github.com/leviettung200/ByteDefence/internal/graphql/gqlutil"
)

type OrderFilterInput struct {
	And             *[]OrderFilterInput
	Or              *[]OrderFilterInput
	ID              *gqlutil.StringOperationFilterInput
	Title           *gqlutil.StringOperationFilterInput
	Status          *gqlutil.EnumOperationFilterInput
	CreatedByUserID *gqlutil.StringOperationFilterInput
	CreatedAt       *gqlutil.DateTimeOperationFilterInput
	UpdatedAt       *gqlutil.DateTimeOperationFilterInput
}

func (in *OrderFilterInput) filter() *domain.OrderFilter {
	if in == nil {
		return nil
	}
	return &domain.OrderFilter{
		And:             gqlutil.Nested(in.And, (*OrderFilterInput).filter),
		Or:              gqlutil.Nested(in.Or, (*OrderFilterInput).filter),
		ID:              in.ID.Filter(),
		Title:           in.Title.Filter(),
		Status:          gqlutil.EnumFilter[domain.Status](in.Status),
		CreatedByUserID: in.CreatedByUserID.Filter(),
		CreatedAt:       in.CreatedAt.Filter(),
		UpdatedAt:       in.UpdatedAt.Filter(),
	}
}

type OrderSortInput struct {
	ID              *string
	Title           *string
	Status          *string
	CreatedByUserID *string
	CreatedAt       *string
	UpdatedAt       *string
}

func (in *OrderSortInput) sorts() []query.Sort {
	var out []query.Sort
	out = gqlutil.Sort(out, "id", in.ID)
	out = gqlutil.Sort(out, "title", in.Title)
	out = gqlutil.Sort(out, "status", in.Status)
	out = gqlutil.Sort(out, "createdByUserId", in.CreatedByUserID)
	out = gqlutil.Sort(out, "createdAt", in.CreatedAt)
	out = gqlutil.Sort(out, "updatedAt", in.UpdatedAt)
	return out
}

type CreateOrderInput struct {
	Title  string
	Status *string
	Items  *[]CreateOrderItemInput
}

type CreateOrderItemInput struct {
	Name     string
	Quantity int32
	Price    float64
}

func (in CreateOrderInput) domain() domain.CreateOrderInput {
	out := domain.CreateOrderInput{Title: in.Title}
	if in.Status != nil {
		out.Status = domain.Status(*in.Status)
	}
	if in.Items != nil {
		for _, item := range *in.Items {
			out.Items = append(out.Items, domain.CreateOrderItemInput{
				Name:     item.Name,
				Quantity: int(item.Quantity),
				Price:    item.Price,
			})
		}
	}
	return out
}

type UpdateOrderInput struct {
	ID     string
	Title  string
	Status *string
	Items  *[]UpdateOrderItemInput
}

type UpdateOrderItemInput struct {
	ID       *string
	Name     string
	Quantity int32
	Price    float64
}

func (in UpdateOrderInput) domain() domain.UpdateOrderInput {
	out := domain.UpdateOrderInput{ID: in.ID, Title: in.Title}
	if in.Status != nil {
		out.Status = domain.Status(*in.Status)
	}
	if in.Items != nil {
		for _, item := range *in.Items {
			var id string
			if item.ID != nil {
				id = *item.ID
			}
			out.Items = append(out.Items, domain.UpdateOrderItemInput{
				ID:       id,
				Name:     item.Name,
				Quantity: int(item.Quantity),
				Price:    item.Price,
			})
		}
	}
	return out
}

type AddOrderItemInput struct {
	OrderID  string
	Name     string
	Quantity int32
	Price    float64
}

func (in AddOrderItemInput) domain() domain.AddOrderItemInput {
	return domain.AddOrderItemInput{
		OrderID:  in.OrderID,
		Name:     in.Name,
		Quantity: int(in.Quantity),
		Price:    in.Price,
	}
}
