package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// OrderFields is the selection used for every order returned by the client.
const OrderFields = "id title status createdAt updatedAt total " +
	"createdBy { id displayName username role } " +
	"items { id name quantity price lineTotal }"

const statsFields = "draft pending approved completed cancelled total"

type Order struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Total     float64     `json:"total"`
	CreatedBy *User       `json:"createdBy"`
	Items     []OrderItem `json:"items"`
}

type OrderItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	LineTotal float64 `json:"lineTotal"`
}

type OrderStatistics struct {
	Draft     int `json:"draft"`
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	Total     int `json:"total"`
}

type CreateOrderInput struct {
	Title  string                 `json:"title"`
	Status string                 `json:"status,omitempty"`
	Items  []CreateOrderItemInput `json:"items,omitempty"`
}

type CreateOrderItemInput struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type UpdateOrderInput struct {
	ID     string                 `json:"id"`
	Title  string                 `json:"title"`
	Status string                 `json:"status,omitempty"`
	Items  []UpdateOrderItemInput `json:"items"`
}

// UpdateOrderItemInput with an empty ID adds a new item.
type UpdateOrderItemInput struct {
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type AddOrderItemInput struct {
	OrderID  string  `json:"orderId"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// GraphQLError is returned when the response carries GraphQL errors.
type GraphQLError struct {
	Errors []GraphQLErrorItem
}

type GraphQLErrorItem struct {
	Message    string          `json:"message"`
	Path       []any           `json:"path,omitempty"`
	Extensions ErrorExtensions `json:"extensions"`
}

type ErrorExtensions struct {
	Code string `json:"code"`
}

func (e *GraphQLError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, item := range e.Errors {
		msgs[i] = item.Message
		if item.Extensions.Code != "" {
			msgs[i] += " (" + item.Extensions.Code + ")"
		}
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// Codes lists the extension codes in response order.
func (e *GraphQLError) Codes() []string {
	codes := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		if item.Extensions.Code != "" {
			codes = append(codes, item.Extensions.Code)
		}
	}
	return codes
}

// HasCode reports whether any error carries code.
func (e *GraphQLError) HasCode(code string) bool {
	for _, c := range e.Codes() {
		if c == code {
			return true
		}
	}
	return false
}

// TokenSource supplies the bearer token for each request. *AuthClient
// implements it.
type TokenSource interface {
	Token() (string, error)
}

type OrdersClient struct {
	endpoint string
	tokens   TokenSource
	opts     options
}

func NewOrdersClient(apiBase string, tokens TokenSource, opts ...Option) (*OrdersClient, error) {
	base, err := parseBase(apiBase)
	if err != nil {
		return nil, err
	}
	return &OrdersClient{
		endpoint: base.ResolveReference(&url.URL{Path: "graphql"}).String(),
		tokens:   tokens,
		opts:     newOptions(opts),
	}, nil
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlResponse struct {
	Data   json.RawMessage    `json:"data"`
	Errors []GraphQLErrorItem `json:"errors"`
}

func (c *OrdersClient) do(ctx context.Context, query string, vars map[string]any, out any) error {
	var token string
	if c.tokens != nil {
		var err error
		if token, err = c.tokens.Token(); err != nil {
			return err
		}
	}

	resp, err := postJSON(ctx, c.opts.httpClient, c.endpoint, token, gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("graphql request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readStatusError(resp)
	}

	var body gqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}
	if len(body.Errors) > 0 {
		return &GraphQLError{Errors: body.Errors}
	}
	if out == nil || len(body.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(body.Data, out); err != nil {
		return fmt.Errorf("decode graphql data: %w", err)
	}
	return nil
}

// GetOrders returns every order, newest first, with the status counts.
func (c *OrdersClient) GetOrders(ctx context.Context) ([]Order, OrderStatistics, error) {
	var data struct {
		Orders     []Order         `json:"orders"`
		OrderStats OrderStatistics `json:"orderStats"`
	}
	query := "query OrdersQuery { orders { " + OrderFields + " } orderStats { " + statsFields + " } }"
	if err := c.do(ctx, query, nil, &data); err != nil {
		return nil, OrderStatistics{}, err
	}
	return data.Orders, data.OrderStats, nil
}

// GetOrder returns nil when no order has id.
func (c *OrdersClient) GetOrder(ctx context.Context, id string) (*Order, error) {
	var data struct {
		Order *Order `json:"order"`
	}
	query := "query GetOrder($id: String!) { order(id: $id) { " + OrderFields + " } }"
	if err := c.do(ctx, query, map[string]any{"id": id}, &data); err != nil {
		return nil, err
	}
	return data.Order, nil
}

func (c *OrdersClient) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	var data struct {
		CreateOrder *Order `json:"createOrder"`
	}
	query := "mutation CreateOrder($input: CreateOrderInput!) { createOrder(input: $input) { " + OrderFields + " } }"
	if err := c.do(ctx, query, map[string]any{"input": input}, &data); err != nil {
		return nil, err
	}
	return data.CreateOrder, nil
}

func (c *OrdersClient) UpdateOrder(ctx context.Context, input UpdateOrderInput) (*Order, error) {
	var data struct {
		UpdateOrder *Order `json:"updateOrder"`
	}
	query := "mutation UpdateOrder($input: UpdateOrderInput!) { updateOrder(input: $input) { " + OrderFields + " } }"
	if err := c.do(ctx, query, map[string]any{"input": input}, &data); err != nil {
		return nil, err
	}
	return data.UpdateOrder, nil
}

// DeleteOrder needs the Admin role. false means the order did not exist.
func (c *OrdersClient) DeleteOrder(ctx context.Context, id string) (bool, error) {
	var data struct {
		DeleteOrder bool `json:"deleteOrder"`
	}
	query := "mutation DeleteOrder($id: String!) { deleteOrder(id: $id) }"
	if err := c.do(ctx, query, map[string]any{"id": id}, &data); err != nil {
		return false, err
	}
	return data.DeleteOrder, nil
}

func (c *OrdersClient) AddOrderItem(ctx context.Context, input AddOrderItemInput) (*Order, error) {
	var data struct {
		AddOrderItem *Order `json:"addOrderItem"`
	}
	query := "mutation AddOrderItem($input: AddOrderItemInput!) { addOrderItem(input: $input) { " + OrderFields + " } }"
	if err := c.do(ctx, query, map[string]any{"input": input}, &data); err != nil {
		return nil, err
	}
	return data.AddOrderItem, nil
}
