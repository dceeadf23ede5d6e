package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	"github.com/leviettung200/ByteDefence/internal/domain/orders"
	"github.com/leviettung200/ByteDefence/internal/domain/query"
	"github.com/leviettung200/ByteDefence/internal/metrics"
)

var _ orders.Repository = (*OrderRepository)(nil)

const orderStatusRank = "array_position(ARRAY['DRAFT','PENDING','APPROVED','COMPLETED','CANCELLED']::text[], o.status)"

var orderSortColumns = map[string]string{
	"id":              "o.id",
	"title":           "o.title",
	"status":          orderStatusRank,
	"createdByUserId": "o.created_by_user_id",
	"createdAt":       "o.created_at",
	"updatedAt":       "o.updated_at",
}

type OrderRepository struct {
	pool *pgxpool.Pool
}

func (r *OrderRepository) ListOrders(ctx context.Context, q orders.OrderQuery) (out []orders.Order, err error) {
	defer func(start time.Time) { metrics.RecordQuery("list_orders", start, err) }(time.Now())
	return r.selectOrders(ctx, r.pool, orderWhere(q.Where), q.Order)
}

func (r *OrderRepository) GetOrder(ctx context.Context, id string) (*orders.Order, error) {
	list, err := r.selectOrders(ctx, r.pool, sq.Eq{"o.id": id}, nil)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, orders.ErrNotFound
	}
	return &list[0], nil
}

func (r *OrderRepository) CreateOrder(ctx context.Context, o orders.Order) error {
	return withTx(ctx, r.pool, func(q queryer) error {
		_, err := q.Exec(ctx, `
INSERT INTO orders (id, title, status, created_by_user_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, o.Title, string(o.Status), o.CreatedByUserID, o.CreatedAt, o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return insertItems(ctx, q, o.ID, o.Items)
	})
}

func (r *OrderRepository) UpdateOrder(ctx context.Context, o orders.Order, changes orders.ItemChanges) error {
	return withTx(ctx, r.pool, func(q queryer) error {
		tag, err := q.Exec(ctx, `
UPDATE orders SET title = $2, status = $3, updated_at = $4 WHERE id = $1`,
			o.ID, o.Title, string(o.Status), o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return orders.ErrNotFound
		}

		if len(changes.Removed) > 0 {
			if _, err := q.Exec(ctx,
				`DELETE FROM order_items WHERE order_id = $1 AND id = ANY($2)`, o.ID, changes.Removed); err != nil {
				return fmt.Errorf("remove order items: %w", err)
			}
		}
		for _, item := range changes.Updated {
			if _, err := q.Exec(ctx, `
UPDATE order_items SET name = $3, quantity = $4, price = $5 WHERE order_id = $1 AND id = $2`,
				o.ID, item.ID, item.Name, item.Quantity, item.Price); err != nil {
				return fmt.Errorf("update order item %s: %w", item.ID, err)
			}
		}
		return insertItems(ctx, q, o.ID, changes.Added)
	})
}

// DeleteOrder relies on ON DELETE CASCADE for items.
func (r *OrderRepository) DeleteOrder(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return orders.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) Statistics(ctx context.Context) (stats orders.Statistics, err error) {
	defer func(start time.Time) { metrics.RecordQuery("order_statistics", start, err) }(time.Now())

	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM orders GROUP BY status`)
	if err != nil {
		return stats, fmt.Errorf("order statistics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return stats, fmt.Errorf("scan statistics: %w", err)
		}
		stats.Add(orders.Status(status), n)
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterate statistics: %w", err)
	}
	return stats, nil
}

// UpsertUser stores a directory account so orders can reference it.
func (r *OrderRepository) UpsertUser(ctx context.Context, u orders.User) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO users (id, username, display_name, role)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
   SET username = EXCLUDED.username, display_name = EXCLUDED.display_name, role = EXCLUDED.role`,
		u.ID, u.Username, u.DisplayName, string(u.Role))
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *OrderRepository) selectOrders(ctx context.Context, q queryer, where sq.Sqlizer, sorts []query.Sort) ([]orders.Order, error) {
	stmt := psql.Select(
		"o.id", "o.title", "o.status", "o.created_by_user_id", "o.created_at", "o.updated_at",
		"u.id", "u.username", "u.display_name", "u.role",
	).From("orders o").
		LeftJoin("users u ON u.id = o.created_by_user_id").
		OrderBy(orderClauses(sorts, orderSortColumns, "o.seq ASC")...)
	if where != nil {
		stmt = stmt.Where(where)
	}
	sqlStr, args, err := stmt.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list orders: %w", err)
	}

	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var out []orders.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	items, err := loadItems(ctx, q, lo.Map(out, func(o orders.Order, _ int) string { return o.ID }))
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

func loadItems(ctx context.Context, q queryer, orderIDs []string) (map[string][]orders.OrderItem, error) {
	sqlStr, args, err := psql.Select("id", "order_id", "name", "quantity", "price::float8").
		From("order_items").
		Where(sq.Eq{"order_id": orderIDs}).
		OrderBy("seq ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list items: %w", err)
	}

	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[string][]orders.OrderItem, len(orderIDs))
	for rows.Next() {
		var item orders.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Name, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return byOrder, nil
}

func scanOrder(row pgx.Row) (orders.Order, error) {
	var (
		o                         orders.Order
		status                    string
		userID, username, display *string
		role                      *string
	)
	if err := row.Scan(&o.ID, &o.Title, &status, &o.CreatedByUserID, &o.CreatedAt, &o.UpdatedAt,
		&userID, &username, &display, &role); err != nil {
		return o, err
	}
	o.Status = orders.Status(status)
	if userID != nil {
		o.CreatedBy = &orders.User{
			ID:          *userID,
			Username:    lo.FromPtr(username),
			DisplayName: lo.FromPtr(display),
			Role:        orders.Role(lo.FromPtr(role)),
		}
	}
	return o, nil
}

func insertItems(ctx context.Context, q queryer, orderID string, items []orders.OrderItem) error {
	for _, item := range items {
		if _, err := q.Exec(ctx, `
INSERT INTO order_items (id, order_id, name, quantity, price) VALUES ($1, $2, $3, $4, $5)`,
			item.ID, orderID, item.Name, item.Quantity, item.Price); err != nil {
			return fmt.Errorf("insert order item %s: %w", item.ID, err)
		}
	}
	return nil
}

func orderWhere(f *orders.OrderFilter) sq.Sqlizer {
	if f == nil {
		return nil
	}
	var fields sq.And
	fields = append(fields, stringConds("o.id", f.ID)...)
	fields = append(fields, stringConds("o.title", f.Title)...)
	fields = append(fields, enumConds("o.status", f.Status)...)
	fields = append(fields, stringConds("o.created_by_user_id", f.CreatedByUserID)...)
	fields = append(fields, timeConds("o.created_at", f.CreatedAt)...)
	fields = append(fields, timeConds("o.updated_at", f.UpdatedAt)...)
	return group(fields, nested(f.And, orderWhere), nested(f.Or, orderWhere))
}
