package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"savorysync/internal/db"
	"savorysync/internal/models"

	"github.com/lib/pq"
)

const orderColumns = `id, order_number, customer_id, restaurant_id, status, subtotal, delivery_fee, tax,
	total_amount, delivery_address, notes, created_at, updated_at`

type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

// Create writes the order, its items and the initial status log row in one
// transaction. IDs are filled in on success.
func (r *OrderRepo) Create(ctx context.Context, order *models.Order) error {
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO orders (order_number, customer_id, restaurant_id, status, subtotal, delivery_fee,
				tax, total_amount, delivery_address, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id`
		err := tx.QueryRowContext(ctx, query,
			order.OrderNumber, order.CustomerID, order.RestaurantID, order.Status,
			order.Subtotal, order.DeliveryFee, order.Tax, order.TotalAmount,
			order.DeliveryAddress, order.Notes, order.CreatedAt, order.UpdatedAt,
		).Scan(&order.ID)
		if err != nil {
			if isDuplicateOrderNumber(err) {
				return ErrDuplicateOrderNumber
			}
			return fmt.Errorf("insert order: %w", err)
		}

		itemQuery := `
			INSERT INTO order_items (order_id, menu_item_id, quantity, unit_price, total_price, customizations)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`
		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = order.ID
			err := tx.QueryRowContext(ctx, itemQuery,
				item.OrderID, item.MenuItemID, item.Quantity, item.UnitPrice, item.TotalPrice,
				jsonParam(item.Customizations),
			).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		return insertStatusLog(ctx, tx, models.StatusChange{
			OrderID:   order.ID,
			ToStatus:  order.Status,
			ChangedBy: order.CustomerID,
			ChangedAt: order.CreatedAt,
		})
	})
	if err != nil {
		order.ID = 0
		for i := range order.Items {
			order.Items[i].ID, order.Items[i].OrderID = 0, 0
		}
	}
	return err
}

func (r *OrderRepo) Get(ctx context.Context, id int64) (*models.Order, error) {
	return getOrder(ctx, r.db, id)
}

// ListForCustomer returns the customer's orders newest first. limit <= 0 means no limit.
func (r *OrderRepo) ListForCustomer(ctx context.Context, customerID int64, limit int) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC`
	args := []any{customerID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	return r.listOrders(ctx, query, args...)
}

func (r *OrderRepo) ListForRestaurant(ctx context.Context, restaurantID int64) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE restaurant_id = $1
		ORDER BY created_at DESC, id DESC`
	return r.listOrders(ctx, query, restaurantID)
}

// ListForRestaurantSince returns orders created at or after since, with no upper bound.
func (r *OrderRepo) ListForRestaurantSince(ctx context.Context, restaurantID int64, since time.Time) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE restaurant_id = $1 AND created_at >= $2
		ORDER BY created_at DESC, id DESC`
	return r.listOrders(ctx, query, restaurantID, since)
}

// CountByRestaurant returns how many orders the customer placed at each restaurant.
func (r *OrderRepo) CountByRestaurant(ctx context.Context, customerID int64) (map[int64]int, error) {
	query := `
		SELECT restaurant_id, COUNT(*)
		FROM orders
		WHERE customer_id = $1
		GROUP BY restaurant_id`
	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var restaurantID int64
		var n int
		if err := rows.Scan(&restaurantID, &n); err != nil {
			return nil, err
		}
		counts[restaurantID] = n
	}
	return counts, rows.Err()
}

// UpdateStatus locks the order row, lets check validate the move from the
// current status, then writes the new status and its log row. Concurrent
// updates of one order serialize on the row lock.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id int64, next models.Status, changedBy int64,
	at time.Time, check func(current models.Status) error) (*models.Order, error) {
	var updated *models.Order
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var current models.Status
		err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}

		if err := check(current); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`, next, at, id)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		err = insertStatusLog(ctx, tx, models.StatusChange{
			OrderID:    id,
			FromStatus: current,
			ToStatus:   next,
			ChangedBy:  changedBy,
			ChangedAt:  at,
		})
		if err != nil {
			return err
		}

		updated, err = getOrder(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *OrderRepo) History(ctx context.Context, orderID int64) ([]models.StatusChange, error) {
	query := `
		SELECT id, order_id, from_status, to_status, changed_by, changed_at
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at, id`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []models.StatusChange
	for rows.Next() {
		var c models.StatusChange
		var from sql.NullString
		if err := rows.Scan(&c.ID, &c.OrderID, &from, &c.ToStatus, &c.ChangedBy, &c.ChangedAt); err != nil {
			return nil, err
		}
		c.FromStatus = models.Status(from.String)
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

func (r *OrderRepo) listOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := orderItems(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func getOrder(ctx context.Context, q querier, id int64) (*models.Order, error) {
	row := q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := orderItems(ctx, q, []int64{id})
	if err != nil {
		return nil, err
	}
	order.Items = items[id]
	return &order, nil
}

// orderItems loads the items of the given orders keyed by order id.
func orderItems(ctx context.Context, q querier, orderIDs []int64) (map[int64][]models.OrderItem, error) {
	query := `
		SELECT id, order_id, menu_item_id, quantity, unit_price, total_price, customizations
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, id`
	rows, err := q.QueryContext(ctx, query, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[int64][]models.OrderItem, len(orderIDs))
	for rows.Next() {
		var item models.OrderItem
		var custom []byte
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.MenuItemID, &item.Quantity,
			&item.UnitPrice, &item.TotalPrice, &custom,
		)
		if err != nil {
			return nil, err
		}
		if len(custom) > 0 {
			item.Customizations = json.RawMessage(custom)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (models.Order, error) {
	var o models.Order
	var address, notes sql.NullString
	err := s.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.RestaurantID, &o.Status,
		&o.Subtotal, &o.DeliveryFee, &o.Tax, &o.TotalAmount,
		&address, &notes, &o.CreatedAt, &o.UpdatedAt,
	)
	o.DeliveryAddress, o.Notes = address.String, notes.String
	return o, err
}

func insertStatusLog(ctx context.Context, q querier, c models.StatusChange) error {
	var from any
	if c.FromStatus != "" {
		from = c.FromStatus
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO order_status_log (order_id, from_status, to_status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.OrderID, from, c.ToStatus, c.ChangedBy, c.ChangedAt,
	)
	if err != nil {
		return fmt.Errorf("insert status log: %w", err)
	}
	return nil
}

// jsonParam passes JSON as text; lib/pq would send []byte as bytea.
func jsonParam(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
