package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/florista/backend/internal/catalog"
	apperrors "github.com/florista/backend/pkg/errors"
)

// Tx is a transaction spanning the order ledger and the catalog stock rows
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Ledger defines the persistence contract for orders. The Begin /
// ItemForUpdate / DecrementStock / InsertOrder sequence is the transactional
// unit behind order placement: nothing is visible until Commit, and the item
// rows stay locked from the read to the decrement.
type Ledger interface {
	Begin(ctx context.Context) (Tx, error)
	// ItemForUpdate reads an item inside tx and holds a write lock on it
	// until the transaction ends.
	ItemForUpdate(ctx context.Context, tx Tx, itemID int64) (*catalog.Item, error)
	// DecrementStock subtracts quantity inside tx; availability flips to
	// false when the resulting stock reaches zero.
	DecrementStock(ctx context.Context, tx Tx, itemID int64, quantity int) error
	// InsertOrder persists the order and its lines inside tx, assigning ids.
	InsertOrder(ctx context.Context, tx Tx, order *Order) error

	GetOrder(ctx context.Context, id int64) (*Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]Order, error)
	ListByStatus(ctx context.Context, status Status) ([]Order, error)
	// UpdateStatus persists a status already validated by the state machine,
	// together with the delivery timestamp it may have produced.
	UpdateStatus(ctx context.Context, id int64, status Status, deliveryDate *time.Time) error
	// UpdateDetails is the administrative overwrite of status, delivery date
	// and notes in one call.
	UpdateDetails(ctx context.Context, id int64, status Status, deliveryDate *time.Time, notes string) error
}

// PostgresLedger implements Ledger using PostgreSQL
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger creates a new PostgresLedger
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// pgTx implements Tx over pgx
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// Begin starts a new transaction
func (l *PostgresLedger) Begin(ctx context.Context) (Tx, error) {
	tx, err := l.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

// ItemForUpdate reads the item row with a pessimistic lock (FOR UPDATE), so
// the stock check and the decrement that follows are serialized per item.
func (l *PostgresLedger) ItemForUpdate(ctx context.Context, tx Tx, itemID int64) (*catalog.Item, error) {
	t := tx.(*pgTx).tx

	var item catalog.Item
	err := t.QueryRow(ctx, `
		SELECT id, name, description, price, image_url, stock_quantity, is_available, created_at, updated_at
		FROM items
		WHERE id = $1
		FOR UPDATE
	`, itemID).Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Price,
		&item.ImageURL,
		&item.StockQuantity,
		&item.IsAvailable,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewItemNotFound(itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item with lock: %w", err)
	}
	return &item, nil
}

// DecrementStock subtracts the ordered quantity from the locked item row
func (l *PostgresLedger) DecrementStock(ctx context.Context, tx Tx, itemID int64, quantity int) error {
	t := tx.(*pgTx).tx

	_, err := t.Exec(ctx, `
		UPDATE items
		SET stock_quantity = stock_quantity - $2,
		    is_available = CASE WHEN stock_quantity - $2 <= 0 THEN false ELSE is_available END,
		    updated_at = NOW()
		WHERE id = $1
	`, itemID, quantity)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	return nil
}

// InsertOrder persists the order and its lines inside the transaction
func (l *PostgresLedger) InsertOrder(ctx context.Context, tx Tx, order *Order) error {
	t := tx.(*pgTx).tx

	err := t.QueryRow(ctx, `
		INSERT INTO orders (customer_id, customer_name, delivery_address, phone_number,
		                    total_amount, status, order_date, delivery_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, order.CustomerID, order.CustomerName, order.DeliveryAddress, order.PhoneNumber,
		order.TotalAmount, order.Status, order.OrderDate, order.DeliveryDate, order.Notes,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID
		err := t.QueryRow(ctx, `
			INSERT INTO order_lines (order_id, item_id, item_name, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, line.OrderID, line.ItemID, line.ItemName, line.Quantity, line.UnitPrice, line.TotalPrice,
		).Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}
	return nil
}

const orderColumns = `id, customer_id, customer_name, delivery_address, phone_number,
	total_amount, status, order_date, delivery_date, notes`

func scanOrder(row pgx.Row) (*Order, error) {
	var order Order
	err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&order.CustomerName,
		&order.DeliveryAddress,
		&order.PhoneNumber,
		&order.TotalAmount,
		&order.Status,
		&order.OrderDate,
		&order.DeliveryDate,
		&order.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder fetches one order with its lines
func (l *PostgresLedger) GetOrder(ctx context.Context, id int64) (*Order, error) {
	order, err := scanOrder(l.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewOrderNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := l.loadLines(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListAll returns every order, newest first
func (l *PostgresLedger) ListAll(ctx context.Context) ([]Order, error) {
	return l.listWhere(ctx, "", nil)
}

// ListByCustomer returns the orders owned by one customer, newest first
func (l *PostgresLedger) ListByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	return l.listWhere(ctx, "WHERE customer_id = $1", []any{customerID})
}

// ListByStatus returns the orders currently in the given status, newest first
func (l *PostgresLedger) ListByStatus(ctx context.Context, status Status) ([]Order, error) {
	return l.listWhere(ctx, "WHERE status = $1", []any{status})
}

func (l *PostgresLedger) listWhere(ctx context.Context, where string, args []any) ([]Order, error) {
	rows, err := l.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders `+where+` ORDER BY order_date DESC, id DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if err := l.loadLines(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (l *PostgresLedger) loadLines(ctx context.Context, order *Order) error {
	rows, err := l.db.Query(ctx, `
		SELECT id, order_id, item_id, item_name, quantity, unit_price, total_price
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id
	`, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line OrderLine
		err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ItemID,
			&line.ItemName,
			&line.Quantity,
			&line.UnitPrice,
			&line.TotalPrice,
		)
		if err != nil {
			return fmt.Errorf("failed to scan order line: %w", err)
		}
		order.Lines = append(order.Lines, line)
	}
	return rows.Err()
}

// UpdateStatus persists a validated status change. COALESCE keeps an earlier
// delivery timestamp when the state machine did not produce a new one.
func (l *PostgresLedger) UpdateStatus(ctx context.Context, id int64, status Status, deliveryDate *time.Time) error {
	tag, err := l.db.Exec(ctx, `
		UPDATE orders
		SET status = $2, delivery_date = COALESCE($3, delivery_date)
		WHERE id = $1
	`, id, status, deliveryDate)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewOrderNotFound(id)
	}
	return nil
}

// UpdateDetails overwrites status, delivery date and notes without lifecycle
// side effects (operator correction path).
func (l *PostgresLedger) UpdateDetails(ctx context.Context, id int64, status Status, deliveryDate *time.Time, notes string) error {
	tag, err := l.db.Exec(ctx, `
		UPDATE orders
		SET status = $2, delivery_date = $3, notes = $4
		WHERE id = $1
	`, id, status, deliveryDate, notes)
	if err != nil {
		return fmt.Errorf("failed to update order details: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewOrderNotFound(id)
	}
	return nil
}
