package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/florista/backend/pkg/errors"
)

// Store defines the catalog persistence contract consumed by the catalog
// service and, for reads, by the HTTP layer. Stock mutations tied to order
// commits go through the order ledger instead, so that the decrement and the
// order insert share one transaction.
type Store interface {
	GetItem(ctx context.Context, id int64) (*Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	ListAvailable(ctx context.Context) ([]Item, error)
	CreateItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error
	// AdjustStock applies a signed stock delta outside of an order commit
	// (operator restock or correction). Resulting stock of zero or the
	// operator flag force availability to false.
	AdjustStock(ctx context.Context, id int64, delta int) (*Item, error)
}

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const itemColumns = `id, name, description, price, image_url, stock_quantity, is_available, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var item Item
	err := row.Scan(
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
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItem fetches one catalog item by id
func (s *PostgresStore) GetItem(ctx context.Context, id int64) (*Item, error) {
	item, err := scanItem(s.db.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM items WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewItemNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// ListItems returns the whole catalog
func (s *PostgresStore) ListItems(ctx context.Context) ([]Item, error) {
	return s.listWhere(ctx, "")
}

// ListAvailable returns items that can currently be ordered
func (s *PostgresStore) ListAvailable(ctx context.Context) ([]Item, error) {
	return s.listWhere(ctx, "WHERE is_available AND stock_quantity > 0")
}

func (s *PostgresStore) listWhere(ctx context.Context, where string) ([]Item, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+itemColumns+`
		FROM items `+where+` ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// CreateItem inserts a new catalog item and assigns its id
func (s *PostgresStore) CreateItem(ctx context.Context, item *Item) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO items (name, description, price, image_url, stock_quantity, is_available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, item.Name, item.Description, item.Price, item.ImageURL,
		item.StockQuantity, item.IsAvailable, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// UpdateItem overwrites the mutable fields of a catalog item
func (s *PostgresStore) UpdateItem(ctx context.Context, item *Item) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE items
		SET name = $2, description = $3, price = $4, image_url = $5,
		    stock_quantity = $6, is_available = $7, updated_at = NOW()
		WHERE id = $1
	`, item.ID, item.Name, item.Description, item.Price, item.ImageURL,
		item.StockQuantity, item.IsAvailable)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewItemNotFound(item.ID)
	}
	return nil
}

// AdjustStock applies a signed stock delta and clamps availability at zero
func (s *PostgresStore) AdjustStock(ctx context.Context, id int64, delta int) (*Item, error) {
	item, err := scanItem(s.db.QueryRow(ctx, `
		UPDATE items
		SET stock_quantity = stock_quantity + $2,
		    is_available = CASE WHEN stock_quantity + $2 <= 0 THEN false ELSE is_available END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+itemColumns+`
	`, id, delta))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewItemNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}
	return item, nil
}
