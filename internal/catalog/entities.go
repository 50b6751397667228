package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a catalog entry with pricing and live stock.
type Item struct {
	ID            int64           `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price"`
	ImageURL      string          `json:"image_url" db:"image_url"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	IsAvailable   bool            `json:"is_available" db:"is_available"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// NewItem creates a new catalog item. Availability starts true unless the
// initial stock is already zero.
func NewItem(name, description, imageURL string, price decimal.Decimal, stock int) *Item {
	now := time.Now().UTC()
	return &Item{
		Name:          name,
		Description:   description,
		Price:         price,
		ImageURL:      imageURL,
		StockQuantity: stock,
		IsAvailable:   stock > 0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// InStock reports whether the item can satisfy an order for the given
// quantity. Unavailable items never satisfy, regardless of the counter.
func (i *Item) InStock(quantity int) bool {
	return i.IsAvailable && i.StockQuantity >= quantity
}
