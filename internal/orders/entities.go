package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/florista/backend/internal/catalog"
	apperrors "github.com/florista/backend/pkg/errors"
)

// Status is the closed set of order lifecycle states
type Status string

const (
	StatusPending   Status = "Pending"
	StatusPreparing Status = "Preparing"
	StatusOnTheWay  Status = "OnTheWay"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// transitions is the explicit validity table. Operators may move an order to
// any state while it is in flight; Delivered and Cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusPreparing, StatusOnTheWay, StatusDelivered, StatusCancelled},
	StatusPreparing: {StatusPending, StatusOnTheWay, StatusDelivered, StatusCancelled},
	StatusOnTheWay:  {StatusPending, StatusPreparing, StatusDelivered, StatusCancelled},
	StatusDelivered: {},
	StatusCancelled: {},
}

// ParseStatus validates a raw status string against the enumerated set
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", apperrors.NewInvalidInput("unknown order status: "+raw, "status")
	}
	return s, nil
}

// Valid reports whether s is a member of the enumerated status set
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transitions are allowed from s
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether the state machine permits moving from s to
// next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OrderLine is a quantity of one item captured with a price snapshot at order
// time. The name and unit price are denormalized on purpose: historical orders
// keep the price in effect at purchase even if the catalog changes later.
type OrderLine struct {
	ID         int64           `json:"id" db:"id"`
	OrderID    int64           `json:"order_id" db:"order_id"`
	ItemID     int64           `json:"item_id" db:"item_id"`
	ItemName   string          `json:"item_name" db:"item_name"`
	Quantity   int             `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" db:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
}

// Order is a customer's committed purchase request
type Order struct {
	ID              int64           `json:"id" db:"id"`
	CustomerID      int64           `json:"customer_id" db:"customer_id"`
	CustomerName    string          `json:"customer_name" db:"customer_name"`
	DeliveryAddress string          `json:"delivery_address" db:"delivery_address"`
	PhoneNumber     string          `json:"phone_number" db:"phone_number"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status          Status          `json:"status" db:"status"`
	OrderDate       time.Time       `json:"order_date" db:"order_date"`
	DeliveryDate    *time.Time      `json:"delivery_date,omitempty" db:"delivery_date"`
	Notes           string          `json:"notes,omitempty" db:"notes"`
	Lines           []OrderLine     `json:"lines" db:"-"`
}

// NewOrder creates a new pending order with no lines yet
func NewOrder(customerID int64, customerName, deliveryAddress, phoneNumber, notes string) *Order {
	return &Order{
		CustomerID:      customerID,
		CustomerName:    customerName,
		DeliveryAddress: deliveryAddress,
		PhoneNumber:     phoneNumber,
		TotalAmount:     decimal.Zero,
		Status:          StatusPending,
		OrderDate:       time.Now().UTC(),
		Notes:           notes,
	}
}

// AddLine snapshots the item's current name and price into a new line and
// accumulates the order total.
func (o *Order) AddLine(item *catalog.Item, quantity int) {
	line := OrderLine{
		ItemID:     item.ID,
		ItemName:   item.Name,
		Quantity:   quantity,
		UnitPrice:  item.Price,
		TotalPrice: item.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
	o.Lines = append(o.Lines, line)
	o.TotalAmount = o.TotalAmount.Add(line.TotalPrice)
}

// ApplyStatus moves the order to next, enforcing the transition table.
// Entering Delivered stamps the delivery timestamp when it is not already set.
// Entering Cancelled has no stock side effect: reserved stock is not returned.
func (o *Order) ApplyStatus(next Status, now time.Time) error {
	if !next.Valid() {
		return apperrors.NewInvalidInput("unknown order status: "+string(next), "status")
	}
	if next == o.Status {
		return nil
	}
	if !o.Status.CanTransitionTo(next) {
		return apperrors.NewInvalidInput(
			"illegal status transition from "+string(o.Status)+" to "+string(next), "status")
	}

	o.Status = next
	if next == StatusDelivered && o.DeliveryDate == nil {
		delivered := now.UTC()
		o.DeliveryDate = &delivered
	}
	return nil
}
