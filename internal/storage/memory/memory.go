// Package memory provides an in-process implementation of the catalog store
// and the order ledger behind the same interfaces as the PostgreSQL
// implementations. It backs the unit tests and DB-less local runs.
//
// Concurrency control is the coarse option the engine contract allows:
// one mutex is held from Begin to Commit/Rollback, serializing order commits
// globally, so a competing request can never observe stock between the check
// and the decrement.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/florista/backend/internal/catalog"
	"github.com/florista/backend/internal/orders"
	apperrors "github.com/florista/backend/pkg/errors"
)

// Store implements catalog.Store and orders.Ledger over in-process maps
type Store struct {
	mu sync.Mutex

	items     map[int64]*catalog.Item
	orderRecs map[int64]*orders.Order

	nextItemID  int64
	nextOrderID int64
	nextLineID  int64
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		items:     make(map[int64]*catalog.Item),
		orderRecs: make(map[int64]*orders.Order),
	}
}

// --- transactions -----------------------------------------------------------

// memTx holds the store lock for its whole lifetime and journals undo actions
// so Rollback restores the pre-transaction state.
type memTx struct {
	store *Store
	undo  []func()
	done  bool
}

// Begin acquires the store lock; the returned transaction must be finished
// with Commit or Rollback, which releases it.
func (s *Store) Begin(ctx context.Context) (orders.Tx, error) {
	s.mu.Lock()
	return &memTx{store: s}, nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.undo = nil
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.store.mu.Unlock()
	return nil
}

// ItemForUpdate returns the live item inside the transaction. The store lock
// already serializes access, which stands in for the row lock.
func (s *Store) ItemForUpdate(ctx context.Context, tx orders.Tx, itemID int64) (*catalog.Item, error) {
	item, ok := s.items[itemID]
	if !ok {
		return nil, apperrors.NewItemNotFound(itemID)
	}
	snapshot := *item
	return &snapshot, nil
}

// DecrementStock subtracts quantity from the item inside the transaction
func (s *Store) DecrementStock(ctx context.Context, tx orders.Tx, itemID int64, quantity int) error {
	t := tx.(*memTx)
	item, ok := s.items[itemID]
	if !ok {
		return apperrors.NewItemNotFound(itemID)
	}

	prev := *item
	t.undo = append(t.undo, func() { *item = prev })

	item.StockQuantity -= quantity
	if item.StockQuantity <= 0 {
		item.IsAvailable = false
	}
	item.UpdatedAt = time.Now().UTC()
	return nil
}

// InsertOrder stores the order and its lines inside the transaction
func (s *Store) InsertOrder(ctx context.Context, tx orders.Tx, order *orders.Order) error {
	t := tx.(*memTx)

	s.nextOrderID++
	order.ID = s.nextOrderID
	for i := range order.Lines {
		s.nextLineID++
		order.Lines[i].ID = s.nextLineID
		order.Lines[i].OrderID = order.ID
	}

	stored := copyOrder(order)
	s.orderRecs[order.ID] = stored

	id := order.ID
	t.undo = append(t.undo, func() { delete(s.orderRecs, id) })
	return nil
}

// --- order reads and updates ------------------------------------------------

func (s *Store) GetOrder(ctx context.Context, id int64) (*orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orderRecs[id]
	if !ok {
		return nil, apperrors.NewOrderNotFound(id)
	}
	return copyOrder(order), nil
}

func (s *Store) ListAll(ctx context.Context) ([]orders.Order, error) {
	return s.list(func(*orders.Order) bool { return true })
}

func (s *Store) ListByCustomer(ctx context.Context, customerID int64) ([]orders.Order, error) {
	return s.list(func(o *orders.Order) bool { return o.CustomerID == customerID })
}

func (s *Store) ListByStatus(ctx context.Context, status orders.Status) ([]orders.Order, error) {
	return s.list(func(o *orders.Order) bool { return o.Status == status })
}

func (s *Store) list(match func(*orders.Order) bool) ([]orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []orders.Order
	for id := int64(1); id <= s.nextOrderID; id++ {
		if order, ok := s.orderRecs[id]; ok && match(order) {
			result = append(result, *copyOrder(order))
		}
	}
	return result, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id int64, status orders.Status, deliveryDate *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orderRecs[id]
	if !ok {
		return apperrors.NewOrderNotFound(id)
	}
	order.Status = status
	if deliveryDate != nil {
		d := *deliveryDate
		order.DeliveryDate = &d
	}
	return nil
}

func (s *Store) UpdateDetails(ctx context.Context, id int64, status orders.Status, deliveryDate *time.Time, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orderRecs[id]
	if !ok {
		return apperrors.NewOrderNotFound(id)
	}
	order.Status = status
	order.DeliveryDate = nil
	if deliveryDate != nil {
		d := *deliveryDate
		order.DeliveryDate = &d
	}
	order.Notes = notes
	return nil
}

// --- catalog store ----------------------------------------------------------

func (s *Store) GetItem(ctx context.Context, id int64) (*catalog.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, apperrors.NewItemNotFound(id)
	}
	snapshot := *item
	return &snapshot, nil
}

func (s *Store) ListItems(ctx context.Context) ([]catalog.Item, error) {
	return s.listItems(func(*catalog.Item) bool { return true })
}

func (s *Store) ListAvailable(ctx context.Context) ([]catalog.Item, error) {
	return s.listItems(func(i *catalog.Item) bool { return i.IsAvailable && i.StockQuantity > 0 })
}

func (s *Store) listItems(match func(*catalog.Item) bool) ([]catalog.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []catalog.Item
	for id := int64(1); id <= s.nextItemID; id++ {
		if item, ok := s.items[id]; ok && match(item) {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (s *Store) CreateItem(ctx context.Context, item *catalog.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextItemID++
	item.ID = s.nextItemID
	stored := *item
	s.items[item.ID] = &stored
	return nil
}

func (s *Store) UpdateItem(ctx context.Context, item *catalog.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.ID]; !ok {
		return apperrors.NewItemNotFound(item.ID)
	}
	stored := *item
	s.items[item.ID] = &stored
	return nil
}

func (s *Store) AdjustStock(ctx context.Context, id int64, delta int) (*catalog.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, apperrors.NewItemNotFound(id)
	}
	item.StockQuantity += delta
	if item.StockQuantity <= 0 {
		item.IsAvailable = false
	}
	item.UpdatedAt = time.Now().UTC()
	snapshot := *item
	return &snapshot, nil
}

func copyOrder(order *orders.Order) *orders.Order {
	dup := *order
	if order.DeliveryDate != nil {
		d := *order.DeliveryDate
		dup.DeliveryDate = &d
	}
	dup.Lines = make([]orders.OrderLine, len(order.Lines))
	copy(dup.Lines, order.Lines)
	return &dup
}
