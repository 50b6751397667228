package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/florista/backend/pkg/errors"
)

const (
	cacheKeyAvailable  = "catalog:available"
	cacheKeyItemFormat = "catalog:item:%d"
)

// UseCase contains the catalog management business logic. This is plain
// single-entity persistence; reservation semantics live in the orders package.
type UseCase struct {
	store    Store
	cache    Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewUseCase creates a new catalog UseCase. cache may be nil to disable
// read caching.
func NewUseCase(store Store, cache Cache, cacheTTL time.Duration, logger *zap.Logger) *UseCase {
	return &UseCase{
		store:    store,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// GetItem returns one catalog item, serving from cache when possible
func (uc *UseCase) GetItem(ctx context.Context, id int64) (*Item, error) {
	key := fmt.Sprintf(cacheKeyItemFormat, id)
	if uc.cache != nil {
		if raw, err := uc.cache.Get(ctx, key); err == nil {
			var item Item
			if err := json.Unmarshal(raw, &item); err == nil {
				return &item, nil
			}
		}
	}

	item, err := uc.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	uc.cacheSet(ctx, key, item)
	return item, nil
}

// ListItems returns the whole catalog, uncached (operator view)
func (uc *UseCase) ListItems(ctx context.Context) ([]Item, error) {
	return uc.store.ListItems(ctx)
}

// ListAvailable returns orderable items, serving from cache when possible
func (uc *UseCase) ListAvailable(ctx context.Context) ([]Item, error) {
	if uc.cache != nil {
		if raw, err := uc.cache.Get(ctx, cacheKeyAvailable); err == nil {
			var items []Item
			if err := json.Unmarshal(raw, &items); err == nil {
				return items, nil
			}
		}
	}

	items, err := uc.store.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}

	uc.cacheSet(ctx, cacheKeyAvailable, items)
	return items, nil
}

// CreateItem validates and persists a new catalog item
func (uc *UseCase) CreateItem(ctx context.Context, name, description, imageURL string, price decimal.Decimal, stock int) (*Item, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewInvalidInput("item name is required", "name")
	}
	if price.IsNegative() {
		return nil, apperrors.NewInvalidInput("price must not be negative", "price")
	}
	if stock < 0 {
		return nil, apperrors.NewInvalidInput("stock must not be negative", "stock_quantity")
	}

	item := NewItem(name, description, imageURL, price, stock)
	if err := uc.store.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	uc.invalidate(ctx, item.ID)
	uc.logger.Info("catalog item created",
		zap.Int64("item_id", item.ID),
		zap.String("name", item.Name),
	)
	return item, nil
}

// UpdateItemParams carries the mutable fields of a catalog item
type UpdateItemParams struct {
	Name        string
	Description string
	ImageURL    string
	Price       decimal.Decimal
	IsAvailable bool
}

// UpdateItem overwrites the descriptive fields of an existing item. Stock is
// adjusted separately through AdjustStock or the order engine.
func (uc *UseCase) UpdateItem(ctx context.Context, id int64, params UpdateItemParams) (*Item, error) {
	if strings.TrimSpace(params.Name) == "" {
		return nil, apperrors.NewInvalidInput("item name is required", "name")
	}
	if params.Price.IsNegative() {
		return nil, apperrors.NewInvalidInput("price must not be negative", "price")
	}

	item, err := uc.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Name = params.Name
	item.Description = params.Description
	item.ImageURL = params.ImageURL
	item.Price = params.Price
	item.IsAvailable = params.IsAvailable
	item.UpdatedAt = time.Now().UTC()

	if err := uc.store.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	uc.invalidate(ctx, id)
	return item, nil
}

// AdjustStock applies an operator stock correction. The resulting stock may
// not go negative; reaching zero turns availability off.
func (uc *UseCase) AdjustStock(ctx context.Context, id int64, delta int) (*Item, error) {
	current, err := uc.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.StockQuantity+delta < 0 {
		return nil, apperrors.NewInvalidInput(
			fmt.Sprintf("stock adjustment would make stock negative for item %d", id), "delta")
	}

	item, err := uc.store.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, id)
	uc.logger.Info("stock adjusted",
		zap.Int64("item_id", id),
		zap.Int("delta", delta),
		zap.Int("stock", item.StockQuantity),
	)
	return item, nil
}

// InvalidateItem drops the cached entries for an item. Called by the order
// engine after a committed stock decrement.
func (uc *UseCase) InvalidateItem(ctx context.Context, id int64) {
	uc.invalidate(ctx, id)
}

func (uc *UseCase) cacheSet(ctx context.Context, key string, value any) {
	if uc.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := uc.cache.Set(ctx, key, raw, uc.cacheTTL); err != nil {
		uc.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (uc *UseCase) invalidate(ctx context.Context, itemID int64) {
	if uc.cache == nil {
		return
	}
	err := uc.cache.Delete(ctx, fmt.Sprintf(cacheKeyItemFormat, itemID), cacheKeyAvailable)
	if err != nil {
		uc.logger.Warn("cache invalidation failed", zap.Int64("item_id", itemID), zap.Error(err))
	}
}
