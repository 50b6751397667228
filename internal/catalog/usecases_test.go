package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/florista/backend/internal/catalog"
	"github.com/florista/backend/internal/storage/memory"
	apperrors "github.com/florista/backend/pkg/errors"
)

func newCatalogUseCase(t *testing.T) (*catalog.UseCase, *memory.Store, *catalog.InMemoryCache) {
	t.Helper()
	store := memory.NewStore()
	cache := catalog.NewInMemoryCache()
	uc := catalog.NewUseCase(store, cache, time.Minute, zap.NewNop())
	return uc, store, cache
}

func TestCreateItem(t *testing.T) {
	uc, _, _ := newCatalogUseCase(t)
	ctx := context.Background()

	item, err := uc.CreateItem(ctx, "Rose Bouquet", "A dozen red roses", "/img/rose.jpg",
		decimal.RequireFromString("25.00"), 100)
	require.NoError(t, err)

	assert.NotZero(t, item.ID)
	assert.Equal(t, "Rose Bouquet", item.Name)
	assert.Equal(t, 100, item.StockQuantity)
	assert.True(t, item.IsAvailable)
}

func TestCreateItemZeroStockIsUnavailable(t *testing.T) {
	uc, _, _ := newCatalogUseCase(t)

	item, err := uc.CreateItem(context.Background(), "Orchid", "", "", decimal.RequireFromString("30.00"), 0)
	require.NoError(t, err)
	assert.False(t, item.IsAvailable)
}

func TestCreateItemValidation(t *testing.T) {
	uc, _, _ := newCatalogUseCase(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		run   func() error
	}{
		{"empty name", func() error {
			_, err := uc.CreateItem(ctx, "  ", "", "", decimal.RequireFromString("1.00"), 1)
			return err
		}},
		{"negative price", func() error {
			_, err := uc.CreateItem(ctx, "Rose", "", "", decimal.RequireFromString("-1.00"), 1)
			return err
		}},
		{"negative stock", func() error {
			_, err := uc.CreateItem(ctx, "Rose", "", "", decimal.RequireFromString("1.00"), -1)
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))
		})
	}
}

func TestGetItemServesFromCacheAfterFirstRead(t *testing.T) {
	uc, store, _ := newCatalogUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateItem(ctx, "Rose", "", "", decimal.RequireFromString("10.00"), 5)
	require.NoError(t, err)

	first, err := uc.GetItem(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rose", first.Name)

	// Mutate the store behind the cache; the cached copy must be served
	stale := *created
	stale.Name = "Renamed"
	require.NoError(t, store.UpdateItem(ctx, &stale))

	second, err := uc.GetItem(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rose", second.Name)
}

func TestUpdateItemInvalidatesCache(t *testing.T) {
	uc, _, _ := newCatalogUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateItem(ctx, "Rose", "", "", decimal.RequireFromString("10.00"), 5)
	require.NoError(t, err)

	_, err = uc.GetItem(ctx, created.ID)
	require.NoError(t, err)

	updated, err := uc.UpdateItem(ctx, created.ID, catalog.UpdateItemParams{
		Name:        "Premium Rose",
		Price:       decimal.RequireFromString("15.00"),
		IsAvailable: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Premium Rose", updated.Name)

	fresh, err := uc.GetItem(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Premium Rose", fresh.Name)
	assert.True(t, fresh.Price.Equal(decimal.RequireFromString("15.00")))
}

func TestUpdateItemUnknown(t *testing.T) {
	uc, _, _ := newCatalogUseCase(t)

	_, err := uc.UpdateItem(context.Background(), 404, catalog.UpdateItemParams{
		Name:  "Rose",
		Price: decimal.RequireFromString("1.00"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeItemNotFound))
}

func TestAdjustStock(t *testing.T) {
	uc, _, _ := newCatalogUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateItem(ctx, "Rose", "", "", decimal.RequireFromString("10.00"), 5)
	require.NoError(t, err)

	item, err := uc.AdjustStock(ctx, created.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 15, item.StockQuantity)

	item, err = uc.AdjustStock(ctx, created.ID, -15)
	require.NoError(t, err)
	assert.Equal(t, 0, item.StockQuantity)
	assert.False(t, item.IsAvailable)
}

func TestAdjustStockRejectsNegativeResult(t *testing.T) {
	uc, _, _ := newCatalogUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateItem(ctx, "Rose", "", "", decimal.RequireFromString("10.00"), 5)
	require.NoError(t, err)

	_, err = uc.AdjustStock(ctx, created.ID, -6)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))

	got, err := uc.GetItem(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.StockQuantity)
}

func TestListAvailableExcludesOutOfStock(t *testing.T) {
	uc, _, _ := newCatalogUseCase(t)
	ctx := context.Background()

	_, err := uc.CreateItem(ctx, "Rose", "", "", decimal.RequireFromString("10.00"), 5)
	require.NoError(t, err)
	_, err = uc.CreateItem(ctx, "Orchid", "", "", decimal.RequireFromString("30.00"), 0)
	require.NoError(t, err)

	available, err := uc.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "Rose", available[0].Name)

	all, err := uc.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestInvalidateItemDropsCachedReads(t *testing.T) {
	uc, store, _ := newCatalogUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateItem(ctx, "Rose", "", "", decimal.RequireFromString("10.00"), 5)
	require.NoError(t, err)

	_, err = uc.GetItem(ctx, created.ID)
	require.NoError(t, err)

	// Stock changes outside the catalog write path, then the hook fires
	_, err = store.AdjustStock(ctx, created.ID, -2)
	require.NoError(t, err)
	uc.InvalidateItem(ctx, created.ID)

	fresh, err := uc.GetItem(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, fresh.StockQuantity)
}
