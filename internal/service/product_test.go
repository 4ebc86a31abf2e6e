package service

import (
	"context"
	"testing"

	"github.com/samber/mo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/event"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/pkg/ptr"
)

func TestProductService(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductRepo()
	stock := &fakeStockRepo{products: products}
	outbox := &fakeOutboxRepo{}
	svc := NewProductService(fakeDB{}, 5, products, stock, outbox)

	product, err := svc.CreateProduct(ctx, CreateProductParams{
		SKU:          " hdi-02 ",
		Name:         "Hoodie gris",
		Price:        decimal.NewFromInt(3200),
		InitialStock: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, "HDI-02", product.SKU)
	assert.Equal(t, 12, product.Stock)
	assert.Equal(t, []string{event.TopicProductCreated}, outbox.topics())

	_, err = svc.CreateProduct(ctx, CreateProductParams{SKU: "HDI-02", Name: "Other"})
	require.ErrorIs(t, err, apperr.ProductSKUConflictErr)

	_, err = svc.AdjustStock(ctx, AdjustStockParams{ProductID: product.ID, Delta: -9, Reason: model.MovementAdjustment, Note: "inventory count"})
	require.NoError(t, err)

	low, err := svc.ListLowStock(ctx, nil)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, 3, low[0].Stock)

	low, err = svc.ListLowStock(ctx, ptr.New(2))
	require.NoError(t, err)
	assert.Empty(t, low)

	_, err = svc.AdjustStock(ctx, AdjustStockParams{ProductID: product.ID, Delta: -4, Reason: model.MovementAdjustment})
	require.ErrorIs(t, err, apperr.InsufficientStockErr)

	_, err = svc.AdjustStock(ctx, AdjustStockParams{ProductID: product.ID, Delta: 1, Reason: model.MovementOrderReturned})
	require.ErrorIs(t, err, apperr.InvalidMovementErr)

	_, err = svc.AdjustStock(ctx, AdjustStockParams{ProductID: product.ID, Reason: model.MovementRestock})
	require.ErrorIs(t, err, apperr.InvalidMovementErr)

	movements, err := svc.ListMovements(ctx, product.ID, 10)
	require.NoError(t, err)
	assert.Len(t, movements, 2)

	updated, err := svc.UpdateProduct(ctx, product.ID, UpdateProductParams{
		Price:  mo.Some(decimal.NewFromInt(2900)),
		Active: mo.Some(false),
	})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, "Hoodie gris", updated.Name)

	_, err = svc.UpdateProduct(ctx, product.ID, UpdateProductParams{Name: mo.Some("   ")})
	require.ErrorIs(t, err, apperr.ValidationErr)
	kept, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hoodie gris", kept.Name)

	_, err = svc.CreateProduct(ctx, CreateProductParams{SKU: "BLANK-01", Name: " "})
	require.ErrorIs(t, err, apperr.ValidationErr)

	active, err := svc.ListProducts(ctx, ListProductsParams{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)
}
