package model_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/tuanvumaihuynh/orderdesk/internal/model"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to model.OrderStatus
		allowed  bool
	}{
		{model.OrderStatusNew, model.OrderStatusConfirmed, true},
		{model.OrderStatusNew, model.OrderStatusNoAnswer, true},
		{model.OrderStatusNoAnswer, model.OrderStatusNoAnswer, true},
		{model.OrderStatusNew, model.OrderStatusDispatched, false},
		{model.OrderStatusConfirmed, model.OrderStatusDispatched, true},
		{model.OrderStatusConfirmed, model.OrderStatusCancelled, true},
		{model.OrderStatusConfirmed, model.OrderStatusNew, false},
		{model.OrderStatusDispatched, model.OrderStatusReturned, true},
		{model.OrderStatusDispatched, model.OrderStatusCancelled, false},
		{model.OrderStatusDelivered, model.OrderStatusReturned, false},
		{model.OrderStatusCancelled, model.OrderStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, model.OrderStatusDelivered.Terminal())
	assert.True(t, model.OrderStatusCancelled.Terminal())
	assert.False(t, model.OrderStatusConfirmed.Terminal())
	assert.True(t, model.OrderStatusNoAnswer.Editable())
	assert.False(t, model.OrderStatusConfirmed.Editable())
}

func TestItemsSum(t *testing.T) {
	items := []model.OrderItem{
		{Quantity: 2, UnitPrice: decimal.RequireFromString("1500.50")},
		{Quantity: 1, UnitPrice: decimal.RequireFromString("999")},
	}
	assert.True(t, decimal.RequireFromString("4000").Equal(model.ItemsSum(items)))
	assert.True(t, model.ItemsSum(nil).IsZero())
}
