package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/catalog"
	"github.com/petstore/backend/internal/domain/trade"
	"github.com/petstore/backend/internal/domain/warehouse"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStockTestOrder(t *testing.T, lines map[uuid.UUID]int) *trade.Order {
	t.Helper()
	order, err := trade.NewOrder("ORD-2026-00001", trade.ChannelWebsite, trade.PaymentMethodCard)
	require.NoError(t, err)
	for id, qty := range lines {
		_, err := order.AddItem(trade.ItemInput{
			ProductID:   id,
			SKU:         "SKU",
			ProductName: "Товар",
			Quantity:    qty,
			UnitPrice:   decimal.NewFromInt(10),
		})
		require.NoError(t, err)
	}
	return order
}

func TestOrderStockHandler_EventTypes(t *testing.T) {
	h := NewOrderStockHandler(new(MockStockReleaser), zap.NewNop())
	assert.ElementsMatch(t, []string{trade.EventTypeOrderCancelled, trade.EventTypeOrderReturned}, h.EventTypes())
}

func TestOrderStockHandler_Handle(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()

	t.Run("cancel restores reserved units", func(t *testing.T) {
		stock := new(MockStockReleaser)
		h := NewOrderStockHandler(stock, zap.NewNop())

		order := newStockTestOrder(t, map[uuid.UUID]int{productID: 3})
		event := trade.NewOrderCancelledEvent(order, trade.OrderStatusNew)
		stock.On("ReleaseStock", ctx, map[uuid.UUID]int{productID: 3}, catalog.StockReasonOrderCancel).Return(nil)

		require.NoError(t, h.Handle(ctx, event))
		stock.AssertExpectations(t)
	})

	t.Run("return restores shipped units", func(t *testing.T) {
		stock := new(MockStockReleaser)
		h := NewOrderStockHandler(stock, zap.NewNop())

		order := newStockTestOrder(t, map[uuid.UUID]int{productID: 2})
		event := trade.NewOrderReturnedEvent(order, trade.OrderStatusShipped)
		stock.On("ReleaseStock", ctx, map[uuid.UUID]int{productID: 2}, catalog.StockReasonOrderReturn).Return(nil)

		require.NoError(t, h.Handle(ctx, event))
	})

	t.Run("propagates release failure", func(t *testing.T) {
		stock := new(MockStockReleaser)
		h := NewOrderStockHandler(stock, zap.NewNop())

		order := newStockTestOrder(t, map[uuid.UUID]int{productID: 1})
		stock.On("ReleaseStock", ctx, mock.Anything, mock.Anything).Return(errors.New("db down"))

		err := h.Handle(ctx, trade.NewOrderCancelledEvent(order, trade.OrderStatusNew))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ORD-2026-00001")
	})

	t.Run("rejects unexpected event", func(t *testing.T) {
		h := NewOrderStockHandler(new(MockStockReleaser), zap.NewNop())
		order := newStockTestOrder(t, map[uuid.UUID]int{productID: 1})
		assert.Error(t, h.Handle(ctx, trade.NewOrderCreatedEvent(order)))
	})
}

func TestReceiptPostedHandler_Handle(t *testing.T) {
	ctx := context.Background()
	applier := new(MockReceiptApplier)
	h := NewReceiptPostedHandler(applier, zap.NewNop())
	assert.Equal(t, []string{warehouse.EventTypeReceiptPosted}, h.EventTypes())

	p1, p2 := uuid.New(), uuid.New()
	event := &warehouse.ReceiptPostedEvent{
		ReceiptNumber: "RCP-2026-00001",
		Lines: []warehouse.PostedLine{
			{ProductID: p1, Quantity: 10, LandedUnitCost: decimal.NewFromInt(7)},
			{ProductID: p2, Quantity: 5, LandedUnitCost: decimal.NewFromInt(12)},
		},
	}
	event.Type = warehouse.EventTypeReceiptPosted

	lines := []ReceivedLine{
		{ProductID: p1, Quantity: 10, LandedUnitCost: decimal.NewFromInt(7)},
		{ProductID: p2, Quantity: 5, LandedUnitCost: decimal.NewFromInt(12)},
	}

	t.Run("books all lines in one call", func(t *testing.T) {
		applier := new(MockReceiptApplier)
		h := NewReceiptPostedHandler(applier, zap.NewNop())
		applier.On("ApplyReceipt", ctx, lines).Return(nil).Once()

		require.NoError(t, h.Handle(ctx, event))
		applier.AssertExpectations(t)
	})

	t.Run("failure is returned", func(t *testing.T) {
		applier := new(MockReceiptApplier)
		h := NewReceiptPostedHandler(applier, zap.NewNop())
		applier.On("ApplyReceipt", ctx, lines).Return(errors.New("product not found"))

		err := h.Handle(ctx, event)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RCP-2026-00001")
	})

	t.Run("rejects other events", func(t *testing.T) {
		err := h.Handle(ctx, &trade.OrderCancelledEvent{})
		assert.Error(t, err)
		applier.AssertNotCalled(t, "ApplyReceipt", mock.Anything, mock.Anything)
	})
}
