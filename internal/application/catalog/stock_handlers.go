package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/catalog"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/petstore/backend/internal/domain/trade"
	"github.com/petstore/backend/internal/domain/warehouse"
	"go.uber.org/zap"
)

// StockReleaser returns reserved units to the shelf
type StockReleaser interface {
	ReleaseStock(ctx context.Context, demand map[uuid.UUID]int, reason string) error
}

// ReceiptApplier books received units at their landed cost, all lines or none
type ReceiptApplier interface {
	ApplyReceipt(ctx context.Context, lines []ReceivedLine) error
}

// OrderStockHandler restores stock when an order is cancelled or returned
type OrderStockHandler struct {
	stock  StockReleaser
	logger *zap.Logger
}

// NewOrderStockHandler creates a new handler for order cancel/return events
func NewOrderStockHandler(stock StockReleaser, logger *zap.Logger) *OrderStockHandler {
	return &OrderStockHandler{
		stock:  stock,
		logger: logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderStockHandler) EventTypes() []string {
	return []string{trade.EventTypeOrderCancelled, trade.EventTypeOrderReturned}
}

// Handle puts the order's units back on the shelf
func (h *OrderStockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var (
		orderNumber string
		items       []trade.OrderItemInfo
		reason      string
	)

	switch e := event.(type) {
	case *trade.OrderCancelledEvent:
		orderNumber, items, reason = e.OrderNumber, e.Items, catalog.StockReasonOrderCancel
	case *trade.OrderReturnedEvent:
		orderNumber, items, reason = e.OrderNumber, e.Items, catalog.StockReasonOrderReturn
	default:
		h.logger.Error("unexpected event type",
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	demand := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		demand[item.ProductID] += item.Quantity
	}

	h.logger.Info("restoring stock for order",
		zap.String("order_number", orderNumber),
		zap.String("reason", reason),
		zap.Int("items_count", len(items)),
	)

	if err := h.stock.ReleaseStock(ctx, demand, reason); err != nil {
		h.logger.Error("failed to restore stock",
			zap.String("order_number", orderNumber),
			zap.Error(err),
		)
		return fmt.Errorf("restore stock for order %s: %w", orderNumber, err)
	}
	return nil
}

// ReceiptPostedHandler adds posted receipt lines to stock and re-weights purchase prices
type ReceiptPostedHandler struct {
	products ReceiptApplier
	logger   *zap.Logger
}

// NewReceiptPostedHandler creates a new handler for receipt posted events
func NewReceiptPostedHandler(products ReceiptApplier, logger *zap.Logger) *ReceiptPostedHandler {
	return &ReceiptPostedHandler{
		products: products,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ReceiptPostedHandler) EventTypes() []string {
	return []string{warehouse.EventTypeReceiptPosted}
}

// Handle books the posted lines. A failure leaves stock untouched and is
// returned so the receipt can go back to draft.
func (h *ReceiptPostedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	posted, ok := event.(*warehouse.ReceiptPostedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", warehouse.EventTypeReceiptPosted),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			warehouse.EventTypeReceiptPosted, event.EventType())
	}

	h.logger.Info("applying posted receipt",
		zap.String("receipt_number", posted.ReceiptNumber),
		zap.Int("lines", len(posted.Lines)),
		zap.String("landed_value", posted.LandedValue.String()),
	)

	lines := make([]ReceivedLine, len(posted.Lines))
	for i, l := range posted.Lines {
		lines[i] = ReceivedLine{ProductID: l.ProductID, Quantity: l.Quantity, LandedUnitCost: l.LandedUnitCost}
	}
	if err := h.products.ApplyReceipt(ctx, lines); err != nil {
		h.logger.Error("failed to apply receipt",
			zap.String("receipt_number", posted.ReceiptNumber),
			zap.Error(err),
		)
		return fmt.Errorf("apply receipt %s: %w", posted.ReceiptNumber, err)
	}
	return nil
}

// Ensure handlers implement the EventHandler interface
var (
	_ shared.EventHandler = (*OrderStockHandler)(nil)
	_ shared.EventHandler = (*ReceiptPostedHandler)(nil)
)
