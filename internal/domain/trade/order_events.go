package trade

import (
	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderCreated        = "OrderCreated"
	EventTypeOrderStatusChanged  = "OrderStatusChanged"
	EventTypeOrderCancelled      = "OrderCancelled"
	EventTypeOrderReturned       = "OrderReturned"
	EventTypeOrderPaymentChanged = "OrderPaymentChanged"
)

// OrderItemInfo represents item information for events
type OrderItemInfo struct {
	ProductID uuid.UUID       `json:"product_id"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
}

func itemInfos(order *Order) []OrderItemInfo {
	items := make([]OrderItemInfo, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemInfo{
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			Amount:    item.Amount,
		}
	}
	return items
}

// OrderCreatedEvent is raised when a new order is created
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Channel     Channel   `json:"channel"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(order *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		Channel:         order.Channel,
	}
}

// OrderStatusChangedEvent is raised on confirm, ship and complete
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID   `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	From        OrderStatus `json:"from"`
	To          OrderStatus `json:"to"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(order *Order, from OrderStatus) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		From:            from,
		To:              order.Status,
	}
}

// OrderCancelledEvent is raised when an order is cancelled.
// The stock handler puts the listed units back on the shelf.
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	From        OrderStatus     `json:"from"`
	Reason      string          `json:"reason"`
	Items       []OrderItemInfo `json:"items"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(order *Order, from OrderStatus) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		From:            from,
		Reason:          order.CancelReason,
		Items:           itemInfos(order),
	}
}

// OrderReturnedEvent is raised when shipped goods come back
type OrderReturnedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	From        OrderStatus     `json:"from"`
	Reason      string          `json:"reason"`
	Items       []OrderItemInfo `json:"items"`
}

// NewOrderReturnedEvent creates a new OrderReturnedEvent
func NewOrderReturnedEvent(order *Order, from OrderStatus) *OrderReturnedEvent {
	return &OrderReturnedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderReturned, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		From:            from,
		Reason:          order.CancelReason,
		Items:           itemInfos(order),
	}
}

// OrderPaymentChangedEvent is raised on payment and refund
type OrderPaymentChangedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	From        PaymentStatus   `json:"from"`
	To          PaymentStatus   `json:"to"`
	Amount      decimal.Decimal `json:"amount"`
}

// NewOrderPaymentChangedEvent creates a new OrderPaymentChangedEvent
func NewOrderPaymentChangedEvent(order *Order, from PaymentStatus) *OrderPaymentChangedEvent {
	return &OrderPaymentChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaymentChanged, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		From:            from,
		To:              order.PaymentStatus,
		Amount:          order.TotalAmount,
	}
}
