package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// OrderItemRequest is one requested order line. UnitPrice defaults to the
// product's effective price at order time.
type OrderItemRequest struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required,min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal  `json:"discount"`
}

// DeliveryRequest carries shipping details
type DeliveryRequest struct {
	Carrier string          `json:"carrier" binding:"omitempty,max=100"`
	City    string          `json:"city" binding:"omitempty,max=100"`
	Address string          `json:"address" binding:"omitempty,max=500"`
	TTN     string          `json:"ttn" binding:"omitempty,max=50"`
	Cost    decimal.Decimal `json:"cost"`
}

func (d DeliveryRequest) toDomain() trade.Delivery {
	return trade.Delivery{
		Carrier: d.Carrier,
		City:    d.City,
		Address: d.Address,
		TTN:     d.TTN,
		Cost:    d.Cost,
	}
}

// CreateOrderRequest represents a request to create an order.
// OrderedAt back-dates an order taken earlier (phone, store) and defaults to now.
type CreateOrderRequest struct {
	Channel       string             `json:"channel" binding:"required,oneof=WEBSITE INSTAGRAM PHONE MARKETPLACE STORE"`
	CustomerID    *uuid.UUID         `json:"customer_id"`
	CustomerName  string             `json:"customer_name" binding:"omitempty,max=200"`
	CustomerPhone string             `json:"customer_phone" binding:"omitempty,max=20"`
	PaymentMethod string             `json:"payment_method" binding:"omitempty,oneof=CASH_ON_DELIVERY CARD BANK_TRANSFER"`
	Delivery      *DeliveryRequest   `json:"delivery"`
	Note          string             `json:"note" binding:"omitempty,max=2000"`
	OrderedAt     *time.Time         `json:"ordered_at"`
	Items         []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// UpdateOrderRequest changes order header fields. Nil fields are left unchanged.
type UpdateOrderRequest struct {
	CustomerID    *uuid.UUID       `json:"customer_id"`
	CustomerName  *string          `json:"customer_name" binding:"omitempty,max=200"`
	CustomerPhone *string          `json:"customer_phone" binding:"omitempty,max=20"`
	PaymentMethod *string          `json:"payment_method" binding:"omitempty,oneof=CASH_ON_DELIVERY CARD BANK_TRANSFER"`
	Delivery      *DeliveryRequest `json:"delivery"`
	Note          *string          `json:"note" binding:"omitempty,max=2000"`
}

// ReplaceItemsRequest replaces every line of a NEW order
type ReplaceItemsRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ShipOrderRequest hands the order to a carrier
type ShipOrderRequest struct {
	TTN     string `json:"ttn" binding:"omitempty,max=50"`
	Carrier string `json:"carrier" binding:"omitempty,max=100"`
}

// ReasonRequest carries an optional cancel/return reason
type ReasonRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// PayOrderRequest records payment. PaidAt defaults to now.
type PayOrderRequest struct {
	PaidAt *time.Time `json:"paid_at"`
}

// OrderListFilter represents filter options for the order list
type OrderListFilter struct {
	Search        string
	Status        string
	PaymentStatus string
	Channel       string
	CustomerID    *uuid.UUID
	From          *time.Time
	To            *time.Time
	Page          int
	PageSize      int
	OrderBy       string
	OrderDir      string
}

// OrderItemResponse represents an order line in API responses
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Amount      decimal.Decimal `json:"amount"`
}

// DeliveryResponse represents delivery details in API responses
type DeliveryResponse struct {
	Carrier string          `json:"carrier"`
	City    string          `json:"city"`
	Address string          `json:"address"`
	TTN     string          `json:"ttn"`
	Cost    decimal.Decimal `json:"cost"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID             uuid.UUID           `json:"id"`
	OrderNumber    string              `json:"order_number"`
	Channel        string              `json:"channel"`
	CustomerID     *uuid.UUID          `json:"customer_id"`
	CustomerName   string              `json:"customer_name"`
	CustomerPhone  string              `json:"customer_phone"`
	Delivery       DeliveryResponse    `json:"delivery"`
	Items          []OrderItemResponse `json:"items"`
	ItemCount      int                 `json:"item_count"`
	TotalQuantity  int                 `json:"total_quantity"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	CostAmount     decimal.Decimal     `json:"cost_amount"`
	GrossProfit    decimal.Decimal     `json:"gross_profit"`
	Status         string              `json:"status"`
	PaymentStatus  string              `json:"payment_status"`
	PaymentMethod  string              `json:"payment_method"`
	Note           string              `json:"note,omitempty"`
	CancelReason   string              `json:"cancel_reason,omitempty"`
	ConfirmedAt    *time.Time          `json:"confirmed_at,omitempty"`
	ShippedAt      *time.Time          `json:"shipped_at,omitempty"`
	CompletedAt    *time.Time          `json:"completed_at,omitempty"`
	CancelledAt    *time.Time          `json:"cancelled_at,omitempty"`
	ReturnedAt     *time.Time          `json:"returned_at,omitempty"`
	PaidAt         *time.Time          `json:"paid_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Version        int                 `json:"version"`
}

// OrderListItemResponse is the lighter shape used by list endpoints
type OrderListItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	OrderNumber   string          `json:"order_number"`
	Channel       string          `json:"channel"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	ItemCount     int             `json:"item_count"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	TTN           string          `json:"ttn,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToOrderResponse converts a domain Order to OrderResponse
func ToOrderResponse(o *trade.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			SKU:         item.SKU,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Discount:    item.Discount,
			UnitCost:    item.UnitCost,
			Amount:      item.Amount,
		}
	}

	return OrderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		Channel:       string(o.Channel),
		CustomerID:    o.CustomerID,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		Delivery: DeliveryResponse{
			Carrier: o.Delivery.Carrier,
			City:    o.Delivery.City,
			Address: o.Delivery.Address,
			TTN:     o.Delivery.TTN,
			Cost:    o.Delivery.Cost,
		},
		Items:          items,
		ItemCount:      o.ItemCount(),
		TotalQuantity:  o.TotalQuantity(),
		DiscountAmount: o.DiscountAmount(),
		TotalAmount:    o.TotalAmount,
		CostAmount:     o.CostAmount,
		GrossProfit:    o.GrossProfit(),
		Status:         string(o.Status),
		PaymentStatus:  string(o.PaymentStatus),
		PaymentMethod:  string(o.PaymentMethod),
		Note:           o.Note,
		CancelReason:   o.CancelReason,
		ConfirmedAt:    o.ConfirmedAt,
		ShippedAt:      o.ShippedAt,
		CompletedAt:    o.CompletedAt,
		CancelledAt:    o.CancelledAt,
		ReturnedAt:     o.ReturnedAt,
		PaidAt:         o.PaidAt,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		Version:        o.Version,
	}
}

// ToOrderListItemResponse converts a domain Order to its list shape
func ToOrderListItemResponse(o *trade.Order) OrderListItemResponse {
	return OrderListItemResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		Channel:       string(o.Channel),
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		ItemCount:     o.ItemCount(),
		TotalAmount:   o.TotalAmount,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		TTN:           o.Delivery.TTN,
		CreatedAt:     o.CreatedAt,
	}
}
