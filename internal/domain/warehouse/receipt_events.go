package warehouse

import (
	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeReceipt = "Receipt"

// Event type constants
const (
	EventTypeReceiptCreated        = "ReceiptCreated"
	EventTypeReceiptPosted         = "ReceiptPosted"
	EventTypeReceiptPaymentChanged = "ReceiptPaymentChanged"
)

// ReceiptCreatedEvent is raised when a draft receipt is created
type ReceiptCreatedEvent struct {
	shared.BaseDomainEvent
	ReceiptID     uuid.UUID `json:"receipt_id"`
	ReceiptNumber string    `json:"receipt_number"`
	SupplierID    uuid.UUID `json:"supplier_id"`
}

// NewReceiptCreatedEvent creates a new ReceiptCreatedEvent
func NewReceiptCreatedEvent(r *Receipt) *ReceiptCreatedEvent {
	return &ReceiptCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptCreated, AggregateTypeReceipt, r.ID),
		ReceiptID:       r.ID,
		ReceiptNumber:   r.ReceiptNumber,
		SupplierID:      r.SupplierID,
	}
}

// PostedLine is a received line with its landed unit cost
type PostedLine struct {
	ProductID      uuid.UUID       `json:"product_id"`
	Quantity       int             `json:"quantity"`
	LandedUnitCost decimal.Decimal `json:"landed_unit_cost"`
}

// ReceiptPostedEvent is raised once when a receipt is posted.
// Its handler adds stock and re-weights product purchase prices.
type ReceiptPostedEvent struct {
	shared.BaseDomainEvent
	ReceiptID     uuid.UUID       `json:"receipt_id"`
	ReceiptNumber string          `json:"receipt_number"`
	SupplierID    uuid.UUID       `json:"supplier_id"`
	SupplierValue decimal.Decimal `json:"supplier_value"`
	LandedValue   decimal.Decimal `json:"landed_value"`
	Lines         []PostedLine    `json:"lines"`
}

// NewReceiptPostedEvent creates a new ReceiptPostedEvent
func NewReceiptPostedEvent(r *Receipt) *ReceiptPostedEvent {
	lines := make([]PostedLine, len(r.Items))
	for i, item := range r.Items {
		lines[i] = PostedLine{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			LandedUnitCost: item.LandedUnitCost,
		}
	}
	return &ReceiptPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptPosted, AggregateTypeReceipt, r.ID),
		ReceiptID:       r.ID,
		ReceiptNumber:   r.ReceiptNumber,
		SupplierID:      r.SupplierID,
		SupplierValue:   r.SupplierValue,
		LandedValue:     r.LandedValue,
		Lines:           lines,
	}
}

// ReceiptPaymentChangedEvent is raised on pay and unpay
type ReceiptPaymentChangedEvent struct {
	shared.BaseDomainEvent
	ReceiptID  uuid.UUID       `json:"receipt_id"`
	SupplierID uuid.UUID       `json:"supplier_id"`
	Paid       bool            `json:"paid"`
	Amount     decimal.Decimal `json:"amount"`
}

// NewReceiptPaymentChangedEvent creates a new ReceiptPaymentChangedEvent
func NewReceiptPaymentChangedEvent(r *Receipt) *ReceiptPaymentChangedEvent {
	return &ReceiptPaymentChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptPaymentChanged, AggregateTypeReceipt, r.ID),
		ReceiptID:       r.ID,
		SupplierID:      r.SupplierID,
		Paid:            r.IsPaid,
		Amount:          r.SupplierValue,
	}
}
