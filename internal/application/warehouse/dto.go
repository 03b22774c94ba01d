package warehouse

import (
	"time"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/warehouse"
	"github.com/shopspring/decimal"
)

// ReceiptItemRequest is one received line
type ReceiptItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateReceiptRequest represents a request to create a draft receipt
type CreateReceiptRequest struct {
	SupplierID  uuid.UUID            `json:"supplier_id" binding:"required"`
	ReceiptDate *time.Time           `json:"receipt_date"`
	DueDate     *time.Time           `json:"due_date"`
	ExtraCost   decimal.Decimal      `json:"extra_cost"`
	Note        string               `json:"note"`
	Items       []ReceiptItemRequest `json:"items" binding:"required,min=1,dive"`
}

// UpdateReceiptRequest represents a partial update of a draft receipt.
// DueDate and Note may also change after posting.
type UpdateReceiptRequest struct {
	DueDate   *time.Time           `json:"due_date"`
	ExtraCost *decimal.Decimal     `json:"extra_cost"`
	Note      *string              `json:"note"`
	Items     []ReceiptItemRequest `json:"items" binding:"omitempty,dive"`
}

// PayReceiptRequest carries an optional payment timestamp
type PayReceiptRequest struct {
	PaidAt *time.Time `json:"paid_at"`
}

// AllocationLineRequest is one line of an allocation preview
type AllocationLineRequest struct {
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// AllocationPreviewRequest asks for landed costs without saving anything
type AllocationPreviewRequest struct {
	ExtraCost decimal.Decimal         `json:"extra_cost"`
	Lines     []AllocationLineRequest `json:"lines" binding:"required,min=1"`
}

// AllocationPreviewResponse is the allocator output with totals
type AllocationPreviewResponse struct {
	Lines         []warehouse.LandedCost `json:"lines"`
	SupplierValue decimal.Decimal        `json:"supplier_value"`
	ExtraCost     decimal.Decimal        `json:"extra_cost"`
	LandedValue   decimal.Decimal        `json:"landed_value"`
}

// ReceiptListFilter represents receipt list query parameters
type ReceiptListFilter struct {
	Search     string
	SupplierID *uuid.UUID
	Paid       *bool
	Posted     *bool
	Overdue    *bool
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
	OrderBy    string
	OrderDir   string
}

// ReceiptItemResponse represents a receipt line in API responses
type ReceiptItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	SKU            string          `json:"sku"`
	ProductName    string          `json:"product_name"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	SupplierTotal  decimal.Decimal `json:"supplier_total"`
	AllocatedExtra decimal.Decimal `json:"allocated_extra"`
	LandedTotal    decimal.Decimal `json:"landed_total"`
	LandedUnitCost decimal.Decimal `json:"landed_unit_cost"`
}

// ReceiptResponse represents a receipt in API responses
type ReceiptResponse struct {
	ID            uuid.UUID             `json:"id"`
	ReceiptNumber string                `json:"receipt_number"`
	SupplierID    uuid.UUID             `json:"supplier_id"`
	SupplierName  string                `json:"supplier_name"`
	ReceiptDate   time.Time             `json:"receipt_date"`
	DueDate       time.Time             `json:"due_date"`
	ExtraCost     decimal.Decimal       `json:"extra_cost"`
	SupplierValue decimal.Decimal       `json:"supplier_value"`
	LandedValue   decimal.Decimal       `json:"landed_value"`
	TotalQuantity int                   `json:"total_quantity"`
	Note          string                `json:"note"`
	IsPosted      bool                  `json:"is_posted"`
	PostedAt      *time.Time            `json:"posted_at,omitempty"`
	IsPaid        bool                  `json:"is_paid"`
	PaidAt        *time.Time            `json:"paid_at,omitempty"`
	IsOverdue     bool                  `json:"is_overdue"`
	Items         []ReceiptItemResponse `json:"items,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// ToReceiptResponse converts a domain Receipt to ReceiptResponse
func ToReceiptResponse(r *warehouse.Receipt, now time.Time) ReceiptResponse {
	items := make([]ReceiptItemResponse, len(r.Items))
	for i, item := range r.Items {
		items[i] = ReceiptItemResponse{
			ID:             item.ID,
			ProductID:      item.ProductID,
			SKU:            item.SKU,
			ProductName:    item.ProductName,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			SupplierTotal:  item.SupplierTotal,
			AllocatedExtra: item.AllocatedExtra,
			LandedTotal:    item.LandedTotal,
			LandedUnitCost: item.LandedUnitCost,
		}
	}
	return ReceiptResponse{
		ID:            r.ID,
		ReceiptNumber: r.ReceiptNumber,
		SupplierID:    r.SupplierID,
		SupplierName:  r.SupplierName,
		ReceiptDate:   r.ReceiptDate,
		DueDate:       r.DueDate,
		ExtraCost:     r.ExtraCost,
		SupplierValue: r.SupplierValue,
		LandedValue:   r.LandedValue,
		TotalQuantity: r.TotalQuantity(),
		Note:          r.Note,
		IsPosted:      r.IsPosted,
		PostedAt:      r.PostedAt,
		IsPaid:        r.IsPaid,
		PaidAt:        r.PaidAt,
		IsOverdue:     r.IsPosted && r.IsOverdue(now),
		Items:         items,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// SettlementDetailResponse is one supplier's settlement with its receipts
type SettlementDetailResponse struct {
	warehouse.Settlement
	Receipts []ReceiptResponse `json:"receipts"`
}

// SettlementListResponse lists every supplier's settlement with totals
type SettlementListResponse struct {
	Summary     warehouse.SettlementSummary `json:"summary"`
	Settlements []warehouse.Settlement      `json:"settlements"`
}
