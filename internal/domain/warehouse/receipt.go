package warehouse

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReceiptItem is one product line of a warehouse receipt
type ReceiptItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ReceiptID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU            string          `gorm:"type:varchar(50)"`
	ProductName    string          `gorm:"type:varchar(200);not null"`
	Quantity       int             `gorm:"not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SupplierTotal  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AllocatedExtra decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LandedTotal    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LandedUnitCost decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName returns the table name for GORM
func (ReceiptItem) TableName() string {
	return "receipt_items"
}

// ReceiptItemInput carries the data for a receipt line
type ReceiptItemInput struct {
	ProductID   uuid.UUID
	SKU         string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Receipt records goods received from a supplier. Posting puts the goods
// on the shelf at their landed cost; after that only payment may change.
type Receipt struct {
	shared.BaseAggregateRoot
	ReceiptNumber string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	SupplierName  string          `gorm:"type:varchar(200)"`
	ReceiptDate   time.Time       `gorm:"not null;index"`
	DueDate       time.Time       `gorm:"not null;index"`
	ExtraCost     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SupplierValue decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LandedValue   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Items         []ReceiptItem   `gorm:"foreignKey:ReceiptID"`
	Note          string          `gorm:"type:text"`
	IsPosted      bool            `gorm:"not null;index"`
	PostedAt      *time.Time
	IsPaid        bool `gorm:"not null;index"`
	PaidAt        *time.Time
}

// ErrReceiptNotBooked is returned when a posted receipt's goods could not be
// booked into stock and the receipt was returned to draft
var ErrReceiptNotBooked = shared.NewDomainError("RECEIPT_NOT_BOOKED", "Receipt goods could not be booked into stock; the receipt is a draft again")

// TableName returns the table name for GORM
func (Receipt) TableName() string {
	return "receipts"
}

// NewReceipt creates a draft receipt. The due date is the receipt date plus
// the supplier's payment term.
func NewReceipt(receiptNumber string, supplierID uuid.UUID, supplierName string, receiptDate time.Time, paymentTermDays int) (*Receipt, error) {
	if receiptNumber == "" {
		return nil, shared.NewDomainError("INVALID_RECEIPT_NUMBER", "Receipt number cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if receiptDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Receipt date is required")
	}
	if paymentTermDays < 0 {
		paymentTermDays = 0
	}

	date := startOfDay(receiptDate)
	receipt := &Receipt{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReceiptNumber:     receiptNumber,
		SupplierID:        supplierID,
		SupplierName:      supplierName,
		ReceiptDate:       date,
		DueDate:           date.AddDate(0, 0, paymentTermDays),
		ExtraCost:         decimal.Zero,
		SupplierValue:     decimal.Zero,
		LandedValue:       decimal.Zero,
		Items:             make([]ReceiptItem, 0),
	}

	receipt.AddDomainEvent(NewReceiptCreatedEvent(receipt))

	return receipt, nil
}

// SetDueDate overrides the payment due date of a draft. It cannot precede
// the receipt date.
func (r *Receipt) SetDueDate(due time.Time) error {
	if err := r.ensureDraft("change due date of"); err != nil {
		return err
	}
	due = startOfDay(due)
	if due.Before(r.ReceiptDate) {
		return shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before the receipt date")
	}
	r.DueDate = due
	r.IncrementVersion()
	return nil
}

// SetExtraCost sets shipping, customs and other costs to spread over the lines
func (r *Receipt) SetExtraCost(extra decimal.Decimal) error {
	if err := r.ensureDraft("change extra cost of"); err != nil {
		return err
	}
	if extra.IsNegative() {
		return shared.NewDomainError("INVALID_EXTRA_COST", "Extra cost cannot be negative")
	}
	r.ExtraCost = extra
	if err := r.Recalculate(); err != nil {
		return err
	}
	r.IncrementVersion()
	return nil
}

// SetNote sets the receipt note
func (r *Receipt) SetNote(note string) {
	r.Note = note
	r.IncrementVersion()
}

// ReplaceItems swaps the item list and recalculates landed costs.
// Nothing changes if any line is invalid.
func (r *Receipt) ReplaceItems(inputs []ReceiptItemInput) error {
	if err := r.ensureDraft("change items of"); err != nil {
		return err
	}

	now := time.Now()
	items := make([]ReceiptItem, 0, len(inputs))
	for i, in := range inputs {
		if in.ProductID == uuid.Nil {
			return shared.NewDomainError("INVALID_PRODUCT", fmt.Sprintf("Line %d: product ID cannot be empty", i+1))
		}
		if in.Quantity <= 0 {
			return shared.NewDomainError("INVALID_QUANTITY", fmt.Sprintf("Line %d: quantity must be positive", i+1))
		}
		if in.UnitPrice.IsNegative() {
			return shared.NewDomainError("INVALID_PRICE", fmt.Sprintf("Line %d: unit price cannot be negative", i+1))
		}
		items = append(items, ReceiptItem{
			ID:          uuid.New(),
			ReceiptID:   r.ID,
			ProductID:   in.ProductID,
			SKU:         in.SKU,
			ProductName: strings.TrimSpace(in.ProductName),
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	previous := r.Items
	r.Items = items
	if err := r.Recalculate(); err != nil {
		r.Items = previous
		return err
	}
	r.IncrementVersion()
	return nil
}

// Recalculate runs the landed-cost allocator over the items
func (r *Receipt) Recalculate() error {
	lines := make([]CostLine, len(r.Items))
	for i, item := range r.Items {
		lines[i] = CostLine{Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}

	costs, err := AllocateExtraCost(lines, r.ExtraCost)
	if err != nil {
		return err
	}

	supplierValue := decimal.Zero
	landedValue := decimal.Zero
	for i := range r.Items {
		r.Items[i].SupplierTotal = costs[i].SupplierTotal
		r.Items[i].AllocatedExtra = costs[i].AllocatedExtra
		r.Items[i].LandedTotal = costs[i].LandedTotal
		r.Items[i].LandedUnitCost = costs[i].LandedUnitCost
		supplierValue = supplierValue.Add(costs[i].SupplierTotal)
		landedValue = landedValue.Add(costs[i].LandedTotal)
	}
	r.SupplierValue = supplierValue
	r.LandedValue = landedValue

	return nil
}

// Post puts the goods on the shelf. Stock and purchase prices are updated
// by the ReceiptPosted handler. A receipt is posted at most once.
func (r *Receipt) Post(at time.Time) error {
	if r.IsPosted {
		return shared.NewDomainError("ALREADY_POSTED", "Receipt has already been posted")
	}
	if len(r.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot post a receipt without items")
	}
	if err := r.Recalculate(); err != nil {
		return err
	}
	if at.IsZero() {
		at = time.Now()
	}

	r.IsPosted = true
	r.PostedAt = &at
	r.IncrementVersion()

	r.AddDomainEvent(NewReceiptPostedEvent(r))

	return nil
}

// Unpost returns a receipt to draft when its goods could not be booked into
// stock. Queued ReceiptPosted events are dropped.
func (r *Receipt) Unpost() error {
	if !r.IsPosted {
		return shared.NewDomainError("NOT_POSTED", "Receipt is not posted")
	}
	r.IsPosted = false
	r.PostedAt = nil
	r.IncrementVersion()

	kept := r.PullDomainEvents()
	for _, e := range kept {
		if e.EventType() != EventTypeReceiptPosted {
			r.AddDomainEvent(e)
		}
	}
	return nil
}

// MarkPaid records that the supplier has been paid
func (r *Receipt) MarkPaid(at time.Time) error {
	if r.IsPaid {
		return shared.NewDomainError("ALREADY_PAID", "Receipt is already paid")
	}
	if at.IsZero() {
		at = time.Now()
	}

	r.IsPaid = true
	r.PaidAt = &at
	r.IncrementVersion()

	r.AddDomainEvent(NewReceiptPaymentChangedEvent(r))

	return nil
}

// MarkUnpaid reverts a payment
func (r *Receipt) MarkUnpaid() error {
	if !r.IsPaid {
		return shared.NewDomainError("NOT_PAID", "Receipt is not paid")
	}

	r.IsPaid = false
	r.PaidAt = nil
	r.IncrementVersion()

	r.AddDomainEvent(NewReceiptPaymentChangedEvent(r))

	return nil
}

// IsOverdue reports whether the receipt is unpaid and its due date is
// before the start of the day containing now.
func (r *Receipt) IsOverdue(now time.Time) bool {
	if r.IsPaid {
		return false
	}
	due := r.DueDate.In(now.Location())
	return due.Before(startOfDay(now))
}

// TotalQuantity returns the number of units received
func (r *Receipt) TotalQuantity() int {
	total := 0
	for _, item := range r.Items {
		total += item.Quantity
	}
	return total
}

// CanDelete reports whether the receipt can be removed
func (r *Receipt) CanDelete() bool {
	return !r.IsPosted
}

func (r *Receipt) ensureDraft(action string) error {
	if r.IsPosted {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot %s a posted receipt", action))
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
