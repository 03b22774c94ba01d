package warehouse

import (
	"context"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/shared"
)

// ReceiptRepository defines the interface for receipt persistence
type ReceiptRepository interface {
	// FindByID finds a receipt with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Receipt, error)

	// FindAll lists receipts. Filter keys: supplier_id, paid, posted,
	// overdue (bool, relative to today), from, to (receipt_date bounds).
	FindAll(ctx context.Context, filter shared.Filter) ([]Receipt, error)

	// FindBySupplier returns every receipt of a supplier with items
	FindBySupplier(ctx context.Context, supplierID uuid.UUID) ([]Receipt, error)

	// FindPosted returns every posted receipt without items
	FindPosted(ctx context.Context) ([]Receipt, error)

	// FindUnpaid returns posted receipts that are not paid
	FindUnpaid(ctx context.Context) ([]Receipt, error)

	// Save creates or updates a receipt and its items
	Save(ctx context.Context, receipt *Receipt) error

	// Delete removes a receipt and its items
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts receipts matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsBySupplier reports whether the supplier has any receipts
	ExistsBySupplier(ctx context.Context, supplierID uuid.UUID) (bool, error)

	// ExistsByProduct reports whether any receipt line references the product
	ExistsByProduct(ctx context.Context, productID uuid.UUID) (bool, error)

	// GenerateReceiptNumber returns the next RCP-YYYY-NNNNN number
	GenerateReceiptNumber(ctx context.Context) (string, error)
}
