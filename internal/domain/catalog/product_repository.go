package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindBySKU finds a product by its SKU (case-insensitive)
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// FindByBarcode finds a product by its barcode
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)

	// FindAll finds all products matching the filter.
	// Supported filter keys: category_id, is_active, low_stock (int threshold), has_promo.
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// FindByIDs finds multiple products by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindLowStock finds active products with stock at or below the threshold
	FindLowStock(ctx context.Context, threshold int) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// Delete deletes a product
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByCategory counts products in a category
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)

	// ExistsBySKU checks if a product with the given SKU exists
	ExistsBySKU(ctx context.Context, sku string) (bool, error)

	// ExistsByBarcode checks if a product with the given barcode exists
	ExistsByBarcode(ctx context.Context, barcode string) (bool, error)
}
