package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/shared"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderNumber finds an order by its number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)

	// FindAll lists orders. Filter keys: status, payment_status, channel,
	// customer_id, from, to (created_at bounds, to exclusive).
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// FindBetween returns orders created in [from, to) with their items
	FindBetween(ctx context.Context, from, to time.Time) ([]Order, error)

	// Save creates or updates an order and its items
	Save(ctx context.Context, order *Order) error

	// Delete removes an order and its items
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByCustomer counts orders for a customer
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)

	// ExistsByProduct reports whether any order line references the product
	ExistsByProduct(ctx context.Context, productID uuid.UUID) (bool, error)

	// GenerateOrderNumber returns the next ORD-YYYY-NNNNN number
	GenerateOrderNumber(ctx context.Context) (string, error)
}
