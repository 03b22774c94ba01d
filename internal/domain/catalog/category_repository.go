package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/shared"
)

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	// FindByID finds a category by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// FindByCode finds a category by its code
	FindByCode(ctx context.Context, code string) (*Category, error)

	// FindAll finds all categories matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Category, error)

	// FindChildren finds direct children of a category
	FindChildren(ctx context.Context, parentID uuid.UUID) ([]Category, error)

	// FindDescendants finds every category below the given one
	FindDescendants(ctx context.Context, category *Category) ([]Category, error)

	// Save creates or updates a category
	Save(ctx context.Context, category *Category) error

	// SaveAll persists several categories in one transaction
	SaveAll(ctx context.Context, categories []*Category) error

	// Delete deletes a category
	Delete(ctx context.Context, id uuid.UUID) error

	// HasChildren reports whether the category has child categories
	HasChildren(ctx context.Context, categoryID uuid.UUID) (bool, error)

	// ExistsByCode checks if a category with the given code exists
	ExistsByCode(ctx context.Context, code string) (bool, error)
}
