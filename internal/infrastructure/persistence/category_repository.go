package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/catalog"
	"github.com/petstore/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCategoryRepository stores the category tree. Each row keeps its
// materialized path, so subtree queries are a prefix match.
type GormCategoryRepository struct {
	rows table[catalog.Category]
}

func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{rows: table[catalog.Category]{db: db}}
}

func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	return r.rows.get(ctx, "id = ?", id)
}

func (r *GormCategoryRepository) FindByCode(ctx context.Context, code string) (*catalog.Category, error) {
	return r.rows.get(ctx, "code = ?", normalizeCode(code))
}

// FindAll orders roots first, then by sort order. Filter "parent_id" set to
// nil selects roots.
func (r *GormCategoryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Category, error) {
	return r.rows.list(ctx, filter, r.applyFilter, CategorySortFields, "level ASC, sort_order ASC, code ASC")
}

func (r *GormCategoryRepository) FindChildren(ctx context.Context, parentID uuid.UUID) ([]catalog.Category, error) {
	var children []catalog.Category
	err := r.rows.model(ctx).
		Where("parent_id = ?", parentID).
		Order("sort_order ASC, code ASC").
		Find(&children).Error
	return children, err
}

func (r *GormCategoryRepository) FindDescendants(ctx context.Context, category *catalog.Category) ([]catalog.Category, error) {
	var subtree []catalog.Category
	err := r.rows.model(ctx).
		Where("path LIKE ?", category.Path+"/%").
		Order("level ASC").
		Find(&subtree).Error
	return subtree, err
}

func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	return r.rows.save(ctx, category)
}

// SaveAll writes a moved category and its rebased subtree in one transaction
func (r *GormCategoryRepository) SaveAll(ctx context.Context, categories []*catalog.Category) error {
	if len(categories) == 0 {
		return nil
	}
	err := r.rows.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range categories {
			if err := saveVersioned(tx, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, c := range categories {
		markSaved(c)
	}
	return nil
}

func (r *GormCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.rows.remove(ctx, id)
}

func (r *GormCategoryRepository) HasChildren(ctx context.Context, categoryID uuid.UUID) (bool, error) {
	return r.rows.exists(ctx, "parent_id = ?", categoryID)
}

func (r *GormCategoryRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return r.rows.exists(ctx, "code = ?", normalizeCode(code))
}

func (r *GormCategoryRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("LOWER(code) LIKE ? OR LOWER(name_uk) LIKE ? OR LOWER(name_en) LIKE ?", p, p, p)
	}
	if parent, ok := filter.Filters["parent_id"]; ok {
		if parent == nil {
			query = query.Where("parent_id IS NULL")
		} else {
			query = query.Where("parent_id = ?", parent)
		}
	}
	return query
}

var _ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
