package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/catalog"
	"github.com/petstore/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormProductRepository stores products in the products table
type GormProductRepository struct {
	rows table[catalog.Product]
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{rows: table[catalog.Product]{db: db}}
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return r.rows.get(ctx, "id = ?", id)
}

// FindBySKU is case-insensitive; SKUs are stored upper-cased
func (r *GormProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	return r.rows.get(ctx, "sku = ?", normalizeCode(sku))
}

func (r *GormProductRepository) FindByBarcode(ctx context.Context, barcode string) (*catalog.Product, error) {
	if barcode == "" {
		return nil, shared.NewDomainError("INVALID_BARCODE", "Barcode cannot be empty")
	}
	return r.rows.get(ctx, "barcode = ?", barcode)
}

func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	return r.rows.list(ctx, filter, r.applyFilter, ProductSortFields, "name_uk ASC")
}

func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	return r.rows.byIDs(ctx, ids)
}

// FindLowStock lists active products at or below threshold, lowest stock first
func (r *GormProductRepository) FindLowStock(ctx context.Context, threshold int) ([]catalog.Product, error) {
	var products []catalog.Product
	err := r.rows.model(ctx).
		Where("is_active = ? AND stock <= ?", true, threshold).
		Order("stock ASC, sku ASC").
		Find(&products).Error
	return products, err
}

func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.rows.save(ctx, product)
}

func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.rows.remove(ctx, id)
}

func (r *GormProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return r.rows.count(ctx, filter, r.applyFilter)
}

func (r *GormProductRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	return r.rows.countWhere(ctx, "category_id = ?", categoryID)
}

func (r *GormProductRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	return r.rows.exists(ctx, "sku = ?", normalizeCode(sku))
}

// ExistsByBarcode is false for an empty barcode; many products have none
func (r *GormProductRepository) ExistsByBarcode(ctx context.Context, barcode string) (bool, error) {
	if barcode == "" {
		return false, nil
	}
	return r.rows.exists(ctx, "barcode = ?", barcode)
}

// applyFilter understands category_id (nil for uncategorized), is_active,
// low_stock (an int threshold) and has_promo
func (r *GormProductRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("LOWER(name_uk) LIKE ? OR LOWER(name_en) LIKE ? OR LOWER(sku) LIKE ? OR barcode LIKE ?", p, p, p, p)
	}

	for key, value := range filter.Filters {
		switch key {
		case "category_id":
			if value == nil {
				query = query.Where("category_id IS NULL")
				continue
			}
			query = query.Where("category_id = ?", value)
		case "is_active":
			if active, ok := boolFilter(value); ok {
				query = query.Where("is_active = ?", active)
			}
		case "low_stock":
			if threshold, ok := value.(int); ok {
				query = query.Where("stock <= ?", threshold)
			}
		case "has_promo":
			promo, ok := boolFilter(value)
			switch {
			case !ok:
			case promo:
				query = query.Where("promo_price IS NOT NULL")
			default:
				query = query.Where("promo_price IS NULL")
			}
		}
	}
	return query
}

// normalizeCode upper-cases SKUs and supplier or category codes
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
