package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/petstore/backend/internal/domain/warehouse"
	"gorm.io/gorm"
)

// GormReceiptRepository implements ReceiptRepository using GORM
type GormReceiptRepository struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

// NewGormReceiptRepository creates a new GormReceiptRepository.
// loc is the shop's zone; "overdue" filters count days in it.
func NewGormReceiptRepository(db *gorm.DB, loc *time.Location) *GormReceiptRepository {
	if loc == nil {
		loc = time.Local
	}
	return &GormReceiptRepository{db: db, loc: loc, now: time.Now}
}

// today is midnight of the current day in the shop's zone
func (r *GormReceiptRepository) today() time.Time {
	now := r.now().In(r.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.loc)
}

func preloadReceiptItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, sku ASC")
	})
}

// FindByID finds a receipt with its items
func (r *GormReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*warehouse.Receipt, error) {
	var receipt warehouse.Receipt
	if err := preloadReceiptItems(r.db.WithContext(ctx)).First(&receipt, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &receipt, nil
}

// FindAll lists receipts with items, latest receipt date first by default
func (r *GormReceiptRepository) FindAll(ctx context.Context, filter shared.Filter) ([]warehouse.Receipt, error) {
	var receipts []warehouse.Receipt
	query := r.applyFilter(preloadReceiptItems(r.db.WithContext(ctx)).Model(&warehouse.Receipt{}), filter)
	query = paginate(query, filter, ReceiptSortFields, "receipt_date DESC, receipt_number DESC")
	if err := query.Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

// FindBySupplier returns every receipt of a supplier with items
func (r *GormReceiptRepository) FindBySupplier(ctx context.Context, supplierID uuid.UUID) ([]warehouse.Receipt, error) {
	var receipts []warehouse.Receipt
	if err := preloadReceiptItems(r.db.WithContext(ctx)).
		Where("supplier_id = ?", supplierID).
		Order("receipt_date DESC, receipt_number DESC").
		Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

// FindPosted returns every posted receipt without items
func (r *GormReceiptRepository) FindPosted(ctx context.Context) ([]warehouse.Receipt, error) {
	var receipts []warehouse.Receipt
	if err := r.db.WithContext(ctx).
		Where("is_posted = ?", true).
		Order("due_date ASC").
		Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

// FindUnpaid returns posted receipts that are not paid, earliest due first
func (r *GormReceiptRepository) FindUnpaid(ctx context.Context) ([]warehouse.Receipt, error) {
	var receipts []warehouse.Receipt
	if err := r.db.WithContext(ctx).
		Where("is_posted = ? AND is_paid = ?", true, false).
		Order("due_date ASC").
		Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

// Save writes the receipt header and reconciles its items in one transaction
func (r *GormReceiptRepository) Save(ctx context.Context, receipt *warehouse.Receipt) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, receipt); err != nil {
			return err
		}

		keep := make([]uuid.UUID, 0, len(receipt.Items))
		for i := range receipt.Items {
			keep = append(keep, receipt.Items[i].ID)
		}
		stale := tx.Where("receipt_id = ?", receipt.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if err := stale.Delete(&warehouse.ReceiptItem{}).Error; err != nil {
			return err
		}

		for i := range receipt.Items {
			receipt.Items[i].ReceiptID = receipt.ID
			if err := tx.Save(&receipt.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	markSaved(receipt)
	return nil
}

// Delete removes a receipt and its items
func (r *GormReceiptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("receipt_id = ?", id).Delete(&warehouse.ReceiptItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&warehouse.Receipt{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Count counts receipts matching the filter
func (r *GormReceiptRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&warehouse.Receipt{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsBySupplier reports whether the supplier has any receipts
func (r *GormReceiptRepository) ExistsBySupplier(ctx context.Context, supplierID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&warehouse.Receipt{}).
		Where("supplier_id = ?", supplierID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsByProduct reports whether any receipt line references the product
func (r *GormReceiptRepository) ExistsByProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&warehouse.ReceiptItem{}).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateReceiptNumber returns the next RCP-YYYY-NNNNN number
func (r *GormReceiptRepository) GenerateReceiptNumber(ctx context.Context) (string, error) {
	return nextSequence(r.db.WithContext(ctx), &warehouse.Receipt{}, "receipt_number", "RCP", r.now().In(r.loc))
}

func (r *GormReceiptRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("LOWER(receipt_number) LIKE ? OR LOWER(supplier_name) LIKE ? OR LOWER(note) LIKE ?", p, p, p)
	}

	for key, value := range filter.Filters {
		switch key {
		case "supplier_id":
			query = query.Where("supplier_id = ?", value)
		case "paid":
			if paid, ok := boolFilter(value); ok {
				query = query.Where("is_paid = ?", paid)
			}
		case "posted":
			if posted, ok := boolFilter(value); ok {
				query = query.Where("is_posted = ?", posted)
			}
		case "overdue":
			if overdue, ok := boolFilter(value); ok {
				// the two lists partition the receipts: drafts are never overdue
				today := r.today()
				if overdue {
					query = query.Where("is_posted = ? AND is_paid = ? AND due_date < ?", true, false, today)
				} else {
					query = query.Where("is_posted = ? OR is_paid = ? OR due_date >= ?", false, true, today)
				}
			}
		case "from":
			if t, ok := timeFilter(value); ok {
				query = query.Where("receipt_date >= ?", t)
			}
		case "to":
			if t, ok := timeFilter(value); ok {
				query = query.Where("receipt_date < ?", t)
			}
		}
	}
	return query
}

// Ensure GormReceiptRepository implements ReceiptRepository
var _ warehouse.ReceiptRepository = (*GormReceiptRepository)(nil)
