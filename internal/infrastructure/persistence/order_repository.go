package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/petstore/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func preloadOrderItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, sku ASC")
	})
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var order trade.Order
	if err := preloadOrderItems(r.db.WithContext(ctx)).First(&order, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// FindByOrderNumber finds an order by its number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*trade.Order, error) {
	var order trade.Order
	if err := preloadOrderItems(r.db.WithContext(ctx)).
		Where("order_number = ?", orderNumber).
		First(&order).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// FindAll lists orders with items, newest first by default
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.Order, error) {
	var orders []trade.Order
	query := r.applyFilter(preloadOrderItems(r.db.WithContext(ctx)).Model(&trade.Order{}), filter)
	query = paginate(query, filter, OrderSortFields, "created_at DESC")
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindBetween returns orders created in [from, to) with their items
func (r *GormOrderRepository) FindBetween(ctx context.Context, from, to time.Time) ([]trade.Order, error) {
	lo, hi := widen(from, to)
	var candidates []trade.Order
	if err := preloadOrderItems(r.db.WithContext(ctx)).
		Where("created_at >= ? AND created_at < ?", lo, hi).
		Order("created_at ASC").
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	orders := make([]trade.Order, 0, len(candidates))
	for _, o := range candidates {
		if inWindow(o.CreatedAt, from, to) {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

// Save writes the order header and reconciles its items in one transaction.
// Items no longer on the order are deleted.
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, order); err != nil {
			return err
		}

		keep := make([]uuid.UUID, 0, len(order.Items))
		for i := range order.Items {
			keep = append(keep, order.Items[i].ID)
		}
		stale := tx.Where("order_id = ?", order.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if err := stale.Delete(&trade.OrderItem{}).Error; err != nil {
			return err
		}

		for i := range order.Items {
			order.Items[i].OrderID = order.ID
			if err := tx.Save(&order.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	markSaved(order)
	return nil
}

// Delete removes an order and its items
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&trade.OrderItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&trade.Order{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&trade.Order{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByCustomer counts orders for a customer
func (r *GormOrderRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&trade.Order{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByProduct reports whether any order line references the product
func (r *GormOrderRepository) ExistsByProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&trade.OrderItem{}).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateOrderNumber returns the next ORD-YYYY-NNNNN number
func (r *GormOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	return nextSequence(r.db.WithContext(ctx), &trade.Order{}, "order_number", "ORD", time.Now())
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where(
			"LOWER(order_number) LIKE ? OR LOWER(customer_name) LIKE ? OR customer_phone LIKE ? OR LOWER(delivery_ttn) LIKE ?",
			p, p, p, p)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "payment_status":
			query = query.Where("payment_status = ?", value)
		case "channel":
			query = query.Where("channel = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "from":
			if t, ok := timeFilter(value); ok {
				query = query.Where("created_at >= ?", t)
			}
		case "to":
			if t, ok := timeFilter(value); ok {
				query = query.Where("created_at < ?", t)
			}
		}
	}
	return query
}

// Ensure GormOrderRepository implements OrderRepository
var _ trade.OrderRepository = (*GormOrderRepository)(nil)
