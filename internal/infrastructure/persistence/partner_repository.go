package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/partner"
	"github.com/petstore/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormSupplierRepository stores suppliers
type GormSupplierRepository struct {
	rows table[partner.Supplier]
}

func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{rows: table[partner.Supplier]{db: db}}
}

func (r *GormSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	return r.rows.get(ctx, "id = ?", id)
}

func (r *GormSupplierRepository) FindByCode(ctx context.Context, code string) (*partner.Supplier, error) {
	return r.rows.get(ctx, "code = ?", normalizeCode(code))
}

func (r *GormSupplierRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Supplier, error) {
	return r.rows.list(ctx, filter, r.applyFilter, SupplierSortFields, "name ASC")
}

func (r *GormSupplierRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]partner.Supplier, error) {
	return r.rows.byIDs(ctx, ids)
}

func (r *GormSupplierRepository) Save(ctx context.Context, supplier *partner.Supplier) error {
	return r.rows.save(ctx, supplier)
}

func (r *GormSupplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.rows.remove(ctx, id)
}

func (r *GormSupplierRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return r.rows.count(ctx, filter, r.applyFilter)
}

func (r *GormSupplierRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return r.rows.exists(ctx, "code = ?", normalizeCode(code))
}

func (r *GormSupplierRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search == "" {
		return query
	}
	p := likePattern(filter.Search)
	return query.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ? OR LOWER(contact_person) LIKE ? OR phone LIKE ?", p, p, p, p)
}

// GormCustomerRepository stores customers keyed by normalized phone
type GormCustomerRepository struct {
	rows table[partner.Customer]
}

func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{rows: table[partner.Customer]{db: db}}
}

func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	return r.rows.get(ctx, "id = ?", id)
}

// FindByPhone accepts any formatting of the number
func (r *GormCustomerRepository) FindByPhone(ctx context.Context, phone string) (*partner.Customer, error) {
	return r.rows.get(ctx, "phone = ?", partner.NormalizePhone(phone))
}

func (r *GormCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Customer, error) {
	return r.rows.list(ctx, filter, r.applyFilter, CustomerSortFields, "name ASC")
}

func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	return r.rows.save(ctx, customer)
}

func (r *GormCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.rows.remove(ctx, id)
}

func (r *GormCustomerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return r.rows.count(ctx, filter, r.applyFilter)
}

// CountCreatedBetween counts customers created in [from, to)
func (r *GormCustomerRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	lo, hi := widen(from, to)
	var created []time.Time
	if err := r.rows.model(ctx).
		Where("created_at >= ? AND created_at < ?", lo, hi).
		Pluck("created_at", &created).Error; err != nil {
		return 0, err
	}
	var n int64
	for _, t := range created {
		if inWindow(t, from, to) {
			n++
		}
	}
	return n, nil
}

func (r *GormCustomerRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	return r.rows.exists(ctx, "phone = ?", partner.NormalizePhone(phone))
}

// applyFilter matches search against name and email, and against the phone
// when the term has at least three digits. "city" is an exact match; sqlite
// LOWER only folds ASCII, so the raw value is tried first.
func (r *GormCustomerRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		p := likePattern(filter.Search)
		if digits := partner.NormalizePhone(filter.Search); len(digits) >= 3 {
			query = query.Where("LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?", p, "%"+digits+"%", p)
		} else {
			query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", p, p)
		}
	}
	if city, ok := filter.Filters["city"].(string); ok && city != "" {
		query = query.Where("city = ? OR LOWER(city) = ?", city, strings.ToLower(city))
	}
	return query
}

var (
	_ partner.SupplierRepository = (*GormSupplierRepository)(nil)
	_ partner.CustomerRepository = (*GormCustomerRepository)(nil)
)
