package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/finance"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormExpenseRepository stores operating expenses
type GormExpenseRepository struct {
	rows table[finance.Expense]
}

func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{rows: table[finance.Expense]{db: db}}
}

func (r *GormExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Expense, error) {
	return r.rows.get(ctx, "id = ?", id)
}

// FindAll lists expenses, latest first by default
func (r *GormExpenseRepository) FindAll(ctx context.Context, filter shared.Filter) ([]finance.Expense, error) {
	return r.rows.list(ctx, filter, r.applyFilter, ExpenseSortFields, "expense_date DESC")
}

// FindBetween returns expenses dated in [from, to)
func (r *GormExpenseRepository) FindBetween(ctx context.Context, from, to time.Time) ([]finance.Expense, error) {
	lo, hi := widen(from, to)
	var candidates []finance.Expense
	if err := r.rows.model(ctx).
		Where("expense_date >= ? AND expense_date < ?", lo, hi).
		Order("expense_date ASC").
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	expenses := make([]finance.Expense, 0, len(candidates))
	for _, e := range candidates {
		if inWindow(e.ExpenseDate, from, to) {
			expenses = append(expenses, e)
		}
	}
	return expenses, nil
}

func (r *GormExpenseRepository) Save(ctx context.Context, expense *finance.Expense) error {
	return r.rows.save(ctx, expense)
}

func (r *GormExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.rows.remove(ctx, id)
}

func (r *GormExpenseRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return r.rows.count(ctx, filter, r.applyFilter)
}

// SumBetween totals expenses dated in [from, to).
// Summed in decimal rather than SQL to keep exact money arithmetic on sqlite.
func (r *GormExpenseRepository) SumBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	expenses, err := r.FindBetween(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total, nil
}

func (r *GormExpenseRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(description) LIKE ?", likePattern(filter.Search))
	}
	for key, value := range filter.Filters {
		switch key {
		case "category":
			query = query.Where("category = ?", value)
		case "from":
			if t, ok := timeFilter(value); ok {
				query = query.Where("expense_date >= ?", t)
			}
		case "to":
			if t, ok := timeFilter(value); ok {
				query = query.Where("expense_date < ?", t)
			}
		}
	}
	return query
}

var _ finance.ExpenseRepository = (*GormExpenseRepository)(nil)
