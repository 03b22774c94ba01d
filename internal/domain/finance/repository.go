package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ExpenseRepository defines the interface for expense persistence
type ExpenseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Expense, error)
	// FindAll lists expenses. Filter keys: category, from, to (expense_date, to exclusive).
	FindAll(ctx context.Context, filter shared.Filter) ([]Expense, error)
	FindBetween(ctx context.Context, from, to time.Time) ([]Expense, error)
	Save(ctx context.Context, expense *Expense) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// SumBetween totals expenses dated in [from, to)
	SumBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}
