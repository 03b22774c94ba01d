package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// CreateExpenseRequest represents a request to record an expense.
// Date accepts common layouts such as "2024-03-15" or RFC 3339.
type CreateExpenseRequest struct {
	Category    string          `json:"category" binding:"required,oneof=RENT SALARY MARKETING DELIVERY PACKAGING UTILITIES TAXES OTHER"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description" binding:"max=500"`
}

// UpdateExpenseRequest represents a partial expense update
type UpdateExpenseRequest struct {
	Category    *string          `json:"category" binding:"omitempty,oneof=RENT SALARY MARKETING DELIVERY PACKAGING UTILITIES TAXES OTHER"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        *string          `json:"date"`
	Description *string          `json:"description" binding:"omitempty,max=500"`
}

// ExpenseListFilter represents expense list query parameters
type ExpenseListFilter struct {
	Search   string
	Category string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID          uuid.UUID       `json:"id"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CategoryTotal is the sum of one category's expenses
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// ExpenseSummaryResponse totals expenses in a date range
type ExpenseSummaryResponse struct {
	From       time.Time       `json:"from"`
	To         time.Time       `json:"to"`
	Total      decimal.Decimal `json:"total"`
	ByCategory []CategoryTotal `json:"by_category"`
}

// ToExpenseResponse converts a domain Expense to ExpenseResponse
func ToExpenseResponse(e *finance.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		Category:    e.Category.String(),
		Amount:      e.Amount,
		Date:        e.ExpenseDate,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
