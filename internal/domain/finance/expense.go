package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ExpenseCategory represents the category of an operating expense
type ExpenseCategory string

const (
	ExpenseCategoryRent      ExpenseCategory = "RENT"
	ExpenseCategorySalary    ExpenseCategory = "SALARY"
	ExpenseCategoryMarketing ExpenseCategory = "MARKETING"
	ExpenseCategoryDelivery  ExpenseCategory = "DELIVERY"
	ExpenseCategoryPackaging ExpenseCategory = "PACKAGING"
	ExpenseCategoryUtilities ExpenseCategory = "UTILITIES"
	ExpenseCategoryTaxes     ExpenseCategory = "TAXES"
	ExpenseCategoryOther     ExpenseCategory = "OTHER"
)

// AllExpenseCategories lists every category in display order
var AllExpenseCategories = []ExpenseCategory{
	ExpenseCategoryRent,
	ExpenseCategorySalary,
	ExpenseCategoryMarketing,
	ExpenseCategoryDelivery,
	ExpenseCategoryPackaging,
	ExpenseCategoryUtilities,
	ExpenseCategoryTaxes,
	ExpenseCategoryOther,
}

// IsValid checks if the category is a valid ExpenseCategory
func (c ExpenseCategory) IsValid() bool {
	for _, cat := range AllExpenseCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// String returns the string representation of ExpenseCategory
func (c ExpenseCategory) String() string {
	return string(c)
}

// Expense is an operating cost that reduces net profit
type Expense struct {
	shared.BaseAggregateRoot
	Category    ExpenseCategory `gorm:"type:varchar(20);not null;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ExpenseDate time.Time       `gorm:"not null;index"`
	Description string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Expense) TableName() string {
	return "expenses"
}

// NewExpense creates a new expense
func NewExpense(category ExpenseCategory, amount decimal.Decimal, date time.Time, description string) (*Expense, error) {
	if err := validateExpense(category, amount, date, description); err != nil {
		return nil, err
	}

	expense := &Expense{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Category:          category,
		Amount:            amount,
		ExpenseDate:       date,
		Description:       strings.TrimSpace(description),
	}

	expense.AddDomainEvent(NewExpenseRecordedEvent(expense))

	return expense, nil
}

// Update replaces every field of the expense
func (e *Expense) Update(category ExpenseCategory, amount decimal.Decimal, date time.Time, description string) error {
	if err := validateExpense(category, amount, date, description); err != nil {
		return err
	}

	e.Category = category
	e.Amount = amount
	e.ExpenseDate = date
	e.Description = strings.TrimSpace(description)
	e.IncrementVersion()

	return nil
}

func validateExpense(category ExpenseCategory, amount decimal.Decimal, date time.Time, description string) error {
	if !category.IsValid() {
		return shared.NewDomainError("INVALID_CATEGORY", fmt.Sprintf("Unknown expense category %q", category))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Expense amount must be positive")
	}
	if date.IsZero() {
		return shared.NewDomainError("INVALID_DATE", "Expense date is required")
	}
	if len(description) > 500 {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 500 characters")
	}
	return nil
}

// Aggregate type constant
const AggregateTypeExpense = "Expense"

// EventTypeExpenseRecorded is the type of ExpenseRecordedEvent
const EventTypeExpenseRecorded = "ExpenseRecorded"

// ExpenseRecordedEvent is raised when an expense is recorded
type ExpenseRecordedEvent struct {
	shared.BaseDomainEvent
	ExpenseID uuid.UUID       `json:"expense_id"`
	Category  ExpenseCategory `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewExpenseRecordedEvent creates a new ExpenseRecordedEvent
func NewExpenseRecordedEvent(e *Expense) *ExpenseRecordedEvent {
	return &ExpenseRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseRecorded, AggregateTypeExpense, e.ID),
		ExpenseID:       e.ID,
		Category:        e.Category,
		Amount:          e.Amount,
	}
}

// SumByCategory totals expenses per category
func SumByCategory(expenses []Expense) map[ExpenseCategory]decimal.Decimal {
	sums := make(map[ExpenseCategory]decimal.Decimal)
	for _, e := range expenses {
		sums[e.Category] = sums[e.Category].Add(e.Amount)
	}
	return sums
}
