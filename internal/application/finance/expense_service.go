package finance

import (
	"context"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/finance"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExpenseService handles operating expenses
type ExpenseService struct {
	expenseRepo    finance.ExpenseRepository
	loc            *time.Location
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewExpenseService creates a new ExpenseService. Dates without a zone are
// read in loc.
func NewExpenseService(expenseRepo finance.ExpenseRepository, loc *time.Location) *ExpenseService {
	if loc == nil {
		loc = time.Local
	}
	return &ExpenseService{
		expenseRepo: expenseRepo,
		loc:         loc,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
}

// SetEventPublisher sets the event publisher for the service
func (s *ExpenseService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLogger sets the logger used for non-fatal failures
func (s *ExpenseService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Create records a new expense. An empty date means today.
func (s *ExpenseService) Create(ctx context.Context, req CreateExpenseRequest) (*ExpenseResponse, error) {
	date := s.now().In(s.loc)
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := s.parseDate(req.Date)
		if err != nil {
			return nil, err
		}
		date = parsed
	}

	expense, err := finance.NewExpense(finance.ExpenseCategory(strings.ToUpper(req.Category)), req.Amount, date, req.Description)
	if err != nil {
		return nil, err
	}

	if err := s.expenseRepo.Save(ctx, expense); err != nil {
		return nil, err
	}
	s.publish(ctx, expense)

	response := ToExpenseResponse(expense)
	return &response, nil
}

// GetByID retrieves an expense by ID
func (s *ExpenseService) GetByID(ctx context.Context, id uuid.UUID) (*ExpenseResponse, error) {
	expense, err := s.expenseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToExpenseResponse(expense)
	return &response, nil
}

// List retrieves a page of expenses and the total count
func (s *ExpenseService) List(ctx context.Context, filter ExpenseListFilter) ([]ExpenseResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   strings.TrimSpace(filter.Search),
		Filters:  make(map[string]interface{}),
	}
	if filter.Category != "" {
		domainFilter.Filters["category"] = strings.ToUpper(filter.Category)
	}
	if filter.From != nil {
		domainFilter.Filters["from"] = *filter.From
	}
	if filter.To != nil {
		domainFilter.Filters["to"] = *filter.To
	}

	expenses, err := s.expenseRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.expenseRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		responses[i] = ToExpenseResponse(&expenses[i])
	}
	return responses, total, nil
}

// Update applies a partial update to an expense
func (s *ExpenseService) Update(ctx context.Context, id uuid.UUID, req UpdateExpenseRequest) (*ExpenseResponse, error) {
	expense, err := s.expenseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	category := expense.Category
	amount := expense.Amount
	date := expense.ExpenseDate
	description := expense.Description

	if req.Category != nil {
		category = finance.ExpenseCategory(strings.ToUpper(*req.Category))
	}
	if req.Amount != nil {
		amount = *req.Amount
	}
	if req.Date != nil {
		parsed, err := s.parseDate(*req.Date)
		if err != nil {
			return nil, err
		}
		date = parsed
	}
	if req.Description != nil {
		description = *req.Description
	}

	if err := expense.Update(category, amount, date, description); err != nil {
		return nil, err
	}
	if err := s.expenseRepo.Save(ctx, expense); err != nil {
		return nil, err
	}

	response := ToExpenseResponse(expense)
	return &response, nil
}

// Delete removes an expense
func (s *ExpenseService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.expenseRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.expenseRepo.Delete(ctx, id)
}

// Summary totals expenses in [from, to) per category, in display order.
// Categories with nothing spent are omitted.
func (s *ExpenseService) Summary(ctx context.Context, from, to time.Time) (*ExpenseSummaryResponse, error) {
	if !to.After(from) {
		return nil, shared.NewDomainError("INVALID_RANGE", "End of range must be after its start")
	}
	expenses, err := s.expenseRepo.FindBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	sums := finance.SumByCategory(expenses)
	summary := &ExpenseSummaryResponse{From: from, To: to, Total: decimal.Zero}
	for _, cat := range finance.AllExpenseCategories {
		amount, ok := sums[cat]
		if !ok {
			continue
		}
		summary.Total = summary.Total.Add(amount)
		summary.ByCategory = append(summary.ByCategory, CategoryTotal{Category: cat.String(), Amount: amount})
	}
	return summary, nil
}

// SumBetween totals expenses dated in [from, to)
func (s *ExpenseService) SumBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	return s.expenseRepo.SumBetween(ctx, from, to)
}

func (s *ExpenseService) parseDate(value string) (time.Time, error) {
	t, err := dateparse.ParseIn(strings.TrimSpace(value), s.loc)
	if err != nil {
		return time.Time{}, shared.NewDomainError("INVALID_DATE", "Unrecognised date "+value).WithCause(err)
	}
	return t, nil
}

func (s *ExpenseService) publish(ctx context.Context, expense *finance.Expense) {
	events := expense.PullDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish expense events",
			zap.String("expense_id", expense.ID.String()),
			zap.Error(err))
	}
}
