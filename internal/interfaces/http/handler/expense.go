package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/now"
	financeapp "github.com/petstore/backend/internal/application/finance"
)

// ExpenseHandler handles expense API endpoints
type ExpenseHandler struct {
	BaseHandler
	expenseService *financeapp.ExpenseService
	loc            *time.Location
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenseService *financeapp.ExpenseService, loc *time.Location) *ExpenseHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ExpenseHandler{
		expenseService: expenseService,
		loc:            loc,
	}
}

func (h *ExpenseHandler) Create(c *gin.Context) {
	var req financeapp.CreateExpenseRequest
	if !h.Bind(c, &req) {
		return
	}

	expense, err := h.expenseService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, expense)
}

func (h *ExpenseHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "expense")
	if !ok {
		return
	}

	expense, err := h.expenseService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, expense)
}

// List handles GET /finance/expenses?category=&from=&to=
func (h *ExpenseHandler) List(c *gin.Context) {
	q := parseListQuery(c)
	from, to, err := dateRange(c, h.loc)
	if err != nil {
		h.BadRequest(c, "Invalid date: "+err.Error())
		return
	}

	expenses, total, err := h.expenseService.List(c.Request.Context(), financeapp.ExpenseListFilter{
		Search:   q.Search,
		Category: c.Query("category"),
		From:     from,
		To:       to,
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	page, pageSize := normalizePage(q.Page, q.PageSize)
	h.SuccessWithMeta(c, expenses, total, page, pageSize)
}

// Summary handles GET /finance/expenses/summary. Without from/to it
// covers the current calendar month.
func (h *ExpenseHandler) Summary(c *gin.Context) {
	from, to, err := dateRange(c, h.loc)
	if err != nil {
		h.BadRequest(c, "Invalid date: "+err.Error())
		return
	}
	month := now.With(time.Now().In(h.loc))
	if from == nil {
		start := month.BeginningOfMonth()
		from = &start
	}
	if to == nil {
		end := month.BeginningOfMonth().AddDate(0, 1, 0)
		to = &end
	}

	summary, err := h.expenseService.Summary(c.Request.Context(), *from, *to)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

func (h *ExpenseHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "expense")
	if !ok {
		return
	}
	var req financeapp.UpdateExpenseRequest
	if !h.Bind(c, &req) {
		return
	}

	expense, err := h.expenseService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, expense)
}

func (h *ExpenseHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "expense")
	if !ok {
		return
	}

	if err := h.expenseService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
