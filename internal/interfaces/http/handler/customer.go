package handler

import (
	partnerapp "github.com/petstore/backend/internal/application/partner"
	"github.com/gin-gonic/gin"
)

// CustomerHandler handles customer-related API endpoints
type CustomerHandler struct {
	BaseHandler
	customerService *partnerapp.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *partnerapp.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

func (h *CustomerHandler) Create(c *gin.Context) {
	var req partnerapp.CreateCustomerRequest
	if !h.Bind(c, &req) {
		return
	}

	customer, err := h.customerService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, customer)
}

func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "customer")
	if !ok {
		return
	}

	customer, err := h.customerService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, customer)
}

// List handles GET /partner/customers?search=&city=
func (h *CustomerHandler) List(c *gin.Context) {
	q := parseListQuery(c)
	customers, total, err := h.customerService.List(c.Request.Context(), partnerapp.ListFilter{
		Search:   q.Search,
		City:     c.Query("city"),
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
	h.SuccessWithMeta(c, customers, total, page, pageSize)
}

func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "customer")
	if !ok {
		return
	}
	var req partnerapp.UpdateCustomerRequest
	if !h.Bind(c, &req) {
		return
	}

	customer, err := h.customerService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, customer)
}

func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "customer")
	if !ok {
		return
	}

	if err := h.customerService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
