package handler

import (
	partnerapp "github.com/petstore/backend/internal/application/partner"
	"github.com/gin-gonic/gin"
)

// SupplierHandler handles supplier-related API endpoints
type SupplierHandler struct {
	BaseHandler
	supplierService *partnerapp.SupplierService
}

// NewSupplierHandler creates a new SupplierHandler
func NewSupplierHandler(supplierService *partnerapp.SupplierService) *SupplierHandler {
	return &SupplierHandler{
		supplierService: supplierService,
	}
}

// Create handles POST /partner/suppliers
func (h *SupplierHandler) Create(c *gin.Context) {
	var req partnerapp.CreateSupplierRequest
	if !h.Bind(c, &req) {
		return
	}

	supplier, err := h.supplierService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, supplier)
}

// GetByID handles GET /partner/suppliers/:id
func (h *SupplierHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "supplier")
	if !ok {
		return
	}

	supplier, err := h.supplierService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, supplier)
}

// List handles GET /partner/suppliers
func (h *SupplierHandler) List(c *gin.Context) {
	q := parseListQuery(c)
	suppliers, total, err := h.supplierService.List(c.Request.Context(), partnerapp.ListFilter{
		Search:   q.Search,
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
	h.SuccessWithMeta(c, suppliers, total, page, pageSize)
}

// Update handles PUT /partner/suppliers/:id
func (h *SupplierHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "supplier")
	if !ok {
		return
	}
	var req partnerapp.UpdateSupplierRequest
	if !h.Bind(c, &req) {
		return
	}

	supplier, err := h.supplierService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, supplier)
}

// Delete handles DELETE /partner/suppliers/:id.
// Suppliers referenced by receipts answer 409 IN_USE.
func (h *SupplierHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "supplier")
	if !ok {
		return
	}

	if err := h.supplierService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
