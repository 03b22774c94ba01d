package handler

import (
	"time"

	warehouseapp "github.com/petstore/backend/internal/application/warehouse"
	"github.com/gin-gonic/gin"
)

// ReceiptHandler handles goods-receipt API endpoints
type ReceiptHandler struct {
	BaseHandler
	receiptService *warehouseapp.ReceiptService
	loc            *time.Location
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receiptService *warehouseapp.ReceiptService, loc *time.Location) *ReceiptHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ReceiptHandler{
		receiptService: receiptService,
		loc:            loc,
	}
}

// Create handles POST /warehouse/receipts. The receipt starts as a draft.
func (h *ReceiptHandler) Create(c *gin.Context) {
	var req warehouseapp.CreateReceiptRequest
	if !h.Bind(c, &req) {
		return
	}

	receipt, err := h.receiptService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, receipt)
}

// GetByID handles GET /warehouse/receipts/:id
func (h *ReceiptHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "receipt")
	if !ok {
		return
	}

	receipt, err := h.receiptService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, receipt)
}

// List handles GET /warehouse/receipts.
// Filters: search, supplier_id, paid, posted, overdue, from, to.
func (h *ReceiptHandler) List(c *gin.Context) {
	q := parseListQuery(c)
	supplierID, ok := queryUUID(c, "supplier_id")
	if !ok {
		h.BadRequest(c, "Invalid supplier ID format")
		return
	}
	from, to, err := dateRange(c, h.loc)
	if err != nil {
		h.BadRequest(c, "Invalid date: "+err.Error())
		return
	}

	receipts, total, err := h.receiptService.List(c.Request.Context(), warehouseapp.ReceiptListFilter{
		Search:     q.Search,
		SupplierID: supplierID,
		Paid:       queryBool(c, "paid"),
		Posted:     queryBool(c, "posted"),
		Overdue:    queryBool(c, "overdue"),
		From:       from,
		To:         to,
		Page:       q.Page,
		PageSize:   q.PageSize,
		OrderBy:    q.OrderBy,
		OrderDir:   q.OrderDir,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	page, pageSize := normalizePage(q.Page, q.PageSize)
	h.SuccessWithMeta(c, receipts, total, page, pageSize)
}

// Update handles PUT /warehouse/receipts/:id
func (h *ReceiptHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "receipt")
	if !ok {
		return
	}
	var req warehouseapp.UpdateReceiptRequest
	if !h.Bind(c, &req) {
		return
	}

	receipt, err := h.receiptService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, receipt)
}

// Post handles POST /warehouse/receipts/:id/post. Posting books the
// landed cost into product stock and cannot be undone.
func (h *ReceiptHandler) Post(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "receipt")
	if !ok {
		return
	}

	receipt, err := h.receiptService.Post(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, receipt)
}

// Pay handles POST /warehouse/receipts/:id/pay
func (h *ReceiptHandler) Pay(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "receipt")
	if !ok {
		return
	}
	var req warehouseapp.PayReceiptRequest
	if !h.BindOptional(c, &req) {
		return
	}

	receipt, err := h.receiptService.Pay(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, receipt)
}

// Unpay handles POST /warehouse/receipts/:id/unpay
func (h *ReceiptHandler) Unpay(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "receipt")
	if !ok {
		return
	}

	receipt, err := h.receiptService.Unpay(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, receipt)
}

// Delete handles DELETE /warehouse/receipts/:id
func (h *ReceiptHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "receipt")
	if !ok {
		return
	}

	if err := h.receiptService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Allocate handles POST /warehouse/receipts/allocate: a landed-cost
// preview that saves nothing.
func (h *ReceiptHandler) Allocate(c *gin.Context) {
	var req warehouseapp.AllocationPreviewRequest
	if !h.Bind(c, &req) {
		return
	}

	preview, err := h.receiptService.PreviewAllocation(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, preview)
}
