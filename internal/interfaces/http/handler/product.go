package handler

import (
	catalogapp "github.com/petstore/backend/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// ProductHandler handles product-related API endpoints
type ProductHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *catalogapp.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// Create handles POST /catalog/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalogapp.CreateProductRequest
	if !h.Bind(c, &req) {
		return
	}

	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, product)
}

// GetByID handles GET /catalog/products/:id
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, product)
}

// GetBySKU handles GET /catalog/products/sku/:sku
func (h *ProductHandler) GetBySKU(c *gin.Context) {
	product, err := h.productService.GetBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, product)
}

// List handles GET /catalog/products.
// Supports search, category_id, is_active, has_promo and low_stock filters.
func (h *ProductHandler) List(c *gin.Context) {
	q := parseListQuery(c)
	categoryID, ok := queryUUID(c, "category_id")
	if !ok {
		h.BadRequest(c, "Invalid category ID format")
		return
	}

	filter := catalogapp.ProductListFilter{
		Search:     q.Search,
		CategoryID: categoryID,
		IsActive:   queryBool(c, "is_active"),
		HasPromo:   queryBool(c, "has_promo"),
		Page:       q.Page,
		PageSize:   q.PageSize,
		OrderBy:    q.OrderBy,
		OrderDir:   q.OrderDir,
	}
	if lowStock := queryBool(c, "low_stock"); lowStock != nil {
		filter.LowStock = *lowStock
	}

	products, total, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	page, pageSize := normalizePage(q.Page, q.PageSize)
	h.SuccessWithMeta(c, products, total, page, pageSize)
}

// LowStock handles GET /catalog/products/low-stock?threshold=N
func (h *ProductHandler) LowStock(c *gin.Context) {
	products, err := h.productService.ListLowStock(c.Request.Context(), queryInt(c, "threshold", 0))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, products)
}

// Update handles PUT /catalog/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "product")
	if !ok {
		return
	}
	var req catalogapp.UpdateProductRequest
	if !h.Bind(c, &req) {
		return
	}

	product, err := h.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, product)
}

// AdjustStock handles PATCH /catalog/products/:id/stock
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "product")
	if !ok {
		return
	}
	var req catalogapp.AdjustStockRequest
	if !h.Bind(c, &req) {
		return
	}

	product, err := h.productService.AdjustStock(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, product)
}

// SetPromo handles PATCH /catalog/products/:id/promo
func (h *ProductHandler) SetPromo(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "product")
	if !ok {
		return
	}
	var req catalogapp.SetPromoRequest
	if !h.Bind(c, &req) {
		return
	}

	product, err := h.productService.SetPromo(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, product)
}

// Delete handles DELETE /catalog/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "product")
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
