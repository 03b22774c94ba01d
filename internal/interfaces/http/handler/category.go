package handler

import (
	catalogapp "github.com/petstore/backend/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// CategoryHandler handles category-related API endpoints
type CategoryHandler struct {
	BaseHandler
	categoryService *catalogapp.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *catalogapp.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
	}
}

// Create handles POST /catalog/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var req catalogapp.CreateCategoryRequest
	if !h.Bind(c, &req) {
		return
	}

	category, err := h.categoryService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, category)
}

// GetByID handles GET /catalog/categories/:id
func (h *CategoryHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "category")
	if !ok {
		return
	}

	category, err := h.categoryService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, category)
}

// List handles GET /catalog/categories?search=&parent_id=
func (h *CategoryHandler) List(c *gin.Context) {
	parentID, ok := queryUUID(c, "parent_id")
	if !ok {
		h.BadRequest(c, "Invalid parent ID format")
		return
	}

	categories, err := h.categoryService.List(c.Request.Context(), c.Query("search"), parentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, categories)
}

// Tree handles GET /catalog/categories/tree
func (h *CategoryHandler) Tree(c *gin.Context) {
	tree, err := h.categoryService.Tree(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, tree)
}

// Update handles PUT /catalog/categories/:id
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "category")
	if !ok {
		return
	}
	var req catalogapp.UpdateCategoryRequest
	if !h.Bind(c, &req) {
		return
	}

	category, err := h.categoryService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, category)
}

// Move handles PATCH /catalog/categories/:id/move
func (h *CategoryHandler) Move(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "category")
	if !ok {
		return
	}
	var req catalogapp.MoveCategoryRequest
	if !h.Bind(c, &req) {
		return
	}

	category, err := h.categoryService.Move(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, category)
}

// Delete handles DELETE /catalog/categories/:id
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "category")
	if !ok {
		return
	}

	if err := h.categoryService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
