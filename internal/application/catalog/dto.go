package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/catalog"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	SKU           string               `json:"sku" binding:"required,min=1,max=50"`
	Barcode       string               `json:"barcode" binding:"omitempty,numeric,min=8,max=14"`
	Name          shared.LocalizedText `json:"name" binding:"required"`
	Description   shared.LocalizedText `json:"description"`
	CategoryID    *uuid.UUID           `json:"category_id"`
	Price         decimal.Decimal      `json:"price" binding:"required"`
	PurchasePrice *decimal.Decimal     `json:"purchase_price"`
	PromoPrice    *decimal.Decimal     `json:"promo_price"`
	Stock         int                  `json:"stock" binding:"min=0"`
	ImageURL      string               `json:"image_url" binding:"omitempty,max=500"`
	IsActive      *bool                `json:"is_active"`
}

// UpdateProductRequest represents a partial product update.
// Nil fields are left unchanged.
type UpdateProductRequest struct {
	Barcode       *string               `json:"barcode" binding:"omitempty,max=14"`
	Name          *shared.LocalizedText `json:"name"`
	Description   *shared.LocalizedText `json:"description"`
	CategoryID    *uuid.UUID            `json:"category_id"`
	ClearCategory bool                  `json:"clear_category"`
	Price         *decimal.Decimal      `json:"price"`
	PurchasePrice *decimal.Decimal      `json:"purchase_price"`
	ImageURL      *string               `json:"image_url" binding:"omitempty,max=500"`
	IsActive      *bool                 `json:"is_active"`
}

// AdjustStockRequest changes stock by a signed delta
type AdjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"omitempty,max=100"`
}

// SetPromoRequest sets the promo price. A null promo_price clears it.
type SetPromoRequest struct {
	PromoPrice *decimal.Decimal `json:"promo_price"`
}

// ProductListFilter represents filter options for the product list
type ProductListFilter struct {
	Search     string
	CategoryID *uuid.UUID
	IsActive   *bool
	HasPromo   *bool
	LowStock   bool
	Page       int
	PageSize   int
	OrderBy    string
	OrderDir   string
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID             uuid.UUID            `json:"id"`
	SKU            string               `json:"sku"`
	Barcode        string               `json:"barcode,omitempty"`
	Name           shared.LocalizedText `json:"name"`
	Description    shared.LocalizedText `json:"description"`
	CategoryID     *uuid.UUID           `json:"category_id"`
	Price          decimal.Decimal      `json:"price"`
	PurchasePrice  decimal.Decimal      `json:"purchase_price"`
	PromoPrice     *decimal.Decimal     `json:"promo_price"`
	EffectivePrice decimal.Decimal      `json:"effective_price"`
	Margin         decimal.Decimal      `json:"margin"`
	Stock          int                  `json:"stock"`
	LowStock       bool                 `json:"low_stock"`
	ImageURL       string               `json:"image_url,omitempty"`
	IsActive       bool                 `json:"is_active"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	Version        int                  `json:"version"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product, lowStockThreshold int) ProductResponse {
	var promo *decimal.Decimal
	if p.PromoPrice.Valid {
		v := p.PromoPrice.Decimal
		promo = &v
	}
	return ProductResponse{
		ID:             p.ID,
		SKU:            p.SKU,
		Barcode:        p.Barcode,
		Name:           p.Name,
		Description:    p.Description,
		CategoryID:     p.CategoryID,
		Price:          p.Price,
		PurchasePrice:  p.PurchasePrice,
		PromoPrice:     promo,
		EffectivePrice: p.EffectivePrice(),
		Margin:         p.Margin(),
		Stock:          p.Stock,
		LowStock:       p.IsLowStock(lowStockThreshold),
		ImageURL:       p.ImageURL,
		IsActive:       p.IsActive,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		Version:        p.Version,
	}
}

// ToProductResponses converts a slice of products
func ToProductResponses(products []catalog.Product, lowStockThreshold int) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i], lowStockThreshold)
	}
	return responses
}

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Code      string               `json:"code" binding:"required,min=1,max=50"`
	Name      shared.LocalizedText `json:"name" binding:"required"`
	ParentID  *uuid.UUID           `json:"parent_id"`
	SortOrder int                  `json:"sort_order"`
}

// UpdateCategoryRequest represents a request to update a category
type UpdateCategoryRequest struct {
	Name      shared.LocalizedText `json:"name" binding:"required"`
	SortOrder int                  `json:"sort_order"`
}

// MoveCategoryRequest re-parents a category. A null parent_id moves it to the root.
type MoveCategoryRequest struct {
	ParentID *uuid.UUID `json:"parent_id"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID        uuid.UUID            `json:"id"`
	Code      string               `json:"code"`
	Name      shared.LocalizedText `json:"name"`
	ParentID  *uuid.UUID           `json:"parent_id"`
	Level     int                  `json:"level"`
	SortOrder int                  `json:"sort_order"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// CategoryTreeNode is a category with its nested children
type CategoryTreeNode struct {
	CategoryResponse
	Children []CategoryTreeNode `json:"children"`
}

// ToCategoryResponse converts a domain Category to CategoryResponse
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Code:      c.Code,
		Name:      c.Name,
		ParentID:  c.ParentID,
		Level:     c.Level,
		SortOrder: c.SortOrder,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toTreeNodes(nodes []*catalog.CategoryNode) []CategoryTreeNode {
	out := make([]CategoryTreeNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, CategoryTreeNode{
			CategoryResponse: ToCategoryResponse(n.Category),
			Children:         toTreeNodes(n.Children),
		})
	}
	return out
}

// ReceivedLine is one posted receipt line to book into stock
type ReceivedLine struct {
	ProductID      uuid.UUID
	Quantity       int
	LandedUnitCost decimal.Decimal
}
