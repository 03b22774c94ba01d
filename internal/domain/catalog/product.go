package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product is a sellable catalog item and the aggregate root for its stock and prices.
// PurchasePrice is the weighted-average landed cost of the units on hand.
type Product struct {
	shared.BaseAggregateRoot
	SKU           string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	Barcode       string               `gorm:"type:varchar(14);index"`
	Name          shared.LocalizedText `gorm:"embedded;embeddedPrefix:name_"`
	Description   shared.LocalizedText `gorm:"embedded;embeddedPrefix:description_"`
	CategoryID    *uuid.UUID           `gorm:"type:uuid;index"`
	Price         decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	PurchasePrice decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	PromoPrice    decimal.NullDecimal  `gorm:"type:decimal(18,4)"`
	Stock         int                  `gorm:"not null;default:0"`
	ImageURL      string               `gorm:"type:varchar(500)"`
	IsActive      bool                 `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates an active product with zero stock
func NewProduct(sku string, name shared.LocalizedText, price decimal.Decimal) (*Product, error) {
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if !price.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price must be positive")
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               strings.ToUpper(strings.TrimSpace(sku)),
		Name:              name,
		Price:             price,
		PurchasePrice:     decimal.Zero,
		IsActive:          true,
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// Update replaces the product's bilingual name and description
func (p *Product) Update(name, description shared.LocalizedText) error {
	if err := validateProductName(name); err != nil {
		return err
	}

	p.Name = name
	p.Description = description
	p.IncrementVersion()

	p.AddDomainEvent(NewProductUpdatedEvent(p))

	return nil
}

// SetBarcode sets the EAN/UPC barcode. An empty value clears it.
func (p *Product) SetBarcode(barcode string) error {
	barcode = strings.TrimSpace(barcode)
	if err := validateBarcode(barcode); err != nil {
		return err
	}

	p.Barcode = barcode
	p.IncrementVersion()

	return nil
}

// SetCategory sets the product category
func (p *Product) SetCategory(categoryID *uuid.UUID) {
	p.CategoryID = categoryID
	p.IncrementVersion()
}

// SetImageURL sets the image reference
func (p *Product) SetImageURL(url string) error {
	if len(url) > 500 {
		return shared.NewDomainError("INVALID_IMAGE", "Image URL cannot exceed 500 characters")
	}
	p.ImageURL = strings.TrimSpace(url)
	p.IncrementVersion()
	return nil
}

// SetPrices sets the selling price and the purchase (cost) price.
// An existing promo price must remain below the new selling price.
func (p *Product) SetPrices(price, purchasePrice decimal.Decimal) error {
	if !price.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Price must be positive")
	}
	if purchasePrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Purchase price cannot be negative")
	}
	if p.PromoPrice.Valid && p.PromoPrice.Decimal.GreaterThanOrEqual(price) {
		return shared.NewDomainError("INVALID_PROMO_PRICE", "Promo price must be lower than the price")
	}

	oldPrice := p.Price
	p.Price = price
	p.PurchasePrice = purchasePrice
	p.IncrementVersion()

	if !oldPrice.Equal(price) {
		p.AddDomainEvent(NewProductPriceChangedEvent(p, oldPrice))
	}

	return nil
}

// SetPromoPrice sets a promotional price, which must be positive and below the price
func (p *Product) SetPromoPrice(promo decimal.Decimal) error {
	if !promo.IsPositive() {
		return shared.NewDomainError("INVALID_PROMO_PRICE", "Promo price must be positive")
	}
	if promo.GreaterThanOrEqual(p.Price) {
		return shared.NewDomainError("INVALID_PROMO_PRICE", "Promo price must be lower than the price")
	}

	p.PromoPrice = decimal.NewNullDecimal(promo)
	p.IncrementVersion()

	return nil
}

// ClearPromoPrice removes the promotional price
func (p *Product) ClearPromoPrice() {
	p.PromoPrice = decimal.NullDecimal{}
	p.IncrementVersion()
}

// HasPromo reports whether a promotional price is active
func (p *Product) HasPromo() bool {
	return p.PromoPrice.Valid
}

// EffectivePrice is the price a new order line is charged: the promo price if set
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.PromoPrice.Valid {
		return p.PromoPrice.Decimal
	}
	return p.Price
}

// Margin is the per-unit gross margin at the effective price
func (p *Product) Margin() decimal.Decimal {
	return p.EffectivePrice().Sub(p.PurchasePrice)
}

// AdjustStock changes stock by delta. Stock never goes below zero.
func (p *Product) AdjustStock(delta int, reason string) error {
	if delta == 0 {
		return nil
	}
	newStock := p.Stock + delta
	if newStock < 0 {
		return shared.ErrInsufficientStock.WithMessage(
			fmt.Sprintf("Insufficient stock for %s: available %d, requested %d", p.SKU, p.Stock, -delta))
	}

	oldStock := p.Stock
	p.Stock = newStock
	p.IncrementVersion()

	p.AddDomainEvent(NewProductStockChangedEvent(p, oldStock, reason))

	return nil
}

// ApplyReceipt adds received units and re-weights the purchase price with
// their landed unit cost.
func (p *Product) ApplyReceipt(quantity int, landedUnitCost decimal.Decimal) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Received quantity must be positive")
	}
	if landedUnitCost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Landed unit cost cannot be negative")
	}

	oldStock := p.Stock
	p.PurchasePrice = WeightedAverageCost(p.Stock, p.PurchasePrice, quantity, landedUnitCost)
	p.Stock += quantity
	p.IncrementVersion()

	p.AddDomainEvent(NewProductStockChangedEvent(p, oldStock, StockReasonReceipt))

	return nil
}

// UndoReceipt takes back units booked by ApplyReceipt and restores the
// purchase price they replaced
func (p *Product) UndoReceipt(quantity int, previousPurchasePrice decimal.Decimal) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Received quantity must be positive")
	}
	if p.Stock < quantity {
		return shared.ErrInsufficientStock.WithMessage(
			fmt.Sprintf("Cannot undo receipt of %d units for %s: only %d in stock", quantity, p.SKU, p.Stock))
	}

	oldStock := p.Stock
	p.Stock -= quantity
	p.PurchasePrice = previousPurchasePrice
	p.IncrementVersion()

	p.AddDomainEvent(NewProductStockChangedEvent(p, oldStock, StockReasonReceiptUndo))

	return nil
}

// IsLowStock reports whether stock is at or below the threshold
func (p *Product) IsLowStock(threshold int) bool {
	return p.Stock <= threshold
}

// Activate makes the product available for new orders
func (p *Product) Activate() {
	p.IsActive = true
	p.IncrementVersion()
}

// Deactivate hides the product from new orders
func (p *Product) Deactivate() {
	p.IsActive = false
	p.IncrementVersion()
}

// MarkDeleted records the deletion event before the row is removed
func (p *Product) MarkDeleted() {
	p.AddDomainEvent(NewProductDeletedEvent(p))
}

// WeightedAverageCost blends the cost of units on hand with newly received units.
// With nothing on hand the result is the incoming unit cost.
func WeightedAverageCost(onHand int, onHandCost decimal.Decimal, incoming int, incomingCost decimal.Decimal) decimal.Decimal {
	if onHand < 0 {
		onHand = 0
	}
	totalQty := onHand + incoming
	if totalQty <= 0 {
		return incomingCost
	}
	totalCost := onHandCost.Mul(decimal.NewFromInt(int64(onHand))).
		Add(incomingCost.Mul(decimal.NewFromInt(int64(incoming))))
	return totalCost.Div(decimal.NewFromInt(int64(totalQty))).Round(4)
}

// validateSKU validates the stock keeping unit code
func validateSKU(sku string) error {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 50 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 50 characters")
	}
	for _, r := range sku {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_SKU", "SKU can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

// validateBarcode accepts an empty value or 8 to 14 digits
func validateBarcode(barcode string) error {
	if barcode == "" {
		return nil
	}
	if len(barcode) < 8 || len(barcode) > 14 {
		return shared.NewDomainError("INVALID_BARCODE", "Barcode must be 8 to 14 digits")
	}
	for _, r := range barcode {
		if r < '0' || r > '9' {
			return shared.NewDomainError("INVALID_BARCODE", "Barcode must contain digits only")
		}
	}
	return nil
}

// validateProductName requires the primary-language name
func validateProductName(name shared.LocalizedText) error {
	if name.UK == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name (uk) cannot be empty")
	}
	if len(name.UK) > 200 || len(name.EN) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
