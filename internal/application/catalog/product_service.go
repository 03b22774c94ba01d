package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/catalog"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductUsageChecker reports whether a product is referenced by documents.
// Order and receipt repositories both satisfy it.
type ProductUsageChecker interface {
	ExistsByProduct(ctx context.Context, productID uuid.UUID) (bool, error)
}

// ProductService handles product-related business operations
type ProductService struct {
	productRepo       catalog.ProductRepository
	categoryRepo      catalog.CategoryRepository
	usage             []ProductUsageChecker
	lowStockThreshold int
	eventPublisher    shared.EventPublisher
	logger            *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	lowStockThreshold int,
	usage ...ProductUsageChecker,
) *ProductService {
	return &ProductService{
		productRepo:       productRepo,
		categoryRepo:      categoryRepo,
		usage:             usage,
		lowStockThreshold: lowStockThreshold,
		logger:            zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for the service
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLogger sets the logger used for non-fatal failures
func (s *ProductService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// LowStockThreshold returns the configured low-stock threshold
func (s *ProductService) LowStockThreshold() int {
	return s.lowStockThreshold
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	exists, err := s.productRepo.ExistsBySKU(ctx, req.SKU)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Product with this SKU already exists")
	}

	if req.Barcode != "" {
		exists, err = s.productRepo.ExistsByBarcode(ctx, req.Barcode)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Product with this barcode already exists")
		}
	}

	if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	product, err := catalog.NewProduct(req.SKU, req.Name, req.Price)
	if err != nil {
		return nil, err
	}

	if !req.Description.IsEmpty() {
		if err := product.Update(req.Name, req.Description); err != nil {
			return nil, err
		}
	}
	if err := product.SetBarcode(req.Barcode); err != nil {
		return nil, err
	}
	if req.CategoryID != nil {
		product.SetCategory(req.CategoryID)
	}
	if req.PurchasePrice != nil {
		if err := product.SetPrices(req.Price, *req.PurchasePrice); err != nil {
			return nil, err
		}
	}
	if req.PromoPrice != nil {
		if err := product.SetPromoPrice(*req.PromoPrice); err != nil {
			return nil, err
		}
	}
	if req.ImageURL != "" {
		if err := product.SetImageURL(req.ImageURL); err != nil {
			return nil, err
		}
	}
	if req.Stock > 0 {
		if err := product.AdjustStock(req.Stock, catalog.StockReasonManual); err != nil {
			return nil, err
		}
	}
	if req.IsActive != nil && !*req.IsActive {
		product.Deactivate()
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	response := ToProductResponse(product, s.lowStockThreshold)
	return &response, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product, s.lowStockThreshold)
	return &response, nil
}

// GetBySKU retrieves a product by SKU
func (s *ProductService) GetBySKU(ctx context.Context, sku string) (*ProductResponse, error) {
	product, err := s.productRepo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product, s.lowStockThreshold)
	return &response, nil
}

// List retrieves a page of products and the total count
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
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
	if filter.CategoryID != nil {
		domainFilter.Filters["category_id"] = *filter.CategoryID
	}
	if filter.IsActive != nil {
		domainFilter.Filters["is_active"] = *filter.IsActive
	}
	if filter.HasPromo != nil {
		domainFilter.Filters["has_promo"] = *filter.HasPromo
	}
	if filter.LowStock {
		domainFilter.Filters["low_stock"] = s.lowStockThreshold
	}

	products, err := s.productRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.productRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToProductResponses(products, s.lowStockThreshold), total, nil
}

// ListLowStock returns active products at or below the threshold.
// A non-positive threshold uses the configured one.
func (s *ProductService) ListLowStock(ctx context.Context, threshold int) ([]ProductResponse, error) {
	if threshold <= 0 {
		threshold = s.lowStockThreshold
	}
	products, err := s.productRepo.FindLowStock(ctx, threshold)
	if err != nil {
		return nil, err
	}
	return ToProductResponses(products, threshold), nil
}

// Update applies a partial update to a product
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Description != nil {
		name, description := product.Name, product.Description
		if req.Name != nil {
			name = *req.Name
		}
		if req.Description != nil {
			description = *req.Description
		}
		if err := product.Update(name, description); err != nil {
			return nil, err
		}
	}

	if req.Barcode != nil && *req.Barcode != product.Barcode {
		if *req.Barcode != "" {
			exists, err := s.productRepo.ExistsByBarcode(ctx, *req.Barcode)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, shared.NewDomainError("ALREADY_EXISTS", "Product with this barcode already exists")
			}
		}
		if err := product.SetBarcode(*req.Barcode); err != nil {
			return nil, err
		}
	}

	switch {
	case req.ClearCategory:
		product.SetCategory(nil)
	case req.CategoryID != nil:
		if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
		product.SetCategory(req.CategoryID)
	}

	if req.Price != nil || req.PurchasePrice != nil {
		price, purchase := product.Price, product.PurchasePrice
		if req.Price != nil {
			price = *req.Price
		}
		if req.PurchasePrice != nil {
			purchase = *req.PurchasePrice
		}
		if err := product.SetPrices(price, purchase); err != nil {
			return nil, err
		}
	}

	if req.ImageURL != nil {
		if err := product.SetImageURL(*req.ImageURL); err != nil {
			return nil, err
		}
	}

	if req.IsActive != nil && *req.IsActive != product.IsActive {
		if *req.IsActive {
			product.Activate()
		} else {
			product.Deactivate()
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	response := ToProductResponse(product, s.lowStockThreshold)
	return &response, nil
}

// AdjustStock changes a product's stock by a signed delta
func (s *ProductService) AdjustStock(ctx context.Context, id uuid.UUID, req AdjustStockRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = catalog.StockReasonManual
	}
	if err := product.AdjustStock(req.Delta, reason); err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	response := ToProductResponse(product, s.lowStockThreshold)
	return &response, nil
}

// SetPromo sets or clears the promo price
func (s *ProductService) SetPromo(ctx context.Context, id uuid.UUID, req SetPromoRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.PromoPrice == nil {
		product.ClearPromoPrice()
	} else if err := product.SetPromoPrice(*req.PromoPrice); err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	response := ToProductResponse(product, s.lowStockThreshold)
	return &response, nil
}

// Delete removes a product that no order or receipt references
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	for _, checker := range s.usage {
		used, err := checker.ExistsByProduct(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return shared.ErrInUse.WithMessage("Product is referenced by orders or receipts")
		}
	}

	product.MarkDeleted()
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, product)
	return nil
}

// ReserveStock takes units off the shelf for an order. Every product is
// checked before anything is written, so a short line rejects the whole demand.
func (s *ProductService) ReserveStock(ctx context.Context, demand map[uuid.UUID]int) error {
	products, err := s.loadDemand(ctx, demand)
	if err != nil {
		return err
	}
	if len(products) != len(demand) {
		return shared.ErrNotFound.WithMessage("One or more products not found")
	}

	for _, p := range products {
		qty := demand[p.ID]
		if qty <= 0 {
			continue
		}
		if !p.IsActive {
			return shared.NewDomainError("PRODUCT_INACTIVE", fmt.Sprintf("Product %s is not active", p.SKU))
		}
		if p.Stock < qty {
			return shared.ErrInsufficientStock.WithMessage(
				fmt.Sprintf("Insufficient stock for %s: available %d, requested %d", p.SKU, p.Stock, qty))
		}
	}

	saved := make([]*catalog.Product, 0, len(products))
	for _, p := range products {
		qty := demand[p.ID]
		if qty <= 0 {
			continue
		}
		if err := p.AdjustStock(-qty, catalog.StockReasonOrder); err != nil {
			s.rollback(ctx, saved, demand)
			return err
		}
		if err := s.productRepo.Save(ctx, p); err != nil {
			s.rollback(ctx, saved, demand)
			return err
		}
		saved = append(saved, p)
	}

	for _, p := range saved {
		s.publish(ctx, p)
	}
	return nil
}

// ReleaseStock puts units back on the shelf. Products that no longer exist are skipped.
func (s *ProductService) ReleaseStock(ctx context.Context, demand map[uuid.UUID]int, reason string) error {
	products, err := s.loadDemand(ctx, demand)
	if err != nil {
		return err
	}

	var errs []error
	for _, p := range products {
		qty := demand[p.ID]
		if qty <= 0 {
			continue
		}
		if err := p.AdjustStock(qty, reason); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.productRepo.Save(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", p.SKU, err))
			continue
		}
		s.publish(ctx, p)
	}
	return errors.Join(errs...)
}

// ApplyReceipt books every received line at its landed cost. Either all
// lines land or none do: a missing product or a failed write restores the
// products already saved.
func (s *ProductService) ApplyReceipt(ctx context.Context, lines []ReceivedLine) error {
	if len(lines) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}

	found, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	before := make(map[uuid.UUID]receiptSnapshot, len(found))
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			return shared.ErrNotFound.WithMessage(fmt.Sprintf("Product %s not found", l.ProductID))
		}
		if _, ok := before[p.ID]; !ok {
			before[p.ID] = receiptSnapshot{stock: p.Stock, purchasePrice: p.PurchasePrice}
		}
		if err := p.ApplyReceipt(l.Quantity, l.LandedUnitCost); err != nil {
			return err
		}
	}

	saved := make([]*catalog.Product, 0, len(ids))
	for _, id := range ids {
		p := byID[id]
		if err := s.productRepo.Save(ctx, p); err != nil {
			s.undoReceipt(ctx, saved, before)
			return fmt.Errorf("apply receipt to %s: %w", p.SKU, err)
		}
		saved = append(saved, p)
	}

	for _, p := range saved {
		s.publish(ctx, p)
	}
	return nil
}

type receiptSnapshot struct {
	stock         int
	purchasePrice decimal.Decimal
}

// undoReceipt restores products whose receipt lines were already written
func (s *ProductService) undoReceipt(ctx context.Context, saved []*catalog.Product, before map[uuid.UUID]receiptSnapshot) {
	for _, p := range saved {
		p.ClearDomainEvents()
		snap := before[p.ID]
		if err := p.UndoReceipt(p.Stock-snap.stock, snap.purchasePrice); err != nil {
			continue
		}
		if err := s.productRepo.Save(ctx, p); err != nil {
			s.logger.Error("Failed to undo receipt",
				zap.String("sku", p.SKU),
				zap.Int("stock", snap.stock),
				zap.Error(err))
		}
		p.ClearDomainEvents()
	}
}

func (s *ProductService) loadDemand(ctx context.Context, demand map[uuid.UUID]int) ([]*catalog.Product, error) {
	if len(demand) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	found, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	products := make([]*catalog.Product, len(found))
	for i := range found {
		products[i] = &found[i]
	}
	return products, nil
}

// rollback restores stock already taken when a later line fails
func (s *ProductService) rollback(ctx context.Context, saved []*catalog.Product, demand map[uuid.UUID]int) {
	for _, p := range saved {
		p.ClearDomainEvents()
		if err := p.AdjustStock(demand[p.ID], catalog.StockReasonOrderCancel); err != nil {
			continue
		}
		if err := s.productRepo.Save(ctx, p); err != nil {
			s.logger.Error("Failed to roll back stock reservation",
				zap.String("sku", p.SKU),
				zap.Int("quantity", demand[p.ID]),
				zap.Error(err))
		}
		p.ClearDomainEvents()
	}
}

func (s *ProductService) ensureCategory(ctx context.Context, categoryID *uuid.UUID) error {
	if categoryID == nil || s.categoryRepo == nil {
		return nil
	}
	if _, err := s.categoryRepo.FindByID(ctx, *categoryID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_CATEGORY", "Category not found")
		}
		return err
	}
	return nil
}

func (s *ProductService) publish(ctx context.Context, product *catalog.Product) {
	events := product.PullDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish product events",
			zap.String("product_id", product.ID.String()),
			zap.Error(err))
	}
}
