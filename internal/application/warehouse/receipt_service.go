package warehouse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/catalog"
	"github.com/petstore/backend/internal/domain/partner"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/petstore/backend/internal/domain/warehouse"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReceiptService handles warehouse receipts: drafting, posting and payment
type ReceiptService struct {
	receiptRepo    warehouse.ReceiptRepository
	supplierRepo   partner.SupplierRepository
	productRepo    catalog.ProductRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	loc            *time.Location
	now            func() time.Time
}

// NewReceiptService creates a new ReceiptService. loc is the shop's zone:
// receipt dates and overdue flags are computed in it.
func NewReceiptService(
	receiptRepo warehouse.ReceiptRepository,
	supplierRepo partner.SupplierRepository,
	productRepo catalog.ProductRepository,
	loc *time.Location,
) *ReceiptService {
	if loc == nil {
		loc = time.Local
	}
	return &ReceiptService{
		receiptRepo:  receiptRepo,
		supplierRepo: supplierRepo,
		productRepo:  productRepo,
		logger:       zap.NewNop(),
		loc:          loc,
		now:          time.Now,
	}
}

func (s *ReceiptService) clock() time.Time {
	return s.now().In(s.loc)
}

// SetEventPublisher sets the event publisher for the service
func (s *ReceiptService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLogger sets the logger used for non-fatal failures
func (s *ReceiptService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Create creates a draft receipt. The due date defaults to the receipt date
// plus the supplier's payment term.
func (s *ReceiptService) Create(ctx context.Context, req CreateReceiptRequest) (*ReceiptResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, req.SupplierID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier not found")
		}
		return nil, err
	}

	number, err := s.receiptRepo.GenerateReceiptNumber(ctx)
	if err != nil {
		return nil, err
	}

	date := s.clock()
	if req.ReceiptDate != nil && !req.ReceiptDate.IsZero() {
		date = *req.ReceiptDate
	}

	receipt, err := warehouse.NewReceipt(number, supplier.ID, supplier.Name, date, supplier.PaymentTermDays)
	if err != nil {
		return nil, err
	}
	if req.DueDate != nil && !req.DueDate.IsZero() {
		if err := receipt.SetDueDate(*req.DueDate); err != nil {
			return nil, err
		}
	}
	if req.Note != "" {
		receipt.SetNote(req.Note)
	}

	inputs, err := s.buildItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	if err := receipt.ReplaceItems(inputs); err != nil {
		return nil, err
	}
	if err := receipt.SetExtraCost(req.ExtraCost); err != nil {
		return nil, err
	}

	if err := s.receiptRepo.Save(ctx, receipt); err != nil {
		return nil, err
	}
	s.publish(ctx, receipt)

	response := ToReceiptResponse(receipt, s.clock())
	return &response, nil
}

// GetByID retrieves a receipt with its items
func (s *ReceiptService) GetByID(ctx context.Context, id uuid.UUID) (*ReceiptResponse, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToReceiptResponse(receipt, s.clock())
	return &response, nil
}

// List retrieves a page of receipts and the total count
func (s *ReceiptService) List(ctx context.Context, filter ReceiptListFilter) ([]ReceiptResponse, int64, error) {
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
	if filter.SupplierID != nil {
		domainFilter.Filters["supplier_id"] = *filter.SupplierID
	}
	if filter.Paid != nil {
		domainFilter.Filters["paid"] = *filter.Paid
	}
	if filter.Posted != nil {
		domainFilter.Filters["posted"] = *filter.Posted
	}
	if filter.Overdue != nil {
		domainFilter.Filters["overdue"] = *filter.Overdue
	}
	if filter.From != nil {
		domainFilter.Filters["from"] = *filter.From
	}
	if filter.To != nil {
		domainFilter.Filters["to"] = *filter.To
	}

	receipts, err := s.receiptRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.receiptRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	now := s.clock()
	responses := make([]ReceiptResponse, len(receipts))
	for i := range receipts {
		responses[i] = ToReceiptResponse(&receipts[i], now)
	}
	return responses, total, nil
}

// Update changes a receipt. Items, extra cost and the due date can only
// change while the receipt is a draft; the note may change at any time.
func (s *ReceiptService) Update(ctx context.Context, id uuid.UUID, req UpdateReceiptRequest) (*ReceiptResponse, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Items != nil {
		inputs, err := s.buildItems(ctx, req.Items)
		if err != nil {
			return nil, err
		}
		if err := receipt.ReplaceItems(inputs); err != nil {
			return nil, err
		}
	}
	if req.ExtraCost != nil {
		if err := receipt.SetExtraCost(*req.ExtraCost); err != nil {
			return nil, err
		}
	}
	if req.DueDate != nil {
		if err := receipt.SetDueDate(*req.DueDate); err != nil {
			return nil, err
		}
	}
	if req.Note != nil {
		receipt.SetNote(*req.Note)
	}

	if err := s.receiptRepo.Save(ctx, receipt); err != nil {
		return nil, err
	}

	response := ToReceiptResponse(receipt, s.clock())
	return &response, nil
}

// Post puts the receipt's goods on the shelf. Stock and purchase prices are
// updated by the ReceiptPosted handlers; if they fail the receipt goes back
// to draft and the error is returned, so posting can be retried.
func (s *ReceiptService) Post(ctx context.Context, id uuid.UUID) (*ReceiptResponse, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := receipt.Post(s.clock()); err != nil {
		return nil, err
	}
	if err := s.receiptRepo.Save(ctx, receipt); err != nil {
		return nil, err
	}

	events := receipt.PullDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Error("Failed to book posted receipt, returning it to draft",
				zap.String("receipt_number", receipt.ReceiptNumber),
				zap.Error(err))
			return nil, s.revertPost(ctx, receipt, err)
		}
	}

	response := ToReceiptResponse(receipt, s.clock())
	return &response, nil
}

func (s *ReceiptService) revertPost(ctx context.Context, receipt *warehouse.Receipt, cause error) error {
	failed := warehouse.ErrReceiptNotBooked.WithCause(cause)
	if err := receipt.Unpost(); err != nil {
		return failed
	}
	if err := s.receiptRepo.Save(ctx, receipt); err != nil {
		s.logger.Error("Failed to return receipt to draft",
			zap.String("receipt_number", receipt.ReceiptNumber),
			zap.Error(err))
		return errors.Join(failed, err)
	}
	return failed
}

// Pay marks a receipt as paid to the supplier
func (s *ReceiptService) Pay(ctx context.Context, id uuid.UUID, req PayReceiptRequest) (*ReceiptResponse, error) {
	return s.mutate(ctx, id, func(r *warehouse.Receipt) error {
		at := s.clock()
		if req.PaidAt != nil && !req.PaidAt.IsZero() {
			at = *req.PaidAt
		}
		return r.MarkPaid(at)
	})
}

// Unpay reverts a receipt payment
func (s *ReceiptService) Unpay(ctx context.Context, id uuid.UUID) (*ReceiptResponse, error) {
	return s.mutate(ctx, id, func(r *warehouse.Receipt) error {
		return r.MarkUnpaid()
	})
}

// Delete removes an unposted receipt
func (s *ReceiptService) Delete(ctx context.Context, id uuid.UUID) error {
	receipt, err := s.receiptRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !receipt.CanDelete() {
		return shared.NewDomainError("INVALID_STATE", "Posted receipts cannot be deleted")
	}
	return s.receiptRepo.Delete(ctx, id)
}

// PreviewAllocation runs the landed-cost allocator without saving anything
func (s *ReceiptService) PreviewAllocation(_ context.Context, req AllocationPreviewRequest) (*AllocationPreviewResponse, error) {
	lines := make([]warehouse.CostLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = warehouse.CostLine{Quantity: l.Quantity, UnitPrice: l.UnitPrice}
	}

	costs, err := warehouse.AllocateExtraCost(lines, req.ExtraCost)
	if err != nil {
		return nil, err
	}

	supplierValue := decimal.Zero
	landedValue := decimal.Zero
	for _, c := range costs {
		supplierValue = supplierValue.Add(c.SupplierTotal)
		landedValue = landedValue.Add(c.LandedTotal)
	}

	return &AllocationPreviewResponse{
		Lines:         costs,
		SupplierValue: supplierValue,
		ExtraCost:     req.ExtraCost,
		LandedValue:   landedValue,
	}, nil
}

// ExistsBySupplier reports whether a supplier has receipts
func (s *ReceiptService) ExistsBySupplier(ctx context.Context, supplierID uuid.UUID) (bool, error) {
	return s.receiptRepo.ExistsBySupplier(ctx, supplierID)
}

func (s *ReceiptService) mutate(ctx context.Context, id uuid.UUID, fn func(*warehouse.Receipt) error) (*ReceiptResponse, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(receipt); err != nil {
		return nil, err
	}
	if err := s.receiptRepo.Save(ctx, receipt); err != nil {
		return nil, err
	}
	s.publish(ctx, receipt)

	response := ToReceiptResponse(receipt, s.clock())
	return &response, nil
}

// buildItems snapshots SKU and name from the catalog for each line
func (s *ReceiptService) buildItems(ctx context.Context, reqs []ReceiptItemRequest) ([]warehouse.ReceiptItemInput, error) {
	ids := make([]uuid.UUID, 0, len(reqs))
	seen := make(map[uuid.UUID]bool, len(reqs))
	for _, r := range reqs {
		if !seen[r.ProductID] {
			seen[r.ProductID] = true
			ids = append(ids, r.ProductID)
		}
	}

	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	inputs := make([]warehouse.ReceiptItemInput, 0, len(reqs))
	for i, r := range reqs {
		product, ok := byID[r.ProductID]
		if !ok {
			return nil, shared.NewDomainError("INVALID_PRODUCT", fmt.Sprintf("Line %d: product not found", i+1))
		}
		inputs = append(inputs, warehouse.ReceiptItemInput{
			ProductID:   product.ID,
			SKU:         product.SKU,
			ProductName: product.Name.UK,
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
		})
	}
	return inputs, nil
}

func (s *ReceiptService) publish(ctx context.Context, receipt *warehouse.Receipt) {
	events := receipt.PullDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish receipt events",
			zap.String("receipt_number", receipt.ReceiptNumber),
			zap.Error(err))
	}
}
