package warehouse

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/partner"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/petstore/backend/internal/domain/warehouse"
)

// SettlementService reports what the shop owes its suppliers
type SettlementService struct {
	receiptRepo  warehouse.ReceiptRepository
	supplierRepo partner.SupplierRepository
	loc          *time.Location
	now          func() time.Time
}

// NewSettlementService creates a new SettlementService. Receipts become
// overdue at midnight in loc.
func NewSettlementService(receiptRepo warehouse.ReceiptRepository, supplierRepo partner.SupplierRepository, loc *time.Location) *SettlementService {
	if loc == nil {
		loc = time.Local
	}
	return &SettlementService{
		receiptRepo:  receiptRepo,
		supplierRepo: supplierRepo,
		loc:          loc,
		now:          time.Now,
	}
}

func (s *SettlementService) clock() time.Time {
	return s.now().In(s.loc)
}

// List settles every supplier, largest outstanding first, with totals
func (s *SettlementService) List(ctx context.Context) (*SettlementListResponse, error) {
	settlements, err := s.settleAll(ctx)
	if err != nil {
		return nil, err
	}
	return &SettlementListResponse{
		Summary:     warehouse.Summarize(settlements),
		Settlements: settlements,
	}, nil
}

// Get settles one supplier and lists its posted receipts
func (s *SettlementService) Get(ctx context.Context, supplierID uuid.UUID) (*SettlementDetailResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	receipts, err := s.receiptRepo.FindBySupplier(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	detail := &SettlementDetailResponse{
		Settlement: warehouse.Settle(supplier.ID, supplier.Name, receipts, now),
		Receipts:   make([]ReceiptResponse, 0, len(receipts)),
	}
	for i := range receipts {
		if !receipts[i].IsPosted {
			continue
		}
		detail.Receipts = append(detail.Receipts, ToReceiptResponse(&receipts[i], now))
	}
	return detail, nil
}

// Summary totals outstanding and overdue amounts across suppliers
func (s *SettlementService) Summary(ctx context.Context) (warehouse.SettlementSummary, error) {
	settlements, err := s.settleAll(ctx)
	if err != nil {
		return warehouse.SettlementSummary{}, err
	}
	return warehouse.Summarize(settlements), nil
}

// Overdue returns the settlements of suppliers with overdue receipts
func (s *SettlementService) Overdue(ctx context.Context) ([]warehouse.Settlement, error) {
	receipts, err := s.receiptRepo.FindUnpaid(ctx)
	if err != nil {
		return nil, err
	}
	names, err := s.supplierNames(ctx)
	if err != nil {
		return nil, err
	}

	var overdue []warehouse.Settlement
	for _, st := range warehouse.SettleAll(names, receipts, s.clock()) {
		if st.OverdueCount > 0 {
			overdue = append(overdue, st)
		}
	}
	return overdue, nil
}

func (s *SettlementService) settleAll(ctx context.Context) ([]warehouse.Settlement, error) {
	receipts, err := s.receiptRepo.FindPosted(ctx)
	if err != nil {
		return nil, err
	}
	names, err := s.supplierNames(ctx)
	if err != nil {
		return nil, err
	}
	return warehouse.SettleAll(names, receipts, s.clock()), nil
}

func (s *SettlementService) supplierNames(ctx context.Context) (map[uuid.UUID]string, error) {
	suppliers, err := s.supplierRepo.FindAll(ctx, shared.Unpaged())
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(suppliers))
	for _, sup := range suppliers {
		names[sup.ID] = sup.Name
	}
	return names, nil
}
