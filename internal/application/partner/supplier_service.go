package partner

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/partner"
	"github.com/petstore/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SupplierUsageChecker reports whether a supplier has receipts
type SupplierUsageChecker interface {
	ExistsBySupplier(ctx context.Context, supplierID uuid.UUID) (bool, error)
}

// SupplierService handles supplier directory operations
type SupplierService struct {
	supplierRepo   partner.SupplierRepository
	usage          SupplierUsageChecker
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewSupplierService creates a new SupplierService
func NewSupplierService(supplierRepo partner.SupplierRepository, usage SupplierUsageChecker) *SupplierService {
	return &SupplierService{
		supplierRepo: supplierRepo,
		usage:        usage,
		logger:       zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for the service
func (s *SupplierService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLogger sets the logger used for non-fatal failures
func (s *SupplierService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Create creates a new supplier
func (s *SupplierService) Create(ctx context.Context, req CreateSupplierRequest) (*SupplierResponse, error) {
	exists, err := s.supplierRepo.ExistsByCode(ctx, strings.ToUpper(strings.TrimSpace(req.Code)))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Supplier with this code already exists")
	}

	supplier, err := partner.NewSupplier(req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	if err := supplier.SetContact(req.ContactPerson, req.Phone, req.Email, req.Address); err != nil {
		return nil, err
	}
	if err := supplier.SetPaymentTerm(req.PaymentTermDays); err != nil {
		return nil, err
	}
	if req.Note != "" {
		if err := supplier.Update(supplier.Name, req.Note); err != nil {
			return nil, err
		}
	}

	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}
	s.publish(ctx, supplier)

	response := ToSupplierResponse(supplier)
	return &response, nil
}

// GetByID retrieves a supplier by ID
func (s *SupplierService) GetByID(ctx context.Context, id uuid.UUID) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToSupplierResponse(supplier)
	return &response, nil
}

// List retrieves a page of suppliers and the total count
func (s *SupplierService) List(ctx context.Context, filter ListFilter) ([]SupplierResponse, int64, error) {
	domainFilter := toDomainFilter(filter)

	suppliers, err := s.supplierRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.supplierRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]SupplierResponse, len(suppliers))
	for i := range suppliers {
		responses[i] = ToSupplierResponse(&suppliers[i])
	}
	return responses, total, nil
}

// Update applies a partial update to a supplier
func (s *SupplierService) Update(ctx context.Context, id uuid.UUID, req UpdateSupplierRequest) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Note != nil {
		name, note := supplier.Name, supplier.Note
		if req.Name != nil {
			name = *req.Name
		}
		if req.Note != nil {
			note = *req.Note
		}
		if err := supplier.Update(name, note); err != nil {
			return nil, err
		}
	}

	if req.ContactPerson != nil || req.Phone != nil || req.Email != nil || req.Address != nil {
		person, phone, email, address := supplier.ContactPerson, supplier.Phone, supplier.Email, supplier.Address
		if req.ContactPerson != nil {
			person = *req.ContactPerson
		}
		if req.Phone != nil {
			phone = *req.Phone
		}
		if req.Email != nil {
			email = *req.Email
		}
		if req.Address != nil {
			address = *req.Address
		}
		if err := supplier.SetContact(person, phone, email, address); err != nil {
			return nil, err
		}
	}

	if req.PaymentTermDays != nil {
		if err := supplier.SetPaymentTerm(*req.PaymentTermDays); err != nil {
			return nil, err
		}
	}

	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}
	s.publish(ctx, supplier)

	response := ToSupplierResponse(supplier)
	return &response, nil
}

// Delete removes a supplier with no receipts
func (s *SupplierService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.supplierRepo.FindByID(ctx, id); err != nil {
		return err
	}
	if s.usage != nil {
		used, err := s.usage.ExistsBySupplier(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return shared.ErrInUse.WithMessage("Supplier has warehouse receipts")
		}
	}
	return s.supplierRepo.Delete(ctx, id)
}

// Names maps every supplier id to its name
func (s *SupplierService) Names(ctx context.Context) (map[uuid.UUID]string, error) {
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

func (s *SupplierService) publish(ctx context.Context, supplier *partner.Supplier) {
	events := supplier.PullDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish supplier events",
			zap.String("supplier_id", supplier.ID.String()),
			zap.Error(err))
	}
}

func toDomainFilter(filter ListFilter) shared.Filter {
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
	if filter.City != "" {
		domainFilter.Filters["city"] = filter.City
	}
	return domainFilter
}
