package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/partner"
	"github.com/petstore/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CustomerOrderCounter counts a customer's orders
type CustomerOrderCounter interface {
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
}

// CustomerService handles customer directory operations
type CustomerService struct {
	customerRepo   partner.CustomerRepository
	orders         CustomerOrderCounter
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo partner.CustomerRepository, orders CustomerOrderCounter) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		orders:       orders,
		logger:       zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for the service
func (s *CustomerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLogger sets the logger used for non-fatal failures
func (s *CustomerService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Create creates a new customer. The phone must be unique.
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	customer, err := partner.NewCustomer(req.Name, req.Phone)
	if err != nil {
		return nil, err
	}

	exists, err := s.customerRepo.ExistsByPhone(ctx, customer.Phone)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Customer with this phone already exists")
	}

	if req.Email != "" {
		if err := customer.Update(customer.Name, customer.Phone, req.Email); err != nil {
			return nil, err
		}
	}
	if req.City != "" || req.Address != "" {
		customer.SetAddress(req.City, req.Address)
	}
	if req.Note != "" {
		customer.SetNote(req.Note)
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	s.publish(ctx, customer)

	response := ToCustomerResponse(customer)
	return &response, nil
}

// GetByID retrieves a customer with their order count
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToCustomerResponse(customer)
	if s.orders != nil {
		count, err := s.orders.CountByCustomer(ctx, id)
		if err != nil {
			return nil, err
		}
		response.OrderCount = count
	}
	return &response, nil
}

// List retrieves a page of customers and the total count
func (s *CustomerService) List(ctx context.Context, filter ListFilter) ([]CustomerResponse, int64, error) {
	domainFilter := toDomainFilter(filter)

	customers, err := s.customerRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.customerRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]CustomerResponse, len(customers))
	for i := range customers {
		responses[i] = ToCustomerResponse(&customers[i])
	}
	return responses, total, nil
}

// Update applies a partial update to a customer
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Phone != nil || req.Email != nil {
		name, phone, email := customer.Name, customer.Phone, customer.Email
		if req.Name != nil {
			name = *req.Name
		}
		if req.Email != nil {
			email = *req.Email
		}
		if req.Phone != nil && partner.NormalizePhone(*req.Phone) != customer.Phone {
			phone = *req.Phone
			exists, err := s.customerRepo.ExistsByPhone(ctx, partner.NormalizePhone(phone))
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, shared.NewDomainError("ALREADY_EXISTS", "Customer with this phone already exists")
			}
		}
		if err := customer.Update(name, phone, email); err != nil {
			return nil, err
		}
	}

	if req.City != nil || req.Address != nil {
		city, address := customer.City, customer.Address
		if req.City != nil {
			city = *req.City
		}
		if req.Address != nil {
			address = *req.Address
		}
		customer.SetAddress(city, address)
	}
	if req.Note != nil {
		customer.SetNote(*req.Note)
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	s.publish(ctx, customer)

	response := ToCustomerResponse(customer)
	return &response, nil
}

// Delete removes a customer with no orders
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.customerRepo.FindByID(ctx, id); err != nil {
		return err
	}
	if s.orders != nil {
		count, err := s.orders.CountByCustomer(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return shared.ErrInUse.WithMessage("Customer has orders")
		}
	}
	return s.customerRepo.Delete(ctx, id)
}

func (s *CustomerService) publish(ctx context.Context, customer *partner.Customer) {
	events := customer.PullDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish customer events",
			zap.String("customer_id", customer.ID.String()),
			zap.Error(err))
	}
}
