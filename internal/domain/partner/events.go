package partner

import (
	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeSupplier = "Supplier"
	AggregateTypeCustomer = "Customer"
)

// Event type constants
const (
	EventTypeSupplierCreated = "SupplierCreated"
	EventTypeSupplierUpdated = "SupplierUpdated"
	EventTypeCustomerCreated = "CustomerCreated"
	EventTypeCustomerUpdated = "CustomerUpdated"
)

// SupplierCreatedEvent is published when a supplier is added
type SupplierCreatedEvent struct {
	shared.BaseDomainEvent
	SupplierID uuid.UUID `json:"supplier_id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
}

// NewSupplierCreatedEvent creates a new SupplierCreatedEvent
func NewSupplierCreatedEvent(s *Supplier) *SupplierCreatedEvent {
	return &SupplierCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSupplierCreated, AggregateTypeSupplier, s.ID),
		SupplierID:      s.ID,
		Code:            s.Code,
		Name:            s.Name,
	}
}

// SupplierUpdatedEvent is published when supplier details change
type SupplierUpdatedEvent struct {
	shared.BaseDomainEvent
	SupplierID uuid.UUID `json:"supplier_id"`
	Name       string    `json:"name"`
}

// NewSupplierUpdatedEvent creates a new SupplierUpdatedEvent
func NewSupplierUpdatedEvent(s *Supplier) *SupplierUpdatedEvent {
	return &SupplierUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSupplierUpdated, AggregateTypeSupplier, s.ID),
		SupplierID:      s.ID,
		Name:            s.Name,
	}
}

// CustomerCreatedEvent is published when a customer is added
type CustomerCreatedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
}

// NewCustomerCreatedEvent creates a new CustomerCreatedEvent
func NewCustomerCreatedEvent(c *Customer) *CustomerCreatedEvent {
	return &CustomerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerCreated, AggregateTypeCustomer, c.ID),
		CustomerID:      c.ID,
		Name:            c.Name,
		Phone:           c.Phone,
	}
}

// CustomerUpdatedEvent is published when customer details change
type CustomerUpdatedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Name       string    `json:"name"`
}

// NewCustomerUpdatedEvent creates a new CustomerUpdatedEvent
func NewCustomerUpdatedEvent(c *Customer) *CustomerUpdatedEvent {
	return &CustomerUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerUpdated, AggregateTypeCustomer, c.ID),
		CustomerID:      c.ID,
		Name:            c.Name,
	}
}
