package partner

import (
	"strings"

	"github.com/petstore/backend/internal/domain/shared"
)

// Customer is a buyer, identified by phone number
type Customer struct {
	shared.BaseAggregateRoot
	Name    string `gorm:"type:varchar(200);not null"`
	Phone   string `gorm:"type:varchar(20);not null;uniqueIndex"`
	Email   string `gorm:"type:varchar(200)"`
	City    string `gorm:"type:varchar(100);index"`
	Address string `gorm:"type:varchar(500)"`
	Note    string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a customer. The phone is stored normalized.
func NewCustomer(name, phone string) (*Customer, error) {
	if err := validateCustomerName(name); err != nil {
		return nil, err
	}
	normalized, err := requirePhone(phone)
	if err != nil {
		return nil, err
	}

	customer := &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		Phone:             normalized,
	}

	customer.AddDomainEvent(NewCustomerCreatedEvent(customer))

	return customer, nil
}

// Update updates the customer's contact details
func (c *Customer) Update(name, phone, email string) error {
	if err := validateCustomerName(name); err != nil {
		return err
	}
	normalized, err := requirePhone(phone)
	if err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return err
	}

	c.Name = strings.TrimSpace(name)
	c.Phone = normalized
	c.Email = email
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerUpdatedEvent(c))

	return nil
}

// SetAddress sets the default delivery city and address
func (c *Customer) SetAddress(city, address string) {
	c.City = strings.TrimSpace(city)
	c.Address = strings.TrimSpace(address)
	c.IncrementVersion()
}

// SetNote sets a free-form note
func (c *Customer) SetNote(note string) {
	c.Note = note
	c.IncrementVersion()
}

func requirePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", shared.NewDomainError("INVALID_PHONE", "Phone cannot be empty")
	}
	if err := validatePhone(phone); err != nil {
		return "", err
	}
	normalized := NormalizePhone(phone)
	if len(strings.TrimPrefix(normalized, "+")) < 7 {
		return "", shared.NewDomainError("INVALID_PHONE", "Phone number is too short")
	}
	return normalized, nil
}

func validateCustomerName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 200 characters")
	}
	return nil
}
