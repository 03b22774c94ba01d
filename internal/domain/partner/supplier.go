package partner

import (
	"strings"

	"github.com/petstore/backend/internal/domain/shared"
)

// MaxPaymentTermDays bounds the supplier payment term
const MaxPaymentTermDays = 365

// Supplier is a vendor goods are received from
type Supplier struct {
	shared.BaseAggregateRoot
	Code            string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name            string `gorm:"type:varchar(200);not null"`
	ContactPerson   string `gorm:"type:varchar(100)"`
	Phone           string `gorm:"type:varchar(50)"`
	Email           string `gorm:"type:varchar(200)"`
	Address         string `gorm:"type:varchar(500)"`
	PaymentTermDays int    `gorm:"not null;default:0"`
	Note            string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "suppliers"
}

// NewSupplier creates a new supplier
func NewSupplier(code, name string) (*Supplier, error) {
	if err := validateSupplierCode(code); err != nil {
		return nil, err
	}
	if err := validateSupplierName(name); err != nil {
		return nil, err
	}

	supplier := &Supplier{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(strings.TrimSpace(code)),
		Name:              strings.TrimSpace(name),
	}

	supplier.AddDomainEvent(NewSupplierCreatedEvent(supplier))

	return supplier, nil
}

// Update updates the supplier's name and note
func (s *Supplier) Update(name, note string) error {
	if err := validateSupplierName(name); err != nil {
		return err
	}

	s.Name = strings.TrimSpace(name)
	s.Note = note
	s.IncrementVersion()

	s.AddDomainEvent(NewSupplierUpdatedEvent(s))

	return nil
}

// SetContact sets the contact person, phone, email and address
func (s *Supplier) SetContact(person, phone, email, address string) error {
	phone = strings.TrimSpace(phone)
	email = strings.ToLower(strings.TrimSpace(email))
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}
	if err := validateEmail(email); err != nil {
		return err
	}

	s.ContactPerson = strings.TrimSpace(person)
	s.Phone = phone
	s.Email = email
	s.Address = strings.TrimSpace(address)
	s.IncrementVersion()

	return nil
}

// SetPaymentTerm sets how many days after receipt an invoice falls due
func (s *Supplier) SetPaymentTerm(days int) error {
	if days < 0 || days > MaxPaymentTermDays {
		return shared.NewDomainError("INVALID_PAYMENT_TERM", "Payment term must be between 0 and 365 days")
	}
	s.PaymentTermDays = days
	s.IncrementVersion()
	return nil
}

func validateSupplierCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Supplier code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Supplier code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Supplier code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateSupplierName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Supplier name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Supplier name cannot exceed 200 characters")
	}
	return nil
}
