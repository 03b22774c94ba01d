package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/partner"
)

// CreateSupplierRequest represents a request to create a supplier
type CreateSupplierRequest struct {
	Code            string `json:"code" binding:"required,min=1,max=50"`
	Name            string `json:"name" binding:"required,min=1,max=200"`
	ContactPerson   string `json:"contact_person" binding:"omitempty,max=100"`
	Phone           string `json:"phone" binding:"omitempty,max=50"`
	Email           string `json:"email" binding:"omitempty,email"`
	Address         string `json:"address" binding:"omitempty,max=500"`
	PaymentTermDays int    `json:"payment_term_days" binding:"min=0,max=365"`
	Note            string `json:"note"`
}

// UpdateSupplierRequest represents a partial supplier update
type UpdateSupplierRequest struct {
	Name            *string `json:"name" binding:"omitempty,min=1,max=200"`
	ContactPerson   *string `json:"contact_person" binding:"omitempty,max=100"`
	Phone           *string `json:"phone" binding:"omitempty,max=50"`
	Email           *string `json:"email" binding:"omitempty,max=200"`
	Address         *string `json:"address" binding:"omitempty,max=500"`
	PaymentTermDays *int    `json:"payment_term_days" binding:"omitempty,min=0,max=365"`
	Note            *string `json:"note"`
}

// SupplierResponse represents a supplier in API responses
type SupplierResponse struct {
	ID              uuid.UUID `json:"id"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	ContactPerson   string    `json:"contact_person"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email"`
	Address         string    `json:"address"`
	PaymentTermDays int       `json:"payment_term_days"`
	Note            string    `json:"note"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ToSupplierResponse converts a domain Supplier to SupplierResponse
func ToSupplierResponse(s *partner.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:              s.ID,
		Code:            s.Code,
		Name:            s.Name,
		ContactPerson:   s.ContactPerson,
		Phone:           s.Phone,
		Email:           s.Email,
		Address:         s.Address,
		PaymentTermDays: s.PaymentTermDays,
		Note:            s.Note,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

// CreateCustomerRequest represents a request to create a customer
type CreateCustomerRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Phone   string `json:"phone" binding:"required,min=7,max=50"`
	Email   string `json:"email" binding:"omitempty,email"`
	City    string `json:"city" binding:"omitempty,max=100"`
	Address string `json:"address" binding:"omitempty,max=500"`
	Note    string `json:"note"`
}

// UpdateCustomerRequest represents a partial customer update
type UpdateCustomerRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=1,max=200"`
	Phone   *string `json:"phone" binding:"omitempty,min=7,max=50"`
	Email   *string `json:"email" binding:"omitempty,max=200"`
	City    *string `json:"city" binding:"omitempty,max=100"`
	Address *string `json:"address" binding:"omitempty,max=500"`
	Note    *string `json:"note"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	City       string    `json:"city"`
	Address    string    `json:"address"`
	Note       string    `json:"note"`
	OrderCount int64     `json:"order_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ToCustomerResponse converts a domain Customer to CustomerResponse
func ToCustomerResponse(c *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		City:      c.City,
		Address:   c.Address,
		Note:      c.Note,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ListFilter is the shared list filter for directories
type ListFilter struct {
	Search   string
	City     string
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}
