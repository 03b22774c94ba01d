package warehouse

import (
	"context"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/catalog"
	"github.com/petstore/backend/internal/domain/partner"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/petstore/backend/internal/domain/warehouse"
	"github.com/stretchr/testify/mock"
)

// MockReceiptRepository is a mock implementation of ReceiptRepository
type MockReceiptRepository struct {
	mock.Mock
}

func (m *MockReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*warehouse.Receipt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*warehouse.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) FindAll(ctx context.Context, filter shared.Filter) ([]warehouse.Receipt, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]warehouse.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) FindBySupplier(ctx context.Context, supplierID uuid.UUID) ([]warehouse.Receipt, error) {
	args := m.Called(ctx, supplierID)
	return args.Get(0).([]warehouse.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) FindPosted(ctx context.Context) ([]warehouse.Receipt, error) {
	args := m.Called(ctx)
	return args.Get(0).([]warehouse.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) FindUnpaid(ctx context.Context) ([]warehouse.Receipt, error) {
	args := m.Called(ctx)
	return args.Get(0).([]warehouse.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) Save(ctx context.Context, receipt *warehouse.Receipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

func (m *MockReceiptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReceiptRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReceiptRepository) ExistsBySupplier(ctx context.Context, supplierID uuid.UUID) (bool, error) {
	args := m.Called(ctx, supplierID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReceiptRepository) ExistsByProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReceiptRepository) GenerateReceiptNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockSupplierRepository wires the supplier lookups receipts need
type MockSupplierRepository struct {
	mock.Mock
	partner.SupplierRepository
}

func (m *MockSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Supplier, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]partner.Supplier), args.Error(1)
}

// MockProductRepository wires the product lookups receipts need
type MockProductRepository struct {
	mock.Mock
	catalog.ProductRepository
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
