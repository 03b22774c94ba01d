package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/catalog"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestProduct(t *testing.T, sku string, price int64, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, shared.NewLocalizedText("Товар "+sku, "Item "+sku), decimal.NewFromInt(price))
	require.NoError(t, err)
	if stock > 0 {
		require.NoError(t, p.AdjustStock(stock, catalog.StockReasonManual))
	}
	p.ClearDomainEvents()
	return p
}

func newProductService() (*ProductService, *MockProductRepository, *MockCategoryRepository, *MockUsageChecker) {
	productRepo := new(MockProductRepository)
	categoryRepo := new(MockCategoryRepository)
	usage := new(MockUsageChecker)
	return NewProductService(productRepo, categoryRepo, 5, usage), productRepo, categoryRepo, usage
}

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates product with promo and opening stock", func(t *testing.T) {
		svc, productRepo, categoryRepo, _ := newProductService()
		publisher := new(MockEventPublisher)
		svc.SetEventPublisher(publisher)

		categoryID := uuid.New()
		category, err := catalog.NewCategory("DOGS", shared.NewLocalizedText("Собаки", "Dogs"), nil)
		require.NoError(t, err)

		purchase := decimal.NewFromInt(60)
		promo := decimal.NewFromInt(90)
		req := CreateProductRequest{
			SKU:           "dog-food-1",
			Barcode:       "4820000000012",
			Name:          shared.NewLocalizedText("Корм для собак", "Dog food"),
			CategoryID:    &categoryID,
			Price:         decimal.NewFromInt(100),
			PurchasePrice: &purchase,
			PromoPrice:    &promo,
			Stock:         3,
		}

		productRepo.On("ExistsBySKU", ctx, "dog-food-1").Return(false, nil)
		productRepo.On("ExistsByBarcode", ctx, "4820000000012").Return(false, nil)
		categoryRepo.On("FindByID", ctx, categoryID).Return(category, nil)
		productRepo.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).Return(nil)
		publisher.On("Publish", ctx, mock.Anything).Return(nil)

		resp, err := svc.Create(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, "DOG-FOOD-1", resp.SKU)
		assert.True(t, resp.EffectivePrice.Equal(promo))
		assert.True(t, resp.Margin.Equal(decimal.NewFromInt(30)))
		assert.Equal(t, 3, resp.Stock)
		assert.True(t, resp.LowStock)
		assert.True(t, resp.IsActive)
		productRepo.AssertExpectations(t)
		publisher.AssertNumberOfCalls(t, "Publish", 1)
	})

	t.Run("rejects duplicate SKU", func(t *testing.T) {
		svc, productRepo, _, _ := newProductService()
		productRepo.On("ExistsBySKU", ctx, "DUP").Return(true, nil)

		_, err := svc.Create(ctx, CreateProductRequest{SKU: "DUP", Name: shared.NewLocalizedText("x", ""), Price: decimal.NewFromInt(1)})
		assert.True(t, errors.Is(err, shared.ErrAlreadyExists))
		productRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		svc, productRepo, categoryRepo, _ := newProductService()
		categoryID := uuid.New()
		productRepo.On("ExistsBySKU", ctx, "CAT-1").Return(false, nil)
		categoryRepo.On("FindByID", ctx, categoryID).Return(nil, shared.ErrNotFound)

		_, err := svc.Create(ctx, CreateProductRequest{
			SKU:        "CAT-1",
			Name:       shared.NewLocalizedText("Кіт", ""),
			Price:      decimal.NewFromInt(10),
			CategoryID: &categoryID,
		})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_CATEGORY", domainErr.Code)
	})

	t.Run("rejects promo above price", func(t *testing.T) {
		svc, productRepo, _, _ := newProductService()
		promo := decimal.NewFromInt(20)
		productRepo.On("ExistsBySKU", ctx, "P-1").Return(false, nil)

		_, err := svc.Create(ctx, CreateProductRequest{
			SKU:        "P-1",
			Name:       shared.NewLocalizedText("Іграшка", ""),
			Price:      decimal.NewFromInt(10),
			PromoPrice: &promo,
		})
		require.Error(t, err)
		productRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestProductService_Update(t *testing.T) {
	ctx := context.Background()
	svc, productRepo, _, _ := newProductService()

	categoryID := uuid.New()
	product := newTestProduct(t, "BOWL", 50, 10)
	product.SetCategory(&categoryID)

	productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
	productRepo.On("Save", ctx, product).Return(nil)

	price := decimal.NewFromInt(55)
	inactive := false
	resp, err := svc.Update(ctx, product.ID, UpdateProductRequest{
		Price:         &price,
		ClearCategory: true,
		IsActive:      &inactive,
	})
	require.NoError(t, err)

	assert.True(t, resp.Price.Equal(price))
	assert.Nil(t, resp.CategoryID)
	assert.False(t, resp.IsActive)
}

func TestProductService_AdjustStock(t *testing.T) {
	ctx := context.Background()

	t.Run("never goes below zero", func(t *testing.T) {
		svc, productRepo, _, _ := newProductService()
		product := newTestProduct(t, "LEASH", 30, 2)
		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)

		_, err := svc.AdjustStock(ctx, product.ID, AdjustStockRequest{Delta: -3})
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.Equal(t, 2, product.Stock)
		productRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("applies delta", func(t *testing.T) {
		svc, productRepo, _, _ := newProductService()
		product := newTestProduct(t, "LEASH", 30, 2)
		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		productRepo.On("Save", ctx, product).Return(nil)

		resp, err := svc.AdjustStock(ctx, product.ID, AdjustStockRequest{Delta: 8, Reason: "inventory count"})
		require.NoError(t, err)
		assert.Equal(t, 10, resp.Stock)
		assert.False(t, resp.LowStock)
	})
}

func TestProductService_SetPromo(t *testing.T) {
	ctx := context.Background()
	svc, productRepo, _, _ := newProductService()
	product := newTestProduct(t, "TOY", 40, 1)
	productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
	productRepo.On("Save", ctx, product).Return(nil)

	promo := decimal.NewFromInt(35)
	resp, err := svc.SetPromo(ctx, product.ID, SetPromoRequest{PromoPrice: &promo})
	require.NoError(t, err)
	require.NotNil(t, resp.PromoPrice)
	assert.True(t, resp.EffectivePrice.Equal(promo))

	resp, err = svc.SetPromo(ctx, product.ID, SetPromoRequest{})
	require.NoError(t, err)
	assert.Nil(t, resp.PromoPrice)
	assert.True(t, resp.EffectivePrice.Equal(decimal.NewFromInt(40)))
}

func TestProductService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("refuses referenced product", func(t *testing.T) {
		svc, productRepo, _, usage := newProductService()
		product := newTestProduct(t, "CAGE", 500, 0)
		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		usage.On("ExistsByProduct", ctx, product.ID).Return(true, nil)

		err := svc.Delete(ctx, product.ID)
		assert.True(t, errors.Is(err, shared.ErrInUse))
		productRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("deletes unreferenced product", func(t *testing.T) {
		svc, productRepo, _, usage := newProductService()
		product := newTestProduct(t, "CAGE", 500, 0)
		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		productRepo.On("Delete", ctx, product.ID).Return(nil)
		usage.On("ExistsByProduct", ctx, product.ID).Return(false, nil)

		require.NoError(t, svc.Delete(ctx, product.ID))
		productRepo.AssertExpectations(t)
	})
}

func TestProductService_List(t *testing.T) {
	ctx := context.Background()
	svc, productRepo, _, _ := newProductService()

	products := []catalog.Product{*newTestProduct(t, "A", 10, 1), *newTestProduct(t, "B", 20, 50)}
	matchFilter := mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 1 && f.PageSize == 100 && f.Search == "dog" && f.Filters["low_stock"] == 5
	})
	productRepo.On("FindAll", ctx, matchFilter).Return(products, nil)
	productRepo.On("Count", ctx, matchFilter).Return(int64(2), nil)

	items, total, err := svc.List(ctx, ProductListFilter{Search: " dog ", LowStock: true, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.True(t, items[0].LowStock)
	assert.False(t, items[1].LowStock)
}

func TestProductService_ReserveStock(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects the whole demand when one line is short", func(t *testing.T) {
		svc, productRepo, _, _ := newProductService()
		a := newTestProduct(t, "A", 10, 5)
		b := newTestProduct(t, "B", 10, 1)
		productRepo.On("FindByIDs", ctx, mock.Anything).Return([]catalog.Product{*a, *b}, nil)

		err := svc.ReserveStock(ctx, map[uuid.UUID]int{a.ID: 2, b.ID: 3})
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		productRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("reports missing products", func(t *testing.T) {
		svc, productRepo, _, _ := newProductService()
		a := newTestProduct(t, "A", 10, 5)
		productRepo.On("FindByIDs", ctx, mock.Anything).Return([]catalog.Product{*a}, nil)

		err := svc.ReserveStock(ctx, map[uuid.UUID]int{a.ID: 1, uuid.New(): 1})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("decrements stock", func(t *testing.T) {
		svc, productRepo, _, _ := newProductService()
		a := newTestProduct(t, "A", 10, 5)
		productRepo.On("FindByIDs", ctx, mock.Anything).Return([]catalog.Product{*a}, nil)

		var saved *catalog.Product
		productRepo.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).
			Run(func(args mock.Arguments) { saved = args.Get(1).(*catalog.Product) }).
			Return(nil)

		require.NoError(t, svc.ReserveStock(ctx, map[uuid.UUID]int{a.ID: 5}))
		require.NotNil(t, saved)
		assert.Equal(t, 0, saved.Stock)
	})

	t.Run("rolls back earlier lines when a save fails", func(t *testing.T) {
		svc, productRepo, _, _ := newProductService()
		a := newTestProduct(t, "A", 10, 5)
		b := newTestProduct(t, "B", 10, 5)
		productRepo.On("FindByIDs", ctx, mock.Anything).Return([]catalog.Product{*a, *b}, nil)

		stockAtSave := make(map[string][]int)
		record := func(args mock.Arguments) {
			p := args.Get(1).(*catalog.Product)
			stockAtSave[p.SKU] = append(stockAtSave[p.SKU], p.Stock)
		}
		productRepo.On("Save", ctx, mock.MatchedBy(func(p *catalog.Product) bool { return p.SKU == "A" })).
			Run(record).Return(nil)
		productRepo.On("Save", ctx, mock.MatchedBy(func(p *catalog.Product) bool { return p.SKU == "B" })).
			Run(record).Return(errors.New("disk full"))

		err := svc.ReserveStock(ctx, map[uuid.UUID]int{a.ID: 2, b.ID: 2})
		require.Error(t, err)
		assert.Equal(t, []int{3, 5}, stockAtSave["A"])
	})
}

func TestProductService_ReleaseStock(t *testing.T) {
	ctx := context.Background()
	svc, productRepo, _, _ := newProductService()
	a := newTestProduct(t, "A", 10, 1)
	productRepo.On("FindByIDs", ctx, mock.Anything).Return([]catalog.Product{*a}, nil)

	var saved *catalog.Product
	productRepo.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*catalog.Product) }).
		Return(nil)

	require.NoError(t, svc.ReleaseStock(ctx, map[uuid.UUID]int{a.ID: 4}, catalog.StockReasonOrderCancel))
	assert.Equal(t, 5, saved.Stock)
}

func TestProductService_ApplyReceipt(t *testing.T) {
	ctx := context.Background()

	t.Run("books every line at landed cost", func(t *testing.T) {
		svc, productRepo, _, _ := newProductService()
		food := newTestProduct(t, "FOOD", 100, 10)
		require.NoError(t, food.SetPrices(decimal.NewFromInt(100), decimal.NewFromInt(50)))
		toy := newTestProduct(t, "TOY", 40, 0)
		productRepo.On("FindByIDs", ctx, []uuid.UUID{food.ID, toy.ID}).Return([]catalog.Product{*food, *toy}, nil)

		saved := make(map[string]*catalog.Product)
		productRepo.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).
			Run(func(args mock.Arguments) {
				p := args.Get(1).(*catalog.Product)
				saved[p.SKU] = p
			}).
			Return(nil)

		require.NoError(t, svc.ApplyReceipt(ctx, []ReceivedLine{
			{ProductID: food.ID, Quantity: 10, LandedUnitCost: decimal.NewFromInt(70)},
			{ProductID: toy.ID, Quantity: 4, LandedUnitCost: decimal.NewFromInt(12)},
		}))
		productRepo.AssertNumberOfCalls(t, "Save", 2)
		assert.Equal(t, 20, saved["FOOD"].Stock)
		assert.True(t, saved["FOOD"].PurchasePrice.Equal(decimal.NewFromInt(60)), saved["FOOD"].PurchasePrice.String())
		assert.Equal(t, 4, saved["TOY"].Stock)
	})

	t.Run("missing product writes nothing", func(t *testing.T) {
		svc, productRepo, _, _ := newProductService()
		food := newTestProduct(t, "FOOD", 100, 10)
		missing := uuid.New()
		productRepo.On("FindByIDs", ctx, []uuid.UUID{food.ID, missing}).Return([]catalog.Product{*food}, nil)

		err := svc.ApplyReceipt(ctx, []ReceivedLine{
			{ProductID: food.ID, Quantity: 1, LandedUnitCost: decimal.NewFromInt(5)},
			{ProductID: missing, Quantity: 1, LandedUnitCost: decimal.NewFromInt(5)},
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
		productRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("failed write restores lines already saved", func(t *testing.T) {
		svc, productRepo, _, _ := newProductService()
		a := newTestProduct(t, "A", 100, 10)
		require.NoError(t, a.SetPrices(decimal.NewFromInt(100), decimal.NewFromInt(50)))
		b := newTestProduct(t, "B", 100, 0)
		productRepo.On("FindByIDs", ctx, []uuid.UUID{a.ID, b.ID}).Return([]catalog.Product{*a, *b}, nil)

		type state struct {
			stock    int
			purchase string
		}
		var atSave []state
		productRepo.On("Save", ctx, mock.MatchedBy(func(p *catalog.Product) bool { return p.SKU == "A" })).
			Run(func(args mock.Arguments) {
				p := args.Get(1).(*catalog.Product)
				atSave = append(atSave, state{p.Stock, p.PurchasePrice.String()})
			}).
			Return(nil)
		productRepo.On("Save", ctx, mock.MatchedBy(func(p *catalog.Product) bool { return p.SKU == "B" })).
			Return(shared.ErrConcurrencyConflict)

		err := svc.ApplyReceipt(ctx, []ReceivedLine{
			{ProductID: a.ID, Quantity: 10, LandedUnitCost: decimal.NewFromInt(70)},
			{ProductID: b.ID, Quantity: 3, LandedUnitCost: decimal.NewFromInt(9)},
		})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, []state{{20, "60"}, {10, "50"}}, atSave)
	})
}
