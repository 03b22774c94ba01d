package persistence

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/catalog"
	"github.com/petstore/backend/internal/domain/finance"
	"github.com/petstore/backend/internal/domain/partner"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/petstore/backend/internal/domain/trade"
	"github.com/petstore/backend/internal/domain/warehouse"
	"github.com/petstore/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens a private in-memory sqlite store with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })
	return db.DB
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newProduct(t *testing.T, sku string, price string, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, shared.LocalizedText{UK: "Товар " + sku, EN: "Item " + sku}, dec(price))
	require.NoError(t, err)
	if stock > 0 {
		require.NoError(t, p.AdjustStock(stock, catalog.StockReasonManual))
	}
	return p
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: "mysql"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestDatabase_PingAndStats(t *testing.T) {
	db, err := NewDatabase(&config.DatabaseConfig{Driver: config.DriverSQLite, DSN: "file:" + uuid.NewString() + "?mode=memory&cache=shared"})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Ping())
	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
}

func TestProductRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormProductRepository(newTestDB(t))

	food := newProduct(t, "dog-food-1", "450", 12)
	require.NoError(t, food.SetBarcode("4820000000011"))
	require.NoError(t, food.SetPromoPrice(dec("399.99")))
	toy := newProduct(t, "cat-toy", "120", 2)
	hidden := newProduct(t, "old-leash", "80", 0)
	hidden.Deactivate()

	for _, p := range []*catalog.Product{food, toy, hidden} {
		require.NoError(t, repo.Save(ctx, p))
	}

	t.Run("find by id round trips decimals", func(t *testing.T) {
		got, err := repo.FindByID(ctx, food.ID)
		require.NoError(t, err)
		assert.Equal(t, "DOG-FOOD-1", got.SKU)
		assert.True(t, got.Price.Equal(dec("450")))
		assert.True(t, got.PromoPrice.Valid)
		assert.True(t, got.EffectivePrice().Equal(dec("399.99")))
		assert.Equal(t, 12, got.Stock)
	})

	t.Run("not found maps to domain error", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("sku lookup is case-insensitive", func(t *testing.T) {
		got, err := repo.FindBySKU(ctx, "cat-toy")
		require.NoError(t, err)
		assert.Equal(t, toy.ID, got.ID)

		exists, err := repo.ExistsBySKU(ctx, "Cat-Toy")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("barcode", func(t *testing.T) {
		got, err := repo.FindByBarcode(ctx, "4820000000011")
		require.NoError(t, err)
		assert.Equal(t, food.ID, got.ID)

		exists, err := repo.ExistsByBarcode(ctx, "")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("search and filters", func(t *testing.T) {
		got, err := repo.FindAll(ctx, shared.Filter{Search: "FOOD"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, food.ID, got[0].ID)

		got, err = repo.FindAll(ctx, shared.Unpaged().With("has_promo", true))
		require.NoError(t, err)
		assert.Len(t, got, 1)

		count, err := repo.Count(ctx, shared.Unpaged().With("is_active", true))
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("low stock excludes inactive products", func(t *testing.T) {
		got, err := repo.FindLowStock(ctx, 5)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, toy.ID, got[0].ID)
	})

	t.Run("pagination", func(t *testing.T) {
		got, err := repo.FindAll(ctx, shared.Filter{Page: 2, PageSize: 2, OrderBy: "sku", OrderDir: "asc"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "OLD-LEASH", got[0].SKU)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, hidden.ID))
		assert.ErrorIs(t, repo.Delete(ctx, hidden.ID), shared.ErrNotFound)
	})
}

func TestCategoryRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormCategoryRepository(db)
	products := NewGormProductRepository(db)

	dogs, err := catalog.NewCategory("dogs", shared.LocalizedText{UK: "Собаки"}, nil)
	require.NoError(t, err)
	food, err := catalog.NewCategory("dog-food", shared.LocalizedText{UK: "Корм для собак"}, dogs)
	require.NoError(t, err)
	dry, err := catalog.NewCategory("dry-food", shared.LocalizedText{UK: "Сухий корм"}, food)
	require.NoError(t, err)
	for _, c := range []*catalog.Category{dogs, food, dry} {
		require.NoError(t, repo.Save(ctx, c))
	}

	children, err := repo.FindChildren(ctx, dogs.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, food.ID, children[0].ID)

	descendants, err := repo.FindDescendants(ctx, dogs)
	require.NoError(t, err)
	assert.Len(t, descendants, 2)

	has, err := repo.HasChildren(ctx, dry.ID)
	require.NoError(t, err)
	assert.False(t, has)

	got, err := repo.FindByCode(ctx, "DOG-FOOD")
	require.NoError(t, err)
	assert.Equal(t, food.Path, got.Path)

	roots, err := repo.FindAll(ctx, shared.Unpaged().With("parent_id", nil))
	require.NoError(t, err)
	require.Len(t, roots, 1)

	p := newProduct(t, "kibble", "300", 0)
	p.SetCategory(&dry.ID)
	require.NoError(t, products.Save(ctx, p))
	count, err := products.CountByCategory(ctx, dry.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// move dry food to the root and persist the subtree together
	oldPath, err := dry.MoveTo(nil, 0)
	require.NoError(t, err)
	assert.NotEqual(t, dry.Path, oldPath)
	require.NoError(t, repo.SaveAll(ctx, []*catalog.Category{dry}))

	roots, err = repo.FindAll(ctx, shared.Unpaged().With("parent_id", nil))
	require.NoError(t, err)
	assert.Len(t, roots, 2)
}

func TestPartnerRepositories(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	suppliers := NewGormSupplierRepository(db)
	customers := NewGormCustomerRepository(db)

	s, err := partner.NewSupplier("zoo-opt", "ZooOpt LLC")
	require.NoError(t, err)
	require.NoError(t, s.SetPaymentTerm(14))
	require.NoError(t, suppliers.Save(ctx, s))

	got, err := suppliers.FindByCode(ctx, "zoo-opt")
	require.NoError(t, err)
	assert.Equal(t, 14, got.PaymentTermDays)

	found, err := suppliers.FindAll(ctx, shared.Filter{Search: "zooopt"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	byIDs, err := suppliers.FindByIDs(ctx, []uuid.UUID{s.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, byIDs, 1)

	c, err := partner.NewCustomer("Olena Koval", "+38 (067) 123-45-67")
	require.NoError(t, err)
	require.NoError(t, customers.Save(ctx, c))

	byPhone, err := customers.FindByPhone(ctx, "+380671234567")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byPhone.ID)

	exists, err := customers.ExistsByPhone(ctx, "+38 067 123 45 67")
	require.NoError(t, err)
	assert.True(t, exists)

	byName, err := customers.FindAll(ctx, shared.Filter{Search: "olena"})
	require.NoError(t, err)
	assert.Len(t, byName, 1)

	now := time.Now()
	n, err := customers.CountCreatedBetween(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = customers.CountCreatedBetween(ctx, now.Add(-48*time.Hour), now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func newOrder(t *testing.T, number string, p *catalog.Product, qty int) *trade.Order {
	t.Helper()
	o, err := trade.NewOrder(number, trade.ChannelWebsite, "")
	require.NoError(t, err)
	_, err = o.AddItem(trade.ItemInput{
		ProductID:   p.ID,
		SKU:         p.SKU,
		ProductName: p.Name.UK,
		Quantity:    qty,
		UnitPrice:   p.EffectivePrice(),
		UnitCost:    p.PurchasePrice,
	})
	require.NoError(t, err)
	return o
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)

	food := newProduct(t, "food", "100", 0)
	toy := newProduct(t, "toy", "40", 0)

	number, err := repo.GenerateOrderNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ORD-"+time.Now().Format("2006")+"-00001", number)

	order := newOrder(t, number, food, 2)
	require.NoError(t, repo.Save(ctx, order))

	next, err := repo.GenerateOrderNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ORD-"+time.Now().Format("2006")+"-00002", next)

	got, err := repo.FindByOrderNumber(ctx, number)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.TotalAmount.Equal(dec("200")))

	t.Run("save reconciles items", func(t *testing.T) {
		require.NoError(t, got.ReplaceItems([]trade.ItemInput{
			{ProductID: toy.ID, SKU: toy.SKU, ProductName: toy.Name.UK, Quantity: 3, UnitPrice: dec("40")},
		}))
		require.NoError(t, repo.Save(ctx, got))

		reloaded, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, reloaded.Items, 1)
		assert.Equal(t, toy.ID, reloaded.Items[0].ProductID)
		assert.True(t, reloaded.TotalAmount.Equal(dec("120")))

		stale, err := repo.ExistsByProduct(ctx, food.ID)
		require.NoError(t, err)
		assert.False(t, stale)
	})

	t.Run("filters", func(t *testing.T) {
		count, err := repo.Count(ctx, shared.Unpaged().With("status", trade.OrderStatusNew))
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		count, err = repo.Count(ctx, shared.Unpaged().With("channel", trade.ChannelInstagram))
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		list, err := repo.FindAll(ctx, shared.Filter{Search: number})
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("find between is half open", func(t *testing.T) {
		created := order.CreatedAt
		list, err := repo.FindBetween(ctx, created.Add(-time.Minute), created.Add(time.Minute))
		require.NoError(t, err)
		assert.Len(t, list, 1)

		list, err = repo.FindBetween(ctx, created.Add(-time.Hour), created)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("delete removes items", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, order.ID))
		_, err := repo.FindByID(ctx, order.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		var items int64
		require.NoError(t, db.Model(&trade.OrderItem{}).Count(&items).Error)
		assert.Zero(t, items)
	})
}

func TestReceiptRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormReceiptRepository(db, time.UTC)
	repo.now = func() time.Time { return time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC) }

	supplierID := uuid.New()
	food := newProduct(t, "food", "100", 0)

	number, err := repo.GenerateReceiptNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "RCP-2026-00001", number)

	r, err := warehouse.NewReceipt(number, supplierID, "ZooOpt", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 7)
	require.NoError(t, err)
	require.NoError(t, r.ReplaceItems([]warehouse.ReceiptItemInput{
		{ProductID: food.ID, SKU: food.SKU, ProductName: food.Name.UK, Quantity: 10, UnitPrice: dec("5")},
	}))
	require.NoError(t, r.SetExtraCost(dec("10")))
	require.NoError(t, r.Post(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))
	require.NoError(t, repo.Save(ctx, r))

	draft, err := warehouse.NewReceipt("RCP-2026-00002", supplierID, "ZooOpt", time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC), 7)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, draft))

	got, err := repo.FindByID(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].LandedUnitCost.Equal(dec("6")))
	assert.True(t, got.IsPosted)

	unpaid, err := repo.FindUnpaid(ctx)
	require.NoError(t, err)
	assert.Len(t, unpaid, 1)

	posted, err := repo.FindPosted(ctx)
	require.NoError(t, err)
	assert.Len(t, posted, 1)

	overdue, err := repo.Count(ctx, shared.Unpaged().With("overdue", true))
	require.NoError(t, err)
	assert.Equal(t, int64(1), overdue)

	t.Run("overdue filters partition the receipts", func(t *testing.T) {
		pastDueDraft, err := warehouse.NewReceipt("RCP-2026-00090", supplierID, "ZooOpt", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 7)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, pastDueDraft))
		t.Cleanup(func() { _ = repo.Delete(ctx, pastDueDraft.ID) })

		yes, err := repo.FindAll(ctx, shared.Unpaged().With("overdue", true))
		require.NoError(t, err)
		no, err := repo.FindAll(ctx, shared.Unpaged().With("overdue", false))
		require.NoError(t, err)
		all, err := repo.Count(ctx, shared.Unpaged())
		require.NoError(t, err)

		assert.Equal(t, all, int64(len(yes)+len(no)))
		ids := make([]uuid.UUID, 0, len(no))
		for _, r := range no {
			ids = append(ids, r.ID)
		}
		assert.Contains(t, ids, pastDueDraft.ID)
	})

	bySupplier, err := repo.FindBySupplier(ctx, supplierID)
	require.NoError(t, err)
	assert.Len(t, bySupplier, 2)

	exists, err := repo.ExistsByProduct(ctx, food.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsBySupplier(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)

	next, err := repo.GenerateReceiptNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "RCP-2026-00003", next)

	require.NoError(t, repo.Delete(ctx, draft.ID))
	assert.ErrorIs(t, repo.Delete(ctx, draft.ID), shared.ErrNotFound)
}

func TestExpenseRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormExpenseRepository(newTestDB(t))

	day := func(d int) time.Time { return time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC) }
	for _, e := range []struct {
		cat    finance.ExpenseCategory
		amount string
		date   time.Time
	}{
		{finance.ExpenseCategoryRent, "15000", day(1)},
		{finance.ExpenseCategoryMarketing, "2500.50", day(10)},
		{finance.ExpenseCategoryPackaging, "320.25", day(31)},
	} {
		exp, err := finance.NewExpense(e.cat, dec(e.amount), e.date, "")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, exp))
	}

	sum, err := repo.SumBetween(ctx, day(1), day(31))
	require.NoError(t, err)
	assert.True(t, sum.Equal(dec("17500.50")), sum.String())

	list, err := repo.FindAll(ctx, shared.Unpaged().With("category", finance.ExpenseCategoryRent))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestReceiptRepository_OverdueUsesShopZone(t *testing.T) {
	ctx := context.Background()
	kyiv, err := time.LoadLocation("Europe/Kyiv")
	require.NoError(t, err)

	repo := NewGormReceiptRepository(newTestDB(t), kyiv)
	repo.now = func() time.Time { return time.Date(2025, 10, 15, 10, 0, 0, 0, time.UTC) }

	r, err := warehouse.NewReceipt("RCP-2025-00001", uuid.New(), "ZooOpt", time.Date(2025, 10, 15, 0, 0, 0, 0, kyiv), 0)
	require.NoError(t, err)
	require.NoError(t, r.ReplaceItems([]warehouse.ReceiptItemInput{
		{ProductID: uuid.New(), SKU: "FOOD", Quantity: 1, UnitPrice: dec("10")},
	}))
	require.NoError(t, r.Post(time.Date(2025, 10, 15, 9, 0, 0, 0, kyiv)))
	require.NoError(t, repo.Save(ctx, r))

	overdue, err := repo.Count(ctx, shared.Unpaged().With("overdue", true))
	require.NoError(t, err)
	assert.Zero(t, overdue, "due today in Kyiv")

	onTime, err := repo.Count(ctx, shared.Unpaged().With("overdue", false))
	require.NoError(t, err)
	assert.Equal(t, int64(1), onTime)

	repo.now = func() time.Time { return time.Date(2025, 10, 15, 22, 0, 0, 0, time.UTC) } // 01:00 next day in Kyiv
	overdue, err = repo.Count(ctx, shared.Unpaged().With("overdue", true))
	require.NoError(t, err)
	assert.Equal(t, int64(1), overdue)
}

func TestProductRepository_StaleCopyIsRejected(t *testing.T) {
	ctx := context.Background()
	repo := NewGormProductRepository(newTestDB(t))

	p := newProduct(t, "dog-food", "450", 10)
	require.NoError(t, repo.Save(ctx, p))

	copyA, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	copyB, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, copyB.AdjustStock(-4, catalog.StockReasonOrder))
	require.NoError(t, repo.Save(ctx, copyB))

	require.NoError(t, copyA.SetPrices(dec("500"), dec("300")))
	err = repo.Save(ctx, copyA)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Stock)
	assert.True(t, got.Price.Equal(dec("450")))

	// a fresh read can be saved, and saving twice in a row is fine
	require.NoError(t, got.SetPrices(dec("500"), dec("300")))
	require.NoError(t, repo.Save(ctx, got))
	require.NoError(t, got.AdjustStock(1, catalog.StockReasonManual))
	require.NoError(t, repo.Save(ctx, got))
}

func TestReceiptRepository_DoublePostIsRejected(t *testing.T) {
	ctx := context.Background()
	repo := NewGormReceiptRepository(newTestDB(t), time.UTC)

	r, err := warehouse.NewReceipt("RCP-2026-00001", uuid.New(), "ZooOpt", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 7)
	require.NoError(t, err)
	require.NoError(t, r.ReplaceItems([]warehouse.ReceiptItemInput{
		{ProductID: uuid.New(), SKU: "FOOD", Quantity: 10, UnitPrice: dec("5")},
	}))
	require.NoError(t, repo.Save(ctx, r))

	first, err := repo.FindByID(ctx, r.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, r.ID)
	require.NoError(t, err)

	require.NoError(t, first.Post(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))
	require.NoError(t, repo.Save(ctx, first))

	require.NoError(t, second.Post(time.Date(2026, 3, 1, 10, 0, 1, 0, time.UTC)))
	assert.ErrorIs(t, repo.Save(ctx, second), shared.ErrConcurrencyConflict)

	got, err := repo.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPosted)
	require.NotNil(t, got.PostedAt)
	assert.True(t, got.PostedAt.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))
}

func TestOrderRepository_StaleCopyIsRejected(t *testing.T) {
	ctx := context.Background()
	repo := NewGormOrderRepository(newTestDB(t))

	o := newOrder(t, "ORD-2026-00001", newProduct(t, "food", "100", 0), 2)
	require.NoError(t, repo.Save(ctx, o))

	stale, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	fresh, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)

	fresh.SetNote("call before delivery")
	require.NoError(t, repo.Save(ctx, fresh))

	stale.SetNote("leave at the door")
	assert.ErrorIs(t, repo.Save(ctx, stale), shared.ErrConcurrencyConflict)

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "call before delivery", got.Note)
	require.Len(t, got.Items, 1, "items are untouched by the rejected save")
}
