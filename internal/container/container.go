// Package container wires repositories, services, event handlers and HTTP
// handlers over one database connection.
package container

import (
	"time"

	catalogapp "github.com/petstore/backend/internal/application/catalog"
	"github.com/petstore/backend/internal/application/export"
	financeapp "github.com/petstore/backend/internal/application/finance"
	partnerapp "github.com/petstore/backend/internal/application/partner"
	reportapp "github.com/petstore/backend/internal/application/report"
	"github.com/petstore/backend/internal/application/seed"
	tradeapp "github.com/petstore/backend/internal/application/trade"
	warehouseapp "github.com/petstore/backend/internal/application/warehouse"
	"github.com/petstore/backend/internal/domain/report"
	"github.com/petstore/backend/internal/infrastructure/event"
	"github.com/petstore/backend/internal/infrastructure/persistence"
	"github.com/petstore/backend/internal/infrastructure/scheduler"
	"github.com/petstore/backend/internal/interfaces/http/handler"
	"github.com/petstore/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options carries the settings services need at construction
type Options struct {
	AppName           string
	Location          *time.Location
	WeekStart         time.Weekday
	LowStockThreshold int
	TopProductsLimit  int
}

// Services holds the application services
type Services struct {
	Categories  *catalogapp.CategoryService
	Products    *catalogapp.ProductService
	Suppliers   *partnerapp.SupplierService
	Customers   *partnerapp.CustomerService
	Orders      *tradeapp.OrderService
	Receipts    *warehouseapp.ReceiptService
	Settlements *warehouseapp.SettlementService
	Expenses    *financeapp.ExpenseService
	Dashboard   *reportapp.DashboardService
	Export      *export.Service
}

// Container is the assembled application
type Container struct {
	Services Services
	Handlers router.Handlers
	Bus      *event.InMemoryEventBus
	opts     Options
	logger   *zap.Logger
}

// New builds every service over db. pinger backs the health endpoint and may be nil.
func New(db *gorm.DB, pinger handler.Pinger, opts Options, log *zap.Logger) *Container {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	categoryRepo := persistence.NewGormCategoryRepository(db)
	productRepo := persistence.NewGormProductRepository(db)
	supplierRepo := persistence.NewGormSupplierRepository(db)
	customerRepo := persistence.NewGormCustomerRepository(db)
	orderRepo := persistence.NewGormOrderRepository(db)
	receiptRepo := persistence.NewGormReceiptRepository(db, opts.Location)
	expenseRepo := persistence.NewGormExpenseRepository(db)

	bus := event.NewInMemoryEventBus(log)

	svc := Services{
		Categories:  catalogapp.NewCategoryService(categoryRepo, productRepo),
		Products:    catalogapp.NewProductService(productRepo, categoryRepo, opts.LowStockThreshold, orderRepo, receiptRepo),
		Suppliers:   partnerapp.NewSupplierService(supplierRepo, receiptRepo),
		Customers:   partnerapp.NewCustomerService(customerRepo, orderRepo),
		Receipts:    warehouseapp.NewReceiptService(receiptRepo, supplierRepo, productRepo, opts.Location),
		Settlements: warehouseapp.NewSettlementService(receiptRepo, supplierRepo, opts.Location),
		Expenses:    financeapp.NewExpenseService(expenseRepo, opts.Location),
		Export:      export.NewService(productRepo, orderRepo, opts.LowStockThreshold, opts.Location),
	}
	svc.Orders = tradeapp.NewOrderService(orderRepo, productRepo, customerRepo, svc.Products)
	svc.Dashboard = reportapp.NewDashboardService(
		report.NewComparator(opts.WeekStart, opts.Location),
		orderRepo,
		svc.Expenses,
		customerRepo,
		productRepo,
		svc.Settlements,
		reportapp.Options{
			LowStockThreshold: opts.LowStockThreshold,
			TopProductsLimit:  opts.TopProductsLimit,
		},
	)

	svc.Categories.SetEventPublisher(bus)
	svc.Categories.SetLogger(log.Named("catalog"))
	svc.Products.SetEventPublisher(bus)
	svc.Products.SetLogger(log.Named("catalog"))
	svc.Suppliers.SetEventPublisher(bus)
	svc.Suppliers.SetLogger(log.Named("partner"))
	svc.Customers.SetEventPublisher(bus)
	svc.Customers.SetLogger(log.Named("partner"))
	svc.Orders.SetEventPublisher(bus)
	svc.Orders.SetLogger(log.Named("trade"))
	svc.Receipts.SetEventPublisher(bus)
	svc.Receipts.SetLogger(log.Named("warehouse"))
	svc.Expenses.SetEventPublisher(bus)
	svc.Expenses.SetLogger(log.Named("finance"))
	svc.Dashboard.SetLogger(log.Named("report"))

	bus.Subscribe(catalogapp.NewOrderStockHandler(svc.Products, log.Named("stock")))
	bus.Subscribe(catalogapp.NewReceiptPostedHandler(svc.Products, log.Named("stock")))

	loc := opts.Location
	handlers := router.Handlers{
		Products:    handler.NewProductHandler(svc.Products),
		Categories:  handler.NewCategoryHandler(svc.Categories),
		Suppliers:   handler.NewSupplierHandler(svc.Suppliers),
		Customers:   handler.NewCustomerHandler(svc.Customers),
		Orders:      handler.NewOrderHandler(svc.Orders, loc),
		Receipts:    handler.NewReceiptHandler(svc.Receipts, loc),
		Settlements: handler.NewSettlementHandler(svc.Settlements),
		Expenses:    handler.NewExpenseHandler(svc.Expenses, loc),
		Reports:     handler.NewReportHandler(svc.Dashboard, loc),
		Exports:     handler.NewExportHandler(svc.Export, loc),
		System:      handler.NewSystemHandler(opts.AppName, pinger),
	}

	return &Container{
		Services: svc,
		Handlers: handlers,
		Bus:      bus,
		opts:     opts,
		logger:   log,
	}
}

// Seeder returns a seeder that writes through the services
func (c *Container) Seeder() *seed.Seeder {
	return seed.NewSeeder(seed.Services{
		Categories: c.Services.Categories,
		Products:   c.Services.Products,
		Suppliers:  c.Services.Suppliers,
		Customers:  c.Services.Customers,
		Receipts:   c.Services.Receipts,
		Orders:     c.Services.Orders,
		Expenses:   c.Services.Expenses,
	}, c.opts.Location, c.logger.Named("seed"))
}

// RegisterJobs adds the daily overdue-receipt and low-stock jobs on spec
func (c *Container) RegisterJobs(s *scheduler.Scheduler, spec string) error {
	if err := s.Register(spec, scheduler.NewOverdueReceiptsJob(c.Services.Settlements, c.logger.Named("jobs"))); err != nil {
		return err
	}
	return s.Register(spec, scheduler.NewLowStockJob(c.Services.Products, c.logger.Named("jobs")))
}
