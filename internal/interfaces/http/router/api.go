package router

import (
	"github.com/gin-gonic/gin"
	"github.com/petstore/backend/internal/infrastructure/logger"
	"github.com/petstore/backend/internal/interfaces/http/handler"
	"github.com/petstore/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers bundles every HTTP handler the API mounts
type Handlers struct {
	Products    *handler.ProductHandler
	Categories  *handler.CategoryHandler
	Suppliers   *handler.SupplierHandler
	Customers   *handler.CustomerHandler
	Orders      *handler.OrderHandler
	Receipts    *handler.ReceiptHandler
	Settlements *handler.SettlementHandler
	Expenses    *handler.ExpenseHandler
	Reports     *handler.ReportHandler
	Exports     *handler.ExportHandler
	System      *handler.SystemHandler
}

// EngineConfig carries the middleware settings
type EngineConfig struct {
	CORS         middleware.CORSConfig
	Security     middleware.SecurityConfig
	MaxBodyBytes int64
}

// NewEngine builds a gin engine with the standard middleware chain.
// RequestID runs first so the logger and recovery can report it.
func NewEngine(cfg EngineConfig, log *zap.Logger) *gin.Engine {
	middleware.SetupValidator()

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = middleware.DefaultBodyLimit
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORSWithConfig(cfg.CORS),
		middleware.SecureWithConfig(cfg.Security),
		middleware.BodyLimit(cfg.MaxBodyBytes),
	)
	return engine
}

// Mount registers /health and every /api/v1 route on engine
func Mount(engine *gin.Engine, h Handlers) {
	engine.GET("/health", h.System.Health)

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(catalogRoutes(h)).
		Register(partnerRoutes(h)).
		Register(tradeRoutes(h)).
		Register(warehouseRoutes(h)).
		Register(financeRoutes(h)).
		Register(reportRoutes(h)).
		Register(exportRoutes(h))
	r.Setup()
}

func catalogRoutes(h Handlers) *DomainGroup {
	catalog := NewDomainGroup("catalog", "/catalog")

	products := catalog.Group("products", "/products")
	products.GET("", h.Products.List)
	products.POST("", h.Products.Create)
	products.GET("/low-stock", h.Products.LowStock)
	products.GET("/sku/:sku", h.Products.GetBySKU)
	products.GET("/:id", h.Products.GetByID)
	products.PUT("/:id", h.Products.Update)
	products.PATCH("/:id/stock", h.Products.AdjustStock)
	products.PATCH("/:id/promo", h.Products.SetPromo)
	products.DELETE("/:id", h.Products.Delete)

	categories := catalog.Group("categories", "/categories")
	categories.GET("", h.Categories.List)
	categories.POST("", h.Categories.Create)
	categories.GET("/tree", h.Categories.Tree)
	categories.GET("/:id", h.Categories.GetByID)
	categories.PUT("/:id", h.Categories.Update)
	categories.PATCH("/:id/move", h.Categories.Move)
	categories.DELETE("/:id", h.Categories.Delete)

	return catalog
}

func partnerRoutes(h Handlers) *DomainGroup {
	partner := NewDomainGroup("partner", "/partner")

	suppliers := partner.Group("suppliers", "/suppliers")
	suppliers.GET("", h.Suppliers.List)
	suppliers.POST("", h.Suppliers.Create)
	suppliers.GET("/:id", h.Suppliers.GetByID)
	suppliers.PUT("/:id", h.Suppliers.Update)
	suppliers.DELETE("/:id", h.Suppliers.Delete)

	customers := partner.Group("customers", "/customers")
	customers.GET("", h.Customers.List)
	customers.POST("", h.Customers.Create)
	customers.GET("/:id", h.Customers.GetByID)
	customers.PUT("/:id", h.Customers.Update)
	customers.DELETE("/:id", h.Customers.Delete)

	return partner
}

func tradeRoutes(h Handlers) *DomainGroup {
	trade := NewDomainGroup("trade", "/trade")

	orders := trade.Group("orders", "/orders")
	orders.GET("", h.Orders.List)
	orders.POST("", h.Orders.Create)
	orders.GET("/number/:number", h.Orders.GetByNumber)
	orders.GET("/:id", h.Orders.GetByID)
	orders.PUT("/:id", h.Orders.Update)
	orders.PUT("/:id/items", h.Orders.ReplaceItems)
	orders.DELETE("/:id", h.Orders.Delete)
	orders.POST("/:id/confirm", h.Orders.Confirm)
	orders.POST("/:id/ship", h.Orders.Ship)
	orders.POST("/:id/complete", h.Orders.Complete)
	orders.POST("/:id/cancel", h.Orders.Cancel)
	orders.POST("/:id/return", h.Orders.Return)
	orders.POST("/:id/pay", h.Orders.Pay)
	orders.POST("/:id/refund", h.Orders.Refund)

	return trade
}

func warehouseRoutes(h Handlers) *DomainGroup {
	warehouse := NewDomainGroup("warehouse", "/warehouse")

	receipts := warehouse.Group("receipts", "/receipts")
	receipts.GET("", h.Receipts.List)
	receipts.POST("", h.Receipts.Create)
	receipts.POST("/allocate", h.Receipts.Allocate)
	receipts.GET("/:id", h.Receipts.GetByID)
	receipts.PUT("/:id", h.Receipts.Update)
	receipts.DELETE("/:id", h.Receipts.Delete)
	receipts.POST("/:id/post", h.Receipts.Post)
	receipts.POST("/:id/pay", h.Receipts.Pay)
	receipts.POST("/:id/unpay", h.Receipts.Unpay)

	settlements := warehouse.Group("settlements", "/settlements")
	settlements.GET("", h.Settlements.List)
	settlements.GET("/overdue", h.Settlements.Overdue)
	settlements.GET("/:supplier_id", h.Settlements.Get)

	return warehouse
}

func financeRoutes(h Handlers) *DomainGroup {
	finance := NewDomainGroup("finance", "/finance")

	expenses := finance.Group("expenses", "/expenses")
	expenses.GET("", h.Expenses.List)
	expenses.POST("", h.Expenses.Create)
	expenses.GET("/summary", h.Expenses.Summary)
	expenses.GET("/:id", h.Expenses.GetByID)
	expenses.PUT("/:id", h.Expenses.Update)
	expenses.DELETE("/:id", h.Expenses.Delete)

	return finance
}

func reportRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("reports", "/reports").
		GET("/dashboard", h.Reports.Dashboard).
		GET("/period", h.Reports.Period)
}

func exportRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("export", "/export").
		GET("/products.csv", h.Exports.Products).
		GET("/orders.csv", h.Exports.Orders)
}
