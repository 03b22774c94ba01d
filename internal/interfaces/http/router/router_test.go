package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/petstore/backend/internal/interfaces/http/dto"
	"github.com/petstore/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRouter_SetupVersionsGroups(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	catalog := NewDomainGroup("catalog", "/catalog")
	catalog.GET("/products", func(c *gin.Context) { c.String(http.StatusOK, "products") })
	partner := NewDomainGroup("partner", "/partner")
	partner.GET("/customers", func(c *gin.Context) { c.String(http.StatusOK, "customers") })

	r.Register(catalog).Register(partner).Setup()

	w := serve(engine, http.MethodGet, "/api/v2/catalog/products")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "products", w.Body.String())

	w = serve(engine, http.MethodGet, "/api/v2/partner/customers")
	assert.Equal(t, "customers", w.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/catalog/products").Code)
}

func TestDomainGroup_MethodsSubgroupsAndMiddleware(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("trade", "/trade").Use(func(c *gin.Context) {
		c.Header("X-Group", "trade")
		c.Next()
	})
	assert.Equal(t, "trade", g.Name())
	assert.Equal(t, "/trade", g.Prefix())

	ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
	orders := g.Group("orders", "/orders")
	orders.GET("", ok).POST("", ok).PUT("/:id", ok).PATCH("/:id", ok).DELETE("/:id", ok)

	g.RegisterRoutes(engine.Group("/api/v1"))

	for _, tt := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/trade/orders"},
		{http.MethodPost, "/api/v1/trade/orders"},
		{http.MethodPut, "/api/v1/trade/orders/1"},
		{http.MethodPatch, "/api/v1/trade/orders/1"},
		{http.MethodDelete, "/api/v1/trade/orders/1"},
	} {
		w := serve(engine, tt.method, tt.path)
		assert.Equal(t, http.StatusOK, w.Code, "%s %s", tt.method, tt.path)
		assert.Equal(t, tt.method, w.Body.String())
		assert.Equal(t, "trade", w.Header().Get("X-Group"))
	}

	routes := g.Routes()
	require.Len(t, routes, 5)
	assert.Equal(t, Route{Method: http.MethodGet, Path: "/trade/orders"}, routes[0])
	assert.Equal(t, "/trade/orders/:id", routes[4].Path)
}

func TestMount_RegistersAPI(t *testing.T) {
	engine := gin.New()
	Mount(engine, Handlers{})

	registered := map[string]bool{}
	for _, route := range engine.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	expected := []string{
		"GET /health",
		"GET /api/v1/catalog/products",
		"GET /api/v1/catalog/products/low-stock",
		"GET /api/v1/catalog/products/sku/:sku",
		"PATCH /api/v1/catalog/products/:id/stock",
		"PATCH /api/v1/catalog/products/:id/promo",
		"GET /api/v1/catalog/categories/tree",
		"PATCH /api/v1/catalog/categories/:id/move",
		"POST /api/v1/partner/suppliers",
		"DELETE /api/v1/partner/customers/:id",
		"PUT /api/v1/trade/orders/:id/items",
		"POST /api/v1/trade/orders/:id/confirm",
		"POST /api/v1/trade/orders/:id/ship",
		"POST /api/v1/trade/orders/:id/complete",
		"POST /api/v1/trade/orders/:id/cancel",
		"POST /api/v1/trade/orders/:id/return",
		"POST /api/v1/trade/orders/:id/pay",
		"POST /api/v1/trade/orders/:id/refund",
		"POST /api/v1/warehouse/receipts/allocate",
		"POST /api/v1/warehouse/receipts/:id/post",
		"POST /api/v1/warehouse/receipts/:id/pay",
		"POST /api/v1/warehouse/receipts/:id/unpay",
		"GET /api/v1/warehouse/settlements",
		"GET /api/v1/warehouse/settlements/:supplier_id",
		"GET /api/v1/finance/expenses/summary",
		"GET /api/v1/reports/dashboard",
		"GET /api/v1/reports/period",
		"GET /api/v1/export/products.csv",
		"GET /api/v1/export/orders.csv",
	}
	for _, route := range expected {
		assert.True(t, registered[route], "missing route %s", route)
	}
}

func TestNewEngine_Middleware(t *testing.T) {
	engine := NewEngine(EngineConfig{
		CORS:         middleware.CORSConfig{AllowOrigins: []string{"http://localhost:5173"}, AllowMethods: []string{"GET"}},
		Security:     middleware.DefaultSecurityConfig(),
		MaxBodyBytes: 16,
	}, zap.NewNop())
	engine.GET("/boom", func(c *gin.Context) { panic("boom") })
	engine.POST("/echo", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("recovery answers with envelope and request id", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/boom")
		require.Equal(t, http.StatusInternalServerError, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
		assert.Equal(t, w.Header().Get(middleware.RequestIDHeader), resp.Error.RequestID)
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	})

	t.Run("body limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 64)))
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("cors", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/echo", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	})
}
