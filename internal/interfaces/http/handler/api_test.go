package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/petstore/backend/internal/container"
	"github.com/petstore/backend/internal/infrastructure/config"
	"github.com/petstore/backend/internal/infrastructure/persistence"
	"github.com/petstore/backend/internal/interfaces/http/middleware"
	"github.com/petstore/backend/internal/interfaces/http/router"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testAPI is the full HTTP stack over a private in-memory database
type testAPI struct {
	t      *testing.T
	engine *gin.Engine
	app    *container.Container
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	app := container.New(db.DB, db, container.Options{
		AppName:           "petstore-test",
		Location:          time.UTC,
		WeekStart:         time.Monday,
		LowStockThreshold: 5,
		TopProductsLimit:  5,
	}, zap.NewNop())

	engine := router.NewEngine(router.EngineConfig{
		CORS:     middleware.DefaultCORSConfig(),
		Security: middleware.DefaultSecurityConfig(),
	}, zap.NewNop())
	router.Mount(engine, app.Handlers)

	return &testAPI{t: t, engine: engine, app: app}
}

func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

// call performs the request, checks the status and decodes data into out
func (a *testAPI) call(method, path string, body any, wantStatus int, out any) envelope {
	a.t.Helper()
	w := a.do(method, path, body)
	require.Equal(a.t, wantStatus, w.Code, w.Body.String())

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	if out != nil {
		require.NoError(a.t, json.Unmarshal(env.Data, out))
	}
	return env
}

type productView struct {
	ID       uuid.UUID `json:"id"`
	SKU      string    `json:"sku"`
	Stock    int       `json:"stock"`
	LowStock bool      `json:"low_stock"`
	IsActive bool      `json:"is_active"`
}

func (a *testAPI) createProduct(sku string, price string, stock int) productView {
	a.t.Helper()
	var p productView
	a.call(http.MethodPost, "/api/v1/catalog/products", map[string]any{
		"sku":            sku,
		"name":           map[string]string{"uk": "Корм " + sku, "en": "Food " + sku},
		"price":          price,
		"purchase_price": "50.00",
		"stock":          stock,
	}, http.StatusCreated, &p)
	return p
}

func (a *testAPI) product(id uuid.UUID) productView {
	a.t.Helper()
	var p productView
	a.call(http.MethodGet, "/api/v1/catalog/products/"+id.String(), nil, http.StatusOK, &p)
	return p
}
