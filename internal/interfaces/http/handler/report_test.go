package handler_test

import (
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseAPI_Summary(t *testing.T) {
	api := newTestAPI(t)

	today := time.Now().UTC().Format("2006-01-02")
	for _, e := range []map[string]any{
		{"category": "RENT", "amount": "12000.00", "date": today, "description": "Оренда складу"},
		{"category": "MARKETING", "amount": "1500.50", "date": today},
		{"category": "MARKETING", "amount": "499.50"},
	} {
		api.call(http.MethodPost, "/api/v1/finance/expenses", e, http.StatusCreated, nil)
	}

	env := api.call(http.MethodPost, "/api/v1/finance/expenses", map[string]any{
		"category": "LUNCH",
		"amount":   "10",
	}, http.StatusBadRequest, nil)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	var summary struct {
		Total      decimal.Decimal `json:"total"`
		ByCategory []struct {
			Category string          `json:"category"`
			Amount   decimal.Decimal `json:"amount"`
		} `json:"by_category"`
	}
	api.call(http.MethodGet, "/api/v1/finance/expenses/summary", nil, http.StatusOK, &summary)
	assert.True(t, decimal.NewFromInt(14000).Equal(summary.Total), summary.Total.String())

	byCategory := map[string]decimal.Decimal{}
	for _, c := range summary.ByCategory {
		byCategory[c.Category] = c.Amount
	}
	assert.True(t, decimal.NewFromInt(2000).Equal(byCategory["MARKETING"]))
	assert.True(t, decimal.NewFromInt(12000).Equal(byCategory["RENT"]))
}

func TestReportAPI_Period(t *testing.T) {
	api := newTestAPI(t)

	var today struct {
		Key         string      `json:"key"`
		Granularity string      `json:"granularity"`
		Buckets     []time.Time `json:"buckets"`
	}
	api.call(http.MethodGet, "/api/v1/reports/period?period=today", nil, http.StatusOK, &today)
	assert.Equal(t, "today", today.Key)
	assert.Equal(t, "hour", today.Granularity)
	assert.Len(t, today.Buckets, 24)

	var custom struct {
		Granularity string      `json:"granularity"`
		Buckets     []time.Time `json:"buckets"`
	}
	api.call(http.MethodGet, "/api/v1/reports/period?period=custom&from=2024-03-01&to=2024-03-10", nil, http.StatusOK, &custom)
	assert.Equal(t, "day", custom.Granularity)
	assert.Len(t, custom.Buckets, 10)

	env := api.call(http.MethodGet, "/api/v1/reports/period?period=fortnight", nil, http.StatusBadRequest, nil)
	assert.Equal(t, "INVALID_PERIOD", env.Error.Code)

	env = api.call(http.MethodGet, "/api/v1/reports/period?period=custom", nil, http.StatusBadRequest, nil)
	assert.Equal(t, "INVALID_PERIOD", env.Error.Code)

	env = api.call(http.MethodGet, "/api/v1/reports/period?period=custom&from=1900-01-01&to=2100-12-31", nil, http.StatusBadRequest, nil)
	assert.Equal(t, "INVALID_PERIOD", env.Error.Code)

	env = api.call(http.MethodGet, "/api/v1/reports/dashboard?period=custom&from=1900-01-01&to=2100-12-31", nil, http.StatusBadRequest, nil)
	assert.Equal(t, "INVALID_PERIOD", env.Error.Code)
}

func TestReportAPI_Dashboard(t *testing.T) {
	api := newTestAPI(t)
	p := api.createProduct("DF-DASH-1", "200.00", 10)
	api.call(http.MethodPost, "/api/v1/trade/orders", orderBody(p.ID, 2), http.StatusCreated, nil)

	var dashboard struct {
		Revenue struct {
			Current decimal.Decimal `json:"current"`
		} `json:"revenue"`
		Orders struct {
			Current decimal.Decimal `json:"current"`
		} `json:"orders"`
	}
	api.call(http.MethodGet, "/api/v1/reports/dashboard?period=today", nil, http.StatusOK, &dashboard)
	assert.True(t, decimal.NewFromInt(400).Equal(dashboard.Revenue.Current), dashboard.Revenue.Current.String())
	assert.True(t, decimal.NewFromInt(1).Equal(dashboard.Orders.Current))
}

func TestExportAPI_ProductsCSV(t *testing.T) {
	api := newTestAPI(t)
	api.createProduct("CL-EXPORT-1", "75.00", 3)

	w := api.do(http.MethodGet, "/api/v1/export/products.csv", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "products-")

	rows, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	var found bool
	for _, cell := range rows[1] {
		if cell == "CL-EXPORT-1" {
			found = true
		}
	}
	assert.True(t, found, "data row carries the SKU: %v", rows[1])
}

func TestExportAPI_OrdersCSV_BadDate(t *testing.T) {
	api := newTestAPI(t)

	env := api.call(http.MethodGet, "/api/v1/export/orders.csv?from=yesterday-ish", nil, http.StatusBadRequest, nil)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
}
