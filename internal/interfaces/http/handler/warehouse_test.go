package handler_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type receiptView struct {
	ID            uuid.UUID       `json:"id"`
	ReceiptNumber string          `json:"receipt_number"`
	SupplierValue decimal.Decimal `json:"supplier_value"`
	LandedValue   decimal.Decimal `json:"landed_value"`
	IsPosted      bool            `json:"is_posted"`
	IsPaid        bool            `json:"is_paid"`
}

type settlementView struct {
	SupplierID   uuid.UUID       `json:"supplier_id"`
	ReceiptCount int             `json:"receipt_count"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	Outstanding  decimal.Decimal `json:"outstanding"`
}

func (a *testAPI) createSupplier(code string) uuid.UUID {
	a.t.Helper()
	var s struct {
		ID uuid.UUID `json:"id"`
	}
	a.call(http.MethodPost, "/api/v1/partner/suppliers", map[string]any{
		"code":              code,
		"name":              "Постачальник " + code,
		"payment_term_days": 14,
	}, http.StatusCreated, &s)
	return s.ID
}

func TestReceiptAPI_AllocatePreview(t *testing.T) {
	api := newTestAPI(t)

	var preview struct {
		Lines []struct {
			AllocatedExtra decimal.Decimal `json:"allocated_extra"`
			LandedUnitCost decimal.Decimal `json:"landed_unit_cost"`
		} `json:"lines"`
		SupplierValue decimal.Decimal `json:"supplier_value"`
		LandedValue   decimal.Decimal `json:"landed_value"`
	}
	api.call(http.MethodPost, "/api/v1/warehouse/receipts/allocate", map[string]any{
		"extra_cost": "30",
		"lines": []map[string]any{
			{"quantity": 10, "unit_price": "5.00"},
			{"quantity": 5, "unit_price": "10.00"},
		},
	}, http.StatusOK, &preview)

	require.Len(t, preview.Lines, 2)
	assert.True(t, decimal.NewFromInt(15).Equal(preview.Lines[0].AllocatedExtra))
	assert.True(t, decimal.RequireFromString("6.5").Equal(preview.Lines[0].LandedUnitCost))
	assert.True(t, decimal.NewFromInt(13).Equal(preview.Lines[1].LandedUnitCost))
	assert.True(t, decimal.NewFromInt(100).Equal(preview.SupplierValue))
	assert.True(t, decimal.NewFromInt(130).Equal(preview.LandedValue))
}

func TestReceiptAPI_PostPayAndSettle(t *testing.T) {
	api := newTestAPI(t)
	supplierID := api.createSupplier("PETFOOD")
	p := api.createProduct("DF-RECV-1", "300.00", 0)

	var receipt receiptView
	api.call(http.MethodPost, "/api/v1/warehouse/receipts", map[string]any{
		"supplier_id": supplierID,
		"extra_cost":  "40.00",
		"items": []map[string]any{
			{"product_id": p.ID, "quantity": 8, "unit_price": "150.00"},
		},
	}, http.StatusCreated, &receipt)
	assert.False(t, receipt.IsPosted)
	assert.True(t, decimal.NewFromInt(1200).Equal(receipt.SupplierValue))
	assert.True(t, decimal.NewFromInt(1240).Equal(receipt.LandedValue))
	assert.Equal(t, 0, api.product(p.ID).Stock, "drafts do not move stock")

	base := "/api/v1/warehouse/receipts/" + receipt.ID.String()

	api.call(http.MethodPost, base+"/post", nil, http.StatusOK, &receipt)
	assert.True(t, receipt.IsPosted)
	assert.Equal(t, 8, api.product(p.ID).Stock)

	env := api.call(http.MethodPost, base+"/post", nil, http.StatusUnprocessableEntity, nil)
	assert.Equal(t, "ALREADY_POSTED", env.Error.Code)

	var settlements struct {
		Summary struct {
			TotalOutstanding  decimal.Decimal `json:"total_outstanding"`
			SuppliersWithDebt int             `json:"suppliers_with_debt"`
		} `json:"summary"`
		Settlements []settlementView `json:"settlements"`
	}
	api.call(http.MethodGet, "/api/v1/warehouse/settlements", nil, http.StatusOK, &settlements)
	require.Len(t, settlements.Settlements, 1)
	assert.Equal(t, supplierID, settlements.Settlements[0].SupplierID)
	assert.True(t, decimal.NewFromInt(1200).Equal(settlements.Summary.TotalOutstanding),
		"extra cost is not owed to the supplier: %s", settlements.Summary.TotalOutstanding)
	assert.Equal(t, 1, settlements.Summary.SuppliersWithDebt)

	api.call(http.MethodPost, base+"/pay", nil, http.StatusOK, &receipt)
	assert.True(t, receipt.IsPaid)

	var detail settlementView
	api.call(http.MethodGet, "/api/v1/warehouse/settlements/"+supplierID.String(), nil, http.StatusOK, &detail)
	assert.True(t, detail.Outstanding.IsZero())
	assert.True(t, decimal.NewFromInt(1200).Equal(detail.TotalPaid))

	var overdue []settlementView
	api.call(http.MethodGet, "/api/v1/warehouse/settlements/overdue", nil, http.StatusOK, &overdue)
	assert.Empty(t, overdue)

	env = api.call(http.MethodDelete, "/api/v1/partner/suppliers/"+supplierID.String(), nil, http.StatusConflict, nil)
	assert.Equal(t, "IN_USE", env.Error.Code)
}
