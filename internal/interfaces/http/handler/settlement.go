package handler

import (
	warehouseapp "github.com/petstore/backend/internal/application/warehouse"
	"github.com/gin-gonic/gin"
)

// SettlementHandler exposes supplier settlements
type SettlementHandler struct {
	BaseHandler
	settlementService *warehouseapp.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlementService *warehouseapp.SettlementService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
	}
}

// List handles GET /warehouse/settlements
func (h *SettlementHandler) List(c *gin.Context) {
	settlements, err := h.settlementService.List(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, settlements)
}

// Get handles GET /warehouse/settlements/:supplier_id
func (h *SettlementHandler) Get(c *gin.Context) {
	supplierID, ok := h.ParseID(c, "supplier_id", "supplier")
	if !ok {
		return
	}

	settlement, err := h.settlementService.Get(c.Request.Context(), supplierID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, settlement)
}

// Overdue handles GET /warehouse/settlements/overdue
func (h *SettlementHandler) Overdue(c *gin.Context) {
	overdue, err := h.settlementService.Overdue(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, overdue)
}
