package handler

import (
	"time"

	tradeapp "github.com/petstore/backend/internal/application/trade"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler handles order-related API endpoints
type OrderHandler struct {
	BaseHandler
	orderService *tradeapp.OrderService
	loc          *time.Location
}

// NewOrderHandler creates a new OrderHandler. Date filters are read in loc.
func NewOrderHandler(orderService *tradeapp.OrderService, loc *time.Location) *OrderHandler {
	if loc == nil {
		loc = time.Local
	}
	return &OrderHandler{
		orderService: orderService,
		loc:          loc,
	}
}

// Create handles POST /trade/orders. Stock is reserved on creation.
func (h *OrderHandler) Create(c *gin.Context) {
	var req tradeapp.CreateOrderRequest
	if !h.Bind(c, &req) {
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, order)
}

// GetByID handles GET /trade/orders/:id
func (h *OrderHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// GetByNumber handles GET /trade/orders/number/:number
func (h *OrderHandler) GetByNumber(c *gin.Context) {
	order, err := h.orderService.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// List handles GET /trade/orders.
// Filters: search, status, payment_status, channel, customer_id, from, to.
func (h *OrderHandler) List(c *gin.Context) {
	q := parseListQuery(c)
	customerID, ok := queryUUID(c, "customer_id")
	if !ok {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}
	from, to, err := dateRange(c, h.loc)
	if err != nil {
		h.BadRequest(c, "Invalid date: "+err.Error())
		return
	}

	orders, total, err := h.orderService.List(c.Request.Context(), tradeapp.OrderListFilter{
		Search:        q.Search,
		Status:        c.Query("status"),
		PaymentStatus: c.Query("payment_status"),
		Channel:       c.Query("channel"),
		CustomerID:    customerID,
		From:          from,
		To:            to,
		Page:          q.Page,
		PageSize:      q.PageSize,
		OrderBy:       q.OrderBy,
		OrderDir:      q.OrderDir,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	page, pageSize := normalizePage(q.Page, q.PageSize)
	h.SuccessWithMeta(c, orders, total, page, pageSize)
}

// Update handles PUT /trade/orders/:id
func (h *OrderHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "order")
	if !ok {
		return
	}
	var req tradeapp.UpdateOrderRequest
	if !h.Bind(c, &req) {
		return
	}

	order, err := h.orderService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// ReplaceItems handles PUT /trade/orders/:id/items
func (h *OrderHandler) ReplaceItems(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "order")
	if !ok {
		return
	}
	var req tradeapp.ReplaceItemsRequest
	if !h.Bind(c, &req) {
		return
	}

	order, err := h.orderService.ReplaceItems(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// Confirm handles POST /trade/orders/:id/confirm
func (h *OrderHandler) Confirm(c *gin.Context) {
	h.transition(c, func(id uuid.UUID) (*tradeapp.OrderResponse, error) {
		return h.orderService.Confirm(c.Request.Context(), id)
	})
}

// Ship handles POST /trade/orders/:id/ship
func (h *OrderHandler) Ship(c *gin.Context) {
	var req tradeapp.ShipOrderRequest
	if !h.BindOptional(c, &req) {
		return
	}
	h.transition(c, func(id uuid.UUID) (*tradeapp.OrderResponse, error) {
		return h.orderService.Ship(c.Request.Context(), id, req)
	})
}

// Complete handles POST /trade/orders/:id/complete
func (h *OrderHandler) Complete(c *gin.Context) {
	h.transition(c, func(id uuid.UUID) (*tradeapp.OrderResponse, error) {
		return h.orderService.Complete(c.Request.Context(), id)
	})
}

// Cancel handles POST /trade/orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	var req tradeapp.ReasonRequest
	if !h.BindOptional(c, &req) {
		return
	}
	h.transition(c, func(id uuid.UUID) (*tradeapp.OrderResponse, error) {
		return h.orderService.Cancel(c.Request.Context(), id, req)
	})
}

// Return handles POST /trade/orders/:id/return
func (h *OrderHandler) Return(c *gin.Context) {
	var req tradeapp.ReasonRequest
	if !h.BindOptional(c, &req) {
		return
	}
	h.transition(c, func(id uuid.UUID) (*tradeapp.OrderResponse, error) {
		return h.orderService.Return(c.Request.Context(), id, req)
	})
}

// Pay handles POST /trade/orders/:id/pay
func (h *OrderHandler) Pay(c *gin.Context) {
	var req tradeapp.PayOrderRequest
	if !h.BindOptional(c, &req) {
		return
	}
	h.transition(c, func(id uuid.UUID) (*tradeapp.OrderResponse, error) {
		return h.orderService.Pay(c.Request.Context(), id, req)
	})
}

// Refund handles POST /trade/orders/:id/refund
func (h *OrderHandler) Refund(c *gin.Context) {
	h.transition(c, func(id uuid.UUID) (*tradeapp.OrderResponse, error) {
		return h.orderService.Refund(c.Request.Context(), id)
	})
}

// Delete handles DELETE /trade/orders/:id
func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id", "order")
	if !ok {
		return
	}

	if err := h.orderService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *OrderHandler) transition(c *gin.Context, fn func(uuid.UUID) (*tradeapp.OrderResponse, error)) {
	id, ok := h.ParseID(c, "id", "order")
	if !ok {
		return
	}

	order, err := fn(id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}
