package trade

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/catalog"
	"github.com/petstore/backend/internal/domain/partner"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/petstore/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// StockKeeper takes units off the shelf for orders and puts them back
type StockKeeper interface {
	ReserveStock(ctx context.Context, demand map[uuid.UUID]int) error
	ReleaseStock(ctx context.Context, demand map[uuid.UUID]int, reason string) error
}

// OrderService handles the order lifecycle
type OrderService struct {
	orderRepo      trade.OrderRepository
	productRepo    catalog.ProductRepository
	customerRepo   partner.CustomerRepository
	stock          StockKeeper
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo trade.OrderRepository,
	productRepo catalog.ProductRepository,
	customerRepo partner.CustomerRepository,
	stock StockKeeper,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		stock:        stock,
		logger:       zap.NewNop(),
		now:          time.Now,
	}
}

// SetEventPublisher sets the event publisher for the service
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLogger sets the logger used for non-fatal failures
func (s *OrderService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Create creates a NEW order and reserves its stock.
// The order is rejected with INSUFFICIENT_STOCK if any line is short.
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	number, err := s.orderRepo.GenerateOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	order, err := trade.NewOrder(number, trade.Channel(req.Channel), trade.PaymentMethod(req.PaymentMethod))
	if err != nil {
		return nil, err
	}
	if req.OrderedAt != nil && !req.OrderedAt.IsZero() {
		order.CreatedAt = *req.OrderedAt
		order.UpdatedAt = *req.OrderedAt
	}

	if err := s.applyCustomer(ctx, order, req.CustomerID, req.CustomerName, req.CustomerPhone); err != nil {
		return nil, err
	}
	if req.Delivery != nil {
		if err := order.SetDelivery(req.Delivery.toDomain()); err != nil {
			return nil, err
		}
	}
	if req.Note != "" {
		order.SetNote(req.Note)
	}

	inputs, err := s.buildItems(ctx, req.Items, nil)
	if err != nil {
		return nil, err
	}
	if err := order.ReplaceItems(inputs); err != nil {
		return nil, err
	}

	demand := order.StockDemand()
	if err := s.stock.ReserveStock(ctx, demand); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		s.release(ctx, demand, order.OrderNumber)
		return nil, err
	}
	s.publish(ctx, order)

	response := ToOrderResponse(order)
	return &response, nil
}

// GetByID retrieves an order with its items
func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// GetByNumber retrieves an order by its number
func (s *OrderService) GetByNumber(ctx context.Context, number string) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// List retrieves a page of orders and the total count
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   strings.TrimSpace(filter.Search),
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = strings.ToUpper(filter.Status)
	}
	if filter.PaymentStatus != "" {
		domainFilter.Filters["payment_status"] = strings.ToUpper(filter.PaymentStatus)
	}
	if filter.Channel != "" {
		domainFilter.Filters["channel"] = strings.ToUpper(filter.Channel)
	}
	if filter.CustomerID != nil {
		domainFilter.Filters["customer_id"] = *filter.CustomerID
	}
	if filter.From != nil {
		domainFilter.Filters["from"] = *filter.From
	}
	if filter.To != nil {
		domainFilter.Filters["to"] = *filter.To
	}

	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	items := make([]OrderListItemResponse, len(orders))
	for i := range orders {
		items[i] = ToOrderListItemResponse(&orders[i])
	}
	return items, total, nil
}

// Update changes customer, delivery, payment method and note
func (s *OrderService) Update(ctx context.Context, id uuid.UUID, req UpdateOrderRequest) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CustomerID != nil || req.CustomerName != nil || req.CustomerPhone != nil {
		customerID := order.CustomerID
		name, phone := order.CustomerName, order.CustomerPhone
		if req.CustomerID != nil {
			customerID = req.CustomerID
		}
		if req.CustomerName != nil {
			name = *req.CustomerName
		}
		if req.CustomerPhone != nil {
			phone = *req.CustomerPhone
			if req.CustomerID == nil {
				customerID = nil
			}
		}
		if err := s.applyCustomer(ctx, order, customerID, name, phone); err != nil {
			return nil, err
		}
	}
	if req.PaymentMethod != nil {
		if err := order.SetPaymentMethod(trade.PaymentMethod(*req.PaymentMethod)); err != nil {
			return nil, err
		}
	}
	if req.Delivery != nil {
		if err := order.SetDelivery(req.Delivery.toDomain()); err != nil {
			return nil, err
		}
	}
	if req.Note != nil {
		order.SetNote(*req.Note)
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}
	s.publish(ctx, order)

	response := ToOrderResponse(order)
	return &response, nil
}

// ReplaceItems swaps the lines of a NEW order and re-balances stock.
// Lines for products already on the order keep their price snapshot
// unless a new unit price is given.
func (s *OrderService) ReplaceItems(ctx context.Context, id uuid.UUID, req ReplaceItemsRequest) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.CanModify() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot update items of an order that is not NEW")
	}

	inputs, err := s.buildItems(ctx, req.Items, order)
	if err != nil {
		return nil, err
	}

	before := order.StockDemand()
	if err := order.ReplaceItems(inputs); err != nil {
		return nil, err
	}
	after := order.StockDemand()

	need, give := splitDelta(trade.StockDelta(before, after))
	if err := s.stock.ReserveStock(ctx, need); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		s.release(ctx, need, order.OrderNumber)
		return nil, err
	}
	if len(give) > 0 {
		if err := s.stock.ReleaseStock(ctx, give, catalog.StockReasonOrder); err != nil {
			s.logger.Error("Failed to release stock after item change",
				zap.String("order_number", order.OrderNumber),
				zap.Error(err))
		}
	}
	s.publish(ctx, order)

	response := ToOrderResponse(order)
	return &response, nil
}

// Confirm moves a NEW order to CONFIRMED
func (s *OrderService) Confirm(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	return s.mutate(ctx, id, func(o *trade.Order) error {
		return o.Confirm()
	})
}

// Ship hands a CONFIRMED order to the carrier. A TTN is required, either in
// the request or already on the order.
func (s *OrderService) Ship(ctx context.Context, id uuid.UUID, req ShipOrderRequest) (*OrderResponse, error) {
	return s.mutate(ctx, id, func(o *trade.Order) error {
		if req.Carrier != "" {
			d := o.Delivery
			d.Carrier = req.Carrier
			if err := o.SetDelivery(d); err != nil {
				return err
			}
		}
		return o.Ship(req.TTN)
	})
}

// Complete marks a SHIPPED order as delivered
func (s *OrderService) Complete(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	return s.mutate(ctx, id, func(o *trade.Order) error {
		return o.Complete()
	})
}

// Cancel cancels the order. Stock comes back through the OrderCancelled handler.
func (s *OrderService) Cancel(ctx context.Context, id uuid.UUID, req ReasonRequest) (*OrderResponse, error) {
	return s.mutate(ctx, id, func(o *trade.Order) error {
		return o.Cancel(req.Reason)
	})
}

// Return records returned goods. Stock comes back through the OrderReturned handler.
func (s *OrderService) Return(ctx context.Context, id uuid.UUID, req ReasonRequest) (*OrderResponse, error) {
	return s.mutate(ctx, id, func(o *trade.Order) error {
		return o.Return(req.Reason)
	})
}

// Pay marks the order paid
func (s *OrderService) Pay(ctx context.Context, id uuid.UUID, req PayOrderRequest) (*OrderResponse, error) {
	at := s.now()
	if req.PaidAt != nil && !req.PaidAt.IsZero() {
		at = *req.PaidAt
	}
	return s.mutate(ctx, id, func(o *trade.Order) error {
		return o.MarkPaid(at)
	})
}

// Refund reverses a payment
func (s *OrderService) Refund(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	return s.mutate(ctx, id, func(o *trade.Order) error {
		return o.Refund()
	})
}

// Delete removes a NEW or CANCELLED order. A NEW order still holds stock,
// which is released first.
func (s *OrderService) Delete(ctx context.Context, id uuid.UUID) error {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !order.CanDelete() {
		return shared.NewDomainError("INVALID_STATE", "Only NEW or CANCELLED orders can be deleted")
	}

	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return err
	}
	if order.HoldsStock() {
		if err := s.stock.ReleaseStock(ctx, order.StockDemand(), catalog.StockReasonOrderCancel); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderService) mutate(ctx context.Context, id uuid.UUID, fn func(*trade.Order) error) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(order); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}
	s.publish(ctx, order)

	response := ToOrderResponse(order)
	return &response, nil
}

// buildItems resolves requested lines against the catalog. Price and cost
// are snapshotted from the product unless existing already has the product.
func (s *OrderService) buildItems(ctx context.Context, reqs []OrderItemRequest, existing *trade.Order) ([]trade.ItemInput, error) {
	if len(reqs) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Order must have at least one item")
	}

	ids := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	inputs := make([]trade.ItemInput, 0, len(reqs))
	for _, r := range reqs {
		product, ok := byID[r.ProductID]
		if !ok {
			return nil, shared.ErrNotFound.WithMessage("Product " + r.ProductID.String() + " not found")
		}

		in := trade.ItemInput{
			ProductID:   product.ID,
			SKU:         product.SKU,
			ProductName: product.Name.UK,
			Quantity:    r.Quantity,
			UnitPrice:   product.EffectivePrice(),
			Discount:    r.Discount,
			UnitCost:    product.PurchasePrice,
		}
		if existing != nil {
			if prev := existing.GetItemByProduct(product.ID); prev != nil {
				in.ProductName = prev.ProductName
				in.UnitPrice = prev.UnitPrice
				in.UnitCost = prev.UnitCost
			} else if !product.IsActive {
				return nil, shared.NewDomainError("PRODUCT_INACTIVE", "Product "+product.SKU+" is not active")
			}
		} else if !product.IsActive {
			return nil, shared.NewDomainError("PRODUCT_INACTIVE", "Product "+product.SKU+" is not active")
		}
		if r.UnitPrice != nil {
			in.UnitPrice = *r.UnitPrice
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// applyCustomer links the order to a customer. With an id the customer must
// exist; with only a phone an existing customer is matched or a new one is
// recorded when a name is given.
func (s *OrderService) applyCustomer(ctx context.Context, order *trade.Order, customerID *uuid.UUID, name, phone string) error {
	if customerID != nil {
		customer, err := s.customerRepo.FindByID(ctx, *customerID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("INVALID_CUSTOMER", "Customer not found")
			}
			return err
		}
		if strings.TrimSpace(name) == "" {
			name = customer.Name
		}
		return order.SetCustomer(&customer.ID, name, customer.Phone)
	}

	phone = strings.TrimSpace(phone)
	if phone == "" {
		return order.SetCustomer(nil, name, "")
	}

	customer, err := s.customerRepo.FindByPhone(ctx, phone)
	switch {
	case err == nil:
		if strings.TrimSpace(name) == "" {
			name = customer.Name
		}
		return order.SetCustomer(&customer.ID, name, customer.Phone)
	case !errors.Is(err, shared.ErrNotFound):
		return err
	}

	if strings.TrimSpace(name) == "" {
		return order.SetCustomer(nil, "", phone)
	}
	customer, err = partner.NewCustomer(name, phone)
	if err != nil {
		return err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return err
	}
	customer.ClearDomainEvents()
	return order.SetCustomer(&customer.ID, customer.Name, customer.Phone)
}

func (s *OrderService) release(ctx context.Context, demand map[uuid.UUID]int, orderNumber string) {
	if len(demand) == 0 {
		return
	}
	if err := s.stock.ReleaseStock(ctx, demand, catalog.StockReasonOrderCancel); err != nil {
		s.logger.Error("Failed to release reserved stock",
			zap.String("order_number", orderNumber),
			zap.Error(err))
	}
}

func (s *OrderService) publish(ctx context.Context, order *trade.Order) {
	events := order.PullDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish order events",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err))
	}
}

// splitDelta separates units to reserve from units to give back
func splitDelta(delta map[uuid.UUID]int) (need, give map[uuid.UUID]int) {
	need = make(map[uuid.UUID]int)
	give = make(map[uuid.UUID]int)
	for id, d := range delta {
		switch {
		case d > 0:
			need[id] = d
		case d < 0:
			give[id] = -d
		}
	}
	return need, give
}
