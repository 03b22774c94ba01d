package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the fulfilment status of an order
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "NEW"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusReturned  OrderStatus = "RETURNED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusNew, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusCompleted, OrderStatusCancelled, OrderStatusReturned:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusNew:
		return target == OrderStatusConfirmed || target == OrderStatusCancelled
	case OrderStatusConfirmed:
		return target == OrderStatusShipped || target == OrderStatusCancelled
	case OrderStatusShipped:
		return target == OrderStatusCompleted || target == OrderStatusCancelled || target == OrderStatusReturned
	case OrderStatusCompleted:
		return target == OrderStatusReturned
	case OrderStatusCancelled, OrderStatusReturned:
		return false // Terminal states
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusReturned
}

// CountsAsSale reports whether orders in this status contribute to revenue
func (s OrderStatus) CountsAsSale() bool {
	return s != OrderStatusCancelled && s != OrderStatusReturned
}

// PaymentStatus represents whether an order has been paid
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "UNPAID"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

// PaymentMethod is how the customer pays
type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentMethodCard           PaymentMethod = "CARD"
	PaymentMethodBankTransfer   PaymentMethod = "BANK_TRANSFER"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCashOnDelivery, PaymentMethodCard, PaymentMethodBankTransfer:
		return true
	}
	return false
}

// Channel is the sales channel an order came from
type Channel string

const (
	ChannelWebsite     Channel = "WEBSITE"
	ChannelInstagram   Channel = "INSTAGRAM"
	ChannelPhone       Channel = "PHONE"
	ChannelMarketplace Channel = "MARKETPLACE"
	ChannelStore       Channel = "STORE"
)

// AllChannels lists every channel in display order
var AllChannels = []Channel{ChannelWebsite, ChannelInstagram, ChannelPhone, ChannelMarketplace, ChannelStore}

// IsValid checks if the channel is valid
func (c Channel) IsValid() bool {
	for _, ch := range AllChannels {
		if c == ch {
			return true
		}
	}
	return false
}

// Delivery holds shipping details. TTN is the carrier waybill number.
type Delivery struct {
	Carrier string          `gorm:"column:carrier;type:varchar(100)"`
	City    string          `gorm:"column:city;type:varchar(100)"`
	Address string          `gorm:"column:address;type:varchar(500)"`
	TTN     string          `gorm:"column:ttn;type:varchar(50);index"`
	Cost    decimal.Decimal `gorm:"column:cost;type:decimal(18,4);not null;default:0"`
}

func (d Delivery) validate() error {
	if d.Cost.IsNegative() {
		return shared.NewDomainError("INVALID_DELIVERY", "Delivery cost cannot be negative")
	}
	if len(d.TTN) > 50 {
		return shared.NewDomainError("INVALID_TTN", "TTN cannot exceed 50 characters")
	}
	return nil
}

// OrderItem is a line of an order. Product data is snapshotted at order time.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU         string          `gorm:"type:varchar(50)"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Discount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// ItemInput carries the data for a new order line
type ItemInput struct {
	ProductID   uuid.UUID
	SKU         string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	UnitCost    decimal.Decimal
}

// NewOrderItem creates an order line. Amount = quantity × unit price − discount.
func NewOrderItem(orderID uuid.UUID, in ItemInput) (*OrderItem, error) {
	if in.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if strings.TrimSpace(in.ProductName) == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if in.Quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if in.UnitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	gross := in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity)))
	if in.Discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	if in.Discount.GreaterThan(gross) {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot exceed the line amount")
	}

	now := time.Now()
	return &OrderItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   in.ProductID,
		SKU:         in.SKU,
		ProductName: in.ProductName,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		Discount:    in.Discount,
		UnitCost:    in.UnitCost,
		Amount:      gross.Sub(in.Discount),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CostAmount is quantity × unit cost
func (i *OrderItem) CostAmount() decimal.Decimal {
	return i.UnitCost.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a customer order and the aggregate root for its lines
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber   string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Channel       Channel         `gorm:"type:varchar(20);not null;index"`
	CustomerID    *uuid.UUID      `gorm:"type:uuid;index"`
	CustomerName  string          `gorm:"type:varchar(200)"`
	CustomerPhone string          `gorm:"type:varchar(20)"`
	Delivery      Delivery        `gorm:"embedded;embeddedPrefix:delivery_"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CostAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status        OrderStatus     `gorm:"type:varchar(20);not null;index"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(20);not null;index"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(30);not null"`
	Note          string          `gorm:"type:text"`
	CancelReason  string          `gorm:"type:varchar(500)"`
	ConfirmedAt   *time.Time
	ShippedAt     *time.Time
	CompletedAt   *time.Time
	CancelledAt   *time.Time
	ReturnedAt    *time.Time
	PaidAt        *time.Time
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates an unpaid order in NEW status
func NewOrder(orderNumber string, channel Channel, method PaymentMethod) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if !channel.IsValid() {
		return nil, shared.NewDomainError("INVALID_CHANNEL", fmt.Sprintf("Unknown channel %q", channel))
	}
	if method == "" {
		method = PaymentMethodCashOnDelivery
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method %q", method))
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		Channel:           channel,
		Items:             make([]OrderItem, 0),
		TotalAmount:       decimal.Zero,
		CostAmount:        decimal.Zero,
		Status:            OrderStatusNew,
		PaymentStatus:     PaymentStatusUnpaid,
		PaymentMethod:     method,
	}

	order.AddDomainEvent(NewOrderCreatedEvent(order))

	return order, nil
}

// SetCustomer links a customer and snapshots their name and phone
func (o *Order) SetCustomer(customerID *uuid.UUID, name, phone string) error {
	if o.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot change customer of order in %s status", o.Status))
	}
	o.CustomerID = customerID
	o.CustomerName = strings.TrimSpace(name)
	o.CustomerPhone = strings.TrimSpace(phone)
	o.IncrementVersion()
	return nil
}

// SetDelivery replaces the delivery details. Not allowed once shipped.
func (o *Order) SetDelivery(d Delivery) error {
	if o.Status != OrderStatusNew && o.Status != OrderStatusConfirmed {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot change delivery of order in %s status", o.Status))
	}
	d.Carrier = strings.TrimSpace(d.Carrier)
	d.City = strings.TrimSpace(d.City)
	d.Address = strings.TrimSpace(d.Address)
	d.TTN = strings.TrimSpace(d.TTN)
	if err := d.validate(); err != nil {
		return err
	}
	o.Delivery = d
	o.IncrementVersion()
	return nil
}

// SetPaymentMethod changes the payment method while the order is unpaid
func (o *Order) SetPaymentMethod(method PaymentMethod) error {
	if !method.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method %q", method))
	}
	if o.PaymentStatus != PaymentStatusUnpaid {
		return shared.NewDomainError("INVALID_STATE", "Cannot change payment method of a paid order")
	}
	o.PaymentMethod = method
	o.IncrementVersion()
	return nil
}

// SetNote sets the order note
func (o *Order) SetNote(note string) {
	o.Note = note
	o.IncrementVersion()
}

// AddItem adds a line. Only allowed in NEW status.
func (o *Order) AddItem(in ItemInput) (*OrderItem, error) {
	if !o.CanModify() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to an order that is not NEW")
	}

	for _, item := range o.Items {
		if item.ProductID == in.ProductID {
			return nil, shared.NewDomainError("DUPLICATE_PRODUCT", "Product already exists in order, update quantity instead")
		}
	}

	item, err := NewOrderItem(o.ID, in)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotals()
	o.IncrementVersion()

	return item, nil
}

// ReplaceItems swaps the whole item list. Only allowed in NEW status.
// Nothing changes if any line is invalid.
func (o *Order) ReplaceItems(inputs []ItemInput) error {
	if !o.CanModify() {
		return shared.NewDomainError("INVALID_STATE", "Cannot update items of an order that is not NEW")
	}
	if len(inputs) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Order must have at least one item")
	}

	seen := make(map[uuid.UUID]struct{}, len(inputs))
	items := make([]OrderItem, 0, len(inputs))
	for _, in := range inputs {
		if _, dup := seen[in.ProductID]; dup {
			return shared.NewDomainError("DUPLICATE_PRODUCT", "Each product may appear only once per order")
		}
		seen[in.ProductID] = struct{}{}
		item, err := NewOrderItem(o.ID, in)
		if err != nil {
			return err
		}
		items = append(items, *item)
	}

	o.Items = items
	o.recalculateTotals()
	o.IncrementVersion()

	return nil
}

// Confirm moves a NEW order to CONFIRMED
func (o *Order) Confirm() error {
	if err := o.transition(OrderStatusConfirmed, "confirm"); err != nil {
		return err
	}
	if len(o.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot confirm order without items")
	}

	now := time.Now()
	o.ConfirmedAt = &now
	o.setStatus(OrderStatusConfirmed)

	return nil
}

// Ship marks the order as handed to the carrier. A TTN is required.
func (o *Order) Ship(ttn string) error {
	if err := o.transition(OrderStatusShipped, "ship"); err != nil {
		return err
	}
	ttn = strings.TrimSpace(ttn)
	if ttn == "" {
		ttn = o.Delivery.TTN
	}
	if ttn == "" {
		return shared.NewDomainError("TTN_REQUIRED", "TTN must be set before shipping")
	}
	if len(ttn) > 50 {
		return shared.NewDomainError("INVALID_TTN", "TTN cannot exceed 50 characters")
	}

	now := time.Now()
	o.Delivery.TTN = ttn
	o.ShippedAt = &now
	o.setStatus(OrderStatusShipped)

	return nil
}

// Complete marks the order as delivered
func (o *Order) Complete() error {
	if err := o.transition(OrderStatusCompleted, "complete"); err != nil {
		return err
	}

	now := time.Now()
	o.CompletedAt = &now
	o.setStatus(OrderStatusCompleted)

	return nil
}

// Cancel cancels the order. Reserved stock is restored by the stock handler.
func (o *Order) Cancel(reason string) error {
	if err := o.transition(OrderStatusCancelled, "cancel"); err != nil {
		return err
	}

	now := time.Now()
	previous := o.Status
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.CancelReason = strings.TrimSpace(reason)
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderCancelledEvent(o, previous))

	return nil
}

// Return records that the goods came back
func (o *Order) Return(reason string) error {
	if err := o.transition(OrderStatusReturned, "return"); err != nil {
		return err
	}

	now := time.Now()
	previous := o.Status
	o.Status = OrderStatusReturned
	o.ReturnedAt = &now
	o.CancelReason = strings.TrimSpace(reason)
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderReturnedEvent(o, previous))

	return nil
}

// MarkPaid records payment. Only from UNPAID.
func (o *Order) MarkPaid(at time.Time) error {
	if o.PaymentStatus != PaymentStatusUnpaid {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark order paid in %s payment status", o.PaymentStatus))
	}
	if o.Status == OrderStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot take payment for a cancelled order")
	}
	if at.IsZero() {
		at = time.Now()
	}

	o.PaymentStatus = PaymentStatusPaid
	o.PaidAt = &at
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderPaymentChangedEvent(o, PaymentStatusUnpaid))

	return nil
}

// Refund reverses a payment. Only from PAID.
func (o *Order) Refund() error {
	if o.PaymentStatus != PaymentStatusPaid {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot refund order in %s payment status", o.PaymentStatus))
	}

	o.PaymentStatus = PaymentStatusRefunded
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderPaymentChangedEvent(o, PaymentStatusPaid))

	return nil
}

func (o *Order) transition(target OrderStatus, action string) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot %s order in %s status", action, o.Status))
	}
	return nil
}

func (o *Order) setStatus(target OrderStatus) {
	previous := o.Status
	o.Status = target
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, previous))
}

// recalculateTotals recalculates the goods total and cost
func (o *Order) recalculateTotals() {
	total := decimal.Zero
	cost := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].Amount)
		cost = cost.Add(o.Items[i].CostAmount())
	}
	o.TotalAmount = total
	o.CostAmount = cost
}

// GrossProfit is the goods total minus the cost snapshot
func (o *Order) GrossProfit() decimal.Decimal {
	return o.TotalAmount.Sub(o.CostAmount)
}

// DiscountAmount is the sum of line discounts
func (o *Order) DiscountAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Discount)
	}
	return total
}

// TotalQuantity returns the number of units across all lines
func (o *Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// ItemCount returns the number of lines
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// StockDemand returns units per product held by this order
func (o *Order) StockDemand() map[uuid.UUID]int {
	demand := make(map[uuid.UUID]int, len(o.Items))
	for _, item := range o.Items {
		demand[item.ProductID] += item.Quantity
	}
	return demand
}

// HoldsStock reports whether the order's units are currently reserved
func (o *Order) HoldsStock() bool {
	return !o.Status.IsTerminal()
}

// CanModify returns true if the items may still be edited
func (o *Order) CanModify() bool {
	return o.Status == OrderStatusNew
}

// CanDelete returns true if the order may be removed
func (o *Order) CanDelete() bool {
	return o.Status == OrderStatusNew || o.Status == OrderStatusCancelled
}

// GetItemByProduct returns an item by product ID
func (o *Order) GetItemByProduct(productID uuid.UUID) *OrderItem {
	for idx := range o.Items {
		if o.Items[idx].ProductID == productID {
			return &o.Items[idx]
		}
	}
	return nil
}

// StockDelta returns the per-product change in reserved units when moving
// from the before demand to the after demand. Positive values need stock.
func StockDelta(before, after map[uuid.UUID]int) map[uuid.UUID]int {
	delta := make(map[uuid.UUID]int)
	for id, qty := range after {
		if d := qty - before[id]; d != 0 {
			delta[id] = d
		}
	}
	for id, qty := range before {
		if _, ok := after[id]; !ok {
			delta[id] = -qty
		}
	}
	return delta
}
