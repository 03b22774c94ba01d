// Package seed loads the embedded demo dataset through the application
// services, so every invariant the services enforce also holds for seeded rows.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/application/catalog"
	"github.com/petstore/backend/internal/application/finance"
	"github.com/petstore/backend/internal/application/partner"
	"github.com/petstore/backend/internal/application/trade"
	"github.com/petstore/backend/internal/application/warehouse"
	domainpartner "github.com/petstore/backend/internal/domain/partner"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultDataset []byte

// CategoryCreator creates categories
type CategoryCreator interface {
	Create(ctx context.Context, req catalog.CreateCategoryRequest) (*catalog.CategoryResponse, error)
}

// ProductCreator creates and lists products
type ProductCreator interface {
	Create(ctx context.Context, req catalog.CreateProductRequest) (*catalog.ProductResponse, error)
	List(ctx context.Context, filter catalog.ProductListFilter) ([]catalog.ProductResponse, int64, error)
}

// SupplierCreator creates suppliers
type SupplierCreator interface {
	Create(ctx context.Context, req partner.CreateSupplierRequest) (*partner.SupplierResponse, error)
}

// CustomerCreator creates customers
type CustomerCreator interface {
	Create(ctx context.Context, req partner.CreateCustomerRequest) (*partner.CustomerResponse, error)
}

// ReceiptCreator creates, posts and pays receipts
type ReceiptCreator interface {
	Create(ctx context.Context, req warehouse.CreateReceiptRequest) (*warehouse.ReceiptResponse, error)
	Post(ctx context.Context, id uuid.UUID) (*warehouse.ReceiptResponse, error)
	Pay(ctx context.Context, id uuid.UUID, req warehouse.PayReceiptRequest) (*warehouse.ReceiptResponse, error)
}

// OrderCreator creates orders and moves them through their lifecycle
type OrderCreator interface {
	Create(ctx context.Context, req trade.CreateOrderRequest) (*trade.OrderResponse, error)
	Confirm(ctx context.Context, id uuid.UUID) (*trade.OrderResponse, error)
	Ship(ctx context.Context, id uuid.UUID, req trade.ShipOrderRequest) (*trade.OrderResponse, error)
	Complete(ctx context.Context, id uuid.UUID) (*trade.OrderResponse, error)
	Cancel(ctx context.Context, id uuid.UUID, req trade.ReasonRequest) (*trade.OrderResponse, error)
	Pay(ctx context.Context, id uuid.UUID, req trade.PayOrderRequest) (*trade.OrderResponse, error)
}

// ExpenseCreator creates expenses
type ExpenseCreator interface {
	Create(ctx context.Context, req finance.CreateExpenseRequest) (*finance.ExpenseResponse, error)
}

// Services bundles the services the seeder writes through
type Services struct {
	Categories CategoryCreator
	Products   ProductCreator
	Suppliers  SupplierCreator
	Customers  CustomerCreator
	Receipts   ReceiptCreator
	Orders     OrderCreator
	Expenses   ExpenseCreator
}

// Dataset is the YAML seed document
type Dataset struct {
	Categories []categorySeed `yaml:"categories"`
	Suppliers  []supplierSeed `yaml:"suppliers"`
	Customers  []customerSeed `yaml:"customers"`
	Products   []productSeed  `yaml:"products"`
	Receipts   []receiptSeed  `yaml:"receipts"`
	Orders     []orderSeed    `yaml:"orders"`
	Expenses   []expenseSeed  `yaml:"expenses"`
}

type text struct {
	UK string `yaml:"uk"`
	EN string `yaml:"en"`
}

func (t text) localized() shared.LocalizedText {
	return shared.NewLocalizedText(t.UK, t.EN)
}

type categorySeed struct {
	Code      string         `yaml:"code"`
	Name      text           `yaml:"name"`
	SortOrder int            `yaml:"sort_order"`
	Children  []categorySeed `yaml:"children"`
}

type supplierSeed struct {
	Code            string `yaml:"code"`
	Name            string `yaml:"name"`
	ContactPerson   string `yaml:"contact_person"`
	Phone           string `yaml:"phone"`
	Email           string `yaml:"email"`
	Address         string `yaml:"address"`
	PaymentTermDays int    `yaml:"payment_term_days"`
}

type customerSeed struct {
	Name    string `yaml:"name"`
	Phone   string `yaml:"phone"`
	Email   string `yaml:"email"`
	City    string `yaml:"city"`
	Address string `yaml:"address"`
}

type productSeed struct {
	SKU           string `yaml:"sku"`
	Barcode       string `yaml:"barcode"`
	Category      string `yaml:"category"`
	Name          text   `yaml:"name"`
	Description   text   `yaml:"description"`
	Price         string `yaml:"price"`
	PurchasePrice string `yaml:"purchase_price"`
	PromoPrice    string `yaml:"promo_price"`
	Stock         int    `yaml:"stock"`
}

type receiptSeed struct {
	Supplier  string            `yaml:"supplier"`
	DaysAgo   int               `yaml:"days_ago"`
	ExtraCost string            `yaml:"extra_cost"`
	Note      string            `yaml:"note"`
	Post      bool              `yaml:"post"`
	Paid      bool              `yaml:"paid"`
	Items     []receiptItemSeed `yaml:"items"`
}

type receiptItemSeed struct {
	SKU       string `yaml:"sku"`
	Quantity  int    `yaml:"quantity"`
	UnitPrice string `yaml:"unit_price"`
}

type orderSeed struct {
	Customer      string          `yaml:"customer"`
	CustomerName  string          `yaml:"customer_name"`
	CustomerPhone string          `yaml:"customer_phone"`
	Channel       string          `yaml:"channel"`
	PaymentMethod string          `yaml:"payment_method"`
	DaysAgo       int             `yaml:"days_ago"`
	Hour          int             `yaml:"hour"`
	Status        string          `yaml:"status"`
	Paid          bool            `yaml:"paid"`
	Delivery      *deliverySeed   `yaml:"delivery"`
	Items         []orderItemSeed `yaml:"items"`
}

type deliverySeed struct {
	Carrier string `yaml:"carrier"`
	City    string `yaml:"city"`
	Address string `yaml:"address"`
	TTN     string `yaml:"ttn"`
	Cost    string `yaml:"cost"`
}

type orderItemSeed struct {
	SKU      string `yaml:"sku"`
	Quantity int    `yaml:"quantity"`
	Discount string `yaml:"discount"`
}

type expenseSeed struct {
	Category    string `yaml:"category"`
	Amount      string `yaml:"amount"`
	DaysAgo     int    `yaml:"days_ago"`
	Description string `yaml:"description"`
}

// Parse decodes a YAML dataset
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	return &ds, nil
}

// Default returns the embedded demo dataset
func Default() (*Dataset, error) {
	return Parse(defaultDataset)
}

// Seeder writes a dataset through the application services
type Seeder struct {
	svc    Services
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time

	categories map[string]uuid.UUID
	suppliers  map[string]uuid.UUID
	customers  map[string]uuid.UUID
	products   map[string]uuid.UUID
}

// NewSeeder creates a new Seeder. Relative dates are resolved in loc.
func NewSeeder(svc Services, loc *time.Location, logger *zap.Logger) *Seeder {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		svc:    svc,
		logger: logger,
		loc:    loc,
		now:    time.Now,
	}
}

// Run seeds ds unless the catalog already has products.
// It reports whether anything was written.
func (s *Seeder) Run(ctx context.Context, ds *Dataset) (bool, error) {
	_, total, err := s.svc.Products.List(ctx, catalog.ProductListFilter{Page: 1, PageSize: 1})
	if err != nil {
		return false, err
	}
	if total > 0 {
		s.logger.Info("Catalog is not empty, skipping seed", zap.Int64("products", total))
		return false, nil
	}

	s.categories = make(map[string]uuid.UUID)
	s.suppliers = make(map[string]uuid.UUID)
	s.customers = make(map[string]uuid.UUID)
	s.products = make(map[string]uuid.UUID)

	steps := []struct {
		name string
		fn   func(context.Context, *Dataset) error
	}{
		{"categories", s.seedCategories},
		{"suppliers", s.seedSuppliers},
		{"customers", s.seedCustomers},
		{"products", s.seedProducts},
		{"receipts", s.seedReceipts},
		{"orders", s.seedOrders},
		{"expenses", s.seedExpenses},
	}
	for _, step := range steps {
		if err := step.fn(ctx, ds); err != nil {
			return false, fmt.Errorf("seed %s: %w", step.name, err)
		}
	}

	s.logger.Info("Seed data loaded",
		zap.Int("categories", len(s.categories)),
		zap.Int("suppliers", len(s.suppliers)),
		zap.Int("customers", len(s.customers)),
		zap.Int("products", len(s.products)),
		zap.Int("receipts", len(ds.Receipts)),
		zap.Int("orders", len(ds.Orders)),
		zap.Int("expenses", len(ds.Expenses)))
	return true, nil
}

func (s *Seeder) seedCategories(ctx context.Context, ds *Dataset) error {
	var walk func(nodes []categorySeed, parent *uuid.UUID) error
	walk = func(nodes []categorySeed, parent *uuid.UUID) error {
		for _, c := range nodes {
			resp, err := s.svc.Categories.Create(ctx, catalog.CreateCategoryRequest{
				Code:      c.Code,
				Name:      c.Name.localized(),
				ParentID:  parent,
				SortOrder: c.SortOrder,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", c.Code, err)
			}
			s.categories[c.Code] = resp.ID
			id := resp.ID
			if err := walk(c.Children, &id); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(ds.Categories, nil)
}

func (s *Seeder) seedSuppliers(ctx context.Context, ds *Dataset) error {
	for _, sp := range ds.Suppliers {
		resp, err := s.svc.Suppliers.Create(ctx, partner.CreateSupplierRequest{
			Code:            sp.Code,
			Name:            sp.Name,
			ContactPerson:   sp.ContactPerson,
			Phone:           sp.Phone,
			Email:           sp.Email,
			Address:         sp.Address,
			PaymentTermDays: sp.PaymentTermDays,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", sp.Code, err)
		}
		s.suppliers[sp.Code] = resp.ID
	}
	return nil
}

func (s *Seeder) seedCustomers(ctx context.Context, ds *Dataset) error {
	for _, c := range ds.Customers {
		resp, err := s.svc.Customers.Create(ctx, partner.CreateCustomerRequest{
			Name:    c.Name,
			Phone:   c.Phone,
			Email:   c.Email,
			City:    c.City,
			Address: c.Address,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", c.Phone, err)
		}
		s.customers[domainpartner.NormalizePhone(c.Phone)] = resp.ID
	}
	return nil
}

func (s *Seeder) seedProducts(ctx context.Context, ds *Dataset) error {
	for _, p := range ds.Products {
		price, err := money(p.Price)
		if err != nil {
			return fmt.Errorf("%s price: %w", p.SKU, err)
		}
		req := catalog.CreateProductRequest{
			SKU:         p.SKU,
			Barcode:     p.Barcode,
			Name:        p.Name.localized(),
			Description: p.Description.localized(),
			Price:       price,
			Stock:       p.Stock,
		}
		if p.Category != "" {
			id, ok := s.categories[p.Category]
			if !ok {
				return fmt.Errorf("%s: unknown category %q", p.SKU, p.Category)
			}
			req.CategoryID = &id
		}
		if req.PurchasePrice, err = optionalMoney(p.PurchasePrice); err != nil {
			return fmt.Errorf("%s purchase price: %w", p.SKU, err)
		}
		if req.PromoPrice, err = optionalMoney(p.PromoPrice); err != nil {
			return fmt.Errorf("%s promo price: %w", p.SKU, err)
		}

		resp, err := s.svc.Products.Create(ctx, req)
		if err != nil {
			return fmt.Errorf("%s: %w", p.SKU, err)
		}
		s.products[resp.SKU] = resp.ID
	}
	return nil
}

func (s *Seeder) seedReceipts(ctx context.Context, ds *Dataset) error {
	for i, r := range ds.Receipts {
		supplierID, ok := s.suppliers[r.Supplier]
		if !ok {
			return fmt.Errorf("receipt %d: unknown supplier %q", i, r.Supplier)
		}
		extra, err := optionalMoney(r.ExtraCost)
		if err != nil {
			return fmt.Errorf("receipt %d extra cost: %w", i, err)
		}
		date := s.daysAgo(r.DaysAgo, 9)
		req := warehouse.CreateReceiptRequest{
			SupplierID:  supplierID,
			ReceiptDate: &date,
			Note:        r.Note,
		}
		if extra != nil {
			req.ExtraCost = *extra
		}
		for _, it := range r.Items {
			productID, err := s.product(it.SKU)
			if err != nil {
				return fmt.Errorf("receipt %d: %w", i, err)
			}
			unitPrice, err := money(it.UnitPrice)
			if err != nil {
				return fmt.Errorf("receipt %d %s price: %w", i, it.SKU, err)
			}
			req.Items = append(req.Items, warehouse.ReceiptItemRequest{
				ProductID: productID,
				Quantity:  it.Quantity,
				UnitPrice: unitPrice,
			})
		}

		resp, err := s.svc.Receipts.Create(ctx, req)
		if err != nil {
			return fmt.Errorf("receipt %d: %w", i, err)
		}
		if !r.Post {
			continue
		}
		if _, err := s.svc.Receipts.Post(ctx, resp.ID); err != nil {
			return fmt.Errorf("post %s: %w", resp.ReceiptNumber, err)
		}
		if r.Paid {
			paidAt := date.AddDate(0, 0, 1)
			if _, err := s.svc.Receipts.Pay(ctx, resp.ID, warehouse.PayReceiptRequest{PaidAt: &paidAt}); err != nil {
				return fmt.Errorf("pay %s: %w", resp.ReceiptNumber, err)
			}
		}
	}
	return nil
}

func (s *Seeder) seedOrders(ctx context.Context, ds *Dataset) error {
	for i, o := range ds.Orders {
		orderedAt := s.daysAgo(o.DaysAgo, o.Hour)
		req := trade.CreateOrderRequest{
			Channel:       o.Channel,
			CustomerName:  o.CustomerName,
			CustomerPhone: o.CustomerPhone,
			PaymentMethod: o.PaymentMethod,
			OrderedAt:     &orderedAt,
		}
		if o.Customer != "" {
			id, ok := s.customers[domainpartner.NormalizePhone(o.Customer)]
			if ok {
				req.CustomerID = &id
			} else {
				req.CustomerPhone = o.Customer
			}
		}
		if o.Delivery != nil {
			cost, err := optionalMoney(o.Delivery.Cost)
			if err != nil {
				return fmt.Errorf("order %d delivery cost: %w", i, err)
			}
			req.Delivery = &trade.DeliveryRequest{
				Carrier: o.Delivery.Carrier,
				City:    o.Delivery.City,
				Address: o.Delivery.Address,
				TTN:     o.Delivery.TTN,
			}
			if cost != nil {
				req.Delivery.Cost = *cost
			}
		}
		for _, it := range o.Items {
			productID, err := s.product(it.SKU)
			if err != nil {
				return fmt.Errorf("order %d: %w", i, err)
			}
			discount, err := optionalMoney(it.Discount)
			if err != nil {
				return fmt.Errorf("order %d %s discount: %w", i, it.SKU, err)
			}
			item := trade.OrderItemRequest{ProductID: productID, Quantity: it.Quantity}
			if discount != nil {
				item.Discount = *discount
			}
			req.Items = append(req.Items, item)
		}

		resp, err := s.svc.Orders.Create(ctx, req)
		if err != nil {
			return fmt.Errorf("order %d: %w", i, err)
		}
		if err := s.advanceOrder(ctx, resp.ID, o, orderedAt); err != nil {
			return fmt.Errorf("order %s: %w", resp.OrderNumber, err)
		}
	}
	return nil
}

// advanceOrder walks a NEW order to its seeded status along legal transitions
func (s *Seeder) advanceOrder(ctx context.Context, id uuid.UUID, o orderSeed, orderedAt time.Time) error {
	if o.Paid {
		paidAt := orderedAt.Add(time.Hour)
		if _, err := s.svc.Orders.Pay(ctx, id, trade.PayOrderRequest{PaidAt: &paidAt}); err != nil {
			return err
		}
	}

	switch o.Status {
	case "", "NEW":
		return nil
	case "CANCELLED":
		_, err := s.svc.Orders.Cancel(ctx, id, trade.ReasonRequest{Reason: "Customer changed their mind"})
		return err
	}

	if _, err := s.svc.Orders.Confirm(ctx, id); err != nil {
		return err
	}
	if o.Status == "CONFIRMED" {
		return nil
	}

	ship := trade.ShipOrderRequest{}
	if o.Delivery != nil {
		ship.TTN = o.Delivery.TTN
		ship.Carrier = o.Delivery.Carrier
	}
	if _, err := s.svc.Orders.Ship(ctx, id, ship); err != nil {
		return err
	}
	switch o.Status {
	case "SHIPPED":
		return nil
	case "COMPLETED":
		_, err := s.svc.Orders.Complete(ctx, id)
		return err
	}
	return fmt.Errorf("unsupported seed status %q", o.Status)
}

func (s *Seeder) seedExpenses(ctx context.Context, ds *Dataset) error {
	for i, e := range ds.Expenses {
		amount, err := money(e.Amount)
		if err != nil {
			return fmt.Errorf("expense %d amount: %w", i, err)
		}
		if _, err := s.svc.Expenses.Create(ctx, finance.CreateExpenseRequest{
			Category:    e.Category,
			Amount:      amount,
			Date:        s.daysAgo(e.DaysAgo, 12).Format("2006-01-02"),
			Description: e.Description,
		}); err != nil {
			return fmt.Errorf("expense %d: %w", i, err)
		}
	}
	return nil
}

func (s *Seeder) product(sku string) (uuid.UUID, error) {
	id, ok := s.products[sku]
	if !ok {
		return uuid.Nil, fmt.Errorf("unknown product %q", sku)
	}
	return id, nil
}

// daysAgo is the given hour, n days before today in the seeder's zone
func (s *Seeder) daysAgo(n, hour int) time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day()-n, hour, 0, 0, 0, s.loc)
}

func money(v string) (decimal.Decimal, error) {
	return decimal.NewFromString(v)
}

func optionalMoney(v string) (*decimal.Decimal, error) {
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
