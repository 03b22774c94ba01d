// Package export writes catalog and order snapshots as CSV.
package export

import (
	"context"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/petstore/backend/internal/domain/catalog"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/petstore/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

// ProductRow is one product line of the catalog export
type ProductRow struct {
	SKU            string `csv:"sku"`
	Barcode        string `csv:"barcode"`
	NameUK         string `csv:"name_uk"`
	NameEN         string `csv:"name_en"`
	CategoryID     string `csv:"category_id"`
	Price          string `csv:"price"`
	PromoPrice     string `csv:"promo_price"`
	EffectivePrice string `csv:"effective_price"`
	PurchasePrice  string `csv:"purchase_price"`
	Margin         string `csv:"margin"`
	Stock          int    `csv:"stock"`
	Active         bool   `csv:"active"`
	LowStock       bool   `csv:"low_stock"`
}

// OrderRow is one order of the order export
type OrderRow struct {
	OrderNumber   string `csv:"order_number"`
	CreatedAt     string `csv:"created_at"`
	Status        string `csv:"status"`
	PaymentStatus string `csv:"payment_status"`
	PaymentMethod string `csv:"payment_method"`
	Channel       string `csv:"channel"`
	CustomerName  string `csv:"customer_name"`
	CustomerPhone string `csv:"customer_phone"`
	Items         int    `csv:"items"`
	Quantity      int    `csv:"quantity"`
	Discount      string `csv:"discount"`
	Total         string `csv:"total"`
	Cost          string `csv:"cost"`
	Profit        string `csv:"profit"`
	Carrier       string `csv:"carrier"`
	City          string `csv:"city"`
	TTN           string `csv:"ttn"`
	DeliveryCost  string `csv:"delivery_cost"`
}

// OrderExportFilter bounds the order export by creation time
type OrderExportFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
}

// Service streams CSV exports
type Service struct {
	productRepo       catalog.ProductRepository
	orderRepo         trade.OrderRepository
	lowStockThreshold int
	loc               *time.Location
}

// NewService creates a new export Service. Timestamps are written in loc.
func NewService(productRepo catalog.ProductRepository, orderRepo trade.OrderRepository, lowStockThreshold int, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		productRepo:       productRepo,
		orderRepo:         orderRepo,
		lowStockThreshold: lowStockThreshold,
		loc:               loc,
	}
}

// Products writes every product, ordered by SKU
func (s *Service) Products(ctx context.Context, w io.Writer) error {
	filter := shared.Unpaged()
	filter.OrderBy = "sku"
	filter.OrderDir = "asc"

	products, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return err
	}

	rows := make([]*ProductRow, len(products))
	for i := range products {
		rows[i] = s.productRow(&products[i])
	}
	return gocsv.Marshal(rows, w)
}

// Orders writes one row per order, oldest first
func (s *Service) Orders(ctx context.Context, w io.Writer, filter OrderExportFilter) error {
	f := shared.Unpaged()
	f.OrderBy = "created_at"
	f.OrderDir = "asc"
	if filter.Status != "" {
		f = f.With("status", filter.Status)
	}
	if filter.From != nil {
		f = f.With("from", *filter.From)
	}
	if filter.To != nil {
		f = f.With("to", *filter.To)
	}

	orders, err := s.orderRepo.FindAll(ctx, f)
	if err != nil {
		return err
	}

	rows := make([]*OrderRow, len(orders))
	for i := range orders {
		rows[i] = s.orderRow(&orders[i])
	}
	return gocsv.Marshal(rows, w)
}

func (s *Service) productRow(p *catalog.Product) *ProductRow {
	row := &ProductRow{
		SKU:            p.SKU,
		Barcode:        p.Barcode,
		NameUK:         p.Name.UK,
		NameEN:         p.Name.EN,
		Price:          money(p.Price),
		EffectivePrice: money(p.EffectivePrice()),
		PurchasePrice:  money(p.PurchasePrice),
		Margin:         money(p.Margin()),
		Stock:          p.Stock,
		Active:         p.IsActive,
		LowStock:       p.IsLowStock(s.lowStockThreshold),
	}
	if p.CategoryID != nil {
		row.CategoryID = p.CategoryID.String()
	}
	if p.HasPromo() {
		row.PromoPrice = money(p.PromoPrice.Decimal)
	}
	return row
}

func (s *Service) orderRow(o *trade.Order) *OrderRow {
	return &OrderRow{
		OrderNumber:   o.OrderNumber,
		CreatedAt:     o.CreatedAt.In(s.loc).Format("2006-01-02 15:04"),
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PaymentMethod: string(o.PaymentMethod),
		Channel:       string(o.Channel),
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		Items:         o.ItemCount(),
		Quantity:      o.TotalQuantity(),
		Discount:      money(o.DiscountAmount()),
		Total:         money(o.TotalAmount),
		Cost:          money(o.CostAmount),
		Profit:        money(o.GrossProfit()),
		Carrier:       o.Delivery.Carrier,
		City:          o.Delivery.City,
		TTN:           o.Delivery.TTN,
		DeliveryCost:  money(o.Delivery.Cost),
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(moneyPlaces)
}
