package report

import (
	"sort"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"github.com/petstore/backend/internal/domain/trade"
	"github.com/petstore/backend/internal/domain/warehouse"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// KPI is one dashboard figure compared with the previous period.
// ChangePercent is nil when the previous value is zero.
type KPI struct {
	Current       decimal.Decimal  `json:"current"`
	Previous      decimal.Decimal  `json:"previous"`
	ChangePercent *decimal.Decimal `json:"change_percent"`
}

// NewKPI builds a KPI and its percent change rounded to 2 places
func NewKPI(current, previous decimal.Decimal) KPI {
	k := KPI{Current: current, Previous: previous}
	if !previous.IsZero() {
		change := current.Sub(previous).Div(previous.Abs()).Mul(hundred).Round(2)
		k.ChangePercent = &change
	}
	return k
}

// NewCountKPI builds a KPI from integer counts
func NewCountKPI(current, previous int64) KPI {
	return NewKPI(decimal.NewFromInt(current), decimal.NewFromInt(previous))
}

// SalesFigures aggregates the orders of one range. Cancelled and returned
// orders are left out.
type SalesFigures struct {
	Revenue           decimal.Decimal `json:"revenue"`
	Cost              decimal.Decimal `json:"cost"`
	GrossProfit       decimal.Decimal `json:"gross_profit"`
	OrderCount        int64           `json:"order_count"`
	ItemsSold         int64           `json:"items_sold"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	MedianOrderValue  decimal.Decimal `json:"median_order_value"`
}

// SalesOrders filters out orders that do not count as sales
func SalesOrders(orders []trade.Order) []trade.Order {
	out := make([]trade.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status.CountsAsSale() {
			out = append(out, o)
		}
	}
	return out
}

// ComputeSales aggregates orders into SalesFigures
func ComputeSales(orders []trade.Order) SalesFigures {
	f := SalesFigures{
		Revenue:           decimal.Zero,
		Cost:              decimal.Zero,
		GrossProfit:       decimal.Zero,
		AverageOrderValue: decimal.Zero,
		MedianOrderValue:  decimal.Zero,
	}

	values := make(stats.Float64Data, 0, len(orders))
	for _, o := range orders {
		if !o.Status.CountsAsSale() {
			continue
		}
		f.OrderCount++
		f.ItemsSold += int64(o.TotalQuantity())
		f.Revenue = f.Revenue.Add(o.TotalAmount)
		f.Cost = f.Cost.Add(o.CostAmount)
		values = append(values, o.TotalAmount.InexactFloat64())
	}
	f.GrossProfit = f.Revenue.Sub(f.Cost)

	if f.OrderCount > 0 {
		f.AverageOrderValue = f.Revenue.Div(decimal.NewFromInt(f.OrderCount)).Round(2)
		if median, err := stats.Median(values); err == nil {
			f.MedianOrderValue = decimal.NewFromFloat(median).Round(2)
		}
	}

	return f
}

// ProductSales is a top-products row
type ProductSales struct {
	ProductID uuid.UUID       `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
	Profit    decimal.Decimal `json:"profit"`
}

// TopProducts ranks products by revenue, then by quantity. limit <= 0 returns all.
func TopProducts(orders []trade.Order, limit int) []ProductSales {
	byProduct := make(map[uuid.UUID]*ProductSales)
	for _, o := range orders {
		if !o.Status.CountsAsSale() {
			continue
		}
		for _, item := range o.Items {
			ps, ok := byProduct[item.ProductID]
			if !ok {
				ps = &ProductSales{
					ProductID: item.ProductID,
					SKU:       item.SKU,
					Name:      item.ProductName,
					Revenue:   decimal.Zero,
					Profit:    decimal.Zero,
				}
				byProduct[item.ProductID] = ps
			}
			ps.Quantity += int64(item.Quantity)
			ps.Revenue = ps.Revenue.Add(item.Amount)
			ps.Profit = ps.Profit.Add(item.Amount.Sub(item.CostAmount()))
		}
	}

	out := make([]ProductSales, 0, len(byProduct))
	for _, ps := range byProduct {
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].SKU < out[j].SKU
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ChannelSales is the revenue of one sales channel
type ChannelSales struct {
	Channel      trade.Channel   `json:"channel"`
	OrderCount   int64           `json:"order_count"`
	Revenue      decimal.Decimal `json:"revenue"`
	SharePercent decimal.Decimal `json:"share_percent"`
}

// SalesByChannel returns one row per channel in display order, including
// channels without sales
func SalesByChannel(orders []trade.Order) []ChannelSales {
	rows := make(map[trade.Channel]*ChannelSales, len(trade.AllChannels))
	out := make([]ChannelSales, len(trade.AllChannels))
	for i, ch := range trade.AllChannels {
		out[i] = ChannelSales{Channel: ch, Revenue: decimal.Zero, SharePercent: decimal.Zero}
		rows[ch] = &out[i]
	}

	total := decimal.Zero
	for _, o := range orders {
		row, ok := rows[o.Channel]
		if !ok || !o.Status.CountsAsSale() {
			continue
		}
		row.OrderCount++
		row.Revenue = row.Revenue.Add(o.TotalAmount)
		total = total.Add(o.TotalAmount)
	}

	if total.IsPositive() {
		for i := range out {
			out[i].SharePercent = out[i].Revenue.Div(total).Mul(hundred).Round(2)
		}
	}
	return out
}

// LowStockItem is a product at or below the low-stock threshold
type LowStockItem struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Stock     int       `json:"stock"`
}

// Dashboard is the read model behind the dashboard screen
type Dashboard struct {
	Period            Period                      `json:"period"`
	Revenue           KPI                         `json:"revenue"`
	Orders            KPI                         `json:"orders"`
	AverageOrderValue KPI                         `json:"average_order_value"`
	MedianOrderValue  KPI                         `json:"median_order_value"`
	ItemsSold         KPI                         `json:"items_sold"`
	GrossProfit       KPI                         `json:"gross_profit"`
	Expenses          KPI                         `json:"expenses"`
	NetProfit         KPI                         `json:"net_profit"`
	NewCustomers      KPI                         `json:"new_customers"`
	RevenueSeries     Series                      `json:"revenue_series"`
	OrderSeries       Series                      `json:"order_series"`
	TopProducts       []ProductSales              `json:"top_products"`
	SalesByChannel    []ChannelSales              `json:"sales_by_channel"`
	LowStock          []LowStockItem              `json:"low_stock"`
	Settlement        warehouse.SettlementSummary `json:"settlement"`
}

// DashboardInput is everything needed to build a Dashboard. Orders must
// cover both the current and previous ranges.
type DashboardInput struct {
	Period           Period
	Orders           []trade.Order
	ExpensesCurrent  decimal.Decimal
	ExpensesPrevious decimal.Decimal
	NewCustomersCur  int64
	NewCustomersPrev int64
	TopLimit         int
	LowStock         []LowStockItem
	Settlement       warehouse.SettlementSummary
}

// BuildDashboard computes every KPI and series for the period
func BuildDashboard(in DashboardInput) Dashboard {
	var current, previous []trade.Order
	var revenuePoints, orderPoints []Point
	for _, o := range in.Orders {
		if !o.Status.CountsAsSale() {
			continue
		}
		switch {
		case in.Period.Current.Contains(o.CreatedAt):
			current = append(current, o)
		case in.Period.Previous.Contains(o.CreatedAt):
			previous = append(previous, o)
		default:
			continue
		}
		revenuePoints = append(revenuePoints, Point{At: o.CreatedAt, Value: o.TotalAmount})
		orderPoints = append(orderPoints, Point{At: o.CreatedAt, Value: decimal.NewFromInt(1)})
	}

	cur := ComputeSales(current)
	prev := ComputeSales(previous)
	netCur := cur.GrossProfit.Sub(in.ExpensesCurrent)
	netPrev := prev.GrossProfit.Sub(in.ExpensesPrevious)

	return Dashboard{
		Period:            in.Period,
		Revenue:           NewKPI(cur.Revenue, prev.Revenue),
		Orders:            NewCountKPI(cur.OrderCount, prev.OrderCount),
		AverageOrderValue: NewKPI(cur.AverageOrderValue, prev.AverageOrderValue),
		MedianOrderValue:  NewKPI(cur.MedianOrderValue, prev.MedianOrderValue),
		ItemsSold:         NewCountKPI(cur.ItemsSold, prev.ItemsSold),
		GrossProfit:       NewKPI(cur.GrossProfit, prev.GrossProfit),
		Expenses:          NewKPI(in.ExpensesCurrent, in.ExpensesPrevious),
		NetProfit:         NewKPI(netCur, netPrev),
		NewCustomers:      NewCountKPI(in.NewCustomersCur, in.NewCustomersPrev),
		RevenueSeries:     in.Period.Bucketize(revenuePoints),
		OrderSeries:       in.Period.Bucketize(orderPoints),
		TopProducts:       TopProducts(current, in.TopLimit),
		SalesByChannel:    SalesByChannel(current),
		LowStock:          in.LowStock,
		Settlement:        in.Settlement,
	}
}
