package report

import (
	"context"
	"time"

	"github.com/petstore/backend/internal/domain/catalog"
	"github.com/petstore/backend/internal/domain/report"
	"github.com/petstore/backend/internal/domain/trade"
	"github.com/petstore/backend/internal/domain/warehouse"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderSource loads orders created in [from, to)
type OrderSource interface {
	FindBetween(ctx context.Context, from, to time.Time) ([]trade.Order, error)
}

// ExpenseSource totals expenses dated in [from, to)
type ExpenseSource interface {
	SumBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}

// CustomerSource counts customers created in [from, to)
type CustomerSource interface {
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// LowStockSource lists active products at or below a stock threshold
type LowStockSource interface {
	FindLowStock(ctx context.Context, threshold int) ([]catalog.Product, error)
}

// SettlementSource totals supplier debt
type SettlementSource interface {
	Summary(ctx context.Context) (warehouse.SettlementSummary, error)
}

// Options tunes the dashboard
type Options struct {
	LowStockThreshold int
	TopProductsLimit  int
}

// DashboardService assembles the dashboard read model for a period
type DashboardService struct {
	comparator  *report.Comparator
	orders      OrderSource
	expenses    ExpenseSource
	customers   CustomerSource
	products    LowStockSource
	settlements SettlementSource
	opts        Options
	logger      *zap.Logger
	now         func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	comparator *report.Comparator,
	orders OrderSource,
	expenses ExpenseSource,
	customers CustomerSource,
	products LowStockSource,
	settlements SettlementSource,
	opts Options,
) *DashboardService {
	if opts.TopProductsLimit <= 0 {
		opts.TopProductsLimit = 5
	}
	if opts.LowStockThreshold < 0 {
		opts.LowStockThreshold = 0
	}
	return &DashboardService{
		comparator:  comparator,
		orders:      orders,
		expenses:    expenses,
		customers:   customers,
		products:    products,
		settlements: settlements,
		opts:        opts,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
}

// SetLogger sets the logger used for non-fatal failures
func (s *DashboardService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Period resolves a period token. For "custom", from and to are the
// inclusive first and last days.
func (s *DashboardService) Period(key string, from, to *time.Time) (report.Period, error) {
	k, err := report.ParsePeriodKey(key)
	if err != nil {
		return report.Period{}, err
	}
	if k == report.PeriodCustom {
		var f, t time.Time
		if from != nil {
			f = *from
		}
		if to != nil {
			t = *to
		}
		return s.comparator.Custom(f, t)
	}
	return s.comparator.Resolve(k, s.now())
}

// Dashboard builds the dashboard for a period and the one before it
func (s *DashboardService) Dashboard(ctx context.Context, key string, from, to *time.Time) (*report.Dashboard, error) {
	period, err := s.Period(key, from, to)
	if err != nil {
		return nil, err
	}
	cur, prev := period.Current, period.Previous

	orders, err := s.orders.FindBetween(ctx, prev.Start, cur.End)
	if err != nil {
		return nil, err
	}

	expensesCur, err := s.expenses.SumBetween(ctx, cur.Start, cur.End)
	if err != nil {
		return nil, err
	}
	expensesPrev, err := s.expenses.SumBetween(ctx, prev.Start, prev.End)
	if err != nil {
		return nil, err
	}

	customersCur, err := s.customers.CountCreatedBetween(ctx, cur.Start, cur.End)
	if err != nil {
		return nil, err
	}
	customersPrev, err := s.customers.CountCreatedBetween(ctx, prev.Start, prev.End)
	if err != nil {
		return nil, err
	}

	lowStock, err := s.lowStock(ctx)
	if err != nil {
		return nil, err
	}

	settlement, err := s.settlements.Summary(ctx)
	if err != nil {
		return nil, err
	}

	dashboard := report.BuildDashboard(report.DashboardInput{
		Period:           period,
		Orders:           orders,
		ExpensesCurrent:  expensesCur,
		ExpensesPrevious: expensesPrev,
		NewCustomersCur:  customersCur,
		NewCustomersPrev: customersPrev,
		TopLimit:         s.opts.TopProductsLimit,
		LowStock:         lowStock,
		Settlement:       settlement,
	})

	s.logger.Debug("dashboard built",
		zap.String("period", string(period.Key)),
		zap.Time("start", cur.Start),
		zap.Time("end", cur.End),
		zap.Int("orders", len(orders)))

	return &dashboard, nil
}

func (s *DashboardService) lowStock(ctx context.Context) ([]report.LowStockItem, error) {
	products, err := s.products.FindLowStock(ctx, s.opts.LowStockThreshold)
	if err != nil {
		return nil, err
	}
	items := make([]report.LowStockItem, len(products))
	for i, p := range products {
		items[i] = report.LowStockItem{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.Name.UK,
			Stock:     p.Stock,
		}
	}
	return items, nil
}
