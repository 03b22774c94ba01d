package scheduler

import (
	"context"

	"github.com/petstore/backend/internal/application/catalog"
	"github.com/petstore/backend/internal/domain/warehouse"
	"go.uber.org/zap"
)

// Job names
const (
	JobOverdueReceipts = "overdue_receipts"
	JobLowStock        = "low_stock"
)

// OverdueSource lists suppliers with overdue unpaid receipts
type OverdueSource interface {
	Overdue(ctx context.Context) ([]warehouse.Settlement, error)
}

// LowStockSource lists products at or below the low-stock threshold
type LowStockSource interface {
	ListLowStock(ctx context.Context, threshold int) ([]catalog.ProductResponse, error)
}

// OverdueReceiptsJob logs one warning per supplier with overdue receipts
type OverdueReceiptsJob struct {
	source OverdueSource
	logger *zap.Logger
}

// NewOverdueReceiptsJob creates a new OverdueReceiptsJob
func NewOverdueReceiptsJob(source OverdueSource, logger *zap.Logger) *OverdueReceiptsJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverdueReceiptsJob{source: source, logger: logger}
}

// Name returns the job name
func (j *OverdueReceiptsJob) Name() string { return JobOverdueReceipts }

// Run checks supplier settlements for overdue debt
func (j *OverdueReceiptsJob) Run(ctx context.Context) error {
	settlements, err := j.source.Overdue(ctx)
	if err != nil {
		return err
	}
	for _, s := range settlements {
		j.logger.Warn("Overdue supplier receipts",
			zap.String("supplier_id", s.SupplierID.String()),
			zap.String("supplier", s.SupplierName),
			zap.Int("overdue_count", s.OverdueCount),
			zap.String("overdue_amount", s.OverdueAmount.StringFixed(2)),
			zap.String("outstanding", s.Outstanding.StringFixed(2)))
	}
	j.logger.Info("Overdue check finished", zap.Int("suppliers", len(settlements)))
	return nil
}

// LowStockJob logs active products running out of stock
type LowStockJob struct {
	source LowStockSource
	logger *zap.Logger
}

// NewLowStockJob creates a new LowStockJob using the source's own threshold
func NewLowStockJob(source LowStockSource, logger *zap.Logger) *LowStockJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LowStockJob{source: source, logger: logger}
}

// Name returns the job name
func (j *LowStockJob) Name() string { return JobLowStock }

// Run lists low-stock products
func (j *LowStockJob) Run(ctx context.Context) error {
	products, err := j.source.ListLowStock(ctx, 0)
	if err != nil {
		return err
	}
	for _, p := range products {
		j.logger.Warn("Low stock",
			zap.String("product_id", p.ID.String()),
			zap.String("sku", p.SKU),
			zap.Int("stock", p.Stock))
	}
	j.logger.Info("Low stock check finished", zap.Int("products", len(products)))
	return nil
}
