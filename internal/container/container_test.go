package container_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/application/catalog"
	"github.com/petstore/backend/internal/application/seed"
	"github.com/petstore/backend/internal/application/trade"
	"github.com/petstore/backend/internal/container"
	"github.com/petstore/backend/internal/infrastructure/config"
	"github.com/petstore/backend/internal/infrastructure/persistence"
	"github.com/petstore/backend/internal/infrastructure/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newContainer(t *testing.T) *container.Container {
	t.Helper()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	return container.New(db.DB, db, container.Options{
		AppName:           "petstore-test",
		Location:          time.UTC,
		WeekStart:         time.Monday,
		LowStockThreshold: 5,
		TopProductsLimit:  5,
	}, zap.NewNop())
}

func TestContainer_SeedDemoData(t *testing.T) {
	app := newContainer(t)
	ctx := context.Background()

	ds, err := seed.Default()
	require.NoError(t, err)

	seeded, err := app.Seeder().Run(ctx, ds)
	require.NoError(t, err)
	assert.True(t, seeded)

	_, products, err := app.Services.Products.List(ctx, catalog.ProductListFilter{Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(len(ds.Products)), products)

	_, orders, err := app.Services.Orders.List(ctx, trade.OrderListFilter{Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(len(ds.Orders)), orders)

	settlements, err := app.Services.Settlements.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, settlements.Settlements)

	dashboard, err := app.Services.Dashboard.Dashboard(ctx, "last_30_days", nil, nil)
	require.NoError(t, err)
	assert.True(t, dashboard.Revenue.Current.IsPositive())

	again, err := app.Seeder().Run(ctx, ds)
	require.NoError(t, err)
	assert.False(t, again, "a populated catalog is left alone")
}

func TestContainer_RegisterJobs(t *testing.T) {
	app := newContainer(t)

	s := scheduler.New(scheduler.Config{Location: time.UTC, JobTimeout: time.Minute}, zap.NewNop())
	require.NoError(t, app.RegisterJobs(s, "0 9 * * *"))

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, scheduler.JobOverdueReceipts, jobs[0].Name)
	assert.Equal(t, scheduler.JobLowStock, jobs[1].Name)

	require.NoError(t, s.RunNow(scheduler.JobOverdueReceipts))
	require.NoError(t, s.RunNow(scheduler.JobLowStock))

	require.Error(t, app.RegisterJobs(s, "not a cron spec"))
}
