package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/petstore/backend/internal/application/seed"
	"github.com/petstore/backend/internal/container"
	"github.com/petstore/backend/internal/infrastructure/config"
	"github.com/petstore/backend/internal/infrastructure/logger"
	"github.com/petstore/backend/internal/infrastructure/persistence"
	"github.com/petstore/backend/internal/infrastructure/scheduler"
	"github.com/petstore/backend/internal/interfaces/http/middleware"
	"github.com/petstore/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting pet store backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	loc, err := cfg.Report.Location()
	if err != nil {
		log.Fatal("Invalid report timezone", zap.Error(err))
	}
	weekStart, err := cfg.Report.Weekday()
	if err != nil {
		log.Fatal("Invalid report week start", zap.Error(err))
	}

	// GORM logs through zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}
	log.Info("Database ready", zap.Bool("in_memory", cfg.Database.IsMemory()))

	app := container.New(db.DB, db, container.Options{
		AppName:           cfg.App.Name,
		Location:          loc,
		WeekStart:         weekStart,
		LowStockThreshold: cfg.Report.LowStockThreshold,
		TopProductsLimit:  cfg.Report.TopProductsLimit,
	}, log)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := app.Bus.Start(rootCtx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	if cfg.Database.Seed {
		if err := seedDemoData(rootCtx, app, log); err != nil {
			log.Fatal("Failed to seed demo data", zap.Error(err))
		}
	}

	var jobs *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobs = scheduler.New(scheduler.Config{Location: loc, JobTimeout: 5 * time.Minute}, log)
		if err := app.RegisterJobs(jobs, cfg.Scheduler.OverdueCheckCron); err != nil {
			log.Fatal("Failed to register scheduled jobs", zap.Error(err))
		}
		jobs.Start()
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine := router.NewEngine(router.EngineConfig{
		CORS:         cors,
		Security:     middleware.DefaultSecurityConfig(),
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
	}, log)
	router.Mount(engine, app.Handlers)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if jobs != nil {
		if err := jobs.Stop(ctx); err != nil {
			log.Warn("Scheduled jobs did not finish in time", zap.Error(err))
		}
	}
	stop()
	if err := app.Bus.Stop(ctx); err != nil {
		log.Warn("Event bus stop failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func seedDemoData(ctx context.Context, app *container.Container, log *zap.Logger) error {
	ds, err := seed.Default()
	if err != nil {
		return err
	}
	seeded, err := app.Seeder().Run(ctx, ds)
	if err != nil {
		return err
	}
	if seeded {
		log.Info("Demo data loaded",
			zap.Int("products", len(ds.Products)),
			zap.Int("orders", len(ds.Orders)),
		)
	}
	return nil
}
