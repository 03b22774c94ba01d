package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/petstore/backend/internal/application/seed"
	"github.com/petstore/backend/internal/container"
	"github.com/petstore/backend/internal/infrastructure/config"
	"github.com/petstore/backend/internal/infrastructure/logger"
	"github.com/petstore/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Database.IsMemory() {
		log.Fatal("Refusing to migrate a volatile in-memory database; set database.dsn or use postgres")
	}

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel(logLevel)))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	switch command {
	case "up":
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Migration failed", zap.Error(err))
		}
		log.Info("Schema is up to date")

	case "status":
		for _, model := range persistence.Models() {
			fmt.Printf("%-28T %v\n", model, db.DB.Migrator().HasTable(model))
		}

	case "seed":
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Migration failed", zap.Error(err))
		}
		loc, err := cfg.Report.Location()
		if err != nil {
			log.Fatal("Invalid report timezone", zap.Error(err))
		}
		weekStart, err := cfg.Report.Weekday()
		if err != nil {
			log.Fatal("Invalid report week start", zap.Error(err))
		}
		ds, err := seed.Default()
		if err != nil {
			log.Fatal("Invalid seed data", zap.Error(err))
		}
		app := container.New(db.DB, db, container.Options{
			AppName:           cfg.App.Name,
			Location:          loc,
			WeekStart:         weekStart,
			LowStockThreshold: cfg.Report.LowStockThreshold,
			TopProductsLimit:  cfg.Report.TopProductsLimit,
		}, log)
		seeded, err := app.Seeder().Run(context.Background(), ds)
		if err != nil {
			log.Fatal("Seeding failed", zap.Error(err))
		}
		if !seeded {
			log.Info("Catalog already has products, nothing seeded")
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: migrate [flags] <command>

Commands:
  up       Create or update every table
  status   Show which tables exist
  seed     Migrate, then load the demo data into an empty catalog

Flags:
  -log-level string   Log level (debug, info, warn, error) (default "info")

Configuration is read the same way as the server: config.toml, .env and
PETSTORE_* environment variables.`)
}
