package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dukan-app/dukan/internal"
	"github.com/dukan-app/dukan/internal/events"
	"github.com/dukan-app/dukan/internal/handler/api"
	"github.com/dukan-app/dukan/internal/middleware"
	"github.com/dukan-app/dukan/internal/postgres"
	"github.com/dukan-app/dukan/internal/quickentry"
	"github.com/dukan-app/dukan/internal/router"
	"github.com/dukan-app/dukan/internal/routes"
	"github.com/dukan-app/dukan/internal/service"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize stores
	productStore := postgres.NewProductStore(pool)
	saleStore := postgres.NewSaleStore(pool)
	invoiceStore := postgres.NewInvoiceStore(pool)

	// Initialize event publisher
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NatsUrl != "" {
		logger.Info("Connecting to NATS...", "url", cfg.NatsUrl)
		natsPublisher, err := events.NewNATSPublisher(cfg.NatsUrl, logger)
		if err != nil {
			return fmt.Errorf("NATS connection failed: %w", err)
		}
		publisher = natsPublisher
		logger.Info("NATS connection established")
	}
	defer publisher.Close()

	// Initialize services
	productService := service.NewProductService(productStore)
	saleService := service.NewSaleService(saleStore, productService, publisher, logger)
	reportService := service.NewReportService(saleStore)
	invoiceService := service.NewInvoiceService(invoiceStore)
	draftManager := service.NewDraftManager(
		productService,
		quickentry.Matcher{CaseFold: cfg.QuickEntryCaseFold},
		cfg.DraftTTL,
	)

	// Initialize metrics
	metrics := middleware.NewMetrics(cfg.MetricsNamespace)

	// Build router with global middleware
	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		metrics.Middleware,
		router.Logger(logger),
	)

	routes.RegisterAPIRoutes(r, routes.APIDeps{
		ProductHandler: api.NewProductHandler(productService, logger),
		DraftHandler:   api.NewDraftHandler(draftManager, saleService, logger),
		SaleHandler:    api.NewSaleHandler(saleService, reportService, logger),
		InvoiceHandler: api.NewInvoiceHandler(invoiceService, logger),
		MetricsHandler: metrics.Handler(),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Starting server", "address", addr, "env", cfg.Env)

	if err := http.ListenAndServe(addr, r); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
