package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/schedule"
	"github.com/angelmondragon/storefront-backend/internal/settings"
	"github.com/angelmondragon/storefront-backend/internal/stock"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	loc, err := cfg.Store.Location()
	if err != nil {
		return err
	}
	clock := schedule.SystemClock(loc)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	loader, err := catalog.NewCachedLoader(catalogRepo, redisClient, cfg.Catalog.CacheTTL, logg)
	if err != nil {
		return err
	}
	catalogAdmin, err := catalog.NewAdminService(catalogRepo, loader, logg)
	if err != nil {
		return err
	}

	ledger, err := stock.NewLedger(stock.NewGormStore(dbClient.DB()), cfg.Store.LowStockThreshold)
	if err != nil {
		return err
	}
	stockAdmin, err := stock.NewAdmin(ledger, loader, logg)
	if err != nil {
		return err
	}

	sessions, err := cart.NewSessionStore(redisClient, cfg.Cart.SessionTTL)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(loader, sessions, clock, checkoutMetrics, logg)
	if err != nil {
		return err
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, logg)
	if err != nil {
		return err
	}

	checkoutService, err := checkout.NewService(checkout.Deps{
		Tx:       dbClient,
		Loader:   loader,
		Sessions: sessions,
		Orders:   ordersRepo,
		Stock:    checkout.NewLedgerCommitter(stock.NewGormStore(dbClient.DB())),
		Counter:  redisClient,
		Clock:    clock,
		Metrics:  checkoutMetrics,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	settingsService, err := settings.NewService(settings.Deps{
		Reader:      catalogRepo,
		Writer:      settings.NewRepository(dbClient.DB()),
		Loader:      loader,
		Clock:       clock,
		Invalidator: loader,
		PollSeconds: cfg.Store.StatusPollSeconds,
		Logger:      logg,
	})
	if err != nil {
		return err
	}

	router := routes.NewRouter(routes.Deps{
		Config:       cfg,
		Logger:       logg,
		DB:           dbClient,
		Redis:        redisClient,
		Gatherer:     registry,
		Catalog:      loader,
		IsLowStock:   ledger.IsLowStock,
		CatalogAdmin: catalogAdmin,
		StockAdmin:   stockAdmin,
		Cart:         cartService,
		Checkout:     checkoutService,
		Settings:     settingsService,
		Orders:       ordersService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
		"tz":   loc.String(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
