package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/madinabek/flowershop-backend/api/routes"
	"github.com/madinabek/flowershop-backend/internal/cart"
	"github.com/madinabek/flowershop-backend/internal/inventory"
	"github.com/madinabek/flowershop-backend/internal/orders"
	"github.com/madinabek/flowershop-backend/internal/pricing"
	"github.com/madinabek/flowershop-backend/internal/slots"
	"github.com/madinabek/flowershop-backend/internal/tracking"
	"github.com/madinabek/flowershop-backend/pkg/config"
	"github.com/madinabek/flowershop-backend/pkg/db"
	"github.com/madinabek/flowershop-backend/pkg/logger"
	"github.com/madinabek/flowershop-backend/pkg/metrics"
	"github.com/madinabek/flowershop-backend/pkg/migrate"
	"github.com/madinabek/flowershop-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	lifecycleMetrics := metrics.NewLifecycleMetrics(registry)

	calculator, err := pricing.NewCalculator(cfg.Pricing, cfg.Delivery)
	if err != nil {
		logg.Error(context.Background(), "failed to build price calculator", err)
		os.Exit(1)
	}

	slotPlanner, err := slots.NewPlanner(cfg.Delivery)
	if err != nil {
		logg.Error(context.Background(), "failed to build slot planner", err)
		os.Exit(1)
	}

	inventoryRepo := inventory.NewRepository(dbClient.DB())
	inventoryService, err := inventory.NewService(inventoryRepo, dbClient, calculator, lifecycleMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	snapshotStore, err := cart.NewRedisStore(redisClient, cfg.Cart.SnapshotTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart snapshot store", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(snapshotStore, inventoryRepo, calculator)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, dbClient, inventoryService, inventoryRepo, calculator, slotPlanner, lifecycleMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	trackingPresenter, err := tracking.NewPresenter(ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create tracking presenter", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			inventoryService,
			cartService,
			ordersService,
			slotPlanner,
			trackingPresenter,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
