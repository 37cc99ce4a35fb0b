package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/streampoints/raffle-backend/api/routes"
	"github.com/streampoints/raffle-backend/internal/draw"
	"github.com/streampoints/raffle-backend/internal/entries"
	"github.com/streampoints/raffle-backend/internal/grants"
	"github.com/streampoints/raffle-backend/internal/points"
	"github.com/streampoints/raffle-backend/internal/purchase"
	"github.com/streampoints/raffle-backend/internal/raffles"
	"github.com/streampoints/raffle-backend/pkg/config"
	"github.com/streampoints/raffle-backend/pkg/db"
	"github.com/streampoints/raffle-backend/pkg/logger"
	"github.com/streampoints/raffle-backend/pkg/metrics"
	"github.com/streampoints/raffle-backend/pkg/migrate"
	"github.com/streampoints/raffle-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	raffleMetrics := metrics.NewRaffleMetrics(prometheus.DefaultRegisterer)

	raffleRepo := raffles.NewRepository(dbClient.DB())
	entryRepo := entries.NewRepository(dbClient.DB())
	pointsRepo := points.NewRepository(dbClient.DB())
	winnerRepo := draw.NewWinnerRepository(dbClient.DB())

	raffleService, err := raffles.NewService(raffleRepo, entryRepo, winnerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create raffle service", err)
		os.Exit(1)
	}

	purchaseService, err := purchase.NewService(
		dbClient,
		raffleRepo,
		entryRepo,
		pointsRepo,
		logg,
		raffleMetrics,
		cfg.Raffle.PurchaseTxTimeout,
		cfg.Raffle.MaxQuantity,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase service", err)
		os.Exit(1)
	}

	drawService, err := draw.NewService(
		dbClient,
		raffleRepo,
		entryRepo,
		winnerRepo,
		logg,
		raffleMetrics,
		cfg.Raffle.DrawTxTimeout,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create draw service", err)
		os.Exit(1)
	}

	grantService, err := grants.NewService(
		dbClient,
		raffleRepo,
		entryRepo,
		pointsRepo,
		logg,
		cfg.Raffle.PurchaseTxTimeout,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create grant service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
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
			raffleService,
			purchaseService,
			drawService,
			grantService,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}
