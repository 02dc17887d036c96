package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"

	"github.com/stakeline/stakeline-backend/api/routes"
	"github.com/stakeline/stakeline-backend/internal/commission"
	"github.com/stakeline/stakeline-backend/internal/limits"
	"github.com/stakeline/stakeline-backend/internal/notifications"
	"github.com/stakeline/stakeline-backend/internal/rates"
	"github.com/stakeline/stakeline-backend/internal/stats"
	"github.com/stakeline/stakeline-backend/internal/tip"
	"github.com/stakeline/stakeline-backend/internal/vault"
	"github.com/stakeline/stakeline-backend/internal/wallet"
	"github.com/stakeline/stakeline-backend/pkg/config"
	"github.com/stakeline/stakeline-backend/pkg/db"
	"github.com/stakeline/stakeline-backend/pkg/lock"
	"github.com/stakeline/stakeline-backend/pkg/logger"
	"github.com/stakeline/stakeline-backend/pkg/metrics"
	"github.com/stakeline/stakeline-backend/pkg/migrate"
	"github.com/stakeline/stakeline-backend/pkg/outbox"
	"github.com/stakeline/stakeline-backend/pkg/redis"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	lockManager, err := lock.NewManager(redisClient, lock.Config{
		SingleTTL:    cfg.Lock.SingleTTL,
		BatchTTL:     cfg.Lock.BatchTTL,
		VaultTTL:     cfg.Lock.VaultTTL,
		TipTTL:       cfg.Lock.TipTTL,
		SwitchTTL:    cfg.Lock.SwitchTTL,
		RetryCount:   cfg.Lock.RetryCount,
		RetryBackoff: cfg.Lock.RetryBackoff,
	}, metrics.NewLockMetrics(registry), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create lock manager", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	statsService, err := stats.NewService(stats.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create stats service", err)
		os.Exit(1)
	}

	commissionAccumulator, err := commission.NewAccumulator(dbClient.DB(), decimal.Zero)
	if err != nil {
		logg.Error(context.Background(), "failed to create commission accumulator", err)
		os.Exit(1)
	}

	rateSource, err := rates.NewCachedSource(rates.NewStaticSource(nil), redisClient, 0, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create rate source", err)
		os.Exit(1)
	}

	walletRepo := wallet.NewRepository(dbClient.DB())

	dailyLimits, err := cfg.Limits.DailyWithdrawLimits()
	if err != nil {
		logg.Error(context.Background(), "failed to parse daily withdrawal limits", err)
		os.Exit(1)
	}
	limitsChecker, err := limits.NewChecker(
		limits.NewDBPolicySource(dbClient.DB()),
		limits.NewHistoryStats(dbClient.DB()),
		walletRepo,
		dailyLimits,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create limits checker", err)
		os.Exit(1)
	}

	bounds, err := wallet.BoundsFromConfig(cfg.Limits)
	if err != nil {
		logg.Error(context.Background(), "failed to parse ledger bounds", err)
		os.Exit(1)
	}

	walletService, err := wallet.NewService(wallet.Params{
		DB:         dbClient,
		Repo:       walletRepo,
		Locks:      lockManager,
		Outbox:     outboxService,
		Notifier:   notificationsService,
		Cache:      redisClient,
		Stats:      statsService,
		Commission: commissionAccumulator,
		Limits:     limitsChecker,
		Rates:      rateSource,
		Bounds:     bounds,
		BatchMax:   cfg.Batch.MaxOperations,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	vaultService, err := vault.NewService(vault.Params{
		DB:       dbClient,
		Repo:     vault.NewRepository(dbClient.DB()),
		Ledger:   walletService,
		Locks:    lockManager,
		Outbox:   outboxService,
		Notifier: notificationsService,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create vault service", err)
		os.Exit(1)
	}

	tipService, err := tip.NewService(tip.Params{
		DB:     dbClient,
		Ledger: walletService,
		Users:  tip.NewWalletDirectory(dbClient.DB()),
		Locks:  lockManager,
		Outbox: outboxService,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create tip service", err)
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
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, routes.Services{
			Wallet:        walletService,
			Vault:         vaultService,
			Tip:           tipService,
			Notifications: notificationsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
