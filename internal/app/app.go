package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"voltcity/internal/config"
	"voltcity/internal/db"
	httpserver "voltcity/internal/http"
	"voltcity/internal/http/handlers"
	"voltcity/internal/metrics"
	redisstore "voltcity/internal/redis"
	"voltcity/internal/repository"
	"voltcity/internal/service"
	"voltcity/internal/ws"
)

// App wires the charging engine dependencies.
type App struct {
	server      *httpserver.Server
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	redisClient, err := redisstore.NewClient(cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	accountRepo := repository.NewAccountRepository(sqlDB)
	stationRepo := repository.NewStationRepository(sqlDB)
	txRepo := repository.NewTransactionRepository(sqlDB)

	activeStore := redisstore.NewStore(redisClient, cfg.ActiveChargeTTL())

	hub := ws.NewHub(logger)
	feed := ws.NewServer(hub, logger)

	pricing := service.NewTariffTable(service.TariffFixed, map[string]service.PricingStrategy{
		service.TariffFixed: service.FixedPricing{
			AmountMinor: cfg.Pricing.FixedAmountMinor,
			EnergyKWh:   cfg.Pricing.FixedEnergyKWh,
		},
		service.TariffPerKWh: service.PerKWhPricing{
			PricePerKWhMinor: cfg.Pricing.PricePerKWhMinor,
			EnergyKWh:        cfg.Pricing.FixedEnergyKWh,
		},
	})

	chargeService := service.NewChargeService(service.ChargeDeps{
		Ledger:               accountRepo,
		Registry:             stationRepo,
		TxLog:                txRepo,
		Pricing:              pricing,
		Cache:                activeStore,
		Events:               hub,
		Logger:               logger,
		CompensationAttempts: cfg.Compensation.MaxAttempts,
	})
	walletService := service.NewWalletService(accountRepo, logger)
	stationService := service.NewStationService(stationRepo, hub, logger)

	routes := httpserver.Routes{
		StartCharge:    handlers.NewStartChargeHandler(chargeService),
		FinishCharge:   handlers.NewFinishChargeHandler(chargeService),
		TransactionsMe: handlers.NewTransactionsMeHandler(chargeService),
		WalletMe:       handlers.NewWalletMeHandler(walletService),
		WalletTopUp:    handlers.NewWalletTopUpHandler(walletService),
		StationsList:   handlers.NewStationsListHandler(stationService),
		StationsStats:  handlers.NewStationsStatsHandler(stationService),
		ToggleStation:  handlers.NewToggleStationHandler(stationService),
		StationFeed:    feed.HandleWS,
		Metrics:        metrics.Handler(),
		Health:         handlers.NewHealthHandler(),
	}

	router := httpserver.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts the HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
