package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mediagen/internal/adapter/repo"
	"mediagen/internal/analytics"
	"mediagen/internal/domain"
	"mediagen/internal/http/handlers"
	"mediagen/internal/http/httpapi"
	"mediagen/internal/infra"
	"mediagen/internal/infra/geoip"
	"mediagen/internal/lifecycle"
	"mediagen/internal/poller"
	"mediagen/internal/provider"
	"mediagen/internal/registry"
	"mediagen/internal/selector"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		bootLogger := infra.NewLogger("production")
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, endpoints, err := registry.LoadCatalog(cfg.ProviderCatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.ProviderCatalogPath).Msg("load provider catalog")
	}

	var (
		jobRepo     domain.JobRepository
		outcomeRepo domain.OutcomeRepository
		statsRepo   domain.ProviderStatsRepository
	)
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect database")
		}
		defer pool.Close()
		jobRepo = repo.NewJobRepository(pool)
		outcomeRepo = repo.NewOutcomeRepository(pool)
		statsRepo = repo.NewProviderStatsRepository(pool)
		logger.Info().Msg("using postgres repositories")
	} else {
		jobRepo = repo.NewMemoryJobRepository()
		outcomeRepo = repo.NewMemoryOutcomeRepository()
		statsRepo = repo.NewMemoryProviderStatsRepository()
		logger.Warn().Msg("DATABASE_URL not set, using in-memory repositories")
	}

	seed, err := statsRepo.Load(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("load provider stats, continuing with catalog seeds")
		seed = nil
	}
	reg := registry.New(providers, seed, logger)
	sel := selector.New(reg)

	clients := make(map[string]provider.Client, len(providers))
	for _, p := range providers {
		ep := endpoints[p.ID]
		if ep.BaseURL == "" {
			clients[p.ID] = provider.NewSynthetic(p.ID, time.Duration(p.ExpectedSeconds)*time.Second/10)
			logger.Info().Str("provider_id", p.ID).Msg("provider has no endpoint, using synthetic generator")
			continue
		}
		client, err := provider.NewHTTPClient(provider.HTTPOptions{
			ProviderID: p.ID,
			BaseURL:    ep.BaseURL,
			APIKey:     ep.APIKey,
			Logger:     logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Str("provider_id", p.ID).Msg("build provider client")
		}
		clients[p.ID] = client
	}

	recorder := analytics.NewRecorder(outcomeRepo, statsRepo, reg, logger)
	manager := lifecycle.NewManager(ctx, lifecycle.Config{
		MaxAttempts:     cfg.MaxAttempts,
		CallbackBaseURL: cfg.PublicBaseURL,
	}, reg, sel, clients, jobRepo, recorder, logger)
	watcher := poller.New(poller.Config{
		Interval:          cfg.PollInterval,
		TimeoutMultiplier: cfg.TimeoutMultiplier,
	}, manager, clients, logger)
	manager.SetWatcher(watcher)

	if err := manager.Recover(ctx); err != nil {
		logger.Fatal().Err(err).Msg("recover unfinished jobs")
	}

	geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
		geo = nil
	}

	app := &handlers.App{
		Logger:    logger,
		Jobs:      manager,
		Callbacks: watcher,
		Reports:   recorder,
		Registry:  reg,
		Geo:       geo,
	}
	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, cfg.RateLimitPerMin))

	logger.Info().Str("port", cfg.Port).Msg("api listening")
	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("http server stopped")
		os.Exit(1)
	}
	logger.Info().Msg("shutdown complete")
}
