package commands

import (
	"fmt"

	"github.com/quantlab-in/niftybias/internal/bias"
	"github.com/quantlab-in/niftybias/internal/contracts"
	"github.com/quantlab-in/niftybias/internal/features"
	"github.com/quantlab-in/niftybias/internal/fetch"
	"github.com/quantlab-in/niftybias/internal/fetch/sources"
	"github.com/quantlab-in/niftybias/internal/pipeline"
	"github.com/quantlab-in/niftybias/internal/store"
	"github.com/quantlab-in/niftybias/pkg/config"
	"github.com/quantlab-in/niftybias/pkg/database"
	"github.com/quantlab-in/niftybias/pkg/httputil"
	"github.com/quantlab-in/niftybias/pkg/logger"
	"github.com/quantlab-in/niftybias/pkg/redis"
)

// app bundles the wired dependencies shared by every command.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB
	redis   *redis.Client
	cache   *redis.Cache
	repo    *store.Repository
	biasEng *bias.Engine
	runner  *pipeline.Runner
}

// initApp wires the full dependency graph: config, logger, database,
// redis, HTTP clients, source adapters, engines and the pipeline runner.
func initApp() (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// 4. Connect to redis (no-op client when disabled)
	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	cache := redis.NewCache(redisClient, "niftybias")
	limiter := redis.NewRateLimiter(redisClient, "ratelimit")

	// 5. Create HTTP clients. NSE and CNN throttle aggressively, so those
	// clients go through the shared rate limiter; Yahoo carries its own.
	nseClient := httputil.New(cfg, log).WithRateLimiter(limiter, redis.NSERateLimit)
	cnnClient := httputil.New(cfg, log).WithRateLimiter(limiter, redis.CNNRateLimit)
	webClient := httputil.New(cfg, log)

	yahoo := sources.NewYahooClient(cfg, webClient, log)

	// 6. Create source adapters
	primary := sources.NewFIIDII(cfg, nseClient, log)
	others := []contracts.SourceAdapter{
		sources.NewFuturesOI(cfg, nseClient, log),
		sources.NewOptionChain(cfg, nseClient, log),
		sources.NewVIX(cfg, nseClient, log),
		sources.NewSP500(yahoo, log),
		sources.NewUSMarkets(yahoo, log),
		sources.NewGiftNifty(cfg, webClient, yahoo, log),
		sources.NewNiftyTrend(yahoo, log),
		sources.NewFearGreed(cfg, cnnClient, log),
	}

	// 7. Create repository and engines
	repo := store.NewRepository(db.Pool, log)
	retry := fetch.NewRetryPolicy(cfg.Fetch, log)
	orch := fetch.NewOrchestrator(retry, primary, others, repo, log)
	featEng := features.NewEngine(cfg.Signals, log)
	biasEng := bias.NewEngine(cfg.Signals)

	// 8. Create pipeline runner
	runner := pipeline.NewRunner(orch, featEng, biasEng, repo, cfg, log)

	return &app{
		cfg:     cfg,
		log:     log,
		db:      db,
		redis:   redisClient,
		cache:   cache,
		repo:    repo,
		biasEng: biasEng,
		runner:  runner,
	}, nil
}

// close releases the app's connections.
func (a *app) close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis client")
	}
	a.db.Close()
}
