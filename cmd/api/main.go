package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sales_pricing_backend/internal/catalog"
	"sales_pricing_backend/internal/erp"
	"sales_pricing_backend/internal/events"
	apphttp "sales_pricing_backend/internal/http"
	"sales_pricing_backend/internal/http/router"
	"sales_pricing_backend/internal/orders"
	"sales_pricing_backend/internal/pricing"
	"sales_pricing_backend/internal/promotions"
	promosvc "sales_pricing_backend/internal/promotions/service"
	"sales_pricing_backend/internal/scheduler"
	"sales_pricing_backend/platform/cache"
	"sales_pricing_backend/platform/config"
	"sales_pricing_backend/platform/logger"
	"sales_pricing_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	responseCache := newCache(cfg, log)

	tokens := erp.NewClientCredentialsProvider(cfg.TokenURL, cfg.TokenClientID, cfg.TokenClientSecret)
	erpClient := erp.NewClient(cfg, tokens, log)

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Deferred-recalculation queue. Optional: without Redis the apply path
	// simply has no fallback when inline recalculation fails.
	var reconciler promosvc.ReconcileScheduler
	if cfg.RedisURL != "" {
		client, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize task queue client", "error", err)
			panic("failed to initialize task queue client: " + err.Error())
		}
		defer client.Close()
		reconciler = client
		log.Info("task queue client initialized", "queue", cfg.AsynqQueueName)
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	catalogModule := catalog.NewModule(erpClient, responseCache, cfg.CacheTTL, log)
	ordersModule := orders.NewModule(erpClient, eventBus, responseCache, cfg.CacheTTL, log)
	pricingModule := pricing.NewModule(erpClient, catalogModule.Store(), responseCache, cfg.CacheTTL, cfg, log)
	promotionsModule := promotions.NewModule(
		erpClient,
		ordersModule.Repository(),
		ordersModule.Service(),
		reconciler,
		cfg.PaymentTerms,
		eventBus,
		val,
		log,
	)

	app := &apphttp.App{
		Config:         cfg,
		Logger:         log,
		Health:         erpClient,
		EventBus:       eventBus,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Modules: []apphttp.Module{
			catalogModule,
			ordersModule,
			pricingModule,
			promotionsModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", "error", err)
			stop()
		}
	}()
	log.Info("server listening", "addr", cfg.HTTPAddr)

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("shutdown complete")
}

// newCache selects the response-cache backend. The cache is a performance
// optimization only; "none" is always a safe choice.
func newCache(cfg *config.Config, log *logger.Logger) cache.Cache {
	switch cfg.CacheBackend {
	case "redis":
		c, err := cache.NewRedis(cfg.CacheRedisURL, cfg.RedisTLSInsecure)
		if err != nil {
			log.Error("failed to initialize redis cache, falling back to memory", "error", err)
			return cache.NewMemory()
		}
		log.Info("redis response cache initialized")
		return c
	case "none":
		return cache.NewNoop()
	default:
		return cache.NewMemory()
	}
}
