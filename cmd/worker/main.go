package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sales_pricing_backend/internal/erp"
	"sales_pricing_backend/internal/events"
	"sales_pricing_backend/internal/orders/repository"
	"sales_pricing_backend/internal/orders/service"
	"sales_pricing_backend/internal/scheduler"
	"sales_pricing_backend/platform/cache"
	"sales_pricing_backend/platform/config"
	"sales_pricing_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env, "queue", cfg.AsynqQueueName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens := erp.NewClientCredentialsProvider(cfg.TokenURL, cfg.TokenClientID, cfg.TokenClientSecret)
	erpClient := erp.NewClient(cfg, tokens, log)

	eventBus := events.NewInMemoryBus(log)
	recalc := service.New(repository.New(erpClient), eventBus, cache.NewNoop(), 0, log)

	worker, err := scheduler.NewWorker(cfg, recalc, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("worker stopped")
}
