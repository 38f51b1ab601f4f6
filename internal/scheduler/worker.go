package scheduler

import (
	"context"
	"fmt"

	ordersrepo "sales_pricing_backend/internal/orders/repository"
	ordersvc "sales_pricing_backend/internal/orders/service"
	"sales_pricing_backend/platform/config"
	"sales_pricing_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	recalc *ordersvc.Service
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, recalc *ordersvc.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		recalc: recalc,
		log:    log,
	}

	mux.HandleFunc(TaskOrderRecalculate, w.handleOrderRecalculate)

	return w, nil
}

func (w *Worker) handleOrderRecalculate(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseOrderRecalculatePayload(task)
	if err != nil {
		return err
	}

	kind := ordersrepo.OrderKind(payload.OrderKind)
	if !kind.Valid() {
		kind = ordersrepo.KindOrder
	}

	agg, err := w.recalc.Recalculate(ctx, kind, payload.OrderID)
	if err != nil {
		w.log.Error("deferred recalculation failed",
			"order_id", payload.OrderID, "kind", string(kind), "error", err.Error())
		return err
	}

	w.log.Info("deferred recalculation completed",
		"order_id", payload.OrderID, "kind", string(kind), "total", agg.Total.String())
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
