// Package orders provides the order aggregate domain module.
package orders

import (
	"context"
	"time"

	"sales_pricing_backend/internal/erp"
	"sales_pricing_backend/internal/events"
	apphttp "sales_pricing_backend/internal/http"
	"sales_pricing_backend/internal/orders/handler"
	"sales_pricing_backend/internal/orders/repository"
	"sales_pricing_backend/internal/orders/service"
	"sales_pricing_backend/platform/cache"
	"sales_pricing_backend/platform/logger"
)

// Module represents the orders domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates a new orders module with all dependencies wired.
func NewModule(client *erp.Client, eventBus events.Bus, c cache.Cache, ttl time.Duration, log *logger.Logger) *Module {
	repo := repository.New(client)
	svc := service.New(repo, eventBus, c, ttl, log)
	h := handler.New(svc)

	subscribe(eventBus, svc, log)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// subscribe registers the module's event handlers. A promotion application
// is logged for the audit trail; both events drop the order's cached detail
// so the next read reflects the write.
func subscribe(bus events.Bus, svc *service.Service, log *logger.Logger) {
	bus.Subscribe(events.PromotionApplied{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		evt, ok := e.(events.PromotionApplied)
		if !ok {
			return nil
		}
		log.Info("promotion application recorded",
			"order_id", evt.OrderID,
			"order_kind", evt.OrderKind,
			"promotion_id", evt.PromotionID,
			"application_id", evt.ApplicationID,
			"lines_updated", evt.LinesUpdated,
			"reused", evt.Reused,
		)
		return svc.InvalidateDetail(ctx, repository.OrderKind(evt.OrderKind), evt.OrderID)
	}))
	bus.Subscribe(events.OrderRecalculated{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		evt, ok := e.(events.OrderRecalculated)
		if !ok {
			return nil
		}
		return svc.InvalidateDetail(ctx, repository.OrderKind(evt.OrderKind), evt.OrderID)
	}))
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "orders"
}

// Service returns the recalculator for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the order storage access for other modules.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	orders := ctx.V1.Group("/orders")
	m.handler.RegisterRoutes(orders)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
