// Package promotions provides the promotion evaluation and application
// domain module.
package promotions

import (
	"sales_pricing_backend/internal/erp"
	"sales_pricing_backend/internal/events"
	apphttp "sales_pricing_backend/internal/http"
	ordersrepo "sales_pricing_backend/internal/orders/repository"
	"sales_pricing_backend/internal/promotions/handler"
	"sales_pricing_backend/internal/promotions/repository"
	"sales_pricing_backend/internal/promotions/service"
	"sales_pricing_backend/platform/config"
	"sales_pricing_backend/platform/logger"
	"sales_pricing_backend/platform/validator"
)

// Module represents the promotions domain module.
type Module struct {
	handler    *handler.Handler
	service    *service.Service
	applicator *service.Applicator
}

// NewModule creates a new promotions module with all dependencies wired.
// scheduler may be nil when no deferred reconciliation backend is configured.
func NewModule(
	client *erp.Client,
	orders ordersrepo.Repository,
	recalc service.Recalculator,
	scheduler service.ReconcileScheduler,
	terms *config.PaymentTerms,
	eventBus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(client)
	matcher := service.NewScopeMatcher(terms)
	svc := service.New(repo, matcher, log)
	applicator := service.NewApplicator(repo, repo, orders, matcher, recalc, scheduler, eventBus, log)
	h := handler.New(svc, applicator, val)

	return &Module{
		handler:    h,
		service:    svc,
		applicator: applicator,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "promotions"
}

// Applicator returns the apply sequence for other entry points (worker).
func (m *Module) Applicator() *service.Applicator {
	return m.applicator
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	promotions := ctx.V1.Group("/promotions")
	m.handler.RegisterRoutes(promotions, ctx.V1)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
