// Package pricing provides the price resolution domain module.
package pricing

import (
	"time"

	catalogrepo "sales_pricing_backend/internal/catalog/repository"
	"sales_pricing_backend/internal/erp"
	apphttp "sales_pricing_backend/internal/http"
	"sales_pricing_backend/internal/pricing/handler"
	"sales_pricing_backend/internal/pricing/repository"
	"sales_pricing_backend/internal/pricing/service"
	"sales_pricing_backend/platform/cache"
	"sales_pricing_backend/platform/config"
	"sales_pricing_backend/platform/logger"
)

// Module represents the pricing domain module.
type Module struct {
	handler  *handler.Handler
	resolver *service.Resolver
}

// NewModule creates a new pricing module with all dependencies wired.
func NewModule(client *erp.Client, customers catalogrepo.Store, c cache.Cache, ttl time.Duration, cfg config.PricingConfig, log *logger.Logger) *Module {
	repo := repository.New(client)
	resolver := service.NewResolver(repo, customers, c, ttl, cfg.GetDefaultPriceTier(), log)
	h := handler.New(resolver)

	return &Module{
		handler:  h,
		resolver: resolver,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "pricing"
}

// Resolver returns the price resolver for other modules.
func (m *Module) Resolver() *service.Resolver {
	return m.resolver
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
