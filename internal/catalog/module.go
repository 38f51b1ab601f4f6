// Package catalog provides the catalog reference-data domain module.
package catalog

import (
	"time"

	"sales_pricing_backend/internal/catalog/handler"
	"sales_pricing_backend/internal/catalog/repository"
	"sales_pricing_backend/internal/catalog/service"
	"sales_pricing_backend/internal/erp"
	apphttp "sales_pricing_backend/internal/http"
	"sales_pricing_backend/platform/cache"
	"sales_pricing_backend/platform/logger"
)

// Module represents the catalog domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Store
}

// NewModule creates a new catalog module with all dependencies wired.
func NewModule(client *erp.Client, c cache.Cache, ttl time.Duration, log *logger.Logger) *Module {
	repo := repository.New(client)
	svc := service.New(repo, c, ttl, log)
	h := handler.New(svc)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "catalog"
}

// Store returns the catalog read access for other modules.
func (m *Module) Store() repository.Store {
	return m.repo
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/catalog"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
