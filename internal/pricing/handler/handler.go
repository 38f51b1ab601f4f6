// Package handler exposes the price resolution endpoint.
package handler

import (
	"sales_pricing_backend/internal/pricing/service"
	"sales_pricing_backend/internal/pricing/transport"
	"sales_pricing_backend/platform/apperr"
	"sales_pricing_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Handler handles HTTP requests for price resolution.
type Handler struct {
	resolver *service.Resolver
}

// New creates a new pricing handler.
func New(resolver *service.Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// RegisterRoutes registers the pricing routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/price", h.Resolve)
}

// Resolve returns the preferred price plus the full per-unit price table
// for a product and customer context.
func (h *Handler) Resolve(c *gin.Context) {
	query := service.ResolveQuery{
		ProductCode:  c.Query("productCode"),
		CustomerCode: c.Query("customerCode"),
		CustomerID:   c.Query("customerId"),
		Region:       c.Query("region"),
	}
	if raw := c.Query("quantity"); raw != "" {
		qty, err := decimal.NewFromString(raw)
		if err != nil {
			httpkit.HandleError(c, apperr.Validation("quantity must be a number"))
			return
		}
		query.Quantity = qty
	}

	resolution, err := h.resolver.Resolve(c.Request.Context(), query)
	if httpkit.HandleError(c, err) {
		return
	}
	if resolution.Status == service.StatusNotFound {
		httpkit.HandleError(c, apperr.NotFound("no price list entries for product"))
		return
	}

	httpkit.OK(c, transport.NewResolutionResponse(resolution))
}
