// Package handler exposes the orders HTTP endpoints.
package handler

import (
	"sales_pricing_backend/internal/orders/repository"
	"sales_pricing_backend/internal/orders/service"
	"sales_pricing_backend/internal/orders/transport"
	"sales_pricing_backend/platform/apperr"
	"sales_pricing_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for orders.
type Handler struct {
	svc *service.Service
}

// New creates a new orders handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the order routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id", h.Get)
	rg.POST("/:id/recalculate", h.Recalculate)
}

func orderKind(c *gin.Context) (repository.OrderKind, bool) {
	kind := repository.OrderKind(c.DefaultQuery("kind", string(repository.KindOrder)))
	if !kind.Valid() {
		httpkit.HandleError(c, apperr.BadRequest("kind must be \"order\" or \"quote\""))
		return "", false
	}
	return kind, true
}

// Get returns the order header and its active lines.
func (h *Handler) Get(c *gin.Context) {
	kind, ok := orderKind(c)
	if !ok {
		return
	}
	orderID := c.Param("id")

	detail, err := h.svc.GetDetail(c.Request.Context(), kind, orderID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewOrderResponse(kind, detail.Summary, detail.Lines))
}

// Recalculate recomputes and persists the order aggregates.
func (h *Handler) Recalculate(c *gin.Context) {
	kind, ok := orderKind(c)
	if !ok {
		return
	}
	orderID := c.Param("id")

	agg, err := h.svc.Recalculate(c.Request.Context(), kind, orderID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewRecalculateResponse(kind, orderID, agg))
}
