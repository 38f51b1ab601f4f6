// Package handler exposes the promotions HTTP endpoints.
package handler

import (
	ordersrepo "sales_pricing_backend/internal/orders/repository"
	promorepo "sales_pricing_backend/internal/promotions/repository"
	"sales_pricing_backend/internal/promotions/service"
	"sales_pricing_backend/internal/promotions/transport"
	"sales_pricing_backend/platform/apperr"
	"sales_pricing_backend/platform/httpkit"
	"sales_pricing_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for promotions.
type Handler struct {
	svc        *service.Service
	applicator *service.Applicator
	val        *validator.Validator
}

// New creates a new promotions handler.
func New(svc *service.Service, applicator *service.Applicator, val *validator.Validator) *Handler {
	return &Handler{svc: svc, applicator: applicator, val: val}
}

// RegisterRoutes registers the promotion routes on the given groups. The
// apply endpoint lives at the API root, matching the inbound contract.
func (h *Handler) RegisterRoutes(promotions, root *gin.RouterGroup) {
	promotions.GET("", h.List)
	root.POST("/apply-promotion", h.Apply)
}

// List returns active promotions annotated with applicability for the
// queried product/customer/payment-term context.
func (h *Handler) List(c *gin.Context) {
	query := service.ListQuery{
		ProductCode:       c.Query("productCode"),
		ProductGroupCodes: c.Query("productGroupCodes"),
		CustomerCode:      c.Query("customerCode"),
		PaymentTerms:      c.Query("paymentTerms"),
	}

	annotated, err := h.svc.List(c.Request.Context(), query)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.PromotionResponse, 0, len(annotated))
	for _, a := range annotated {
		out = append(out, transport.NewPromotionResponse(a))
	}
	httpkit.OK(c, gin.H{"promotions": out})
}

// Apply attaches a promotion to an order: creates (or reuses) the
// application record, writes stacked line discounts and recalculates the
// order aggregates.
func (h *Handler) Apply(c *gin.Context) {
	var req transport.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidRequest))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(msgValidationFailed).WithDetails(err.Error()))
		return
	}

	input := service.ApplyInput{
		OrderID:           req.OrderID,
		OrderKind:         ordersrepo.KindOrder,
		PromotionID:       req.PromotionID,
		OverrideKind:      promorepo.DiscountKind(req.Kind),
		ProductCodes:      req.ProductCodes,
		ProductGroupCodes: req.ProductGroupCodes,
		IsSecondary:       req.IsSecondary,
	}
	if req.OrderKind != "" {
		input.OrderKind = ordersrepo.OrderKind(req.OrderKind)
	}
	if req.Value != nil {
		v := decimal.NewFromFloat(*req.Value)
		input.OverrideValue = &v
	}

	result, err := h.applicator.Apply(c.Request.Context(), input)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewApplyResponse(result))
}
