// Package handler exposes the catalog read endpoints.
package handler

import (
	"strconv"

	"sales_pricing_backend/internal/catalog/service"
	"sales_pricing_backend/internal/catalog/transport"
	"sales_pricing_backend/platform/apperr"
	"sales_pricing_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for catalog reads.
type Handler struct {
	svc *service.Service
}

// New creates a new catalog handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the catalog routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/products/:code", h.GetProduct)
	rg.GET("/units", h.ListUnits)
	rg.GET("/warehouses", h.ListWarehouses)
	rg.GET("/customers", h.SearchCustomers)
	rg.GET("/customers/:code", h.GetCustomer)
}

// GetProduct returns a product with its units and warehouse stock.
func (h *Handler) GetProduct(c *gin.Context) {
	code := c.Param("code")
	detail, err := h.svc.GetProductDetail(c.Request.Context(), code)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewProductDetailResponse(detail))
}

func productCodeQuery(c *gin.Context) (string, bool) {
	code := c.Query("productCode")
	if code == "" {
		httpkit.HandleError(c, apperr.BadRequest("productCode is required"))
		return "", false
	}
	return code, true
}

// ListUnits returns the sellable units of one product.
func (h *Handler) ListUnits(c *gin.Context) {
	code, ok := productCodeQuery(c)
	if !ok {
		return
	}
	units, err := h.svc.ListUnits(c.Request.Context(), code)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"units": transport.NewUnitResponses(units)})
}

// ListWarehouses returns the per-warehouse stock of one product.
func (h *Handler) ListWarehouses(c *gin.Context) {
	code, ok := productCodeQuery(c)
	if !ok {
		return
	}
	warehouses, err := h.svc.ListWarehouses(c.Request.Context(), code)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"warehouses": transport.NewWarehouseResponses(warehouses)})
}

// GetCustomer returns one customer by code.
func (h *Handler) GetCustomer(c *gin.Context) {
	code := c.Param("code")
	customer, err := h.svc.GetCustomer(c.Request.Context(), code)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewCustomerResponse(customer))
}

// SearchCustomers returns customers matching ?q, capped by ?limit.
func (h *Handler) SearchCustomers(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		httpkit.HandleError(c, apperr.BadRequest("q is required"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	customers, err := h.svc.SearchCustomers(c.Request.Context(), term, limit)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.CustomerResponse, 0, len(customers))
	for _, customer := range customers {
		out = append(out, transport.NewCustomerResponse(customer))
	}
	httpkit.OK(c, gin.H{"customers": out})
}
