// Package transport defines the HTTP response shapes for catalog reads.
package transport

import (
	"sales_pricing_backend/internal/catalog/repository"
	"sales_pricing_backend/internal/catalog/service"
)

// UnitResponse is one sellable unit.
type UnitResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	ConversionFactor float64 `json:"conversionFactor"`
}

// WarehouseResponse is one stock location.
type WarehouseResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	OnHand    float64 `json:"onHand"`
	Available float64 `json:"available"`
}

// ProductDetailResponse is the aggregated product view.
type ProductDetailResponse struct {
	ID         string              `json:"id"`
	Code       string              `json:"code"`
	Name       string              `json:"name"`
	GroupCode  string              `json:"groupCode,omitempty"`
	GroupName  string              `json:"groupName,omitempty"`
	BaseUnit   string              `json:"baseUnit,omitempty"`
	Units      []UnitResponse      `json:"units"`
	Warehouses []WarehouseResponse `json:"warehouses"`
}

// NewUnitResponses maps the domain units.
func NewUnitResponses(units []repository.Unit) []UnitResponse {
	out := make([]UnitResponse, 0, len(units))
	for _, u := range units {
		out = append(out, UnitResponse{ID: u.ID, Name: u.Name, ConversionFactor: u.ConversionFactor})
	}
	return out
}

// NewWarehouseResponses maps the domain warehouses.
func NewWarehouseResponses(warehouses []repository.Warehouse) []WarehouseResponse {
	out := make([]WarehouseResponse, 0, len(warehouses))
	for _, w := range warehouses {
		out = append(out, WarehouseResponse{
			ID:        w.ID,
			Name:      w.Name,
			OnHand:    w.OnHand,
			Available: w.OnHand - w.Reserved,
		})
	}
	return out
}

// NewProductDetailResponse builds the response from the service aggregate.
func NewProductDetailResponse(d service.ProductDetail) ProductDetailResponse {
	return ProductDetailResponse{
		ID:         d.Product.ID,
		Code:       d.Product.Code,
		Name:       d.Product.Name,
		GroupCode:  d.Product.GroupCode,
		GroupName:  d.Product.GroupName,
		BaseUnit:   d.Product.BaseUnit,
		Units:      NewUnitResponses(d.Units),
		Warehouses: NewWarehouseResponses(d.Warehouses),
	}
}

// CustomerResponse is one customer.
type CustomerResponse struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	GroupLabels []string `json:"groupLabels,omitempty"`
	Region      string   `json:"region,omitempty"`
	LoyaltyTier string   `json:"loyaltyTier,omitempty"`
	PaymentTerm string   `json:"paymentTerm,omitempty"`
}

// NewCustomerResponse builds the response from the domain customer.
func NewCustomerResponse(c repository.Customer) CustomerResponse {
	return CustomerResponse{
		ID:          c.ID,
		Code:        c.Code,
		Name:        c.Name,
		GroupLabels: c.GroupLabels,
		Region:      c.Region,
		LoyaltyTier: c.LoyaltyTier,
		PaymentTerm: c.PaymentTerm,
	}
}
