// Package transport defines the HTTP request/response shapes for orders.
package transport

import (
	"time"

	"sales_pricing_backend/internal/orders/repository"
)

// RecalculateResponse returns the freshly written order aggregates.
type RecalculateResponse struct {
	OrderID   string `json:"orderId"`
	Kind      string `json:"kind"`
	Subtotal  string `json:"subtotal"`
	VATAmount string `json:"vatAmount"`
	Total     string `json:"total"`
}

// NewRecalculateResponse builds the response from the domain aggregates.
func NewRecalculateResponse(kind repository.OrderKind, orderID string, agg repository.Aggregates) RecalculateResponse {
	return RecalculateResponse{
		OrderID:   orderID,
		Kind:      string(kind),
		Subtotal:  agg.Subtotal.String(),
		VATAmount: agg.VATAmount.String(),
		Total:     agg.Total.String(),
	}
}

// LineResponse is one active order line.
type LineResponse struct {
	ID                  string  `json:"id"`
	ProductCode         string  `json:"productCode"`
	ProductGroupCode    string  `json:"productGroupCode,omitempty"`
	Quantity            string  `json:"quantity"`
	BaseUnitPrice       string  `json:"baseUnitPrice"`
	VATRate             int     `json:"vatRate"`
	DiscountedUnitPrice *string `json:"discountedUnitPrice,omitempty"`
	SecondaryUnitPrice  *string `json:"secondaryUnitPrice,omitempty"`
	PromotionID         string  `json:"promotionId,omitempty"`
}

// OrderResponse is the order header plus its active lines.
type OrderResponse struct {
	ID              string         `json:"id"`
	Kind            string         `json:"kind"`
	Number          string         `json:"number"`
	CustomerCode    string         `json:"customerCode"`
	PaymentTermCode string         `json:"paymentTermCode"`
	Subtotal        string         `json:"subtotal"`
	VATAmount       string         `json:"vatAmount"`
	Total           string         `json:"total"`
	CreatedOn       time.Time      `json:"createdOn"`
	Lines           []LineResponse `json:"lines"`
}

// NewOrderResponse builds the response from the domain projections.
func NewOrderResponse(kind repository.OrderKind, summary repository.OrderSummary, lines []repository.OrderLine) OrderResponse {
	out := OrderResponse{
		ID:              summary.ID,
		Kind:            string(kind),
		Number:          summary.Number,
		CustomerCode:    summary.CustomerCode,
		PaymentTermCode: summary.PaymentTermCode,
		Subtotal:        summary.Subtotal.String(),
		VATAmount:       summary.VATAmount.String(),
		Total:           summary.Total.String(),
		CreatedOn:       summary.CreatedOn,
		Lines:           make([]LineResponse, 0, len(lines)),
	}
	for _, line := range lines {
		lr := LineResponse{
			ID:               line.ID,
			ProductCode:      line.ProductCode,
			ProductGroupCode: line.ProductGroupCode,
			Quantity:         line.Quantity.String(),
			BaseUnitPrice:    line.BaseUnitPrice.String(),
			VATRate:          line.VATRate,
			PromotionID:      line.PromotionID,
		}
		if line.DiscountedUnitPrice != nil {
			v := line.DiscountedUnitPrice.String()
			lr.DiscountedUnitPrice = &v
		}
		if line.SecondaryUnitPrice != nil {
			v := line.SecondaryUnitPrice.String()
			lr.SecondaryUnitPrice = &v
		}
		out.Lines = append(out.Lines, lr)
	}
	return out
}
