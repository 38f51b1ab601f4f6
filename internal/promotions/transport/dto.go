// Package transport defines the HTTP request/response shapes for promotions.
package transport

import (
	"time"

	"sales_pricing_backend/internal/promotions/repository"
	"sales_pricing_backend/internal/promotions/service"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// displayValue converts an internal fractional percentage back to the
// whole-number convention callers expect; fixed amounts pass through.
func displayValue(kind repository.DiscountKind, v decimal.Decimal) string {
	if kind == repository.KindPercentage {
		return v.Mul(oneHundred).String()
	}
	return v.String()
}

// PromotionResponse is one promotion annotated with applicability.
type PromotionResponse struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Kind                 string     `json:"kind"`
	Value                string     `json:"value"`
	Value2               *string    `json:"value2,omitempty"`
	Value3               *string    `json:"value3,omitempty"`
	Cumulative           bool       `json:"cumulative"`
	QuantityThreshold    string     `json:"quantityThreshold,omitempty"`
	QuantityThreshold3   string     `json:"quantityThreshold3,omitempty"`
	TotalAmountThreshold string     `json:"totalAmountThreshold,omitempty"`
	ProductCodes         string     `json:"productCodes,omitempty"`
	ProductGroupCodes    string     `json:"productGroupCodes,omitempty"`
	PaymentTerms         string     `json:"paymentTerms,omitempty"`
	StartDate            time.Time  `json:"startDate"`
	EndDate              *time.Time `json:"endDate,omitempty"`
	IsOrderLevel         bool       `json:"isOrderLevel"`
	IsSecondaryDiscount  bool       `json:"isSecondaryDiscount"`

	Applicable           bool   `json:"applicable"`
	PaymentTermsMismatch bool   `json:"paymentTermsMismatch"`
	WarningMessage       string `json:"warningMessage,omitempty"`
}

// NewPromotionResponse builds the response from an annotated promotion.
func NewPromotionResponse(a service.AnnotatedPromotion) PromotionResponse {
	p := a.Promotion
	out := PromotionResponse{
		ID:                   p.ID,
		Name:                 p.Name,
		Kind:                 string(p.Kind),
		Value:                displayValue(p.Kind, p.Value),
		Cumulative:           p.Cumulative,
		ProductCodes:         p.ProductCodes,
		ProductGroupCodes:    p.ProductGroupCodes,
		PaymentTerms:         p.PaymentTerms,
		StartDate:            p.StartDate,
		EndDate:              p.EndDate,
		IsOrderLevel:         p.IsOrderLevel,
		IsSecondaryDiscount:  p.IsSecondaryDiscount,
		Applicable:           a.Applicable,
		PaymentTermsMismatch: a.PaymentTermsMismatch,
		WarningMessage:       a.WarningMessage,
	}
	if p.Value2 != nil {
		v := displayValue(p.Kind, *p.Value2)
		out.Value2 = &v
	}
	if p.Value3 != nil {
		v := displayValue(p.Kind, *p.Value3)
		out.Value3 = &v
	}
	if p.QuantityThreshold.IsPositive() {
		out.QuantityThreshold = p.QuantityThreshold.String()
	}
	if p.QuantityThreshold3.IsPositive() {
		out.QuantityThreshold3 = p.QuantityThreshold3.String()
	}
	if p.TotalAmountThreshold.IsPositive() {
		out.TotalAmountThreshold = p.TotalAmountThreshold.String()
	}
	return out
}

// ApplyRequest is the apply-promotion body. Value is whole-number percent
// for percentage promotions.
type ApplyRequest struct {
	OrderID           string   `json:"orderId" validate:"required,uuid"`
	OrderKind         string   `json:"orderKind" validate:"omitempty,oneof=order quote"`
	PromotionID       string   `json:"promotionId" validate:"required,uuid"`
	Value             *float64 `json:"value"`
	Kind              string   `json:"kind" validate:"omitempty,oneof=percentage fixedAmount"`
	ProductCodes      string   `json:"productCodes"`
	ProductGroupCodes string   `json:"productGroupCodes"`
	IsSecondary       *bool    `json:"isSecondary"`
}

// ApplyResponse reports the outcome of an apply operation.
type ApplyResponse struct {
	Success           bool   `json:"success"`
	ApplicationID     string `json:"applicationId"`
	Reused            bool   `json:"reused"`
	LinesUpdatedCount int    `json:"linesUpdatedCount"`
	Message           string `json:"message"`
}

// NewApplyResponse builds the response from the applicator result.
func NewApplyResponse(r service.ApplyResult) ApplyResponse {
	return ApplyResponse{
		Success:           true,
		ApplicationID:     r.ApplicationID,
		Reused:            r.Reused,
		LinesUpdatedCount: r.LinesUpdated,
		Message:           r.Message,
	}
}
