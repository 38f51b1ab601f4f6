// Package repository provides order and order-line access against the remote
// order-storage collaborator. Orders come in two variants with identical
// monetary semantics: firm sale orders and quotations.
package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OrderKind selects the order variant (and thus the remote collection).
type OrderKind string

const (
	// KindOrder is a firm sale order.
	KindOrder OrderKind = "order"
	// KindQuote is a quotation.
	KindQuote OrderKind = "quote"
)

// Valid reports whether the kind names a known order variant.
func (k OrderKind) Valid() bool {
	return k == KindOrder || k == KindQuote
}

// OrderSummary is the order header projection the rule engine needs.
type OrderSummary struct {
	ID              string
	Number          string
	CustomerCode    string
	PaymentTermCode string
	Subtotal        decimal.Decimal
	VATAmount       decimal.Decimal
	Total           decimal.Decimal
	CreatedOn       time.Time
}

// OrderLine is one active line of an order.
type OrderLine struct {
	ID               string
	ProductCode      string
	ProductGroupCode string
	Quantity         decimal.Decimal
	// BaseUnitPrice is the catalog price before any discount. Stacked
	// discounts are always derived from this value.
	BaseUnitPrice decimal.Decimal
	// VATRate is the line's VAT percentage from the fixed enumeration
	// (0, 5, 8 or 10).
	VATRate int
	// DiscountedUnitPrice is the primary post-discount price, unset when no
	// promotion touched the line.
	DiscountedUnitPrice *decimal.Decimal
	// SecondaryUnitPrice is the stacked post-discount price.
	SecondaryUnitPrice *decimal.Decimal
	// SecondaryDiscount is the stored stacked-discount magnitude (fraction
	// for percentage kind, absolute amount otherwise).
	SecondaryDiscount *decimal.Decimal
	// PromotionID is the optional promotion back-reference.
	PromotionID string
}

// EffectiveUnitPrice returns the price aggregation must use: the stacked
// price when present, else the primary discounted price, else the base price.
func (l OrderLine) EffectiveUnitPrice() decimal.Decimal {
	if l.SecondaryUnitPrice != nil {
		return *l.SecondaryUnitPrice
	}
	if l.DiscountedUnitPrice != nil {
		return *l.DiscountedUnitPrice
	}
	return l.BaseUnitPrice
}

// LineDiscountPatch is the partial field set written to a line when a
// stacked discount is applied.
type LineDiscountPatch struct {
	SecondaryUnitPrice decimal.Decimal
	SecondaryDiscount  decimal.Decimal
	PromotionID        string
}

// Aggregates holds the derived order header totals.
type Aggregates struct {
	Subtotal  decimal.Decimal
	VATAmount decimal.Decimal
	Total     decimal.Decimal
}

// Repository is the order-storage access contract.
type Repository interface {
	GetSummary(ctx context.Context, kind OrderKind, orderID string) (OrderSummary, error)
	ListActiveLines(ctx context.Context, kind OrderKind, orderID string) ([]OrderLine, error)
	UpdateLineDiscount(ctx context.Context, kind OrderKind, lineID string, patch LineDiscountPatch) error
	UpdateAggregates(ctx context.Context, kind OrderKind, orderID string, agg Aggregates) error
}
