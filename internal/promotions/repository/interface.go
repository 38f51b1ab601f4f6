// Package repository provides promotion and promotion-application access
// against the remote catalog/order-storage collaborator. Promotions are
// read-only reference data during evaluation; application records are the
// only rows this engine creates.
package repository

import (
	"context"
	"time"

	ordersrepo "sales_pricing_backend/internal/orders/repository"

	"github.com/shopspring/decimal"
)

// DiscountKind is the promotion's discount arithmetic.
type DiscountKind string

const (
	KindPercentage  DiscountKind = "percentage"
	KindFixedAmount DiscountKind = "fixedAmount"
)

// Valid reports whether the kind names a known discount arithmetic.
func (k DiscountKind) Valid() bool {
	return k == KindPercentage || k == KindFixedAmount
}

// Promotion is one marketing promotion as configured in the remote system.
//
// Percentage values are always fractional here (0.1 means 10%); the
// repository converts from the remote whole-number convention when reading,
// so nothing past this boundary divides by 100 again.
type Promotion struct {
	ID   string
	Name string
	Kind DiscountKind

	// Value is the tier-1 discount. Value2/Value3 unlock when cumulative
	// qualifying quantity crosses QuantityThreshold/QuantityThreshold3.
	Value  decimal.Decimal
	Value2 *decimal.Decimal
	Value3 *decimal.Decimal

	Cumulative         bool
	QuantityThreshold  decimal.Decimal
	QuantityThreshold3 decimal.Decimal

	// TotalAmountThreshold gates the promotion on the order's running total
	// when positive.
	TotalAmountThreshold decimal.Decimal

	// Scope fields are comma-separated token lists; empty means open scope.
	ProductCodes      string
	ProductGroupCodes string
	CustomerCodes     string
	PaymentTerms      string

	StartDate time.Time
	EndDate   *time.Time

	IsOrderLevel        bool
	IsSecondaryDiscount bool
}

// Application is a persisted order-to-promotion link.
type Application struct {
	ID          string
	PromotionID string
	Kind        DiscountKind
	Value       decimal.Decimal
}

// PromotionStore reads promotion reference data.
type PromotionStore interface {
	Get(ctx context.Context, promotionID string) (Promotion, error)
	ListActive(ctx context.Context) ([]Promotion, error)
}

// ApplicationStore manages promotion-application records. FindActiveOrder
// must issue a fresh read every call; the applicator relies on it to narrow
// the duplicate-create race.
type ApplicationStore interface {
	FindActiveOrder(ctx context.Context, kind ordersrepo.OrderKind, orderID, promotionID string) (Application, bool, error)
	CreateOrder(ctx context.Context, kind ordersrepo.OrderKind, orderID string, app Application) (string, error)
}
