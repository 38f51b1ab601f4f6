package service

import (
	"strings"

	"sales_pricing_backend/internal/promotions/repository"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// CartLine is the quantity-and-value context of one cart/order line, as the
// calculator sees it.
type CartLine struct {
	ProductCode string
	UnitPrice   decimal.Decimal
	Quantity    decimal.Decimal
}

// CalcInput is one discount computation request.
type CalcInput struct {
	BasePrice decimal.Decimal
	Promotion repository.Promotion

	// OverrideValue replaces the promotion's stored tier-1 value when set.
	// OverrideKind does the same for the discount arithmetic.
	OverrideValue *decimal.Decimal
	OverrideKind  repository.DiscountKind

	// ValueIsFraction states the override's percentage convention. Stored
	// promotion values are always fractional already; overrides arriving
	// over HTTP are whole-number percent unless the caller says otherwise.
	ValueIsFraction bool

	// QualifyingQuantity is the summed quantity of all cart/order lines
	// sharing this promotion.
	QualifyingQuantity decimal.Decimal

	// CartLines feeds the amount-threshold waiver check.
	CartLines []CartLine
}

// CalcResult is the computed discount with tier metadata.
type CalcResult struct {
	FinalPrice   decimal.Decimal
	AppliedValue decimal.Decimal
	Tier         int
	Tier2Reached bool
	Tier3Reached bool

	// AmountWaived is true when the amount-threshold rule left the base
	// price untouched.
	AmountWaived bool
}

// Calculate turns a matched promotion plus quantity-and-value context into a
// discounted price. Pure: no I/O, no clock, no mutation of the input.
func Calculate(in CalcInput) CalcResult {
	p := in.Promotion

	kind := p.Kind
	if in.OverrideKind.Valid() {
		kind = in.OverrideKind
	}

	primary := p.Value
	if in.OverrideValue != nil {
		primary = *in.OverrideValue
		if kind == repository.KindPercentage && !in.ValueIsFraction {
			primary = primary.Div(oneHundred)
		}
	}

	// Non-cumulative promotions are quantity-independent: the primary value
	// applies no matter how much is in the cart.
	if !p.Cumulative {
		return apply(in.BasePrice, kind, primary, CalcResult{Tier: 1})
	}

	// Amount-threshold promotions with an explicit product scope waive the
	// reduction entirely once the in-scope cart value crosses the threshold.
	// Preserved source behavior; see scopedCartTotal.
	if p.TotalAmountThreshold.IsPositive() {
		if scopeTokens := splitTokens(p.ProductCodes); len(scopeTokens) > 0 {
			if scopedCartTotal(in.CartLines, scopeTokens).GreaterThanOrEqual(p.TotalAmountThreshold) {
				return CalcResult{
					FinalPrice:   in.BasePrice,
					AppliedValue: decimal.Zero,
					Tier:         1,
					AmountWaived: true,
				}
			}
			return apply(in.BasePrice, kind, primary, CalcResult{Tier: 1})
		}
	}

	// Cumulative quantity tiering. Overrides pin the value, so tiering only
	// runs on the stored configuration.
	if in.OverrideValue == nil {
		if p.Value3 != nil && p.QuantityThreshold3.IsPositive() &&
			in.QualifyingQuantity.GreaterThanOrEqual(p.QuantityThreshold3) {
			return apply(in.BasePrice, kind, *p.Value3, CalcResult{Tier: 3, Tier2Reached: true, Tier3Reached: true})
		}
		if p.Value2 != nil && p.QuantityThreshold.IsPositive() &&
			in.QualifyingQuantity.GreaterThanOrEqual(p.QuantityThreshold) {
			return apply(in.BasePrice, kind, *p.Value2, CalcResult{Tier: 2, Tier2Reached: true})
		}
	}
	return apply(in.BasePrice, kind, primary, CalcResult{Tier: 1})
}

// scopedCartTotal sums unitPrice × quantity over cart lines whose product
// code appears in the scope token list.
func scopedCartTotal(lines []CartLine, scopeTokens []string) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		if containsToken(scopeTokens, strings.TrimSpace(line.ProductCode)) {
			total = total.Add(line.UnitPrice.Mul(line.Quantity))
		}
	}
	return total
}

// apply performs the discount arithmetic. Percentage values are fractional
// at this point; the floor at zero keeps fixed amounts larger than the base
// price from going negative.
func apply(base decimal.Decimal, kind repository.DiscountKind, value decimal.Decimal, result CalcResult) CalcResult {
	var final decimal.Decimal
	switch kind {
	case repository.KindPercentage:
		final = base.Sub(base.Mul(value))
	default:
		final = base.Sub(value)
	}
	if final.IsNegative() {
		final = decimal.Zero
	}
	result.FinalPrice = final
	result.AppliedValue = value
	return result
}
