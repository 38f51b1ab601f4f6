package service

import (
	"fmt"
	"strings"
	"time"

	"sales_pricing_backend/internal/promotions/repository"
	"sales_pricing_backend/platform/apperr"
	"sales_pricing_backend/platform/config"

	"github.com/shopspring/decimal"
)

// MatchContext carries everything scope matching needs. OrderTotal is nil
// when the call site has no running total (listing/quote time); the amount
// gate is then skipped and re-checked at apply time.
type MatchContext struct {
	ProductCode      string
	ProductGroupCode string
	CustomerCode     string
	Region           string
	PaymentTermCode  string
	Now              time.Time
	OrderTotal       *decimal.Decimal
}

// MatchResult reports applicability. A payment-term mismatch is a soft
// outcome with a warning, not an error.
type MatchResult struct {
	Applicable           bool
	PaymentTermsMismatch bool
	WarningMessage       string
}

// ScopeMatcher evaluates promotion scope rules.
type ScopeMatcher struct {
	terms *config.PaymentTerms
}

// NewScopeMatcher creates a matcher with the payment-term lookup table.
func NewScopeMatcher(terms *config.PaymentTerms) *ScopeMatcher {
	return &ScopeMatcher{terms: terms}
}

// splitTokens splits a comma-separated scope list into trimmed tokens.
func splitTokens(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// containsToken reports whether value equals one of the tokens,
// case-insensitively. Exact token equality only: a code that is a strict
// substring of a listed code never matches.
func containsToken(tokens []string, value string) bool {
	for _, t := range tokens {
		if strings.EqualFold(t, value) {
			return true
		}
	}
	return false
}

// Match evaluates all scope rules; every rule must hold.
func (m *ScopeMatcher) Match(p repository.Promotion, ctx MatchContext) MatchResult {
	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}

	// Date window.
	if !p.StartDate.IsZero() && p.StartDate.After(now) {
		return MatchResult{}
	}
	if p.EndDate != nil && p.EndDate.Before(now) {
		return MatchResult{}
	}

	// Product/group scope: OR across the two lists; both empty means open.
	productTokens := splitTokens(p.ProductCodes)
	groupTokens := splitTokens(p.ProductGroupCodes)
	if len(productTokens) > 0 || len(groupTokens) > 0 {
		inProduct := ctx.ProductCode != "" && containsToken(productTokens, ctx.ProductCode)
		inGroup := ctx.ProductGroupCode != "" && containsToken(groupTokens, ctx.ProductGroupCode)
		if !inProduct && !inGroup {
			return MatchResult{}
		}
	}

	// Customer scope.
	if customerTokens := splitTokens(p.CustomerCodes); len(customerTokens) > 0 {
		if ctx.CustomerCode == "" || !containsToken(customerTokens, ctx.CustomerCode) {
			return MatchResult{}
		}
	}

	// Payment-term scope: soft outcome with a bilingual warning.
	if result, ok := m.matchPaymentTerm(p, ctx.PaymentTermCode); !ok {
		return result
	}

	// Amount gate, only when the call site supplied a running total.
	if p.TotalAmountThreshold.IsPositive() && ctx.OrderTotal != nil {
		if ctx.OrderTotal.LessThan(p.TotalAmountThreshold) {
			return MatchResult{
				WarningMessage: fmt.Sprintf(
					"Đơn hàng chưa đạt giá trị tối thiểu %s / order total below required minimum %s",
					p.TotalAmountThreshold.String(), p.TotalAmountThreshold.String()),
			}
		}
	}

	return MatchResult{Applicable: true}
}

// ValidateEligibility enforces the hard gates at apply time: the order's
// current total against the amount threshold, and the payment-term
// restriction. Both re-run against fresh order state regardless of what the
// quote-time match reported. The amount gate is an order-level rule; a
// line-scoped promotion is not re-gated on the header total.
func (m *ScopeMatcher) ValidateEligibility(p repository.Promotion, paymentTermCode string, orderTotal decimal.Decimal) error {
	if p.IsOrderLevel && p.TotalAmountThreshold.IsPositive() && orderTotal.LessThan(p.TotalAmountThreshold) {
		return apperr.Eligibility(fmt.Sprintf(
			"Đơn hàng chưa đạt giá trị tối thiểu %s / order total %s below required minimum %s",
			p.TotalAmountThreshold.String(), orderTotal.String(), p.TotalAmountThreshold.String()))
	}
	if result, ok := m.matchPaymentTerm(p, paymentTermCode); !ok {
		return apperr.Eligibility(result.WarningMessage)
	}
	return nil
}

func (m *ScopeMatcher) matchPaymentTerm(p repository.Promotion, requested string) (MatchResult, bool) {
	allowed := splitTokens(p.PaymentTerms)
	if len(allowed) == 0 {
		return MatchResult{}, true
	}

	mismatch := MatchResult{
		PaymentTermsMismatch: false,
		WarningMessage: fmt.Sprintf(
			"Khuyến mãi chỉ áp dụng cho hình thức thanh toán %s / promotion restricted to payment terms %s",
			p.PaymentTerms, p.PaymentTerms),
	}

	if requested == "" {
		return mismatch, false
	}

	// Allowed tokens may be codes or labels; normalize both sides to codes
	// before comparing.
	requestedCode := requested
	if code, _, ok := m.terms.Normalize(requested); ok {
		requestedCode = code
	}
	for _, token := range allowed {
		tokenCode := token
		if code, _, ok := m.terms.Normalize(token); ok {
			tokenCode = code
		}
		if strings.EqualFold(tokenCode, requestedCode) {
			return MatchResult{}, true
		}
	}

	mismatch.PaymentTermsMismatch = true
	return mismatch, false
}
