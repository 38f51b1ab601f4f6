package service

import (
	"testing"
	"time"

	"sales_pricing_backend/internal/promotions/repository"
	"sales_pricing_backend/platform/apperr"
	"sales_pricing_backend/platform/config"

	"github.com/shopspring/decimal"
)

func testMatcher(t *testing.T) *ScopeMatcher {
	t.Helper()
	terms, err := config.LoadPaymentTerms("")
	if err != nil {
		t.Fatalf("load payment terms: %v", err)
	}
	return NewScopeMatcher(terms)
}

func dec(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

func activePromotion() repository.Promotion {
	return repository.Promotion{
		ID:        "c0a80121-0000-0000-0000-000000000001",
		Name:      "Test",
		Kind:      repository.KindPercentage,
		Value:     dec("0.1"),
		StartDate: time.Now().Add(-24 * time.Hour),
	}
}

func TestMatch_OpenScopeMatchesEveryProduct(t *testing.T) {
	m := testMatcher(t)
	p := activePromotion()

	result := m.Match(p, MatchContext{ProductCode: "SP-001"})
	if !result.Applicable {
		t.Fatalf("open scope should match, got %+v", result)
	}
}

func TestMatch_ExactTokenNeverMatchesSubstring(t *testing.T) {
	m := testMatcher(t)
	p := activePromotion()
	p.ProductCodes = "SP-1000, SP-2000"

	if result := m.Match(p, MatchContext{ProductCode: "SP-100"}); result.Applicable {
		t.Fatal("SP-100 must not match a scope listing SP-1000")
	}
	if result := m.Match(p, MatchContext{ProductCode: "SP-1000"}); !result.Applicable {
		t.Fatal("SP-1000 should match its own listing")
	}
}

func TestMatch_TokensAreCaseInsensitive(t *testing.T) {
	m := testMatcher(t)
	p := activePromotion()
	p.ProductCodes = "sp-001"

	if result := m.Match(p, MatchContext{ProductCode: "SP-001"}); !result.Applicable {
		t.Fatal("token matching should ignore case")
	}
}

func TestMatch_ProductOrGroupScope(t *testing.T) {
	m := testMatcher(t)
	p := activePromotion()
	p.ProductCodes = "SP-001"
	p.ProductGroupCodes = "GRP-A"

	// In group but not in product list: OR semantics, still a match.
	if result := m.Match(p, MatchContext{ProductCode: "SP-999", ProductGroupCode: "GRP-A"}); !result.Applicable {
		t.Fatal("group match alone should suffice")
	}
	if result := m.Match(p, MatchContext{ProductCode: "SP-999", ProductGroupCode: "GRP-B"}); result.Applicable {
		t.Fatal("neither list matched, promotion should not apply")
	}
}

func TestMatch_CustomerScope(t *testing.T) {
	m := testMatcher(t)
	p := activePromotion()
	p.CustomerCodes = "KH-001,KH-002"

	if result := m.Match(p, MatchContext{CustomerCode: "KH-002"}); !result.Applicable {
		t.Fatal("listed customer should match")
	}
	if result := m.Match(p, MatchContext{CustomerCode: "KH-003"}); result.Applicable {
		t.Fatal("unlisted customer should not match")
	}
}

func TestMatch_DateWindow(t *testing.T) {
	m := testMatcher(t)
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	p := activePromotion()
	p.StartDate = now.Add(time.Hour)
	if result := m.Match(p, MatchContext{Now: now}); result.Applicable {
		t.Fatal("promotion not yet started should not match")
	}

	p = activePromotion()
	p.StartDate = now.Add(-48 * time.Hour)
	ended := now.Add(-time.Hour)
	p.EndDate = &ended
	if result := m.Match(p, MatchContext{Now: now}); result.Applicable {
		t.Fatal("ended promotion should not match")
	}
}

func TestMatch_PaymentTermMismatchIsSoft(t *testing.T) {
	m := testMatcher(t)
	p := activePromotion()
	p.PaymentTerms = "283640001"

	result := m.Match(p, MatchContext{PaymentTermCode: "0"})
	if result.Applicable {
		t.Fatal("mismatched payment term should not be applicable")
	}
	if !result.PaymentTermsMismatch {
		t.Fatal("expected paymentTermsMismatch to be set")
	}
	if result.WarningMessage == "" {
		t.Fatal("expected a warning message")
	}
}

func TestMatch_PaymentTermMatchesByLabel(t *testing.T) {
	m := testMatcher(t)
	p := activePromotion()
	// Promotion configured with the display label, order carries the code.
	p.PaymentTerms = "Công nợ 30 ngày"

	if result := m.Match(p, MatchContext{PaymentTermCode: "283640001"}); !result.Applicable {
		t.Fatalf("label and code should normalize to the same term, got %+v", result)
	}
}

func TestMatch_AmountThreshold(t *testing.T) {
	m := testMatcher(t)
	p := activePromotion()
	p.TotalAmountThreshold = dec("500000")

	below := dec("400000")
	if result := m.Match(p, MatchContext{OrderTotal: &below}); result.Applicable {
		t.Fatal("order below the amount threshold should not be applicable")
	}

	above := dec("600000")
	if result := m.Match(p, MatchContext{OrderTotal: &above}); !result.Applicable {
		t.Fatal("order above the amount threshold should be applicable")
	}

	// No running total supplied: the gate is deferred to apply time.
	if result := m.Match(p, MatchContext{}); !result.Applicable {
		t.Fatal("missing order total should skip the amount gate")
	}
}

func TestValidateEligibility(t *testing.T) {
	m := testMatcher(t)
	p := activePromotion()
	p.IsOrderLevel = true
	p.TotalAmountThreshold = dec("500000")
	p.PaymentTerms = "283640001"

	err := m.ValidateEligibility(p, "283640001", dec("400000"))
	if !apperr.Is(err, apperr.KindEligibility) {
		t.Fatalf("expected eligibility rejection for low total, got %v", err)
	}

	err = m.ValidateEligibility(p, "0", dec("600000"))
	if !apperr.Is(err, apperr.KindEligibility) {
		t.Fatalf("expected eligibility rejection for term mismatch, got %v", err)
	}

	if err := m.ValidateEligibility(p, "283640001", dec("600000")); err != nil {
		t.Fatalf("expected eligible, got %v", err)
	}
}

func TestValidateEligibility_LineScopedSkipsAmountGate(t *testing.T) {
	m := testMatcher(t)
	p := activePromotion()
	p.IsOrderLevel = false
	p.TotalAmountThreshold = dec("500000")

	// The header total only gates order-level promotions.
	if err := m.ValidateEligibility(p, "", dec("400000")); err != nil {
		t.Fatalf("line-scoped promotion must not re-gate on the header total, got %v", err)
	}
}
