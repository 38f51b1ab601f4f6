package service

import (
	"context"
	"testing"
	"time"

	"sales_pricing_backend/internal/orders/repository"
	"sales_pricing_backend/platform/cache"
	"sales_pricing_backend/platform/logger"

	"github.com/shopspring/decimal"
)

type fakeOrderRepo struct {
	lines      []repository.OrderLine
	written    []repository.Aggregates
	listErr    error
	updateErr  error
	updateCall int
	listCalls  int
}

func (f *fakeOrderRepo) GetSummary(context.Context, repository.OrderKind, string) (repository.OrderSummary, error) {
	return repository.OrderSummary{}, nil
}

func (f *fakeOrderRepo) ListActiveLines(context.Context, repository.OrderKind, string) ([]repository.OrderLine, error) {
	f.listCalls++
	return f.lines, f.listErr
}

func (f *fakeOrderRepo) UpdateLineDiscount(context.Context, repository.OrderKind, string, repository.LineDiscountPatch) error {
	return nil
}

func (f *fakeOrderRepo) UpdateAggregates(_ context.Context, _ repository.OrderKind, _ string, agg repository.Aggregates) error {
	f.updateCall++
	if f.updateErr != nil {
		return f.updateErr
	}
	f.written = append(f.written, agg)
	return nil
}

func dec(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

func line(price string, qty string, vatRate int) repository.OrderLine {
	return repository.OrderLine{
		Quantity:      dec(qty),
		BaseUnitPrice: dec(price),
		VATRate:       vatRate,
	}
}

func TestRecalculate_TwoLineScenario(t *testing.T) {
	// 10,000 x 2 at 5% VAT plus 20,000 x 1 at 10% VAT:
	// subtotal 40,000; VAT 1,000 + 2,000 = 3,000; total 43,000.
	repo := &fakeOrderRepo{lines: []repository.OrderLine{
		line("10000", "2", 5),
		line("20000", "1", 10),
	}}
	svc := New(repo, nil, cache.NewNoop(), 0, logger.New("development"))

	agg, err := svc.Recalculate(context.Background(), repository.KindOrder, "ORD-1")
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if !agg.Subtotal.Equal(dec("40000")) {
		t.Fatalf("expected subtotal 40000, got %s", agg.Subtotal)
	}
	if !agg.VATAmount.Equal(dec("3000")) {
		t.Fatalf("expected VAT 3000, got %s", agg.VATAmount)
	}
	if !agg.Total.Equal(dec("43000")) {
		t.Fatalf("expected total 43000, got %s", agg.Total)
	}
}

func TestRecalculate_UsesDiscountedPrices(t *testing.T) {
	discounted := dec("90000")
	secondary := dec("85000")
	repo := &fakeOrderRepo{lines: []repository.OrderLine{
		{Quantity: dec("1"), BaseUnitPrice: dec("100000"), VATRate: 10, DiscountedUnitPrice: &discounted},
		{Quantity: dec("1"), BaseUnitPrice: dec("100000"), VATRate: 0, DiscountedUnitPrice: &discounted, SecondaryUnitPrice: &secondary},
	}}
	svc := New(repo, nil, cache.NewNoop(), 0, logger.New("development"))

	agg, err := svc.Recalculate(context.Background(), repository.KindQuote, "Q-1")
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	// 90,000 + 85,000 subtotal; VAT only on the first line.
	if !agg.Subtotal.Equal(dec("175000")) {
		t.Fatalf("expected subtotal 175000, got %s", agg.Subtotal)
	}
	if !agg.VATAmount.Equal(dec("9000")) {
		t.Fatalf("expected VAT 9000, got %s", agg.VATAmount)
	}
	if !agg.Total.Equal(dec("184000")) {
		t.Fatalf("expected total 184000, got %s", agg.Total)
	}
}

func TestRecalculate_Idempotent(t *testing.T) {
	repo := &fakeOrderRepo{lines: []repository.OrderLine{
		line("33333.33", "3", 8),
		line("9999.5", "2", 5),
	}}
	svc := New(repo, nil, cache.NewNoop(), 0, logger.New("development"))

	first, err := svc.Recalculate(context.Background(), repository.KindOrder, "ORD-1")
	if err != nil {
		t.Fatalf("first recalculate: %v", err)
	}
	second, err := svc.Recalculate(context.Background(), repository.KindOrder, "ORD-1")
	if err != nil {
		t.Fatalf("second recalculate: %v", err)
	}
	if !first.Subtotal.Equal(second.Subtotal) || !first.VATAmount.Equal(second.VATAmount) || !first.Total.Equal(second.Total) {
		t.Fatalf("expected identical aggregates, got %+v vs %+v", first, second)
	}
}

func TestGetDetail_CachedUntilInvalidated(t *testing.T) {
	repo := &fakeOrderRepo{lines: []repository.OrderLine{line("10000", "2", 5)}}
	svc := New(repo, nil, cache.NewMemory(), time.Minute, logger.New("development"))

	for i := 0; i < 2; i++ {
		detail, err := svc.GetDetail(context.Background(), repository.KindOrder, "ORD-1")
		if err != nil {
			t.Fatalf("get detail %d: %v", i, err)
		}
		if len(detail.Lines) != 1 {
			t.Fatalf("unexpected detail: %+v", detail)
		}
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected the second read from cache, got %d upstream reads", repo.listCalls)
	}

	// A write landed on the order: the cached detail is dropped and the
	// next read hits storage again.
	if err := svc.InvalidateDetail(context.Background(), repository.KindOrder, "ORD-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := svc.GetDetail(context.Background(), repository.KindOrder, "ORD-1"); err != nil {
		t.Fatalf("get detail after invalidate: %v", err)
	}
	if repo.listCalls != 2 {
		t.Fatalf("expected a fresh read after invalidation, got %d upstream reads", repo.listCalls)
	}
}

func TestCompute_RoundingInvariant(t *testing.T) {
	// Fractional line amounts: the invariant subtotal + vat == total must
	// hold exactly on the rounded aggregates regardless of line mix.
	cases := [][]repository.OrderLine{
		{line("33333.33", "3", 10)},
		{line("10000.49", "1", 5), line("9999.51", "7", 8)},
		{line("0.5", "1", 0)},
		{},
	}
	for i, lines := range cases {
		agg := Compute(lines)
		if !agg.Subtotal.Add(agg.VATAmount).Equal(agg.Total) {
			t.Fatalf("case %d: invariant broken: %s + %s != %s", i, agg.Subtotal, agg.VATAmount, agg.Total)
		}
		if agg.Subtotal.Exponent() < 0 || agg.VATAmount.Exponent() < 0 {
			t.Fatalf("case %d: aggregates not rounded to currency units: %+v", i, agg)
		}
	}
}
