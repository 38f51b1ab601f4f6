package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	catalogrepo "sales_pricing_backend/internal/catalog/repository"
	"sales_pricing_backend/internal/pricing/repository"
	"sales_pricing_backend/platform/cache"
	"sales_pricing_backend/platform/logger"

	"github.com/shopspring/decimal"
)

type fakeEntryStore struct {
	entries []repository.PriceListEntry
	err     error
	calls   atomic.Int64
}

func (f *fakeEntryStore) ListEntries(context.Context, string) ([]repository.PriceListEntry, error) {
	f.calls.Add(1)
	return f.entries, f.err
}

type fakeCustomerStore struct {
	customer    catalogrepo.Customer
	err         error
	byCodeCalls atomic.Int64
	byIDCalls   atomic.Int64
}

func (f *fakeCustomerStore) GetCustomerByCode(context.Context, string) (catalogrepo.Customer, error) {
	f.byCodeCalls.Add(1)
	return f.customer, f.err
}

func (f *fakeCustomerStore) GetCustomerByID(context.Context, string) (catalogrepo.Customer, error) {
	f.byIDCalls.Add(1)
	return f.customer, f.err
}

func dec(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

func entry(tier, unit, price string) repository.PriceListEntry {
	return repository.PriceListEntry{
		ID:          tier + "/" + unit,
		ProductCode: "SP-001",
		TierLabel:   tier,
		UnitName:    unit,
		PreVATPrice: dec(price),
	}
}

func newTestResolver(entries *fakeEntryStore, customers *fakeCustomerStore) *Resolver {
	return NewResolver(entries, customers, cache.NewMemory(), time.Minute, "Shop", logger.New("development"))
}

func TestResolve_PrefersCustomerGroupLabel(t *testing.T) {
	entries := &fakeEntryStore{entries: []repository.PriceListEntry{
		entry("Shop", "Thùng", "120000"),
		entry("Đại lý", "Thùng", "100000"),
	}}
	customers := &fakeCustomerStore{customer: catalogrepo.Customer{
		Code:        "KH-001",
		GroupLabels: []string{"Đại lý"},
	}}

	resolution, err := newTestResolver(entries, customers).Resolve(context.Background(), ResolveQuery{
		ProductCode:  "SP-001",
		CustomerCode: "KH-001",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolution.Status != StatusOK || resolution.Preferred == nil {
		t.Fatalf("expected ok resolution, got %+v", resolution)
	}
	if resolution.Preferred.Entry.TierLabel != "Đại lý" {
		t.Fatalf("expected group-label tier, got %s", resolution.Preferred.Entry.TierLabel)
	}
}

func TestResolve_FallsBackToRegionThenDefault(t *testing.T) {
	entries := &fakeEntryStore{entries: []repository.PriceListEntry{
		entry("Shop", "Thùng", "120000"),
		entry("Miền Bắc Không VAT", "Thùng", "110000"),
	}}
	customers := &fakeCustomerStore{customer: catalogrepo.Customer{Code: "KH-001"}}
	resolver := newTestResolver(entries, customers)

	// Region supplied: the "<region> Không VAT" variant matches.
	resolution, err := resolver.Resolve(context.Background(), ResolveQuery{
		ProductCode: "SP-001",
		Region:      "Miền Bắc",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolution.Preferred.Entry.TierLabel != "Miền Bắc Không VAT" {
		t.Fatalf("expected region tier, got %s", resolution.Preferred.Entry.TierLabel)
	}

	// No region: the default tier wins.
	resolution, err = resolver.Resolve(context.Background(), ResolveQuery{ProductCode: "SP-001"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolution.Preferred.Entry.TierLabel != "Shop" {
		t.Fatalf("expected default tier, got %s", resolution.Preferred.Entry.TierLabel)
	}
}

func TestResolve_FirstEntryWhenNothingMatches(t *testing.T) {
	entries := &fakeEntryStore{entries: []repository.PriceListEntry{
		entry("Đại lý", "Thùng", "100000"),
		entry("Sỉ", "Thùng", "95000"),
	}}
	customers := &fakeCustomerStore{customer: catalogrepo.Customer{Code: "KH-001"}}

	resolution, err := newTestResolver(entries, customers).Resolve(context.Background(), ResolveQuery{ProductCode: "SP-001"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolution.Preferred.Entry.TierLabel != "Đại lý" {
		t.Fatalf("expected first entry fallback, got %s", resolution.Preferred.Entry.TierLabel)
	}
}

func TestResolve_LowestPriceWinsWithinTiedUnit(t *testing.T) {
	cheap := entry("Shop", "Thùng", "100000")
	cheap.ID = "cheap"
	dear := entry("Shop", "Thùng", "120000")
	dear.ID = "dear"
	entries := &fakeEntryStore{entries: []repository.PriceListEntry{dear, cheap}}
	customers := &fakeCustomerStore{customer: catalogrepo.Customer{Code: "KH-001"}}

	resolution, err := newTestResolver(entries, customers).Resolve(context.Background(), ResolveQuery{ProductCode: "SP-001"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolution.Preferred.Entry.ID != "cheap" {
		t.Fatalf("expected the lowest price, got %s", resolution.Preferred.Entry.ID)
	}
}

func TestResolve_DiscountTable(t *testing.T) {
	e := entry("Shop", "Thùng", "100000")
	e.DiscountTable = `{"Vàng": 0.05, "Kim cương": 0.1}`
	entries := &fakeEntryStore{entries: []repository.PriceListEntry{e}}
	customers := &fakeCustomerStore{customer: catalogrepo.Customer{
		Code:        "KH-001",
		LoyaltyTier: "vàng",
	}}

	resolution, err := newTestResolver(entries, customers).Resolve(context.Background(), ResolveQuery{
		ProductCode:  "SP-001",
		CustomerCode: "KH-001",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// Case-insensitive key match: 5% off 100,000.
	if !resolution.Preferred.FinalPrice.Equal(dec("95000")) {
		t.Fatalf("expected 95000, got %s", resolution.Preferred.FinalPrice)
	}
}

func TestResolve_AbsentDiscountKeyMeansNoDiscount(t *testing.T) {
	e := entry("Shop", "Thùng", "100000")
	e.DiscountTable = `{"Kim cương": 0.1}`
	entries := &fakeEntryStore{entries: []repository.PriceListEntry{e}}
	customers := &fakeCustomerStore{customer: catalogrepo.Customer{
		Code:        "KH-001",
		LoyaltyTier: "Vàng",
	}}

	resolution, err := newTestResolver(entries, customers).Resolve(context.Background(), ResolveQuery{
		ProductCode:  "SP-001",
		CustomerCode: "KH-001",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !resolution.Preferred.FinalPrice.Equal(dec("100000")) {
		t.Fatalf("absent key must mean full price, got %s", resolution.Preferred.FinalPrice)
	}
}

func TestResolve_CustomerByRecordID(t *testing.T) {
	entries := &fakeEntryStore{entries: []repository.PriceListEntry{
		entry("Shop", "Thùng", "120000"),
		entry("Đại lý", "Thùng", "100000"),
	}}
	customers := &fakeCustomerStore{customer: catalogrepo.Customer{
		ID:          "aaaaaaaa-0000-0000-0000-000000000001",
		GroupLabels: []string{"Đại lý"},
	}}

	resolution, err := newTestResolver(entries, customers).Resolve(context.Background(), ResolveQuery{
		ProductCode: "SP-001",
		CustomerID:  "aaaaaaaa-0000-0000-0000-000000000001",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolution.Preferred.Entry.TierLabel != "Đại lý" {
		t.Fatalf("expected group-label tier via record id, got %s", resolution.Preferred.Entry.TierLabel)
	}
	if customers.byIDCalls.Load() != 1 || customers.byCodeCalls.Load() != 0 {
		t.Fatalf("expected the id lookup path, got byID=%d byCode=%d",
			customers.byIDCalls.Load(), customers.byCodeCalls.Load())
	}
}

func TestResolve_CustomerLookupFailureDegrades(t *testing.T) {
	entries := &fakeEntryStore{entries: []repository.PriceListEntry{entry("Shop", "Thùng", "100000")}}
	customers := &fakeCustomerStore{err: errors.New("upstream 503")}

	resolution, err := newTestResolver(entries, customers).Resolve(context.Background(), ResolveQuery{
		ProductCode:  "SP-001",
		CustomerCode: "KH-001",
	})
	if err != nil {
		t.Fatalf("customer failure must degrade, not fail: %v", err)
	}
	if resolution.Status != StatusOK {
		t.Fatalf("expected ok resolution, got %+v", resolution)
	}
}

func TestResolve_NotFound(t *testing.T) {
	entries := &fakeEntryStore{}
	customers := &fakeCustomerStore{}

	resolution, err := newTestResolver(entries, customers).Resolve(context.Background(), ResolveQuery{ProductCode: "SP-404"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolution.Status != StatusNotFound || resolution.Preferred != nil {
		t.Fatalf("expected notFound, got %+v", resolution)
	}
}

func TestResolve_SecondLookupServedFromCache(t *testing.T) {
	entries := &fakeEntryStore{entries: []repository.PriceListEntry{entry("Shop", "Thùng", "100000")}}
	customers := &fakeCustomerStore{}
	resolver := newTestResolver(entries, customers)

	for i := 0; i < 2; i++ {
		if _, err := resolver.Resolve(context.Background(), ResolveQuery{ProductCode: "SP-001"}); err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
	}
	if calls := entries.calls.Load(); calls != 1 {
		t.Fatalf("expected one upstream read, got %d", calls)
	}
}
