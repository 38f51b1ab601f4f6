// Package service resolves the applicable catalog price for a product and
// customer.
package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	catalogrepo "sales_pricing_backend/internal/catalog/repository"
	"sales_pricing_backend/internal/pricing/repository"
	"sales_pricing_backend/platform/apperr"
	"sales_pricing_backend/platform/cache"
	"sales_pricing_backend/platform/logger"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// regionNoVATSuffix is the tier-label variant for regions priced without
// VAT.
const regionNoVATSuffix = " Không VAT"

// CustomerStore is the slice of the catalog the resolver needs.
type CustomerStore interface {
	GetCustomerByCode(ctx context.Context, code string) (catalogrepo.Customer, error)
	GetCustomerByID(ctx context.Context, id string) (catalogrepo.Customer, error)
}

// ResolveQuery is one price lookup. The customer may be identified by code
// or by record id; the id wins when both are present.
type ResolveQuery struct {
	ProductCode  string
	CustomerCode string
	CustomerID   string
	Region       string
	Quantity     decimal.Decimal
}

// ResolvedPrice is one price-list entry with the customer's discount
// applied.
type ResolvedPrice struct {
	Entry        repository.PriceListEntry
	DiscountRate decimal.Decimal
	FinalPrice   decimal.Decimal
}

// UnitPrices groups resolved prices by unit for the full price table.
type UnitPrices struct {
	Unit    string
	Entries []ResolvedPrice
}

// ResolutionStatus tags the resolution outcome.
type ResolutionStatus string

const (
	StatusOK       ResolutionStatus = "ok"
	StatusNotFound ResolutionStatus = "notFound"
)

// Resolution is the tagged lookup result. Preferred is nil exactly when
// Status is StatusNotFound.
type Resolution struct {
	Status    ResolutionStatus `json:"status"`
	Preferred *ResolvedPrice   `json:"preferred"`
	All       []UnitPrices     `json:"all"`
}

// Resolver resolves prices with a short-TTL cache and an in-flight request
// deduplicator in front of the remote reads. Both are optimizations only;
// correctness never depends on them.
type Resolver struct {
	entries     repository.Store
	customers   CustomerStore
	cache       cache.Cache
	ttl         time.Duration
	defaultTier string
	log         *logger.Logger
	group       singleflight.Group
}

// NewResolver creates the price resolver. defaultTier is the tier label
// tried when neither customer group nor region selects an entry.
func NewResolver(entries repository.Store, customers CustomerStore, c cache.Cache, ttl time.Duration, defaultTier string, log *logger.Logger) *Resolver {
	return &Resolver{
		entries:     entries,
		customers:   customers,
		cache:       c,
		ttl:         ttl,
		defaultTier: defaultTier,
		log:         log,
	}
}

// Resolve returns every price-list entry for the product grouped by unit,
// plus the single preferred entry for the given customer context.
func (r *Resolver) Resolve(ctx context.Context, q ResolveQuery) (Resolution, error) {
	if strings.TrimSpace(q.ProductCode) == "" {
		return Resolution{}, apperr.Validation("productCode is required")
	}

	key := cache.Key("price", q.ProductCode, q.CustomerCode, q.CustomerID, q.Region)
	if raw, ok, _ := r.cache.Get(ctx, key); ok {
		var cached Resolution
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		resolution, err := r.resolve(ctx, q)
		if err != nil {
			return Resolution{}, err
		}
		if raw, err := json.Marshal(resolution); err == nil {
			_ = r.cache.Set(ctx, key, raw, r.ttl)
		}
		return resolution, nil
	})
	if err != nil {
		return Resolution{}, err
	}
	return v.(Resolution), nil
}

func (r *Resolver) resolve(ctx context.Context, q ResolveQuery) (Resolution, error) {
	var (
		entries  []repository.PriceListEntry
		customer *catalogrepo.Customer
	)

	// Entries and customer fan out concurrently. A failed customer lookup
	// degrades to anonymous pricing; missing entries fail the resolution.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = r.entries.ListEntries(gctx, q.ProductCode)
		return err
	})
	if q.CustomerCode != "" || q.CustomerID != "" {
		g.Go(func() error {
			var (
				c   catalogrepo.Customer
				err error
			)
			if q.CustomerID != "" {
				c, err = r.customers.GetCustomerByID(gctx, q.CustomerID)
			} else {
				c, err = r.customers.GetCustomerByCode(gctx, q.CustomerCode)
			}
			if err != nil {
				r.log.WithContext(ctx).Warn("customer lookup degraded",
					"customer_code", q.CustomerCode, "customer_id", q.CustomerID, "error", err.Error())
				return nil
			}
			customer = &c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Resolution{}, err
	}

	if len(entries) == 0 {
		return Resolution{Status: StatusNotFound}, nil
	}

	loyaltyTier := ""
	var groupLabels []string
	region := strings.TrimSpace(q.Region)
	if customer != nil {
		loyaltyTier = customer.LoyaltyTier
		groupLabels = customer.GroupLabels
		if region == "" {
			region = customer.Region
		}
	}

	resolved := make([]ResolvedPrice, 0, len(entries))
	for _, entry := range entries {
		rate := discountRate(entry.DiscountTable, loyaltyTier)
		price := entry.PreVATPrice.Sub(entry.PreVATPrice.Mul(rate))
		resolved = append(resolved, ResolvedPrice{Entry: entry, DiscountRate: rate, FinalPrice: price})
	}

	preferred := preferEntry(resolved, groupLabels, region, r.defaultTier)
	return Resolution{
		Status:    StatusOK,
		Preferred: &preferred,
		All:       groupByUnit(resolved),
	}, nil
}

// preferEntry picks the single preferred price. Each rule is tried in
// order; within a rule's matches the lowest price wins.
func preferEntry(resolved []ResolvedPrice, groupLabels []string, region, defaultTier string) ResolvedPrice {
	byGroup := func(p ResolvedPrice) bool {
		for _, label := range groupLabels {
			if strings.TrimSpace(label) == strings.TrimSpace(p.Entry.TierLabel) {
				return true
			}
		}
		return false
	}
	byRegion := func(p ResolvedPrice) bool {
		if region == "" {
			return false
		}
		label := strings.TrimSpace(p.Entry.TierLabel)
		return label == region || label == region+regionNoVATSuffix
	}
	byDefault := func(p ResolvedPrice) bool {
		return strings.TrimSpace(p.Entry.TierLabel) == defaultTier
	}

	for _, rule := range []func(ResolvedPrice) bool{byGroup, byRegion, byDefault} {
		if best, ok := lowest(resolved, rule); ok {
			return best
		}
	}
	return resolved[0]
}

func lowest(resolved []ResolvedPrice, rule func(ResolvedPrice) bool) (ResolvedPrice, bool) {
	var best ResolvedPrice
	found := false
	for _, p := range resolved {
		if !rule(p) {
			continue
		}
		if !found || p.FinalPrice.LessThan(best.FinalPrice) {
			best = p
			found = true
		}
	}
	return best, found
}

func groupByUnit(resolved []ResolvedPrice) []UnitPrices {
	order := make([]string, 0)
	byUnit := make(map[string][]ResolvedPrice)
	for _, p := range resolved {
		unit := p.Entry.UnitName
		if _, seen := byUnit[unit]; !seen {
			order = append(order, unit)
		}
		byUnit[unit] = append(byUnit[unit], p)
	}
	out := make([]UnitPrices, 0, len(order))
	for _, unit := range order {
		out = append(out, UnitPrices{Unit: unit, Entries: byUnit[unit]})
	}
	return out
}

// discountRate parses the entry's per-tier discount-rate table and returns
// the rate for the given loyalty tier. Key match is case-insensitive and
// exact; a missing key means no discount, never a zero price.
func discountRate(table, loyaltyTier string) decimal.Decimal {
	if strings.TrimSpace(table) == "" || strings.TrimSpace(loyaltyTier) == "" {
		return decimal.Zero
	}
	var rates map[string]float64
	if err := json.Unmarshal([]byte(table), &rates); err != nil {
		return decimal.Zero
	}
	for key, rate := range rates {
		if strings.EqualFold(strings.TrimSpace(key), strings.TrimSpace(loyaltyTier)) {
			return decimal.NewFromFloat(rate)
		}
	}
	return decimal.Zero
}
