// Package repository provides price-list reference data from the remote
// collaborator. Entries are read-only here; they are refreshed out of band.
package repository

import (
	"context"

	"sales_pricing_backend/internal/erp"

	"github.com/shopspring/decimal"
)

const entriesCollection = "crdfd_pricelistentries"

// PriceListEntry is one price row: a product priced for one unit and one
// customer-group tier.
type PriceListEntry struct {
	ID               string
	ProductCode      string
	TierLabel        string
	UnitName         string
	ConversionFactor float64
	PreVATPrice      decimal.Decimal

	// DiscountTable is the raw per-loyalty-tier discount-rate JSON, keyed
	// by tier label. Parsed lazily by the resolver.
	DiscountTable string
}

// Store is the price-list read contract.
type Store interface {
	ListEntries(ctx context.Context, productCode string) ([]PriceListEntry, error)
}

// Repo implements Store against the remote collaborator.
type Repo struct {
	client *erp.Client
}

// New creates a price-list repository.
func New(client *erp.Client) *Repo {
	return &Repo{client: client}
}

type entryRecord struct {
	ID               string  `json:"crdfd_pricelistentryid"`
	ProductCode      string  `json:"crdfd_productcode"`
	TierLabel        string  `json:"crdfd_tierlabel"`
	UnitName         string  `json:"crdfd_unitname"`
	ConversionFactor float64 `json:"crdfd_conversionfactor"`
	PreVATPrice      float64 `json:"crdfd_prevatprice"`
	DiscountTable    string  `json:"crdfd_discounttable"`
}

// ListEntries implements Store. Entries come back ordered by unit then
// price, so the resolver's "first entry" fallback is deterministic.
func (r *Repo) ListEntries(ctx context.Context, productCode string) ([]PriceListEntry, error) {
	var records []entryRecord
	q := erp.NewQuery().
		Where(erp.And(
			erp.Eq("crdfd_productcode", productCode),
			erp.Eq("statecode", 0),
		)).
		Select("crdfd_pricelistentryid", "crdfd_productcode", "crdfd_tierlabel",
			"crdfd_unitname", "crdfd_conversionfactor", "crdfd_prevatprice", "crdfd_discounttable").
		OrderBy("crdfd_unitname asc,crdfd_prevatprice asc")
	if err := r.client.List(ctx, entriesCollection, q, &records); err != nil {
		return nil, err
	}

	entries := make([]PriceListEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, PriceListEntry{
			ID:               record.ID,
			ProductCode:      record.ProductCode,
			TierLabel:        record.TierLabel,
			UnitName:         record.UnitName,
			ConversionFactor: record.ConversionFactor,
			PreVATPrice:      decimal.NewFromFloat(record.PreVATPrice),
			DiscountTable:    record.DiscountTable,
		})
	}
	return entries, nil
}

var _ Store = (*Repo)(nil)
