// Package transport defines the HTTP response shapes for price resolution.
package transport

import (
	"sales_pricing_backend/internal/pricing/service"
)

// PriceResponse is one resolved price row.
type PriceResponse struct {
	EntryID          string  `json:"entryId"`
	TierLabel        string  `json:"tierLabel"`
	Unit             string  `json:"unit"`
	ConversionFactor float64 `json:"conversionFactor"`
	PreVATPrice      string  `json:"preVatPrice"`
	DiscountRate     string  `json:"discountRate"`
	FinalPrice       string  `json:"finalPrice"`
}

// UnitPricesResponse groups price rows by unit.
type UnitPricesResponse struct {
	Unit   string          `json:"unit"`
	Prices []PriceResponse `json:"prices"`
}

// ResolutionResponse is the full price-lookup result.
type ResolutionResponse struct {
	PreferredPrice *PriceResponse       `json:"preferredPrice"`
	AllPrices      []UnitPricesResponse `json:"allPrices"`
}

func newPriceResponse(p service.ResolvedPrice) PriceResponse {
	return PriceResponse{
		EntryID:          p.Entry.ID,
		TierLabel:        p.Entry.TierLabel,
		Unit:             p.Entry.UnitName,
		ConversionFactor: p.Entry.ConversionFactor,
		PreVATPrice:      p.Entry.PreVATPrice.String(),
		DiscountRate:     p.DiscountRate.String(),
		FinalPrice:       p.FinalPrice.String(),
	}
}

// NewResolutionResponse builds the response from the resolver result.
func NewResolutionResponse(r service.Resolution) ResolutionResponse {
	out := ResolutionResponse{AllPrices: make([]UnitPricesResponse, 0, len(r.All))}
	if r.Preferred != nil {
		preferred := newPriceResponse(*r.Preferred)
		out.PreferredPrice = &preferred
	}
	for _, unit := range r.All {
		prices := make([]PriceResponse, 0, len(unit.Entries))
		for _, p := range unit.Entries {
			prices = append(prices, newPriceResponse(p))
		}
		out.AllPrices = append(out.AllPrices, UnitPricesResponse{Unit: unit.Unit, Prices: prices})
	}
	return out
}
