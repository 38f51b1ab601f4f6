package repository

import (
	"context"
	"time"

	"sales_pricing_backend/internal/erp"

	"github.com/shopspring/decimal"
)

// Collection names per order variant.
const (
	ordersCollection     = "salesorders"
	orderLinesCollection = "salesorderdetails"
	quotesCollection     = "quotes"
	quoteLinesCollection = "quotedetails"

	promotionsCollection = "crdfd_promotions"
)

// vatRateByCode maps the ERP's VAT option-set codes to the fixed percentage
// enumeration. Unknown codes fall back to 0.
var vatRateByCode = map[int]int{
	191920000: 0,
	191920001: 5,
	191920002: 8,
	191920003: 10,
}

// Repo implements Repository against the remote collaborator.
type Repo struct {
	client *erp.Client
}

// New creates an order repository.
func New(client *erp.Client) *Repo {
	return &Repo{client: client}
}

func headerCollection(kind OrderKind) string {
	if kind == KindQuote {
		return quotesCollection
	}
	return ordersCollection
}

func lineCollection(kind OrderKind) string {
	if kind == KindQuote {
		return quoteLinesCollection
	}
	return orderLinesCollection
}

func lineOrderField(kind OrderKind) string {
	if kind == KindQuote {
		return "_quoteid_value"
	}
	return "_salesorderid_value"
}

// headerRecord is the raw order header row. The two variants expose the same
// custom fields but different primary-key names.
type headerRecord struct {
	SalesOrderID    string   `json:"salesorderid,omitempty"`
	QuoteID         string   `json:"quoteid,omitempty"`
	Number          string   `json:"crdfd_ordernumber"`
	CustomerCode    string   `json:"crdfd_customercode"`
	PaymentTermCode string   `json:"crdfd_paymentterm"`
	Subtotal        float64  `json:"crdfd_subtotal"`
	VATAmount       float64  `json:"crdfd_vatamount"`
	Total           float64  `json:"crdfd_total"`
	CreatedOn       string   `json:"createdon"`
}

func (r headerRecord) id() string {
	if r.SalesOrderID != "" {
		return r.SalesOrderID
	}
	return r.QuoteID
}

// lineRecord is the raw order-line row.
type lineRecord struct {
	SalesLineID      string   `json:"salesorderdetailid,omitempty"`
	QuoteLineID      string   `json:"quotedetailid,omitempty"`
	ProductCode      string   `json:"crdfd_productcode"`
	ProductGroupCode string   `json:"crdfd_productgroupcode"`
	Quantity         float64  `json:"quantity"`
	BaseUnitPrice    float64  `json:"priceperunit"`
	VATRateCode      int      `json:"crdfd_vatrate"`
	DiscountedPrice  *float64 `json:"crdfd_discountedprice"`
	SecondaryPrice   *float64 `json:"crdfd_secondaryprice"`
	SecondaryAmount  *float64 `json:"crdfd_secondarydiscount"`
	PromotionID      string   `json:"_crdfd_promotion_value"`
}

func (r lineRecord) id() string {
	if r.SalesLineID != "" {
		return r.SalesLineID
	}
	return r.QuoteLineID
}

var headerSelect = []string{
	"crdfd_ordernumber", "crdfd_customercode", "crdfd_paymentterm",
	"crdfd_subtotal", "crdfd_vatamount", "crdfd_total", "createdon",
}

var lineSelect = []string{
	"crdfd_productcode", "crdfd_productgroupcode", "quantity", "priceperunit",
	"crdfd_vatrate", "crdfd_discountedprice", "crdfd_secondaryprice",
	"crdfd_secondarydiscount", "_crdfd_promotion_value",
}

// GetSummary implements Repository.
func (r *Repo) GetSummary(ctx context.Context, kind OrderKind, orderID string) (OrderSummary, error) {
	var record headerRecord
	q := erp.NewQuery().Select(headerSelect...)
	if err := r.client.Get(ctx, headerCollection(kind), orderID, q, &record); err != nil {
		return OrderSummary{}, err
	}

	createdOn, _ := time.Parse(time.RFC3339, record.CreatedOn)
	summary := OrderSummary{
		ID:              orderID,
		Number:          record.Number,
		CustomerCode:    record.CustomerCode,
		PaymentTermCode: record.PaymentTermCode,
		Subtotal:        decimal.NewFromFloat(record.Subtotal),
		VATAmount:       decimal.NewFromFloat(record.VATAmount),
		Total:           decimal.NewFromFloat(record.Total),
		CreatedOn:       createdOn,
	}
	if id := record.id(); id != "" {
		summary.ID = id
	}
	return summary, nil
}

// ListActiveLines implements Repository.
func (r *Repo) ListActiveLines(ctx context.Context, kind OrderKind, orderID string) ([]OrderLine, error) {
	var records []lineRecord
	q := erp.NewQuery().
		Where(erp.And(
			erp.Eq(lineOrderField(kind), orderID),
			erp.Eq("statecode", 0),
		)).
		Select(lineSelect...).
		OrderBy("createdon asc")
	if err := r.client.List(ctx, lineCollection(kind), q, &records); err != nil {
		return nil, err
	}

	lines := make([]OrderLine, 0, len(records))
	for _, record := range records {
		line := OrderLine{
			ID:               record.id(),
			ProductCode:      record.ProductCode,
			ProductGroupCode: record.ProductGroupCode,
			Quantity:         decimal.NewFromFloat(record.Quantity),
			BaseUnitPrice:    decimal.NewFromFloat(record.BaseUnitPrice),
			VATRate:          vatRateByCode[record.VATRateCode],
			PromotionID:      record.PromotionID,
		}
		if record.DiscountedPrice != nil {
			v := decimal.NewFromFloat(*record.DiscountedPrice)
			line.DiscountedUnitPrice = &v
		}
		if record.SecondaryPrice != nil {
			v := decimal.NewFromFloat(*record.SecondaryPrice)
			line.SecondaryUnitPrice = &v
		}
		if record.SecondaryAmount != nil {
			v := decimal.NewFromFloat(*record.SecondaryAmount)
			line.SecondaryDiscount = &v
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// UpdateLineDiscount implements Repository. Only the stacked-discount fields
// and the promotion back-reference are patched.
func (r *Repo) UpdateLineDiscount(ctx context.Context, kind OrderKind, lineID string, patch LineDiscountPatch) error {
	record := map[string]interface{}{
		"crdfd_secondaryprice":    patch.SecondaryUnitPrice.InexactFloat64(),
		"crdfd_secondarydiscount": patch.SecondaryDiscount.InexactFloat64(),
	}
	if patch.PromotionID != "" {
		record["crdfd_Promotion@odata.bind"] = erp.Bind(promotionsCollection, patch.PromotionID)
	}
	return r.client.Update(ctx, lineCollection(kind), lineID, record)
}

// UpdateAggregates implements Repository.
func (r *Repo) UpdateAggregates(ctx context.Context, kind OrderKind, orderID string, agg Aggregates) error {
	record := map[string]interface{}{
		"crdfd_subtotal":  agg.Subtotal.InexactFloat64(),
		"crdfd_vatamount": agg.VATAmount.InexactFloat64(),
		"crdfd_total":     agg.Total.InexactFloat64(),
	}
	return r.client.Update(ctx, headerCollection(kind), orderID, record)
}

var _ Repository = (*Repo)(nil)
