package repository

import (
	"context"
	"time"

	"sales_pricing_backend/internal/erp"
	ordersrepo "sales_pricing_backend/internal/orders/repository"

	"github.com/shopspring/decimal"
)

const (
	promotionsCollection   = "crdfd_promotions"
	applicationsCollection = "crdfd_promotionapplications"

	ordersCollection = "salesorders"
	quotesCollection = "quotes"
)

// Discount-type option-set codes.
const (
	discountTypePercentage  = 191920000
	discountTypeFixedAmount = 191920001
)

// Application-type option-set codes. Only order-level applications exist in
// this engine's write path.
const applicationTypeOrder = 191920000

var oneHundred = decimal.NewFromInt(100)

// Repo implements PromotionStore and ApplicationStore against the remote
// collaborator.
type Repo struct {
	client *erp.Client
}

// New creates a promotion repository.
func New(client *erp.Client) *Repo {
	return &Repo{client: client}
}

type promotionRecord struct {
	ID                   string   `json:"crdfd_promotionid"`
	Name                 string   `json:"crdfd_name"`
	DiscountType         int      `json:"crdfd_discounttype"`
	Value                float64  `json:"crdfd_value"`
	Value2               *float64 `json:"crdfd_value2"`
	Value3               *float64 `json:"crdfd_value3"`
	Cumulative           bool     `json:"crdfd_cumulative"`
	QuantityThreshold    float64  `json:"crdfd_quantitythreshold"`
	QuantityThreshold3   float64  `json:"crdfd_quantitythreshold3"`
	TotalAmountThreshold float64  `json:"crdfd_totalamountthreshold"`
	ProductCodes         string   `json:"crdfd_productcodes"`
	ProductGroupCodes    string   `json:"crdfd_productgroupcodes"`
	CustomerCodes        string   `json:"crdfd_customercodes"`
	PaymentTerms         string   `json:"crdfd_paymentterms"`
	StartDate            string   `json:"crdfd_startdate"`
	EndDate              *string  `json:"crdfd_enddate"`
	IsOrderLevel         bool     `json:"crdfd_isorderlevel"`
	IsSecondaryDiscount  bool     `json:"crdfd_issecondarydiscount"`
}

var promotionSelect = []string{
	"crdfd_promotionid", "crdfd_name", "crdfd_discounttype",
	"crdfd_value", "crdfd_value2", "crdfd_value3",
	"crdfd_cumulative", "crdfd_quantitythreshold", "crdfd_quantitythreshold3",
	"crdfd_totalamountthreshold",
	"crdfd_productcodes", "crdfd_productgroupcodes", "crdfd_customercodes",
	"crdfd_paymentterms", "crdfd_startdate", "crdfd_enddate",
	"crdfd_isorderlevel", "crdfd_issecondarydiscount",
}

// toDomain converts a remote row to the domain shape. The remote system
// stores percentage values as whole numbers (10 means 10%); they become
// fractions here and stay fractions everywhere past this boundary.
func (r promotionRecord) toDomain() Promotion {
	p := Promotion{
		ID:                   r.ID,
		Name:                 r.Name,
		Kind:                 KindFixedAmount,
		Value:                decimal.NewFromFloat(r.Value),
		Cumulative:           r.Cumulative,
		QuantityThreshold:    decimal.NewFromFloat(r.QuantityThreshold),
		QuantityThreshold3:   decimal.NewFromFloat(r.QuantityThreshold3),
		TotalAmountThreshold: decimal.NewFromFloat(r.TotalAmountThreshold),
		ProductCodes:         r.ProductCodes,
		ProductGroupCodes:    r.ProductGroupCodes,
		CustomerCodes:        r.CustomerCodes,
		PaymentTerms:         r.PaymentTerms,
		IsOrderLevel:         r.IsOrderLevel,
		IsSecondaryDiscount:  r.IsSecondaryDiscount,
	}
	if r.DiscountType == discountTypePercentage {
		p.Kind = KindPercentage
	}
	if r.Value2 != nil {
		v := decimal.NewFromFloat(*r.Value2)
		p.Value2 = &v
	}
	if r.Value3 != nil {
		v := decimal.NewFromFloat(*r.Value3)
		p.Value3 = &v
	}
	if p.Kind == KindPercentage {
		p.Value = p.Value.Div(oneHundred)
		if p.Value2 != nil {
			v := p.Value2.Div(oneHundred)
			p.Value2 = &v
		}
		if p.Value3 != nil {
			v := p.Value3.Div(oneHundred)
			p.Value3 = &v
		}
	}
	if t, err := time.Parse(time.RFC3339, r.StartDate); err == nil {
		p.StartDate = t
	}
	if r.EndDate != nil {
		if t, err := time.Parse(time.RFC3339, *r.EndDate); err == nil {
			p.EndDate = &t
		}
	}
	return p
}

// Get implements PromotionStore.
func (r *Repo) Get(ctx context.Context, promotionID string) (Promotion, error) {
	var record promotionRecord
	q := erp.NewQuery().Select(promotionSelect...)
	if err := r.client.Get(ctx, promotionsCollection, promotionID, q, &record); err != nil {
		return Promotion{}, err
	}
	return record.toDomain(), nil
}

// ListActive implements PromotionStore.
func (r *Repo) ListActive(ctx context.Context) ([]Promotion, error) {
	var records []promotionRecord
	q := erp.NewQuery().
		Where(erp.Eq("statecode", 0)).
		Select(promotionSelect...).
		OrderBy("crdfd_startdate desc")
	if err := r.client.List(ctx, promotionsCollection, q, &records); err != nil {
		return nil, err
	}
	promotions := make([]Promotion, 0, len(records))
	for _, record := range records {
		promotions = append(promotions, record.toDomain())
	}
	return promotions, nil
}

type applicationRecord struct {
	ID            string  `json:"crdfd_promotionapplicationid"`
	PromotionID   string  `json:"_crdfd_promotion_value"`
	DiscountType  int     `json:"crdfd_discounttype"`
	DiscountValue float64 `json:"crdfd_discountvalue"`
}

func orderReferenceField(kind ordersrepo.OrderKind) string {
	if kind == ordersrepo.KindQuote {
		return "_crdfd_quote_value"
	}
	return "_crdfd_order_value"
}

func orderBinding(kind ordersrepo.OrderKind) (field, collection string) {
	if kind == ordersrepo.KindQuote {
		return "crdfd_Quote@odata.bind", quotesCollection
	}
	return "crdfd_Order@odata.bind", ordersCollection
}

// FindActiveOrder implements ApplicationStore. It always reads fresh; no
// caching sits in front of it.
func (r *Repo) FindActiveOrder(ctx context.Context, kind ordersrepo.OrderKind, orderID, promotionID string) (Application, bool, error) {
	var records []applicationRecord
	q := erp.NewQuery().
		Where(erp.And(
			erp.Eq(orderReferenceField(kind), orderID),
			erp.Eq("_crdfd_promotion_value", promotionID),
			erp.Eq("crdfd_applicationtype", applicationTypeOrder),
			erp.Eq("statecode", 0),
		)).
		Select("crdfd_promotionapplicationid", "_crdfd_promotion_value", "crdfd_discounttype", "crdfd_discountvalue").
		Top(1)
	if err := r.client.List(ctx, applicationsCollection, q, &records); err != nil {
		return Application{}, false, err
	}
	if len(records) == 0 {
		return Application{}, false, nil
	}
	record := records[0]
	app := Application{
		ID:          record.ID,
		PromotionID: record.PromotionID,
		Kind:        KindFixedAmount,
		Value:       decimal.NewFromFloat(record.DiscountValue),
	}
	if record.DiscountType == discountTypePercentage {
		app.Kind = KindPercentage
		// Same whole-number convention as the promotion rows; fractions past
		// this boundary.
		app.Value = app.Value.Div(oneHundred)
	}
	return app, true, nil
}

// CreateOrder implements ApplicationStore. The internal fractional
// percentage converts back to the remote whole-number convention here, the
// mirror of the division in toDomain.
func (r *Repo) CreateOrder(ctx context.Context, kind ordersrepo.OrderKind, orderID string, app Application) (string, error) {
	discountType := discountTypeFixedAmount
	value := app.Value
	if app.Kind == KindPercentage {
		discountType = discountTypePercentage
		value = value.Mul(oneHundred)
	}
	bindField, bindCollection := orderBinding(kind)
	record := map[string]interface{}{
		bindField:                    erp.Bind(bindCollection, orderID),
		"crdfd_Promotion@odata.bind": erp.Bind(promotionsCollection, app.PromotionID),
		"crdfd_applicationtype":      applicationTypeOrder,
		"crdfd_discounttype":         discountType,
		"crdfd_discountvalue":        value.InexactFloat64(),
	}
	return r.client.Create(ctx, applicationsCollection, record)
}

var (
	_ PromotionStore   = (*Repo)(nil)
	_ ApplicationStore = (*Repo)(nil)
)
