package repository

import (
	"context"
	"strings"

	"sales_pricing_backend/internal/erp"
	"sales_pricing_backend/platform/apperr"
)

// splitLabels splits a comma-separated label list into trimmed entries.
func splitLabels(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			labels = append(labels, t)
		}
	}
	return labels
}

const (
	productsCollection   = "crdfd_products"
	unitsCollection      = "crdfd_productunits"
	warehousesCollection = "crdfd_warehousestocks"
	customersCollection  = "accounts"
)

// Repo implements Store against the remote collaborator.
type Repo struct {
	client *erp.Client
}

// New creates a catalog repository.
func New(client *erp.Client) *Repo {
	return &Repo{client: client}
}

type productRecord struct {
	ID        string `json:"crdfd_productid"`
	Code      string `json:"crdfd_productcode"`
	Name      string `json:"crdfd_name"`
	GroupCode string `json:"crdfd_productgroupcode"`
	GroupName string `json:"crdfd_productgroupname"`
	BaseUnit  string `json:"crdfd_baseunit"`
}

// GetProductByCode implements Store.
func (r *Repo) GetProductByCode(ctx context.Context, code string) (Product, error) {
	var records []productRecord
	q := erp.NewQuery().
		Where(erp.And(
			erp.Eq("crdfd_productcode", code),
			erp.Eq("statecode", 0),
		)).
		Select("crdfd_productid", "crdfd_productcode", "crdfd_name",
			"crdfd_productgroupcode", "crdfd_productgroupname", "crdfd_baseunit").
		Top(1)
	if err := r.client.List(ctx, productsCollection, q, &records); err != nil {
		return Product{}, err
	}
	if len(records) == 0 {
		return Product{}, apperr.NotFound("product not found")
	}
	p := records[0]
	return Product{
		ID:        p.ID,
		Code:      p.Code,
		Name:      p.Name,
		GroupCode: p.GroupCode,
		GroupName: p.GroupName,
		BaseUnit:  p.BaseUnit,
	}, nil
}

type unitRecord struct {
	ID               string  `json:"crdfd_productunitid"`
	Name             string  `json:"crdfd_unitname"`
	ConversionFactor float64 `json:"crdfd_conversionfactor"`
}

// ListUnits implements Store.
func (r *Repo) ListUnits(ctx context.Context, productCode string) ([]Unit, error) {
	var records []unitRecord
	q := erp.NewQuery().
		Where(erp.And(
			erp.Eq("crdfd_productcode", productCode),
			erp.Eq("statecode", 0),
		)).
		Select("crdfd_productunitid", "crdfd_unitname", "crdfd_conversionfactor").
		OrderBy("crdfd_conversionfactor asc")
	if err := r.client.List(ctx, unitsCollection, q, &records); err != nil {
		return nil, err
	}
	units := make([]Unit, 0, len(records))
	for _, u := range records {
		units = append(units, Unit{ID: u.ID, Name: u.Name, ConversionFactor: u.ConversionFactor})
	}
	return units, nil
}

type warehouseRecord struct {
	ID       string  `json:"crdfd_warehousestockid"`
	Name     string  `json:"crdfd_warehousename"`
	OnHand   float64 `json:"crdfd_onhand"`
	Reserved float64 `json:"crdfd_reserved"`
}

// ListWarehouses implements Store.
func (r *Repo) ListWarehouses(ctx context.Context, productCode string) ([]Warehouse, error) {
	var records []warehouseRecord
	q := erp.NewQuery().
		Where(erp.Eq("crdfd_productcode", productCode)).
		Select("crdfd_warehousestockid", "crdfd_warehousename", "crdfd_onhand", "crdfd_reserved").
		OrderBy("crdfd_warehousename asc")
	if err := r.client.List(ctx, warehousesCollection, q, &records); err != nil {
		return nil, err
	}
	warehouses := make([]Warehouse, 0, len(records))
	for _, w := range records {
		warehouses = append(warehouses, Warehouse{ID: w.ID, Name: w.Name, OnHand: w.OnHand, Reserved: w.Reserved})
	}
	return warehouses, nil
}

type customerRecord struct {
	ID          string `json:"accountid"`
	Code        string `json:"crdfd_customercode"`
	Name        string `json:"name"`
	GroupLabels string `json:"crdfd_grouplabels"`
	Region      string `json:"crdfd_region"`
	LoyaltyTier string `json:"crdfd_loyaltytier"`
	PaymentTerm string `json:"crdfd_paymentterm"`
}

var customerSelect = []string{
	"accountid", "crdfd_customercode", "name",
	"crdfd_grouplabels", "crdfd_region", "crdfd_loyaltytier", "crdfd_paymentterm",
}

func (c customerRecord) toDomain() Customer {
	return Customer{
		ID:          c.ID,
		Code:        c.Code,
		Name:        c.Name,
		GroupLabels: splitLabels(c.GroupLabels),
		Region:      c.Region,
		LoyaltyTier: c.LoyaltyTier,
		PaymentTerm: c.PaymentTerm,
	}
}

// GetCustomerByCode implements Store.
func (r *Repo) GetCustomerByCode(ctx context.Context, code string) (Customer, error) {
	var records []customerRecord
	q := erp.NewQuery().
		Where(erp.And(
			erp.Eq("crdfd_customercode", code),
			erp.Eq("statecode", 0),
		)).
		Select(customerSelect...).
		Top(1)
	if err := r.client.List(ctx, customersCollection, q, &records); err != nil {
		return Customer{}, err
	}
	if len(records) == 0 {
		return Customer{}, apperr.NotFound("customer not found")
	}
	return records[0].toDomain(), nil
}

// GetCustomerByID implements Store.
func (r *Repo) GetCustomerByID(ctx context.Context, id string) (Customer, error) {
	var record customerRecord
	q := erp.NewQuery().Select(customerSelect...)
	if err := r.client.Get(ctx, customersCollection, id, q, &record); err != nil {
		return Customer{}, err
	}
	return record.toDomain(), nil
}

// SearchCustomers implements Store. The term matches code prefix or name
// substring.
func (r *Repo) SearchCustomers(ctx context.Context, term string, limit int) ([]Customer, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	var records []customerRecord
	q := erp.NewQuery().
		Where(erp.And(
			erp.Or(
				erp.StartsWith("crdfd_customercode", term),
				erp.Contains("name", term),
			),
			erp.Eq("statecode", 0),
		)).
		Select(customerSelect...).
		OrderBy("name asc").
		Top(limit)
	if err := r.client.List(ctx, customersCollection, q, &records); err != nil {
		return nil, err
	}
	customers := make([]Customer, 0, len(records))
	for _, c := range records {
		customers = append(customers, c.toDomain())
	}
	return customers, nil
}

var _ Store = (*Repo)(nil)
