// Package repository provides read-only catalog reference data from the
// remote collaborator: products, units, warehouses and customers.
package repository

import "context"

// Product is the catalog product projection.
type Product struct {
	ID        string
	Code      string
	Name      string
	GroupCode string
	GroupName string
	BaseUnit  string
}

// Unit is one sellable unit of a product with its conversion factor
// relative to the base unit.
type Unit struct {
	ID               string
	Name             string
	ConversionFactor float64
}

// Warehouse is a stock location with the product's on-hand quantity.
type Warehouse struct {
	ID       string
	Name     string
	OnHand   float64
	Reserved float64
}

// Customer is the customer projection pricing needs: group labels select
// the price tier, the loyalty tier keys the discount table.
type Customer struct {
	ID          string
	Code        string
	Name        string
	GroupLabels []string
	Region      string
	LoyaltyTier string
	PaymentTerm string
}

// Store is the catalog read contract.
type Store interface {
	GetProductByCode(ctx context.Context, code string) (Product, error)
	ListUnits(ctx context.Context, productCode string) ([]Unit, error)
	ListWarehouses(ctx context.Context, productCode string) ([]Warehouse, error)
	GetCustomerByCode(ctx context.Context, code string) (Customer, error)
	GetCustomerByID(ctx context.Context, id string) (Customer, error)
	SearchCustomers(ctx context.Context, term string, limit int) ([]Customer, error)
}
