// Package service aggregates catalog reads for presentation.
package service

import (
	"context"
	"encoding/json"
	"time"

	"sales_pricing_backend/internal/catalog/repository"
	"sales_pricing_backend/platform/cache"
	"sales_pricing_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// ProductDetail is a product with its units and stock, assembled from
// several remote lookups.
type ProductDetail struct {
	Product    repository.Product
	Units      []repository.Unit
	Warehouses []repository.Warehouse
}

// Service serves catalog reads with a short-TTL cache in front.
type Service struct {
	store repository.Store
	cache cache.Cache
	ttl   time.Duration
	log   *logger.Logger
}

// New creates the catalog service.
func New(store repository.Store, c cache.Cache, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{store: store, cache: c, ttl: ttl, log: log}
}

// GetProductDetail fetches the product, then fans out units and warehouse
// stock concurrently. A failed facet degrades to empty rather than failing
// the whole read; the product itself must resolve.
func (s *Service) GetProductDetail(ctx context.Context, productCode string) (ProductDetail, error) {
	key := cache.Key("catalog", "product", productCode)
	if raw, ok, _ := s.cache.Get(ctx, key); ok {
		var detail ProductDetail
		if err := json.Unmarshal(raw, &detail); err == nil {
			return detail, nil
		}
	}

	product, err := s.store.GetProductByCode(ctx, productCode)
	if err != nil {
		return ProductDetail{}, err
	}

	detail := ProductDetail{Product: product}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		units, err := s.store.ListUnits(gctx, productCode)
		if err != nil {
			s.log.WithContext(ctx).Warn("units lookup degraded", "product_code", productCode, "error", err.Error())
			return nil
		}
		detail.Units = units
		return nil
	})
	g.Go(func() error {
		warehouses, err := s.store.ListWarehouses(gctx, productCode)
		if err != nil {
			s.log.WithContext(ctx).Warn("warehouse lookup degraded", "product_code", productCode, "error", err.Error())
			return nil
		}
		detail.Warehouses = warehouses
		return nil
	})
	_ = g.Wait()

	if raw, err := json.Marshal(detail); err == nil {
		_ = s.cache.Set(ctx, key, raw, s.ttl)
	}
	return detail, nil
}

// ListUnits returns the sellable units for a product. Cached; unit
// definitions change rarely.
func (s *Service) ListUnits(ctx context.Context, productCode string) ([]repository.Unit, error) {
	key := cache.Key("catalog", "units", productCode)
	if raw, ok, _ := s.cache.Get(ctx, key); ok {
		var units []repository.Unit
		if err := json.Unmarshal(raw, &units); err == nil {
			return units, nil
		}
	}

	units, err := s.store.ListUnits(ctx, productCode)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(units); err == nil {
		_ = s.cache.Set(ctx, key, raw, s.ttl)
	}
	return units, nil
}

// ListWarehouses returns the per-warehouse stock for a product. Stock moves
// too fast for a cached read to be useful.
func (s *Service) ListWarehouses(ctx context.Context, productCode string) ([]repository.Warehouse, error) {
	return s.store.ListWarehouses(ctx, productCode)
}

// GetCustomer returns one customer by code.
func (s *Service) GetCustomer(ctx context.Context, code string) (repository.Customer, error) {
	key := cache.Key("catalog", "customer", code)
	if raw, ok, _ := s.cache.Get(ctx, key); ok {
		var customer repository.Customer
		if err := json.Unmarshal(raw, &customer); err == nil {
			return customer, nil
		}
	}

	customer, err := s.store.GetCustomerByCode(ctx, code)
	if err != nil {
		return repository.Customer{}, err
	}
	if raw, err := json.Marshal(customer); err == nil {
		_ = s.cache.Set(ctx, key, raw, s.ttl)
	}
	return customer, nil
}

// SearchCustomers returns customers matching the term. Search results are
// not cached; terms are too varied to be worth the memory.
func (s *Service) SearchCustomers(ctx context.Context, term string, limit int) ([]repository.Customer, error) {
	return s.store.SearchCustomers(ctx, term, limit)
}
