package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"sales_pricing_backend/internal/catalog/repository"
	"sales_pricing_backend/platform/cache"
	"sales_pricing_backend/platform/logger"
)

type fakeStore struct {
	product        repository.Product
	units          []repository.Unit
	warehouses     []repository.Warehouse
	unitsErr       error
	warehousesErr  error
	unitCalls      atomic.Int64
	warehouseCalls atomic.Int64
}

func (f *fakeStore) GetProductByCode(context.Context, string) (repository.Product, error) {
	return f.product, nil
}

func (f *fakeStore) ListUnits(context.Context, string) ([]repository.Unit, error) {
	f.unitCalls.Add(1)
	return f.units, f.unitsErr
}

func (f *fakeStore) ListWarehouses(context.Context, string) ([]repository.Warehouse, error) {
	f.warehouseCalls.Add(1)
	return f.warehouses, f.warehousesErr
}

func (f *fakeStore) GetCustomerByCode(context.Context, string) (repository.Customer, error) {
	return repository.Customer{}, nil
}

func (f *fakeStore) GetCustomerByID(context.Context, string) (repository.Customer, error) {
	return repository.Customer{}, nil
}

func (f *fakeStore) SearchCustomers(context.Context, string, int) ([]repository.Customer, error) {
	return nil, nil
}

func newTestService(store *fakeStore) *Service {
	return New(store, cache.NewMemory(), time.Minute, logger.New("development"))
}

func TestListUnits_SecondReadServedFromCache(t *testing.T) {
	store := &fakeStore{units: []repository.Unit{{ID: "u-1", Name: "Thùng", ConversionFactor: 24}}}
	svc := newTestService(store)

	for i := 0; i < 2; i++ {
		units, err := svc.ListUnits(context.Background(), "SP-001")
		if err != nil {
			t.Fatalf("list units %d: %v", i, err)
		}
		if len(units) != 1 || units[0].Name != "Thùng" {
			t.Fatalf("unexpected units: %+v", units)
		}
	}
	if calls := store.unitCalls.Load(); calls != 1 {
		t.Fatalf("expected one upstream read, got %d", calls)
	}
}

func TestListWarehouses_NeverCached(t *testing.T) {
	store := &fakeStore{warehouses: []repository.Warehouse{{ID: "w-1", Name: "Kho HCM", OnHand: 100, Reserved: 20}}}
	svc := newTestService(store)

	for i := 0; i < 2; i++ {
		if _, err := svc.ListWarehouses(context.Background(), "SP-001"); err != nil {
			t.Fatalf("list warehouses %d: %v", i, err)
		}
	}
	if calls := store.warehouseCalls.Load(); calls != 2 {
		t.Fatalf("stock reads must always hit upstream, got %d", calls)
	}
}

func TestGetProductDetail_FacetFailureDegrades(t *testing.T) {
	store := &fakeStore{
		product:  repository.Product{Code: "SP-001", Name: "Sơn lót"},
		unitsErr: errors.New("upstream 503"),
		warehouses: []repository.Warehouse{
			{ID: "w-1", Name: "Kho HCM", OnHand: 10},
		},
	}
	svc := newTestService(store)

	detail, err := svc.GetProductDetail(context.Background(), "SP-001")
	if err != nil {
		t.Fatalf("a failed facet must degrade, not fail: %v", err)
	}
	if len(detail.Units) != 0 {
		t.Fatalf("expected empty units after degrade, got %+v", detail.Units)
	}
	if len(detail.Warehouses) != 1 {
		t.Fatalf("expected the surviving facet, got %+v", detail.Warehouses)
	}
}
