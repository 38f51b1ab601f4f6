package erp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"sales_pricing_backend/platform/apperr"
	"sales_pricing_backend/platform/logger"
)

type testERPConfig struct {
	baseURL string
}

func (c testERPConfig) GetERPBaseURL() string          { return c.baseURL }
func (c testERPConfig) GetERPTimeout() time.Duration   { return 5 * time.Second }
func (c testERPConfig) GetERPMaxRetries() int          { return 2 }
func (c testERPConfig) GetERPRateLimitRPS() float64    { return 1000 }
func (c testERPConfig) GetTokenURL() string            { return "" }
func (c testERPConfig) GetTokenClientID() string       { return "" }
func (c testERPConfig) GetTokenClientSecret() string   { return "" }

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(testERPConfig{baseURL: srv.URL}, StaticTokenProvider("token-1"), logger.New("development"))
	return client, srv
}

func TestClient_ListDecodesEnvelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("missing bearer header, got %q", got)
		}
		if got := r.URL.Query().Get("$filter"); got != "crdfd_productcode eq 'SP-001'" {
			t.Errorf("unexpected filter %q", got)
		}
		w.Write([]byte(`{"value":[{"crdfd_productcode":"SP-001"},{"crdfd_productcode":"SP-001"}]}`))
	}))

	var rows []struct {
		ProductCode string `json:"crdfd_productcode"`
	}
	err := client.List(context.Background(), "crdfd_pricelistentries", NewQuery().Where(Eq("crdfd_productcode", "SP-001")), &rows)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].ProductCode != "SP-001" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestClient_RetriesTransientThenSucceeds(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"value":[]}`))
	}))

	var rows []map[string]interface{}
	if err := client.List(context.Background(), "crdfd_promotions", NewQuery(), &rows); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestClient_DoesNotRetryPermanent4xx(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid query"}}`))
	}))

	var rows []map[string]interface{}
	err := client.List(context.Background(), "crdfd_promotions", NewQuery(), &rows)
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestClient_UnauthorizedRefreshesOnceThenFails(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	var rows []map[string]interface{}
	err := client.List(context.Background(), "crdfd_promotions", NewQuery(), &rows)
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected exactly one forced refresh (2 attempts), got %d", calls)
	}
}

func TestClient_CreateReturnsEntityID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Header().Set("OData-EntityId", "https://erp.example.com/api/data/v9.2/crdfd_promotionapplications(aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee)")
		w.WriteHeader(http.StatusNoContent)
	}))

	id, err := client.Create(context.Background(), "crdfd_promotionapplications", map[string]string{"crdfd_name": "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee" {
		t.Fatalf("unexpected id %s", id)
	}
}

func TestClient_NotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	var out map[string]interface{}
	err := client.Get(context.Background(), "salesorders", "11111111-2222-3333-4444-555555555555", nil, &out)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
