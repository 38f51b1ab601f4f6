package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sales_pricing_backend/internal/erp"
	ordersrepo "sales_pricing_backend/internal/orders/repository"
	"sales_pricing_backend/platform/logger"

	"github.com/shopspring/decimal"
)

type testERPConfig struct {
	baseURL string
}

func (c testERPConfig) GetERPBaseURL() string        { return c.baseURL }
func (c testERPConfig) GetERPTimeout() time.Duration { return 5 * time.Second }
func (c testERPConfig) GetERPMaxRetries() int        { return 0 }
func (c testERPConfig) GetERPRateLimitRPS() float64  { return 1000 }
func (c testERPConfig) GetTokenURL() string          { return "" }
func (c testERPConfig) GetTokenClientID() string     { return "" }
func (c testERPConfig) GetTokenClientSecret() string { return "" }

func newTestRepo(t *testing.T, handler http.Handler) *Repo {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := erp.NewClient(testERPConfig{baseURL: srv.URL}, erp.StaticTokenProvider("token-1"), logger.New("development"))
	return New(client)
}

func dec(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

// The remote system stores percentage values as whole numbers on both the
// promotion and the application rows; the domain carries fractions. Every
// boundary crossing must convert, in both directions.
func TestPercentageConvention_ReadAndWriteBoundaries(t *testing.T) {
	var createdBody map[string]interface{}
	repo := newTestRepo(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "crdfd_promotions"):
			w.Write([]byte(`{
				"crdfd_promotionid": "22222222-2222-2222-2222-222222222222",
				"crdfd_name": "Mười phần trăm",
				"crdfd_discounttype": 191920000,
				"crdfd_value": 10,
				"crdfd_startdate": "2026-01-01T00:00:00Z"
			}`))
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "crdfd_promotionapplications"):
			w.Write([]byte(`{"value":[{
				"crdfd_promotionapplicationid": "33333333-3333-3333-3333-333333333333",
				"_crdfd_promotion_value": "22222222-2222-2222-2222-222222222222",
				"crdfd_discounttype": 191920000,
				"crdfd_discountvalue": 10
			}]}`))
		case r.Method == http.MethodPost:
			if err := json.NewDecoder(r.Body).Decode(&createdBody); err != nil {
				t.Errorf("decode create body: %v", err)
			}
			w.Header().Set("OData-EntityId", "https://erp.example.com/api/data/v9.2/crdfd_promotionapplications(44444444-4444-4444-4444-444444444444)")
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	ctx := context.Background()

	// Read: a remote 10 becomes the fraction 0.1.
	promo, err := repo.Get(ctx, "22222222-2222-2222-2222-222222222222")
	if err != nil {
		t.Fatalf("get promotion: %v", err)
	}
	if !promo.Value.Equal(dec("0.1")) {
		t.Fatalf("expected fraction 0.1 past the read boundary, got %s", promo.Value)
	}

	// Write: the fraction converts back to the whole-number 10.
	_, err = repo.CreateOrder(ctx, ordersrepo.KindOrder, "11111111-1111-1111-1111-111111111111", Application{
		PromotionID: promo.ID,
		Kind:        KindPercentage,
		Value:       promo.Value,
	})
	if err != nil {
		t.Fatalf("create application: %v", err)
	}
	if got, ok := createdBody["crdfd_discountvalue"].(float64); !ok || got != 10 {
		t.Fatalf("expected whole-number 10 at the write boundary, got %v", createdBody["crdfd_discountvalue"])
	}

	// Read back: the stored whole-number 10 becomes the fraction 0.1 again.
	app, found, err := repo.FindActiveOrder(ctx, ordersrepo.KindOrder, "11111111-1111-1111-1111-111111111111", promo.ID)
	if err != nil || !found {
		t.Fatalf("find application: found=%v err=%v", found, err)
	}
	if !app.Value.Equal(dec("0.1")) {
		t.Fatalf("expected fraction 0.1 past the read boundary, got %s", app.Value)
	}
}

func TestFixedAmountPassesThroughUnconverted(t *testing.T) {
	var createdBody map[string]interface{}
	repo := newTestRepo(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&createdBody); err != nil {
			t.Errorf("decode create body: %v", err)
		}
		w.Header().Set("OData-EntityId", "https://erp.example.com/api/data/v9.2/crdfd_promotionapplications(44444444-4444-4444-4444-444444444444)")
		w.WriteHeader(http.StatusNoContent)
	}))

	_, err := repo.CreateOrder(context.Background(), ordersrepo.KindQuote, "11111111-1111-1111-1111-111111111111", Application{
		PromotionID: "22222222-2222-2222-2222-222222222222",
		Kind:        KindFixedAmount,
		Value:       dec("20000"),
	})
	if err != nil {
		t.Fatalf("create application: %v", err)
	}
	if got, ok := createdBody["crdfd_discountvalue"].(float64); !ok || got != 20000 {
		t.Fatalf("fixed amounts must not be scaled, got %v", createdBody["crdfd_discountvalue"])
	}
	if _, ok := createdBody["crdfd_Quote@odata.bind"]; !ok {
		t.Fatalf("expected quote binding, got %v", createdBody)
	}
}
