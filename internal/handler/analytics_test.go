package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Eropik/analytics-e-store/internal/model"
	"github.com/Eropik/analytics-e-store/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fakeRecordSource struct {
	productsErr error
}

func (f *fakeRecordSource) OrderRecords(ctx context.Context) ([]model.OrderRecord, error) {
	return []model.OrderRecord{{
		OrderID:      uuid.New(),
		Status:       model.StatusDelivered,
		OrderDate:    time.Now(),
		TotalAmount:  100,
		ProductID:    uuid.New(),
		ProductName:  "Jacket",
		CategoryID:   1,
		CategoryName: "Apparel",
		BrandID:      1,
		BrandName:    "Acme",
		Quantity:     1,
		Gender:       "F",
	}}, nil
}

func (f *fakeRecordSource) UserRecords(ctx context.Context) ([]model.UserRecord, error) {
	return []model.UserRecord{{UserID: uuid.New(), Gender: "M"}}, nil
}

func (f *fakeRecordSource) ProductRecords(ctx context.Context) ([]model.ProductRecord, error) {
	if f.productsErr != nil {
		return nil, f.productsErr
	}
	return []model.ProductRecord{{ProductID: uuid.New(), Name: "Jacket", CategoryName: "Apparel", BrandName: "Acme", Price: 260}}, nil
}

func (f *fakeRecordSource) RouteRecords(ctx context.Context) ([]model.RouteRecord, error) {
	return nil, nil
}

func (f *fakeRecordSource) LoginRecords(ctx context.Context, since time.Time) ([]model.LoginRecord, error) {
	return nil, nil
}

type fakeAuthorizer struct {
	allow bool
}

func (a *fakeAuthorizer) HasCapability(actor model.Actor, capability model.Capability) (bool, error) {
	return a.allow, nil
}

type recordingCache struct {
	sets map[string][]byte
}

func (c *recordingCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("cache miss")
}

func (c *recordingCache) Set(ctx context.Context, key string, data []byte) error {
	if c.sets == nil {
		c.sets = map[string][]byte{}
	}
	c.sets[key] = data
	return nil
}

func dashboardRouter(source *fakeRecordSource, authz *fakeAuthorizer, cache *recordingCache) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := service.NewAnalyticsEngine(source, authz, zap.NewNop())
	h := NewAnalyticsHandler(engine, cache, zap.NewNop())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("actor", &model.Actor{
			UserID:     uuid.New(),
			Email:      "analyst@console.local",
			Role:       model.RoleAdmin,
			Department: model.DeptAnalyze,
		})
	})
	r.GET("/api/analytics/dashboard", h.Dashboard)
	return r
}

type dashboardResponse map[string]struct {
	Views map[string][]model.Bucket `json:"views"`
	Error string                    `json:"error"`
}

func getDashboard(t *testing.T, r *gin.Engine) (int, dashboardResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/analytics/dashboard", nil)
	r.ServeHTTP(w, req)

	var resp dashboardResponse
	if w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode dashboard response: %v", err)
		}
	}
	return w.Code, resp
}

func TestDashboardOneScopeFailureDegradesOnlyThatScope(t *testing.T) {
	source := &fakeRecordSource{productsErr: errors.New("connection reset")}
	cache := &recordingCache{}
	r := dashboardRouter(source, &fakeAuthorizer{allow: true}, cache)

	code, resp := getDashboard(t, r)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}

	products, ok := resp["products"]
	if !ok {
		t.Fatal("products scope missing from response")
	}
	if products.Error != "unavailable" {
		t.Errorf("products error = %q, want unavailable", products.Error)
	}
	if len(products.Views) != 0 {
		t.Errorf("degraded scope carries views: %v", products.Views)
	}

	for _, scope := range []string{"users", "orders"} {
		s, ok := resp[scope]
		if !ok {
			t.Errorf("%s scope missing from response", scope)
			continue
		}
		if s.Error != "" {
			t.Errorf("%s scope degraded alongside products: %q", scope, s.Error)
		}
		if len(s.Views) == 0 {
			t.Errorf("%s scope returned no views", scope)
		}
	}
}

func TestDashboardDegradedPayloadIsNotCached(t *testing.T) {
	source := &fakeRecordSource{productsErr: errors.New("connection reset")}
	cache := &recordingCache{}
	r := dashboardRouter(source, &fakeAuthorizer{allow: true}, cache)

	if code, _ := getDashboard(t, r); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if len(cache.sets) != 0 {
		t.Errorf("degraded dashboard was cached: %v", cache.sets)
	}
}

func TestDashboardHealthyPayloadIsCached(t *testing.T) {
	cache := &recordingCache{}
	r := dashboardRouter(&fakeRecordSource{}, &fakeAuthorizer{allow: true}, cache)

	if code, _ := getDashboard(t, r); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if len(cache.sets) != 1 {
		t.Errorf("healthy dashboard was not cached: %v", cache.sets)
	}
}

func TestDashboardAccessDeniedAbortsWholeResponse(t *testing.T) {
	cache := &recordingCache{}
	r := dashboardRouter(&fakeRecordSource{}, &fakeAuthorizer{allow: false}, cache)

	code, _ := getDashboard(t, r)
	if code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", code)
	}
	if len(cache.sets) != 0 {
		t.Errorf("denied dashboard was cached: %v", cache.sets)
	}
}
