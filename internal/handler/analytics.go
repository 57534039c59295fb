package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Eropik/analytics-e-store/internal/metrics"
	"github.com/Eropik/analytics-e-store/internal/model"
	"github.com/Eropik/analytics-e-store/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DashboardCache stores assembled dashboard payloads. A Get miss is an
// error; Set failures are non-fatal.
type DashboardCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
}

// AnalyticsHandler serves the aggregation endpoints and the combined
// dashboard.
type AnalyticsHandler struct {
	engine *service.AnalyticsEngine
	cache  DashboardCache
	logger *zap.Logger
}

// NewAnalyticsHandler creates the analytics handler.
func NewAnalyticsHandler(engine *service.AnalyticsEngine, cache DashboardCache, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{engine: engine, cache: cache, logger: logger}
}

// parseFilter builds the facet filter from query parameters.
func parseFilter(c *gin.Context) (model.FacetFilter, error) {
	f := model.FacetFilter{
		Gender:   c.Query("gender"),
		AgeGroup: c.Query("ageGroup"),
		Status:   model.OrderStatus(c.Query("status")),
	}
	for _, p := range []struct {
		name string
		dst  **int
	}{
		{"month", &f.Month},
		{"categoryId", &f.CategoryID},
		{"brandId", &f.BrandID},
	} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return f, model.Validationf("%s must be an integer, got %q", p.name, raw)
		}
		*p.dst = &v
	}
	return f, nil
}

// Aggregate handles GET /api/analytics/:scope.
func (h *AnalyticsHandler) Aggregate(c *gin.Context) {
	actor, exists := getActor(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	scope := model.Scope(c.Param("scope"))
	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	start := time.Now()
	views, err := h.engine.Aggregate(c.Request.Context(), scope, filter, actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	metrics.AnalyticsQueriesTotal.WithLabelValues(string(scope)).Inc()
	metrics.AnalyticsQueryDuration.WithLabelValues(string(scope)).Observe(time.Since(start).Seconds())

	c.JSON(http.StatusOK, gin.H{"scope": scope, "views": views})
}

// Analyze handles GET /api/analytics/analyze?dimension=products|categories|brands.
func (h *AnalyticsHandler) Analyze(c *gin.Context) {
	actor, exists := getActor(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	dim := model.AnalyzeDimension(c.Query("dimension"))
	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	buckets, err := h.engine.AnalyzeGeneric(c.Request.Context(), dim, filter, actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	metrics.AnalyticsQueriesTotal.WithLabelValues(string(service.ViewAnalyze)).Inc()

	c.JSON(http.StatusOK, gin.H{"dimension": dim, "buckets": buckets})
}

// dashboardScope is one scope's slot in the combined dashboard response.
// Scopes fail independently: an error in one leaves the others intact.
type dashboardScope struct {
	Views map[string][]model.Bucket `json:"views,omitempty"`
	Error string                    `json:"error,omitempty"`
}

// Dashboard handles GET /api/analytics/dashboard: every scope aggregated
// concurrently with an unfiltered facet set, optionally served from cache.
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	actor, exists := getActor(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	cacheKey := fmt.Sprintf("dashboard:%s", actor.Department)
	if data, err := h.cache.Get(c.Request.Context(), cacheKey); err == nil {
		metrics.DashboardCacheHitsTotal.Inc()
		c.Data(http.StatusOK, "application/json", data)
		return
	}

	scopes := []model.Scope{model.ScopeProducts, model.ScopeUsers, model.ScopeOrders}
	result := make(map[model.Scope]*dashboardScope, len(scopes))
	var mu sync.Mutex
	degraded := false

	g, ctx := errgroup.WithContext(c.Request.Context())
	for _, scope := range scopes {
		scope := scope
		g.Go(func() error {
			views, err := h.engine.Aggregate(ctx, scope, model.FacetFilter{}, actor)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Authorization failures abort the whole dashboard; data
				// failures degrade a single scope.
				if model.IsKind(err, model.KindAccessDenied) {
					return err
				}
				h.logger.Warn("dashboard scope failed", zap.String("scope", string(scope)), zap.Error(err))
				result[scope] = &dashboardScope{Error: "unavailable"}
				degraded = true
				return nil
			}
			result[scope] = &dashboardScope{Views: views}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		respondError(c, h.logger, err)
		return
	}

	payload := gin.H{}
	keys := make([]string, 0, len(result))
	for s := range result {
		keys = append(keys, string(s))
	}
	sort.Strings(keys)
	for _, k := range keys {
		payload[k] = result[model.Scope(k)]
	}

	data, err := json.Marshal(payload)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	// A degraded payload is not cached: a transient store failure must not
	// keep being served until the TTL runs out.
	if !degraded {
		if err := h.cache.Set(c.Request.Context(), cacheKey, data); err != nil {
			h.logger.Warn("failed to cache dashboard", zap.Error(err))
		}
	}

	c.Data(http.StatusOK, "application/json", data)
}
