package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Eropik/analytics-e-store/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// View names emitted by Aggregate, keyed by scope.
const (
	ViewCategoryShare        = "category_share"
	ViewBrandShare           = "brand_share"
	ViewProductShare         = "product_share"
	ViewPriceBuckets         = "price_buckets"
	ViewTopCities            = "top_cities"
	ViewRouteDistanceBuckets = "route_distance_buckets"
	ViewAgeBuckets           = "age_buckets"
	ViewLoginsByHour         = "logins_by_hour"
	ViewTopBrands            = "top_brands"
	ViewTopCategories        = "top_categories"
	ViewTopProducts          = "top_products"
	ViewRevenueByMonth       = "revenue_by_month"
	ViewBestsellersByMonth   = "bestsellers_by_month"
	ViewAnalyze              = "analyze"
)

const (
	topN             = 10
	trailingMonths   = 12
	loginWindowDays  = 30
	monthLabelFormat = "Jan 2006"
)

// RecordSource supplies the already-fetched, boundary-normalized record sets
// the aggregation engine computes over. Each method is independently
// fetchable; no cross-call snapshot consistency is assumed.
type RecordSource interface {
	OrderRecords(ctx context.Context) ([]model.OrderRecord, error)
	UserRecords(ctx context.Context) ([]model.UserRecord, error)
	ProductRecords(ctx context.Context) ([]model.ProductRecord, error)
	RouteRecords(ctx context.Context) ([]model.RouteRecord, error)
	LoginRecords(ctx context.Context, since time.Time) ([]model.LoginRecord, error)
}

// AnalyticsEngine turns a record set plus a facet filter into labeled bucket
// sequences. All computation is synchronous and side-effect free.
type AnalyticsEngine struct {
	source RecordSource
	authz  Authorizer
	logger *zap.Logger

	// now is swappable so trailing-window views are testable.
	now func() time.Time
}

// NewAnalyticsEngine creates the engine with its collaborators.
func NewAnalyticsEngine(source RecordSource, authz Authorizer, logger *zap.Logger) *AnalyticsEngine {
	return &AnalyticsEngine{
		source: source,
		authz:  authz,
		logger: logger,
		now:    time.Now,
	}
}

// Aggregate computes every view registered for the scope. Facets bind only
// on the orders scope; the products and users scopes validate the filter and
// then compute over the full record set. A filter matching zero records
// yields empty bucket slices under every view key, never an error and never
// a missing key.
func (e *AnalyticsEngine) Aggregate(ctx context.Context, scope model.Scope, filter model.FacetFilter, actor model.Actor) (map[string][]model.Bucket, error) {
	if err := e.requireAnalyticsView(actor); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	switch scope {
	case model.ScopeProducts:
		return e.aggregateProducts(ctx)
	case model.ScopeUsers:
		return e.aggregateUsers(ctx)
	case model.ScopeOrders:
		return e.aggregateOrders(ctx, filter)
	default:
		return nil, model.Validationf("unknown aggregation scope %q", scope)
	}
}

// AnalyzeGeneric is the single-breakdown view: share of products, categories
// or brands over delivered orders, filtered by gender, age group and
// calendar month.
func (e *AnalyticsEngine) AnalyzeGeneric(ctx context.Context, dim model.AnalyzeDimension, filter model.FacetFilter, actor model.Actor) ([]model.Bucket, error) {
	if err := e.requireAnalyticsView(actor); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var key func(model.OrderRecord) string
	switch dim {
	case model.DimProducts:
		key = func(r model.OrderRecord) string { return r.ProductName }
	case model.DimCategories:
		key = func(r model.OrderRecord) string { return r.CategoryName }
	case model.DimBrands:
		key = func(r model.OrderRecord) string { return r.BrandName }
	default:
		return nil, model.Validationf("unknown analyze dimension %q", dim)
	}

	records, err := e.source.OrderRecords(ctx)
	if err != nil {
		return nil, err
	}

	// The generic breakdown always counts delivered orders only.
	delivered := filter
	delivered.Status = model.StatusDelivered

	buckets := quantityShare(filterOrderRecords(records, delivered), key, 0)
	return buckets, nil
}

// ---- products scope ----

func (e *AnalyticsEngine) aggregateProducts(ctx context.Context) (map[string][]model.Bucket, error) {
	products, err := e.source.ProductRecords(ctx)
	if err != nil {
		return nil, err
	}
	routes, err := e.source.RouteRecords(ctx)
	if err != nil {
		return nil, err
	}

	views := map[string][]model.Bucket{
		ViewCategoryShare: countShare(products, func(p model.ProductRecord) string { return p.CategoryName }),
		ViewBrandShare:    countShare(products, func(p model.ProductRecord) string { return p.BrandName }),
		ViewPriceBuckets:  rangeBuckets(products, func(p model.ProductRecord) float64 { return p.Price }, model.PriceBucketEdges),
		ViewTopCities:     topCitiesByRouteVolume(routes),
		ViewRouteDistanceBuckets: rangeBuckets(routes,
			func(r model.RouteRecord) float64 { return r.DistanceKm }, model.DistanceBucketEdges),
	}
	return views, nil
}

func topCitiesByRouteVolume(routes []model.RouteRecord) []model.Bucket {
	counts := map[string]float64{}
	for _, r := range routes {
		counts[r.CityAName]++
	}
	return topBuckets(counts, topN)
}

// ---- users scope ----

func (e *AnalyticsEngine) aggregateUsers(ctx context.Context) (map[string][]model.Bucket, error) {
	users, err := e.source.UserRecords(ctx)
	if err != nil {
		return nil, err
	}
	since := e.now().AddDate(0, 0, -loginWindowDays)
	logins, err := e.source.LoginRecords(ctx, since)
	if err != nil {
		return nil, err
	}

	views := map[string][]model.Bucket{
		ViewAgeBuckets:   ageBuckets(users),
		ViewLoginsByHour: loginsByHour(logins),
	}
	return views, nil
}

func ageBuckets(users []model.UserRecord) []model.Bucket {
	counts := map[string]float64{}
	for _, u := range users {
		counts[bandOf(u.Age)]++
	}

	buckets := make([]model.Bucket, 0, len(counts))
	for label, n := range counts {
		buckets = append(buckets, model.Bucket{Label: label, Value: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return ageBandLowerBound(buckets[i].Label) < ageBandLowerBound(buckets[j].Label)
	})
	return buckets
}

func bandOf(age *int) string {
	if age == nil {
		return model.AgeBandUnknown
	}
	return model.AgeBand(*age)
}

// ageBandLowerBound orders band labels by their lower bound; the unknown
// band sorts last.
func ageBandLowerBound(label string) int {
	if label == model.AgeBandUnknown {
		return 1 << 30
	}
	trimmed := strings.TrimSuffix(label, "+")
	if i := strings.Index(trimmed, "-"); i >= 0 {
		trimmed = trimmed[:i]
	}
	lo, err := strconv.Atoi(trimmed)
	if err != nil {
		return 1 << 30
	}
	return lo
}

func loginsByHour(logins []model.LoginRecord) []model.Bucket {
	counts := map[int]float64{}
	for _, l := range logins {
		counts[l.LoggedAt.Hour()]++
	}

	buckets := make([]model.Bucket, 0, len(counts))
	for hour := 0; hour < 24; hour++ {
		if n, ok := counts[hour]; ok {
			buckets = append(buckets, model.Bucket{Label: strconv.Itoa(hour), Value: n})
		}
	}
	return buckets
}

// ---- orders scope ----

func (e *AnalyticsEngine) aggregateOrders(ctx context.Context, filter model.FacetFilter) (map[string][]model.Bucket, error) {
	records, err := e.source.OrderRecords(ctx)
	if err != nil {
		return nil, err
	}

	// Top-N and time-series views count delivered orders unless the caller
	// filters by a status explicitly; the share re-slices span all statuses
	// by default.
	deliveredFilter := filter
	if deliveredFilter.Status == "" {
		deliveredFilter.Status = model.StatusDelivered
	}
	deliveredRecords := filterOrderRecords(records, deliveredFilter)
	sliceRecords := filterOrderRecords(records, filter)

	views := map[string][]model.Bucket{
		ViewTopBrands:          quantityShare(deliveredRecords, func(r model.OrderRecord) string { return r.BrandName }, topN),
		ViewTopCategories:      quantityShare(deliveredRecords, func(r model.OrderRecord) string { return r.CategoryName }, topN),
		ViewTopProducts:        quantityShare(deliveredRecords, func(r model.OrderRecord) string { return r.ProductName }, topN),
		ViewRevenueByMonth:     e.revenueByMonth(deliveredRecords),
		ViewBestsellersByMonth: e.bestsellersByMonth(deliveredRecords),
		ViewBrandShare:         quantityShare(sliceRecords, func(r model.OrderRecord) string { return r.BrandName }, 0),
		ViewCategoryShare:      quantityShare(sliceRecords, func(r model.OrderRecord) string { return r.CategoryName }, 0),
		ViewProductShare:       quantityShare(sliceRecords, func(r model.OrderRecord) string { return r.ProductName }, 0),
	}
	return views, nil
}

// revenueByMonth sums each order's total amount into its calendar month over
// the trailing twelve months. The series is always dense: exactly twelve
// buckets, zero-valued months included, so chart axes stay stable.
func (e *AnalyticsEngine) revenueByMonth(records []model.OrderRecord) []model.Bucket {
	type orderTotal struct {
		month  time.Time
		amount float64
	}
	seen := map[uuid.UUID]orderTotal{}
	for _, r := range records {
		if _, ok := seen[r.OrderID]; !ok {
			seen[r.OrderID] = orderTotal{month: monthOf(r.OrderDate), amount: r.TotalAmount}
		}
	}

	byMonth := map[time.Time]float64{}
	for _, o := range seen {
		byMonth[o.month] += o.amount
	}

	buckets := make([]model.Bucket, 0, trailingMonths)
	for _, m := range e.trailingMonthStarts() {
		buckets = append(buckets, model.Bucket{Label: m.Format(monthLabelFormat), Value: byMonth[m]})
	}
	return buckets
}

// bestsellersByMonth emits, per trailing month, the product with the highest
// unit volume. Months with no sales yield a zero bucket labeled with the
// month alone.
func (e *AnalyticsEngine) bestsellersByMonth(records []model.OrderRecord) []model.Bucket {
	type productQty map[string]float64
	byMonth := map[time.Time]productQty{}
	for _, r := range records {
		m := monthOf(r.OrderDate)
		if byMonth[m] == nil {
			byMonth[m] = productQty{}
		}
		byMonth[m][r.ProductName] += float64(r.Quantity)
	}

	buckets := make([]model.Bucket, 0, trailingMonths)
	for _, m := range e.trailingMonthStarts() {
		label := m.Format(monthLabelFormat)
		best, qty := "", 0.0
		for name, n := range byMonth[m] {
			if n > qty || (n == qty && best != "" && name < best) {
				best, qty = name, n
			}
		}
		if best != "" {
			label += " - " + best
		}
		buckets = append(buckets, model.Bucket{Label: label, Value: qty})
	}
	return buckets
}

// trailingMonthStarts returns the first day of each of the last twelve
// months, oldest first, current month included.
func (e *AnalyticsEngine) trailingMonthStarts() []time.Time {
	current := monthOf(e.now())
	months := make([]time.Time, 0, trailingMonths)
	for i := trailingMonths - 1; i >= 0; i-- {
		months = append(months, current.AddDate(0, -i, 0))
	}
	return months
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ---- shared helpers ----

// filterOrderRecords applies every non-empty facet as an AND-conjunction.
// An order-item row matches when the order, its product and its purchasing
// user satisfy all present facets. Time-window facets are calendar-month
// based.
func filterOrderRecords(records []model.OrderRecord, f model.FacetFilter) []model.OrderRecord {
	out := make([]model.OrderRecord, 0, len(records))
	for _, r := range records {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.Gender != "" && r.Gender != f.Gender {
			continue
		}
		if f.AgeGroup != "" && bandOf(r.Age) != f.AgeGroup {
			continue
		}
		if f.Month != nil && int(r.OrderDate.Month()) != *f.Month {
			continue
		}
		if f.CategoryID != nil && r.CategoryID != *f.CategoryID {
			continue
		}
		if f.BrandID != nil && r.BrandID != *f.BrandID {
			continue
		}
		out = append(out, r)
	}
	return out
}

// quantityShare groups order-item rows by key and sums units. limit 0 keeps
// every bucket.
func quantityShare(records []model.OrderRecord, key func(model.OrderRecord) string, limit int) []model.Bucket {
	sums := map[string]float64{}
	for _, r := range records {
		sums[key(r)] += float64(r.Quantity)
	}
	return topBuckets(sums, limit)
}

// countShare groups rows by key and counts them, descending.
func countShare[T any](rows []T, key func(T) string) []model.Bucket {
	counts := map[string]float64{}
	for _, row := range rows {
		counts[key(row)]++
	}
	return topBuckets(counts, 0)
}

// rangeBuckets assigns each row's numeric value to its fixed range bucket
// and emits the non-empty buckets ascending by lower bound.
func rangeBuckets[T any](rows []T, value func(T) float64, edges []float64) []model.Bucket {
	type rangeCount struct {
		lower float64
		count float64
	}
	counts := map[string]*rangeCount{}
	for _, row := range rows {
		v := value(row)
		label := model.RangeBucketLabel(v, edges)
		rc, ok := counts[label]
		if !ok {
			rc = &rangeCount{lower: model.RangeBucketLowerBound(v, edges)}
			counts[label] = rc
		}
		rc.count++
	}

	buckets := make([]model.Bucket, 0, len(counts))
	for label, rc := range counts {
		buckets = append(buckets, model.Bucket{Label: label, Value: rc.count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return counts[buckets[i].Label].lower < counts[buckets[j].Label].lower
	})
	return buckets
}

// topBuckets converts a grouped sum map into buckets sorted by value
// descending with a deterministic label tiebreak, optionally truncated.
func topBuckets(sums map[string]float64, limit int) []model.Bucket {
	buckets := make([]model.Bucket, 0, len(sums))
	for label, v := range sums {
		buckets = append(buckets, model.Bucket{Label: label, Value: v})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Value != buckets[j].Value {
			return buckets[i].Value > buckets[j].Value
		}
		return buckets[i].Label < buckets[j].Label
	})
	if limit > 0 && len(buckets) > limit {
		buckets = buckets[:limit]
	}
	return buckets
}

func (e *AnalyticsEngine) requireAnalyticsView(actor model.Actor) error {
	allowed, err := e.authz.HasCapability(actor, model.CapAnalyticsView)
	if err != nil {
		return err
	}
	if !allowed {
		return model.AccessDeniedf("actor %s lacks %s", actor.Email, model.CapAnalyticsView)
	}
	return nil
}
