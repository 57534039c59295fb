package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Scope is the entity category an aggregation request operates over.
type Scope string

const (
	ScopeProducts Scope = "products"
	ScopeUsers    Scope = "users"
	ScopeOrders   Scope = "orders"
)

// AnalyzeDimension selects the grouping key of the generic analyze view.
type AnalyzeDimension string

const (
	DimProducts   AnalyzeDimension = "products"
	DimCategories AnalyzeDimension = "categories"
	DimBrands     AnalyzeDimension = "brands"
)

// FacetFilter is the value object holding the independent filter facets.
// Absent fields mean "no restriction"; present facets combine with AND.
type FacetFilter struct {
	Gender     string      `json:"gender,omitempty"`
	AgeGroup   string      `json:"ageGroup,omitempty"`
	Month      *int        `json:"month,omitempty"`
	CategoryID *int        `json:"categoryId,omitempty"`
	BrandID    *int        `json:"brandId,omitempty"`
	Status     OrderStatus `json:"status,omitempty"`
}

// Validate rejects malformed facets before any aggregation runs.
func (f FacetFilter) Validate() error {
	if f.Month != nil && (*f.Month < 1 || *f.Month > 12) {
		return Validationf("month must be between 1 and 12, got %d", *f.Month)
	}
	switch f.Gender {
	case "", "M", "F", "N":
	default:
		return Validationf("gender must be one of M, F, N, got %q", f.Gender)
	}
	if f.Status != "" && !f.Status.Valid() {
		return Validationf("unknown order status %q", f.Status)
	}
	return nil
}

// Bucket is a labeled numeric aggregate ready for chart rendering.
type Bucket struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Age bands are fixed-width 5-year bins from 0, with an open top band. Every
// non-negative age maps to exactly one band.
const ageBandWidth = 5

// AgeBandTop is the lower bound of the open-ended top band.
const AgeBandTop = 65

// AgeBandUnknown labels profiles with no recorded date of birth.
const AgeBandUnknown = "Unknown"

// AgeBand returns the band label for an age in whole years.
func AgeBand(age int) string {
	if age >= AgeBandTop {
		return fmt.Sprintf("%d+", AgeBandTop)
	}
	lo := (age / ageBandWidth) * ageBandWidth
	return fmt.Sprintf("%d-%d", lo, lo+ageBandWidth-1)
}

// Fixed bucket edges. These are engine constants, not caller-supplied, so
// repeated queries stay comparable.
var (
	PriceBucketEdges    = []float64{100, 500, 1000, 5000}
	DistanceBucketEdges = []float64{10, 50, 200}
)

// RangeBucketLabel formats a value into its range label given ascending
// edges, e.g. edges {100,500}: 42 -> "0-100", 250 -> "100-500", 900 -> "500+".
func RangeBucketLabel(v float64, edges []float64) string {
	lo := 0.0
	for _, edge := range edges {
		if v < edge {
			return fmt.Sprintf("%s-%s", trimFloat(lo), trimFloat(edge))
		}
		lo = edge
	}
	return fmt.Sprintf("%s+", trimFloat(lo))
}

// RangeBucketLowerBound recovers the ordering key of a range label.
func RangeBucketLowerBound(v float64, edges []float64) float64 {
	lo := 0.0
	for _, edge := range edges {
		if v < edge {
			return lo
		}
		lo = edge
	}
	return lo
}

func trimFloat(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

// OrderRecord is one joined order-item row as consumed by the aggregation
// engine: the item, its product dictionary data and the purchasing user's
// demographics, flattened once at the boundary.
type OrderRecord struct {
	OrderID      uuid.UUID
	Status       OrderStatus
	OrderDate    time.Time
	TotalAmount  float64
	ProductID    uuid.UUID
	ProductName  string
	CategoryID   int
	CategoryName string
	BrandID      int
	BrandName    string
	Quantity     int
	UnitPrice    float64
	Gender       string
	// Age in whole years at fetch time; nil when the profile has no date of
	// birth.
	Age *int
}

// UserRecord is a flattened customer demographic row.
type UserRecord struct {
	UserID uuid.UUID
	Gender string
	Age    *int
}

// ProductRecord is a flattened catalog row.
type ProductRecord struct {
	ProductID    uuid.UUID
	Name         string
	CategoryName string
	BrandName    string
	Price        float64
}

// RouteRecord is a flattened city-route row.
type RouteRecord struct {
	CityAName  string
	CityBName  string
	DistanceKm float64
}

// LoginRecord is a single login event.
type LoginRecord struct {
	UserID   uuid.UUID
	LoggedAt time.Time
}
