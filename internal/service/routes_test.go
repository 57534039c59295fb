package service

import (
	"context"
	"testing"

	"github.com/Eropik/analytics-e-store/internal/model"
)

type fakeGraphSource struct {
	cities []model.City
	routes []model.CityRoute
}

func (f *fakeGraphSource) AllCities(ctx context.Context) ([]model.City, error) {
	return f.cities, nil
}

func (f *fakeGraphSource) AllRoutes(ctx context.Context) ([]model.CityRoute, error) {
	return f.routes, nil
}

func testGraph() *fakeGraphSource {
	return &fakeGraphSource{
		cities: []model.City{
			{CityID: 1, CityName: "Moscow"},
			{CityID: 2, CityName: "Saint Petersburg"},
			{CityID: 3, CityName: "Kazan"},
			{CityID: 4, CityName: "Novosibirsk"},
			{CityID: 5, CityName: "Island"},
		},
		routes: []model.CityRoute{
			{CityAID: 1, CityBID: 2, DistanceKm: 700},
			{CityAID: 1, CityBID: 3, DistanceKm: 820},
			{CityAID: 2, CityBID: 3, DistanceKm: 1500},
			{CityAID: 3, CityBID: 4, DistanceKm: 1600},
		},
	}
}

func TestDistanceBetweenDirectRoute(t *testing.T) {
	svc := NewRouteService(testGraph())

	summary, err := svc.DistanceBetween(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalDistanceKm != 700 {
		t.Errorf("distance = %v, want 700", summary.TotalDistanceKm)
	}
	if summary.PathName != "Moscow -> Saint Petersburg" {
		t.Errorf("path = %q", summary.PathName)
	}
	if summary.Transfers != 0 {
		t.Errorf("transfers = %d, want 0", summary.Transfers)
	}
}

func TestDistanceBetweenPicksShortestByDistance(t *testing.T) {
	svc := NewRouteService(testGraph())

	// 2 -> 3 direct is 1500; via Moscow it is 700 + 820 = 1520. The direct
	// edge must win even though both are "one hop" apart in the graph.
	summary, err := svc.DistanceBetween(context.Background(), 2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalDistanceKm != 1500 {
		t.Errorf("distance = %v, want 1500", summary.TotalDistanceKm)
	}
}

func TestDistanceBetweenMultiHop(t *testing.T) {
	svc := NewRouteService(testGraph())

	summary, err := svc.DistanceBetween(context.Background(), 2, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 2 -> 3 (1500) -> 4 (1600) = 3100 beats 2 -> 1 -> 3 -> 4 = 3120.
	if summary.TotalDistanceKm != 3100 {
		t.Errorf("distance = %v, want 3100", summary.TotalDistanceKm)
	}
	if summary.Transfers != 1 {
		t.Errorf("transfers = %d, want 1", summary.Transfers)
	}
}

func TestDistanceBetweenSameCityIsZero(t *testing.T) {
	svc := NewRouteService(testGraph())

	summary, err := svc.DistanceBetween(context.Background(), 3, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalDistanceKm != 0 {
		t.Errorf("distance = %v, want 0", summary.TotalDistanceKm)
	}
	if summary.PathName != "Kazan" {
		t.Errorf("path = %q, want Kazan", summary.PathName)
	}
}

func TestDistanceBetweenDisconnectedCityIsNotFound(t *testing.T) {
	svc := NewRouteService(testGraph())

	_, err := svc.DistanceBetween(context.Background(), 1, 5)
	if !model.IsKind(err, model.KindNotFound) {
		t.Errorf("want NOT_FOUND, got %v", err)
	}
}

func TestDistanceBetweenUnknownCityIsNotFound(t *testing.T) {
	svc := NewRouteService(testGraph())

	_, err := svc.DistanceBetween(context.Background(), 1, 99)
	if !model.IsKind(err, model.KindNotFound) {
		t.Errorf("want NOT_FOUND, got %v", err)
	}
}
