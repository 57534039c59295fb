package service

import (
	"container/heap"
	"context"
	"fmt"
	"strings"

	"github.com/Eropik/analytics-e-store/internal/model"
)

// RouteFinder resolves the shortest known route between two cities.
// A missing route is reported as a NOT_FOUND domain error, which the
// lifecycle engine converts into "distance unknown", not a failure.
type RouteFinder interface {
	DistanceBetween(ctx context.Context, fromCityID, toCityID int) (*model.RouteSummary, error)
}

// RouteGraphSource supplies the route edges and city names the finder works
// over.
type RouteGraphSource interface {
	AllRoutes(ctx context.Context) ([]model.CityRoute, error)
	AllCities(ctx context.Context) ([]model.City, error)
}

// RouteService computes shortest paths over the bidirectional city-route
// graph. Edges are loaded per call; the reference data set is small.
type RouteService struct {
	source RouteGraphSource
}

// NewRouteService creates a route service over the given graph source.
func NewRouteService(source RouteGraphSource) *RouteService {
	return &RouteService{source: source}
}

type routeEdge struct {
	to         int
	distanceKm float64
}

type routeNode struct {
	city       int
	distanceKm float64
	index      int
}

type routeQueue []*routeNode

func (q routeQueue) Len() int            { return len(q) }
func (q routeQueue) Less(i, j int) bool  { return q[i].distanceKm < q[j].distanceKm }
func (q routeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i]; q[i].index = i; q[j].index = j }
func (q *routeQueue) Push(x interface{}) { n := x.(*routeNode); n.index = len(*q); *q = append(*q, n) }
func (q *routeQueue) Pop() interface{} {
	old := *q
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*q = old[:len(old)-1]
	return n
}

// DistanceBetween runs Dijkstra from the warehouse city to the shipping
// city. Identical cities yield a zero-distance route without touching the
// graph.
func (s *RouteService) DistanceBetween(ctx context.Context, fromCityID, toCityID int) (*model.RouteSummary, error) {
	cities, err := s.source.AllCities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cities: %w", err)
	}
	cityNames := make(map[int]string, len(cities))
	for _, c := range cities {
		cityNames[c.CityID] = c.CityName
	}

	if _, ok := cityNames[fromCityID]; !ok {
		return nil, model.NotFoundf("city %d not found", fromCityID)
	}
	if _, ok := cityNames[toCityID]; !ok {
		return nil, model.NotFoundf("city %d not found", toCityID)
	}

	if fromCityID == toCityID {
		return &model.RouteSummary{
			TotalDistanceKm: 0,
			PathCityIDs:     []int{fromCityID},
			PathName:        cityNames[fromCityID],
			Transfers:       0,
		}, nil
	}

	routes, err := s.source.AllRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load routes: %w", err)
	}

	adjacency := make(map[int][]routeEdge, len(cities))
	for _, r := range routes {
		adjacency[r.CityAID] = append(adjacency[r.CityAID], routeEdge{to: r.CityBID, distanceKm: r.DistanceKm})
		adjacency[r.CityBID] = append(adjacency[r.CityBID], routeEdge{to: r.CityAID, distanceKm: r.DistanceKm})
	}

	dist := map[int]float64{fromCityID: 0}
	prev := map[int]int{}
	visited := map[int]bool{}

	q := &routeQueue{}
	heap.Init(q)
	heap.Push(q, &routeNode{city: fromCityID, distanceKm: 0})

	for q.Len() > 0 {
		n := heap.Pop(q).(*routeNode)
		if visited[n.city] {
			continue
		}
		visited[n.city] = true
		if n.city == toCityID {
			break
		}
		for _, e := range adjacency[n.city] {
			alt := n.distanceKm + e.distanceKm
			if d, seen := dist[e.to]; !seen || alt < d {
				dist[e.to] = alt
				prev[e.to] = n.city
				heap.Push(q, &routeNode{city: e.to, distanceKm: alt})
			}
		}
	}

	if !visited[toCityID] {
		return nil, model.NotFoundf("no route between city %d and city %d", fromCityID, toCityID)
	}

	path := []int{toCityID}
	for path[len(path)-1] != fromCityID {
		path = append(path, prev[path[len(path)-1]])
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	names := make([]string, len(path))
	for i, id := range path {
		names[i] = cityNames[id]
	}

	return &model.RouteSummary{
		TotalDistanceKm: dist[toCityID],
		PathCityIDs:     path,
		PathName:        strings.Join(names, " -> "),
		Transfers:       len(path) - 2,
	}, nil
}
