package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Eropik/analytics-e-store/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*model.Order
}

func newFakeOrderStore(orders ...*model.Order) *fakeOrderStore {
	s := &fakeOrderStore{orders: map[uuid.UUID]*model.Order{}}
	for _, o := range orders {
		s.orders[o.OrderID] = o
	}
	return s
}

func (s *fakeOrderStore) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, model.NotFoundf("order %s not found", id)
	}
	copied := *o
	return &copied, nil
}

func (s *fakeOrderStore) SaveOrder(ctx context.Context, order *model.Order) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[order.OrderID]
	if !ok {
		return nil, model.NotFoundf("order %s not found", order.OrderID)
	}
	if stored.Version != order.Version {
		return nil, model.InvalidTransitionf("order %s was modified concurrently, reload and retry", order.OrderID)
	}
	order.Version++
	copied := *order
	s.orders[order.OrderID] = &copied
	return order, nil
}

type fakeWarehouseStore struct {
	warehouses map[int64]*model.Warehouse
}

func (s *fakeWarehouseStore) GetWarehouse(ctx context.Context, id int64) (*model.Warehouse, error) {
	wh, ok := s.warehouses[id]
	if !ok {
		return nil, model.NotFoundf("warehouse %d not found", id)
	}
	return wh, nil
}

type fakeRouteFinder struct {
	distances map[[2]int]float64
}

func (f *fakeRouteFinder) DistanceBetween(ctx context.Context, from, to int) (*model.RouteSummary, error) {
	if from == to {
		return &model.RouteSummary{TotalDistanceKm: 0}, nil
	}
	if d, ok := f.distances[[2]int{from, to}]; ok {
		return &model.RouteSummary{TotalDistanceKm: d}, nil
	}
	return nil, model.NotFoundf("no route between city %d and city %d", from, to)
}

type staticAuthorizer struct {
	caps map[model.Capability]bool
}

func (a *staticAuthorizer) HasCapability(actor model.Actor, capability model.Capability) (bool, error) {
	return a.caps[capability], nil
}

func allCapsAuthorizer() *staticAuthorizer {
	return &staticAuthorizer{caps: map[model.Capability]bool{
		model.CapOrderView:     true,
		model.CapOrderUpdate:   true,
		model.CapAnalyticsView: true,
	}}
}

func testActor() model.Actor {
	return model.Actor{
		UserID:     uuid.New(),
		Email:      "orders@console.local",
		Role:       model.RoleAdmin,
		Department: model.DeptOrderManage,
	}
}

func newTestOrder(status model.OrderStatus) *model.Order {
	city := 2
	return &model.Order{
		OrderID:        uuid.New(),
		CustomerID:     uuid.New(),
		Status:         status,
		TotalAmount:    300,
		OrderDate:      time.Now(),
		ShippingCityID: &city,
	}
}

func newTestEngine(orders *fakeOrderStore) *LifecycleEngine {
	warehouses := &fakeWarehouseStore{warehouses: map[int64]*model.Warehouse{
		1: {WarehouseID: 1, Name: "Central", CityID: 1},
		2: {WarehouseID: 2, Name: "Volga", CityID: 2},
	}}
	routes := &fakeRouteFinder{distances: map[[2]int]float64{
		{1, 2}: 120,
	}}
	return NewLifecycleEngine(orders, warehouses, routes, allCapsAuthorizer(), zap.NewNop())
}

func TestTransitionValidEdges(t *testing.T) {
	cases := []struct {
		from, to model.OrderStatus
	}{
		{model.StatusProcessing, model.StatusInTransit},
		{model.StatusProcessing, model.StatusCancelled},
		{model.StatusInTransit, model.StatusDelivered},
		{model.StatusInTransit, model.StatusCancelled},
	}

	for _, tc := range cases {
		order := newTestOrder(tc.from)
		engine := newTestEngine(newFakeOrderStore(order))

		target := tc.to
		view, err := engine.Transition(context.Background(), order.OrderID, &target, model.LogisticsPayload{}, testActor())
		if err != nil {
			t.Errorf("transition %s -> %s: unexpected error %v", tc.from, tc.to, err)
			continue
		}
		if view.Status != tc.to {
			t.Errorf("transition %s -> %s: status = %s", tc.from, tc.to, view.Status)
		}
	}
}

func TestTransitionRejectedEdges(t *testing.T) {
	// Terminal states reject every target, self-transitions included.
	for _, from := range []model.OrderStatus{model.StatusDelivered, model.StatusCancelled} {
		for _, to := range model.AllStatuses {
			order := newTestOrder(from)
			engine := newTestEngine(newFakeOrderStore(order))

			target := to
			_, err := engine.Transition(context.Background(), order.OrderID, &target, model.LogisticsPayload{}, testActor())
			if !model.IsKind(err, model.KindInvalidTransition) {
				t.Errorf("transition %s -> %s: want INVALID_TRANSITION, got %v", from, to, err)
			}
		}
	}

	// Skipping a state and self-transitions on active states are also invalid.
	invalid := []struct {
		from, to model.OrderStatus
	}{
		{model.StatusProcessing, model.StatusDelivered},
		{model.StatusProcessing, model.StatusProcessing},
		{model.StatusInTransit, model.StatusInTransit},
		{model.StatusInTransit, model.StatusProcessing},
	}
	for _, tc := range invalid {
		order := newTestOrder(tc.from)
		engine := newTestEngine(newFakeOrderStore(order))

		target := tc.to
		_, err := engine.Transition(context.Background(), order.OrderID, &target, model.LogisticsPayload{}, testActor())
		if !model.IsKind(err, model.KindInvalidTransition) {
			t.Errorf("transition %s -> %s: want INVALID_TRANSITION, got %v", tc.from, tc.to, err)
		}
	}
}

func TestTransitionRejectedLeavesOrderUnchanged(t *testing.T) {
	order := newTestOrder(model.StatusDelivered)
	store := newFakeOrderStore(order)
	engine := newTestEngine(store)

	target := model.StatusCancelled
	wh := int64(1)
	_, err := engine.Transition(context.Background(), order.OrderID, &target,
		model.LogisticsPayload{WarehouseID: &wh}, testActor())
	if !model.IsKind(err, model.KindInvalidTransition) {
		t.Fatalf("want INVALID_TRANSITION, got %v", err)
	}

	stored, _ := store.GetOrder(context.Background(), order.OrderID)
	if stored.Status != model.StatusDelivered {
		t.Errorf("status changed to %s after rejected transition", stored.Status)
	}
	if stored.SourceWarehouseID != nil {
		t.Error("warehouse was set despite rejected transition")
	}
}

func TestLogisticsOnlySaveKeepsStatus(t *testing.T) {
	order := newTestOrder(model.StatusProcessing)
	store := newFakeOrderStore(order)
	engine := newTestEngine(store)

	wh := int64(1)
	view, err := engine.Transition(context.Background(), order.OrderID, nil,
		model.LogisticsPayload{WarehouseID: &wh}, testActor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Status != model.StatusProcessing {
		t.Errorf("logistics-only save changed status to %s", view.Status)
	}
	if view.SourceWarehouseID == nil || *view.SourceWarehouseID != 1 {
		t.Error("warehouse was not assigned")
	}
}

func TestLogisticsOnlySaveOnTerminalOrderRejected(t *testing.T) {
	order := newTestOrder(model.StatusDelivered)
	engine := newTestEngine(newFakeOrderStore(order))

	wh := int64(1)
	_, err := engine.Transition(context.Background(), order.OrderID, nil,
		model.LogisticsPayload{WarehouseID: &wh}, testActor())
	if !model.IsKind(err, model.KindValidation) {
		t.Errorf("want VALIDATION_ERROR, got %v", err)
	}
}

func TestWarehouseImmutableOnceInTransit(t *testing.T) {
	order := newTestOrder(model.StatusInTransit)
	assigned := int64(1)
	order.SourceWarehouseID = &assigned
	engine := newTestEngine(newFakeOrderStore(order))

	other := int64(2)
	_, err := engine.Transition(context.Background(), order.OrderID, nil,
		model.LogisticsPayload{WarehouseID: &other}, testActor())
	if !model.IsKind(err, model.KindValidation) {
		t.Errorf("changing warehouse in transit: want VALIDATION_ERROR, got %v", err)
	}

	// Re-sending the identical warehouse id is a no-op, not an error.
	same := int64(1)
	date := time.Now()
	view, err := engine.Transition(context.Background(), order.OrderID, nil,
		model.LogisticsPayload{WarehouseID: &same, DeliveryDate: &date}, testActor())
	if err != nil {
		t.Fatalf("identical warehouse rejected: %v", err)
	}
	if view.ActualDeliveryDate == nil {
		t.Error("delivery date was not set")
	}
}

func TestUnknownWarehouseIsValidationError(t *testing.T) {
	order := newTestOrder(model.StatusProcessing)
	engine := newTestEngine(newFakeOrderStore(order))

	missing := int64(99)
	_, err := engine.Transition(context.Background(), order.OrderID, nil,
		model.LogisticsPayload{WarehouseID: &missing}, testActor())
	if !model.IsKind(err, model.KindValidation) {
		t.Errorf("want VALIDATION_ERROR, got %v", err)
	}
}

func TestDistanceDerivedFromWarehouseAndRoute(t *testing.T) {
	// No warehouse: distance is nil and RouteNotFound is false.
	order := newTestOrder(model.StatusProcessing)
	engine := newTestEngine(newFakeOrderStore(order))

	view, err := engine.Get(context.Background(), order.OrderID, testActor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.DistanceKm != nil || view.RouteNotFound {
		t.Error("order without warehouse must have nil distance and no route flag")
	}

	// Warehouse in city 1, shipping to city 2: route resolves to 120 km.
	wh := int64(1)
	view, err = engine.Transition(context.Background(), order.OrderID, nil,
		model.LogisticsPayload{WarehouseID: &wh}, testActor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.DistanceKm == nil || *view.DistanceKm != 120 {
		t.Errorf("distance = %v, want 120", view.DistanceKm)
	}

	// Warehouse in the shipping city itself: zero, not nil.
	order2 := newTestOrder(model.StatusProcessing)
	engine2 := newTestEngine(newFakeOrderStore(order2))
	wh2 := int64(2)
	view, err = engine2.Transition(context.Background(), order2.OrderID, nil,
		model.LogisticsPayload{WarehouseID: &wh2}, testActor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.DistanceKm == nil || *view.DistanceKm != 0 {
		t.Errorf("same-city distance = %v, want 0", view.DistanceKm)
	}
}

func TestUnresolvableRouteSetsFlag(t *testing.T) {
	order := newTestOrder(model.StatusProcessing)
	unrouted := 9
	order.ShippingCityID = &unrouted
	engine := newTestEngine(newFakeOrderStore(order))

	wh := int64(1)
	view, err := engine.Transition(context.Background(), order.OrderID, nil,
		model.LogisticsPayload{WarehouseID: &wh}, testActor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.DistanceKm != nil {
		t.Error("distance must be nil when no route exists")
	}
	if !view.RouteNotFound {
		t.Error("RouteNotFound must be set when no route exists")
	}
}

func TestTransitionRequiresOrderUpdateCapability(t *testing.T) {
	order := newTestOrder(model.StatusProcessing)
	engine := NewLifecycleEngine(newFakeOrderStore(order), &fakeWarehouseStore{}, &fakeRouteFinder{},
		&staticAuthorizer{caps: map[model.Capability]bool{model.CapOrderView: true}}, zap.NewNop())

	target := model.StatusInTransit
	_, err := engine.Transition(context.Background(), order.OrderID, &target, model.LogisticsPayload{}, testActor())
	if !model.IsKind(err, model.KindUnauthorized) {
		t.Errorf("want UNAUTHORIZED, got %v", err)
	}
}

func TestConcurrentCancelOnlyOneSucceeds(t *testing.T) {
	order := newTestOrder(model.StatusProcessing)
	store := newFakeOrderStore(order)
	engine := newTestEngine(store)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			target := model.StatusCancelled
			_, errs[i] = engine.Transition(context.Background(), order.OrderID, &target, model.LogisticsPayload{}, testActor())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !model.IsKind(err, model.KindInvalidTransition) {
			t.Errorf("unexpected error kind: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("succeeded = %d, want exactly 1", succeeded)
	}

	stored, _ := store.GetOrder(context.Background(), order.OrderID)
	if stored.Status != model.StatusCancelled {
		t.Errorf("final status = %s, want CANCELLED", stored.Status)
	}
}

func TestGetUnknownOrderIsNotFound(t *testing.T) {
	engine := newTestEngine(newFakeOrderStore())
	_, err := engine.Get(context.Background(), uuid.New(), testActor())
	if !model.IsKind(err, model.KindNotFound) {
		t.Errorf("want NOT_FOUND, got %v", err)
	}
}
