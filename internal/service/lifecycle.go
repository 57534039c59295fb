package service

import (
	"context"
	"sync"

	"github.com/Eropik/analytics-e-store/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderStore is the persistence collaborator of the lifecycle engine.
// SaveOrder must fail when the stored version no longer matches the loaded
// one, so that concurrent transitions cannot both apply.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	SaveOrder(ctx context.Context, order *model.Order) (*model.Order, error)
}

// WarehouseStore resolves warehouse reference data.
type WarehouseStore interface {
	GetWarehouse(ctx context.Context, id int64) (*model.Warehouse, error)
}

// allowedTransitions is the order status graph. PROCESSING and IN_TRANSIT are
// the only states with outgoing edges; DELIVERED and CANCELLED are terminal.
var allowedTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.StatusProcessing: {model.StatusInTransit, model.StatusCancelled},
	model.StatusInTransit:  {model.StatusDelivered, model.StatusCancelled},
	model.StatusDelivered:  {},
	model.StatusCancelled:  {},
}

func transitionAllowed(from, to model.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LifecycleEngine owns the order status workflow: which edges exist, which
// payload fields each state accepts, and the derived shipping distance that
// accompanies a warehouse assignment.
type LifecycleEngine struct {
	orders     OrderStore
	warehouses WarehouseStore
	routes     RouteFinder
	authz      Authorizer
	logger     *zap.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewLifecycleEngine creates the engine with its collaborators.
func NewLifecycleEngine(orders OrderStore, warehouses WarehouseStore, routes RouteFinder, authz Authorizer, logger *zap.Logger) *LifecycleEngine {
	return &LifecycleEngine{
		orders:     orders,
		warehouses: warehouses,
		routes:     routes,
		authz:      authz,
		logger:     logger,
		locks:      map[uuid.UUID]*sync.Mutex{},
	}
}

// orderLock serializes transition attempts per order. The version check on
// save is the backstop for multi-process deployments. Entries are kept for
// the process lifetime: evicting one while another goroutine still holds it
// would let two transitions race, and a mutex per seen order stays small
// next to the orders themselves.
func (e *LifecycleEngine) orderLock(id uuid.UUID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	return l
}

// Get returns the order projection, including the derived distance, for
// actors holding ORDER_VIEW.
func (e *LifecycleEngine) Get(ctx context.Context, orderID uuid.UUID, actor model.Actor) (*model.OrderView, error) {
	if err := e.requireCapability(actor, model.CapOrderView); err != nil {
		return nil, err
	}
	order, err := e.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return e.project(ctx, order), nil
}

// Transition applies a status change, a logistics update, or both, as a
// single atomic unit. A nil target is the save-without-status-change mode:
// the same payload validation applies and the status stays untouched. On any
// error the order is left unchanged.
func (e *LifecycleEngine) Transition(ctx context.Context, orderID uuid.UUID, target *model.OrderStatus, logistics model.LogisticsPayload, actor model.Actor) (*model.OrderView, error) {
	if err := e.requireCapability(actor, model.CapOrderUpdate); err != nil {
		return nil, err
	}

	if target != nil && !target.Valid() {
		return nil, model.Validationf("unknown order status %q", *target)
	}

	lock := e.orderLock(orderID)
	lock.Lock()
	defer lock.Unlock()

	order, err := e.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	current := order.Status

	if target != nil && !transitionAllowed(current, *target) {
		return nil, model.InvalidTransitionf("cannot transition order from %s to %s", current, *target)
	}

	if target == nil && current.Terminal() && !logistics.Empty() {
		return nil, model.Validationf("order in terminal status %s cannot be modified", current)
	}

	// Payload rules are keyed on the source state: warehouse and delivery
	// date are settable while PROCESSING; from IN_TRANSIT only the delivery
	// date may change and the warehouse is immutable once set.
	if logistics.WarehouseID != nil {
		switch current {
		case model.StatusProcessing:
			wh, err := e.warehouses.GetWarehouse(ctx, *logistics.WarehouseID)
			if err != nil {
				if model.IsKind(err, model.KindNotFound) {
					return nil, model.Validationf("warehouse %d not found", *logistics.WarehouseID)
				}
				return nil, err
			}
			id := wh.WarehouseID
			order.SourceWarehouseID = &id
		case model.StatusInTransit:
			if order.SourceWarehouseID == nil || *order.SourceWarehouseID != *logistics.WarehouseID {
				return nil, model.Validationf("warehouse cannot be changed once the order is %s", current)
			}
		default:
			return nil, model.Validationf("warehouse cannot be set while the order is %s", current)
		}
	}

	if logistics.DeliveryDate != nil {
		d := *logistics.DeliveryDate
		order.ActualDeliveryDate = &d
	}

	if target != nil {
		order.Status = *target
	}

	saved, err := e.orders.SaveOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	if target != nil {
		e.logger.Info("order status changed",
			zap.String("order_id", orderID.String()),
			zap.String("from", string(current)),
			zap.String("to", string(saved.Status)),
			zap.String("actor", actor.UserID.String()))
	}

	return e.project(ctx, saved), nil
}

// project builds the caller-facing view: order fields plus warehouse details
// and the recomputed shipping distance. Distance is non-nil only when both a
// warehouse and a resolvable route exist; a missing route surfaces as
// RouteNotFound, never as an error.
func (e *LifecycleEngine) project(ctx context.Context, order *model.Order) *model.OrderView {
	view := &model.OrderView{Order: *order}

	if order.SourceWarehouseID == nil {
		return view
	}

	wh, err := e.warehouses.GetWarehouse(ctx, *order.SourceWarehouseID)
	if err != nil {
		e.logger.Warn("failed to load warehouse for projection",
			zap.Int64("warehouse_id", *order.SourceWarehouseID), zap.Error(err))
		return view
	}
	view.SourceWarehouse = wh

	if order.ShippingCityID == nil {
		return view
	}

	summary, err := e.routes.DistanceBetween(ctx, wh.CityID, *order.ShippingCityID)
	if err != nil {
		if model.IsKind(err, model.KindNotFound) {
			view.RouteNotFound = true
			return view
		}
		e.logger.Warn("route lookup failed",
			zap.String("order_id", order.OrderID.String()), zap.Error(err))
		view.RouteNotFound = true
		return view
	}

	km := summary.TotalDistanceKm
	view.DistanceKm = &km
	view.RoutePath = summary.PathName
	return view
}

func (e *LifecycleEngine) requireCapability(actor model.Actor, capability model.Capability) error {
	allowed, err := e.authz.HasCapability(actor, capability)
	if err != nil {
		return err
	}
	if !allowed {
		return model.Unauthorizedf("actor %s lacks %s", actor.Email, capability)
	}
	return nil
}
