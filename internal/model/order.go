package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the closed set of order workflow states.
type OrderStatus string

const (
	StatusProcessing OrderStatus = "PROCESSING"
	StatusInTransit  OrderStatus = "IN_TRANSIT"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// AllStatuses lists every defined status in workflow order.
var AllStatuses = []OrderStatus{StatusProcessing, StatusInTransit, StatusDelivered, StatusCancelled}

// Valid reports whether s is one of the four defined statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusProcessing, StatusInTransit, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s accepts no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Order represents a customer order. It is created at checkout and afterwards
// mutated only through the lifecycle engine's transition contract.
type Order struct {
	OrderID             uuid.UUID   `json:"orderId" gorm:"primaryKey;type:uuid"`
	CustomerID          uuid.UUID   `json:"customerId" gorm:"type:uuid;not null;index"`
	Status              OrderStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	TotalAmount         float64     `json:"totalAmount" gorm:"not null"`
	OrderDate           time.Time   `json:"orderDate" gorm:"not null;index"`
	ShippingCityID      *int        `json:"shippingCityId" gorm:"index"`
	ShippingAddressText string      `json:"shippingAddressText"`
	DeliveryMethod      string      `json:"deliveryMethod" gorm:"type:varchar(50)"`
	PaymentMethod       string      `json:"paymentMethod" gorm:"type:varchar(50)"`
	SourceWarehouseID   *int64      `json:"sourceWarehouseId"`
	ActualDeliveryDate  *time.Time  `json:"actualDeliveryDate"`
	// Version implements the optimistic check that serializes concurrent
	// transition attempts on the same order.
	Version   int64     `json:"-" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderItem is a line of an order. UnitPrice is a snapshot taken at purchase
// time and never changes afterwards.
type OrderItem struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID   uuid.UUID `json:"orderId" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	UnitPrice float64   `json:"unitPrice" gorm:"not null"`
}

// LogisticsPayload carries the optional warehouse/delivery-date fields that
// accompany a status transition or a save-without-status-change update.
type LogisticsPayload struct {
	WarehouseID  *int64     `json:"warehouseId"`
	DeliveryDate *time.Time `json:"deliveryDate"`
}

// Empty reports whether the payload carries no changes.
func (p LogisticsPayload) Empty() bool {
	return p.WarehouseID == nil && p.DeliveryDate == nil
}

// OrderView is the projection returned to callers after a transition or a
// read. DistanceKm is derived, never stored: it is non-nil only when a
// warehouse is assigned and a route between the warehouse city and the
// shipping city resolves. RouteNotFound distinguishes "no route" from "no
// warehouse yet".
type OrderView struct {
	Order
	SourceWarehouse *Warehouse `json:"sourceWarehouse,omitempty"`
	DistanceKm      *float64   `json:"distanceKm"`
	RoutePath       string     `json:"routePath,omitempty"`
	RouteNotFound   bool       `json:"routeNotFound,omitempty"`
}
