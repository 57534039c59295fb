package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Eropik/analytics-e-store/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the gorm-backed implementation of the engine collaborators:
// order persistence, warehouse/route reference data and the flattened record
// sets the aggregation engine consumes.
type Store struct {
	db *gorm.DB
}

// NewStore creates the store over an open database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetOrder loads an order with its items.
func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Preload("Items").Where("order_id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundf("order %s not found", id)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// SaveOrder persists the order with an optimistic version check: the update
// only applies when the stored version still matches the loaded one, so two
// concurrent transitions cannot both succeed.
func (s *Store) SaveOrder(ctx context.Context, order *model.Order) (*model.Order, error) {
	loadedVersion := order.Version
	order.Version++

	res := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_id = ? AND version = ?", order.OrderID, loadedVersion).
		Updates(map[string]interface{}{
			"status":               order.Status,
			"source_warehouse_id":  order.SourceWarehouseID,
			"actual_delivery_date": order.ActualDeliveryDate,
			"version":              order.Version,
			"updated_at":           time.Now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to save order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, model.InvalidTransitionf("order %s was modified concurrently, reload and retry", order.OrderID)
	}
	return order, nil
}

// GetWarehouse loads a warehouse with its city.
func (s *Store) GetWarehouse(ctx context.Context, id int64) (*model.Warehouse, error) {
	var wh model.Warehouse
	err := s.db.WithContext(ctx).Preload("City").Where("warehouse_id = ?", id).First(&wh).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundf("warehouse %d not found", id)
		}
		return nil, fmt.Errorf("failed to get warehouse: %w", err)
	}
	return &wh, nil
}

// ListWarehouses returns all warehouses with their cities.
func (s *Store) ListWarehouses(ctx context.Context) ([]model.Warehouse, error) {
	var whs []model.Warehouse
	if err := s.db.WithContext(ctx).Preload("City").Find(&whs).Error; err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}
	return whs, nil
}

// AllRoutes returns every city-route edge.
func (s *Store) AllRoutes(ctx context.Context) ([]model.CityRoute, error) {
	var routes []model.CityRoute
	if err := s.db.WithContext(ctx).Find(&routes).Error; err != nil {
		return nil, fmt.Errorf("failed to load routes: %w", err)
	}
	return routes, nil
}

// AllCities returns every city.
func (s *Store) AllCities(ctx context.Context) ([]model.City, error) {
	var cities []model.City
	if err := s.db.WithContext(ctx).Find(&cities).Error; err != nil {
		return nil, fmt.Errorf("failed to load cities: %w", err)
	}
	return cities, nil
}

// ListOrders returns a page of orders, newest first, optionally restricted
// to one status.
func (s *Store) ListOrders(ctx context.Context, status model.OrderStatus, page, limit int) ([]model.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	query := s.db.WithContext(ctx).Model(&model.Order{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []model.Order
	err := query.Order("order_date DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// OrderRecords fetches the joined order-item rows the aggregation engine
// works over: item, product dictionary data and purchaser demographics,
// flattened once here rather than at every call site.
func (s *Store) OrderRecords(ctx context.Context) ([]model.OrderRecord, error) {
	type row struct {
		OrderID      uuid.UUID
		Status       model.OrderStatus
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
		DateOfBirth  *time.Time
	}

	var rows []row
	err := s.db.WithContext(ctx).Raw(`
		SELECT o.order_id, o.status, o.order_date, o.total_amount,
		       p.product_id, p.name AS product_name,
		       c.category_id, c.category_name,
		       b.brand_id, b.brand_name,
		       oi.quantity, oi.unit_price,
		       COALESCE(cp.gender, '') AS gender, cp.date_of_birth
		FROM order_items oi
		JOIN orders o ON o.order_id = oi.order_id
		JOIN products p ON p.product_id = oi.product_id
		JOIN categories c ON c.category_id = p.category_id
		JOIN brands b ON b.brand_id = p.brand_id
		LEFT JOIN customer_profiles cp ON cp.user_id = o.customer_id
	`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order records: %w", err)
	}

	now := time.Now()
	records := make([]model.OrderRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, model.OrderRecord{
			OrderID:      r.OrderID,
			Status:       r.Status,
			OrderDate:    r.OrderDate,
			TotalAmount:  r.TotalAmount,
			ProductID:    r.ProductID,
			ProductName:  r.ProductName,
			CategoryID:   r.CategoryID,
			CategoryName: r.CategoryName,
			BrandID:      r.BrandID,
			BrandName:    r.BrandName,
			Quantity:     r.Quantity,
			UnitPrice:    r.UnitPrice,
			Gender:       r.Gender,
			Age:          ageAt(r.DateOfBirth, now),
		})
	}
	return records, nil
}

// UserRecords fetches customer demographics.
func (s *Store) UserRecords(ctx context.Context) ([]model.UserRecord, error) {
	type row struct {
		UserID      uuid.UUID
		Gender      string
		DateOfBirth *time.Time
	}

	var rows []row
	err := s.db.WithContext(ctx).Raw(`
		SELECT u.user_id, COALESCE(cp.gender, '') AS gender, cp.date_of_birth
		FROM users u
		LEFT JOIN customer_profiles cp ON cp.user_id = u.user_id
		WHERE u.role = ?
	`, model.RoleCustomer).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user records: %w", err)
	}

	now := time.Now()
	records := make([]model.UserRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, model.UserRecord{
			UserID: r.UserID,
			Gender: r.Gender,
			Age:    ageAt(r.DateOfBirth, now),
		})
	}
	return records, nil
}

// ProductRecords fetches the flattened catalog rows.
func (s *Store) ProductRecords(ctx context.Context) ([]model.ProductRecord, error) {
	var records []model.ProductRecord
	err := s.db.WithContext(ctx).Raw(`
		SELECT p.product_id, p.name, c.category_name, b.brand_name, p.price
		FROM products p
		JOIN categories c ON c.category_id = p.category_id
		JOIN brands b ON b.brand_id = p.brand_id
	`).Scan(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product records: %w", err)
	}
	return records, nil
}

// RouteRecords fetches the flattened route rows.
func (s *Store) RouteRecords(ctx context.Context) ([]model.RouteRecord, error) {
	var records []model.RouteRecord
	err := s.db.WithContext(ctx).Raw(`
		SELECT ca.city_name AS city_a_name, cb.city_name AS city_b_name, cr.distance_km
		FROM city_routes cr
		JOIN cities ca ON ca.city_id = cr.city_a_id
		JOIN cities cb ON cb.city_id = cr.city_b_id
	`).Scan(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch route records: %w", err)
	}
	return records, nil
}

// LoginRecords fetches login events after the cutoff.
func (s *Store) LoginRecords(ctx context.Context, since time.Time) ([]model.LoginRecord, error) {
	var records []model.LoginRecord
	err := s.db.WithContext(ctx).
		Model(&model.LoginLog{}).
		Select("user_id, logged_at").
		Where("logged_at >= ?", since).
		Scan(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch login records: %w", err)
	}
	return records, nil
}

// RecordLogin appends a login event.
func (s *Store) RecordLogin(ctx context.Context, userID uuid.UUID, source string) error {
	entry := &model.LoginLog{UserID: userID, LoggedAt: time.Now(), Source: source}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

// ageAt converts a date of birth into whole years at the reference time.
func ageAt(dob *time.Time, at time.Time) *int {
	if dob == nil {
		return nil
	}
	years := at.Year() - dob.Year()
	anniversary := time.Date(at.Year(), dob.Month(), dob.Day(), 0, 0, 0, 0, time.UTC)
	if at.Before(anniversary) {
		years--
	}
	if years < 0 {
		years = 0
	}
	age := years
	return &age
}
