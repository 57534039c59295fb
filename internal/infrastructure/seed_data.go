package infrastructure

import (
	"fmt"
	"time"

	"github.com/Eropik/analytics-e-store/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedDataManager populates reference and sample data for development
// environments.
type SeedDataManager struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSeedDataManager creates a new seed data manager.
func NewSeedDataManager(db *gorm.DB, logger *zap.Logger) *SeedDataManager {
	return &SeedDataManager{db: db, logger: logger}
}

// SeedAll initializes reference data and sample accounts. Each step is
// idempotent: existing rows are left alone.
func (s *SeedDataManager) SeedAll() error {
	if err := s.seedCitiesAndRoutes(); err != nil {
		return fmt.Errorf("failed to seed cities and routes: %w", err)
	}
	if err := s.seedWarehouses(); err != nil {
		return fmt.Errorf("failed to seed warehouses: %w", err)
	}
	if err := s.seedCatalog(); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	if err := s.seedAdminUsers(); err != nil {
		return fmt.Errorf("failed to seed admin users: %w", err)
	}
	return nil
}

func (s *SeedDataManager) seedCitiesAndRoutes() error {
	var count int64
	if err := s.db.Model(&model.City{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.logger.Info("cities already exist, skipping seed")
		return nil
	}

	cities := []model.City{
		{CityName: "Moscow"},
		{CityName: "Saint Petersburg"},
		{CityName: "Kazan"},
		{CityName: "Novosibirsk"},
		{CityName: "Yekaterinburg"},
	}
	if err := s.db.Create(&cities).Error; err != nil {
		return err
	}

	byName := make(map[string]int, len(cities))
	for _, c := range cities {
		byName[c.CityName] = c.CityID
	}

	routes := []model.CityRoute{
		{CityAID: byName["Moscow"], CityBID: byName["Saint Petersburg"], DistanceKm: 700},
		{CityAID: byName["Moscow"], CityBID: byName["Kazan"], DistanceKm: 820},
		{CityAID: byName["Kazan"], CityBID: byName["Yekaterinburg"], DistanceKm: 930},
		{CityAID: byName["Yekaterinburg"], CityBID: byName["Novosibirsk"], DistanceKm: 1600},
	}
	if err := s.db.Create(&routes).Error; err != nil {
		return err
	}

	s.logger.Info("seeded cities and routes",
		zap.Int("cities", len(cities)), zap.Int("routes", len(routes)))
	return nil
}

func (s *SeedDataManager) seedWarehouses() error {
	var count int64
	if err := s.db.Model(&model.Warehouse{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var moscow, kazan model.City
	if err := s.db.Where("city_name = ?", "Moscow").First(&moscow).Error; err != nil {
		return err
	}
	if err := s.db.Where("city_name = ?", "Kazan").First(&kazan).Error; err != nil {
		return err
	}

	warehouses := []model.Warehouse{
		{Name: "Central", Address: "Warehouse Lane 1", CityID: moscow.CityID},
		{Name: "Volga", Address: "Industrial Park 7", CityID: kazan.CityID},
	}
	if err := s.db.Create(&warehouses).Error; err != nil {
		return err
	}
	s.logger.Info("seeded warehouses", zap.Int("count", len(warehouses)))
	return nil
}

func (s *SeedDataManager) seedCatalog() error {
	var count int64
	if err := s.db.Model(&model.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	categories := []model.Category{
		{CategoryName: "Electronics"},
		{CategoryName: "Books"},
		{CategoryName: "Apparel"},
	}
	if err := s.db.Create(&categories).Error; err != nil {
		return err
	}

	brands := []model.Brand{
		{BrandName: "Acme"},
		{BrandName: "Northwind"},
		{BrandName: "Contoso"},
	}
	if err := s.db.Create(&brands).Error; err != nil {
		return err
	}

	products := []model.Product{
		{ProductID: uuid.New(), Name: "Wireless Headphones", Price: 120, CategoryID: categories[0].CategoryID, BrandID: brands[0].BrandID, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ProductID: uuid.New(), Name: "Go in Practice", Price: 45, CategoryID: categories[1].CategoryID, BrandID: brands[1].BrandID, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ProductID: uuid.New(), Name: "Winter Jacket", Price: 260, CategoryID: categories[2].CategoryID, BrandID: brands[2].BrandID, CreatedAt: time.Now(), UpdatedAt: time.Now()},
	}
	if err := s.db.Create(&products).Error; err != nil {
		return err
	}

	s.logger.Info("seeded catalog",
		zap.Int("categories", len(categories)),
		zap.Int("brands", len(brands)),
		zap.Int("products", len(products)))
	return nil
}

func (s *SeedDataManager) seedAdminUsers() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.logger.Info("admin users already exist, skipping seed")
		return nil
	}

	admins := []struct {
		email      string
		department model.Department
	}{
		{"analyst@console.local", model.DeptAnalyze},
		{"orders@console.local", model.DeptOrderManage},
		{"catalog@console.local", model.DeptProductManage},
		{"accounts@console.local", model.DeptUserManage},
	}

	for _, a := range admins {
		hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user := model.User{
			UserID:       uuid.New(),
			Email:        a.email,
			PasswordHash: string(hash),
			Role:         model.RoleAdmin,
			Department:   a.department,
			IsActive:     true,
			CreatedAt:    time.Now(),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return err
		}
		s.logger.Info("created admin user",
			zap.String("email", a.email), zap.String("department", string(a.department)))
	}
	return nil
}
