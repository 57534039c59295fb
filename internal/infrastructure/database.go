package infrastructure

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Eropik/analytics-e-store/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDatabase establishes a connection to PostgreSQL using GORM.
func ConnectDatabase(cfg DBConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Silent,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// MigrateAllSchemas performs database migrations in dependency order.
func MigrateAllSchemas(db *gorm.DB) error {
	models := []interface{}{
		&model.User{},
		&model.CustomerProfile{},
		&model.LoginLog{},
		&model.Category{},
		&model.Brand{},
		&model.Product{},
		&model.City{},
		&model.CityRoute{},
		&model.Warehouse{},
		&model.Order{},
		&model.OrderItem{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", m, err)
		}
	}

	return createAdditionalIndexes(db)
}

// createAdditionalIndexes creates indexes the aggregation queries rely on.
func createAdditionalIndexes(db *gorm.DB) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_order_date ON orders(order_date)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_product_id ON order_items(product_id)`,
		`CREATE INDEX IF NOT EXISTS idx_login_logs_logged_at ON login_logs(logged_at)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
