package model

import (
	"time"

	"github.com/google/uuid"
)

// Category is a product category dictionary entry.
type Category struct {
	CategoryID   int    `json:"categoryId" gorm:"primaryKey;autoIncrement"`
	CategoryName string `json:"categoryName" gorm:"type:varchar(100);uniqueIndex;not null"`
}

// Brand is a product brand dictionary entry.
type Brand struct {
	BrandID   int    `json:"brandId" gorm:"primaryKey;autoIncrement"`
	BrandName string `json:"brandName" gorm:"type:varchar(100);uniqueIndex;not null"`
}

// Product represents a catalog item.
type Product struct {
	ProductID   uuid.UUID `json:"productId" gorm:"primaryKey;type:uuid"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Description string    `json:"description"`
	Price       float64   `json:"price" gorm:"not null"`
	CategoryID  int       `json:"categoryId" gorm:"not null;index"`
	BrandID     int       `json:"brandId" gorm:"not null;index"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Brand    *Brand    `json:"brand,omitempty" gorm:"foreignKey:BrandID"`
}

// ProductRequest is the create/update form for products.
type ProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required"`
	CategoryID  int     `json:"categoryId" binding:"required"`
	BrandID     int     `json:"brandId" binding:"required"`
}
