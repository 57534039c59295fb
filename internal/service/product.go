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

// PagedProductResponse is the paginated catalog listing.
type PagedProductResponse struct {
	Products   []model.Product `json:"products"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
	TotalItems int             `json:"totalItems"`
}

// ProductFilters narrows the catalog listing.
type ProductFilters struct {
	CategoryID int
	BrandID    int
	MinPrice   float64
	MaxPrice   float64
	Page       int
	Limit      int
}

// ProductService exposes the catalog to the console.
type ProductService interface {
	CreateProduct(ctx context.Context, req *model.ProductRequest, actor model.Actor) (*model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Product, error)
	ListProducts(ctx context.Context, filters ProductFilters, actor model.Actor) (*PagedProductResponse, error)
}

type productServiceImpl struct {
	db    *gorm.DB
	authz Authorizer
}

// NewProductService creates the catalog service.
func NewProductService(db *gorm.DB, authz Authorizer) ProductService {
	return &productServiceImpl{db: db, authz: authz}
}

// CreateProduct inserts a catalog item after validating its dictionary
// references.
func (s *productServiceImpl) CreateProduct(ctx context.Context, req *model.ProductRequest, actor model.Actor) (*model.Product, error) {
	if err := s.require(actor, model.CapProductCreate); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Category{}).Where("category_id = ?", req.CategoryID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check category: %w", err)
	}
	if count == 0 {
		return nil, model.Validationf("category %d not found", req.CategoryID)
	}
	if err := s.db.WithContext(ctx).Model(&model.Brand{}).Where("brand_id = ?", req.BrandID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check brand: %w", err)
	}
	if count == 0 {
		return nil, model.Validationf("brand %d not found", req.BrandID)
	}
	if req.Price <= 0 {
		return nil, model.Validationf("price must be positive")
	}

	product := &model.Product{
		ProductID:   uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		BrandID:     req.BrandID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// GetProduct loads one product with its dictionary entries.
func (s *productServiceImpl) GetProduct(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Product, error) {
	if err := s.require(actor, model.CapProductView); err != nil {
		return nil, err
	}

	var product model.Product
	err := s.db.WithContext(ctx).Preload("Category").Preload("Brand").
		Where("product_id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundf("product %s not found", id)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// ListProducts returns a filtered page of the catalog, newest first.
func (s *productServiceImpl) ListProducts(ctx context.Context, filters ProductFilters, actor model.Actor) (*PagedProductResponse, error) {
	if err := s.require(actor, model.CapProductView); err != nil {
		return nil, err
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}
	limit := filters.Limit
	if limit < 1 {
		limit = 20
	}

	query := s.db.WithContext(ctx).Model(&model.Product{})
	if filters.CategoryID > 0 {
		query = query.Where("category_id = ?", filters.CategoryID)
	}
	if filters.BrandID > 0 {
		query = query.Where("brand_id = ?", filters.BrandID)
	}
	if filters.MinPrice > 0 {
		query = query.Where("price >= ?", filters.MinPrice)
	}
	if filters.MaxPrice > 0 {
		query = query.Where("price <= ?", filters.MaxPrice)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []model.Product
	err := query.Preload("Category").Preload("Brand").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))
	if totalPages < 1 {
		totalPages = 1
	}

	return &PagedProductResponse{
		Products:   products,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		TotalItems: int(totalCount),
	}, nil
}

func (s *productServiceImpl) require(actor model.Actor, capability model.Capability) error {
	allowed, err := s.authz.HasCapability(actor, capability)
	if err != nil {
		return err
	}
	if !allowed {
		return model.AccessDeniedf("actor %s lacks %s", actor.Email, capability)
	}
	return nil
}
