package handler

import (
	"net/http"
	"strconv"

	"github.com/Eropik/analytics-e-store/internal/model"
	"github.com/Eropik/analytics-e-store/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductHandler serves the catalog endpoints.
type ProductHandler struct {
	products service.ProductService
	logger   *zap.Logger
}

// NewProductHandler creates the product handler.
func NewProductHandler(products service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

// List handles GET /api/products.
func (h *ProductHandler) List(c *gin.Context) {
	actor, exists := getActor(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	filters := service.ProductFilters{}
	filters.CategoryID, _ = strconv.Atoi(c.Query("categoryId"))
	filters.BrandID, _ = strconv.Atoi(c.Query("brandId"))
	filters.MinPrice, _ = strconv.ParseFloat(c.Query("minPrice"), 64)
	filters.MaxPrice, _ = strconv.ParseFloat(c.Query("maxPrice"), 64)
	filters.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filters.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	resp, err := h.products.ListProducts(c.Request.Context(), filters, actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get handles GET /api/products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	actor, exists := getActor(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	product, err := h.products.GetProduct(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Create handles POST /api/products.
func (h *ProductHandler) Create(c *gin.Context) {
	actor, exists := getActor(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req model.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	product, err := h.products.CreateProduct(c.Request.Context(), &req, actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}
