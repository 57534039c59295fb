package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Eropik/analytics-e-store/internal/metrics"
	"github.com/Eropik/analytics-e-store/internal/model"
	"github.com/Eropik/analytics-e-store/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderLister pages through orders for the console list view.
type OrderLister interface {
	ListOrders(ctx context.Context, status model.OrderStatus, page, limit int) ([]model.Order, int64, error)
}

// OrderHandler serves the order management endpoints.
type OrderHandler struct {
	engine *service.LifecycleEngine
	lister OrderLister
	logger *zap.Logger
}

// NewOrderHandler creates the order handler.
func NewOrderHandler(engine *service.LifecycleEngine, lister OrderLister, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{engine: engine, lister: lister, logger: logger}
}

// statusRequest is the body of a status transition. Logistics fields may
// accompany the new status and apply under the source state's payload rules.
type statusRequest struct {
	Status       string  `json:"status" binding:"required"`
	WarehouseID  *int64  `json:"warehouseId"`
	DeliveryDate *string `json:"deliveryDate"`
}

// logisticsRequest is the body of a save-without-status-change update.
type logisticsRequest struct {
	WarehouseID  *int64  `json:"warehouseId"`
	DeliveryDate *string `json:"deliveryDate"`
}

func parseLogistics(warehouseID *int64, deliveryDate *string) (model.LogisticsPayload, error) {
	logistics := model.LogisticsPayload{WarehouseID: warehouseID}
	if deliveryDate != nil {
		d, err := time.Parse(time.RFC3339, *deliveryDate)
		if err != nil {
			d, err = time.Parse("2006-01-02", *deliveryDate)
		}
		if err != nil {
			return logistics, model.Validationf("invalid delivery date %q", *deliveryDate)
		}
		logistics.DeliveryDate = &d
	}
	return logistics, nil
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	if _, exists := getActor(c); !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	status := model.OrderStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown order status"})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	orders, total, err := h.lister.ListOrders(c.Request.Context(), status, page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders":     orders,
		"page":       page,
		"limit":      limit,
		"totalItems": total,
	})
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	actor, exists := getActor(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	view, err := h.engine.Get(c.Request.Context(), orderID, actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Pending handles GET /api/orders/pending: the orders awaiting action.
func (h *OrderHandler) Pending(c *gin.Context) {
	if _, exists := getActor(c); !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	orders, total, err := h.lister.ListOrders(c.Request.Context(), model.StatusProcessing, page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "page": page, "limit": limit, "totalItems": total})
}

// ListByStatus handles GET /api/orders/status/:name.
func (h *OrderHandler) ListByStatus(c *gin.Context) {
	if _, exists := getActor(c); !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	status := model.OrderStatus(c.Param("name"))
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown order status"})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	orders, total, err := h.lister.ListOrders(c.Request.Context(), status, page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "page": page, "limit": limit, "totalItems": total})
}

// UpdateStatus handles PUT /api/orders/:id/status: a status transition,
// optionally carrying logistics fields in the same atomic request.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	actor, exists := getActor(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	logistics, err := parseLogistics(req.WarehouseID, req.DeliveryDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	target := model.OrderStatus(req.Status)
	view, err := h.engine.Transition(c.Request.Context(), orderID, &target, logistics, actor)
	if err != nil {
		if model.IsKind(err, model.KindInvalidTransition) {
			metrics.OrderTransitionsRejectedTotal.Inc()
		}
		respondError(c, h.logger, err)
		return
	}

	metrics.OrderTransitionsTotal.WithLabelValues(string(target)).Inc()
	c.JSON(http.StatusOK, view)
}

// UpdateLogistics handles PUT /api/orders/:id/logistics: the
// save-without-status-change mode.
func (h *OrderHandler) UpdateLogistics(c *gin.Context) {
	actor, exists := getActor(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	var req logisticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	logistics, err := parseLogistics(req.WarehouseID, req.DeliveryDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	view, err := h.engine.Transition(c.Request.Context(), orderID, nil, logistics, actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
