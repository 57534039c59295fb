package handler

import (
	"errors"
	"net/http"

	"github.com/Eropik/analytics-e-store/internal/auth"
	"github.com/Eropik/analytics-e-store/internal/model"
	"github.com/Eropik/analytics-e-store/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler serves login and the actor's own capability set.
type AuthHandler struct {
	authService *auth.Service
	logger      *zap.Logger
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(authService *auth.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		case errors.Is(err, auth.ErrAccountDisabled):
			c.JSON(http.StatusForbidden, gin.H{"error": "account is disabled"})
		default:
			h.logger.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me handles GET /api/auth/me: the actor plus the capabilities its
// department grants.
func (h *AuthHandler) Me(c *gin.Context) {
	actor, exists := getActor(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"actor":        actor,
		"capabilities": service.DepartmentCapabilities(actor.Department),
	})
}
