package middleware

import (
	"net/http"

	"github.com/Eropik/analytics-e-store/internal/model"
	"github.com/Eropik/analytics-e-store/internal/service"

	"github.com/gin-gonic/gin"
)

// RequireCapability gates a route on a single capability. The services check
// capabilities again for their own operations; this middleware exists to
// reject requests early with a uniform response.
func RequireCapability(authz service.Authorizer, capability model.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, exists := GetActor(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Actor not found in context"})
			c.Abort()
			return
		}

		allowed, err := authz.HasCapability(actor, capability)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
			c.Abort()
			return
		}

		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			c.Abort()
			return
		}

		c.Next()
	}
}
