package middleware

import (
	"net/http"
	"strings"

	"github.com/Eropik/analytics-e-store/internal/auth"
	"github.com/Eropik/analytics-e-store/internal/model"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// AuthMiddleware validates the Bearer token and stores the resulting actor
// in the request context.
func AuthMiddleware(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		actor, err := authService.ValidateToken(tokenParts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// GetActor returns the authenticated actor from the request context.
func GetActor(c *gin.Context) (model.Actor, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return model.Actor{}, false
	}
	actor, ok := v.(*model.Actor)
	if !ok {
		return model.Actor{}, false
	}
	return *actor, true
}
