package handler

import (
	"net/http"

	"github.com/Eropik/analytics-e-store/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps a domain error kind to its HTTP status. Errors outside
// the taxonomy are internal failures and never leak their message.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	kind := model.KindOf(err)

	var status int
	switch kind {
	case model.KindUnauthorized:
		status = http.StatusUnauthorized
	case model.KindAccessDenied:
		status = http.StatusForbidden
	case model.KindNotFound:
		status = http.StatusNotFound
	case model.KindInvalidTransition:
		status = http.StatusConflict
	case model.KindValidation:
		status = http.StatusBadRequest
	default:
		logger.Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error(), "kind": string(kind)})
}
