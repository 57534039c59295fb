package handler

import (
	"github.com/Eropik/analytics-e-store/internal/middleware"
	"github.com/Eropik/analytics-e-store/internal/model"

	"github.com/gin-gonic/gin"
)

func getActor(c *gin.Context) (model.Actor, bool) {
	return middleware.GetActor(c)
}
