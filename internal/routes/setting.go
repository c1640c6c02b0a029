package routes

import (
	"github.com/gin-gonic/gin"

	"dblens/internal/handlers"
	"dblens/internal/middlewares"
)

type SettingRoutes struct {
	handler *handlers.SettingHandler
}

func NewSettingRoutes(handler *handlers.SettingHandler) *SettingRoutes {
	return &SettingRoutes{handler: handler}
}

func (r *SettingRoutes) RegisterRoutes(router *gin.RouterGroup, authenticate gin.HandlerFunc) {
	settings := router.Group("/settings")
	settings.Use(authenticate)
	settings.Use(middlewares.RequireAdmin())
	{
		settings.GET("", r.handler.List)
		settings.PUT("", r.handler.Set)
	}
}
