package routes

import (
	"github.com/gin-gonic/gin"

	"dblens/internal/handlers"
	"dblens/internal/middlewares"
	"dblens/internal/services"
)

type UserRoutes struct {
	handler *handlers.UserHandler
	roleSvc *services.RoleService
}

func NewUserRoutes(handler *handlers.UserHandler, roleSvc *services.RoleService) *UserRoutes {
	return &UserRoutes{handler: handler, roleSvc: roleSvc}
}

func (r *UserRoutes) RegisterRoutes(router *gin.RouterGroup, authenticate gin.HandlerFunc) {
	users := router.Group("/users")
	users.Use(authenticate)
	users.Use(middlewares.RequirePermission(r.roleSvc, "admin.users"))
	{
		users.GET("", r.handler.List)
		users.GET("/search", r.handler.Search)
		users.GET("/:id", r.handler.Get)
		users.POST("", r.handler.Create)
		users.PATCH("/:id", r.handler.Update)
		users.DELETE("/:id", r.handler.Delete)
	}
}
