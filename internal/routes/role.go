package routes

import (
	"github.com/gin-gonic/gin"

	"dblens/internal/handlers"
	"dblens/internal/middlewares"
	"dblens/internal/services"
)

type RoleRoutes struct {
	handler *handlers.RoleHandler
	roleSvc *services.RoleService
}

func NewRoleRoutes(handler *handlers.RoleHandler, roleSvc *services.RoleService) *RoleRoutes {
	return &RoleRoutes{handler: handler, roleSvc: roleSvc}
}

func (r *RoleRoutes) RegisterRoutes(router *gin.RouterGroup, authenticate gin.HandlerFunc) {
	manageRoles := middlewares.RequirePermission(r.roleSvc, "admin.roles")

	roles := router.Group("/roles")
	roles.Use(authenticate)
	{
		// Any authenticated user may read their own permission set.
		roles.GET("/my-permissions", r.handler.MyPermissions)
		roles.GET("/available-permissions", r.handler.Catalog)

		roles.GET("", manageRoles, r.handler.List)
		roles.GET("/:id", manageRoles, r.handler.Get)
		roles.POST("", manageRoles, r.handler.Create)
		roles.PATCH("/:id", manageRoles, r.handler.Update)
		roles.DELETE("/:id", manageRoles, r.handler.Delete)
		roles.POST("/assign", manageRoles, r.handler.Assign)
		roles.POST("/unassign", manageRoles, r.handler.Unassign)
	}
}
