package routes

import (
	"github.com/gin-gonic/gin"

	"dblens/internal/handlers"
	"dblens/internal/middlewares"
	"dblens/internal/services"
)

type MigrationRoutes struct {
	handler *handlers.MigrationHandler
	roleSvc *services.RoleService
}

func NewMigrationRoutes(handler *handlers.MigrationHandler, roleSvc *services.RoleService) *MigrationRoutes {
	return &MigrationRoutes{handler: handler, roleSvc: roleSvc}
}

func (r *MigrationRoutes) RegisterRoutes(router *gin.RouterGroup, authenticate gin.HandlerFunc) {
	view := middlewares.RequirePermission(r.roleSvc, "migrations.view")
	execute := middlewares.RequirePermission(r.roleSvc, "migrations.execute")

	migrations := router.Group("/migrations")
	migrations.Use(authenticate)
	{
		migrations.GET("", view, r.handler.List)
		migrations.GET("/:id", view, r.handler.Get)
		migrations.GET("/:id/logs", view, r.handler.Logs)
		migrations.POST("", execute, r.handler.Start)
		migrations.POST("/:id/cancel", execute, r.handler.Cancel)
		migrations.POST("/:id/rollback", execute, r.handler.Rollback)
	}
}
