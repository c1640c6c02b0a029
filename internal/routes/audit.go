package routes

import (
	"github.com/gin-gonic/gin"

	"dblens/internal/handlers"
	"dblens/internal/middlewares"
	"dblens/internal/services"
)

type AuditRoutes struct {
	handler *handlers.AuditHandler
	roleSvc *services.RoleService
}

func NewAuditRoutes(handler *handlers.AuditHandler, roleSvc *services.RoleService) *AuditRoutes {
	return &AuditRoutes{handler: handler, roleSvc: roleSvc}
}

func (r *AuditRoutes) RegisterRoutes(router *gin.RouterGroup, authenticate gin.HandlerFunc) {
	audit := router.Group("/audit-logs")
	audit.Use(authenticate)
	{
		audit.GET("", middlewares.RequirePermission(r.roleSvc, "audit.view"), r.handler.List)
		audit.GET("/stats", middlewares.RequirePermission(r.roleSvc, "audit.view"), r.handler.Stats)
		audit.GET("/export", middlewares.RequirePermission(r.roleSvc, "audit.export"), r.handler.Export)
	}
}
