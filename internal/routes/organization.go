package routes

import (
	"github.com/gin-gonic/gin"

	"dblens/internal/handlers"
)

type OrganizationRoutes struct {
	handler *handlers.OrganizationHandler
}

func NewOrganizationRoutes(handler *handlers.OrganizationHandler) *OrganizationRoutes {
	return &OrganizationRoutes{handler: handler}
}

func (r *OrganizationRoutes) RegisterRoutes(router *gin.RouterGroup, authenticate gin.HandlerFunc) {
	orgs := router.Group("/organizations")
	orgs.Use(authenticate)
	{
		orgs.GET("", r.handler.List)
		orgs.POST("", r.handler.Create)
		orgs.GET("/:id/members", r.handler.Members)
		orgs.POST("/:id/members", r.handler.AddMember)
	}
}
