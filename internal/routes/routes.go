package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything RegisterRoutes needs.
type Handlers struct {
	Auth         *AuthRoutes
	User         *UserRoutes
	Role         *RoleRoutes
	Database     *DatabaseRoutes
	Migration    *MigrationRoutes
	Audit        *AuditRoutes
	Organization *OrganizationRoutes
	Setting      *SettingRoutes
}

func RegisterRoutes(router *gin.Engine, h Handlers, authenticate gin.HandlerFunc) {
	api := router.Group("/api/v1")

	h.Auth.RegisterRoutes(api, authenticate)
	h.User.RegisterRoutes(api, authenticate)
	h.Role.RegisterRoutes(api, authenticate)
	h.Database.RegisterRoutes(api, authenticate)
	h.Migration.RegisterRoutes(api, authenticate)
	h.Audit.RegisterRoutes(api, authenticate)
	h.Organization.RegisterRoutes(api, authenticate)
	h.Setting.RegisterRoutes(api, authenticate)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}
