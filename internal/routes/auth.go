package routes

import (
	"github.com/gin-gonic/gin"

	"dblens/internal/handlers"
)

type AuthRoutes struct {
	handler *handlers.AuthHandler
}

func NewAuthRoutes(handler *handlers.AuthHandler) *AuthRoutes {
	return &AuthRoutes{handler: handler}
}

func (r *AuthRoutes) RegisterRoutes(router *gin.RouterGroup, authenticate gin.HandlerFunc) {
	auth := router.Group("/auth")
	{
		// Public routes
		auth.GET("/setup-status", r.handler.SetupRequired)
		auth.POST("/register", r.handler.Register)
		auth.POST("/login", r.handler.Login)
		auth.POST("/refresh", r.handler.Refresh)

		// Protected routes
		protected := auth.Group("/")
		protected.Use(authenticate)
		protected.POST("/logout", r.handler.Logout)
		protected.GET("/me", r.handler.Me)
		protected.POST("/change-password", r.handler.ChangePassword)
		protected.GET("/sessions", r.handler.Sessions)
		protected.DELETE("/sessions", r.handler.RevokeAllSessions)
		protected.DELETE("/sessions/:id", r.handler.RevokeSession)
	}
}
