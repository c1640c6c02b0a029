package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dblens/internal/services"
	"dblens/rbac"
)

// RequirePermission gates a route on one effective permission. Must run after
// Authenticate.
func RequirePermission(roleSvc *services.RoleService, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		allowed, err := roleSvc.HasPermission(user, permission)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Permission check failed"})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access denied. Missing permission: " + permission})
			return
		}
		c.Next()
	}
}

// RequireAdmin allows only users whose role level is admin or above.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		if rbac.RoleLevel(user.Role) < 80 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access denied. Admin privileges required."})
			return
		}
		c.Next()
	}
}

// OrganizationScope resolves the optional X-Organization-ID header and stores
// the validated org id in the context.
func OrganizationScope(orgSvc *services.OrganizationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		orgID, err := orgSvc.Authorize(user, c.GetHeader("X-Organization-ID"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": err.Error()})
			return
		}
		if orgID != nil {
			c.Set(ContextOrgKey, orgID)
		}
		c.Next()
	}
}
