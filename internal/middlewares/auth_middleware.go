package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dblens/internal/models"
	"dblens/internal/repositories"
	"dblens/internal/utils"
)

const (
	ContextUserKey   = "currentUser"
	ContextClaimsKey = "claims"
	ContextOrgKey    = "organizationID"
)

// Authenticate verifies the bearer token, rejects revoked sessions and loads
// the user into the request context.
func Authenticate(userRepo *repositories.UserRepository, redisRepo *repositories.RedisRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing Authorization header"})
			return
		}

		// Expected format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid Authorization format"})
			return
		}

		claims, err := utils.VerifyJWT(parts[1], utils.AccessTokenSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}

		if redisRepo != nil {
			revoked, err := redisRepo.IsBlacklisted(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Session has been revoked"})
				return
			}
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token subject"})
			return
		}
		user, err := userRepo.FindByID(userID)
		if err != nil || user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not found"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Account is disabled"})
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// CurrentUser pulls the authenticated user out of the context. The bool is
// false when Authenticate did not run.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// OrganizationID returns the validated org scope, nil when the request is not
// org-scoped.
func OrganizationID(c *gin.Context) *uuid.UUID {
	v, ok := c.Get(ContextOrgKey)
	if !ok {
		return nil
	}
	id, ok := v.(*uuid.UUID)
	if !ok {
		return nil
	}
	return id
}
