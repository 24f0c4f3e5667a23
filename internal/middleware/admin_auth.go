package middleware

import (
	"net/http"

	"hunteros-backend/internal/models"
	"hunteros-backend/internal/services"
	"hunteros-backend/internal/utils"
	"hunteros-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminAuthMiddleware validates that the user has admin privileges.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c, http.StatusForbidden)
		if !ok {
			return
		}

		if claims.Role != models.RoleAdmin {
			logger.Log.Warn("unauthorized admin access attempt",
				zap.Uint("user_id", claims.UserID), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Forbidden: Admins only"))
			return
		}

		// The role claim is enough to pass; the user row is loaded when available
		if user, err := services.FindUserByID(claims.UserID); err == nil {
			c.Set(userContextKey, user)
		} else {
			c.Set(userContextKey, models.User{ID: claims.UserID, Role: claims.Role})
		}

		c.Next()
	}
}
