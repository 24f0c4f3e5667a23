package middleware

import (
	"net/http"

	"hunteros-backend/internal/models"
	"hunteros-backend/internal/services"
	"hunteros-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

const userContextKey = "user"

// UserFromContext returns the user stored by AuthMiddleware.
func UserFromContext(c *gin.Context) (models.User, bool) {
	val, exists := c.Get(userContextKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}

// authenticate validates the bearer token and returns its claims. On failure
// it has already written the response and aborted.
func authenticate(c *gin.Context, invalidStatus int) (*utils.Claims, bool) {
	tokenString, err := utils.ExtractToken(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, err.Error()))
		return nil, false
	}

	isDenylisted, err := services.IsDenylisted(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to check token status"))
		return nil, false
	}
	if isDenylisted {
		c.AbortWithStatusJSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Token has been revoked"))
		return nil, false
	}

	claims, err := utils.ValidateToken(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(invalidStatus, utils.NewErrorResponse(invalidStatus, "Invalid or expired token"))
		return nil, false
	}
	return claims, true
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c, http.StatusUnauthorized)
		if !ok {
			return
		}
		if claims.UserID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Invalid user ID in token"))
			return
		}

		user, err := services.FindUserByID(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "User not found"))
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}
