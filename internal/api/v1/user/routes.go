package user

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the current-user endpoints on an authenticated group.
func RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/auth/user", CurrentUser)
	router.GET("/users/me", CurrentUser)
}
