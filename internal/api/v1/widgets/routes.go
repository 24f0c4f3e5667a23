package widgets

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the dashboard widget routes on an authenticated group.
func RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/widgets")
	{
		group.GET("", ListWidgets)
		group.POST("", CreateWidget)
		group.GET("/:id", GetWidget)
		group.PATCH("/:id", UpdateWidget)
		group.DELETE("/:id", DeleteWidget)
		group.PUT("/:id/code", SaveCode)
		group.PUT("/:id/template", BindTemplate)
		group.GET("/:id/resolved", GetResolved)
		group.GET("/:id/frame", GetFrame)
	}
}
