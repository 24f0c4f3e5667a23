package templates

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the template store on an authenticated group.
func RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/templates")
	{
		group.GET("", ListTemplates)
		group.POST("", CreateTemplate)
		group.GET("/:id", GetTemplate)
		group.PATCH("/:id", UpdateTemplate)
		group.DELETE("/:id", DeleteTemplate)
		group.GET("/:id/versions", ListTemplateVersions)
		group.GET("/:id/render", RenderTemplate)
	}
}

// RegisterAdminRoutes mounts admin-only template routes.
func RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.GET("/templates/:id/preview", PreviewTemplate)
}
