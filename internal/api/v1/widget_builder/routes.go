package widget_builder

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup, h *Handler) {
	group := router.Group("/widget-builder")
	{
		group.POST("/generate", h.Generate)
	}
}
