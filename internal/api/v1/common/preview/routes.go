package preview

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/common")
	{
		group.POST("/preview", Render)
	}
}
