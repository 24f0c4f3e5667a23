package api

import (
	"net/http"

	"hunteros-backend/config"
	adminUser "hunteros-backend/internal/api/v1/admin/user"
	"hunteros-backend/internal/api/v1/auth"
	"hunteros-backend/internal/api/v1/common/preview"
	"hunteros-backend/internal/api/v1/templates"
	userRoutes "hunteros-backend/internal/api/v1/user"
	"hunteros-backend/internal/api/v1/widget_builder"
	"hunteros-backend/internal/api/v1/widgets"
	"hunteros-backend/internal/binding"
	"hunteros-backend/internal/database"
	"hunteros-backend/internal/metrics"
	"hunteros-backend/internal/middleware"
	"hunteros-backend/internal/services"
	"hunteros-backend/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Bootstrap connects the database and Redis and migrates the schema.
func Bootstrap(cfg *config.Config) error {
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	return database.ConnectRedis(cfg)
}

// NewRouter builds the HTTP API. Bootstrap must have run first.
func NewRouter(cfg *config.Config) *gin.Engine {
	services.TemplatePollInterval = binding.ClampInterval(cfg.TemplatePollInterval)

	m := metrics.Global()
	if m == nil {
		m = metrics.Init()
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger(), metrics.GinMiddleware())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	var streamer services.ChatStreamer
	if llm, err := services.NewLLMClient(cfg); err == nil {
		streamer = llm
	} else {
		logger.Log.Warn("widget builder disabled", zap.Error(err))
	}

	v1 := router.Group("/api/v1")
	{
		auth.RegisterRoutes(v1)

		authorized := v1.Group("/")
		authorized.Use(middleware.AuthMiddleware())
		{
			userRoutes.RegisterRoutes(authorized)
			templates.RegisterRoutes(authorized)
			widgets.RegisterRoutes(authorized)
			widget_builder.RegisterRoutes(authorized, widget_builder.NewHandler(streamer))
			preview.RegisterRoutes(authorized)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.AdminAuthMiddleware())
		{
			templates.RegisterAdminRoutes(admin)
			adminUser.RegisterRoutes(admin)
		}
	}

	return router
}
