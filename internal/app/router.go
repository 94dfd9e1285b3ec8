package app

import (
	"reading_coach_backend/docs"
	"reading_coach_backend/internal/config"
	"reading_coach_backend/internal/middleware"
	"reading_coach_backend/internal/model"
	"reading_coach_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// 日历方回调，共享密钥头校验
		public.POST("/webhooks/booking", c.booking.HandleBookingWebhook)
	}

	// 教练接口
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/me", c.auth.Me)

		sessions := authGroup.Group("/sessions")
		sessions.Use(middleware.RoleMiddleware(model.RoleCoach))
		{
			sessions.GET("", c.session.ListMySessions)
			sessions.GET("/:id", c.session.GetSession)
			sessions.POST("/:id/complete", c.session.CompleteOnline)
			sessions.POST("/:id/offline-report", c.session.CompleteOffline)
			sessions.POST("/:id/offline-request", c.offline.RequestConversion)
			sessions.POST("/:id/audio", c.offline.UploadAudio)
		}
	}

	// 管理员接口
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.RoleAdmin))
	{
		admin.GET("/offline-requests", c.offline.ListPendingRequests)
		admin.POST("/offline-requests/:id/approve", c.offline.ApproveRequest)
		admin.POST("/offline-requests/:id/reject", c.offline.RejectRequest)
	}
}
