package app

import (
	"readhub_backend/docs"
	"readhub_backend/internal/config"
	"readhub_backend/internal/middleware"

	"readhub_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/profile", c.auth.GetProfile)

		// 阅读会话
		reading := authGroup.Group("/reading")
		{
			reading.POST("/sessions", c.session.StartSession)
			reading.POST("/sessions/:id/heartbeat", c.session.Heartbeat)
			reading.POST("/sessions/:id/end", c.session.EndSession)
			reading.GET("/sessions/active", c.session.GetActiveSession)

			reading.GET("/stats", c.stats.GetStats)
			reading.GET("/milestones", c.stats.GetMilestones)
		}

		// 成就
		authGroup.GET("/badges", c.badge.GetBadges)
		authGroup.POST("/badges/check", c.badge.CheckBadges)

		// 排行榜
		authGroup.GET("/leaderboard", c.leaderboard.GetLeaderboard)
		authGroup.POST("/leaderboard/:userId/like", c.leaderboard.LikeEntry)
	}
}
