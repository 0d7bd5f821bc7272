package handler

import (
	"github.com/SergeiKhy/campaign-dashboard/internal/metrics"
	"github.com/SergeiKhy/campaign-dashboard/internal/middleware"
	"github.com/SergeiKhy/campaign-dashboard/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(
	svc service.DashboardService,
	rateLimiter *middleware.RateLimiter,
	m *metrics.Metrics,
	logger *zap.Logger,
) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	if m != nil {
		router.Use(m.GinMiddleware())
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	authHandler := NewAuthHandler(svc, logger)
	campaignHandler := NewCampaignHandler(svc, logger)
	accountHandler := NewAccountHandler(svc, logger)
	userHandler := NewUserHandler(svc, logger)
	dashboardHandler := NewDashboardHandler(svc, logger)

	// API v.1
	v1 := router.Group("/api/v1")
	{
		// анонимные маршруты ограничиваются только по IP клиента
		public := v1.Group("")
		if rateLimiter != nil {
			public.Use(rateLimiter.Middleware())
		}
		public.GET("/health", HealthCheck)
		public.POST("/auth/login", authHandler.Login)

		// по токену только после проверки сессии
		protected := v1.Group("")
		protected.Use(middleware.RequireSession(svc))
		if rateLimiter != nil {
			protected.Use(rateLimiter.MiddlewareWithKey(middleware.SessionToken))
		}

		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/campaigns", campaignHandler.ListCampaigns)
		protected.POST("/campaigns", campaignHandler.CreateCampaign)
		protected.POST("/campaigns/delete-active", campaignHandler.DeleteAllActive)
		protected.DELETE("/campaigns/:id", campaignHandler.DeleteCampaign)
		protected.POST("/campaigns/:id/restore", campaignHandler.RestoreCampaign)

		protected.GET("/accounts", accountHandler.ListAccounts)
		protected.POST("/accounts", accountHandler.CreateAccount)
		protected.POST("/accounts/bulk", accountHandler.BulkCreateAccounts)
		protected.DELETE("/accounts/:id", accountHandler.DeleteAccount)

		protected.GET("/users", userHandler.ListUsers)
		protected.POST("/users", userHandler.CreateUser)
		protected.PUT("/users/:id", userHandler.UpdateUser)
		protected.DELETE("/users/:id", userHandler.DeleteUser)

		protected.GET("/dashboard", dashboardHandler.GetDashboard)
		protected.PUT("/dashboard/selection", dashboardHandler.SelectMonth)
		protected.DELETE("/dashboard/selection", dashboardHandler.ClearSelection)

		protected.GET("/stats/monthly", dashboardHandler.MonthlyStats)
		protected.GET("/stats/pie", dashboardHandler.PieStats)
		protected.GET("/stats/month", dashboardHandler.MonthCampaigns)
	}

	return router
}
