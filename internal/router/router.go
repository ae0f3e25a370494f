package router

import (
	"github.com/cloudwego/hertz/pkg/route"

	"MediPay/config"
	"MediPay/internal/handler"
	"MediPay/internal/middleware"
)

// Register 注册全部路由。AccessGate 作为全局中间件，未匹配的路径同样需要登录。
func Register(h *route.Engine) {
	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.RequestID())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())
	if config.Cfg.CSRFEnabled {
		h.Use(middleware.CSRFMiddleware()...)
	}
	h.Use(middleware.AccessGate())

	// 公开路由
	h.GET("/", handler.Landing)
	h.GET("/healthz", handler.Healthz)

	webhooks := h.Group("/api/webhooks", middleware.WebhookRateLimitMiddleware())
	{
		webhooks.POST("/identity", handler.IdentityWebhook)
	}

	v1 := h.Group("/api/v1")

	me := v1.Group("/me")
	{
		me.GET("", handler.GetMe)
		me.POST("/session/refresh", handler.RefreshSession)
	}

	onboarding := v1.Group("/onboarding")
	{
		onboarding.GET("", handler.GetOnboardingStatus)
		onboarding.GET("/partial", handler.GetPartialOnboarding)
		onboarding.PUT("/partial", handler.SavePartialOnboarding)
		onboarding.POST("/complete", handler.CompleteOnboarding)
	}

	// 以下路由要求完成引导
	dashboard := v1.Group("/dashboard", middleware.RequireOnboarded())
	{
		dashboard.GET("/stats", handler.GetDashboardStats)
		dashboard.GET("/transactions", handler.ListRecentTransactions)
	}

	clinics := v1.Group("/clinics", middleware.RequireOnboarded())
	{
		clinics.GET("", handler.ListClinics)
		clinics.POST("", handler.CreateClinic)
		clinics.GET("/:id", handler.GetClinic)
		clinics.PUT("/:id", handler.UpdateClinic)
		clinics.DELETE("/:id", handler.DeleteClinic)
	}

	plans := v1.Group("/payment-plans", middleware.RequireOnboarded())
	{
		plans.GET("", handler.ListPaymentPlans)
		plans.POST("", handler.CreatePaymentPlan)
		plans.GET("/:id", handler.GetPaymentPlan)
	}

	claims := v1.Group("/claims", middleware.RequireOnboarded())
	{
		claims.GET("", handler.ListClaims)
		claims.GET("/:id", handler.GetClaim)
		claims.PATCH("/:id/status", handler.UpdateClaimStatus)
	}

	settings := v1.Group("/settings", middleware.RequireOnboarded())
	{
		settings.GET("", handler.GetSettings)
		settings.PUT("", handler.UpdateSettings)
		settings.GET("/roles", handler.ListRoles)
	}
}
