package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/gymdesk/internal/handlers"
	"github.com/huangang/gymdesk/internal/middleware"
	"github.com/huangang/gymdesk/pkg/logger"
)

const broadcastInFlightTTL = 2 * time.Minute

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(svc.cfg.Server.CORSOrigins))

	// Rate limiter for sign-in and registration
	authLimiter := middleware.NewRateLimiter(svc.cfg.Auth.RateLimitRPS, svc.cfg.Auth.RateLimitBurst)

	r.GET("/health", svc.healthHandler.CheckHealth)
	r.GET("/metrics", handlers.Metrics())

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.GET("/config", svc.authHandler.GetAuthConfig)
			limited := auth.Group("", authLimiter.Middleware())
			limited.POST("/register", svc.authHandler.Register)
			limited.POST("/login", svc.authHandler.Login)
			limited.POST("/refresh", svc.authHandler.Refresh)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Change stream, filtered per session
			protected.GET("/events", svc.sseHandler.StreamEvents)

			// Member dashboard
			me := protected.Group("/me")
			me.GET("/profile", svc.memberViewHandler.Profile)
			me.GET("/bills", svc.memberViewHandler.Bills)
			me.GET("/bills/:id/receipt", svc.memberViewHandler.Receipt)
			me.GET("/notifications", svc.memberViewHandler.Notifications)
			me.GET("/supplements", svc.memberViewHandler.Supplements)
			me.GET("/diets", svc.memberViewHandler.Diets)
			me.GET("/search", svc.memberViewHandler.Search)
		}

		// Admin routes
		admin := protected.Group("")
		admin.Use(middleware.AdminRequired())
		{
			// Members
			admin.GET("/members", svc.memberHandler.List)
			admin.GET("/members/:id", svc.memberHandler.GetByID)
			admin.POST("/members", svc.memberHandler.Create)
			admin.PUT("/members/:id", svc.memberHandler.Update)
			admin.DELETE("/members/:id", svc.memberHandler.Delete)

			// Bills
			admin.GET("/bills", svc.billHandler.List)
			admin.POST("/bills", svc.billHandler.Create)
			admin.POST("/bills/:id/paid", svc.billHandler.MarkPaid)
			admin.GET("/bills/:id/receipt", svc.billHandler.Receipt)
			admin.DELETE("/bills/:id", svc.billHandler.Delete)

			// Notifications; a second broadcast from the same admin is refused while one runs
			singleFlight := middleware.SingleFlight(svc.inFlight, broadcastInFlightTTL, middleware.RouteKey)
			admin.GET("/notifications", svc.notificationHandler.List)
			admin.POST("/notifications", singleFlight, svc.notificationHandler.Send)
			admin.POST("/notifications/monthly", singleFlight, svc.notificationHandler.SendMonthly)
			admin.DELETE("/notifications/:id", svc.notificationHandler.Delete)

			// Supplements
			admin.GET("/supplements", svc.supplementHandler.List)
			admin.POST("/supplements", svc.supplementHandler.Create)
			admin.DELETE("/supplements/:id", svc.supplementHandler.Delete)

			// Diet plans
			admin.GET("/diets", svc.dietHandler.List)
			admin.POST("/diets", svc.dietHandler.Assign)
			admin.DELETE("/diets/:id", svc.dietHandler.Delete)

			// CSV export
			admin.GET("/export/members", svc.exportHandler.Members)
			admin.GET("/export/bills", svc.exportHandler.Bills)

			// Audit log
			admin.GET("/logs", svc.auditLogHandler.List)

			// System Config
			admin.GET("/system-config/reminder", svc.systemConfigHandler.GetReminderConfig)
			admin.PUT("/system-config/reminder", svc.systemConfigHandler.UpdateReminderConfig)
			admin.GET("/system-config/holiday-countries", svc.systemConfigHandler.GetCountries)
		}
	}
}
