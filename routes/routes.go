package routes

import (
	"net/http"
	"time"

	"orgalerts/handlers"
	"orgalerts/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterOrganizationRoutes registers alert, scheduled alert and preference endpoints.
func RegisterOrganizationRoutes(r *gin.Engine, hb *handlers.HandlerBundle, perMinute int) {
	org := r.Group("/api/organizations/:orgId")
	{
		org.Use(middleware.JWTAuthMiddleware(), middleware.RateLimitMiddleware(perMinute))

		org.POST("/alerts", hb.Alerts.CreateAlertHandler)
		org.GET("/alerts/:alertId", hb.Alerts.GetAlertHandler)
		org.POST("/alerts/:alertId/dispatch", middleware.RequireAdmin(), hb.Alerts.RedispatchHandler)

		org.POST("/scheduled-alerts", hb.Scheduled.CreateScheduledAlertHandler)
		org.DELETE("/scheduled-alerts/:id", hb.Scheduled.DeactivateScheduledAlertHandler)

		org.POST("/follow", hb.Preferences.FollowHandler)
		org.DELETE("/follow", hb.Preferences.UnfollowHandler)
		org.GET("/preferences", hb.Preferences.GetPreferencesHandler)
		org.PUT("/preferences/alerts", hb.Preferences.SetAlertsEnabledHandler)
		org.PUT("/preferences/groups/:groupId", hb.Preferences.SetGroupPreferenceHandler)
		org.POST("/preferences/groups/:groupId/toggle", hb.Preferences.ToggleGroupPreferenceHandler)
	}
}

// RegisterCallableRoutes registers the authenticated callables.
func RegisterCallableRoutes(r *gin.Engine, hb *handlers.HandlerBundle, perMinute int) {
	callable := r.Group("/api/callable")
	{
		callable.Use(middleware.JWTAuthMiddleware(), middleware.RateLimitMiddleware(perMinute))
		callable.POST("/testNotification", hb.Callables.TestNotificationHandler)
		callable.POST("/registerDeliveryToken", hb.Callables.RegisterDeliveryTokenHandler)
	}
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.JWTAuthMiddleware(), middleware.RequireAdmin())
		adminGroup.POST("/cleanupInvalidTokens", hb.Callables.CleanupInvalidTokensHandler)
		adminGroup.GET("/diagnoseConfiguration", hb.Callables.DiagnoseConfigurationHandler)
		adminGroup.POST("/migrateFollowers", hb.Callables.MigrateFollowersHandler)
		adminGroup.POST("/cleanupLegacyFollowers", hb.Callables.CleanupLegacyFollowersHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", func(c *gin.Context) {
		if hb.Health == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		st := hb.Health.Status()
		healthy := st.Mongo
		for _, ok := range st.Redis {
			healthy = healthy && ok
		}
		code, status := http.StatusOK, "ok"
		if !healthy {
			code, status = http.StatusServiceUnavailable, "degraded"
		}
		c.JSON(code, gin.H{"status": status, "backends": st})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, perMinute int) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterOrganizationRoutes(r, hb, perMinute)
	RegisterCallableRoutes(r, hb, perMinute)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
