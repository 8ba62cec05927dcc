package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"sensor-dashboard-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, rateLimitPerSec float64, cacheTTL time.Duration) *gin.Engine {
	r := gin.Default()

	if rateLimitPerSec <= 0 {
		rateLimitPerSec = 10
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Second
	}

	rateLimiter := mw.RateLimiter(rate.Limit(rateLimitPerSec), 5)
	cacheStore := cache.New(cacheTTL, 10*time.Minute)
	caching := mw.Cache(cacheStore, cacheTTL)
	requireAuth := mw.RequireAuth(h.tokens)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/auth/login", h.Login)

		// Read-only dashboard endpoints
		api.GET("/sensors", h.ListSensors)
		api.GET("/sensors/:id", h.GetSensor)
		api.GET("/test-objects", h.ListTestObjects)
		api.GET("/test-objects/:id", h.GetTestObject)
		api.GET("/labels", h.ListLabels)
		api.GET("/measurements", h.ListMeasurements)
		api.GET("/measurements/:id", h.GetMeasurement)
		api.GET("/hardware-config", h.GetHardwareConfig)
		api.GET("/readings/latest", caching, h.LatestReadings)

		// Push subscriptions are keyed by browser endpoint, not by admin
		// session, so they stay outside the auth group.
		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)

		// Mutating endpoints require a session token.
		authed := api.Group("")
		authed.Use(requireAuth)
		{
			authed.POST("/sensors", h.CreateSensor)
			authed.PUT("/sensors/:id", h.UpdateSensor)
			authed.DELETE("/sensors/:id", h.DeleteSensor)

			authed.POST("/test-objects", h.CreateTestObject)
			authed.PUT("/test-objects/:id", h.UpdateTestObject)
			authed.DELETE("/test-objects/:id", h.DeleteTestObject)

			authed.POST("/labels", h.CreateLabel)
			authed.DELETE("/labels/:id", h.DeleteLabel)

			authed.POST("/measurements", h.StartMeasurement)
			authed.POST("/measurements/:id/stop", h.StopMeasurement)
			authed.DELETE("/measurements/:id", h.DeleteMeasurement)

			authed.PUT("/hardware-config", h.UpdateHardwareConfig)
		}
	}

	return r
}
