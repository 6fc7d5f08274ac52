package api

import (
	"net/http"

	"mindbody-backend/internal/auth/delivery"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", h.authHandler.Login)
			auth.POST("/register", h.authHandler.Register)
			auth.GET("/me", delivery.AuthMiddleware(h.authUsecase), h.authHandler.Me)
		}

		// The provider redirects here without our bearer token; the signed state names the user.
		api.GET("/connections/:provider/callback", h.fitnessHandler.Callback)

		// Connection routes (protected)
		connections := api.Group("/connections")
		connections.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			connections.GET("", h.fitnessHandler.ListConnections)
			connections.GET("/:provider", h.fitnessHandler.GetConnection)
			connections.POST("/:provider/connect", h.fitnessHandler.Connect)
			connections.POST("/:provider/credentials", h.fitnessHandler.SubmitCredentials)
			connections.DELETE("/:provider", h.fitnessHandler.Disconnect)
		}

		// Sync routes (protected)
		sync := api.Group("/sync")
		sync.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			sync.GET("/history", h.fitnessHandler.History)
			sync.POST("/:provider", h.fitnessHandler.SyncNow)
		}

		imports := api.Group("/imports")
		imports.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			imports.POST("/:provider", h.fitnessHandler.ImportFile)
		}

		// Dataset routes (protected)
		datasets := api.Group("/datasets")
		datasets.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			datasets.GET("/:dataset", h.journalHandler.GetDataset)
			datasets.DELETE("/:dataset/rows/:index", h.journalHandler.DeleteRow)
		}

		// Journal routes (protected)
		journal := api.Group("/journal")
		journal.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			journal.POST("/workouts", h.journalHandler.LogWorkout)
			journal.POST("/mood", h.journalHandler.LogMood)
		}

		profile := api.Group("/profile")
		profile.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			profile.GET("", h.journalHandler.GetProfile)
			profile.PUT("", h.journalHandler.SaveProfile)
			profile.GET("/history", h.journalHandler.ProfileHistory)
		}

		// Coach routes (protected)
		coach := api.Group("/coach")
		coach.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			coach.POST("/messages", h.coachHandler.SendMessage)
			coach.GET("/messages", h.coachHandler.History)
			coach.DELETE("/messages", h.coachHandler.ResetHistory)
			coach.GET("/weekly", h.coachHandler.Weekly)
		}

		// Settings routes (public) - Runtime configuration
		settings := api.Group("/settings")
		{
			settings.GET("/ollama", h.settings.GetOllamaSettings)
			settings.PUT("/ollama", h.settings.UpdateOllamaSettings)
			settings.POST("/ollama/test", h.settings.TestOllamaConnection)
		}
	}
}
