package api

import (
	"net/http"
	"time"

	"github.com/conduit-article-api/internal/config"
	"github.com/conduit-article-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	articleHandler := NewArticleHandler(services, log)
	profileHandler := NewProfileHandler(services, log)

	// Health check
	router.GET("/health", healthCheck)

	// API
	api := router.Group("/api")
	{
		optional := identityMiddleware(cfg.Auth.JWTSecret, false)
		required := identityMiddleware(cfg.Auth.JWTSecret, true)

		articles := api.Group("/articles")
		{
			articles.GET("", optional, articleHandler.List)
			articles.GET("/feed", required, articleHandler.Feed)
			articles.GET("/:slug", optional, articleHandler.Get)
			articles.POST("", required, articleHandler.Create)
			articles.PUT("/:slug", required, articleHandler.Update)
			articles.DELETE("/:slug", required, articleHandler.Delete)
			articles.POST("/:slug/favorite", required, articleHandler.Favorite)
			articles.DELETE("/:slug/favorite", required, articleHandler.Unfavorite)
		}

		profiles := api.Group("/profiles")
		{
			profiles.GET("/:username", optional, profileHandler.Get)
			profiles.POST("/:username/follow", required, profileHandler.Follow)
			profiles.DELETE("/:username/follow", required, profileHandler.Unfollow)
		}

		api.GET("/tags", tagsHandler(services))
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "conduit-article-api",
	})
}

// tagsHandler returns every tag name in the store
func tagsHandler(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		names, err := services.Tag.Names(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		if names == nil {
			names = []string{}
		}
		c.JSON(http.StatusOK, gin.H{"tags": names})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"errors": gin.H{"server": []string{"internal error"}},
				})
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
