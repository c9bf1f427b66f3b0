package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// SetupRouter sets up the Gin router
func SetupRouter(handlers *AuthHandlers, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	sessions := SessionMiddleware(handlers.client)

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.GET("/csrf", handlers.CSRF)
		auth.POST("/login", handlers.Login)
		auth.POST("/signout", handlers.SignOut)
		auth.GET("/session", sessions, handlers.Session)
	}

	// Protected API routes
	api := router.Group("/api")
	api.Use(sessions)
	{
		api.GET("/me", handlers.Me)
	}

	return router
}
