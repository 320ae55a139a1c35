package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/layer-3/ualauth/service"
)

// SetupRouter sets up the Gin router over a single authenticator
func SetupRouter(auth *service.Authenticator, log zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))

	handlers := NewAuthHandlers(auth)

	router.GET("/status", handlers.Status)

	lifecycle := router.Group("/")
	{
		lifecycle.POST("/init", handlers.Init)
		lifecycle.POST("/reset", handlers.Reset)
		lifecycle.POST("/login", handlers.Login)
		lifecycle.POST("/logout", handlers.Logout)
	}

	tx := router.Group("/")
	tx.Use(RequireSession(auth))
	{
		tx.POST("/sign", handlers.Sign)
		tx.POST("/transfer", handlers.Transfer)
	}

	return router
}
