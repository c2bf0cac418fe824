package routes

import (
	"healthcare-messaging-server/internal/config"
	"healthcare-messaging-server/internal/handlers"
	"healthcare-messaging-server/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, messageHandler *handlers.MessageHandler, cfg *config.Config) {
	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg)) // Apply JWT authentication middleware
	{
		// Messaging routes
		messageRoutes := private.Group("/messages")
		{
			messageRoutes.POST("/send", messageHandler.SendMessage)

			// Inbox, and a single conversation (opening it marks received messages read)
			messageRoutes.GET("/conversations", messageHandler.GetConversations)
			messageRoutes.GET("/conversations/:userId", messageHandler.GetConversation)

			// Polling endpoints
			messageRoutes.GET("/new", messageHandler.GetNewMessages)
			messageRoutes.GET("/unread-count", messageHandler.GetUnreadCount)

			// Mark a specific message as read
			messageRoutes.PATCH("/:messageId/read", messageHandler.MarkMessageAsRead)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
