package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"healthcare-messaging-server/internal/config"
	"healthcare-messaging-server/internal/handlers"
	"healthcare-messaging-server/internal/logger"
	"healthcare-messaging-server/internal/messaging"
	"healthcare-messaging-server/internal/models"
	"healthcare-messaging-server/internal/routes"
	"healthcare-messaging-server/internal/store"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	appLog := logger.New(os.Stdout, cfg.LogLevel, cfg.IsDevelopment())
	slog.SetDefault(appLog)

	messageService, err := newMessageService(cfg, appLog)
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	// Initialize Gin router
	router := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, handlers.NewMessageHandler(messageService, appLog), cfg)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	appLog.Info("server starting", "port", cfg.Port, "store", cfg.StoreDriver, "env", cfg.Environment)
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// newMessageService wires the messaging engine to the configured store.
func newMessageService(cfg *config.Config, appLog *slog.Logger) (*messaging.Service, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		appLog.Warn("using in-memory message store; messages are lost on restart")
		return messaging.NewService(messaging.NewMemoryStore(), nil, appLog), nil
	}

	db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
	if err != nil {
		return nil, err
	}
	return messaging.NewService(store.NewMessageStore(db), store.NewUserDirectory(db), appLog), nil
}
