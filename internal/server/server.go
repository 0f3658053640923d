package server

import (
	"context"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"tunehive.app/backend/internal/config"
	"tunehive.app/backend/internal/gateway"
	"tunehive.app/backend/internal/handler"
	"tunehive.app/backend/internal/middleware"
	"tunehive.app/backend/internal/repository"
	"tunehive.app/backend/internal/service"
)

type Server struct {
	engine  *gin.Engine
	cron    *cron.Cron
	gateway *gateway.Gateway
}

func New(cfg *config.Config, logger zerolog.Logger, db *mongo.Database, redisClient *redis.Client) (*Server, error) {
	notificationRepo := repository.NewNotificationRepository(db)

	indexCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := notificationRepo.EnsureIndexes(indexCtx); err != nil {
		return nil, err
	}

	notificationService := service.NewNotificationService(notificationRepo, logger)

	registry := gateway.NewRegistry()
	gw := gateway.New(registry, notificationService, logger)

	chatRepo := repository.NewChatRepository(db)
	chatService := service.NewChatService(chatRepo, redisClient, gw, cfg.MessageRateLimit, logger)

	notificationHandler := handler.NewNotificationHandler(notificationService, gw)
	chatHandler := handler.NewChatHandler(chatService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	setupCORS(router, cfg.AllowedOrigins)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.GET("/notifications/online-count", notificationHandler.OnlineCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.DELETE("/notifications/:id", notificationHandler.DeleteNotification)
		protected.GET("/notifications/ws", gw.HandleWebSocket)

		protected.POST("/chats", chatHandler.CreateChat)
		protected.POST("/chats/:chat_id/messages", chatHandler.SendMessage)
		protected.POST("/group-chats", chatHandler.CreateGroupChat)
		protected.POST("/group-chats/:group_id/messages", chatHandler.SendGroupMessage)
	}

	// Scheduled cleanup runs alongside the store's TTL index.
	scheduler := cron.New()
	_, err := scheduler.AddFunc(cfg.CleanupSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := notificationService.CleanupOldNotifications(ctx, cfg.NotificationRetentionDays); err != nil {
			logger.Error().Err(err).Msg("notification cleanup failed")
		}
	})
	if err != nil {
		return nil, err
	}
	scheduler.Start()

	return &Server{
		engine:  router,
		cron:    scheduler,
		gateway: gw,
	}, nil
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	origins := []string{"http://localhost:3000"}
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
