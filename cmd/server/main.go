package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tunehive.app/backend/internal/config"
	"tunehive.app/backend/internal/server"
	"tunehive.app/backend/pkg/cache"
	"tunehive.app/backend/pkg/database"
	"tunehive.app/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.LogLevel, cfg.AppEnv)

	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	mongoClient, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := database.Close(mongoClient); err != nil {
			log.Error().Err(err).Msg("failed to close mongodb connection")
		}
	}()
	log.Info().Str("database", cfg.MongoDatabase).Msg("connected to mongodb")

	redisClient, err := cache.Connect(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, rate limiting disabled")
		redisClient = nil
	}
	if redisClient != nil {
		log.Info().Msg("connected to redis")
	}

	srv, err := server.New(cfg, log, mongoClient.Database(cfg.MongoDatabase), redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build server")
	}

	log.Info().Str("port", cfg.Port).Msg("starting server")
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}
