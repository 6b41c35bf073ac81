package main

import (
	"os"
	"time"

	"pharmacy-manager/configs"
	"pharmacy-manager/internal/cache"
	"pharmacy-manager/internal/database"
	"pharmacy-manager/internal/handlers"
	"pharmacy-manager/internal/middleware"
	"pharmacy-manager/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// @title Pharmacy Manager - Medicines Service
// @version 1.0
// @description Medicine records, sales histories and consumption analytics

// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using default configuration")
	}

	if err := configs.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	store, err := database.NewStore(configs.AppConfig.DatabaseURL, "medicines", handlers.MedicineSchema)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize medicines store")
	}

	cacheManager := cache.New(configs.AppConfig.RedisURL)
	authService := services.NewAuthService(configs.AppConfig.JWTSecret, configs.AppConfig.JWTTTL)

	var hub *handlers.WebSocketHandler
	if configs.AppConfig.EnableWebSocket {
		hub = handlers.NewWebSocketHandler()
		go hub.RunHub()
	}

	medicineHandler := handlers.NewMedicineHandler(store, cacheManager, hub, configs.AppConfig.CacheTTL)

	if os.Getenv("GIN_MODE") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(log.Logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.ValidationMiddleware())

	medicineHandler.RegisterRoutes(router, authService)

	if hub != nil {
		router.GET(handlers.BasePath+"/ws", hub.HandleConnections)
	}

	router.GET("/health", func(c *gin.Context) {
		redisStatus := "local_cache_only"
		if cacheManager.IsAvailable() {
			redisStatus = "connected"
		}
		c.JSON(200, gin.H{
			"status":    "healthy",
			"service":   "medicines",
			"timestamp": time.Now().Unix(),
			"services": map[string]string{
				"redis": redisStatus,
			},
		})
	})

	port := ":" + configs.AppConfig.MedicinesPort
	log.Info().Str("port", port).Msg("medicines service starting")

	if err := router.Run(port); err != nil {
		log.Fatal().Err(err).Msg("failed to start medicines service")
	}
}
