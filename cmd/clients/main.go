package main

import (
	"os"
	"time"

	"pharmacy-manager/configs"
	"pharmacy-manager/internal/database"
	"pharmacy-manager/internal/handlers"
	"pharmacy-manager/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// @title Pharmacy Manager - Clients Service
// @version 1.0
// @description Client records for the pharmacy backend

// @BasePath /api

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using default configuration")
	}

	if err := configs.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	store, err := database.NewStore(configs.AppConfig.DatabaseURL, "clients", handlers.ClientSchema)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize clients store")
	}

	clientHandler := handlers.NewClientHandler(store)

	if os.Getenv("GIN_MODE") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(log.Logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.ValidationMiddleware())

	clientHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"service":   "clients",
			"timestamp": time.Now().Unix(),
		})
	})

	port := ":" + configs.AppConfig.ClientsPort
	log.Info().Str("port", port).Msg("clients service starting")

	if err := router.Run(port); err != nil {
		log.Fatal().Err(err).Msg("failed to start clients service")
	}
}
