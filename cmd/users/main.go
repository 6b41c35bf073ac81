package main

import (
	"context"
	"os"
	"time"

	"pharmacy-manager/configs"
	"pharmacy-manager/internal/database"
	"pharmacy-manager/internal/handlers"
	"pharmacy-manager/internal/middleware"
	"pharmacy-manager/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// @title Pharmacy Manager - Users Service
// @version 1.0
// @description User accounts, login and role management for the pharmacy backend

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

	store, err := database.NewStore(configs.AppConfig.DatabaseURL, "users", handlers.UserSchema)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize users store")
	}

	authService := services.NewAuthService(configs.AppConfig.JWTSecret, configs.AppConfig.JWTTTL)

	if err := handlers.SeedAdmin(context.Background(), store, authService,
		configs.AppConfig.AdminUsername, configs.AppConfig.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin account")
	}

	userHandler := handlers.NewUserHandler(store, authService)

	if os.Getenv("GIN_MODE") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(log.Logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.ValidationMiddleware())

	userHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"service":   "users",
			"timestamp": time.Now().Unix(),
		})
	})

	port := ":" + configs.AppConfig.UsersPort
	log.Info().Str("port", port).Msg("users service starting")

	if err := router.Run(port); err != nil {
		log.Fatal().Err(err).Msg("failed to start users service")
	}
}
