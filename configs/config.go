package configs

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ClientsPort     string
	MedicinesPort   string
	UsersPort       string
	DatabaseURL     string
	RedisURL        string
	JWTSecret       string
	JWTTTL          time.Duration
	CacheTTL        time.Duration
	AdminUsername   string
	AdminPassword   string
	EnableWebSocket bool
}

var AppConfig *Config

func LoadConfig() error {

	godotenv.Load()

	AppConfig = &Config{
		ClientsPort:     getEnv("CLIENTS_PORT", "8082"),
		MedicinesPort:   getEnv("MEDICINES_PORT", "8081"),
		UsersPort:       getEnv("USERS_PORT", "8080"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisURL:        getEnv("REDIS_URL", "localhost:6379"),
		JWTSecret:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTTTL:          parseDuration(getEnv("JWT_TTL", "15m")),
		CacheTTL:        parseDuration(getEnv("CACHE_TTL", "5m")),
		AdminUsername:   getEnv("ADMIN_USERNAME", ""),
		AdminPassword:   getEnv("ADMIN_PASSWORD", ""),
		EnableWebSocket: parseBool(getEnv("ENABLE_WEBSOCKET", "true")),
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}
