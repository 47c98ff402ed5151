package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// OpenRouter generation gateway
	OpenRouterBaseURL     string
	OpenRouterTemperature float64
	OpenRouterMaxTokens   int
	OpenRouterConcurrent  int

	// DNA extraction
	DNABatchSize int

	// YouTube Data API (comment fetching)
	YouTubeAPIKey string

	// Storage
	StoragePath string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                  getEnvOrDefault("PORT", "8080"),
		Env:                   getEnvOrDefault("ENV", "development"),
		DatabaseURL:           mustGetEnv("DATABASE_URL"),
		RedisURL:              mustGetEnv("REDIS_URL"),
		JWTSecret:             mustGetEnv("JWT_SECRET"),
		OpenRouterBaseURL:     getEnvOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterTemperature: getEnvAsFloatOrDefault("OPENROUTER_TEMPERATURE", 0.4),
		OpenRouterMaxTokens:   getEnvAsIntOrDefault("OPENROUTER_MAX_TOKENS", 32000),
		OpenRouterConcurrent:  getEnvAsIntOrDefault("OPENROUTER_CONCURRENT_REQUESTS", 5),
		DNABatchSize:          getEnvAsIntOrDefault("DNA_BATCH_SIZE", 3),
		YouTubeAPIKey:         getEnvOrDefault("YOUTUBE_API_KEY", ""),
		StoragePath:           getEnvOrDefault("STORAGE_PATH", "./uploads"),
		FrontendURL:           getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}
