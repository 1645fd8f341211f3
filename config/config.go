package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Backend names accepted by STORE_BACKEND.
const (
	BackendAuto     = "auto"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendFile     = "file"
)

type Config struct {
	AppMode      string
	BridgeAddr   string
	StoreBackend string
	StateKey     string
	StateFile    string
	RedisAddr    string
	RedisPass    string
	RedisDB      int
	DatabaseURL  string
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppMode:      getEnv("APP_MODE", "development"),
		BridgeAddr:   getEnv("BRIDGE_ADDR", "127.0.0.1:4620"),
		StoreBackend: getEnv("STORE_BACKEND", BackendAuto),
		StateKey:     getEnv("STATE_KEY", "foxden:appState"),
		StateFile:    getEnv("STATE_FILE", ""),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:      getEnvAsInt("REDIS_DB", 0),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
