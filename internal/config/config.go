package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port              string
	AppEnv            string
	MongoURI          string
	MongoDB           string
	MongoTransactions bool
	StoreDriver       string
	JWTSecret         string
	JWTExpireHours    int
	FrontendURL       string
	AuthRateLimit     int
	AuthRateWindow    time.Duration
	JoinRateLimit     int
	LogLevel          string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found")
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		AppEnv:            getEnv("APP_ENV", "development"),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:           getEnv("MONGO_DB", "todoshare"),
		MongoTransactions: getEnvBool("MONGO_TRANSACTIONS", true),
		StoreDriver:       getEnv("STORE_DRIVER", StoreMongo),
		JWTSecret:         getEnv("JWT_SECRET", "secret"),
		JWTExpireHours:    getEnvInt("JWT_EXPIRE_HOURS", 24),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:3000"),
		AuthRateLimit:     getEnvInt("AUTH_RATE_LIMIT", 20),
		AuthRateWindow:    getEnvDuration("AUTH_RATE_WINDOW", time.Minute),
		JoinRateLimit:     getEnvInt("JOIN_RATE_LIMIT", 10),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
