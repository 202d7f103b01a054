// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the wastebot service.
type Config struct {
	// Server configuration
	Port     string
	LogLevel string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis configuration (optional pending-store backend)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// MinIO object storage
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// RabbitMQ event publishing
	AMQPURL      string
	AMQPExchange string

	// Tencent Cloud TIIA
	TencentSecretID  string
	TencentSecretKey string
	TencentRegion    string

	// Huawei Cloud Image Tagging
	HuaweiAccessKey string
	HuaweiSecretKey string
	HuaweiRegion    string
	HuaweiProjectID string

	// OpenAI vision
	OpenAIAPIKey string
	OpenAIModel  string

	// Gemini vision
	GeminiAPIKey string
	GeminiModel  string

	// Chain configuration
	ChainDefault    string
	MinImageBytes   int
	MaxImageBytes   int
	AnalyzerTimeout time.Duration
	ChainDeadline   time.Duration

	// Pending submission lifetime
	PendingTTL    time.Duration
	SweepInterval time.Duration

	// Rewards
	BaseReward  int
	BonusReward int

	// Duplicate event suppression window size
	RecentEvents int
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server defaults
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "wastebot"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "wastebot"),

		// Redis defaults; empty addr keeps the SQL pending store
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		// MinIO defaults
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "wastebot-images"),
		MinioUseSSL:    getBoolEnv("MINIO_USE_SSL", false),

		// RabbitMQ defaults; empty URL disables event publishing
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "wastebot-events"),

		// Analyzer credentials; an analyzer without credentials is
		// left out of the chain
		TencentSecretID:  getEnv("TENCENT_SECRET_ID", ""),
		TencentSecretKey: getEnv("TENCENT_SECRET_KEY", ""),
		TencentRegion:    getEnv("TENCENT_REGION", "ap-guangzhou"),

		HuaweiAccessKey: getEnv("HUAWEI_ACCESS_KEY", ""),
		HuaweiSecretKey: getEnv("HUAWEI_SECRET_KEY", ""),
		HuaweiRegion:    getEnv("HUAWEI_REGION", "ap-southeast-1"),
		HuaweiProjectID: getEnv("HUAWEI_PROJECT_ID", ""),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),

		// Chain defaults
		ChainDefault:    getEnv("CHAIN_DEFAULT", "reject"),
		MinImageBytes:   getIntEnv("MIN_IMAGE_BYTES", 8*1024),
		MaxImageBytes:   getIntEnv("MAX_IMAGE_BYTES", 10*1024*1024),
		AnalyzerTimeout: getDurationEnv("ANALYZER_TIMEOUT", 8*time.Second),
		ChainDeadline:   getDurationEnv("CHAIN_DEADLINE", 30*time.Second),

		// Pending lifetime defaults
		PendingTTL:    getDurationEnv("PENDING_TTL", 24*time.Hour),
		SweepInterval: getDurationEnv("SWEEP_INTERVAL", 15*time.Minute),

		// Reward defaults
		BaseReward:  getIntEnv("BASE_REWARD", 10),
		BonusReward: getIntEnv("BONUS_REWARD", 25),

		RecentEvents: getIntEnv("RECENT_EVENTS", 512),
	}
}

// DSN builds the MySQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value.
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnv gets a boolean environment variable or returns a default value.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
