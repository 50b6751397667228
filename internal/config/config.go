package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	ServiceName string

	// PostgreSQL
	DatabaseUser     string
	DatabasePassword string
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string

	// JWT (tokens are issued by the auth service; we only validate)
	JWTSecret string

	// Redis catalog cache (optional)
	UseCache      bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	CacheTTL      int // seconds

	// Kafka order events (optional)
	UseKafka         bool
	KafkaBrokers     []string
	KafkaTopicOrders string

	// Webhook fired on order status changes (optional)
	StatusWebhookURL string

	// OpenTelemetry
	OTLPEndpoint string
}

func Load() *Config {
	// .env file is optional, continue with environment variables
	_ = godotenv.Load()

	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	for i, broker := range kafkaBrokers {
		kafkaBrokers[i] = strings.TrimSpace(broker)
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		ServiceName: getEnv("SERVICE_NAME", "florista-backend"),

		DatabaseUser:     getEnv("DATABASE_USER", "root"),
		DatabasePassword: getEnv("DATABASE_PASSWORD", "pass"),
		DatabaseHost:     getEnv("DATABASE_HOST", "localhost"),
		DatabasePort:     getEnv("DATABASE_PORT", "5432"),
		DatabaseName:     getEnv("DATABASE_NAME", "florista_db"),

		JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-in-production-min-32-chars"),

		UseCache:      getEnvAsBool("USE_CACHE", false),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		CacheTTL:      getEnvAsInt("CACHE_TTL", 300),

		UseKafka:         getEnvAsBool("USE_KAFKA", false),
		KafkaBrokers:     kafkaBrokers,
		KafkaTopicOrders: getEnv("KAFKA_TOPIC_ORDERS", "orders.events"),

		StatusWebhookURL: getEnv("STATUS_WEBHOOK_URL", ""),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return result
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return strings.ToLower(value) == "true" || value == "1"
}
