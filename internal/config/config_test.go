package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Expected default environment development, got %s", cfg.Environment)
	}
	if cfg.UseCache || cfg.UseKafka {
		t.Error("Optional integrations must default to off")
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "localhost:9092" {
		t.Errorf("Unexpected default brokers: %v", cfg.KafkaBrokers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("USE_KAFKA", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("CACHE_TTL", "60")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if !cfg.UseKafka {
		t.Error("Expected Kafka to be enabled")
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Errorf("Broker list not trimmed and split: %v", cfg.KafkaBrokers)
	}
	if cfg.CacheTTL != 60 {
		t.Errorf("Expected cache TTL 60, got %d", cfg.CacheTTL)
	}
}

func TestGetEnvAsIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	if got := getEnvAsInt("REDIS_DB", 3); got != 3 {
		t.Errorf("Expected fallback 3, got %d", got)
	}
}
