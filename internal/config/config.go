// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// MQTT intake modes.
const (
	MQTTOff      = "off"
	MQTTClient   = "client"
	MQTTEmbedded = "embedded"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr  string
	CORSOrigins []string

	DBDriver    string
	DBPath      string
	DatabaseURL string

	LogLevel  slog.Level
	LogFormat string

	MQTTMode       string
	MQTTBroker     string
	MQTTListenAddr string
	MQTTTopic      string
	MQTTClientID   string

	KafkaBrokers []string
	KafkaTopic   string

	RedisAddr    string
	RedisChannel string
}

// KafkaEnabled reports whether readings should be published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// RedisEnabled reports whether readings should be published over Redis pub/sub.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// Load reads configuration from SENSORAPI_* environment variables and returns
// a validated Config. Every variable is optional except SENSORAPI_DATABASE_URL,
// which is required when SENSORAPI_DB_DRIVER is postgres.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:     envOr("SENSORAPI_LISTEN_ADDR", "127.0.0.1:8080"),
		CORSOrigins:    splitList(envOr("SENSORAPI_CORS_ORIGINS", "*")),
		DBDriver:       strings.ToLower(envOr("SENSORAPI_DB_DRIVER", DriverSQLite)),
		DBPath:         envOr("SENSORAPI_DB_PATH", "sensorhub.db"),
		DatabaseURL:    os.Getenv("SENSORAPI_DATABASE_URL"),
		LogFormat:      strings.ToLower(envOr("SENSORAPI_LOG_FORMAT", "text")),
		MQTTMode:       strings.ToLower(envOr("SENSORAPI_MQTT_MODE", MQTTOff)),
		MQTTBroker:     envOr("SENSORAPI_MQTT_BROKER", "tcp://127.0.0.1:1883"),
		MQTTListenAddr: envOr("SENSORAPI_MQTT_LISTEN_ADDR", "127.0.0.1:1883"),
		MQTTTopic:      envOr("SENSORAPI_MQTT_TOPIC", "sensor/data"),
		MQTTClientID:   envOr("SENSORAPI_MQTT_CLIENT_ID", "sensorhub"),
		KafkaBrokers:   splitList(os.Getenv("SENSORAPI_KAFKA_BROKERS")),
		KafkaTopic:     envOr("SENSORAPI_KAFKA_TOPIC", "sensor.readings"),
		RedisAddr:      os.Getenv("SENSORAPI_REDIS_ADDR"),
		RedisChannel:   envOr("SENSORAPI_REDIS_CHANNEL", "sensor:readings"),
	}

	level := envOr("SENSORAPI_LOG_LEVEL", "info")
	if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("SENSORAPI_LOG_LEVEL has invalid level %q: %w", level, err)
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("SENSORAPI_LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	switch cfg.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("SENSORAPI_DATABASE_URL is required when SENSORAPI_DB_DRIVER is %s", DriverPostgres)
		}
	default:
		return nil, fmt.Errorf("SENSORAPI_DB_DRIVER must be %s or %s, got %q", DriverSQLite, DriverPostgres, cfg.DBDriver)
	}

	switch cfg.MQTTMode {
	case MQTTOff, MQTTClient, MQTTEmbedded:
	default:
		return nil, fmt.Errorf("SENSORAPI_MQTT_MODE must be %s, %s or %s, got %q", MQTTOff, MQTTClient, MQTTEmbedded, cfg.MQTTMode)
	}

	return cfg, nil
}

// envOr returns the value of key, or def when the variable is unset.
func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
