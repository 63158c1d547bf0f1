// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Inference   InferenceConfig
	Generate    GenerateConfig
	Ingest      IngestConfig
	Twitter     TwitterConfig
	Trend       TrendConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// InferenceConfig holds configuration for the sentiment inference backend
type InferenceConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// GenerateConfig holds configuration for the generative post provider
type GenerateConfig struct {
	GoogleAPIKey    string
	Model           string
	Endpoint        string
	Timeout         time.Duration
	MaxPosts        int
	CacheExpiry     time.Duration
	CacheMaxEntries int
}

// IngestConfig holds ingestion pipeline configuration
type IngestConfig struct {
	BatchSize      int
	CollectTimeout time.Duration
	EventsTopic    string
}

// TwitterConfig holds configuration for the live social fetch path
type TwitterConfig struct {
	BearerToken        string
	MinRequestInterval time.Duration
	CacheExpiry        time.Duration
	CacheMaxEntries    int
}

// TrendConfig holds aggregation configuration
type TrendConfig struct {
	// EmptyPlaceholder reports an empty trend result as a single
	// zero-valued bucket for today instead of an empty sequence
	EmptyPlaceholder bool
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "policypulse"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
		Inference: InferenceConfig{
			Endpoint: getEnv("INFERENCE_ENDPOINT", "http://localhost:9090"),
			APIKey:   getEnv("INFERENCE_API_KEY", ""),
			Timeout:  getEnvAsDuration("INFERENCE_TIMEOUT", 15*time.Second),
		},
		Generate: GenerateConfig{
			GoogleAPIKey:    getEnv("GOOGLE_API_KEY", ""),
			Model:           getEnv("GENERATE_MODEL", "gemini-1.5-pro"),
			Endpoint:        getEnv("GENERATE_ENDPOINT", "https://generativelanguage.googleapis.com"),
			Timeout:         getEnvAsDuration("GENERATE_TIMEOUT", 30*time.Second),
			MaxPosts:        getEnvAsInt("GENERATE_MAX_POSTS", 10),
			CacheExpiry:     getEnvAsDuration("GENERATE_CACHE_EXPIRY", 10*time.Minute),
			CacheMaxEntries: getEnvAsInt("GENERATE_CACHE_MAX_ENTRIES", 20),
		},
		Ingest: IngestConfig{
			BatchSize:      getEnvAsInt("INGEST_BATCH_SIZE", 5),
			CollectTimeout: getEnvAsDuration("INGEST_COLLECT_TIMEOUT", 50*time.Second),
			EventsTopic:    getEnv("INGEST_EVENTS_TOPIC", "policy"),
		},
		Twitter: TwitterConfig{
			BearerToken:        getEnv("TWITTER_BEARER_TOKEN", ""),
			MinRequestInterval: getEnvAsDuration("TWITTER_MIN_REQUEST_INTERVAL", 5*time.Second),
			CacheExpiry:        getEnvAsDuration("TWITTER_CACHE_EXPIRY", 10*time.Minute),
			CacheMaxEntries:    getEnvAsInt("TWITTER_CACHE_MAX_ENTRIES", 20),
		},
		Trend: TrendConfig{
			EmptyPlaceholder: getEnvAsBool("TREND_EMPTY_PLACEHOLDER", false),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	// The generative provider is unusable without a credential; surface
	// this at startup instead of deep inside the collection pipeline.
	if config.Generate.GoogleAPIKey == "" {
		return fmt.Errorf("GOOGLE_API_KEY is not configured")
	}

	if config.Ingest.BatchSize <= 0 {
		return fmt.Errorf("ingest batch size must be positive")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
