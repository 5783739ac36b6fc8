package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/storage"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage storage.Config

	// Auth configuration
	Auth AuthConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds the health/metrics HTTP server configuration.
type ServerConfig struct {
	Host            string
	HealthPort      string
	ShutdownTimeout time.Duration
}

// AuthConfig holds token signing and privileged-group settings.
type AuthConfig struct {
	JWTSecret    string
	JWTIssuer    string
	JWTTTL       time.Duration
	SystemsGroup string

	// TagSweepSchedule is a cron expression for the periodic expired-tag
	// sweep; empty disables it.
	TagSweepSchedule string
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
	AuditLogPath   string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Auth:          loadAuthConfig(),
		Observability: loadObservabilityConfig(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("WARDEN_HOST", "0.0.0.0"),
		HealthPort:      getEnv("WARDEN_HEALTH_PORT", "9090"),
		ShutdownTimeout: getEnvDuration("WARDEN_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if storageType := getEnv("WARDEN_STORAGE_TYPE", ""); storageType != "" {
		cfg.Type = storageType
	}
	cfg.KeyPrefix = getEnv("WARDEN_KEY_PREFIX", cfg.KeyPrefix)

	// S3 config
	cfg.S3Endpoint = getEnv("WARDEN_S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3Region = getEnv("WARDEN_S3_REGION", cfg.S3Region)
	cfg.S3Bucket = getEnv("WARDEN_S3_BUCKET", cfg.S3Bucket)
	cfg.S3AccessKey = getEnv("WARDEN_S3_ACCESS_KEY", cfg.S3AccessKey)
	cfg.S3SecretKey = getEnv("WARDEN_S3_SECRET_KEY", cfg.S3SecretKey)
	cfg.S3UsePathStyle = getEnvBool("WARDEN_S3_USE_PATH_STYLE", cfg.S3UsePathStyle)

	// ZooKeeper config
	if servers := getEnv("WARDEN_ZK_SERVERS", ""); servers != "" {
		cfg.ZKServers = splitAndTrim(servers)
	}
	cfg.ZKSessionTimeout = getEnvDuration("WARDEN_ZK_SESSION_TIMEOUT", cfg.ZKSessionTimeout)
	cfg.ZKRoot = getEnv("WARDEN_ZK_ROOT", cfg.ZKRoot)

	// External identity provider config
	cfg.ExternalIssuerURL = getEnv("WARDEN_EXTERNAL_ISSUER_URL", cfg.ExternalIssuerURL)
	cfg.ExternalTokenURL = getEnv("WARDEN_EXTERNAL_TOKEN_URL", cfg.ExternalTokenURL)
	cfg.ExternalClientID = getEnv("WARDEN_EXTERNAL_CLIENT_ID", cfg.ExternalClientID)
	cfg.ExternalClientSecret = getEnv("WARDEN_EXTERNAL_CLIENT_SECRET", cfg.ExternalClientSecret)
	cfg.ExternalUserURL = getEnv("WARDEN_EXTERNAL_USER_URL", cfg.ExternalUserURL)
	cfg.ExternalGroupURL = getEnv("WARDEN_EXTERNAL_GROUP_URL", cfg.ExternalGroupURL)

	// Redis config
	cfg.RedisAddr = getEnv("WARDEN_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("WARDEN_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("WARDEN_REDIS_DB", cfg.RedisDB)

	// Cache config
	cfg.CacheEnabled = getEnvBool("WARDEN_CACHE_ENABLED", cfg.CacheEnabled)
	cfg.CacheTTL = getEnvDuration("WARDEN_CACHE_TTL", cfg.CacheTTL)
	cfg.CacheShards = getEnvInt("WARDEN_CACHE_SHARDS", cfg.CacheShards)
	cfg.CacheCapacity = getEnvInt("WARDEN_CACHE_CAPACITY", cfg.CacheCapacity)

	return cfg
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret:        getEnv("WARDEN_JWT_SECRET", ""),
		JWTIssuer:        getEnv("WARDEN_JWT_ISSUER", "warden"),
		JWTTTL:           getEnvDuration("WARDEN_JWT_TTL", time.Hour),
		SystemsGroup:     getEnv("WARDEN_SYSTEMS_GROUP", "systems"),
		TagSweepSchedule: getEnv("WARDEN_TAG_SWEEP_SCHEDULE", "@every 5m"),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       observability.ParseLogLevel(getEnv("WARDEN_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("WARDEN_METRICS_ENABLED", true),
		AuditLogPath:   getEnv("WARDEN_AUDIT_LOG_PATH", ""),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}

	switch c.Storage.Type {
	case storage.TypeMemory:
		// No backend settings required.
	case storage.TypeS3:
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required for s3 storage")
		}
	case storage.TypeZK:
		if len(c.Storage.ZKServers) == 0 {
			return fmt.Errorf("zookeeper servers are required for zookeeper storage")
		}
	case storage.TypeExternal:
		if c.Storage.ExternalUserURL == "" || c.Storage.ExternalGroupURL == "" {
			return fmt.Errorf("external provider user and group URLs are required for external storage")
		}
		if c.Storage.ExternalIssuerURL == "" && c.Storage.ExternalTokenURL == "" {
			return fmt.Errorf("external provider issuer or token URL is required for external storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be memory, s3, zookeeper, or external)", c.Storage.Type)
	}

	if c.Storage.Type != storage.TypeExternal && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required for writable backends")
	}
	return nil
}

// getEnv returns an environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitAndTrim(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
