// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	WARDEN_HOST="0.0.0.0"
//	WARDEN_HEALTH_PORT="9090"
//	WARDEN_SHUTDOWN_TIMEOUT="30s"
//
// Storage settings:
//
//	WARDEN_STORAGE_TYPE="memory"  # memory, s3, zookeeper, external
//	WARDEN_KEY_PREFIX=""
//
// S3 settings (storage type "s3"):
//
//	WARDEN_S3_ENDPOINT=""         # custom endpoint for MinIO/LocalStack
//	WARDEN_S3_REGION="us-east-1"
//	WARDEN_S3_BUCKET="warden"
//	WARDEN_S3_ACCESS_KEY=""
//	WARDEN_S3_SECRET_KEY=""
//	WARDEN_S3_USE_PATH_STYLE="false"
//
// ZooKeeper settings (storage type "zookeeper"):
//
//	WARDEN_ZK_SERVERS="zk1:2181,zk2:2181"
//	WARDEN_ZK_SESSION_TIMEOUT="10s"
//	WARDEN_ZK_ROOT="/warden"
//
// External identity provider settings (storage type "external"):
//
//	WARDEN_EXTERNAL_ISSUER_URL="https://idp.example.com"
//	WARDEN_EXTERNAL_TOKEN_URL=""  # overrides issuer discovery when set
//	WARDEN_EXTERNAL_CLIENT_ID=""
//	WARDEN_EXTERNAL_CLIENT_SECRET=""
//	WARDEN_EXTERNAL_USER_URL="https://idp.example.com/api/users"
//	WARDEN_EXTERNAL_GROUP_URL="https://idp.example.com/api/roles"
//
// Cache settings:
//
//	WARDEN_CACHE_ENABLED="true"
//	WARDEN_CACHE_TTL="30s"
//	WARDEN_CACHE_SHARDS="16"
//	WARDEN_CACHE_CAPACITY="4096"
//	WARDEN_REDIS_ADDR=""          # enables the shared Redis cache when set
//	WARDEN_REDIS_PASSWORD=""
//	WARDEN_REDIS_DB="0"
//
// Auth settings:
//
//	WARDEN_JWT_SECRET=""          # required for writable backends
//	WARDEN_JWT_ISSUER="warden"
//	WARDEN_JWT_TTL="1h"
//	WARDEN_SYSTEMS_GROUP="systems"
//	WARDEN_TAG_SWEEP_SCHEDULE="@every 5m"
//
// Observability settings:
//
//	WARDEN_LOG_LEVEL="info"       # debug, info, warn, error
//	WARDEN_METRICS_ENABLED="true"
//	WARDEN_AUDIT_LOG_PATH=""      # stderr when empty
//
// # Usage
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//	    log.Fatalf("Failed to load config: %v", err)
//	}
package config
