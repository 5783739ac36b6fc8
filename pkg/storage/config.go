package storage

import "time"

// Backend type names accepted by Config.Type.
const (
	TypeMemory   = "memory"
	TypeS3       = "s3"
	TypeZK       = "zookeeper"
	TypeExternal = "external"
)

// Config for a storage backend and its cache layer.
type Config struct {
	Type string // "memory", "s3", "zookeeper", "external"

	// KeyPrefix roots the shared key layout inside the store.
	KeyPrefix string

	// S3 config
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool

	// ZooKeeper config
	ZKServers        []string
	ZKSessionTimeout time.Duration
	ZKRoot           string

	// External identity provider config
	ExternalIssuerURL    string
	ExternalTokenURL     string
	ExternalClientID     string
	ExternalClientSecret string
	ExternalUserURL      string
	ExternalGroupURL     string

	// Redis config (shared cache for multi-process deployments)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Cache config
	CacheEnabled  bool
	CacheTTL      time.Duration
	CacheShards   int
	CacheCapacity int
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Type:             TypeMemory,
		ZKSessionTimeout: 10 * time.Second,
		CacheEnabled:     true,
		CacheTTL:         30 * time.Second,
		CacheShards:      16,
		CacheCapacity:    4096,
	}
}
