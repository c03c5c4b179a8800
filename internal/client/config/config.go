package config

import "time"

// Config holds runtime settings for the posmart client.
//
// Fields:
//   - ServerEndpointAddr / AccessToken: inventory server and the token sent
//     with every call.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - DatabasePath / StorageQuotaBytes: local SQLite file and the size limit
//     of the key-value store (0 disables the limit).
//   - GatewayAddr / AssetOrigin: local worker gateway and the origin it
//     proxies. CacheStatusHeader adds X-Cache-Status to gateway responses.
//   - AppName / CacheVersion: form the cache generation name.
//   - SyncRetries / SyncRetryBase: background-sync backoff.
//   - UpdateCheckInterval: how often the worker checks for a new version.
//   - ArchiveRetention and S3*: archive of synced transactions (disabled
//     when S3Bucket is empty).
type Config struct {
	ServerEndpointAddr  string        `env:"POSMART_SERVER_ADDR"`
	AccessToken         string        `env:"POSMART_ACCESS_TOKEN"`
	OnlineCheckInterval time.Duration `env:"POSMART_ONLINE_CHECK_INTERVAL"`

	DatabasePath      string `env:"POSMART_DB_PATH"`
	StorageQuotaBytes int64  `env:"POSMART_STORAGE_QUOTA"`

	GatewayAddr string `env:"POSMART_GATEWAY_ADDR"`
	AssetOrigin string `env:"POSMART_ASSET_ORIGIN"`

	CacheStatusHeader bool `env:"POSMART_CACHE_STATUS_HEADER"`

	AppName      string `env:"POSMART_APP_NAME"`
	CacheVersion string `env:"POSMART_CACHE_VERSION"`

	SyncRetries         uint64        `env:"POSMART_SYNC_RETRIES"`
	SyncRetryBase       time.Duration `env:"POSMART_SYNC_RETRY_BASE"`
	UpdateCheckInterval time.Duration `env:"POSMART_UPDATE_CHECK_INTERVAL"`

	ArchiveRetention time.Duration `env:"POSMART_ARCHIVE_RETENTION"`
	S3Bucket         string        `env:"POSMART_S3_BUCKET"`
	S3Region         string        `env:"POSMART_S3_REGION"`
	S3BaseEndpoint   string        `env:"POSMART_S3_BASE_ENDPOINT"`
	S3AccessKey      string        `env:"POSMART_S3_ACCESS_KEY"`
	S3SecretKey      string        `env:"POSMART_S3_SECRET_KEY"`

	LogLevel string `env:"POSMART_LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabasePath = "posmart.db"
	c.StorageQuotaBytes = 5 << 20
	c.GatewayAddr = "127.0.0.1:8080"
	c.AssetOrigin = "http://127.0.0.1:8000"
	c.AppName = "posmart"
	c.CacheVersion = "v1"
	c.SyncRetries = 3
	c.SyncRetryBase = 2 * time.Second
	c.UpdateCheckInterval = 60 * time.Second
	c.ArchiveRetention = 30 * 24 * time.Hour
	c.S3Region = "us-east-1"
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
