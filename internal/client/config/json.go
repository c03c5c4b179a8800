package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/posmart/internal/flagx"
	"github.com/dmitrijs2005/posmart/internal/timex"
)

// ConfigEnvVar names the variable consulted for the JSON file path when no
// -c/-config flag is given.
const ConfigEnvVar = "POSMART_CONFIG"

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals use
// timex.Duration so they can be strings like "3s" or integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	AccessToken         string         `json:"access_token"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	DatabasePath        string         `json:"database_path"`
	StorageQuotaBytes   int64          `json:"storage_quota_bytes"`
	GatewayAddr         string         `json:"gateway_addr"`
	AssetOrigin         string         `json:"asset_origin"`
	AppName             string         `json:"app_name"`
	CacheVersion        string         `json:"cache_version"`
	SyncRetries         uint64         `json:"sync_retries"`
	SyncRetryBase       timex.Duration `json:"sync_retry_base"`
	UpdateCheckInterval timex.Duration `json:"update_check_interval"`
	ArchiveRetention    timex.Duration `json:"archive_retention"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint"`
	S3AccessKey         string         `json:"s3_access_key"`
	S3SecretKey         string         `json:"s3_secret_key"`
	LogLevel            string         `json:"log_level"`
}

// parseJson overlays Config with the values present in a JSON file. The
// path comes from -c/-config, or from POSMART_CONFIG. Fields missing from
// the file keep their current value. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigPath(ConfigEnvVar)
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.AccessToken, jc.AccessToken)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.GatewayAddr, jc.GatewayAddr)
	setString(&cfg.AssetOrigin, jc.AssetOrigin)
	setString(&cfg.AppName, jc.AppName)
	setString(&cfg.CacheVersion, jc.CacheVersion)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.LogLevel, jc.LogLevel)

	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.SyncRetryBase.Duration != 0 {
		cfg.SyncRetryBase = jc.SyncRetryBase.Duration
	}
	if jc.UpdateCheckInterval.Duration != 0 {
		cfg.UpdateCheckInterval = jc.UpdateCheckInterval.Duration
	}
	if jc.ArchiveRetention.Duration != 0 {
		cfg.ArchiveRetention = jc.ArchiveRetention.Duration
	}
	if jc.StorageQuotaBytes != 0 {
		cfg.StorageQuotaBytes = jc.StorageQuotaBytes
	}
	if jc.SyncRetries != 0 {
		cfg.SyncRetries = jc.SyncRetries
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
