package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_OverlaysOnlySetVariables(t *testing.T) {
	t.Setenv("POSMART_SERVER_ADDR", "inventory:7000")
	t.Setenv("POSMART_SYNC_RETRY_BASE", "250ms")
	t.Setenv("POSMART_SYNC_RETRIES", "9")
	t.Setenv("POSMART_S3_BUCKET", "pos-archive")
	t.Setenv("POSMART_CACHE_STATUS_HEADER", "true")

	var cfg Config
	cfg.LoadDefaults()
	parseEnv(&cfg)

	assert.Equal(t, "inventory:7000", cfg.ServerEndpointAddr)
	assert.Equal(t, 250*time.Millisecond, cfg.SyncRetryBase)
	assert.Equal(t, uint64(9), cfg.SyncRetries)
	assert.Equal(t, "pos-archive", cfg.S3Bucket)
	assert.True(t, cfg.CacheStatusHeader)
	assert.Equal(t, "posmart", cfg.AppName, "unset variables keep defaults")
}

func TestParseEnv_MalformedPanics(t *testing.T) {
	t.Setenv("POSMART_ONLINE_CHECK_INTERVAL", "soon")

	var cfg Config
	require.Panics(t, func() { parseEnv(&cfg) })
}
