package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "photostore.db", cfg.Database.Path)
	assert.Equal(t, 500, cfg.Engine.ExceedThreshold)
	assert.Equal(t, 5, cfg.Engine.MaxRetries)
	assert.Equal(t, 25, cfg.Engine.UpgradeMaxRetries)
	assert.Equal(t, 50*time.Millisecond, cfg.Engine.RetryBackoff)
	assert.Equal(t, 10*time.Second, cfg.Engine.StartTimeout)
	assert.False(t, cfg.Sync.Enabled)
	assert.Equal(t, "sync", cfg.Sync.Queue)
	assert.Equal(t, 30*24*time.Hour, cfg.Maintenance.TrashRetention)
	assert.Equal(t, 7*24*time.Hour, cfg.Maintenance.LogRetention)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestValidateConfigRejectsBadValues(t *testing.T) {
	valid := func() *AppConfig {
		return &AppConfig{
			Database: DatabaseConfig{Path: "x.db"},
			Engine: EngineConfig{
				ExceedThreshold:   500,
				MaxRetries:        5,
				UpgradeMaxRetries: 25,
				StartTimeout:      time.Second,
			},
		}
	}

	require.NoError(t, validateConfig(valid()))

	cfg := valid()
	cfg.Database.Path = ""
	assert.Error(t, validateConfig(cfg))

	cfg = valid()
	cfg.Engine.ExceedThreshold = 0
	assert.Error(t, validateConfig(cfg))

	cfg = valid()
	cfg.Engine.UpgradeMaxRetries = 1
	assert.Error(t, validateConfig(cfg))

	cfg = valid()
	cfg.Sync.Enabled = true
	cfg.Sync.RedisAddr = ""
	assert.Error(t, validateConfig(cfg))
}
