package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default recommended values for a single-writer device-local store
const (
	DefaultMaxOpenConns    = 4
	DefaultMaxIdleConns    = 2
	DefaultConnMaxLifetime = 30 * time.Minute
	DefaultBusyTimeout     = 5 * time.Second
)

// DatabaseConfig represents SQLite database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoadDatabaseConfig loads database configuration from viper
func LoadDatabaseConfig() (*DatabaseConfig, error) {
	var config DatabaseConfig

	if err := viper.UnmarshalKey("database", &config); err != nil {
		return nil, err
	}

	// Set defaults if not configured
	if config.MaxOpenConns == 0 {
		config.MaxOpenConns = DefaultMaxOpenConns
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = DefaultMaxIdleConns
	}
	if config.ConnMaxLifetime == 0 {
		config.ConnMaxLifetime = DefaultConnMaxLifetime
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = DefaultBusyTimeout
	}

	return &config, nil
}
