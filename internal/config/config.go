package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// AppConfig represents the main application configuration
type AppConfig struct {
	Database    DatabaseConfig    `mapstructure:"database"`
	Engine      EngineConfig      `mapstructure:"engine"`
	Sync        SyncConfig        `mapstructure:"sync"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// EngineConfig tunes the album refresh engine.
type EngineConfig struct {
	// ExceedThreshold is the number of distinct touched assets above which a
	// mutation batch abandons incremental refresh and falls back to
	// full-corpus recompute.
	ExceedThreshold int `mapstructure:"exceed_threshold"`

	// Transaction start retry budget. UpgradeMaxRetries applies to schema
	// upgrade transactions, which are allowed to wait longer.
	MaxRetries        int           `mapstructure:"max_retries"`
	UpgradeMaxRetries int           `mapstructure:"upgrade_max_retries"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
	StartTimeout      time.Duration `mapstructure:"start_timeout"`

	// NotifyRatePerSecond bounds observer dispatch; NotifyBurst is the
	// token-bucket burst size.
	NotifyRatePerSecond float64 `mapstructure:"notify_rate_per_second"`
	NotifyBurst         int     `mapstructure:"notify_burst"`
}

// SyncConfig configures the cloud-sync kickoff queue.
type SyncConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	RedisAddr string `mapstructure:"redis_addr"`
	Queue     string `mapstructure:"queue"`
}

// MaintenanceConfig configures the scheduled self-healing jobs.
type MaintenanceConfig struct {
	RefreshSpec    string        `mapstructure:"refresh_spec"`
	PurgeSpec      string        `mapstructure:"purge_spec"`
	TrashRetention time.Duration `mapstructure:"trash_retention"`
	LogRetention   time.Duration `mapstructure:"log_retention"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig loads application configuration from various sources
func LoadConfig() (*AppConfig, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	viper.SetDefault("database.path", "photostore.db")
	viper.SetDefault("database.busy_timeout", 5*time.Second)
	viper.SetDefault("database.max_open_conns", DefaultMaxOpenConns)
	viper.SetDefault("database.max_idle_conns", DefaultMaxIdleConns)
	viper.SetDefault("database.conn_max_lifetime", DefaultConnMaxLifetime)

	viper.SetDefault("engine.exceed_threshold", 500)
	viper.SetDefault("engine.max_retries", 5)
	viper.SetDefault("engine.upgrade_max_retries", 25)
	viper.SetDefault("engine.retry_backoff", 50*time.Millisecond)
	viper.SetDefault("engine.start_timeout", 10*time.Second)
	viper.SetDefault("engine.notify_rate_per_second", 200.0)
	viper.SetDefault("engine.notify_burst", 50)

	viper.SetDefault("sync.enabled", false)
	viper.SetDefault("sync.redis_addr", "localhost:6379")
	viper.SetDefault("sync.queue", "sync")

	viper.SetDefault("maintenance.refresh_spec", "@daily")
	viper.SetDefault("maintenance.purge_spec", "@daily")
	viper.SetDefault("maintenance.trash_retention", 30*24*time.Hour)
	viper.SetDefault("maintenance.log_retention", 7*24*time.Hour)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")

	// Read configuration file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, using defaults
	}

	// Read from environment variables
	viper.AutomaticEnv()

	var config AppConfig
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// validateConfig validates the configuration values
func validateConfig(config *AppConfig) error {
	if config.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if config.Engine.ExceedThreshold <= 0 {
		return fmt.Errorf("engine exceed threshold must be positive")
	}

	if config.Engine.MaxRetries <= 0 {
		return fmt.Errorf("engine max retries must be positive")
	}

	if config.Engine.UpgradeMaxRetries < config.Engine.MaxRetries {
		return fmt.Errorf("upgrade retry budget must be at least the regular budget")
	}

	if config.Engine.StartTimeout <= 0 {
		return fmt.Errorf("engine start timeout must be positive")
	}

	if config.Sync.Enabled && config.Sync.RedisAddr == "" {
		return fmt.Errorf("sync redis address cannot be empty when sync is enabled")
	}

	return nil
}
