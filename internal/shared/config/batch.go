package config

import (
	"runtime"

	"github.com/spf13/viper"
)

// BatchConfig contains configuration for the batch file analyzer.
type BatchConfig struct {
	Pool    PoolConfig    `mapstructure:"pool"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// LoadBatch loads the batch configuration from the given path.
// If configPath is empty, it looks for batch.yaml in the config/ directory.
// Environment variables with GOPOOL_BATCH_ prefix override config file values.
func LoadBatch(configPath string) (*BatchConfig, error) {
	v := viper.New()

	v.SetDefault("pool.size", runtime.NumCPU())
	v.SetDefault("pool.queue_capacity", 0)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	var cfg BatchConfig
	if err := load(v, configPath, "batch", "GOPOOL_BATCH", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Pool.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
