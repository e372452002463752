package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoggingConfig contains logging-related configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PoolConfig contains worker pool configuration.
type PoolConfig struct {
	Size          int `mapstructure:"size"`
	QueueCapacity int `mapstructure:"queue_capacity"`
}

// Validate rejects pool settings that could never run a job.
func (c PoolConfig) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("pool.size must be greater than 0, got %d", c.Size)
	}
	if c.QueueCapacity < 0 {
		return fmt.Errorf("pool.queue_capacity must not be negative, got %d", c.QueueCapacity)
	}
	return nil
}

// load reads name.yaml (or configPath) into out, layering env overrides
// with the given prefix on top of the defaults already set on v.
func load(v *viper.Viper, configPath, name, envPrefix string, out any) error {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(name)
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	return nil
}
