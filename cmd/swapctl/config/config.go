// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads swapctl settings from .swapctl.yaml and SWAPCTL_*
// environment variables.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the swapctl configuration
type Config struct {
	LogLevel     string `mapstructure:"log_level"`
	BlockTime    uint64 `mapstructure:"block_time"`
	ExpiryWindow uint64 `mapstructure:"expiry_window"`
	PostgresDSN  string `mapstructure:"postgres_dsn"`
}

// Defaults
const (
	DefaultLogLevel     = "info"
	DefaultBlockTime    = 1_700_000_000
	DefaultExpiryWindow = 1_000
)

// Load reads configuration from v. A missing config file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	v.SetConfigName(".swapctl")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("block_time", DefaultBlockTime)
	v.SetDefault("expiry_window", DefaultExpiryWindow)
	v.SetDefault("postgres_dsn", "")

	v.SetEnvPrefix("SWAPCTL")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.ExpiryWindow == 0 {
		return nil, errors.New("expiry_window must be positive")
	}
	return cfg, nil
}
