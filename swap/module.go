// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package swap

import (
	"fmt"
	"strings"

	"github.com/luxfi/log"
	"github.com/parsdao/p2pswap/contract"
	"github.com/parsdao/p2pswap/modules"
	"github.com/parsdao/p2pswap/precompileconfig"
	swapregistry "github.com/parsdao/p2pswap/registry"
)

var _ contract.Configurator = (*configurator)(nil)

// ConfigKey is the key used in json config files to specify this precompile config.
const ConfigKey = "swapConfig"

// ContractAddress is the address of the swap engine precompile (LP-9090).
var ContractAddress = swapregistry.SwapEngineAddress

// SwapPrecompile is the singleton instance
var SwapPrecompile = NewSwapContract(NewEngine(ContractAddress))

// Module is the precompile module
var Module = modules.Module{
	ConfigKey:    ConfigKey,
	Address:      ContractAddress,
	Contract:     SwapPrecompile,
	Configurator: &configurator{},
}

type configurator struct{}

func init() {
	if err := modules.RegisterModule(Module); err != nil {
		panic(err)
	}
}

func (*configurator) MakeConfig() precompileconfig.Config {
	return new(Config)
}

func (*configurator) Configure(
	chainConfig precompileconfig.ChainConfig,
	cfg precompileconfig.Config,
	state contract.StateDB,
	blockContext contract.ConfigurationBlockContext,
) error {
	config, ok := cfg.(*Config)
	if !ok {
		return fmt.Errorf("expected config type %T, got %T: %v", &Config{}, cfg, cfg)
	}

	logger, err := NewLogger(config.LogLevel)
	if err != nil {
		return err
	}
	SwapPrecompile.engine = SwapPrecompile.engine.WithLogger(logger)
	SwapPrecompile.engine.Initialize(state)
	return nil
}

// Config implements the precompileconfig.Config interface
type Config struct {
	Upgrade  precompileconfig.Upgrade `json:"upgrade,omitempty"`
	LogLevel string                   `json:"logLevel,omitempty"`
}

func (c *Config) Key() string {
	return ConfigKey
}

func (c *Config) Timestamp() *uint64 {
	return c.Upgrade.Timestamp()
}

func (c *Config) IsDisabled() bool {
	return c.Upgrade.Disable
}

func (c *Config) Equal(cfg precompileconfig.Config) bool {
	other, ok := cfg.(*Config)
	if !ok {
		return false
	}
	return c.Upgrade.Equal(&other.Upgrade) &&
		strings.EqualFold(c.LogLevel, other.LogLevel)
}

func (c *Config) Verify(chainConfig precompileconfig.ChainConfig) error {
	_, err := NewLogger(c.LogLevel)
	return err
}

// NewLogger returns a logger at the named level. The empty name is info.
func NewLogger(level string) (log.Logger, error) {
	switch strings.ToLower(level) {
	case "debug":
		return log.NewTestLogger(log.DebugLevel), nil
	case "", "info":
		return log.NewTestLogger(log.InfoLevel), nil
	case "warn":
		return log.NewTestLogger(log.WarnLevel), nil
	case "error":
		return log.NewTestLogger(log.ErrorLevel), nil
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}
}
