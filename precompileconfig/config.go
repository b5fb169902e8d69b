// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package precompileconfig defines the configuration surface shared by every
// stateful precompile module.
package precompileconfig

import "math/big"

// ChainConfig is the subset of chain configuration a precompile may consult
// while verifying its own config.
type ChainConfig interface {
	ChainID() *big.Int
}

// Config is the JSON-serialisable configuration of a single precompile.
type Config interface {
	// Key returns the config key the precompile is registered under.
	Key() string
	// Timestamp returns the activation timestamp, nil if never activated.
	Timestamp() *uint64
	// IsDisabled reports whether this config disables the precompile.
	IsDisabled() bool
	// Equal reports whether [cfg] is identical to this config.
	Equal(cfg Config) bool
	// Verify checks the config for internal consistency.
	Verify(chainConfig ChainConfig) error
}

// Upgrade is embedded in every precompile config to schedule activation.
type Upgrade struct {
	BlockTimestamp *uint64 `json:"blockTimestamp,omitempty"`
	Disable        bool    `json:"disable,omitempty"`
}

// Timestamp returns the activation timestamp of the upgrade.
func (u *Upgrade) Timestamp() *uint64 {
	return u.BlockTimestamp
}

// IsActivated reports whether the upgrade is live at [timestamp].
func (u *Upgrade) IsActivated(timestamp uint64) bool {
	if u.Disable || u.BlockTimestamp == nil {
		return false
	}
	return *u.BlockTimestamp <= timestamp
}

// Equal returns true iff [other] schedules the same activation.
func (u *Upgrade) Equal(other *Upgrade) bool {
	if other == nil {
		return false
	}
	if u.Disable != other.Disable {
		return false
	}
	if u.BlockTimestamp == nil || other.BlockTimestamp == nil {
		return u.BlockTimestamp == nil && other.BlockTimestamp == nil
	}
	return *u.BlockTimestamp == *other.BlockTimestamp
}
