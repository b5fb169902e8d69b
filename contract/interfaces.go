// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package contract defines the host surface a stateful precompile runs against.
package contract

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	ethtypes "github.com/luxfi/geth/core/types"
	"github.com/parsdao/p2pswap/precompileconfig"
)

// StatefulPrecompiledContract is the interface every stateful precompile implements.
//
// [value] has already been credited to [addr] by the host when Run is
// invoked; returning an error makes the host undo the whole call frame,
// including that credit.
type StatefulPrecompiledContract interface {
	Run(
		accessibleState AccessibleState,
		caller common.Address,
		addr common.Address,
		input []byte,
		value *uint256.Int,
		suppliedGas uint64,
		readOnly bool,
	) (ret []byte, remainingGas uint64, err error)
}

// StateDB is the state a precompile may read and mutate.
type StateDB interface {
	GetState(addr common.Address, key common.Hash) common.Hash
	SetState(addr common.Address, key common.Hash, value common.Hash) common.Hash

	GetBalance(addr common.Address) *uint256.Int
	AddBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) uint256.Int
	SubBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) uint256.Int

	CreateAccount(addr common.Address)
	Exist(addr common.Address) bool

	AddLog(log *ethtypes.Log)
	Logs() []*ethtypes.Log

	Snapshot() int
	RevertToSnapshot(id int)
}

// ConfigurationBlockContext is the block information available at activation.
type ConfigurationBlockContext interface {
	Number() *big.Int
	Timestamp() uint64
}

// BlockContext is the block information available while executing a call.
type BlockContext interface {
	ConfigurationBlockContext
}

// AccessibleState is everything a precompile can reach during execution.
type AccessibleState interface {
	GetStateDB() StateDB
	GetBlockContext() BlockContext

	// Call runs a message call from [from] into [to]. [value] moves with
	// the call and the callee's code, if any, runs before Call returns, so
	// the callee may re-enter the caller. A failed call leaves no state
	// behind.
	Call(from, to common.Address, input []byte, value *uint256.Int, readOnly bool) ([]byte, error)
}

// Configurator is used to activate a precompile from its config.
type Configurator interface {
	MakeConfig() precompileconfig.Config
	Configure(
		chainConfig precompileconfig.ChainConfig,
		precompileconfig precompileconfig.Config,
		state StateDB,
		blockContext ConfigurationBlockContext,
	) error
}
