// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package simulator is an in-memory execution host for stateful precompiles.
//
// It routes message calls between externally owned accounts, precompiles and
// Go-implemented contracts, moves native value with every call, and undoes
// every frame that fails. Asset contracts and programmable receivers in this
// package make it possible to drive the swap engine through the same nested
// call paths, reentrancy included, that it sees on chain.
package simulator

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	ethtypes "github.com/luxfi/geth/core/types"
	"github.com/parsdao/p2pswap/contract"
)

var _ contract.AccessibleState = (*Host)(nil)

// MaxCallDepth is the deepest a chain of nested calls may go.
const MaxCallDepth = 1024

// CallGas is the gas every precompile frame is given.
const CallGas uint64 = 10_000_000

var (
	ErrCallDepth           = errors.New("max call depth exceeded")
	ErrInsufficientBalance = errors.New("insufficient balance for transfer")
	ErrNotPayable          = errors.New("account does not accept value")
	ErrRejected            = errors.New("call rejected by receiver")
)

// Code is the behaviour of an account with code.
type Code interface {
	Run(h *Host, self common.Address, caller common.Address, input []byte, value *uint256.Int, readOnly bool) ([]byte, error)
}

type precompileCode struct {
	precompile contract.StatefulPrecompiledContract
}

func (p precompileCode) Run(h *Host, self, caller common.Address, input []byte, value *uint256.Int, readOnly bool) ([]byte, error) {
	ret, _, err := p.precompile.Run(h, caller, self, input, value, CallGas, readOnly)
	return ret, err
}

type blockContext struct {
	number *big.Int
	time   uint64
}

func (b blockContext) Number() *big.Int  { return new(big.Int).Set(b.number) }
func (b blockContext) Timestamp() uint64 { return b.time }

// Receipt is the outcome of a successful top-level transaction.
type Receipt struct {
	Return []byte
	Logs   []*ethtypes.Log
}

// Host implements contract.AccessibleState over an in-memory StateDB.
type Host struct {
	// mu serialises top-level transactions
	mu sync.Mutex

	state *StateDB
	block blockContext
	code  map[common.Address]Code

	depth  int
	static bool
}

// NewHost returns an empty host at block 1 with timestamp time.
func NewHost(time uint64) *Host {
	return &Host{
		state: NewStateDB(memdb.New()),
		block: blockContext{number: big.NewInt(1), time: time},
		code:  make(map[common.Address]Code),
	}
}

func (h *Host) GetStateDB() contract.StateDB {
	return h.state
}

func (h *Host) GetBlockContext() contract.BlockContext {
	return h.block
}

// State returns the host's state for direct inspection.
func (h *Host) State() *StateDB {
	return h.state
}

// Time is the current block timestamp.
func (h *Host) Time() uint64 {
	return h.block.time
}

// SetTime moves the block timestamp.
func (h *Host) SetTime(time uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.block.time = time
}

// Deploy installs code at addr.
func (h *Host) Deploy(addr common.Address, code Code) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.code[addr] = code
	h.state.CreateAccount(addr)
	h.state.commit()
}

// DeployPrecompile installs a stateful precompile at addr.
func (h *Host) DeployPrecompile(addr common.Address, p contract.StatefulPrecompiledContract) {
	h.Deploy(addr, precompileCode{precompile: p})
}

// HasCode reports whether addr is a contract.
func (h *Host) HasCode(addr common.Address) bool {
	_, ok := h.code[addr]
	return ok
}

// Fund mints native value to addr.
func (h *Host) Fund(addr common.Address, amount *uint256.Int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.AddBalance(addr, amount, tracing.BalanceChangeUnspecified)
	h.state.commit()
}

// Balance returns the native balance of addr.
func (h *Host) Balance(addr common.Address) *uint256.Int {
	return h.state.GetBalance(addr)
}

// Transact runs a top-level call from an externally owned account and
// advances the block. On error the state is exactly as before the call.
func (h *Host) Transact(from, to common.Address, input []byte, value *uint256.Int) (*Receipt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	first := len(h.state.logs)
	ret, err := h.Call(from, to, input, value, false)
	h.block.number = new(big.Int).Add(h.block.number, common.Big1)
	if err != nil {
		h.state.commit()
		return nil, err
	}
	logs := append([]*ethtypes.Log(nil), h.state.logs[first:]...)
	h.state.commit()
	return &Receipt{Return: ret, Logs: logs}, nil
}

// StaticCall runs a read-only top-level call.
func (h *Host) StaticCall(from, to common.Address, input []byte) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ret, err := h.Call(from, to, input, nil, true)
	h.state.commit()
	return ret, err
}

// Call runs a message call. It is the contract.AccessibleState entry point
// and is reentrant: code running inside a call may call back into the host.
func (h *Host) Call(from, to common.Address, input []byte, value *uint256.Int, readOnly bool) ([]byte, error) {
	if h.depth >= MaxCallDepth {
		return nil, ErrCallDepth
	}
	if value == nil {
		value = new(uint256.Int)
	}
	if h.static {
		readOnly = true
	}
	if readOnly && !value.IsZero() {
		return nil, contract.ErrWriteProtection
	}

	h.depth++
	wasStatic := h.static
	h.static = readOnly
	defer func() {
		h.depth--
		h.static = wasStatic
	}()

	snapshot := h.state.Snapshot()
	ret, err := h.call(from, to, input, value, readOnly)
	if err != nil {
		h.state.RevertToSnapshot(snapshot)
		return nil, err
	}
	return ret, nil
}

func (h *Host) call(from, to common.Address, input []byte, value *uint256.Int, readOnly bool) ([]byte, error) {
	if !value.IsZero() {
		if h.state.GetBalance(from).Lt(value) {
			return nil, fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from, h.state.GetBalance(from), value)
		}
		h.state.SubBalance(from, value, tracing.BalanceChangeTransfer)
		h.state.AddBalance(to, value, tracing.BalanceChangeTransfer)
	}
	code, ok := h.code[to]
	if !ok {
		if !readOnly {
			h.state.CreateAccount(to)
		}
		return nil, nil
	}
	return code.Run(h, to, from, input, value, readOnly)
}

// setup applies a direct state change outside any transaction.
func (h *Host) setup(fn func(db contract.StateDB)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(h.state)
	h.state.commit()
}
