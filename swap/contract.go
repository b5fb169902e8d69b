// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package swap

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/parsdao/p2pswap/contract"
)

var _ contract.StatefulPrecompiledContract = (*SwapContract)(nil)

// SwapContract exposes an Engine through the Solidity ABI in SwapABI.
type SwapContract struct {
	engine *Engine
}

// NewSwapContract returns a precompile backed by engine.
func NewSwapContract(engine *Engine) *SwapContract {
	return &SwapContract{engine: engine}
}

// Engine returns the engine the contract dispatches to.
func (c *SwapContract) Engine() *Engine {
	return c.engine
}

// Run executes the precompile
func (c *SwapContract) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	value *uint256.Int,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	selector, args, err := contract.SplitSelector(input)
	if err != nil {
		return nil, suppliedGas, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	engine := c.engine.At(addr)

	switch selector {
	case SelectorInitiateSwap:
		return c.initiateSwap(accessibleState, engine, caller, args, value, suppliedGas, readOnly)
	case SelectorCompleteSwap:
		return c.completeSwap(accessibleState, engine, caller, args, value, suppliedGas, readOnly)
	case SelectorRemoveSwap:
		return c.removeSwap(accessibleState, engine, caller, args, value, suppliedGas, readOnly)

	// View functions
	case SelectorGetSwapStatus:
		return c.getSwapStatus(accessibleState, engine, args, value, suppliedGas)
	case SelectorNextSwapID:
		return c.nextSwapID(accessibleState, engine, value, suppliedGas)
	case SelectorSwapHashes:
		return c.swapHashes(accessibleState, engine, args, value, suppliedGas)

	default:
		return nil, suppliedGas, fmt.Errorf("%w: %x", ErrUnknownSelector, selector)
	}
}

func (c *SwapContract) initiateSwap(
	env contract.AccessibleState,
	engine *Engine,
	caller common.Address,
	args []byte,
	value *uint256.Int,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasInitiate)
	if err != nil {
		return nil, 0, err
	}

	s, err := DecodeSwap(args)
	if err != nil {
		return nil, remainingGas, err
	}
	id, err := engine.Initiate(env, caller, value, s)
	if err != nil {
		return nil, remainingGas, err
	}

	ret, err := SwapABI.PackOutput("initiateSwap", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, remainingGas, err
	}
	return ret, remainingGas, nil
}

func (c *SwapContract) completeSwap(
	env contract.AccessibleState,
	engine *Engine,
	caller common.Address,
	args []byte,
	value *uint256.Int,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasComplete)
	if err != nil {
		return nil, 0, err
	}

	id, s, err := decodeSwapCall(args)
	if err != nil {
		return nil, remainingGas, err
	}
	if err := engine.Complete(env, caller, value, id, s); err != nil {
		return nil, remainingGas, err
	}
	return nil, remainingGas, nil
}

func (c *SwapContract) removeSwap(
	env contract.AccessibleState,
	engine *Engine,
	caller common.Address,
	args []byte,
	value *uint256.Int,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	if err := nonPayable(value); err != nil {
		return nil, suppliedGas, err
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasRemove)
	if err != nil {
		return nil, 0, err
	}

	id, s, err := decodeSwapCall(args)
	if err != nil {
		return nil, remainingGas, err
	}
	if err := engine.Remove(env, caller, id, s); err != nil {
		return nil, remainingGas, err
	}
	return nil, remainingGas, nil
}

func (c *SwapContract) getSwapStatus(
	env contract.AccessibleState,
	engine *Engine,
	args []byte,
	value *uint256.Int,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	if err := nonPayable(value); err != nil {
		return nil, suppliedGas, err
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasStatus)
	if err != nil {
		return nil, 0, err
	}

	id, s, err := decodeSwapCall(args)
	if err != nil {
		return nil, remainingGas, err
	}
	st, err := engine.Status(env, id, s)
	if err != nil {
		return nil, remainingGas, err
	}

	ret, err := SwapABI.PackOutput("getSwapStatus", st)
	if err != nil {
		return nil, remainingGas, err
	}
	return ret, remainingGas, nil
}

func (c *SwapContract) nextSwapID(
	env contract.AccessibleState,
	engine *Engine,
	value *uint256.Int,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	if err := nonPayable(value); err != nil {
		return nil, suppliedGas, err
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasRead)
	if err != nil {
		return nil, 0, err
	}

	next := engine.NextSwapID(env.GetStateDB())
	ret, err := SwapABI.PackOutput("nextSwapId", new(big.Int).SetUint64(next))
	if err != nil {
		return nil, remainingGas, err
	}
	return ret, remainingGas, nil
}

func (c *SwapContract) swapHashes(
	env contract.AccessibleState,
	engine *Engine,
	args []byte,
	value *uint256.Int,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	if err := nonPayable(value); err != nil {
		return nil, suppliedGas, err
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasRead)
	if err != nil {
		return nil, 0, err
	}
	if len(args) < wordSize {
		return nil, remainingGas, fmt.Errorf("%w: missing swap id", ErrInvalidInput)
	}

	// Ids beyond 64 bits were never allocated.
	var fp common.Hash
	if id, ok := decodeWordUint64(args[:wordSize]); ok {
		fp = engine.FingerprintOf(env.GetStateDB(), id)
	}
	ret, err := SwapABI.PackOutput("swapHashes", [32]byte(fp))
	if err != nil {
		return nil, remainingGas, err
	}
	return ret, remainingGas, nil
}

// decodeSwapCall decodes the (uint256 swapId, Swap swap) arguments shared by
// getSwapStatus, removeSwap and completeSwap.
func decodeSwapCall(args []byte) (uint64, Swap, error) {
	if len(args) < wordSize+SwapEncodedSize {
		return 0, Swap{}, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidInput, wordSize+SwapEncodedSize, len(args))
	}
	s, err := DecodeSwap(args[wordSize:])
	if err != nil {
		return 0, Swap{}, err
	}
	id, ok := decodeWordUint64(args[:wordSize])
	if !ok {
		return 0, Swap{}, fmt.Errorf("%w: swap id %x", ErrSwapSettledOrUnknown, args[:wordSize])
	}
	return id, s, nil
}

func nonPayable(value *uint256.Int) error {
	if value != nil && !value.IsZero() {
		return ErrNonPayable
	}
	return nil
}

// PackInitiateSwap returns calldata for initiateSwap.
func PackInitiateSwap(s Swap) []byte {
	input := make([]byte, 0, 4+SwapEncodedSize)
	input = append(input, SelectorInitiateSwap[:]...)
	return append(input, s.Encode()...)
}

// PackSwapCall returns calldata for one of the (swapId, swap) methods:
// getSwapStatus, removeSwap or completeSwap.
func PackSwapCall(selector [4]byte, id uint64, s Swap) []byte {
	input := make([]byte, 0, 4+wordSize+SwapEncodedSize)
	input = append(input, selector[:]...)
	input = appendBig(input, new(big.Int).SetUint64(id))
	return append(input, s.Encode()...)
}

// UnpackStatus decodes the getSwapStatus return data.
func UnpackStatus(ret []byte) (Status, error) {
	const n = 5
	if len(ret) < n*wordSize {
		return Status{}, fmt.Errorf("%w: status needs %d bytes, got %d", ErrInvalidInput, n*wordSize, len(ret))
	}
	var flags [n]bool
	for i := range flags {
		v, ok := decodeWordUint64(ret[i*wordSize : (i+1)*wordSize])
		if !ok || v > 1 {
			return Status{}, fmt.Errorf("%w: status word %d", ErrInvalidInput, i)
		}
		flags[i] = v == 1
	}
	return Status{
		InitiatorNeedsToOwnToken:       flags[0],
		InitiatorTokenRequiresApproval: flags[1],
		AcceptorNeedsToOwnToken:        flags[2],
		AcceptorTokenRequiresApproval:  flags[3],
		IsReadyForSwapping:             flags[4],
	}, nil
}
