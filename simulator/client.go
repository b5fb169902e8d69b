// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/parsdao/p2pswap/contract"
	"github.com/parsdao/p2pswap/swap"
)

// SwapClient drives a swap engine deployed on a host through its ABI, the
// way an externally owned account would.
type SwapClient struct {
	host   *Host
	engine common.Address
}

// DeploySwapEngine installs engine as a precompile at its own address,
// initializes its storage and returns a client for it.
func DeploySwapEngine(h *Host, engine *swap.Engine) *SwapClient {
	h.DeployPrecompile(engine.Address(), swap.NewSwapContract(engine))
	h.setup(func(db contract.StateDB) {
		engine.Initialize(db)
	})
	return &SwapClient{host: h, engine: engine.Address()}
}

// Address is the engine address.
func (c *SwapClient) Address() common.Address {
	return c.engine
}

// Initiate sends initiateSwap from from with value attached.
func (c *SwapClient) Initiate(from common.Address, s swap.Swap, value *uint256.Int) (uint64, *Receipt, error) {
	receipt, err := c.host.Transact(from, c.engine, swap.PackInitiateSwap(s), value)
	if err != nil {
		return 0, nil, err
	}
	out, err := swap.SwapABI.Unpack("initiateSwap", receipt.Return)
	if err != nil {
		return 0, nil, err
	}
	id, ok := out[0].(*big.Int)
	if !ok {
		return 0, nil, fmt.Errorf("unexpected initiateSwap return %T", out[0])
	}
	return id.Uint64(), receipt, nil
}

// Complete sends completeSwap from from with value attached.
func (c *SwapClient) Complete(from common.Address, id uint64, s swap.Swap, value *uint256.Int) (*Receipt, error) {
	return c.host.Transact(from, c.engine, swap.PackSwapCall(swap.SelectorCompleteSwap, id, s), value)
}

// Remove sends removeSwap from from.
func (c *SwapClient) Remove(from common.Address, id uint64, s swap.Swap) (*Receipt, error) {
	return c.host.Transact(from, c.engine, swap.PackSwapCall(swap.SelectorRemoveSwap, id, s), nil)
}

// Status calls getSwapStatus.
func (c *SwapClient) Status(id uint64, s swap.Swap) (swap.Status, error) {
	ret, err := c.host.StaticCall(common.Address{}, c.engine, swap.PackSwapCall(swap.SelectorGetSwapStatus, id, s))
	if err != nil {
		return swap.Status{}, err
	}
	return swap.UnpackStatus(ret)
}

// NextSwapID calls nextSwapId.
func (c *SwapClient) NextSwapID() (uint64, error) {
	ret, err := c.host.StaticCall(common.Address{}, c.engine, swap.SelectorNextSwapID[:])
	if err != nil {
		return 0, err
	}
	out, err := swap.SwapABI.Unpack("nextSwapId", ret)
	if err != nil {
		return 0, err
	}
	id, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected nextSwapId return %T", out[0])
	}
	return id.Uint64(), nil
}

// SwapHash calls swapHashes.
func (c *SwapClient) SwapHash(id uint64) (common.Hash, error) {
	input := make([]byte, 0, 36)
	input = append(input, swap.SelectorSwapHashes[:]...)
	input = append(input, common.BigToHash(new(big.Int).SetUint64(id)).Bytes()...)
	ret, err := c.host.StaticCall(common.Address{}, c.engine, input)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(ret), nil
}
