// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/parsdao/p2pswap/swap"
)

// Receiver is a contract account with programmable behaviour. By default it
// accepts native value and every token hook. OnCall runs before the default
// handling on every call and may call back into the host; an error from it
// reverts the call.
type Receiver struct {
	Address common.Address

	OnCall       func(h *Host, caller common.Address, input []byte, value *uint256.Int) error
	RejectValue  bool
	RejectTokens bool

	// Calls counts every invocation, including reverted ones.
	Calls int
}

// DeployReceiver installs a receiver at addr.
func DeployReceiver(h *Host, addr common.Address) *Receiver {
	r := &Receiver{Address: addr}
	h.Deploy(addr, r)
	return r
}

func (r *Receiver) Run(h *Host, self, caller common.Address, input []byte, value *uint256.Int, readOnly bool) ([]byte, error) {
	r.Calls++
	if r.RejectValue && !value.IsZero() {
		return nil, ErrRejected
	}
	if r.OnCall != nil {
		if err := r.OnCall(h, caller, input, value); err != nil {
			return nil, err
		}
	}
	if len(input) < 4 {
		return nil, nil
	}

	var selector [4]byte
	copy(selector[:], input[:4])
	switch selector {
	case swap.NonFungibleABI.Selector("onERC721Received"):
		if r.RejectTokens {
			return nil, ErrRejected
		}
		return swap.NonFungibleABI.PackOutput("onERC721Received", selector)
	case swap.SemiFungibleABI.Selector("onERC1155Received"):
		if r.RejectTokens {
			return nil, ErrRejected
		}
		return swap.SemiFungibleABI.PackOutput("onERC1155Received", selector)
	case swap.HookABI.Selector("tokensReceived"), swap.HookABI.Selector("tokensToSend"):
		if r.RejectTokens {
			return nil, ErrRejected
		}
	}
	return nil, nil
}
