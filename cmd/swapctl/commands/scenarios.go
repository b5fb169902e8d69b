// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package commands

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"

	"github.com/parsdao/p2pswap/simulator"
	"github.com/parsdao/p2pswap/swap"
)

// Scenario participants and assets
var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol = common.HexToAddress("0x00000000000000000000000000000000000ca401")
	mal   = common.HexToAddress("0x0000000000000000000000000000000000000bad")

	nftAAddr  = common.HexToAddress("0x000000000000000000000000000000000000aaaa")
	nftBAddr  = common.HexToAddress("0x000000000000000000000000000000000000bbbb")
	multiAddr = common.HexToAddress("0x000000000000000000000000000000000000eeee")
)

const startingBalance = 1_000

// world is one host shared by every scenario of a run, so swap ids keep
// increasing across scenarios.
type world struct {
	host   *simulator.Host
	client *simulator.SwapClient
	nftA   *simulator.NonFungible
	nftB   *simulator.NonFungible
	multi  *simulator.SemiFungible
	window uint64
	logs   []*ethtypes.Log
}

func newWorld(blockTime, window uint64, logger log.Logger) *world {
	h := simulator.NewHost(blockTime)
	w := &world{
		host:   h,
		client: simulator.DeploySwapEngine(h, swap.NewEngine(swap.ContractAddress).WithLogger(logger)),
		nftA:   simulator.DeployNonFungible(h, nftAAddr),
		nftB:   simulator.DeployNonFungible(h, nftBAddr),
		multi:  simulator.DeploySemiFungible(h, multiAddr),
		window: window,
	}
	for _, a := range []common.Address{alice, bob, carol} {
		h.Fund(a, uint256.NewInt(startingBalance))
	}
	return w
}

func (w *world) expiry() *big.Int {
	return new(big.Int).SetUint64(w.host.Time() + w.window)
}

func (w *world) record(r *simulator.Receipt) {
	w.logs = append(w.logs, r.Logs...)
}

func (w *world) initiate(from common.Address, s swap.Swap, value *uint256.Int) (uint64, error) {
	id, r, err := w.client.Initiate(from, s, value)
	if err != nil {
		return 0, fmt.Errorf("initiate: %w", err)
	}
	w.record(r)
	return id, nil
}

func (w *world) complete(from common.Address, id uint64, s swap.Swap, value *uint256.Int) error {
	r, err := w.client.Complete(from, id, s, value)
	if err != nil {
		return fmt.Errorf("complete swap %d: %w", id, err)
	}
	w.record(r)
	return nil
}

func expect(err, target error, what string) error {
	if !errors.Is(err, target) {
		return fmt.Errorf("%s: got %v, want %v", what, err, target)
	}
	return nil
}

func expectBalance(w *world, who common.Address, want uint64) error {
	if got := w.host.Balance(who); !got.Eq(uint256.NewInt(want)) {
		return fmt.Errorf("balance of %s is %s, want %d", who.Hex(), got, want)
	}
	return nil
}

type scenario struct {
	name        string
	description string
	run         func(w *world) error
}

var scenarios = []scenario{
	{
		name:        "nft-for-nft",
		description: "two named parties trade one NFT for another; settling twice fails",
		run:         nftForNFT,
	},
	{
		name:        "open-offer",
		description: "value offered to anyone holding a semi-fungible token",
		run:         openOffer,
	},
	{
		name:        "cancel",
		description: "the initiator removes a swap and gets the value back",
		run:         cancel,
	},
	{
		name:        "reentrancy",
		description: "a receiver re-enters the engine while being paid",
		run:         reentrancy,
	},
}

func lookupScenarios(names []string) ([]scenario, error) {
	if len(names) == 0 {
		return scenarios, nil
	}
	var out []scenario
	for _, name := range names {
		found := false
		for _, sc := range scenarios {
			if sc.name == name {
				out = append(out, sc)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown scenario %q", name)
		}
	}
	return out, nil
}

func nftForNFT(w *world) error {
	w.nftA.Mint(w.host, alice, big.NewInt(5))
	w.nftB.Mint(w.host, bob, big.NewInt(9))
	w.nftA.SetApprovalForAll(w.host, alice, w.client.Address(), true)
	w.nftB.SetApprovalForAll(w.host, bob, w.client.Address(), true)

	s := swap.Swap{
		ExpiryDate:             w.expiry(),
		InitiatorAssetContract: nftAAddr,
		AcceptorAssetContract:  nftBAddr,
		Initiator:              alice,
		Acceptor:               bob,
		InitiatorAssetID:       big.NewInt(5),
		AcceptorAssetID:        big.NewInt(9),
		InitiatorAssetType:     swap.AssetTypeNonFungible,
		AcceptorAssetType:      swap.AssetTypeNonFungible,
	}
	id, err := w.initiate(alice, s, nil)
	if err != nil {
		return err
	}
	status, err := w.client.Status(id, s)
	if err != nil {
		return err
	}
	if !status.IsReadyForSwapping {
		return fmt.Errorf("swap %d not ready: %+v", id, status)
	}
	if err := w.complete(bob, id, s, nil); err != nil {
		return err
	}
	if w.nftA.OwnerOf(w.host, big.NewInt(5)) != bob || w.nftB.OwnerOf(w.host, big.NewInt(9)) != alice {
		return errors.New("tokens did not change hands")
	}
	_, err = w.client.Complete(bob, id, s, nil)
	return expect(err, swap.ErrSwapSettledOrUnknown, "second completion")
}

func openOffer(w *world) error {
	w.multi.Mint(w.host, carol, big.NewInt(2), big.NewInt(1))
	w.multi.SetApprovalForAll(w.host, carol, w.client.Address(), true)

	s := swap.Swap{
		ExpiryDate:            w.expiry(),
		AcceptorAssetContract: multiAddr,
		Initiator:             alice,
		AcceptorAssetID:       big.NewInt(2),
		AcceptorAssetQuantity: big.NewInt(1),
		InitiatorValuePortion: big.NewInt(100),
		InitiatorAssetType:    swap.AssetTypeNone,
		AcceptorAssetType:     swap.AssetTypeSemiFungible,
	}
	aliceBefore := w.host.Balance(alice).Uint64()
	carolBefore := w.host.Balance(carol).Uint64()
	id, err := w.initiate(alice, s, uint256.NewInt(100))
	if err != nil {
		return err
	}
	if err := w.complete(carol, id, s, nil); err != nil {
		return err
	}
	if err := expectBalance(w, alice, aliceBefore-100); err != nil {
		return err
	}
	return expectBalance(w, carol, carolBefore+100)
}

func cancel(w *world) error {
	w.nftB.Mint(w.host, bob, big.NewInt(11))
	s := swap.Swap{
		ExpiryDate:            w.expiry(),
		AcceptorAssetContract: nftBAddr,
		Initiator:             alice,
		Acceptor:              bob,
		AcceptorAssetID:       big.NewInt(11),
		InitiatorValuePortion: big.NewInt(100),
		InitiatorAssetType:    swap.AssetTypeNone,
		AcceptorAssetType:     swap.AssetTypeNonFungible,
	}
	before := w.host.Balance(alice).Uint64()
	id, err := w.initiate(alice, s, uint256.NewInt(100))
	if err != nil {
		return err
	}
	r, err := w.client.Remove(alice, id, s)
	if err != nil {
		return fmt.Errorf("remove swap %d: %w", id, err)
	}
	w.record(r)
	if err := expectBalance(w, alice, before); err != nil {
		return err
	}
	_, err = w.client.Complete(bob, id, s, nil)
	return expect(err, swap.ErrSwapSettledOrUnknown, "completion after removal")
}

func reentrancy(w *world) error {
	recv := simulator.DeployReceiver(w.host, mal)
	w.nftA.Mint(w.host, recv.Address, big.NewInt(21))
	w.nftA.SetApprovalForAll(w.host, recv.Address, w.client.Address(), true)

	s := swap.Swap{
		ExpiryDate:             w.expiry(),
		InitiatorAssetContract: nftAAddr,
		Initiator:              recv.Address,
		Acceptor:               bob,
		InitiatorAssetID:       big.NewInt(21),
		AcceptorValuePortion:   big.NewInt(50),
		InitiatorAssetType:     swap.AssetTypeNonFungible,
		AcceptorAssetType:      swap.AssetTypeNone,
	}
	id, err := w.initiate(recv.Address, s, nil)
	if err != nil {
		return err
	}

	var attempts []error
	recv.OnCall = func(h *simulator.Host, caller common.Address, _ []byte, value *uint256.Int) error {
		if caller != w.client.Address() || value.IsZero() {
			return nil
		}
		_, err := h.Call(recv.Address, caller, swap.PackSwapCall(swap.SelectorRemoveSwap, id, s), nil, false)
		attempts = append(attempts, err)
		return nil
	}
	if err := w.complete(bob, id, s, uint256.NewInt(50)); err != nil {
		return err
	}
	if len(attempts) != 1 {
		return fmt.Errorf("receiver re-entered %d times, want 1", len(attempts))
	}
	if err := expect(attempts[0], swap.ErrSwapSettledOrUnknown, "reentrant removal"); err != nil {
		return err
	}
	return expectBalance(w, recv.Address, 50)
}
