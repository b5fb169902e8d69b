// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package swap_test

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
	"github.com/parsdao/p2pswap/simulator"
	"github.com/parsdao/p2pswap/swap"
	"github.com/stretchr/testify/require"
)

const now = 1_700_000_000

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol = common.HexToAddress("0x00000000000000000000000000000000000ca401")

	nftAAddr   = common.HexToAddress("0x000000000000000000000000000000000000aaaa")
	nftBAddr   = common.HexToAddress("0x000000000000000000000000000000000000bbbb")
	coinAddr   = common.HexToAddress("0x000000000000000000000000000000000000cccc")
	hookedAddr = common.HexToAddress("0x000000000000000000000000000000000000dddd")
	multiAddr  = common.HexToAddress("0x000000000000000000000000000000000000eeee")
)

type bench struct {
	h      *simulator.Host
	client *simulator.SwapClient
	engine common.Address

	nftA   *simulator.NonFungible
	nftB   *simulator.NonFungible
	coin   *simulator.Fungible
	hooked *simulator.Fungible
	multi  *simulator.SemiFungible
}

func newBench() *bench {
	h := simulator.NewHost(now)
	b := &bench{
		h:      h,
		client: simulator.DeploySwapEngine(h, swap.NewEngine(swap.ContractAddress)),
		engine: swap.ContractAddress,
		nftA:   simulator.DeployNonFungible(h, nftAAddr),
		nftB:   simulator.DeployNonFungible(h, nftBAddr),
		coin:   simulator.DeployFungible(h, coinAddr),
		hooked: simulator.DeployFungible(h, hookedAddr),
		multi:  simulator.DeploySemiFungible(h, multiAddr),
	}
	b.hooked.Hooked = true
	for _, a := range []common.Address{alice, bob, carol} {
		h.Fund(a, uint256.NewInt(1_000))
	}
	return b
}

func (b *bench) totalValue(accounts ...common.Address) *uint256.Int {
	total := new(uint256.Int).Set(b.h.Balance(b.engine))
	for _, a := range accounts {
		total.Add(total, b.h.Balance(a))
	}
	return total
}

func nftSwap(initiator, acceptor common.Address, idA, idB int64) swap.Swap {
	return swap.Swap{
		ExpiryDate:             big.NewInt(now + 1000),
		InitiatorAssetContract: nftAAddr,
		AcceptorAssetContract:  nftBAddr,
		Initiator:              initiator,
		Acceptor:               acceptor,
		InitiatorAssetID:       big.NewInt(idA),
		AcceptorAssetID:        big.NewInt(idB),
		InitiatorAssetQuantity: big.NewInt(0),
		AcceptorAssetQuantity:  big.NewInt(0),
		InitiatorValuePortion:  big.NewInt(0),
		AcceptorValuePortion:   big.NewInt(0),
		InitiatorAssetType:     swap.AssetTypeNonFungible,
		AcceptorAssetType:      swap.AssetTypeNonFungible,
	}
}

func eventNames(t *testing.T, logs []*ethtypes.Log) []string {
	names := make([]string, 0, len(logs))
	for _, l := range logs {
		name, err := swap.EventName(l)
		require.NoError(t, err)
		names = append(names, name)
	}
	return names
}

func TestNonFungibleForNonFungible(t *testing.T) {
	b := newBench()
	b.nftA.Mint(b.h, alice, big.NewInt(5))
	b.nftB.Mint(b.h, bob, big.NewInt(9))
	s := nftSwap(alice, bob, 5, 9)

	id, receipt, err := b.client.Initiate(alice, s, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)
	require.Equal(t, []string{swap.EventSwapInitiated}, eventNames(t, receipt.Logs))

	status, err := b.client.Status(id, s)
	require.NoError(t, err)
	require.Equal(t, swap.Status{
		InitiatorTokenRequiresApproval: true,
		AcceptorTokenRequiresApproval:  true,
	}, status)

	b.nftA.Approve(b.h, big.NewInt(5), b.engine)
	b.nftB.SetApprovalForAll(b.h, bob, b.engine, true)
	status, err = b.client.Status(id, s)
	require.NoError(t, err)
	require.Equal(t, swap.Status{IsReadyForSwapping: true}, status)

	receipt, err = b.client.Complete(bob, id, s, nil)
	require.NoError(t, err)
	require.Equal(t, []string{swap.EventSwapComplete}, eventNames(t, receipt.Logs))
	complete, err := swap.UnpackSwapComplete(receipt.Logs[0])
	require.NoError(t, err)
	require.Equal(t, bob, complete.Acceptor)

	require.Equal(t, bob, b.nftA.OwnerOf(b.h, big.NewInt(5)))
	require.Equal(t, alice, b.nftB.OwnerOf(b.h, big.NewInt(9)))

	hash, err := b.client.SwapHash(id)
	require.NoError(t, err)
	require.Equal(t, common.Hash{}, hash)

	_, err = b.client.Complete(bob, id, s, nil)
	require.ErrorIs(t, err, swap.ErrSwapSettledOrUnknown)
	_, err = b.client.Remove(alice, id, s)
	require.ErrorIs(t, err, swap.ErrSwapSettledOrUnknown)
	_, err = b.client.Status(id, s)
	require.ErrorIs(t, err, swap.ErrSwapSettledOrUnknown)
}

func TestOpenOfferValueForAsset(t *testing.T) {
	b := newBench()
	b.multi.Mint(b.h, carol, big.NewInt(2), big.NewInt(1))
	b.multi.SetApprovalForAll(b.h, carol, b.engine, true)

	s := swap.Swap{
		ExpiryDate:            big.NewInt(now + 1000),
		AcceptorAssetContract: multiAddr,
		Initiator:             alice,
		AcceptorAssetID:       big.NewInt(2),
		AcceptorAssetQuantity: big.NewInt(1),
		InitiatorValuePortion: big.NewInt(100),
		InitiatorAssetType:    swap.AssetTypeNone,
		AcceptorAssetType:     swap.AssetTypeSemiFungible,
	}
	before := b.totalValue(alice, bob, carol)

	id, _, err := b.client.Initiate(alice, s, uint256.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(100), b.h.Balance(b.engine))
	require.Equal(t, uint256.NewInt(900), b.h.Balance(alice))

	receipt, err := b.client.Complete(carol, id, s, nil)
	require.NoError(t, err)
	require.Equal(t, []string{swap.EventValuePortionTransferred, swap.EventSwapComplete}, eventNames(t, receipt.Logs))

	paid, err := swap.UnpackValuePortionTransferred(receipt.Logs[0])
	require.NoError(t, err)
	require.Equal(t, carol, paid.Recipient)
	require.Equal(t, 0, big.NewInt(100).Cmp(paid.Amount))

	complete, err := swap.UnpackSwapComplete(receipt.Logs[1])
	require.NoError(t, err)
	require.Equal(t, carol, complete.Acceptor, "the first valid caller becomes the acceptor")
	require.Equal(t, common.Address{}, complete.Swap.Acceptor)

	require.Equal(t, uint256.NewInt(1_100), b.h.Balance(carol))
	require.True(t, b.h.Balance(b.engine).IsZero())
	require.Equal(t, 0, big.NewInt(1).Cmp(b.multi.BalanceOf(b.h, alice, big.NewInt(2))))
	require.Zero(t, b.multi.BalanceOf(b.h, carol, big.NewInt(2)).Sign())
	require.Equal(t, before, b.totalValue(alice, bob, carol))
}

func TestOpenOfferForNonFungibleRejected(t *testing.T) {
	b := newBench()
	s := nftSwap(alice, common.Address{}, 0, 2)
	s.InitiatorAssetType = swap.AssetTypeNone
	s.InitiatorAssetContract = common.Address{}
	s.InitiatorValuePortion = big.NewInt(100)

	_, _, err := b.client.Initiate(alice, s, uint256.NewInt(100))
	require.ErrorIs(t, err, swap.ErrNonFungibleAcceptorRequired)
	require.Equal(t, uint256.NewInt(1_000), b.h.Balance(alice), "attached value is returned with the failed call")
	require.True(t, b.h.Balance(b.engine).IsZero())

	next, err := b.client.NextSwapID()
	require.NoError(t, err)
	require.Equal(t, uint64(1), next)
}

func TestRemoveRefundsInitiator(t *testing.T) {
	b := newBench()
	b.nftB.Mint(b.h, bob, big.NewInt(2))
	s := nftSwap(alice, bob, 0, 2)
	s.InitiatorAssetType = swap.AssetTypeNone
	s.InitiatorAssetContract = common.Address{}
	s.InitiatorValuePortion = big.NewInt(100)

	id, _, err := b.client.Initiate(alice, s, uint256.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(900), b.h.Balance(alice))

	_, err = b.client.Remove(bob, id, s)
	require.ErrorIs(t, err, swap.ErrSenderNotInitiator)

	// Past expiry the swap can no longer complete but can still be removed.
	b.h.SetTime(now + 2000)
	_, err = b.client.Complete(bob, id, s, nil)
	require.ErrorIs(t, err, swap.ErrSwapExpired)

	receipt, err := b.client.Remove(alice, id, s)
	require.NoError(t, err)
	require.Equal(t, []string{swap.EventValuePortionTransferred, swap.EventSwapRemoved}, eventNames(t, receipt.Logs))
	require.Equal(t, uint256.NewInt(1_000), b.h.Balance(alice))
	require.True(t, b.h.Balance(b.engine).IsZero())

	b.h.SetTime(now)
	_, err = b.client.Complete(bob, id, s, nil)
	require.ErrorIs(t, err, swap.ErrSwapSettledOrUnknown)

	// Ids are never reused.
	s.ExpiryDate = big.NewInt(now + 10)
	next, _, err := b.client.Initiate(alice, s, uint256.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, id+1, next)
}

func TestFailedTransferLeavesSwapPending(t *testing.T) {
	b := newBench()
	b.nftA.Mint(b.h, alice, big.NewInt(5))
	b.nftA.Approve(b.h, big.NewInt(5), b.engine)

	// Bob pays 50 but never approves his NFT.
	b.nftB.Mint(b.h, bob, big.NewInt(9))
	s := nftSwap(alice, bob, 5, 9)
	s.AcceptorValuePortion = big.NewInt(50)

	id, _, err := b.client.Initiate(alice, s, nil)
	require.NoError(t, err)
	hash, err := b.client.SwapHash(id)
	require.NoError(t, err)

	_, err = b.client.Complete(bob, id, s, uint256.NewInt(50))
	require.ErrorIs(t, err, swap.ErrAssetTransferFailed)
	require.ErrorIs(t, err, simulator.ErrNotAuthorized)

	require.Equal(t, uint256.NewInt(1_000), b.h.Balance(alice))
	require.Equal(t, uint256.NewInt(1_000), b.h.Balance(bob))
	require.Equal(t, alice, b.nftA.OwnerOf(b.h, big.NewInt(5)))
	after, err := b.client.SwapHash(id)
	require.NoError(t, err)
	require.Equal(t, hash, after)

	b.nftB.Approve(b.h, big.NewInt(9), b.engine)
	_, err = b.client.Complete(bob, id, s, uint256.NewInt(50))
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(1_050), b.h.Balance(alice))
	require.Equal(t, uint256.NewInt(950), b.h.Balance(bob))
}

func TestFungibleTokenReturnConventions(t *testing.T) {
	tests := []struct {
		name         string
		noReturn     bool
		failSilently bool
		balance      int64
		wantErr      error
	}{
		{name: "standard token", balance: 500},
		{name: "token without return value", noReturn: true, balance: 500},
		{name: "token returning false", failSilently: true, balance: 10, wantErr: swap.ErrAssetTransferFailed},
		{name: "token reverting", balance: 10, wantErr: simulator.ErrTokenReverted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBench()
			b.coin.NoReturn = tt.noReturn
			b.coin.FailSilently = tt.failSilently
			b.coin.Mint(b.h, bob, big.NewInt(tt.balance))
			b.coin.Approve(b.h, bob, b.engine, big.NewInt(500))
			b.nftA.Mint(b.h, alice, big.NewInt(5))
			b.nftA.SetApprovalForAll(b.h, alice, b.engine, true)

			s := nftSwap(alice, bob, 5, 0)
			s.AcceptorAssetType = swap.AssetTypeFungible
			s.AcceptorAssetContract = coinAddr
			s.AcceptorAssetQuantity = big.NewInt(500)

			id, _, err := b.client.Initiate(alice, s, nil)
			require.NoError(t, err)
			_, err = b.client.Complete(bob, id, s, nil)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Equal(t, alice, b.nftA.OwnerOf(b.h, big.NewInt(5)))
				require.Equal(t, 0, big.NewInt(500).Cmp(b.coin.Allowance(b.h, bob, b.engine)))
				return
			}
			require.NoError(t, err)
			require.Equal(t, bob, b.nftA.OwnerOf(b.h, big.NewInt(5)))
			require.Equal(t, 0, big.NewInt(500).Cmp(b.coin.BalanceOf(b.h, alice)))
			require.Zero(t, b.coin.Allowance(b.h, bob, b.engine).Sign())
		})
	}
}

func TestReceiverRejectingTokensRevertsSettlement(t *testing.T) {
	b := newBench()
	acceptor := simulator.DeployReceiver(b.h, common.HexToAddress("0x000000000000000000000000000000000000f00d"))
	acceptor.RejectTokens = true

	b.nftA.Mint(b.h, alice, big.NewInt(5))
	b.nftA.SetApprovalForAll(b.h, alice, b.engine, true)
	b.h.Fund(acceptor.Address, uint256.NewInt(100))

	s := nftSwap(alice, acceptor.Address, 5, 0)
	s.AcceptorAssetType = swap.AssetTypeNone
	s.AcceptorAssetContract = common.Address{}
	s.AcceptorValuePortion = big.NewInt(100)

	id, _, err := b.client.Initiate(alice, s, nil)
	require.NoError(t, err)

	_, err = b.client.Complete(acceptor.Address, id, s, uint256.NewInt(100))
	require.ErrorIs(t, err, swap.ErrAssetTransferFailed)
	require.ErrorIs(t, err, simulator.ErrUnsafeReceiver)
	require.Equal(t, uint256.NewInt(100), b.h.Balance(acceptor.Address))
	require.Equal(t, uint256.NewInt(1_000), b.h.Balance(alice))

	acceptor.RejectTokens = false
	_, err = b.client.Complete(acceptor.Address, id, s, uint256.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, acceptor.Address, b.nftA.OwnerOf(b.h, big.NewInt(5)))
	require.Equal(t, uint256.NewInt(1_100), b.h.Balance(alice))
}

func TestStatusOfOpenOffer(t *testing.T) {
	b := newBench()
	s := swap.Swap{
		ExpiryDate:            big.NewInt(now + 1000),
		AcceptorAssetContract: coinAddr,
		Initiator:             alice,
		AcceptorAssetQuantity: big.NewInt(10),
		InitiatorValuePortion: big.NewInt(100),
		InitiatorAssetType:    swap.AssetTypeNone,
		AcceptorAssetType:     swap.AssetTypeFungible,
	}
	id, _, err := b.client.Initiate(alice, s, uint256.NewInt(100))
	require.NoError(t, err)

	// The acceptor side of an open offer is checked against the zero address.
	status, err := b.client.Status(id, s)
	require.NoError(t, err)
	require.Equal(t, swap.Status{
		AcceptorNeedsToOwnToken:       true,
		AcceptorTokenRequiresApproval: true,
	}, status)
}
