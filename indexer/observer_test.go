// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package indexer_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"
	"github.com/parsdao/p2pswap/indexer"
	"github.com/parsdao/p2pswap/indexer/memory"
	"github.com/parsdao/p2pswap/simulator"
	"github.com/parsdao/p2pswap/swap"
	"github.com/stretchr/testify/require"
)

const now = 1_700_000_000

var (
	alice   = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob     = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	nftAddr = common.HexToAddress("0x000000000000000000000000000000000000bbbb")
)

func valueForNFT(id int64) swap.Swap {
	return swap.Swap{
		ExpiryDate:            big.NewInt(now + 1000),
		AcceptorAssetContract: nftAddr,
		Initiator:             alice,
		Acceptor:              bob,
		AcceptorAssetID:       big.NewInt(id),
		InitiatorValuePortion: big.NewInt(100),
		InitiatorAssetType:    swap.AssetTypeNone,
		AcceptorAssetType:     swap.AssetTypeNonFungible,
	}
}

func TestObserverFollowsLifecycle(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	h := simulator.NewHost(now)
	client := simulator.DeploySwapEngine(h, swap.NewEngine(swap.ContractAddress))
	nft := simulator.DeployNonFungible(h, nftAddr)
	h.Fund(alice, uint256.NewInt(1_000))
	nft.Mint(h, bob, big.NewInt(1))
	nft.SetApprovalForAll(h, bob, client.Address(), true)

	store := memory.NewStore()
	observer := indexer.NewObserver(store, client.Address(), log.NewTestLogger(log.InfoLevel))

	var logs []*ethtypes.Log
	first, receipt, err := client.Initiate(alice, valueForNFT(1), uint256.NewInt(100))
	require.NoError(err)
	logs = append(logs, receipt.Logs...)
	second, receipt, err := client.Initiate(alice, valueForNFT(2), uint256.NewInt(100))
	require.NoError(err)
	logs = append(logs, receipt.Logs...)
	require.NoError(observer.Observe(ctx, logs))

	open, err := store.Open(ctx, bob)
	require.NoError(err)
	require.Len(open, 2)

	// Terms recovered from the index settle the swap.
	terms, err := observer.Terms(ctx, first)
	require.NoError(err)
	require.Equal(swap.FingerprintOf(valueForNFT(1)), swap.Fingerprint(&terms))
	receipt, err = client.Complete(bob, first, terms, nil)
	require.NoError(err)
	require.NoError(observer.Observe(ctx, receipt.Logs))

	terms, err = observer.Terms(ctx, second)
	require.NoError(err)
	receipt, err = client.Remove(alice, second, terms)
	require.NoError(err)
	require.NoError(observer.Observe(ctx, receipt.Logs))

	completed, err := store.Get(ctx, first)
	require.NoError(err)
	require.Equal(indexer.StateCompleted, completed.State)
	require.Equal(bob, completed.SettledBy)

	removed, err := store.Get(ctx, second)
	require.NoError(err)
	require.Equal(indexer.StateRemoved, removed.State)
	require.Equal(alice, removed.SettledBy)

	_, err = observer.Terms(ctx, first)
	require.ErrorIs(err, indexer.ErrAlreadySettled)
	_, err = observer.Terms(ctx, 99)
	require.ErrorIs(err, indexer.ErrNotFound)

	// Replaying the whole stream changes nothing.
	require.NoError(observer.Observe(ctx, h.State().Logs()))
	open, err = store.Open(ctx, common.Address{})
	require.NoError(err)
	require.Empty(open)
}

func TestObserverSkipsForeignLogs(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	observer := indexer.NewObserver(store, swap.ContractAddress, log.NewTestLogger(log.InfoLevel))

	foreign := &ethtypes.Log{Address: nftAddr, Topics: []common.Hash{{1}}}
	require.NoError(t, observer.Observe(ctx, []*ethtypes.Log{foreign}))

	garbage := &ethtypes.Log{Address: swap.ContractAddress, Topics: []common.Hash{{1}}}
	require.ErrorIs(t, observer.Observe(ctx, []*ethtypes.Log{garbage}), swap.ErrUnknownEvent)
}

func TestObserverRejectsSettlementOfUnknownSwap(t *testing.T) {
	ctx := context.Background()
	h := simulator.NewHost(now)
	client := simulator.DeploySwapEngine(h, swap.NewEngine(swap.ContractAddress))
	h.Fund(alice, uint256.NewInt(1_000))

	s := valueForNFT(1)
	id, _, err := client.Initiate(alice, s, uint256.NewInt(100))
	require.NoError(t, err)
	receipt, err := client.Remove(alice, id, s)
	require.NoError(t, err)

	// The observer missed the initiation.
	observer := indexer.NewObserver(memory.NewStore(), client.Address(), log.NewTestLogger(log.InfoLevel))
	require.ErrorIs(t, observer.Observe(ctx, receipt.Logs), indexer.ErrNotFound)
}
