// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package swap

import (
	"strings"

	"github.com/parsdao/p2pswap/contract"
)

const swapTupleJSON = `{"name":"swap","type":"tuple","internalType":"struct IP2PSwap.Swap","components":[
	{"name":"expiryDate","type":"uint256","internalType":"uint256"},
	{"name":"initiatorAssetContract","type":"address","internalType":"address"},
	{"name":"acceptorAssetContract","type":"address","internalType":"address"},
	{"name":"initiator","type":"address","internalType":"address"},
	{"name":"acceptor","type":"address","internalType":"address"},
	{"name":"initiatorAssetId","type":"uint256","internalType":"uint256"},
	{"name":"acceptorAssetId","type":"uint256","internalType":"uint256"},
	{"name":"initiatorAssetQuantity","type":"uint256","internalType":"uint256"},
	{"name":"acceptorAssetQuantity","type":"uint256","internalType":"uint256"},
	{"name":"initiatorValuePortion","type":"uint256","internalType":"uint256"},
	{"name":"acceptorValuePortion","type":"uint256","internalType":"uint256"},
	{"name":"initiatorAssetType","type":"uint8","internalType":"enum IP2PSwap.AssetType"},
	{"name":"acceptorAssetType","type":"uint8","internalType":"enum IP2PSwap.AssetType"}]}`

const swapStatusJSON = `{"name":"status","type":"tuple","internalType":"struct IP2PSwap.SwapStatus","components":[
	{"name":"initiatorNeedsToOwnToken","type":"bool","internalType":"bool"},
	{"name":"initiatorTokenRequiresApproval","type":"bool","internalType":"bool"},
	{"name":"acceptorNeedsToOwnToken","type":"bool","internalType":"bool"},
	{"name":"acceptorTokenRequiresApproval","type":"bool","internalType":"bool"},
	{"name":"isReadyForSwapping","type":"bool","internalType":"bool"}]}`

const rawSwapABI = `[
	{"type":"function","name":"initiateSwap","stateMutability":"payable",
	 "inputs":[SWAP],
	 "outputs":[{"name":"swapId","type":"uint256","internalType":"uint256"}]},
	{"type":"function","name":"getSwapStatus","stateMutability":"view",
	 "inputs":[{"name":"swapId","type":"uint256","internalType":"uint256"},SWAP],
	 "outputs":[STATUS]},
	{"type":"function","name":"removeSwap","stateMutability":"nonpayable",
	 "inputs":[{"name":"swapId","type":"uint256","internalType":"uint256"},SWAP],
	 "outputs":[]},
	{"type":"function","name":"completeSwap","stateMutability":"payable",
	 "inputs":[{"name":"swapId","type":"uint256","internalType":"uint256"},SWAP],
	 "outputs":[]},
	{"type":"function","name":"nextSwapId","stateMutability":"view",
	 "inputs":[],
	 "outputs":[{"name":"","type":"uint256","internalType":"uint256"}]},
	{"type":"function","name":"swapHashes","stateMutability":"view",
	 "inputs":[{"name":"swapId","type":"uint256","internalType":"uint256"}],
	 "outputs":[{"name":"","type":"bytes32","internalType":"bytes32"}]},
	{"type":"event","name":"SwapInitiated","anonymous":false,"inputs":[
	 {"name":"swapId","type":"uint256","indexed":true,"internalType":"uint256"},
	 {"name":"initiator","type":"address","indexed":true,"internalType":"address"},
	 {"name":"acceptor","type":"address","indexed":true,"internalType":"address"},
	 SWAP]},
	{"type":"event","name":"SwapRemoved","anonymous":false,"inputs":[
	 {"name":"swapId","type":"uint256","indexed":true,"internalType":"uint256"},
	 {"name":"initiator","type":"address","indexed":true,"internalType":"address"}]},
	{"type":"event","name":"SwapComplete","anonymous":false,"inputs":[
	 {"name":"swapId","type":"uint256","indexed":true,"internalType":"uint256"},
	 {"name":"initiator","type":"address","indexed":true,"internalType":"address"},
	 {"name":"acceptor","type":"address","indexed":true,"internalType":"address"},
	 SWAP]},
	{"type":"event","name":"ValuePortionTransferred","anonymous":false,"inputs":[
	 {"name":"recipient","type":"address","indexed":true,"internalType":"address"},
	 {"name":"amount","type":"uint256","indexed":false,"internalType":"uint256"}]}
]`

// SwapABI is the Solidity-compatible interface of the swap engine.
var SwapABI = contract.ParseABI(strings.NewReplacer(
	"SWAP", swapTupleJSON,
	"STATUS", swapStatusJSON,
).Replace(rawSwapABI))

// Method selectors
var (
	SelectorInitiateSwap  = SwapABI.Selector("initiateSwap")
	SelectorGetSwapStatus = SwapABI.Selector("getSwapStatus")
	SelectorRemoveSwap    = SwapABI.Selector("removeSwap")
	SelectorCompleteSwap  = SwapABI.Selector("completeSwap")
	SelectorNextSwapID    = SwapABI.Selector("nextSwapId")
	SelectorSwapHashes    = SwapABI.Selector("swapHashes")
)

// Token interfaces the strategy table calls into.
var (
	FungibleABI = contract.ParseABI(`[
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable",
	 "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"transferFrom","stateMutability":"nonpayable",
	 "inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`)

	NonFungibleABI = contract.ParseABI(`[
	{"type":"function","name":"ownerOf","stateMutability":"view",
	 "inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"getApproved","stateMutability":"view",
	 "inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"isApprovedForAll","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"},{"name":"operator","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"setApprovalForAll","stateMutability":"nonpayable",
	 "inputs":[{"name":"operator","type":"address"},{"name":"approved","type":"bool"}],"outputs":[]},
	{"type":"function","name":"safeTransferFrom","stateMutability":"nonpayable",
	 "inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"onERC721Received","stateMutability":"nonpayable",
	 "inputs":[{"name":"operator","type":"address"},{"name":"from","type":"address"},{"name":"tokenId","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[{"name":"","type":"bytes4"}]}
]`)

	SemiFungibleABI = contract.ParseABI(`[
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"},{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"isApprovedForAll","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"},{"name":"operator","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"setApprovalForAll","stateMutability":"nonpayable",
	 "inputs":[{"name":"operator","type":"address"},{"name":"approved","type":"bool"}],"outputs":[]},
	{"type":"function","name":"safeTransferFrom","stateMutability":"nonpayable",
	 "inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"id","type":"uint256"},{"name":"amount","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"onERC1155Received","stateMutability":"nonpayable",
	 "inputs":[{"name":"operator","type":"address"},{"name":"from","type":"address"},{"name":"id","type":"uint256"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[{"name":"","type":"bytes4"}]}
]`)

	// HookABI holds the send and receive hooks of hooked fungible tokens.
	HookABI = contract.ParseABI(`[
	{"type":"function","name":"tokensToSend","stateMutability":"nonpayable",
	 "inputs":[{"name":"operator","type":"address"},{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"},{"name":"userData","type":"bytes"},{"name":"operatorData","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"tokensReceived","stateMutability":"nonpayable",
	 "inputs":[{"name":"operator","type":"address"},{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"},{"name":"userData","type":"bytes"},{"name":"operatorData","type":"bytes"}],"outputs":[]}
]`)
)
