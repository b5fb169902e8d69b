// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"fmt"

	"github.com/luxfi/geth/common"
)

// ============================================================================
// PRECOMPILE ADDRESS SCHEME - Aligned with LP Numbering (LP-0099)
// ============================================================================
//
// Market precompiles use trailing-significant 20-byte addresses:
//   Format: 0x0000000000000000000000000000000000PCII
//
// The address ends with the 16-bit LP number (PCII) for easy identification.
//   P nibble = family page (9 → LP-9xxx DEX/Markets)
//   C nibble = chain slot (0 on LP-9xxx, the address is the LP number)
//   II      = item within the family
//
// LP-9090 is the escrow-free peer-to-peer swap engine. It keeps only a
// fingerprint per open swap; full terms live in its SwapInitiated logs.

const (
	// Core market precompiles this engine sits alongside (LP-9010 series)
	LXPool   = "0x0000000000000000000000000000000000009010" // LP-9010 LXPool (singleton AMM)
	LXRouter = "0x0000000000000000000000000000000000009012" // LP-9012 LXRouter (swap routing)

	// Peer-to-peer settlement (LP-909x)
	SwapEngine = "0x0000000000000000000000000000000000009090" // LP-9090 escrow-free P2P swap
)

// SwapEngineAddress is the parsed address of the swap engine precompile.
var SwapEngineAddress = common.HexToAddress(SwapEngine)

// PrecompileAddress calculates address from (P, C, II) nibbles
// P = Family page (aligned with LP-Pxxx), C = Chain slot, II = Item
// Returns trailing-significant format: 0x0000000000000000000000000000000000PCII
func PrecompileAddress(p, c, ii uint8) common.Address {
	if p > 15 || c > 15 {
		return common.Address{}
	}
	// Build the 4-character selector: PCII (hex)
	selector := fmt.Sprintf("%x%x%02x", p, c, ii)
	// Pad with leading zeros to 40 hex chars (20 bytes)
	addr := "0000000000000000000000000000000000" + selector
	return common.HexToAddress("0x" + addr)
}

// FamilyPage returns the P-nibble for a family name (aligned with LP-Pxxx)
func FamilyPage(family string) uint8 {
	switch family {
	case "Bridge", "bridge":
		return 6 // LP-6xxx
	case "DEX", "dex", "Markets", "markets":
		return 9 // LP-9xxx
	default:
		return 0xFF
	}
}

// ChainPrecompiles defines which market precompiles are enabled for each chain
var ChainPrecompiles = map[string][]string{
	"C":   {LXPool, LXRouter, SwapEngine},
	"Zoo": {LXPool, LXRouter, SwapEngine},
}

// PrecompileInfo contains metadata about a precompile
type PrecompileInfo struct {
	Address     string
	Name        string
	Description string
	GasBase     uint64
	Chains      []string
	LPRange     string // LP-Pxxx range alignment
}

// AllPrecompiles lists the market precompiles with their metadata
var AllPrecompiles = []PrecompileInfo{
	{LXPool, "LX_POOL", "Singleton AMM pool manager", 10000, []string{"C", "Zoo"}, "LP-9xxx"},
	{LXRouter, "LX_ROUTER", "Multi-hop swap routing", 10000, []string{"C", "Zoo"}, "LP-9xxx"},
	{SwapEngine, "P2P_SWAP", "Escrow-free peer-to-peer asset swap", 30000, []string{"C", "Zoo"}, "LP-9xxx"},
}

// GetPrecompileInfo returns the metadata registered for [address].
func GetPrecompileInfo(address string) (PrecompileInfo, bool) {
	want := common.HexToAddress(address)
	for _, info := range AllPrecompiles {
		if common.HexToAddress(info.Address) == want {
			return info, true
		}
	}
	return PrecompileInfo{}, false
}

// IsEnabledOn reports whether [address] is enabled on [chain].
func IsEnabledOn(chain, address string) bool {
	want := common.HexToAddress(address)
	for _, addr := range ChainPrecompiles[chain] {
		if common.HexToAddress(addr) == want {
			return true
		}
	}
	return false
}
