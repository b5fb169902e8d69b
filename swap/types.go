// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package swap implements an escrow-free peer-to-peer asset swap precompile.
//
// An initiator commits to a set of terms; the engine stores only a fingerprint
// of those terms and every later call must resubmit them in full. The acceptor
// completes the swap, or the initiator removes it. Assets never leave their
// owners until the instant of settlement, and value attached by the initiator
// is the only thing the engine ever holds.
package swap

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"
)

// AssetType selects the ownership, approval and transfer semantics of one side
// of a swap.
type AssetType uint8

const (
	// AssetTypeNone is a value-only side: no asset moves.
	AssetTypeNone AssetType = iota
	// AssetTypeFungible is an ERC-20 style token.
	AssetTypeFungible
	// AssetTypeFungibleHooked is an ERC-777 style token; it trades exactly like
	// AssetTypeFungible but its transfers may call back into the parties.
	AssetTypeFungibleHooked
	// AssetTypeNonFungible is an ERC-721 style token. Quantity is always 1.
	AssetTypeNonFungible
	// AssetTypeSemiFungible is an ERC-1155 style token.
	AssetTypeSemiFungible

	numAssetTypes
)

// Valid reports whether t is one of the enumerated asset types.
func (t AssetType) Valid() bool {
	return t < numAssetTypes
}

func (t AssetType) String() string {
	switch t {
	case AssetTypeNone:
		return "NONE"
	case AssetTypeFungible:
		return "FUNGIBLE"
	case AssetTypeFungibleHooked:
		return "FUNGIBLE_HOOKED"
	case AssetTypeNonFungible:
		return "NON_FUNGIBLE"
	case AssetTypeSemiFungible:
		return "SEMI_FUNGIBLE"
	default:
		return fmt.Sprintf("AssetType(%d)", uint8(t))
	}
}

// ParseAssetType parses the String form of an asset type.
func ParseAssetType(s string) (AssetType, error) {
	for t := AssetTypeNone; t < numAssetTypes; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAssetType, s)
}

// Swap is the full set of terms of a swap. It is never stored; callers keep
// it (or recover it from the SwapInitiated log) and resubmit it on every call.
//
// Field order is the wire and fingerprint order.
type Swap struct {
	ExpiryDate             *big.Int       `abi:"expiryDate"`
	InitiatorAssetContract common.Address `abi:"initiatorAssetContract"`
	AcceptorAssetContract  common.Address `abi:"acceptorAssetContract"`
	Initiator              common.Address `abi:"initiator"`
	Acceptor               common.Address `abi:"acceptor"`
	InitiatorAssetID       *big.Int       `abi:"initiatorAssetId"`
	AcceptorAssetID        *big.Int       `abi:"acceptorAssetId"`
	InitiatorAssetQuantity *big.Int       `abi:"initiatorAssetQuantity"`
	AcceptorAssetQuantity  *big.Int       `abi:"acceptorAssetQuantity"`
	InitiatorValuePortion  *big.Int       `abi:"initiatorValuePortion"`
	AcceptorValuePortion   *big.Int       `abi:"acceptorValuePortion"`
	InitiatorAssetType     AssetType      `abi:"initiatorAssetType"`
	AcceptorAssetType      AssetType      `abi:"acceptorAssetType"`
}

// IsOpenOffer reports whether any caller may complete the swap.
func (s *Swap) IsOpenOffer() bool {
	return s.Acceptor == (common.Address{})
}

// Status is the readiness report returned by getSwapStatus.
type Status struct {
	InitiatorNeedsToOwnToken       bool `abi:"initiatorNeedsToOwnToken"`
	InitiatorTokenRequiresApproval bool `abi:"initiatorTokenRequiresApproval"`
	AcceptorNeedsToOwnToken        bool `abi:"acceptorNeedsToOwnToken"`
	AcceptorTokenRequiresApproval  bool `abi:"acceptorTokenRequiresApproval"`
	IsReadyForSwapping             bool `abi:"isReadyForSwapping"`
}

// Gas costs
const (
	GasInitiate uint64 = 50_000 // Validate, allocate id, store fingerprint, log terms
	GasComplete uint64 = 60_000 // Verify, clear, value legs, two asset legs
	GasRemove   uint64 = 30_000 // Verify, clear, refund
	GasStatus   uint64 = 10_000 // Verify plus up to four token reads
	GasRead     uint64 = 200    // Single slot read
)

// Errors - temporal
var (
	ErrExpiredAtInitiation = errors.New("swap expiry date is not in the future")
	ErrSwapExpired         = errors.New("swap expired")
)

// Errors - authorization
var (
	ErrSenderNotInitiator = errors.New("caller is not the initiator")
	ErrSenderNotAcceptor  = errors.New("caller is not the acceptor")
)

// Errors - value matching
var (
	ErrSentValueMismatch      = errors.New("sent value does not match initiator value portion")
	ErrAcceptorValueMismatch  = errors.New("sent value does not match acceptor value portion")
	ErrBothSidesCarryingValue = errors.New("both sides carrying value is disallowed")
	ErrBothSidesEmpty         = errors.New("swap moves no asset and no value")
	ErrValueTransferFailed    = errors.New("value portion transfer failed")
)

// Errors - existence
var (
	ErrSwapSettledOrUnknown = errors.New("swap settled, removed or unknown")
)

// Errors - asset validation
var (
	ErrZeroAddressForTypedAsset    = errors.New("asset contract is the zero address")
	ErrQuantityRequired            = errors.New("asset quantity is zero")
	ErrValueOrAssetMissing         = errors.New("value-only side carries no value")
	ErrNonFungibleAcceptorRequired = errors.New("non-fungible acceptor side requires an acceptor")
	ErrInvalidAssetType            = errors.New("invalid asset type")
	ErrAssetQueryFailed            = errors.New("asset status query failed")
	ErrAssetTransferFailed         = errors.New("asset transfer failed")
)

// Errors - call surface
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnknownSelector = errors.New("unknown method selector")
	ErrNonPayable      = errors.New("method is not payable")
)
