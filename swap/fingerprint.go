// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package swap

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
)

const (
	wordSize  = 32
	swapWords = 13

	// SwapEncodedSize is the size of an encoded swap tuple.
	SwapEncodedSize = swapWords * wordSize
)

// Fingerprint returns keccak256 of the ABI encoding of s. It is the only
// thing the registry keeps about a swap.
func Fingerprint(s *Swap) common.Hash {
	return common.BytesToHash(crypto.Keccak256(s.Encode()))
}

// FingerprintOf is Fingerprint for a swap held by value.
func FingerprintOf(s Swap) common.Hash {
	return Fingerprint(&s)
}

// Normalize zeroes the asset fields of every value-only side. Those fields
// are ignored by settlement, so two swaps that differ only there are the
// same swap.
func Normalize(s Swap) Swap {
	if s.InitiatorAssetType == AssetTypeNone {
		s.InitiatorAssetContract = common.Address{}
		s.InitiatorAssetID = new(big.Int)
		s.InitiatorAssetQuantity = new(big.Int)
	}
	if s.AcceptorAssetType == AssetTypeNone {
		s.AcceptorAssetContract = common.Address{}
		s.AcceptorAssetID = new(big.Int)
		s.AcceptorAssetQuantity = new(big.Int)
	}
	return s
}

// Encode returns the ABI encoding of s as a static tuple: thirteen 32-byte
// words in field order. Nil integers encode as zero and integers wider than
// 256 bits are truncated; use Check to reject them first.
func (s *Swap) Encode() []byte {
	out := make([]byte, 0, SwapEncodedSize)
	out = appendBig(out, s.ExpiryDate)
	out = appendAddress(out, s.InitiatorAssetContract)
	out = appendAddress(out, s.AcceptorAssetContract)
	out = appendAddress(out, s.Initiator)
	out = appendAddress(out, s.Acceptor)
	out = appendBig(out, s.InitiatorAssetID)
	out = appendBig(out, s.AcceptorAssetID)
	out = appendBig(out, s.InitiatorAssetQuantity)
	out = appendBig(out, s.AcceptorAssetQuantity)
	out = appendBig(out, s.InitiatorValuePortion)
	out = appendBig(out, s.AcceptorValuePortion)
	out = appendBig(out, new(big.Int).SetUint64(uint64(s.InitiatorAssetType)))
	out = appendBig(out, new(big.Int).SetUint64(uint64(s.AcceptorAssetType)))
	return out
}

// Check rejects terms that have no ABI encoding: negative or wider than 256
// bit integers, and asset types outside the enumeration.
func (s *Swap) Check() error {
	for _, f := range []struct {
		name string
		v    *big.Int
	}{
		{"expiryDate", s.ExpiryDate},
		{"initiatorAssetId", s.InitiatorAssetID},
		{"acceptorAssetId", s.AcceptorAssetID},
		{"initiatorAssetQuantity", s.InitiatorAssetQuantity},
		{"acceptorAssetQuantity", s.AcceptorAssetQuantity},
		{"initiatorValuePortion", s.InitiatorValuePortion},
		{"acceptorValuePortion", s.AcceptorValuePortion},
	} {
		if f.v == nil {
			continue
		}
		if f.v.Sign() < 0 || f.v.BitLen() > 256 {
			return fmt.Errorf("%w: %s out of uint256 range", ErrInvalidInput, f.name)
		}
	}
	if !s.InitiatorAssetType.Valid() {
		return fmt.Errorf("%w: initiator %d", ErrInvalidAssetType, uint8(s.InitiatorAssetType))
	}
	if !s.AcceptorAssetType.Valid() {
		return fmt.Errorf("%w: acceptor %d", ErrInvalidAssetType, uint8(s.AcceptorAssetType))
	}
	return nil
}

// DecodeSwap decodes an ABI encoded swap tuple from the head of data. It
// applies the same range checks as the EVM decoder: address words must have
// clean upper bytes and asset type words must name an enumerated type.
func DecodeSwap(data []byte) (Swap, error) {
	if len(data) < SwapEncodedSize {
		return Swap{}, fmt.Errorf("%w: swap needs %d bytes, got %d", ErrInvalidInput, SwapEncodedSize, len(data))
	}
	word := func(i int) []byte { return data[i*wordSize : (i+1)*wordSize] }

	var (
		s   Swap
		err error
	)
	address := func(i int) common.Address {
		a, e := decodeAddress(word(i))
		if e != nil && err == nil {
			err = e
		}
		return a
	}
	assetType := func(i int) AssetType {
		w := new(big.Int).SetBytes(word(i))
		if !w.IsUint64() || w.Uint64() >= uint64(numAssetTypes) {
			if err == nil {
				err = fmt.Errorf("%w: word %d", ErrInvalidAssetType, i)
			}
			return 0
		}
		return AssetType(w.Uint64())
	}

	s.ExpiryDate = new(big.Int).SetBytes(word(0))
	s.InitiatorAssetContract = address(1)
	s.AcceptorAssetContract = address(2)
	s.Initiator = address(3)
	s.Acceptor = address(4)
	s.InitiatorAssetID = new(big.Int).SetBytes(word(5))
	s.AcceptorAssetID = new(big.Int).SetBytes(word(6))
	s.InitiatorAssetQuantity = new(big.Int).SetBytes(word(7))
	s.AcceptorAssetQuantity = new(big.Int).SetBytes(word(8))
	s.InitiatorValuePortion = new(big.Int).SetBytes(word(9))
	s.AcceptorValuePortion = new(big.Int).SetBytes(word(10))
	s.InitiatorAssetType = assetType(11)
	s.AcceptorAssetType = assetType(12)
	if err != nil {
		return Swap{}, err
	}
	return s, nil
}

// prepare fills nil integers with zero, checks ranges and normalizes.
func prepare(s Swap) (Swap, error) {
	for _, p := range []**big.Int{
		&s.ExpiryDate,
		&s.InitiatorAssetID, &s.AcceptorAssetID,
		&s.InitiatorAssetQuantity, &s.AcceptorAssetQuantity,
		&s.InitiatorValuePortion, &s.AcceptorValuePortion,
	} {
		if *p == nil {
			*p = new(big.Int)
		}
	}
	if err := s.Check(); err != nil {
		return Swap{}, err
	}
	return Normalize(s), nil
}

func appendBig(out []byte, v *big.Int) []byte {
	var w [wordSize]byte
	if v != nil {
		u, _ := uint256.FromBig(v)
		w = u.Bytes32()
	}
	return append(out, w[:]...)
}

func appendAddress(out []byte, a common.Address) []byte {
	var w [wordSize]byte
	copy(w[wordSize-common.AddressLength:], a[:])
	return append(out, w[:]...)
}

func decodeAddress(w []byte) (common.Address, error) {
	for _, b := range w[:wordSize-common.AddressLength] {
		if b != 0 {
			return common.Address{}, fmt.Errorf("%w: dirty address word %x", ErrInvalidInput, w)
		}
	}
	return common.BytesToAddress(w[wordSize-common.AddressLength:]), nil
}

// decodeWordUint64 decodes a uint256 word that must fit in 64 bits.
func decodeWordUint64(w []byte) (uint64, bool) {
	v := new(big.Int).SetBytes(w)
	if !v.IsUint64() {
		return 0, false
	}
	return v.Uint64(), true
}

// toValue converts a checked value portion to a uint256.
func toValue(v *big.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	u, _ := uint256.FromBig(v)
	return u
}
