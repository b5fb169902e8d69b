// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package swap

import (
	"math/big"
	"testing"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	nftA  = common.HexToAddress("0x000000000000000000000000000000000000aaaa")
	nftB  = common.HexToAddress("0x000000000000000000000000000000000000bbbb")
	coin  = common.HexToAddress("0x000000000000000000000000000000000000cccc")
)

func nftForNFT(expiry uint64) Swap {
	return Swap{
		ExpiryDate:             new(big.Int).SetUint64(expiry),
		InitiatorAssetContract: nftA,
		AcceptorAssetContract:  nftB,
		Initiator:              alice,
		Acceptor:               bob,
		InitiatorAssetID:       big.NewInt(5),
		AcceptorAssetID:        big.NewInt(9),
		InitiatorAssetQuantity: big.NewInt(0),
		AcceptorAssetQuantity:  big.NewInt(0),
		InitiatorValuePortion:  big.NewInt(0),
		AcceptorValuePortion:   big.NewInt(0),
		InitiatorAssetType:     AssetTypeNonFungible,
		AcceptorAssetType:      AssetTypeNonFungible,
	}
}

func TestEncodeMatchesABI(t *testing.T) {
	s := nftForNFT(2000)
	s.InitiatorValuePortion = big.NewInt(100)
	s.AcceptorAssetType = AssetTypeSemiFungible
	s.AcceptorAssetQuantity = big.NewInt(7)

	packed, err := SwapABI.Methods["initiateSwap"].Inputs.Pack(s)
	require.NoError(t, err)
	require.Equal(t, packed, s.Encode())
	require.Len(t, s.Encode(), SwapEncodedSize)

	eventData, err := SwapABI.Events[EventSwapInitiated].Inputs.NonIndexed().Pack(s)
	require.NoError(t, err)
	require.Equal(t, eventData, s.Encode())
}

func TestFingerprint(t *testing.T) {
	s := nftForNFT(2000)

	fp := Fingerprint(&s)
	require.Equal(t, common.BytesToHash(crypto.Keccak256(s.Encode())), fp)
	require.Equal(t, fp, FingerprintOf(s))
	require.Equal(t, fp, Fingerprint(&s), "fingerprint must be deterministic")

	// Nil integers hash as zero.
	var empty Swap
	zero := Swap{
		ExpiryDate:             new(big.Int),
		InitiatorAssetID:       new(big.Int),
		AcceptorAssetID:        new(big.Int),
		InitiatorAssetQuantity: new(big.Int),
		AcceptorAssetQuantity:  new(big.Int),
		InitiatorValuePortion:  new(big.Int),
		AcceptorValuePortion:   new(big.Int),
	}
	require.Equal(t, FingerprintOf(zero), FingerprintOf(empty))

	other := s
	other.AcceptorAssetID = big.NewInt(10)
	require.NotEqual(t, fp, FingerprintOf(other))
}

func TestNormalize(t *testing.T) {
	s := nftForNFT(2000)
	s.InitiatorAssetType = AssetTypeNone
	s.InitiatorValuePortion = big.NewInt(100)

	n := Normalize(s)
	require.Equal(t, common.Address{}, n.InitiatorAssetContract)
	require.Zero(t, n.InitiatorAssetID.Sign())
	require.Zero(t, n.InitiatorAssetQuantity.Sign())
	require.Equal(t, 0, n.InitiatorValuePortion.Cmp(big.NewInt(100)))

	// Typed sides are untouched.
	require.Equal(t, nftB, n.AcceptorAssetContract)
	require.Equal(t, 0, n.AcceptorAssetID.Cmp(big.NewInt(9)))

	// The input is not modified.
	require.Equal(t, nftA, s.InitiatorAssetContract)
}

func TestDecodeSwap(t *testing.T) {
	s := nftForNFT(2000)
	s.AcceptorValuePortion = big.NewInt(42)

	decoded, err := DecodeSwap(s.Encode())
	require.NoError(t, err)
	require.Equal(t, s.Encode(), decoded.Encode())
	require.Equal(t, alice, decoded.Initiator)
	require.Equal(t, AssetTypeNonFungible, decoded.AcceptorAssetType)

	tests := []struct {
		name    string
		mutate  func(data []byte)
		data    []byte
		wantErr error
	}{
		{
			name:    "short input",
			data:    s.Encode()[:SwapEncodedSize-1],
			wantErr: ErrInvalidInput,
		},
		{
			name:    "dirty address word",
			mutate:  func(data []byte) { data[3*wordSize] = 1 },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "asset type out of range",
			mutate:  func(data []byte) { data[12*wordSize-1] = byte(numAssetTypes) },
			wantErr: ErrInvalidAssetType,
		},
		{
			name:    "asset type wider than a byte",
			mutate:  func(data []byte) { data[13*wordSize-2] = 1 },
			wantErr: ErrInvalidAssetType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.data
			if data == nil {
				data = s.Encode()
				tt.mutate(data)
			}
			_, err := DecodeSwap(data)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCheck(t *testing.T) {
	s := nftForNFT(2000)
	require.NoError(t, s.Check())

	neg := s
	neg.AcceptorValuePortion = big.NewInt(-1)
	require.ErrorIs(t, neg.Check(), ErrInvalidInput)

	wide := s
	wide.ExpiryDate = new(big.Int).Lsh(big.NewInt(1), 256)
	require.ErrorIs(t, wide.Check(), ErrInvalidInput)

	bad := s
	bad.InitiatorAssetType = numAssetTypes
	require.ErrorIs(t, bad.Check(), ErrInvalidAssetType)
}

func TestAssetTypeString(t *testing.T) {
	for at := AssetTypeNone; at < numAssetTypes; at++ {
		parsed, err := ParseAssetType(at.String())
		require.NoError(t, err)
		require.Equal(t, at, parsed)
	}
	_, err := ParseAssetType("ERC20")
	require.ErrorIs(t, err, ErrInvalidAssetType)
	require.Equal(t, "AssetType(9)", AssetType(9).String())
}

func drawAddress(t *rapid.T, label string) common.Address {
	return common.BytesToAddress(rapid.SliceOfN(rapid.Byte(), 20, 20).Draw(t, label))
}

func drawBig(t *rapid.T, label string) *big.Int {
	return new(big.Int).SetUint64(rapid.Uint64().Draw(t, label))
}

func drawSwap(t *rapid.T) Swap {
	return Swap{
		ExpiryDate:             drawBig(t, "expiryDate"),
		InitiatorAssetContract: drawAddress(t, "initiatorAssetContract"),
		AcceptorAssetContract:  drawAddress(t, "acceptorAssetContract"),
		Initiator:              drawAddress(t, "initiator"),
		Acceptor:               drawAddress(t, "acceptor"),
		InitiatorAssetID:       drawBig(t, "initiatorAssetId"),
		AcceptorAssetID:        drawBig(t, "acceptorAssetId"),
		InitiatorAssetQuantity: drawBig(t, "initiatorAssetQuantity"),
		AcceptorAssetQuantity:  drawBig(t, "acceptorAssetQuantity"),
		InitiatorValuePortion:  drawBig(t, "initiatorValuePortion"),
		AcceptorValuePortion:   drawBig(t, "acceptorValuePortion"),
		InitiatorAssetType:     AssetType(rapid.Uint8Range(0, uint8(numAssetTypes)-1).Draw(t, "initiatorAssetType")),
		AcceptorAssetType:      AssetType(rapid.Uint8Range(0, uint8(numAssetTypes)-1).Draw(t, "acceptorAssetType")),
	}
}

// TestFingerprintIgnoresValueOnlyFields checks that terms differing only in
// the unused fields of a NONE side normalize to the same fingerprint.
func TestFingerprintIgnoresValueOnlyFields(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := drawSwap(t)
		a.InitiatorAssetType = AssetTypeNone

		b := a
		b.InitiatorAssetContract = drawAddress(t, "otherContract")
		b.InitiatorAssetID = drawBig(t, "otherId")
		b.InitiatorAssetQuantity = drawBig(t, "otherQuantity")

		if FingerprintOf(Normalize(a)) != FingerprintOf(Normalize(b)) {
			t.Fatalf("NONE side fields changed the fingerprint")
		}
	})
}

// TestFingerprintDistinguishesFields checks that changing any single
// field changes the fingerprint.
func TestFingerprintDistinguishesFields(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := drawSwap(t)
		b := a
		bump := func(v *big.Int) *big.Int { return new(big.Int).Add(v, common.Big1) }
		flip := func(addr common.Address) common.Address {
			addr[19] ^= 0x01
			return addr
		}
		nextType := func(at AssetType) AssetType { return (at + 1) % numAssetTypes }

		switch field := rapid.IntRange(0, swapWords-1).Draw(t, "field"); field {
		case 0:
			b.ExpiryDate = bump(a.ExpiryDate)
		case 1:
			b.InitiatorAssetContract = flip(a.InitiatorAssetContract)
		case 2:
			b.AcceptorAssetContract = flip(a.AcceptorAssetContract)
		case 3:
			b.Initiator = flip(a.Initiator)
		case 4:
			b.Acceptor = flip(a.Acceptor)
		case 5:
			b.InitiatorAssetID = bump(a.InitiatorAssetID)
		case 6:
			b.AcceptorAssetID = bump(a.AcceptorAssetID)
		case 7:
			b.InitiatorAssetQuantity = bump(a.InitiatorAssetQuantity)
		case 8:
			b.AcceptorAssetQuantity = bump(a.AcceptorAssetQuantity)
		case 9:
			b.InitiatorValuePortion = bump(a.InitiatorValuePortion)
		case 10:
			b.AcceptorValuePortion = bump(a.AcceptorValuePortion)
		case 11:
			b.InitiatorAssetType = nextType(a.InitiatorAssetType)
		case 12:
			b.AcceptorAssetType = nextType(a.AcceptorAssetType)
		}
		if FingerprintOf(a) == FingerprintOf(b) {
			t.Fatalf("distinct terms share a fingerprint")
		}
	})
}
