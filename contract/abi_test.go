// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contract

import (
	"math/big"
	"testing"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

const testABI = `[
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"event","name":"Transfer","anonymous":false,
	 "inputs":[{"name":"from","type":"address","indexed":true},
	           {"name":"to","type":"address","indexed":true},
	           {"name":"amount","type":"uint256","indexed":false}]}
]`

func TestExtendedABIMethods(t *testing.T) {
	require := require.New(t)
	parsed := ParseABI(testABI)
	require.Equal([4]byte{0xa9, 0x05, 0x9c, 0xbb}, parsed.Selector("transfer"))
	require.Panics(func() { parsed.Selector("missing") })

	out, err := parsed.PackOutput("transfer", true)
	require.NoError(err)
	require.Equal(common.LeftPadBytes([]byte{1}, 32), out)

	to := common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	input, err := parsed.Pack("transfer", to, big.NewInt(7))
	require.NoError(err)
	args, err := parsed.UnpackInput("transfer", input[4:], true)
	require.NoError(err)
	require.Equal(to, args[0])
	require.Equal(0, big.NewInt(7).Cmp(args[1].(*big.Int)))

	_, err = parsed.UnpackInput("transfer", append(input[4:], 0), true)
	require.Error(err)
	_, err = parsed.UnpackInput("missing", nil, false)
	require.Error(err)
}

func TestExtendedABIEvents(t *testing.T) {
	require := require.New(t)
	parsed := ParseABI(testABI)
	from := common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	to := common.HexToAddress("0x0000000000000000000000000000000000000b0b")

	topics, data, err := parsed.PackEvent("Transfer", from, to, big.NewInt(9))
	require.NoError(err)
	require.Equal([]common.Hash{
		common.BytesToHash(crypto.Keccak256([]byte("Transfer(address,address,uint256)"))),
		common.BytesToHash(from.Bytes()),
		common.BytesToHash(to.Bytes()),
	}, topics)

	values, err := parsed.UnpackEventData("Transfer", data)
	require.NoError(err)
	require.Len(values, 1)
	require.Equal(0, big.NewInt(9).Cmp(values[0].(*big.Int)))

	_, _, err = parsed.PackEvent("Transfer", from)
	require.Error(err)
	_, _, err = parsed.PackEvent("Missing")
	require.Error(err)
}

func TestPackTopic(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  common.Hash
	}{
		{name: "uint64", value: uint64(5), want: common.BigToHash(big.NewInt(5))},
		{name: "big", value: big.NewInt(6), want: common.BigToHash(big.NewInt(6))},
		{name: "true", value: true, want: common.BigToHash(big.NewInt(1))},
		{name: "false", value: false, want: common.Hash{}},
		{name: "string", value: "swap", want: common.BytesToHash(crypto.Keccak256([]byte("swap")))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := packTopic(tt.value)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := packTopic(3.5)
	require.Error(t, err)
}
