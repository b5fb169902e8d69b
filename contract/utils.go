// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contract

import (
	"errors"
	"fmt"

	"github.com/luxfi/crypto"
)

var (
	ErrOutOfGas          = errors.New("out of gas")
	ErrWriteProtection   = errors.New("write protection")
	ErrExecutionReverted = errors.New("execution reverted")
)

// DeductGas checks if [suppliedGas] is sufficient against [requiredGas] and
// deducts [requiredGas] from [suppliedGas].
func DeductGas(suppliedGas uint64, requiredGas uint64) (uint64, error) {
	if suppliedGas < requiredGas {
		return 0, ErrOutOfGas
	}
	return suppliedGas - requiredGas, nil
}

// CalculateFunctionSelector returns the 4-byte selector of [functionSignature],
// e.g. "transfer(address,uint256)".
func CalculateFunctionSelector(functionSignature string) []byte {
	hash := crypto.Keccak256([]byte(functionSignature))
	return hash[:4]
}

// SplitSelector splits [input] into its selector and arguments.
func SplitSelector(input []byte) ([4]byte, []byte, error) {
	var selector [4]byte
	if len(input) < len(selector) {
		return selector, nil, fmt.Errorf("%w: input length %d shorter than selector", ErrExecutionReverted, len(input))
	}
	copy(selector[:], input[:4])
	return selector, input[4:], nil
}
