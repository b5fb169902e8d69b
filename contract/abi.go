// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contract

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
)

// ExtendedABI wraps the standard ABI and adds PackOutput, UnpackInput, PackEvent
// and UnpackEventData methods.
type ExtendedABI struct {
	abi.ABI
}

// ParseABI parses the raw ABI JSON and returns an ExtendedABI
func ParseABI(rawABI string) ExtendedABI {
	parsed, err := abi.JSON(strings.NewReader(rawABI))
	if err != nil {
		panic(fmt.Sprintf("failed to parse ABI: %v", err))
	}
	return ExtendedABI{ABI: parsed}
}

// Selector returns the 4-byte method ID of [name].
func (e ExtendedABI) Selector(name string) [4]byte {
	var id [4]byte
	method, exist := e.Methods[name]
	if !exist {
		panic(fmt.Sprintf("method '%s' not found", name))
	}
	copy(id[:], method.ID)
	return id
}

// PackOutput packs the given args as the output of given method name to conform the ABI.
// This does not include method ID.
func (e ExtendedABI) PackOutput(name string, args ...interface{}) ([]byte, error) {
	method, exist := e.Methods[name]
	if !exist {
		return nil, fmt.Errorf("method '%s' not found", name)
	}
	return method.Outputs.Pack(args...)
}

// UnpackInput unpacks the input according to the ABI specification.
// useStrictMode indicates whether to check the input data length strictly.
func (e ExtendedABI) UnpackInput(name string, data []byte, useStrictMode bool) ([]interface{}, error) {
	method, exist := e.Methods[name]
	if !exist {
		return nil, fmt.Errorf("method '%s' not found", name)
	}
	if useStrictMode && len(data)%32 != 0 {
		return nil, fmt.Errorf("abi: improperly formatted input: %x", data)
	}
	return method.Inputs.Unpack(data)
}

// PackEvent packs the given event name and arguments to conform the ABI.
// Returns the topics for the event and the packed data of non-indexed args.
func (e ExtendedABI) PackEvent(name string, args ...interface{}) ([]common.Hash, []byte, error) {
	event, exist := e.Events[name]
	if !exist {
		return nil, nil, fmt.Errorf("event '%s' not found", name)
	}
	if len(args) != len(event.Inputs) {
		return nil, nil, fmt.Errorf("event '%s' unexpected number of inputs %d", name, len(args))
	}

	var (
		nonIndexedInputs = make([]interface{}, 0)
		indexedInputs    = make([]interface{}, 0)
		nonIndexedArgs   abi.Arguments
		indexedArgs      abi.Arguments
	)

	for i, arg := range event.Inputs {
		if arg.Indexed {
			indexedArgs = append(indexedArgs, arg)
			indexedInputs = append(indexedInputs, args[i])
		} else {
			nonIndexedArgs = append(nonIndexedArgs, arg)
			nonIndexedInputs = append(nonIndexedInputs, args[i])
		}
	}

	packedArguments, err := nonIndexedArgs.Pack(nonIndexedInputs...)
	if err != nil {
		return nil, nil, err
	}

	topics := make([]common.Hash, 0, len(indexedArgs)+1)
	if !event.Anonymous {
		topics = append(topics, event.ID)
	}

	for _, input := range indexedInputs {
		topic, err := packTopic(input)
		if err != nil {
			return nil, nil, err
		}
		topics = append(topics, topic)
	}

	return topics, packedArguments, nil
}

// UnpackEventData unpacks the non-indexed data of event [name].
func (e ExtendedABI) UnpackEventData(name string, data []byte) ([]interface{}, error) {
	event, exist := e.Events[name]
	if !exist {
		return nil, fmt.Errorf("event '%s' not found", name)
	}
	return event.Inputs.NonIndexed().Unpack(data)
}

// packTopic packs a single indexed argument into a topic hash
func packTopic(value interface{}) (common.Hash, error) {
	switch v := value.(type) {
	case common.Address:
		return common.BytesToHash(v.Bytes()), nil
	case common.Hash:
		return v, nil
	case *big.Int:
		return common.BigToHash(v), nil
	case uint64:
		return common.BigToHash(new(big.Int).SetUint64(v)), nil
	case bool:
		if v {
			return common.BigToHash(big.NewInt(1)), nil
		}
		return common.Hash{}, nil
	case []byte:
		return common.BytesToHash(crypto.Keccak256(v)), nil
	case string:
		return common.BytesToHash(crypto.Keccak256([]byte(v))), nil
	default:
		return common.Hash{}, fmt.Errorf("unsupported indexed type: %T", value)
	}
}
