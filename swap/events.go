// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package swap

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
	"github.com/parsdao/p2pswap/contract"
)

// Event names
const (
	EventSwapInitiated           = "SwapInitiated"
	EventSwapRemoved             = "SwapRemoved"
	EventSwapComplete            = "SwapComplete"
	EventValuePortionTransferred = "ValuePortionTransferred"
)

// ErrUnknownEvent is returned when a log was not emitted by the engine.
var ErrUnknownEvent = errors.New("unknown swap event")

// SwapInitiatedEvent carries the full terms of a new swap. Observers keep it
// so the terms can be resubmitted later.
type SwapInitiatedEvent struct {
	SwapID    uint64
	Initiator common.Address
	Acceptor  common.Address
	Swap      Swap
}

// SwapRemovedEvent is emitted when the initiator cancels a swap.
type SwapRemovedEvent struct {
	SwapID    uint64
	Initiator common.Address
}

// SwapCompleteEvent is emitted on settlement. Acceptor is the party that
// actually completed the swap, which for an open offer is not in the terms.
type SwapCompleteEvent struct {
	SwapID    uint64
	Initiator common.Address
	Acceptor  common.Address
	Swap      Swap
}

// ValuePortionTransferredEvent records native value leaving the engine.
type ValuePortionTransferredEvent struct {
	Recipient common.Address
	Amount    *big.Int
}

func emit(db contract.StateDB, engine common.Address, name string, args ...interface{}) error {
	topics, data, err := SwapABI.PackEvent(name, args...)
	if err != nil {
		return fmt.Errorf("packing %s: %w", name, err)
	}
	db.AddLog(&ethtypes.Log{
		Address: engine,
		Topics:  topics,
		Data:    data,
	})
	return nil
}

func emitSwapInitiated(db contract.StateDB, engine common.Address, id uint64, s *Swap) error {
	return emit(db, engine, EventSwapInitiated, id, s.Initiator, s.Acceptor, *s)
}

func emitSwapRemoved(db contract.StateDB, engine common.Address, id uint64, initiator common.Address) error {
	return emit(db, engine, EventSwapRemoved, id, initiator)
}

func emitSwapComplete(db contract.StateDB, engine common.Address, id uint64, acceptor common.Address, s *Swap) error {
	return emit(db, engine, EventSwapComplete, id, s.Initiator, acceptor, *s)
}

func emitValuePortionTransferred(db contract.StateDB, engine common.Address, recipient common.Address, amount *uint256.Int) error {
	return emit(db, engine, EventValuePortionTransferred, recipient, amount.ToBig())
}

// EventName returns the name of the engine event l carries.
func EventName(l *ethtypes.Log) (string, error) {
	if len(l.Topics) == 0 {
		return "", ErrUnknownEvent
	}
	for name, event := range SwapABI.Events {
		if event.ID == l.Topics[0] {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: topic %s", ErrUnknownEvent, l.Topics[0])
}

func checkTopics(l *ethtypes.Log, name string, n int) error {
	if len(l.Topics) != n || l.Topics[0] != SwapABI.Events[name].ID {
		return fmt.Errorf("%w: not a %s log", ErrUnknownEvent, name)
	}
	return nil
}

func topicSwapID(t common.Hash) (uint64, error) {
	id, ok := decodeWordUint64(t[:])
	if !ok {
		return 0, fmt.Errorf("%w: swap id topic %s", ErrInvalidInput, t)
	}
	return id, nil
}

// UnpackSwapInitiated decodes a SwapInitiated log.
func UnpackSwapInitiated(l *ethtypes.Log) (*SwapInitiatedEvent, error) {
	if err := checkTopics(l, EventSwapInitiated, 4); err != nil {
		return nil, err
	}
	id, err := topicSwapID(l.Topics[1])
	if err != nil {
		return nil, err
	}
	s, err := DecodeSwap(l.Data)
	if err != nil {
		return nil, err
	}
	return &SwapInitiatedEvent{
		SwapID:    id,
		Initiator: common.BytesToAddress(l.Topics[2][:]),
		Acceptor:  common.BytesToAddress(l.Topics[3][:]),
		Swap:      s,
	}, nil
}

// UnpackSwapRemoved decodes a SwapRemoved log.
func UnpackSwapRemoved(l *ethtypes.Log) (*SwapRemovedEvent, error) {
	if err := checkTopics(l, EventSwapRemoved, 3); err != nil {
		return nil, err
	}
	id, err := topicSwapID(l.Topics[1])
	if err != nil {
		return nil, err
	}
	return &SwapRemovedEvent{
		SwapID:    id,
		Initiator: common.BytesToAddress(l.Topics[2][:]),
	}, nil
}

// UnpackSwapComplete decodes a SwapComplete log.
func UnpackSwapComplete(l *ethtypes.Log) (*SwapCompleteEvent, error) {
	if err := checkTopics(l, EventSwapComplete, 4); err != nil {
		return nil, err
	}
	id, err := topicSwapID(l.Topics[1])
	if err != nil {
		return nil, err
	}
	s, err := DecodeSwap(l.Data)
	if err != nil {
		return nil, err
	}
	return &SwapCompleteEvent{
		SwapID:    id,
		Initiator: common.BytesToAddress(l.Topics[2][:]),
		Acceptor:  common.BytesToAddress(l.Topics[3][:]),
		Swap:      s,
	}, nil
}

// UnpackValuePortionTransferred decodes a ValuePortionTransferred log.
func UnpackValuePortionTransferred(l *ethtypes.Log) (*ValuePortionTransferredEvent, error) {
	if err := checkTopics(l, EventValuePortionTransferred, 2); err != nil {
		return nil, err
	}
	out, err := SwapABI.UnpackEventData(EventValuePortionTransferred, l.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	amount, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: amount is %T", ErrInvalidInput, out[0])
	}
	return &ValuePortionTransferredEvent{
		Recipient: common.BytesToAddress(l.Topics[1][:]),
		Amount:    amount,
	}, nil
}

// UnpackEvent decodes any engine log into its typed event.
func UnpackEvent(l *ethtypes.Log) (interface{}, error) {
	name, err := EventName(l)
	if err != nil {
		return nil, err
	}
	switch name {
	case EventSwapInitiated:
		return UnpackSwapInitiated(l)
	case EventSwapRemoved:
		return UnpackSwapRemoved(l)
	case EventSwapComplete:
		return UnpackSwapComplete(l)
	case EventValuePortionTransferred:
		return UnpackValuePortionTransferred(l)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
}
