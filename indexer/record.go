// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package indexer follows the swap engine's event stream off chain.
//
// The engine stores only a fingerprint per swap, so any party that wants to
// remove, complete or query a swap has to present the full terms again. The
// indexer keeps the terms announced by SwapInitiated together with the
// outcome of each swap.
package indexer

import (
	"context"
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/parsdao/p2pswap/swap"
)

// State is the lifecycle position of an indexed swap.
type State uint8

const (
	StateOpen State = iota
	StateRemoved
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateRemoved:
		return "removed"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Record is everything the indexer knows about one swap.
type Record struct {
	ID          uint64
	Terms       swap.Swap
	Fingerprint common.Hash
	State       State

	// SettledBy is the account that completed or removed the swap.
	SettledBy common.Address

	InitiatedBlock uint64
	SettledBlock   uint64
}

// Validate checks that r can be stored as a new open swap.
func (r *Record) Validate() error {
	if r == nil || r.ID == 0 {
		return fmt.Errorf("%w: missing swap id", ErrInvalidInput)
	}
	if r.State != StateOpen {
		return fmt.Errorf("%w: new record in state %s", ErrInvalidInput, r.State)
	}
	if err := r.Terms.Check(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if r.Fingerprint != swap.Fingerprint(&r.Terms) {
		return fmt.Errorf("%w: fingerprint does not match terms", ErrInvalidInput)
	}
	return nil
}

// Settlement is the outcome of a swap.
type Settlement struct {
	ID    uint64
	State State
	By    common.Address
	Block uint64
}

// Store persists indexed swaps.
type Store interface {
	// Insert records a new open swap. Returns ErrDuplicateKey if the id
	// exists.
	Insert(ctx context.Context, r *Record) error

	// Get returns the record for id. Returns ErrNotFound if not exists.
	Get(ctx context.Context, id uint64) (*Record, error)

	// Settle moves an open swap to a final state. Returns ErrNotFound if
	// the id is unknown and ErrAlreadySettled if it is not open.
	Settle(ctx context.Context, s Settlement) error

	// Open returns open swaps involving party as initiator or named
	// acceptor, ordered by id. The zero address selects every open swap.
	Open(ctx context.Context, party common.Address) ([]*Record, error)
}
