// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"
	"github.com/parsdao/p2pswap/swap"
)

// Observer applies engine logs to a Store.
type Observer struct {
	store  Store
	engine common.Address
	log    log.Logger
}

// NewObserver returns an observer for the engine deployed at engine.
func NewObserver(store Store, engine common.Address, logger log.Logger) *Observer {
	return &Observer{store: store, engine: engine, log: logger}
}

// Observe applies logs in order. Logs from other contracts and value
// transfer notices are skipped. Replaying a log that was already applied is
// not an error.
func (o *Observer) Observe(ctx context.Context, logs []*ethtypes.Log) error {
	for _, l := range logs {
		if l.Address != o.engine {
			continue
		}
		if err := o.apply(ctx, l); err != nil {
			return fmt.Errorf("log %d of block %d: %w", l.Index, l.BlockNumber, err)
		}
	}
	return nil
}

func (o *Observer) apply(ctx context.Context, l *ethtypes.Log) error {
	ev, err := swap.UnpackEvent(l)
	if err != nil {
		return err
	}

	switch ev := ev.(type) {
	case *swap.SwapInitiatedEvent:
		err = o.store.Insert(ctx, &Record{
			ID:             ev.SwapID,
			Terms:          ev.Swap,
			Fingerprint:    swap.Fingerprint(&ev.Swap),
			State:          StateOpen,
			InitiatedBlock: l.BlockNumber,
		})
		if errors.Is(err, ErrDuplicateKey) {
			o.log.Debug("swap already indexed", "id", ev.SwapID)
			return nil
		}
		if err == nil {
			o.log.Debug("indexed swap", "id", ev.SwapID, "initiator", ev.Initiator)
		}
		return err

	case *swap.SwapRemovedEvent:
		return o.settle(ctx, Settlement{ID: ev.SwapID, State: StateRemoved, By: ev.Initiator, Block: l.BlockNumber})

	case *swap.SwapCompleteEvent:
		return o.settle(ctx, Settlement{ID: ev.SwapID, State: StateCompleted, By: ev.Acceptor, Block: l.BlockNumber})

	default:
		return nil
	}
}

func (o *Observer) settle(ctx context.Context, s Settlement) error {
	err := o.store.Settle(ctx, s)
	if errors.Is(err, ErrAlreadySettled) {
		o.log.Debug("swap already settled", "id", s.ID)
		return nil
	}
	if err == nil {
		o.log.Debug("swap settled", "id", s.ID, "state", s.State, "by", s.By)
	}
	return err
}

// Terms returns the terms of an open swap, ready to be resubmitted to the
// engine. Returns ErrAlreadySettled if the swap is no longer open.
func (o *Observer) Terms(ctx context.Context, id uint64) (swap.Swap, error) {
	r, err := o.store.Get(ctx, id)
	if err != nil {
		return swap.Swap{}, err
	}
	if r.State != StateOpen {
		return swap.Swap{}, fmt.Errorf("%w: swap %d is %s", ErrAlreadySettled, id, r.State)
	}
	return r.Terms, nil
}
