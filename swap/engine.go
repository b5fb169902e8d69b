// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package swap

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/parsdao/p2pswap/contract"
)

// Engine runs the swap lifecycle against a host. It keeps no swap state of
// its own; everything lives in the storage of the engine address.
//
// Every mutating entry point is all-or-nothing: on error the state is
// reverted to what it was on entry, including logs. The registry entry of a
// swap is always cleared before the engine calls out to any other account,
// so a reentrant call on the same swap fails the fingerprint gate.
type Engine struct {
	address common.Address
	log     log.Logger
}

// NewEngine returns an engine whose storage and token operator identity is
// address.
func NewEngine(address common.Address) *Engine {
	return &Engine{
		address: address,
		log:     log.NewTestLogger(log.InfoLevel),
	}
}

// WithLogger returns a copy of e that logs to l.
func (e *Engine) WithLogger(l log.Logger) *Engine {
	cp := *e
	cp.log = l
	return &cp
}

// At returns a copy of e bound to address.
func (e *Engine) At(address common.Address) *Engine {
	if address == e.address {
		return e
	}
	cp := *e
	cp.address = address
	return &cp
}

// Address is the engine account.
func (e *Engine) Address() common.Address {
	return e.address
}

// Initialize prepares the engine's storage. It is idempotent.
func (e *Engine) Initialize(db contract.StateDB) {
	newRegistry(db, e.address).initialize()
}

// NextSwapID is the id the next initiation will be assigned.
func (e *Engine) NextSwapID(db contract.StateDB) uint64 {
	return newRegistry(db, e.address).nextID()
}

// FingerprintOf returns the stored fingerprint of id, or the zero hash if
// the swap is settled, removed or was never created.
func (e *Engine) FingerprintOf(db contract.StateDB, id uint64) common.Hash {
	return newRegistry(db, e.address).lookup(id)
}

// Initiate records a new swap and returns its id. value is the native value
// attached to the call, already credited to the engine by the host; it must
// equal the initiator's value portion.
func (e *Engine) Initiate(env contract.AccessibleState, caller common.Address, value *uint256.Int, s Swap) (uint64, error) {
	var id uint64
	err := e.atomic(env.GetStateDB(), func(db contract.StateDB) error {
		s, err := prepare(s)
		if err != nil {
			return err
		}
		if err := e.checkInitiate(env, caller, value, &s); err != nil {
			return err
		}

		reg := newRegistry(db, e.address)
		id = reg.allocate()
		reg.store(id, Fingerprint(&s))
		return emitSwapInitiated(db, e.address, id, &s)
	})
	if err != nil {
		e.log.Debug("swap initiation rejected", "initiator", caller, "err", err)
		return 0, err
	}
	e.log.Debug("swap initiated", "id", id, "initiator", caller, "acceptor", s.Acceptor)
	return id, nil
}

func (e *Engine) checkInitiate(env contract.AccessibleState, caller common.Address, value *uint256.Int, s *Swap) error {
	now := new(big.Int).SetUint64(env.GetBlockContext().Timestamp())
	if s.ExpiryDate.Cmp(now) <= 0 {
		return fmt.Errorf("%w: expiry %s, now %s", ErrExpiredAtInitiation, s.ExpiryDate, now)
	}
	if s.AcceptorAssetType == AssetTypeNonFungible && s.IsOpenOffer() {
		return ErrNonFungibleAcceptorRequired
	}
	if caller != s.Initiator {
		return fmt.Errorf("%w: caller %s", ErrSenderNotInitiator, caller)
	}
	if s.InitiatorValuePortion.Sign() != 0 && s.AcceptorValuePortion.Sign() != 0 {
		return ErrBothSidesCarryingValue
	}
	if attached(value).Cmp(toValue(s.InitiatorValuePortion)) != 0 {
		return fmt.Errorf("%w: sent %s, expected %s", ErrSentValueMismatch, attached(value), s.InitiatorValuePortion)
	}
	if s.InitiatorAssetType == AssetTypeNone && s.AcceptorAssetType == AssetTypeNone &&
		s.InitiatorValuePortion.Sign() == 0 && s.AcceptorValuePortion.Sign() == 0 {
		return ErrBothSidesEmpty
	}
	if err := validateAsset(s.InitiatorAssetType, s.InitiatorAssetContract, s.InitiatorValuePortion, s.InitiatorAssetQuantity); err != nil {
		return fmt.Errorf("initiator side: %w", err)
	}
	if err := validateAsset(s.AcceptorAssetType, s.AcceptorAssetContract, s.AcceptorValuePortion, s.AcceptorAssetQuantity); err != nil {
		return fmt.Errorf("acceptor side: %w", err)
	}
	return nil
}

// Status reports what each party still has to do before the swap can settle.
// The acceptor's side is checked against the acceptor named in the terms;
// for an open offer that is the zero address.
func (e *Engine) Status(env contract.AccessibleState, id uint64, s Swap) (Status, error) {
	s, err := prepare(s)
	if err != nil {
		return Status{}, err
	}
	if err := e.verify(env.GetStateDB(), id, &s); err != nil {
		return Status{}, err
	}

	var st Status
	st.InitiatorNeedsToOwnToken, st.InitiatorTokenRequiresApproval, err = assetStatus(
		env, e.address, s.InitiatorAssetType, s.InitiatorAssetContract,
		s.InitiatorAssetID, s.InitiatorAssetQuantity, s.Initiator,
	)
	if err != nil {
		return Status{}, fmt.Errorf("initiator side: %w", err)
	}
	st.AcceptorNeedsToOwnToken, st.AcceptorTokenRequiresApproval, err = assetStatus(
		env, e.address, s.AcceptorAssetType, s.AcceptorAssetContract,
		s.AcceptorAssetID, s.AcceptorAssetQuantity, s.Acceptor,
	)
	if err != nil {
		return Status{}, fmt.Errorf("acceptor side: %w", err)
	}
	st.IsReadyForSwapping = !(st.InitiatorNeedsToOwnToken || st.InitiatorTokenRequiresApproval ||
		st.AcceptorNeedsToOwnToken || st.AcceptorTokenRequiresApproval)
	return st, nil
}

// Remove cancels a live swap and refunds the initiator's value portion.
func (e *Engine) Remove(env contract.AccessibleState, caller common.Address, id uint64, s Swap) error {
	err := e.atomic(env.GetStateDB(), func(db contract.StateDB) error {
		s, err := prepare(s)
		if err != nil {
			return err
		}
		if err := e.verify(db, id, &s); err != nil {
			return err
		}
		if caller != s.Initiator {
			return fmt.Errorf("%w: caller %s", ErrSenderNotInitiator, caller)
		}

		newRegistry(db, e.address).clear(id)

		if s.InitiatorValuePortion.Sign() != 0 {
			if err := e.sendValue(env, s.Initiator, toValue(s.InitiatorValuePortion)); err != nil {
				return err
			}
		}
		return emitSwapRemoved(db, e.address, id, caller)
	})
	if err != nil {
		e.log.Debug("swap removal rejected", "id", id, "caller", caller, "err", err)
		return err
	}
	e.log.Debug("swap removed", "id", id, "initiator", caller)
	return nil
}

// Complete settles a live swap. The caller becomes the acceptor; for a swap
// with a named acceptor only that account may call. value is the native
// value attached to the call and must equal the acceptor's value portion.
func (e *Engine) Complete(env contract.AccessibleState, caller common.Address, value *uint256.Int, id uint64, s Swap) error {
	err := e.atomic(env.GetStateDB(), func(db contract.StateDB) error {
		s, err := prepare(s)
		if err != nil {
			return err
		}
		if err := e.verify(db, id, &s); err != nil {
			return err
		}
		now := new(big.Int).SetUint64(env.GetBlockContext().Timestamp())
		if now.Cmp(s.ExpiryDate) > 0 {
			return fmt.Errorf("%w: expiry %s, now %s", ErrSwapExpired, s.ExpiryDate, now)
		}
		if !s.IsOpenOffer() && caller != s.Acceptor {
			return fmt.Errorf("%w: caller %s", ErrSenderNotAcceptor, caller)
		}
		sent := attached(value)
		if s.InitiatorValuePortion.Sign() != 0 && !sent.IsZero() {
			return ErrBothSidesCarryingValue
		}
		if sent.Cmp(toValue(s.AcceptorValuePortion)) != 0 {
			return fmt.Errorf("%w: sent %s, expected %s", ErrAcceptorValueMismatch, sent, s.AcceptorValuePortion)
		}
		acceptor := caller

		newRegistry(db, e.address).clear(id)

		if !sent.IsZero() {
			if err := e.sendValue(env, s.Initiator, sent); err != nil {
				return err
			}
		}
		if s.InitiatorValuePortion.Sign() != 0 {
			if err := e.sendValue(env, acceptor, toValue(s.InitiatorValuePortion)); err != nil {
				return err
			}
		}
		if err := emitSwapComplete(db, e.address, id, acceptor, &s); err != nil {
			return err
		}
		if err := transferAsset(
			env, e.address, s.InitiatorAssetType, s.InitiatorAssetContract,
			s.InitiatorAssetID, s.InitiatorAssetQuantity, s.Initiator, acceptor,
		); err != nil {
			return fmt.Errorf("initiator asset: %w", err)
		}
		if err := transferAsset(
			env, e.address, s.AcceptorAssetType, s.AcceptorAssetContract,
			s.AcceptorAssetID, s.AcceptorAssetQuantity, acceptor, s.Initiator,
		); err != nil {
			return fmt.Errorf("acceptor asset: %w", err)
		}
		return nil
	})
	if err != nil {
		e.log.Debug("swap completion rejected", "id", id, "caller", caller, "err", err)
		return err
	}
	e.log.Debug("swap completed", "id", id, "initiator", s.Initiator, "acceptor", caller)
	return nil
}

// verify is the fingerprint gate every operation on an existing swap passes.
func (e *Engine) verify(db contract.StateDB, id uint64, s *Swap) error {
	stored := newRegistry(db, e.address).lookup(id)
	if stored == (common.Hash{}) || stored != Fingerprint(s) {
		return fmt.Errorf("%w: swap %d", ErrSwapSettledOrUnknown, id)
	}
	return nil
}

// sendValue pays amount out of the engine account with a message call, so
// the recipient's receive code runs.
func (e *Engine) sendValue(env contract.AccessibleState, to common.Address, amount *uint256.Int) error {
	if _, err := env.Call(e.address, to, nil, amount, false); err != nil {
		return fmt.Errorf("%w: %s to %s: %w", ErrValueTransferFailed, amount, to, err)
	}
	return emitValuePortionTransferred(env.GetStateDB(), e.address, to, amount)
}

// atomic runs fn and reverts every state change it made if it fails.
func (e *Engine) atomic(db contract.StateDB, fn func(db contract.StateDB) error) error {
	snapshot := db.Snapshot()
	if err := fn(db); err != nil {
		db.RevertToSnapshot(snapshot)
		return err
	}
	return nil
}

func attached(value *uint256.Int) *uint256.Int {
	if value == nil {
		return new(uint256.Int)
	}
	return value
}
