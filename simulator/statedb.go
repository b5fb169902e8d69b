// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	ethtypes "github.com/luxfi/geth/core/types"
	"github.com/parsdao/p2pswap/contract"
)

var _ contract.StateDB = (*StateDB)(nil)

// Key prefixes in the backing database
var (
	accountPrefix = []byte{'a'}
	balancePrefix = []byte{'b'}
	storagePrefix = []byte{'s'}
)

// StateDB is a journaling contract.StateDB over a key-value database. Every
// write is journaled so any snapshot can be reverted, logs included.
type StateDB struct {
	db        database.Database
	journal   []journalEntry
	logs      []*ethtypes.Log
	snapshots []snapshot
}

type journalEntry struct {
	key     []byte
	prev    []byte
	existed bool
}

type snapshot struct {
	journal int
	logs    int
}

// NewStateDB returns a state backed by db.
func NewStateDB(db database.Database) *StateDB {
	return &StateDB{db: db}
}

func accountKey(addr common.Address) []byte {
	return append(append([]byte{}, accountPrefix...), addr[:]...)
}

func balanceKey(addr common.Address) []byte {
	return append(append([]byte{}, balancePrefix...), addr[:]...)
}

func storageKey(addr common.Address, key common.Hash) []byte {
	k := make([]byte, 0, len(storagePrefix)+common.AddressLength+common.HashLength)
	k = append(k, storagePrefix...)
	k = append(k, addr[:]...)
	return append(k, key[:]...)
}

// get returns the value at key, or nil.
func (s *StateDB) get(key []byte) []byte {
	v, err := s.db.Get(key)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		panic(fmt.Sprintf("simulator: reading state: %v", err))
	}
	return v
}

// put writes value at key; an empty value deletes it.
func (s *StateDB) put(key []byte, value []byte) {
	prev := s.get(key)
	s.journal = append(s.journal, journalEntry{key: key, prev: prev, existed: prev != nil})
	s.write(key, value)
}

func (s *StateDB) write(key []byte, value []byte) {
	var err error
	if len(value) == 0 {
		err = s.db.Delete(key)
	} else {
		err = s.db.Put(key, value)
	}
	if err != nil {
		panic(fmt.Sprintf("simulator: writing state: %v", err))
	}
}

func (s *StateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	return common.BytesToHash(s.get(storageKey(addr, key)))
}

func (s *StateDB) SetState(addr common.Address, key common.Hash, value common.Hash) common.Hash {
	k := storageKey(addr, key)
	prev := common.BytesToHash(s.get(k))
	if value == (common.Hash{}) {
		s.put(k, nil)
	} else {
		s.put(k, value.Bytes())
	}
	s.touch(addr)
	return prev
}

func (s *StateDB) GetBalance(addr common.Address) *uint256.Int {
	return new(uint256.Int).SetBytes(s.get(balanceKey(addr)))
}

func (s *StateDB) setBalance(addr common.Address, v *uint256.Int) {
	if v.IsZero() {
		s.put(balanceKey(addr), nil)
	} else {
		s.put(balanceKey(addr), v.Bytes())
	}
	s.touch(addr)
}

func (s *StateDB) AddBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) uint256.Int {
	prev := s.GetBalance(addr)
	s.setBalance(addr, new(uint256.Int).Add(prev, amount))
	return *prev
}

// SubBalance panics on underflow; the host checks balances before moving
// value.
func (s *StateDB) SubBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) uint256.Int {
	prev := s.GetBalance(addr)
	if prev.Lt(amount) {
		panic(fmt.Sprintf("simulator: balance underflow for %s", addr))
	}
	s.setBalance(addr, new(uint256.Int).Sub(prev, amount))
	return *prev
}

func (s *StateDB) CreateAccount(addr common.Address) {
	s.touch(addr)
}

func (s *StateDB) touch(addr common.Address) {
	k := accountKey(addr)
	if s.get(k) == nil {
		s.put(k, []byte{1})
	}
}

func (s *StateDB) Exist(addr common.Address) bool {
	return s.get(accountKey(addr)) != nil
}

func (s *StateDB) AddLog(log *ethtypes.Log) {
	log.Index = uint(len(s.logs))
	s.logs = append(s.logs, log)
}

// Logs returns every log that has not been reverted, oldest first.
func (s *StateDB) Logs() []*ethtypes.Log {
	return append([]*ethtypes.Log(nil), s.logs...)
}

func (s *StateDB) Snapshot() int {
	s.snapshots = append(s.snapshots, snapshot{journal: len(s.journal), logs: len(s.logs)})
	return len(s.snapshots) - 1
}

func (s *StateDB) RevertToSnapshot(id int) {
	if id < 0 || id >= len(s.snapshots) {
		panic(fmt.Sprintf("simulator: snapshot %d does not exist", id))
	}
	snap := s.snapshots[id]
	for i := len(s.journal) - 1; i >= snap.journal; i-- {
		entry := s.journal[i]
		if entry.existed {
			s.write(entry.key, entry.prev)
		} else {
			s.write(entry.key, nil)
		}
	}
	s.journal = s.journal[:snap.journal]
	s.logs = s.logs[:snap.logs]
	s.snapshots = s.snapshots[:id]
}

// commit drops the journal. Snapshots taken before it can no longer be
// reverted.
func (s *StateDB) commit() {
	s.journal = s.journal[:0]
	s.snapshots = s.snapshots[:0]
}
