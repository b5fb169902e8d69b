// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package swap

import (
	"encoding/binary"

	"github.com/luxfi/geth/common"
	"github.com/parsdao/p2pswap/contract"
	"github.com/zeebo/blake3"
)

// Storage key prefixes for registry state
var (
	nextIDPrefix = []byte("next")
	swapPrefix   = []byte("swap")
)

var nextSwapIDKey = makeStorageKey(nextIDPrefix, nil)

// firstSwapID is the first id handed out. Zero is never a swap id.
const firstSwapID uint64 = 1

// registry is the engine's view of its own storage: the id allocator and
// one fingerprint slot per live swap.
type registry struct {
	db   contract.StateDB
	addr common.Address
}

func newRegistry(db contract.StateDB, addr common.Address) registry {
	return registry{db: db, addr: addr}
}

func makeStorageKey(prefix []byte, key []byte) common.Hash {
	h := blake3.New()
	h.Write(prefix)
	h.Write(key)
	var result common.Hash
	copy(result[:], h.Sum(nil))
	return result
}

func swapKey(id uint64) common.Hash {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], id)
	return makeStorageKey(swapPrefix, b[:])
}

// initialize sets the allocator to its first id if it has never been set.
func (r registry) initialize() {
	if r.db.GetState(r.addr, nextSwapIDKey) == (common.Hash{}) {
		r.setNextID(firstSwapID)
	}
}

// nextID is the id the next initiation will receive.
func (r registry) nextID() uint64 {
	v := r.db.GetState(r.addr, nextSwapIDKey)
	if v == (common.Hash{}) {
		return firstSwapID
	}
	return binary.BigEndian.Uint64(v[24:])
}

func (r registry) setNextID(id uint64) {
	var v common.Hash
	binary.BigEndian.PutUint64(v[24:], id)
	r.db.SetState(r.addr, nextSwapIDKey, v)
}

// allocate returns a fresh id and advances the allocator.
func (r registry) allocate() uint64 {
	id := r.nextID()
	r.setNextID(id + 1)
	return id
}

func (r registry) store(id uint64, fp common.Hash) {
	r.db.SetState(r.addr, swapKey(id), fp)
}

// lookup returns the fingerprint stored for id, or the zero hash.
func (r registry) lookup(id uint64) common.Hash {
	return r.db.GetState(r.addr, swapKey(id))
}

func (r registry) clear(id uint64) {
	r.db.SetState(r.addr, swapKey(id), common.Hash{})
}
