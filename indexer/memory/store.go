// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package memory is an in-memory indexer.Store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/luxfi/geth/common"
	"github.com/parsdao/p2pswap/indexer"
)

// Store is an in-memory implementation of indexer.Store.
type Store struct {
	mu   sync.RWMutex
	data map[uint64]*indexer.Record
}

// Compile-time interface check.
var _ indexer.Store = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: make(map[uint64]*indexer.Record)}
}

func (s *Store) Insert(_ context.Context, r *indexer.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; exists {
		return indexer.ErrDuplicateKey
	}
	cp := *r
	s.data[r.ID] = &cp
	return nil
}

func (s *Store) Get(_ context.Context, id uint64) (*indexer.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[id]
	if !ok {
		return nil, indexer.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) Settle(_ context.Context, st indexer.Settlement) error {
	if st.State == indexer.StateOpen {
		return indexer.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.data[st.ID]
	if !ok {
		return indexer.ErrNotFound
	}
	if r.State != indexer.StateOpen {
		return indexer.ErrAlreadySettled
	}
	r.State = st.State
	r.SettledBy = st.By
	r.SettledBlock = st.Block
	return nil
}

func (s *Store) Open(_ context.Context, party common.Address) ([]*indexer.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*indexer.Record
	for _, r := range s.data {
		if r.State != indexer.StateOpen {
			continue
		}
		if party != (common.Address{}) && r.Terms.Initiator != party && r.Terms.Acceptor != party {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
