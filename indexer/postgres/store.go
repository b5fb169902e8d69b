// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package postgres

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/luxfi/geth/common"
	"github.com/parsdao/p2pswap/indexer"
	"github.com/parsdao/p2pswap/swap"
)

// Store implements indexer.Store on PostgreSQL. Terms are kept in their
// canonical 13-word encoding.
type Store struct {
	pool *Pool
}

// Compile-time interface check.
var _ indexer.Store = (*Store)(nil)

// NewStore creates a store on pool.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// Swap ids and block numbers are BIGINT columns.
func toInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d does not fit a BIGINT", indexer.ErrInvalidInput, v)
	}
	return int64(v), nil
}

func (s *Store) Insert(ctx context.Context, r *indexer.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	id, err := toInt64(r.ID)
	if err != nil {
		return err
	}
	block, err := toInt64(r.InitiatedBlock)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO swaps (swap_id, fingerprint, terms, initiator, acceptor, state, initiated_block)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.pool.Exec(ctx, query,
		id,
		r.Fingerprint.Bytes(),
		r.Terms.Encode(),
		r.Terms.Initiator.Bytes(),
		r.Terms.Acceptor.Bytes(),
		int16(indexer.StateOpen),
		block,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return indexer.ErrDuplicateKey
		}
		return fmt.Errorf("insert swap: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id uint64) (*indexer.Record, error) {
	key, err := toInt64(id)
	if err != nil {
		return nil, indexer.ErrNotFound
	}

	query := `
		SELECT swap_id, fingerprint, terms, state, settled_by, initiated_block, settled_block
		FROM swaps
		WHERE swap_id = $1
	`
	r, err := scanRecord(s.pool.QueryRow(ctx, query, key))
	if err != nil {
		if isNotFoundError(err) {
			return nil, indexer.ErrNotFound
		}
		return nil, fmt.Errorf("get swap: %w", err)
	}
	return r, nil
}

func (s *Store) Settle(ctx context.Context, st indexer.Settlement) error {
	if st.State == indexer.StateOpen {
		return indexer.ErrInvalidInput
	}
	id, err := toInt64(st.ID)
	if err != nil {
		return indexer.ErrNotFound
	}
	block, err := toInt64(st.Block)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var state int16
	err = tx.QueryRow(ctx, `SELECT state FROM swaps WHERE swap_id = $1 FOR UPDATE`, id).Scan(&state)
	if err != nil {
		if isNotFoundError(err) {
			return indexer.ErrNotFound
		}
		return fmt.Errorf("lock swap: %w", err)
	}
	if indexer.State(state) != indexer.StateOpen {
		return indexer.ErrAlreadySettled
	}

	query := `
		UPDATE swaps SET state = $2, settled_by = $3, settled_block = $4
		WHERE swap_id = $1
	`
	if _, err := tx.Exec(ctx, query, id, int16(st.State), st.By.Bytes(), block); err != nil {
		return fmt.Errorf("settle swap: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) Open(ctx context.Context, party common.Address) ([]*indexer.Record, error) {
	query := `
		SELECT swap_id, fingerprint, terms, state, settled_by, initiated_block, settled_block
		FROM swaps
		WHERE state = 0
	`
	args := []interface{}{}
	if party != (common.Address{}) {
		query += ` AND (initiator = $1 OR acceptor = $1)`
		args = append(args, party.Bytes())
	}
	query += ` ORDER BY swap_id ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list open swaps: %w", err)
	}
	defer rows.Close()

	var out []*indexer.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan swap: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list open swaps: %w", err)
	}
	return out, nil
}

func scanRecord(row pgx.Row) (*indexer.Record, error) {
	var (
		id, initiated, settled int64
		fingerprint, terms     []byte
		settledBy              []byte
		state                  int16
	)
	if err := row.Scan(&id, &fingerprint, &terms, &state, &settledBy, &initiated, &settled); err != nil {
		return nil, err
	}
	decoded, err := swap.DecodeSwap(terms)
	if err != nil {
		return nil, fmt.Errorf("decode terms of swap %d: %w", id, err)
	}
	return &indexer.Record{
		ID:             uint64(id),
		Terms:          decoded,
		Fingerprint:    common.BytesToHash(fingerprint),
		State:          indexer.State(state),
		SettledBy:      common.BytesToAddress(settledBy),
		InitiatedBlock: uint64(initiated),
		SettledBlock:   uint64(settled),
	}, nil
}
