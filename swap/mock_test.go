// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package swap

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	ethtypes "github.com/luxfi/geth/core/types"
	"github.com/parsdao/p2pswap/contract"
)

// MockStateDB implements contract.StateDB for testing. Snapshots copy the
// whole state.
type MockStateDB struct {
	storage   map[common.Address]map[common.Hash]common.Hash
	balances  map[common.Address]*uint256.Int
	logs      []*ethtypes.Log
	snapshots []mockSnapshot
}

type mockSnapshot struct {
	storage  map[common.Address]map[common.Hash]common.Hash
	balances map[common.Address]*uint256.Int
	logs     int
}

func NewMockStateDB() *MockStateDB {
	return &MockStateDB{
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
		balances: make(map[common.Address]*uint256.Int),
	}
}

func (m *MockStateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	if m.storage[addr] == nil {
		return common.Hash{}
	}
	return m.storage[addr][key]
}

func (m *MockStateDB) SetState(addr common.Address, key, value common.Hash) common.Hash {
	if m.storage[addr] == nil {
		m.storage[addr] = make(map[common.Hash]common.Hash)
	}
	prev := m.storage[addr][key]
	m.storage[addr][key] = value
	return prev
}

func (m *MockStateDB) GetBalance(addr common.Address) *uint256.Int {
	if bal, ok := m.balances[addr]; ok {
		return bal.Clone()
	}
	return uint256.NewInt(0)
}

func (m *MockStateDB) AddBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) uint256.Int {
	prev := m.GetBalance(addr)
	m.balances[addr] = new(uint256.Int).Add(prev, amount)
	return *prev
}

func (m *MockStateDB) SubBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) uint256.Int {
	prev := m.GetBalance(addr)
	m.balances[addr] = new(uint256.Int).Sub(prev, amount)
	return *prev
}

func (m *MockStateDB) CreateAccount(common.Address) {}
func (m *MockStateDB) Exist(common.Address) bool    { return true }
func (m *MockStateDB) AddLog(log *ethtypes.Log)     { m.logs = append(m.logs, log) }
func (m *MockStateDB) Logs() []*ethtypes.Log        { return m.logs }

func (m *MockStateDB) Snapshot() int {
	snap := mockSnapshot{
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
		balances: make(map[common.Address]*uint256.Int),
		logs:     len(m.logs),
	}
	for addr, slots := range m.storage {
		snap.storage[addr] = make(map[common.Hash]common.Hash, len(slots))
		for k, v := range slots {
			snap.storage[addr][k] = v
		}
	}
	for addr, bal := range m.balances {
		snap.balances[addr] = bal.Clone()
	}
	m.snapshots = append(m.snapshots, snap)
	return len(m.snapshots) - 1
}

func (m *MockStateDB) RevertToSnapshot(id int) {
	snap := m.snapshots[id]
	m.storage = snap.storage
	m.balances = snap.balances
	m.logs = m.logs[:snap.logs]
	m.snapshots = m.snapshots[:id]
}

type mockBlock struct {
	time uint64
}

func (b mockBlock) Number() *big.Int  { return big.NewInt(1) }
func (b mockBlock) Timestamp() uint64 { return b.time }

type mockCall struct {
	from     common.Address
	to       common.Address
	input    []byte
	value    *uint256.Int
	readOnly bool
}

// mockEnv implements contract.AccessibleState. Calls are recorded and
// answered by handler; without a handler every call succeeds with no data.
type mockEnv struct {
	state   *MockStateDB
	block   mockBlock
	calls   []mockCall
	handler func(c mockCall) ([]byte, error)
}

func newMockEnv(time uint64) *mockEnv {
	return &mockEnv{state: NewMockStateDB(), block: mockBlock{time: time}}
}

func (e *mockEnv) GetStateDB() contract.StateDB           { return e.state }
func (e *mockEnv) GetBlockContext() contract.BlockContext { return e.block }

func (e *mockEnv) Call(from, to common.Address, input []byte, value *uint256.Int, readOnly bool) ([]byte, error) {
	c := mockCall{from: from, to: to, input: input, value: value, readOnly: readOnly}
	e.calls = append(e.calls, c)
	if e.handler == nil {
		return nil, nil
	}
	return e.handler(c)
}
