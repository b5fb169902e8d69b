// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	"github.com/parsdao/p2pswap/contract"
	"github.com/parsdao/p2pswap/swap"
	"github.com/zeebo/blake3"
)

var (
	ErrTokenReverted  = errors.New("token call reverted")
	ErrUnknownMethod  = errors.New("unknown method")
	ErrNotAuthorized  = errors.New("caller is not owner nor approved")
	ErrNonexistent    = errors.New("nonexistent token")
	ErrUnsafeReceiver = errors.New("receiver did not accept tokens")
)

// Storage key prefixes for token state
var (
	balancePrefixKey   = []byte("bal")
	allowancePrefixKey = []byte("alw")
	ownerPrefixKey     = []byte("own")
	approvedPrefixKey  = []byte("apv")
	operatorPrefixKey  = []byte("opr")
)

func tokenSlot(prefix []byte, parts ...[]byte) common.Hash {
	h := blake3.New()
	h.Write(prefix)
	for _, p := range parts {
		h.Write(p)
	}
	var result common.Hash
	copy(result[:], h.Sum(nil))
	return result
}

func loadBig(db contract.StateDB, addr common.Address, key common.Hash) *big.Int {
	v := db.GetState(addr, key)
	return new(big.Int).SetBytes(v[:])
}

func storeBig(db contract.StateDB, addr common.Address, key common.Hash, v *big.Int) {
	db.SetState(addr, key, common.BigToHash(v))
}

func loadBool(db contract.StateDB, addr common.Address, key common.Hash) bool {
	return db.GetState(addr, key) != (common.Hash{})
}

func storeBool(db contract.StateDB, addr common.Address, key common.Hash, v bool) {
	var w common.Hash
	if v {
		w[31] = 1
	}
	db.SetState(addr, key, w)
}

func loadAddress(db contract.StateDB, addr common.Address, key common.Hash) common.Address {
	return common.BytesToAddress(db.GetState(addr, key).Bytes())
}

func storeAddress(db contract.StateDB, addr common.Address, key common.Hash, v common.Address) {
	db.SetState(addr, key, common.BytesToHash(v.Bytes()))
}

// decodeCall resolves input against tokenABI.
func decodeCall(tokenABI contract.ExtendedABI, input []byte) (*abi.Method, []interface{}, error) {
	selector, args, err := contract.SplitSelector(input)
	if err != nil {
		return nil, nil, err
	}
	method, err := tokenABI.MethodById(selector[:])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %x", ErrUnknownMethod, selector)
	}
	values, err := method.Inputs.Unpack(args)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrTokenReverted, method.Name, err)
	}
	return method, values, nil
}

func acceptanceCheck(h *Host, self, to common.Address, receiverABI contract.ExtendedABI, hook string, args ...interface{}) error {
	if !h.HasCode(to) {
		return nil
	}
	input, err := receiverABI.Pack(hook, args...)
	if err != nil {
		return err
	}
	ret, err := h.Call(self, to, input, nil, false)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnsafeReceiver, to, err)
	}
	out, err := receiverABI.Unpack(hook, ret)
	if err != nil || len(out) != 1 {
		return fmt.Errorf("%w: %s returned %x", ErrUnsafeReceiver, to, ret)
	}
	magic, ok := out[0].([4]byte)
	if !ok || magic != receiverABI.Selector(hook) {
		return fmt.Errorf("%w: %s returned %x", ErrUnsafeReceiver, to, ret)
	}
	return nil
}

// Fungible is an ERC-20 token. With Hooked set it behaves like an ERC-777
// token seen through its ERC-20 interface: transfers call tokensToSend on a
// sender with code before moving funds and tokensReceived on a recipient
// with code afterwards.
type Fungible struct {
	Address common.Address

	Hooked bool
	// NoReturn makes transfer and transferFrom return no data.
	NoReturn bool
	// FailSilently makes failed transfers return false instead of reverting.
	FailSilently bool
}

// DeployFungible installs a fungible token at addr.
func DeployFungible(h *Host, addr common.Address) *Fungible {
	t := &Fungible{Address: addr}
	h.Deploy(addr, t)
	return t
}

func (t *Fungible) balanceKey(owner common.Address) common.Hash {
	return tokenSlot(balancePrefixKey, owner[:])
}

func (t *Fungible) allowanceKey(owner, spender common.Address) common.Hash {
	return tokenSlot(allowancePrefixKey, owner[:], spender[:])
}

// Mint credits amount to owner.
func (t *Fungible) Mint(h *Host, owner common.Address, amount *big.Int) {
	h.setup(func(db contract.StateDB) {
		storeBig(db, t.Address, t.balanceKey(owner), new(big.Int).Add(t.BalanceOf(h, owner), amount))
	})
}

// Approve sets the allowance of spender over owner's tokens.
func (t *Fungible) Approve(h *Host, owner, spender common.Address, amount *big.Int) {
	h.setup(func(db contract.StateDB) {
		storeBig(db, t.Address, t.allowanceKey(owner, spender), amount)
	})
}

func (t *Fungible) BalanceOf(h *Host, owner common.Address) *big.Int {
	return loadBig(h.state, t.Address, t.balanceKey(owner))
}

func (t *Fungible) Allowance(h *Host, owner, spender common.Address) *big.Int {
	return loadBig(h.state, t.Address, t.allowanceKey(owner, spender))
}

func (t *Fungible) Run(h *Host, self, caller common.Address, input []byte, value *uint256.Int, readOnly bool) ([]byte, error) {
	if !value.IsZero() {
		return nil, ErrNotPayable
	}
	method, args, err := decodeCall(swap.FungibleABI, input)
	if err != nil {
		return nil, err
	}
	db := h.GetStateDB()

	switch method.Name {
	case "balanceOf":
		return method.Outputs.Pack(loadBig(db, self, t.balanceKey(args[0].(common.Address))))
	case "allowance":
		return method.Outputs.Pack(loadBig(db, self, t.allowanceKey(args[0].(common.Address), args[1].(common.Address))))
	}

	if readOnly {
		return nil, contract.ErrWriteProtection
	}
	switch method.Name {
	case "approve":
		storeBig(db, self, t.allowanceKey(caller, args[0].(common.Address)), args[1].(*big.Int))
		return method.Outputs.Pack(true)
	case "transfer":
		return t.move(h, method, caller, caller, args[0].(common.Address), args[1].(*big.Int))
	case "transferFrom":
		return t.move(h, method, caller, args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method.Name)
	}
}

func (t *Fungible) move(h *Host, method *abi.Method, operator, from, to common.Address, amount *big.Int) ([]byte, error) {
	db := h.GetStateDB()
	fail := func(reason string) ([]byte, error) {
		if t.FailSilently {
			return t.result(method, false)
		}
		return nil, fmt.Errorf("%w: %s", ErrTokenReverted, reason)
	}

	if operator != from {
		allowance := loadBig(db, t.Address, t.allowanceKey(from, operator))
		if allowance.Cmp(amount) < 0 {
			return fail("insufficient allowance")
		}
		storeBig(db, t.Address, t.allowanceKey(from, operator), new(big.Int).Sub(allowance, amount))
	}
	if t.Hooked {
		if err := t.hook(h, from, "tokensToSend", operator, from, to, amount); err != nil {
			return nil, err
		}
	}
	balance := loadBig(db, t.Address, t.balanceKey(from))
	if balance.Cmp(amount) < 0 {
		return fail("insufficient balance")
	}
	storeBig(db, t.Address, t.balanceKey(from), new(big.Int).Sub(balance, amount))
	storeBig(db, t.Address, t.balanceKey(to), new(big.Int).Add(loadBig(db, t.Address, t.balanceKey(to)), amount))
	if t.Hooked {
		if err := t.hook(h, to, "tokensReceived", operator, from, to, amount); err != nil {
			return nil, err
		}
	}
	return t.result(method, true)
}

func (t *Fungible) hook(h *Host, party common.Address, name string, operator, from, to common.Address, amount *big.Int) error {
	if !h.HasCode(party) {
		return nil
	}
	input, err := swap.HookABI.Pack(name, operator, from, to, amount, []byte{}, []byte{})
	if err != nil {
		return err
	}
	if _, err := h.Call(t.Address, party, input, nil, false); err != nil {
		return fmt.Errorf("%w: %s hook: %w", ErrTokenReverted, name, err)
	}
	return nil
}

func (t *Fungible) result(method *abi.Method, ok bool) ([]byte, error) {
	if t.NoReturn {
		return nil, nil
	}
	return method.Outputs.Pack(ok)
}

// NonFungible is an ERC-721 token.
type NonFungible struct {
	Address common.Address
}

// DeployNonFungible installs a non-fungible token at addr.
func DeployNonFungible(h *Host, addr common.Address) *NonFungible {
	t := &NonFungible{Address: addr}
	h.Deploy(addr, t)
	return t
}

func idBytes(id *big.Int) []byte {
	w := common.BigToHash(id)
	return w[:]
}

func (t *NonFungible) ownerKey(id *big.Int) common.Hash {
	return tokenSlot(ownerPrefixKey, idBytes(id))
}

func (t *NonFungible) approvedKey(id *big.Int) common.Hash {
	return tokenSlot(approvedPrefixKey, idBytes(id))
}

func (t *NonFungible) operatorKey(owner, operator common.Address) common.Hash {
	return tokenSlot(operatorPrefixKey, owner[:], operator[:])
}

// Mint creates token id owned by owner.
func (t *NonFungible) Mint(h *Host, owner common.Address, id *big.Int) {
	h.setup(func(db contract.StateDB) {
		storeAddress(db, t.Address, t.ownerKey(id), owner)
	})
}

// Approve approves spender for token id.
func (t *NonFungible) Approve(h *Host, id *big.Int, spender common.Address) {
	h.setup(func(db contract.StateDB) {
		storeAddress(db, t.Address, t.approvedKey(id), spender)
	})
}

// SetApprovalForAll sets operator's rights over all of owner's tokens.
func (t *NonFungible) SetApprovalForAll(h *Host, owner, operator common.Address, approved bool) {
	h.setup(func(db contract.StateDB) {
		storeBool(db, t.Address, t.operatorKey(owner, operator), approved)
	})
}

func (t *NonFungible) OwnerOf(h *Host, id *big.Int) common.Address {
	return loadAddress(h.state, t.Address, t.ownerKey(id))
}

func (t *NonFungible) Run(h *Host, self, caller common.Address, input []byte, value *uint256.Int, readOnly bool) ([]byte, error) {
	if !value.IsZero() {
		return nil, ErrNotPayable
	}
	method, args, err := decodeCall(swap.NonFungibleABI, input)
	if err != nil {
		return nil, err
	}
	db := h.GetStateDB()

	switch method.Name {
	case "ownerOf":
		id := args[0].(*big.Int)
		owner := loadAddress(db, self, t.ownerKey(id))
		if owner == (common.Address{}) {
			return nil, fmt.Errorf("%w: %s", ErrNonexistent, id)
		}
		return method.Outputs.Pack(owner)
	case "getApproved":
		id := args[0].(*big.Int)
		if loadAddress(db, self, t.ownerKey(id)) == (common.Address{}) {
			return nil, fmt.Errorf("%w: %s", ErrNonexistent, id)
		}
		return method.Outputs.Pack(loadAddress(db, self, t.approvedKey(id)))
	case "isApprovedForAll":
		return method.Outputs.Pack(loadBool(db, self, t.operatorKey(args[0].(common.Address), args[1].(common.Address))))
	}

	if readOnly {
		return nil, contract.ErrWriteProtection
	}
	switch method.Name {
	case "approve":
		to, id := args[0].(common.Address), args[1].(*big.Int)
		owner := loadAddress(db, self, t.ownerKey(id))
		if owner != caller && !loadBool(db, self, t.operatorKey(owner, caller)) {
			return nil, ErrNotAuthorized
		}
		storeAddress(db, self, t.approvedKey(id), to)
		return nil, nil
	case "setApprovalForAll":
		storeBool(db, self, t.operatorKey(caller, args[0].(common.Address)), args[1].(bool))
		return nil, nil
	case "safeTransferFrom":
		return nil, t.safeTransferFrom(h, caller, args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method.Name)
	}
}

func (t *NonFungible) safeTransferFrom(h *Host, operator, from, to common.Address, id *big.Int) error {
	db := h.GetStateDB()
	owner := loadAddress(db, t.Address, t.ownerKey(id))
	if owner == (common.Address{}) {
		return fmt.Errorf("%w: %s", ErrNonexistent, id)
	}
	if owner != from {
		return fmt.Errorf("%w: %s does not own %s", ErrTokenReverted, from, id)
	}
	if operator != owner &&
		loadAddress(db, t.Address, t.approvedKey(id)) != operator &&
		!loadBool(db, t.Address, t.operatorKey(owner, operator)) {
		return ErrNotAuthorized
	}
	if to == (common.Address{}) {
		return fmt.Errorf("%w: transfer to the zero address", ErrTokenReverted)
	}
	storeAddress(db, t.Address, t.approvedKey(id), common.Address{})
	storeAddress(db, t.Address, t.ownerKey(id), to)
	return acceptanceCheck(h, t.Address, to, swap.NonFungibleABI, "onERC721Received", operator, from, id, []byte{})
}

// SemiFungible is an ERC-1155 token.
type SemiFungible struct {
	Address common.Address
}

// DeploySemiFungible installs a semi-fungible token at addr.
func DeploySemiFungible(h *Host, addr common.Address) *SemiFungible {
	t := &SemiFungible{Address: addr}
	h.Deploy(addr, t)
	return t
}

func (t *SemiFungible) balanceKey(owner common.Address, id *big.Int) common.Hash {
	return tokenSlot(balancePrefixKey, owner[:], idBytes(id))
}

func (t *SemiFungible) operatorKey(owner, operator common.Address) common.Hash {
	return tokenSlot(operatorPrefixKey, owner[:], operator[:])
}

// Mint credits amount of token id to owner.
func (t *SemiFungible) Mint(h *Host, owner common.Address, id, amount *big.Int) {
	h.setup(func(db contract.StateDB) {
		storeBig(db, t.Address, t.balanceKey(owner, id), new(big.Int).Add(t.BalanceOf(h, owner, id), amount))
	})
}

// SetApprovalForAll sets operator's rights over all of owner's tokens.
func (t *SemiFungible) SetApprovalForAll(h *Host, owner, operator common.Address, approved bool) {
	h.setup(func(db contract.StateDB) {
		storeBool(db, t.Address, t.operatorKey(owner, operator), approved)
	})
}

func (t *SemiFungible) BalanceOf(h *Host, owner common.Address, id *big.Int) *big.Int {
	return loadBig(h.state, t.Address, t.balanceKey(owner, id))
}

func (t *SemiFungible) Run(h *Host, self, caller common.Address, input []byte, value *uint256.Int, readOnly bool) ([]byte, error) {
	if !value.IsZero() {
		return nil, ErrNotPayable
	}
	method, args, err := decodeCall(swap.SemiFungibleABI, input)
	if err != nil {
		return nil, err
	}
	db := h.GetStateDB()

	switch method.Name {
	case "balanceOf":
		return method.Outputs.Pack(loadBig(db, self, t.balanceKey(args[0].(common.Address), args[1].(*big.Int))))
	case "isApprovedForAll":
		return method.Outputs.Pack(loadBool(db, self, t.operatorKey(args[0].(common.Address), args[1].(common.Address))))
	}

	if readOnly {
		return nil, contract.ErrWriteProtection
	}
	switch method.Name {
	case "setApprovalForAll":
		storeBool(db, self, t.operatorKey(caller, args[0].(common.Address)), args[1].(bool))
		return nil, nil
	case "safeTransferFrom":
		return nil, t.safeTransferFrom(h, caller,
			args[0].(common.Address), args[1].(common.Address),
			args[2].(*big.Int), args[3].(*big.Int), args[4].([]byte))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method.Name)
	}
}

func (t *SemiFungible) safeTransferFrom(h *Host, operator, from, to common.Address, id, amount *big.Int, data []byte) error {
	db := h.GetStateDB()
	if operator != from && !loadBool(db, t.Address, t.operatorKey(from, operator)) {
		return ErrNotAuthorized
	}
	if to == (common.Address{}) {
		return fmt.Errorf("%w: transfer to the zero address", ErrTokenReverted)
	}
	balance := loadBig(db, t.Address, t.balanceKey(from, id))
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: insufficient balance for transfer", ErrTokenReverted)
	}
	storeBig(db, t.Address, t.balanceKey(from, id), new(big.Int).Sub(balance, amount))
	storeBig(db, t.Address, t.balanceKey(to, id), new(big.Int).Add(loadBig(db, t.Address, t.balanceKey(to, id)), amount))
	return acceptanceCheck(h, t.Address, to, swap.SemiFungibleABI, "onERC1155Received", operator, from, id, amount, data)
}
