// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package swap

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/parsdao/p2pswap/contract"
)

// side is one half of a swap as seen by the strategy table.
type side struct {
	assetType AssetType
	contract  common.Address
	id        *big.Int
	quantity  *big.Int
	value     *big.Int
}

func (s *Swap) initiatorSide() side {
	return side{
		assetType: s.InitiatorAssetType,
		contract:  s.InitiatorAssetContract,
		id:        s.InitiatorAssetID,
		quantity:  s.InitiatorAssetQuantity,
		value:     s.InitiatorValuePortion,
	}
}

func (s *Swap) acceptorSide() side {
	return side{
		assetType: s.AcceptorAssetType,
		contract:  s.AcceptorAssetContract,
		id:        s.AcceptorAssetID,
		quantity:  s.AcceptorAssetQuantity,
		value:     s.AcceptorValuePortion,
	}
}

// validateAsset checks that one side describes something that can be traded.
func validateAsset(t AssetType, assetContract common.Address, valuePortion, quantity *big.Int) error {
	switch t {
	case AssetTypeNone:
		return validateValueOnly(valuePortion)
	case AssetTypeFungible, AssetTypeFungibleHooked:
		return validateFungible(assetContract, quantity)
	case AssetTypeNonFungible:
		return validateNonFungible(assetContract)
	case AssetTypeSemiFungible:
		return validateSemiFungible(assetContract, quantity)
	default:
		return fmt.Errorf("%w: %d", ErrInvalidAssetType, uint8(t))
	}
}

// assetStatus reports whether owner lacks the asset and whether the engine
// lacks the right to move it. It only reads.
func assetStatus(
	env contract.AccessibleState,
	engine common.Address,
	t AssetType,
	assetContract common.Address,
	id *big.Int,
	quantity *big.Int,
	owner common.Address,
) (needsToOwn bool, needsApproval bool, err error) {
	switch t {
	case AssetTypeNone:
		return false, false, nil
	case AssetTypeFungible, AssetTypeFungibleHooked:
		return fungibleStatus(env, engine, assetContract, quantity, owner)
	case AssetTypeNonFungible:
		return nonFungibleStatus(env, engine, assetContract, id, owner)
	case AssetTypeSemiFungible:
		return semiFungibleStatus(env, engine, assetContract, id, quantity, owner)
	default:
		return false, false, fmt.Errorf("%w: %d", ErrInvalidAssetType, uint8(t))
	}
}

// transferAsset moves one side's asset from one party to the other, with the
// engine as the operator.
func transferAsset(
	env contract.AccessibleState,
	engine common.Address,
	t AssetType,
	assetContract common.Address,
	id *big.Int,
	quantity *big.Int,
	from common.Address,
	to common.Address,
) error {
	switch t {
	case AssetTypeNone:
		return nil
	case AssetTypeFungible, AssetTypeFungibleHooked:
		return transferFungible(env, engine, assetContract, quantity, from, to)
	case AssetTypeNonFungible:
		return transferNonFungible(env, engine, assetContract, id, from, to)
	case AssetTypeSemiFungible:
		return transferSemiFungible(env, engine, assetContract, id, quantity, from, to)
	default:
		return fmt.Errorf("%w: %d", ErrInvalidAssetType, uint8(t))
	}
}

// NONE

func validateValueOnly(valuePortion *big.Int) error {
	if valuePortion.Sign() == 0 {
		return ErrValueOrAssetMissing
	}
	return nil
}

// FUNGIBLE and FUNGIBLE_HOOKED

func validateFungible(assetContract common.Address, quantity *big.Int) error {
	if assetContract == (common.Address{}) {
		return ErrZeroAddressForTypedAsset
	}
	if quantity.Sign() == 0 {
		return ErrQuantityRequired
	}
	return nil
}

func fungibleStatus(
	env contract.AccessibleState,
	engine common.Address,
	token common.Address,
	quantity *big.Int,
	owner common.Address,
) (bool, bool, error) {
	balance, err := queryBig(env, engine, token, FungibleABI, "balanceOf", owner)
	if err != nil {
		return false, false, err
	}
	allowance, err := queryBig(env, engine, token, FungibleABI, "allowance", owner, engine)
	if err != nil {
		return false, false, err
	}
	return balance.Cmp(quantity) < 0, allowance.Cmp(quantity) < 0, nil
}

// transferFungible is a safe transferFrom: tokens that return nothing are
// accepted, tokens that return false are not.
func transferFungible(
	env contract.AccessibleState,
	engine common.Address,
	token common.Address,
	quantity *big.Int,
	from common.Address,
	to common.Address,
) error {
	ret, err := callToken(env, engine, token, FungibleABI, false, "transferFrom", from, to, quantity)
	if err != nil {
		return err
	}
	if len(ret) == 0 {
		return nil
	}
	out, err := FungibleABI.Unpack("transferFrom", ret)
	if err != nil {
		return fmt.Errorf("%w: %s: undecodable return %x", ErrAssetTransferFailed, token, ret)
	}
	if ok, _ := out[0].(bool); !ok {
		return fmt.Errorf("%w: %s: transferFrom returned false", ErrAssetTransferFailed, token)
	}
	return nil
}

// NON_FUNGIBLE

func validateNonFungible(assetContract common.Address) error {
	if assetContract == (common.Address{}) {
		return ErrZeroAddressForTypedAsset
	}
	return nil
}

func nonFungibleStatus(
	env contract.AccessibleState,
	engine common.Address,
	token common.Address,
	id *big.Int,
	owner common.Address,
) (bool, bool, error) {
	holder, err := queryAddress(env, engine, token, NonFungibleABI, "ownerOf", id)
	if err != nil {
		return false, false, err
	}
	approved, err := queryAddress(env, engine, token, NonFungibleABI, "getApproved", id)
	if err != nil {
		return false, false, err
	}
	if approved == engine {
		return holder != owner, false, nil
	}
	operator, err := queryBool(env, engine, token, NonFungibleABI, "isApprovedForAll", owner, engine)
	if err != nil {
		return false, false, err
	}
	return holder != owner, !operator, nil
}

func transferNonFungible(
	env contract.AccessibleState,
	engine common.Address,
	token common.Address,
	id *big.Int,
	from common.Address,
	to common.Address,
) error {
	_, err := callToken(env, engine, token, NonFungibleABI, false, "safeTransferFrom", from, to, id)
	return err
}

// SEMI_FUNGIBLE

func validateSemiFungible(assetContract common.Address, quantity *big.Int) error {
	return validateFungible(assetContract, quantity)
}

func semiFungibleStatus(
	env contract.AccessibleState,
	engine common.Address,
	token common.Address,
	id *big.Int,
	quantity *big.Int,
	owner common.Address,
) (bool, bool, error) {
	balance, err := queryBig(env, engine, token, SemiFungibleABI, "balanceOf", owner, id)
	if err != nil {
		return false, false, err
	}
	operator, err := queryBool(env, engine, token, SemiFungibleABI, "isApprovedForAll", owner, engine)
	if err != nil {
		return false, false, err
	}
	return balance.Cmp(quantity) < 0, !operator, nil
}

func transferSemiFungible(
	env contract.AccessibleState,
	engine common.Address,
	token common.Address,
	id *big.Int,
	quantity *big.Int,
	from common.Address,
	to common.Address,
) error {
	_, err := callToken(env, engine, token, SemiFungibleABI, false, "safeTransferFrom", from, to, id, quantity, []byte{})
	return err
}

// Token calls

// callToken issues a message call from the engine to token. Failures of
// mutating calls are reported as ErrAssetTransferFailed, failures of reads
// as ErrAssetQueryFailed; both keep the callee's error.
func callToken(
	env contract.AccessibleState,
	engine common.Address,
	token common.Address,
	tokenABI contract.ExtendedABI,
	readOnly bool,
	method string,
	args ...interface{},
) ([]byte, error) {
	kind := ErrAssetTransferFailed
	if readOnly {
		kind = ErrAssetQueryFailed
	}
	input, err := tokenABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: packing %s: %w", kind, method, err)
	}
	ret, err := env.Call(engine, token, input, nil, readOnly)
	if err != nil {
		return nil, fmt.Errorf("%w: %s.%s: %w", kind, token, method, err)
	}
	return ret, nil
}

func query(
	env contract.AccessibleState,
	engine common.Address,
	token common.Address,
	tokenABI contract.ExtendedABI,
	method string,
	args ...interface{},
) (interface{}, error) {
	ret, err := callToken(env, engine, token, tokenABI, true, method, args...)
	if err != nil {
		return nil, err
	}
	out, err := tokenABI.Unpack(method, ret)
	if err != nil || len(out) != 1 {
		return nil, fmt.Errorf("%w: %s.%s: undecodable return %x", ErrAssetQueryFailed, token, method, ret)
	}
	return out[0], nil
}

func queryBig(env contract.AccessibleState, engine, token common.Address, tokenABI contract.ExtendedABI, method string, args ...interface{}) (*big.Int, error) {
	v, err := query(env, engine, token, tokenABI, method, args...)
	if err != nil {
		return nil, err
	}
	b, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s returned %T", ErrAssetQueryFailed, token, method, v)
	}
	return b, nil
}

func queryAddress(env contract.AccessibleState, engine, token common.Address, tokenABI contract.ExtendedABI, method string, args ...interface{}) (common.Address, error) {
	v, err := query(env, engine, token, tokenABI, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	a, ok := v.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s.%s returned %T", ErrAssetQueryFailed, token, method, v)
	}
	return a, nil
}

func queryBool(env contract.AccessibleState, engine, token common.Address, tokenABI contract.ExtendedABI, method string, args ...interface{}) (bool, error) {
	v, err := query(env, engine, token, tokenABI, method, args...)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s.%s returned %T", ErrAssetQueryFailed, token, method, v)
	}
	return b, nil
}
