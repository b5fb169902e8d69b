// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package commands

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/luxfi/geth/common"
	"github.com/spf13/viper"

	"github.com/parsdao/p2pswap/swap"
)

// assetTerms is one side of a terms file. Numbers are strings so values
// beyond 64 bits survive the decoder.
type assetTerms struct {
	Type     string `mapstructure:"type"`
	Contract string `mapstructure:"contract"`
	ID       string `mapstructure:"id"`
	Quantity string `mapstructure:"quantity"`
	Value    string `mapstructure:"value"`
}

type termsFile struct {
	Expiry    string     `mapstructure:"expiry"`
	Initiator string     `mapstructure:"initiator"`
	Acceptor  string     `mapstructure:"acceptor"`
	Offered   assetTerms `mapstructure:"initiator_asset"`
	Requested assetTerms `mapstructure:"acceptor_asset"`
}

// LoadTerms reads swap terms from a YAML, JSON or TOML file.
func LoadTerms(path string) (swap.Swap, error) {
	fv := viper.New()
	fv.SetConfigFile(path)
	if err := fv.ReadInConfig(); err != nil {
		return swap.Swap{}, fmt.Errorf("read terms: %w", err)
	}
	var f termsFile
	if err := fv.Unmarshal(&f); err != nil {
		return swap.Swap{}, fmt.Errorf("decode terms: %w", err)
	}
	return f.swap()
}

func (f *termsFile) swap() (swap.Swap, error) {
	var (
		s   swap.Swap
		err error
	)
	if s.ExpiryDate, err = parseNumber("expiry", f.Expiry); err != nil {
		return s, err
	}
	if s.Initiator, err = parseAddress("initiator", f.Initiator); err != nil {
		return s, err
	}
	if s.Acceptor, err = parseAddress("acceptor", f.Acceptor); err != nil {
		return s, err
	}
	if err := f.Offered.into("initiator_asset", &s.InitiatorAssetType, &s.InitiatorAssetContract,
		&s.InitiatorAssetID, &s.InitiatorAssetQuantity, &s.InitiatorValuePortion); err != nil {
		return s, err
	}
	if err := f.Requested.into("acceptor_asset", &s.AcceptorAssetType, &s.AcceptorAssetContract,
		&s.AcceptorAssetID, &s.AcceptorAssetQuantity, &s.AcceptorValuePortion); err != nil {
		return s, err
	}
	if err := s.Check(); err != nil {
		return s, err
	}
	return s, nil
}

func (a *assetTerms) into(field string, t *swap.AssetType, contract *common.Address, id, quantity, value **big.Int) error {
	var err error
	kind := strings.ToUpper(strings.TrimSpace(a.Type))
	if kind == "" {
		kind = swap.AssetTypeNone.String()
	}
	if *t, err = swap.ParseAssetType(kind); err != nil {
		return fmt.Errorf("%s.type: %w", field, err)
	}
	if *contract, err = parseAddress(field+".contract", a.Contract); err != nil {
		return err
	}
	if *id, err = parseNumber(field+".id", a.ID); err != nil {
		return err
	}
	if *quantity, err = parseNumber(field+".quantity", a.Quantity); err != nil {
		return err
	}
	*value, err = parseNumber(field+".value", a.Value)
	return err
}

func parseNumber(field, s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(s, 0)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("%s: invalid number %q", field, s)
	}
	return n, nil
}

func parseAddress(field, s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", field, s)
	}
	return common.HexToAddress(s), nil
}
