// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaultvm

import (
	stdjson "encoding/json"
	"errors"
	"fmt"

	"github.com/luxfi/ids"

	"github.com/luxfi/govvault/utils/json"
)

var ErrInvalidGenesis = errors.New("invalid genesis")

// Allocation funds an account with underlying at genesis.
type Allocation struct {
	Address ids.ShortID  `json:"address"`
	Amount  json.Uint256 `json:"amount"`
}

type Genesis struct {
	// Vault is the address the vault holds its receipt tokens under.
	Vault ids.ShortID `json:"vault"`
	// Market is the address of the receipt token market.
	Market ids.ShortID `json:"market"`

	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`

	// InitialExchangeRate is the market's underlying per receipt token while
	// it has no supply, in Compound mantissa.
	InitialExchangeRate json.Uint256 `json:"initialExchangeRate"`

	Allocations []Allocation `json:"allocations"`
}

func ParseGenesis(bytes []byte) (*Genesis, error) {
	g := &Genesis{}
	if err := stdjson.Unmarshal(bytes, g); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGenesis, err)
	}
	return g, g.Verify()
}

func (g *Genesis) Verify() error {
	switch {
	case g.Vault == ids.ShortEmpty:
		return fmt.Errorf("%w: missing vault address", ErrInvalidGenesis)
	case g.Market == ids.ShortEmpty:
		return fmt.Errorf("%w: missing market address", ErrInvalidGenesis)
	case g.Vault == g.Market:
		return fmt.Errorf("%w: vault and market share address %s", ErrInvalidGenesis, g.Vault)
	case g.InitialExchangeRate.Value().IsZero():
		return fmt.Errorf("%w: zero initial exchange rate", ErrInvalidGenesis)
	}
	for i, allocation := range g.Allocations {
		if allocation.Address == ids.ShortEmpty {
			return fmt.Errorf("%w: allocation %d has no address", ErrInvalidGenesis, i)
		}
	}
	return nil
}
