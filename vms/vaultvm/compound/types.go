// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package compound is a deterministic, database-backed Compound-style money
// market: an underlying token, a receipt token minted against it and a
// comptroller that lists markets. Every balance lives in the database handed
// to the constructors, so a versioned database rolls it back with the rest of
// the state.
package compound

import (
	"github.com/holiman/uint256"

	safemath "github.com/luxfi/govvault/utils/math"
)

// Result codes returned by market operations. Zero means success.
const (
	NoError                  uint64 = 0
	ComptrollerRejection     uint64 = 3
	MarketNotListed          uint64 = 9
	TokenInsufficientBalance uint64 = 13
	TokenInsufficientCash    uint64 = 14
	TokenTransferInFailed    uint64 = 15
)

const (
	// BlocksPerYear assumes a 14 second average block time.
	BlocksPerYear = 2_252_857

	// ReceiptDecimals matches Compound's cTokens.
	ReceiptDecimals = 8

	// Default rate model parameters, yearly and scaled by 1e18.
	DefaultBaseRate       = 20_000_000_000_000_000    // 2%
	DefaultMultiplier     = 100_000_000_000_000_000   // 10%
	DefaultJumpMultiplier = 3_000_000_000_000_000_000 // 300%
	DefaultKink           = 800_000_000_000_000_000   // 80%
)

// InterestRateModel is a kinked utilization model. Rates are yearly and
// scaled by 1e18.
type InterestRateModel struct {
	BaseRate       *uint256.Int
	Multiplier     *uint256.Int
	JumpMultiplier *uint256.Int
	Kink           *uint256.Int
}

func DefaultInterestRateModel() InterestRateModel {
	return InterestRateModel{
		BaseRate:       uint256.NewInt(DefaultBaseRate),
		Multiplier:     uint256.NewInt(DefaultMultiplier),
		JumpMultiplier: uint256.NewInt(DefaultJumpMultiplier),
		Kink:           uint256.NewInt(DefaultKink),
	}
}

// Utilization returns borrows / (cash + borrows), scaled by 1e18.
func Utilization(cash, borrows *uint256.Int) (*uint256.Int, error) {
	if borrows.IsZero() {
		return new(uint256.Int), nil
	}
	total, err := safemath.Add256(cash, borrows)
	if err != nil {
		return nil, err
	}
	return safemath.ScaledDiv(borrows, total)
}

// BorrowRate returns the yearly borrow rate at [utilization].
func (m InterestRateModel) BorrowRate(utilization *uint256.Int) (*uint256.Int, error) {
	if !utilization.Gt(m.Kink) {
		rate, err := safemath.ScaledMul(utilization, m.Multiplier)
		if err != nil {
			return nil, err
		}
		return safemath.Add256(rate, m.BaseRate)
	}

	normal, err := safemath.ScaledMul(m.Kink, m.Multiplier)
	if err != nil {
		return nil, err
	}
	normal, err = safemath.Add256(normal, m.BaseRate)
	if err != nil {
		return nil, err
	}
	excess := new(uint256.Int).Sub(utilization, m.Kink)
	jump, err := safemath.ScaledMul(excess, m.JumpMultiplier)
	if err != nil {
		return nil, err
	}
	return safemath.Add256(normal, jump)
}

// BorrowRatePerBlock returns the per-block borrow rate at [utilization].
func (m InterestRateModel) BorrowRatePerBlock(utilization *uint256.Int) (*uint256.Int, error) {
	yearly, err := m.BorrowRate(utilization)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Div(yearly, uint256.NewInt(BlocksPerYear)), nil
}
