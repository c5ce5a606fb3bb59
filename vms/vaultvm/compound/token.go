// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compound

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/ids"

	safemath "github.com/luxfi/govvault/utils/math"
)

const (
	balancePrefix   byte = 'b'
	allowancePrefix byte = 'a'
	supplyPrefix    byte = 's'
)

var ErrZeroAddress = errors.New("zero address")

// Token is an ERC-20 style fungible token.
type Token struct {
	symbol   string
	decimals uint8
	db       database.Database
}

func NewToken(symbol string, decimals uint8, db database.Database) *Token {
	return &Token{
		symbol:   symbol,
		decimals: decimals,
		db:       db,
	}
}

func (t *Token) Symbol() string {
	return t.symbol
}

func (t *Token) Decimals() uint8 {
	return t.decimals
}

func (t *Token) BalanceOf(account ids.ShortID) (*uint256.Int, error) {
	return getAmount(t.db, accountKey(balancePrefix, account))
}

func (t *Token) TotalSupply() (*uint256.Int, error) {
	return getAmount(t.db, []byte{supplyPrefix})
}

func (t *Token) Allowance(owner, spender ids.ShortID) (*uint256.Int, error) {
	return getAmount(t.db, pairKey(allowancePrefix, owner, spender))
}

// Mint creates [amount] new tokens for [to].
func (t *Token) Mint(to ids.ShortID, amount *uint256.Int) error {
	if to == ids.ShortEmpty {
		return ErrZeroAddress
	}
	supply, err := t.TotalSupply()
	if err != nil {
		return err
	}
	supply, err = safemath.Add256(supply, amount)
	if err != nil {
		return err
	}
	balance, err := t.BalanceOf(to)
	if err != nil {
		return err
	}
	balance, err = safemath.Add256(balance, amount)
	if err != nil {
		return err
	}
	if err := putAmount(t.db, []byte{supplyPrefix}, supply); err != nil {
		return err
	}
	return putAmount(t.db, accountKey(balancePrefix, to), balance)
}

// Approve lets [spender] move up to [amount] of [owner]'s tokens.
func (t *Token) Approve(owner, spender ids.ShortID, amount *uint256.Int) error {
	if spender == ids.ShortEmpty {
		return ErrZeroAddress
	}
	return putAmount(t.db, pairKey(allowancePrefix, owner, spender), amount)
}

// Transfer moves [amount] from [from] to [to]. It reports false, without an
// error, when [from] does not hold enough tokens.
func (t *Token) Transfer(from, to ids.ShortID, amount *uint256.Int) (bool, error) {
	if to == ids.ShortEmpty {
		return false, ErrZeroAddress
	}
	fromBalance, err := t.BalanceOf(from)
	if err != nil {
		return false, err
	}
	if fromBalance.Lt(amount) {
		return false, nil
	}
	if from == to {
		return true, nil
	}
	toBalance, err := t.BalanceOf(to)
	if err != nil {
		return false, err
	}
	toBalance, err = safemath.Add256(toBalance, amount)
	if err != nil {
		return false, err
	}
	fromBalance.Sub(fromBalance, amount)
	if err := putAmount(t.db, accountKey(balancePrefix, from), fromBalance); err != nil {
		return false, err
	}
	return true, putAmount(t.db, accountKey(balancePrefix, to), toBalance)
}

// TransferFrom moves [amount] from [from] to [to] on behalf of [spender],
// consuming allowance. It reports false when either the balance or the
// allowance is too small.
func (t *Token) TransferFrom(spender, from, to ids.ShortID, amount *uint256.Int) (bool, error) {
	allowance, err := t.Allowance(from, spender)
	if err != nil {
		return false, err
	}
	if allowance.Lt(amount) {
		return false, nil
	}
	ok, err := t.Transfer(from, to, amount)
	if err != nil || !ok {
		return false, err
	}
	allowance.Sub(allowance, amount)
	return true, putAmount(t.db, pairKey(allowancePrefix, from, spender), allowance)
}
