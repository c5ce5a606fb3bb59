// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compound

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/ids"

	safemath "github.com/luxfi/govvault/utils/math"
)

const (
	receiptPrefix byte = 'r'
	debtPrefix    byte = 'd'
)

var (
	ErrInvalidMarketConfig = errors.New("invalid market config")

	totalSupplyKey        = []byte("totalSupply")
	totalScaledBorrowsKey = []byte("totalScaledBorrows")
	borrowIndexKey        = []byte("borrowIndex")
	accrualBlockKey       = []byte("accrualBlock")
)

// MarketConfig describes a receipt token market.
type MarketConfig struct {
	Address    ids.ShortID
	Underlying *Token
	Model      InterestRateModel
	// InitialExchangeRate is used while no receipt tokens exist. It converts
	// receipt units to underlying units and is scaled by 1e18.
	InitialExchangeRate *uint256.Int
}

// Market is a receipt token backed by deposits of an underlying token.
// Exchange rate and borrow rate follow Compound's cToken:
//
//	exchangeRate = (cash + totalBorrows) * 1e18 / totalSupply
//	borrowRatePerBlock = model.BorrowRate(utilization) / BlocksPerYear
//
// Debts are stored divided by the borrow index at the time they were taken,
// so accruing interest only grows the index:
//
//	borrowBalance = scaledDebt * borrowIndex / 1e18
//	totalBorrows = totalScaledDebt * borrowIndex / 1e18
type Market struct {
	config MarketConfig
	db     database.Database
}

func NewMarket(config MarketConfig, db database.Database) (*Market, error) {
	switch {
	case config.Address == ids.ShortEmpty:
		return nil, fmt.Errorf("%w: empty address", ErrInvalidMarketConfig)
	case config.Underlying == nil:
		return nil, fmt.Errorf("%w: missing underlying", ErrInvalidMarketConfig)
	case config.InitialExchangeRate == nil || config.InitialExchangeRate.IsZero():
		return nil, fmt.Errorf("%w: zero initial exchange rate", ErrInvalidMarketConfig)
	}
	return &Market{
		config: config,
		db:     db,
	}, nil
}

func (m *Market) Address() ids.ShortID {
	return m.config.Address
}

func (m *Market) Underlying() *Token {
	return m.config.Underlying
}

func (*Market) Decimals() uint8 {
	return ReceiptDecimals
}

func (m *Market) BalanceOf(account ids.ShortID) (*uint256.Int, error) {
	return getAmount(m.db, accountKey(receiptPrefix, account))
}

// BorrowBalance returns the debt of [account], interest included.
func (m *Market) BorrowBalance(account ids.ShortID) (*uint256.Int, error) {
	scaled, err := getAmount(m.db, accountKey(debtPrefix, account))
	if err != nil {
		return nil, err
	}
	return m.unscale(scaled)
}

func (m *Market) TotalSupply() (*uint256.Int, error) {
	return getAmount(m.db, totalSupplyKey)
}

func (m *Market) TotalBorrows() (*uint256.Int, error) {
	scaled, err := getAmount(m.db, totalScaledBorrowsKey)
	if err != nil {
		return nil, err
	}
	return m.unscale(scaled)
}

// BorrowIndex is the accumulated interest factor since the market opened,
// scaled by 1e18.
func (m *Market) BorrowIndex() (*uint256.Int, error) {
	index, err := getAmount(m.db, borrowIndexKey)
	if err != nil {
		return nil, err
	}
	if index.IsZero() {
		return safemath.Scale(), nil
	}
	return index, nil
}

func (m *Market) unscale(scaled *uint256.Int) (*uint256.Int, error) {
	index, err := m.BorrowIndex()
	if err != nil {
		return nil, err
	}
	return safemath.ScaledMul(scaled, index)
}

// Cash is the underlying held by the market.
func (m *Market) Cash() (*uint256.Int, error) {
	return m.config.Underlying.BalanceOf(m.config.Address)
}

func (m *Market) ExchangeRateCurrent() (*uint256.Int, error) {
	supply, err := m.TotalSupply()
	if err != nil {
		return nil, err
	}
	if supply.IsZero() {
		return m.config.InitialExchangeRate.Clone(), nil
	}
	cash, err := m.Cash()
	if err != nil {
		return nil, err
	}
	borrows, err := m.TotalBorrows()
	if err != nil {
		return nil, err
	}
	assets, err := safemath.Add256(cash, borrows)
	if err != nil {
		return nil, err
	}
	return safemath.ScaledDiv(assets, supply)
}

func (m *Market) Utilization() (*uint256.Int, error) {
	cash, err := m.Cash()
	if err != nil {
		return nil, err
	}
	borrows, err := m.TotalBorrows()
	if err != nil {
		return nil, err
	}
	return Utilization(cash, borrows)
}

func (m *Market) BorrowRatePerBlock() (*uint256.Int, error) {
	utilization, err := m.Utilization()
	if err != nil {
		return nil, err
	}
	return m.config.Model.BorrowRatePerBlock(utilization)
}

// Mint pulls [amount] of underlying from [minter], which must have approved
// the market, and credits the minter with receipt tokens at the current
// exchange rate.
func (m *Market) Mint(minter ids.ShortID, amount *uint256.Int) (uint64, error) {
	rate, err := m.ExchangeRateCurrent()
	if err != nil {
		return NoError, err
	}
	minted, err := safemath.ScaledDiv(amount, rate)
	if err != nil {
		return NoError, err
	}

	ok, err := m.config.Underlying.TransferFrom(m.config.Address, minter, m.config.Address, amount)
	if err != nil {
		return NoError, err
	}
	if !ok {
		return TokenTransferInFailed, nil
	}
	return NoError, m.adjust(receiptPrefix, totalSupplyKey, minter, minted, true)
}

// Redeem burns [receiptAmount] of [redeemer]'s receipt tokens and pays out
// the underlying at the current exchange rate.
func (m *Market) Redeem(redeemer ids.ShortID, receiptAmount *uint256.Int) (uint64, error) {
	balance, err := m.BalanceOf(redeemer)
	if err != nil {
		return NoError, err
	}
	if balance.Lt(receiptAmount) {
		return TokenInsufficientBalance, nil
	}
	rate, err := m.ExchangeRateCurrent()
	if err != nil {
		return NoError, err
	}
	payout, err := safemath.ScaledMul(receiptAmount, rate)
	if err != nil {
		return NoError, err
	}
	cash, err := m.Cash()
	if err != nil {
		return NoError, err
	}
	if cash.Lt(payout) {
		return TokenInsufficientCash, nil
	}

	if err := m.adjust(receiptPrefix, totalSupplyKey, redeemer, receiptAmount, false); err != nil {
		return NoError, err
	}
	if _, err := m.config.Underlying.Transfer(m.config.Address, redeemer, payout); err != nil {
		return NoError, err
	}
	return NoError, nil
}

// Borrow lends [amount] of cash to [borrower]. Collateral is not checked:
// the market only needs borrows to move utilization.
func (m *Market) Borrow(borrower ids.ShortID, amount *uint256.Int) (uint64, error) {
	cash, err := m.Cash()
	if err != nil {
		return NoError, err
	}
	if cash.Lt(amount) {
		return TokenInsufficientCash, nil
	}
	index, err := m.BorrowIndex()
	if err != nil {
		return NoError, err
	}
	// Rounded up so the recorded debt is never below what was lent.
	scaled, err := ceilScaledDiv(amount, index)
	if err != nil {
		return NoError, err
	}
	if err := m.adjust(debtPrefix, totalScaledBorrowsKey, borrower, scaled, true); err != nil {
		return NoError, err
	}
	if _, err := m.config.Underlying.Transfer(m.config.Address, borrower, amount); err != nil {
		return NoError, err
	}
	return NoError, nil
}

// RepayBorrow returns up to [amount] of [borrower]'s debt, interest
// included. Paying at least the whole balance clears the debt.
func (m *Market) RepayBorrow(borrower ids.ShortID, amount *uint256.Int) (uint64, error) {
	key := accountKey(debtPrefix, borrower)
	scaledDebt, err := getAmount(m.db, key)
	if err != nil {
		return NoError, err
	}
	debt, err := m.unscale(scaledDebt)
	if err != nil {
		return NoError, err
	}

	repaid := scaledDebt
	if debt.Gt(amount) {
		index, err := m.BorrowIndex()
		if err != nil {
			return NoError, err
		}
		// Rounded down so a partial payment never clears more than it paid.
		if repaid, err = safemath.ScaledDiv(amount, index); err != nil {
			return NoError, err
		}
	} else {
		amount = debt
	}

	ok, err := m.config.Underlying.TransferFrom(m.config.Address, borrower, m.config.Address, amount)
	if err != nil {
		return NoError, err
	}
	if !ok {
		return TokenTransferInFailed, nil
	}
	return NoError, m.adjust(debtPrefix, totalScaledBorrowsKey, borrower, repaid, false)
}

// AccrueInterest grows the borrow index by the per-block borrow rate for
// every block since the last accrual. Every open debt, and with it the
// exchange rate for suppliers, grows by the same factor.
func (m *Market) AccrueInterest(height uint64) error {
	last, err := m.accrualBlock()
	if err != nil {
		return err
	}
	if height <= last {
		return nil
	}

	scaled, err := getAmount(m.db, totalScaledBorrowsKey)
	if err != nil {
		return err
	}
	if !scaled.IsZero() {
		rate, err := m.BorrowRatePerBlock()
		if err != nil {
			return err
		}
		factor, err := safemath.Mul256(rate, uint256.NewInt(height-last))
		if err != nil {
			return err
		}
		index, err := m.BorrowIndex()
		if err != nil {
			return err
		}
		growth, err := safemath.ScaledMul(index, factor)
		if err != nil {
			return err
		}
		index, err = safemath.Add256(index, growth)
		if err != nil {
			return err
		}
		if err := putAmount(m.db, borrowIndexKey, index); err != nil {
			return err
		}
	}
	return database.PutUInt64(m.db, accrualBlockKey, height)
}

func (m *Market) accrualBlock() (uint64, error) {
	height, err := database.GetUInt64(m.db, accrualBlockKey)
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	return height, err
}

// adjust moves an account balance and the matching total in the same
// direction.
func (m *Market) adjust(prefix byte, totalKey []byte, account ids.ShortID, amount *uint256.Int, increase bool) error {
	key := accountKey(prefix, account)
	balance, err := getAmount(m.db, key)
	if err != nil {
		return err
	}
	total, err := getAmount(m.db, totalKey)
	if err != nil {
		return err
	}
	if increase {
		if balance, err = safemath.Add256(balance, amount); err != nil {
			return err
		}
		if total, err = safemath.Add256(total, amount); err != nil {
			return err
		}
	} else {
		if balance, err = safemath.Sub256(balance, amount); err != nil {
			return err
		}
		if total, err = safemath.Sub256(total, amount); err != nil {
			return err
		}
	}
	if err := putAmount(m.db, key, balance); err != nil {
		return err
	}
	return putAmount(m.db, totalKey, total)
}

// ceilScaledDiv returns a*1e18/b rounded up.
func ceilScaledDiv(a, b *uint256.Int) (*uint256.Int, error) {
	if b.IsZero() {
		return nil, safemath.ErrDivisionByZero
	}
	numerator, err := safemath.Mul256(a, safemath.Scale())
	if err != nil {
		return nil, err
	}
	quotient, remainder := new(uint256.Int).DivMod(numerator, b, new(uint256.Int))
	if !remainder.IsZero() {
		quotient.AddUint64(quotient, 1)
	}
	return quotient, nil
}
