// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compound

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	safemath "github.com/luxfi/govvault/utils/math"
)

// 0.02 underlying per receipt token, adjusted for 18 vs 8 decimals.
var testExchangeRate = new(uint256.Int).Mul(uint256.NewInt(2), new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(26)))

func ether(v uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(v), safemath.Scale())
}

func newTestMarket(t *testing.T) (*Token, *Market) {
	db := memdb.New()
	token := NewToken("DAI", 18, db)
	market, err := NewMarket(MarketConfig{
		Address:             ids.GenerateTestShortID(),
		Underlying:          token,
		Model:               DefaultInterestRateModel(),
		InitialExchangeRate: testExchangeRate,
	}, db)
	require.NoError(t, err)
	return token, market
}

func fund(t *testing.T, token *Token, market *Market, account ids.ShortID, amount *uint256.Int) {
	require.NoError(t, token.Mint(account, amount))
	require.NoError(t, token.Approve(account, market.Address(), amount))
}

func TestNewMarketInvalidConfig(t *testing.T) {
	token := NewToken("DAI", 18, memdb.New())
	tests := []struct {
		name   string
		config MarketConfig
	}{
		{
			name: "empty address",
			config: MarketConfig{
				Underlying:          token,
				InitialExchangeRate: testExchangeRate,
			},
		},
		{
			name: "missing underlying",
			config: MarketConfig{
				Address:             ids.GenerateTestShortID(),
				InitialExchangeRate: testExchangeRate,
			},
		},
		{
			name: "zero exchange rate",
			config: MarketConfig{
				Address:             ids.GenerateTestShortID(),
				Underlying:          token,
				InitialExchangeRate: new(uint256.Int),
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewMarket(test.config, memdb.New())
			require.ErrorIs(t, err, ErrInvalidMarketConfig)
		})
	}
}

func TestTokenTransfer(t *testing.T) {
	require := require.New(t)

	token := NewToken("DAI", 18, memdb.New())
	alice := ids.GenerateTestShortID()
	bob := ids.GenerateTestShortID()
	require.NoError(token.Mint(alice, uint256.NewInt(100)))

	ok, err := token.Transfer(alice, bob, uint256.NewInt(101))
	require.NoError(err)
	require.False(ok)

	ok, err = token.Transfer(alice, bob, uint256.NewInt(40))
	require.NoError(err)
	require.True(ok)

	balance, err := token.BalanceOf(bob)
	require.NoError(err)
	require.Equal(uint256.NewInt(40), balance)

	supply, err := token.TotalSupply()
	require.NoError(err)
	require.Equal(uint256.NewInt(100), supply)

	_, err = token.Transfer(alice, ids.ShortEmpty, uint256.NewInt(1))
	require.ErrorIs(err, ErrZeroAddress)
}

func TestTokenTransferFromConsumesAllowance(t *testing.T) {
	require := require.New(t)

	token := NewToken("DAI", 18, memdb.New())
	owner := ids.GenerateTestShortID()
	spender := ids.GenerateTestShortID()
	require.NoError(token.Mint(owner, uint256.NewInt(100)))

	ok, err := token.TransferFrom(spender, owner, spender, uint256.NewInt(1))
	require.NoError(err)
	require.False(ok)

	require.NoError(token.Approve(owner, spender, uint256.NewInt(30)))
	ok, err = token.TransferFrom(spender, owner, spender, uint256.NewInt(20))
	require.NoError(err)
	require.True(ok)

	allowance, err := token.Allowance(owner, spender)
	require.NoError(err)
	require.Equal(uint256.NewInt(10), allowance)

	ok, err = token.TransferFrom(spender, owner, spender, uint256.NewInt(11))
	require.NoError(err)
	require.False(ok)
}

func TestMint(t *testing.T) {
	require := require.New(t)

	token, market := newTestMarket(t)
	alice := ids.GenerateTestShortID()
	fund(t, token, market, alice, ether(1))

	code, err := market.Mint(alice, ether(1))
	require.NoError(err)
	require.Equal(NoError, code)

	// 1e18 * 1e18 / 2e26
	receipt, err := market.BalanceOf(alice)
	require.NoError(err)
	require.Equal(uint256.NewInt(5_000_000_000), receipt)

	cash, err := market.Cash()
	require.NoError(err)
	require.Equal(ether(1), cash)

	rate, err := market.ExchangeRateCurrent()
	require.NoError(err)
	require.Equal(testExchangeRate, rate)
	require.Equal(uint8(ReceiptDecimals), market.Decimals())
}

func TestMintWithoutApproval(t *testing.T) {
	require := require.New(t)

	token, market := newTestMarket(t)
	alice := ids.GenerateTestShortID()
	require.NoError(token.Mint(alice, ether(1)))

	code, err := market.Mint(alice, ether(1))
	require.NoError(err)
	require.Equal(TokenTransferInFailed, code)

	supply, err := market.TotalSupply()
	require.NoError(err)
	require.True(supply.IsZero())
}

func TestRedeem(t *testing.T) {
	require := require.New(t)

	token, market := newTestMarket(t)
	alice := ids.GenerateTestShortID()
	fund(t, token, market, alice, ether(1))
	_, err := market.Mint(alice, ether(1))
	require.NoError(err)

	code, err := market.Redeem(alice, uint256.NewInt(5_000_000_001))
	require.NoError(err)
	require.Equal(TokenInsufficientBalance, code)

	code, err = market.Redeem(alice, uint256.NewInt(5_000_000_000))
	require.NoError(err)
	require.Equal(NoError, code)

	balance, err := token.BalanceOf(alice)
	require.NoError(err)
	require.Equal(ether(1), balance)

	supply, err := market.TotalSupply()
	require.NoError(err)
	require.True(supply.IsZero())
}

func TestRedeemInsufficientCash(t *testing.T) {
	require := require.New(t)

	token, market := newTestMarket(t)
	alice := ids.GenerateTestShortID()
	bob := ids.GenerateTestShortID()
	fund(t, token, market, alice, ether(2))
	_, err := market.Mint(alice, ether(2))
	require.NoError(err)

	code, err := market.Borrow(bob, ether(1))
	require.NoError(err)
	require.Equal(NoError, code)

	code, err = market.Redeem(alice, uint256.NewInt(10_000_000_000))
	require.NoError(err)
	require.Equal(TokenInsufficientCash, code)

	code, err = market.Borrow(bob, ether(2))
	require.NoError(err)
	require.Equal(TokenInsufficientCash, code)
}

func TestBorrowAccruesInterest(t *testing.T) {
	require := require.New(t)

	token, market := newTestMarket(t)
	alice := ids.GenerateTestShortID()
	bob := ids.GenerateTestShortID()
	fund(t, token, market, alice, ether(2))
	_, err := market.Mint(alice, ether(2))
	require.NoError(err)
	require.NoError(market.AccrueInterest(1))

	code, err := market.Borrow(bob, ether(1))
	require.NoError(err)
	require.Equal(NoError, code)

	utilization, err := market.Utilization()
	require.NoError(err)
	require.Equal(new(uint256.Int).Div(safemath.Scale(), uint256.NewInt(2)), utilization)

	rate, err := market.BorrowRatePerBlock()
	require.NoError(err)
	// 2% + 50% * 10% = 7% a year
	require.Equal(new(uint256.Int).Div(uint256.NewInt(70_000_000_000_000_000), uint256.NewInt(BlocksPerYear)), rate)

	before, err := market.ExchangeRateCurrent()
	require.NoError(err)

	require.NoError(market.AccrueInterest(101))
	borrows, err := market.TotalBorrows()
	require.NoError(err)
	interest := new(uint256.Int).Mul(rate, uint256.NewInt(100))
	require.Equal(new(uint256.Int).Add(ether(1), interest), borrows)

	// A single borrower owes the whole market total.
	debt, err := market.BorrowBalance(bob)
	require.NoError(err)
	require.Equal(borrows, debt)

	after, err := market.ExchangeRateCurrent()
	require.NoError(err)
	require.True(after.Gt(before))

	// Same height is a no-op.
	require.NoError(market.AccrueInterest(101))
	again, err := market.TotalBorrows()
	require.NoError(err)
	require.Equal(borrows, again)
}

func TestRepayBorrow(t *testing.T) {
	require := require.New(t)

	token, market := newTestMarket(t)
	alice := ids.GenerateTestShortID()
	bob := ids.GenerateTestShortID()
	fund(t, token, market, alice, ether(2))
	_, err := market.Mint(alice, ether(2))
	require.NoError(err)
	_, err = market.Borrow(bob, ether(1))
	require.NoError(err)

	require.NoError(token.Approve(bob, market.Address(), ether(5)))
	code, err := market.RepayBorrow(bob, ether(5))
	require.NoError(err)
	require.Equal(NoError, code)

	debt, err := market.BorrowBalance(bob)
	require.NoError(err)
	require.True(debt.IsZero())

	cash, err := market.Cash()
	require.NoError(err)
	require.Equal(ether(2), cash)
}

func TestRepayBorrowWithInterest(t *testing.T) {
	require := require.New(t)

	token, market := newTestMarket(t)
	alice := ids.GenerateTestShortID()
	bob := ids.GenerateTestShortID()
	fund(t, token, market, alice, ether(10))
	_, err := market.Mint(alice, ether(10))
	require.NoError(err)
	code, err := market.Borrow(bob, ether(5))
	require.NoError(err)
	require.Equal(NoError, code)

	require.NoError(market.AccrueInterest(1_000_000))
	debt, err := market.BorrowBalance(bob)
	require.NoError(err)
	require.True(debt.Gt(ether(5)))

	require.NoError(token.Mint(bob, ether(10)))
	require.NoError(token.Approve(bob, market.Address(), ether(10)))
	code, err = market.RepayBorrow(bob, ether(10))
	require.NoError(err)
	require.Equal(NoError, code)

	debt, err = market.BorrowBalance(bob)
	require.NoError(err)
	require.True(debt.IsZero())
	borrows, err := market.TotalBorrows()
	require.NoError(err)
	require.True(borrows.IsZero())

	// The interest paid is now cash, so the supplier can leave with all of it.
	receipt, err := market.BalanceOf(alice)
	require.NoError(err)
	code, err = market.Redeem(alice, receipt)
	require.NoError(err)
	require.Equal(NoError, code)

	balance, err := token.BalanceOf(alice)
	require.NoError(err)
	require.True(balance.Gt(ether(10)))
}

func TestPartialRepayKeepsInterest(t *testing.T) {
	require := require.New(t)

	token, market := newTestMarket(t)
	alice := ids.GenerateTestShortID()
	bob := ids.GenerateTestShortID()
	carol := ids.GenerateTestShortID()
	fund(t, token, market, alice, ether(10))
	_, err := market.Mint(alice, ether(10))
	require.NoError(err)
	_, err = market.Borrow(bob, ether(3))
	require.NoError(err)
	_, err = market.Borrow(carol, ether(2))
	require.NoError(err)
	require.NoError(market.AccrueInterest(1_000_000))

	before, err := market.BorrowBalance(bob)
	require.NoError(err)
	require.NoError(token.Approve(bob, market.Address(), ether(1)))
	code, err := market.RepayBorrow(bob, ether(1))
	require.NoError(err)
	require.Equal(NoError, code)

	after, err := market.BorrowBalance(bob)
	require.NoError(err)
	require.True(after.Lt(before))
	require.False(after.Lt(new(uint256.Int).Sub(before, ether(1))))

	// Debts grow by the same factor.
	bobDebt, err := market.BorrowBalance(bob)
	require.NoError(err)
	carolDebt, err := market.BorrowBalance(carol)
	require.NoError(err)
	total, err := market.TotalBorrows()
	require.NoError(err)
	sum := new(uint256.Int).Add(bobDebt, carolDebt)
	require.False(total.Lt(sum))
	require.True(new(uint256.Int).Sub(total, sum).LtUint64(3))
}

func TestBorrowRateModel(t *testing.T) {
	model := DefaultInterestRateModel()
	tests := []struct {
		name        string
		utilization uint64
		expected    uint64
	}{
		{
			name:        "idle",
			utilization: 0,
			expected:    20_000_000_000_000_000,
		},
		{
			name:        "at kink",
			utilization: 800_000_000_000_000_000,
			expected:    100_000_000_000_000_000,
		},
		{
			name:        "above kink",
			utilization: 900_000_000_000_000_000,
			expected:    400_000_000_000_000_000,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rate, err := model.BorrowRate(uint256.NewInt(test.utilization))
			require.NoError(t, err)
			require.Equal(t, uint256.NewInt(test.expected), rate)
		})
	}
}

func TestUtilizationWithoutBorrows(t *testing.T) {
	utilization, err := Utilization(ether(1), new(uint256.Int))
	require.NoError(t, err)
	require.True(t, utilization.IsZero())
}

func TestComptrollerRejectOnFreshComptroller(t *testing.T) {
	require := require.New(t)

	_, market := newTestMarket(t)
	comptroller := NewComptroller(memdb.New())
	comptroller.SupportMarket(market)

	account := ids.GenerateTestShortID()
	comptroller.Reject(account)
	comptroller.Reject(account)
	results, err := comptroller.EnterMarkets(account, []ids.ShortID{market.Address()})
	require.NoError(err)
	require.Equal([]uint64{ComptrollerRejection}, results)
}

func TestEnterMarkets(t *testing.T) {
	require := require.New(t)

	_, market := newTestMarket(t)
	comptroller := NewComptroller(memdb.New())
	comptroller.SupportMarket(market)

	alice := ids.GenerateTestShortID()
	unlisted := ids.GenerateTestShortID()
	results, err := comptroller.EnterMarkets(alice, []ids.ShortID{market.Address(), unlisted})
	require.NoError(err)
	require.Equal([]uint64{NoError, MarketNotListed}, results)

	member, err := comptroller.CheckMembership(alice, market.Address())
	require.NoError(err)
	require.True(member)

	listed, ok := comptroller.Market(market.Address())
	require.True(ok)
	require.Equal(market, listed)

	bob := ids.GenerateTestShortID()
	comptroller.Reject(bob)
	results, err = comptroller.EnterMarkets(bob, []ids.ShortID{market.Address()})
	require.NoError(err)
	require.Equal([]uint64{ComptrollerRejection}, results)

	member, err = comptroller.CheckMembership(bob, market.Address())
	require.NoError(err)
	require.False(member)
}
