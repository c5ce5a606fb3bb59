// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"context"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/govvault/vms/vaultvm/twar"

	safemath "github.com/luxfi/govvault/utils/math"
)

const (
	depositOp  = "deposit"
	withdrawOp = "withdraw"
)

// Deposit pulls [amount] of underlying from [caller], mints receipt tokens
// with it and credits [fundedAccount]. On the account's first deposit its
// delegate becomes [firstDelegation]; later deposits keep the delegate.
//
// Either every step succeeds and all state is committed, or nothing is.
func (v *Vault) Deposit(
	ctx context.Context,
	caller ids.ShortID,
	fundedAccount ids.ShortID,
	amount *uint256.Int,
	firstDelegation ids.ShortID,
) error {
	v.lock.Lock()
	defer v.lock.Unlock()

	change, votes, err := v.deposit(caller, fundedAccount, amount, firstDelegation)
	if err != nil {
		return v.abort(depositOp, fundedAccount, err)
	}
	if err := v.commit(); err != nil {
		return v.abort(depositOp, fundedAccount, err)
	}

	v.metrics.MarkDeposit()
	v.log.Debug("deposited",
		log.Stringer("account", fundedAccount),
		log.Stringer("delegate", votes.To),
		log.String("amount", amount.Dec()),
		log.String("votes", votes.Amount.String()),
	)
	v.publish(ctx, change, votes)
	return nil
}

func (v *Vault) deposit(
	caller ids.ShortID,
	fundedAccount ids.ShortID,
	amount *uint256.Int,
	firstDelegation ids.ShortID,
) (*twar.Change, VotesChanged, error) {
	change, err := v.twar.MaybeUpdate(v.chain.Unix())
	if err != nil {
		return nil, VotesChanged{}, err
	}
	if firstDelegation == ids.ShortEmpty {
		return nil, VotesChanged{}, ErrZeroDelegation
	}

	ok, err := v.underlying.TransferFrom(v.address, caller, v.address, amount)
	if err != nil {
		return nil, VotesChanged{}, err
	}
	if !ok {
		return nil, VotesChanged{}, fmt.Errorf("%w: %s from %s", ErrTransferFailed, amount.Dec(), caller)
	}

	minted, err := v.mint(amount)
	if err != nil {
		return nil, VotesChanged{}, err
	}

	record, err := getRecord(v.deposits, fundedAccount)
	if err != nil {
		return nil, VotesChanged{}, err
	}
	if record.Delegate == ids.ShortEmpty {
		record.Delegate = firstDelegation
	}
	record.ReceiptBalance, err = safemath.Add256(record.ReceiptBalance, minted)
	if err != nil {
		return nil, VotesChanged{}, fmt.Errorf("%w: %w", ErrAmountOverflow, err)
	}
	if err := putRecord(v.deposits, fundedAccount, record); err != nil {
		return nil, VotesChanged{}, err
	}

	weighted, err := v.calculateVotingPower(minted)
	if err != nil {
		return nil, VotesChanged{}, err
	}
	current, err := v.ledger.LoadTop(record.Delegate)
	if err != nil {
		return nil, VotesChanged{}, err
	}
	total, err := safemath.Add256(current, weighted)
	if err != nil {
		return nil, VotesChanged{}, err
	}
	if err := v.ledger.Push(record.Delegate, total, v.chain.Height()); err != nil {
		return nil, VotesChanged{}, err
	}
	return change, VotesChanged{
		From:   fundedAccount,
		To:     record.Delegate,
		Amount: weighted.ToBig(),
	}, nil
}

// mint approves the market and mints receipt tokens with [amount] of
// underlying. It returns the receipt tokens the vault actually received.
func (v *Vault) mint(amount *uint256.Int) (*uint256.Int, error) {
	marketAddress := v.market.Address()
	if err := v.underlying.Approve(v.address, marketAddress, amount); err != nil {
		return nil, err
	}
	before, err := v.market.BalanceOf(v.address)
	if err != nil {
		return nil, err
	}
	code, err := v.market.Mint(v.address, amount)
	if err != nil {
		return nil, err
	}
	if code != 0 {
		return nil, fmt.Errorf("%w: code %d", ErrMintFailed, code)
	}
	after, err := v.market.BalanceOf(v.address)
	if err != nil {
		return nil, err
	}
	return safemath.Sub256(after, before)
}

// Withdraw redeems [receiptAmount] of [account]'s receipt tokens, sends the
// underlying to the account and removes the current voting power of the
// redeemed tokens from its delegate. The delegate's power saturates at zero.
func (v *Vault) Withdraw(ctx context.Context, account ids.ShortID, receiptAmount *uint256.Int) error {
	v.lock.Lock()
	defer v.lock.Unlock()

	votes, err := v.withdraw(account, receiptAmount)
	if err != nil {
		return v.abort(withdrawOp, account, err)
	}
	if err := v.commit(); err != nil {
		return v.abort(withdrawOp, account, err)
	}

	v.metrics.MarkWithdrawal()
	v.log.Debug("withdrew",
		log.Stringer("account", account),
		log.Stringer("delegate", votes.To),
		log.String("receipt", receiptAmount.Dec()),
		log.String("votes", votes.Amount.String()),
	)
	v.publish(ctx, nil, votes)
	return nil
}

func (v *Vault) withdraw(account ids.ShortID, receiptAmount *uint256.Int) (VotesChanged, error) {
	record, err := getRecord(v.deposits, account)
	if err != nil {
		return VotesChanged{}, err
	}
	if record.Delegate == ids.ShortEmpty {
		return VotesChanged{}, fmt.Errorf("%w: %s", ErrNotDeposited, account)
	}
	if record.ReceiptBalance.Lt(receiptAmount) {
		return VotesChanged{}, fmt.Errorf("%w: %s < %s",
			ErrInsufficientReceipt,
			record.ReceiptBalance.Dec(),
			receiptAmount.Dec(),
		)
	}

	weighted, err := v.calculateVotingPower(receiptAmount)
	if err != nil {
		return VotesChanged{}, err
	}

	before, err := v.underlying.BalanceOf(v.address)
	if err != nil {
		return VotesChanged{}, err
	}
	code, err := v.market.Redeem(v.address, receiptAmount)
	if err != nil {
		return VotesChanged{}, err
	}
	if code != 0 {
		return VotesChanged{}, fmt.Errorf("%w: code %d", ErrRedeemFailed, code)
	}
	after, err := v.underlying.BalanceOf(v.address)
	if err != nil {
		return VotesChanged{}, err
	}
	payout, err := safemath.Sub256(after, before)
	if err != nil {
		return VotesChanged{}, err
	}
	ok, err := v.underlying.Transfer(v.address, account, payout)
	if err != nil {
		return VotesChanged{}, err
	}
	if !ok {
		return VotesChanged{}, fmt.Errorf("%w: %s to %s", ErrTransferFailed, payout.Dec(), account)
	}

	record.ReceiptBalance = new(uint256.Int).Sub(record.ReceiptBalance, receiptAmount)
	if err := putRecord(v.deposits, account, record); err != nil {
		return VotesChanged{}, err
	}

	current, err := v.ledger.LoadTop(record.Delegate)
	if err != nil {
		return VotesChanged{}, err
	}
	total := safemath.SaturatingSub256(current, weighted)
	if err := v.ledger.Push(record.Delegate, total, v.chain.Height()); err != nil {
		return VotesChanged{}, err
	}
	removed := new(uint256.Int).Sub(current, total)
	return VotesChanged{
		From:   account,
		To:     record.Delegate,
		Amount: new(big.Int).Neg(removed.ToBig()),
	}, nil
}

func (v *Vault) commit() error {
	return v.db.Commit()
}

func (v *Vault) abort(op string, account ids.ShortID, err error) error {
	v.db.Abort()
	v.metrics.MarkFailed(op)
	v.log.Debug("vault operation aborted",
		log.String("op", op),
		log.Stringer("account", account),
		log.Err(err),
	)
	return err
}

// publish delivers the notifications of a committed operation. The state is
// already committed, so listener failures are only logged.
func (v *Vault) publish(ctx context.Context, change *twar.Change, votes VotesChanged) {
	if change != nil {
		v.metrics.MarkMultiplier(change.NewMultiplier, change.AnnualizedRate, change.Length)
		v.emit(ctx, MultiplierChanged{
			Old: change.OldMultiplier,
			New: change.NewMultiplier,
		})
	}
	v.emit(ctx, votes)
}

func (v *Vault) emit(ctx context.Context, event any) {
	if err := v.emitter.Emit(ctx, event); err != nil {
		v.log.Warn("event listener failed",
			log.String("event", fmt.Sprintf("%T", event)),
			log.Err(err),
		)
	}
}
