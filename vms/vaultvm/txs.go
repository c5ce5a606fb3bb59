// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaultvm

import (
	"errors"
	"fmt"
	"math"

	"github.com/holiman/uint256"
	"github.com/luxfi/codec"
	"github.com/luxfi/codec/linearcodec"
	"github.com/luxfi/crypto/hash"
	"github.com/luxfi/ids"
)

const CodecVersion = 0

const (
	approveOp  = "approve"
	depositOp  = "deposit"
	withdrawOp = "withdraw"
	pruneOp    = "prune"
	borrowOp   = "borrow"
	repayOp    = "repay"
)

var (
	Codec codec.Manager

	errWrongCodecVersion = errors.New("wrong codec version")

	_ Tx = (*ApproveTx)(nil)
	_ Tx = (*DepositTx)(nil)
	_ Tx = (*WithdrawTx)(nil)
	_ Tx = (*PruneTx)(nil)
	_ Tx = (*BorrowTx)(nil)
	_ Tx = (*RepayTx)(nil)
)

func init() {
	Codec = codec.NewManager(math.MaxInt32)
	lc := linearcodec.NewDefault()

	err := errors.Join(
		lc.RegisterType(&ApproveTx{}),
		lc.RegisterType(&DepositTx{}),
		lc.RegisterType(&WithdrawTx{}),
		lc.RegisterType(&PruneTx{}),
		lc.RegisterType(&BorrowTx{}),
		lc.RegisterType(&RepayTx{}),
		Codec.RegisterCodec(CodecVersion, lc),
	)
	if err != nil {
		panic(err)
	}
}

// Tx is an operation included in a block.
type Tx interface {
	// Op names the operation in logs and block results.
	Op() string
}

// ApproveTx lets the vault pull [Amount] of the owner's underlying.
type ApproveTx struct {
	Owner  ids.ShortID `serialize:"true" json:"owner"`
	Amount [32]byte    `serialize:"true" json:"amount"`
}

func (*ApproveTx) Op() string {
	return approveOp
}

type DepositTx struct {
	Caller          ids.ShortID `serialize:"true" json:"caller"`
	FundedAccount   ids.ShortID `serialize:"true" json:"fundedAccount"`
	Amount          [32]byte    `serialize:"true" json:"amount"`
	FirstDelegation ids.ShortID `serialize:"true" json:"firstDelegation"`
}

func (*DepositTx) Op() string {
	return depositOp
}

type WithdrawTx struct {
	Account       ids.ShortID `serialize:"true" json:"account"`
	ReceiptAmount [32]byte    `serialize:"true" json:"receiptAmount"`
}

func (*WithdrawTx) Op() string {
	return withdrawOp
}

// PruneTx drops the stale checkpoints of a delegate.
type PruneTx struct {
	Delegate ids.ShortID `serialize:"true" json:"delegate"`
}

func (*PruneTx) Op() string {
	return pruneOp
}

// BorrowTx borrows cash from the market, moving its utilization and so its
// borrow rate.
type BorrowTx struct {
	Borrower ids.ShortID `serialize:"true" json:"borrower"`
	Amount   [32]byte    `serialize:"true" json:"amount"`
}

func (*BorrowTx) Op() string {
	return borrowOp
}

type RepayTx struct {
	Borrower ids.ShortID `serialize:"true" json:"borrower"`
	Amount   [32]byte    `serialize:"true" json:"amount"`
}

func (*RepayTx) Op() string {
	return repayOp
}

// Amount encodes [v] the way transactions carry amounts.
func Amount(v *uint256.Int) [32]byte {
	return v.Bytes32()
}

func amount(b [32]byte) *uint256.Int {
	return new(uint256.Int).SetBytes32(b[:])
}

// MarshalTx returns the bytes of [tx] as carried in a block.
func MarshalTx(tx Tx) ([]byte, error) {
	return Codec.Marshal(CodecVersion, &tx)
}

// ParseTx decodes a transaction and returns it with its ID.
func ParseTx(bytes []byte) (Tx, ids.ID, error) {
	var tx Tx
	version, err := Codec.Unmarshal(bytes, &tx)
	if err != nil {
		return nil, ids.Empty, err
	}
	if version != CodecVersion {
		return nil, ids.Empty, fmt.Errorf("%w: %d", errWrongCodecVersion, version)
	}
	return tx, hash.ComputeHash256Array(bytes), nil
}
