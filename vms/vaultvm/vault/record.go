// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"errors"
	"fmt"
	"math"

	"github.com/holiman/uint256"
	"github.com/luxfi/codec"
	"github.com/luxfi/codec/linearcodec"
	"github.com/luxfi/database"
	"github.com/luxfi/ids"

	safemath "github.com/luxfi/govvault/utils/math"
)

const (
	CodecVersion = 0

	// balanceLen is the width, in bytes, of a stored receipt balance.
	balanceLen = safemath.Uint96Bits / 8
)

var (
	Codec codec.Manager

	errWrongCodecVersion = errors.New("wrong codec version")
)

func init() {
	lc := linearcodec.NewDefault()
	Codec = codec.NewManager(math.MaxInt32)
	if err := Codec.RegisterCodec(CodecVersion, lc); err != nil {
		panic(err)
	}
}

// DepositRecord is what the vault knows about a depositor. A zero Delegate
// means the account never deposited.
type DepositRecord struct {
	Delegate       ids.ShortID  `json:"delegate"`
	ReceiptBalance *uint256.Int `json:"receiptBalance"`
}

type storedRecord struct {
	Delegate ids.ShortID      `serialize:"true"`
	Balance  [balanceLen]byte `serialize:"true"`
}

func getRecord(db database.KeyValueReader, account ids.ShortID) (DepositRecord, error) {
	bytes, err := db.Get(account[:])
	if errors.Is(err, database.ErrNotFound) {
		return DepositRecord{
			ReceiptBalance: new(uint256.Int),
		}, nil
	}
	if err != nil {
		return DepositRecord{}, err
	}

	var stored storedRecord
	version, err := Codec.Unmarshal(bytes, &stored)
	if err != nil {
		return DepositRecord{}, fmt.Errorf("failed to parse deposit of %s: %w", account, err)
	}
	if version != CodecVersion {
		return DepositRecord{}, errWrongCodecVersion
	}
	return DepositRecord{
		Delegate:       stored.Delegate,
		ReceiptBalance: new(uint256.Int).SetBytes(stored.Balance[:]),
	}, nil
}

// putRecord narrows the receipt balance to 96 bits before storing it.
func putRecord(db database.KeyValueWriter, account ids.ShortID, record DepositRecord) error {
	if !safemath.FitsUint96(record.ReceiptBalance) {
		return fmt.Errorf("%w: %s", ErrAmountOverflow, record.ReceiptBalance.Dec())
	}

	stored := storedRecord{
		Delegate: record.Delegate,
	}
	full := record.ReceiptBalance.Bytes32()
	copy(stored.Balance[:], full[len(full)-balanceLen:])

	bytes, err := Codec.Marshal(CodecVersion, &stored)
	if err != nil {
		return err
	}
	return db.Put(account[:], bytes)
}
