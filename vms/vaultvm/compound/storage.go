// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compound

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/ids"
)

var errCorruptedAmount = errors.New("stored amount is not 32 bytes")

func getAmount(db database.KeyValueReader, key []byte) (*uint256.Int, error) {
	bytes, err := db.Get(key)
	if errors.Is(err, database.ErrNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes) != 32 {
		return nil, fmt.Errorf("%w: key %x has %d bytes", errCorruptedAmount, key, len(bytes))
	}
	return new(uint256.Int).SetBytes32(bytes), nil
}

func putAmount(db database.KeyValueWriter, key []byte, amount *uint256.Int) error {
	bytes := amount.Bytes32()
	return db.Put(key, bytes[:])
}

func accountKey(prefix byte, account ids.ShortID) []byte {
	key := make([]byte, 0, 1+len(account))
	key = append(key, prefix)
	return append(key, account[:]...)
}

func pairKey(prefix byte, a, b ids.ShortID) []byte {
	key := make([]byte, 0, 1+len(a)+len(b))
	key = append(key, prefix)
	key = append(key, a[:]...)
	return append(key, b[:]...)
}
