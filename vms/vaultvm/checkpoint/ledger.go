// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package checkpoint keeps, per delegate, an append-only history of
// (block number, value) pairs that can be queried at any past block.
package checkpoint

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/ids"
)

var (
	ErrInvalidQuery      = errors.New("invalid query: block number is in the future")
	ErrNonMonotonic      = errors.New("checkpoint block number is below the latest checkpoint")
	errWrongCodecVersion = errors.New("wrong codec version")

	headerKey = []byte("header")
)

// Checkpoint is the value of a key as of a block.
type Checkpoint struct {
	BlockNumber uint64
	Value       *uint256.Int
}

// header tracks the live window [Start, Length) of a key's entries. Entries
// below Start have been pruned.
type header struct {
	Start  uint64 `serialize:"true"`
	Length uint64 `serialize:"true"`
}

type record struct {
	BlockNumber uint64   `serialize:"true"`
	Value       [32]byte `serialize:"true"`
}

// Ledger stores the checkpoint histories of all keys under one database.
// Every key gets its own prefix so histories never interleave.
type Ledger struct {
	db database.Database
}

func New(db database.Database) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) keyDB(key ids.ShortID) database.Database {
	return prefixdb.New(key[:], l.db)
}

// Push records [value] for [key] at block [height]. A second push in the same
// block overwrites the first one.
func (l *Ledger) Push(key ids.ShortID, value *uint256.Int, height uint64) error {
	db := l.keyDB(key)
	h, err := getHeader(db)
	if err != nil {
		return err
	}

	index := h.Length
	if h.Length > h.Start {
		top, err := getRecord(db, h.Length-1)
		if err != nil {
			return err
		}
		switch {
		case top.BlockNumber == height:
			index = h.Length - 1
		case top.BlockNumber > height:
			return fmt.Errorf("%w: pushing %d after %d", ErrNonMonotonic, height, top.BlockNumber)
		}
	}

	if err := putRecord(db, index, record{BlockNumber: height, Value: value.Bytes32()}); err != nil {
		return err
	}
	if index == h.Length {
		h.Length++
		return putHeader(db, h)
	}
	return nil
}

// Latest returns the most recent checkpoint of [key]. The boolean is false
// when [key] has no checkpoints.
func (l *Ledger) Latest(key ids.ShortID) (Checkpoint, bool, error) {
	db := l.keyDB(key)
	h, err := getHeader(db)
	if err != nil || h.Length == h.Start {
		return Checkpoint{}, false, err
	}
	r, err := getRecord(db, h.Length-1)
	if err != nil {
		return Checkpoint{}, false, err
	}
	return r.checkpoint(), true, nil
}

// LoadTop returns the current value of [key], or zero if it was never pushed.
func (l *Ledger) LoadTop(key ids.ShortID) (*uint256.Int, error) {
	c, ok, err := l.Latest(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	return c.Value, nil
}

// Find returns the value of [key] as of [blockNumber]: the value of the last
// checkpoint at or before that block, or zero if there is none. [height] is the
// current chain height; querying past it fails with ErrInvalidQuery.
func (l *Ledger) Find(key ids.ShortID, blockNumber, height uint64) (*uint256.Int, error) {
	if blockNumber > height {
		return nil, fmt.Errorf("%w: block %d > height %d", ErrInvalidQuery, blockNumber, height)
	}

	db := l.keyDB(key)
	h, err := getHeader(db)
	if err != nil {
		return nil, err
	}
	index, found, err := search(db, h, blockNumber)
	if err != nil || !found {
		return new(uint256.Int), err
	}
	r, err := getRecord(db, index)
	if err != nil {
		return nil, err
	}
	return r.checkpoint().Value, nil
}

// History returns the live checkpoints of [key], oldest first.
func (l *Ledger) History(key ids.ShortID) ([]Checkpoint, error) {
	db := l.keyDB(key)
	h, err := getHeader(db)
	if err != nil {
		return nil, err
	}
	checkpoints := make([]Checkpoint, 0, h.Length-h.Start)
	for i := h.Start; i < h.Length; i++ {
		r, err := getRecord(db, i)
		if err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, r.checkpoint())
	}
	return checkpoints, nil
}

// Prune drops the entries of [key] that can no longer answer a query for a
// block within [staleBlockLag] of the latest checkpoint. The newest entry at
// or before that boundary is kept, so Find is unchanged for every block from
// the boundary on. It returns the number of removed entries.
func (l *Ledger) Prune(key ids.ShortID, staleBlockLag uint64) (uint64, error) {
	db := l.keyDB(key)
	h, err := getHeader(db)
	if err != nil || h.Length == h.Start {
		return 0, err
	}
	top, err := getRecord(db, h.Length-1)
	if err != nil {
		return 0, err
	}
	if top.BlockNumber < staleBlockLag {
		return 0, nil
	}

	anchor, found, err := search(db, h, top.BlockNumber-staleBlockLag)
	if err != nil || !found || anchor == h.Start {
		return 0, err
	}

	for i := h.Start; i < anchor; i++ {
		if err := db.Delete(database.PackUInt64(i)); err != nil {
			return 0, err
		}
	}
	pruned := anchor - h.Start
	h.Start = anchor
	return pruned, putHeader(db, h)
}

// search returns the index of the last entry with a block number at or
// before [blockNumber].
func search(db database.KeyValueReader, h header, blockNumber uint64) (uint64, bool, error) {
	low, high := h.Start, h.Length
	for low < high {
		mid := low + (high-low)/2
		r, err := getRecord(db, mid)
		if err != nil {
			return 0, false, err
		}
		if r.BlockNumber > blockNumber {
			high = mid
		} else {
			low = mid + 1
		}
	}
	if low == h.Start {
		return 0, false, nil
	}
	return low - 1, true, nil
}

func (r record) checkpoint() Checkpoint {
	return Checkpoint{
		BlockNumber: r.BlockNumber,
		Value:       new(uint256.Int).SetBytes32(r.Value[:]),
	}
}

func getHeader(db database.KeyValueReader) (header, error) {
	bytes, err := db.Get(headerKey)
	if errors.Is(err, database.ErrNotFound) {
		return header{}, nil
	}
	if err != nil {
		return header{}, err
	}
	var h header
	if err := unmarshal(bytes, &h); err != nil {
		return header{}, err
	}
	return h, nil
}

func putHeader(db database.KeyValueWriter, h header) error {
	bytes, err := Codec.Marshal(CodecVersion, &h)
	if err != nil {
		return err
	}
	return db.Put(headerKey, bytes)
}

func getRecord(db database.KeyValueReader, index uint64) (record, error) {
	bytes, err := db.Get(database.PackUInt64(index))
	if err != nil {
		return record{}, fmt.Errorf("failed to load checkpoint %d: %w", index, err)
	}
	var r record
	if err := unmarshal(bytes, &r); err != nil {
		return record{}, err
	}
	return r, nil
}

func putRecord(db database.KeyValueWriter, index uint64, r record) error {
	bytes, err := Codec.Marshal(CodecVersion, &r)
	if err != nil {
		return err
	}
	return db.Put(database.PackUInt64(index), bytes)
}

func unmarshal(bytes []byte, dest interface{}) error {
	version, err := Codec.Unmarshal(bytes, dest)
	if err != nil {
		return err
	}
	if version != CodecVersion {
		return errWrongCodecVersion
	}
	return nil
}
