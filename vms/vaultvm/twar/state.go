// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package twar

import (
	"errors"
	"fmt"
	"math"

	"github.com/holiman/uint256"
	"github.com/luxfi/codec"
	"github.com/luxfi/codec/linearcodec"
	"github.com/luxfi/database"

	safemath "github.com/luxfi/govvault/utils/math"
)

const CodecVersion = 0

var (
	Codec codec.Manager

	errWrongCodecVersion = errors.New("wrong codec version")
	errCorruptedState    = errors.New("corrupted snapshot buffer")

	metaKey    = []byte("meta")
	slotPrefix = []byte("slot")
)

func init() {
	lc := linearcodec.NewDefault()
	Codec = codec.NewManager(math.MaxInt32)
	if err := Codec.RegisterCodec(CodecVersion, lc); err != nil {
		panic(err)
	}
}

type meta struct {
	WriteIndex    uint64   `serialize:"true"`
	Length        uint64   `serialize:"true"`
	LastUpdatedAt uint64   `serialize:"true"`
	Multiplier    [32]byte `serialize:"true"`
}

type slot struct {
	CumulativeRate [32]byte `serialize:"true"`
	Timestamp      uint64   `serialize:"true"`
}

// state is the in-memory view of the persisted engine state.
type state struct {
	ring          *Ring[Snapshot]
	lastUpdatedAt uint64
	multiplier    *uint256.Int
}

func loadState(db database.KeyValueReader, capacity int) (*state, error) {
	s := &state{
		ring:       NewRing[Snapshot](capacity),
		multiplier: safemath.Scale(),
	}

	bytes, err := db.Get(metaKey)
	if errors.Is(err, database.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	var m meta
	if err := unmarshal(bytes, &m); err != nil {
		return nil, err
	}
	if m.Length > uint64(capacity) || (m.Length > 0 && m.WriteIndex >= m.Length) {
		return nil, fmt.Errorf("%w: length %d, write index %d, capacity %d",
			errCorruptedState, m.Length, m.WriteIndex, capacity)
	}

	for i := uint64(0); i < m.Length; i++ {
		bytes, err := db.Get(slotKey(i))
		if err != nil {
			return nil, fmt.Errorf("failed to load snapshot %d: %w", i, err)
		}
		var sl slot
		if err := unmarshal(bytes, &sl); err != nil {
			return nil, err
		}
		s.ring.Data = append(s.ring.Data, Snapshot{
			CumulativeRate: new(uint256.Int).SetBytes32(sl.CumulativeRate[:]),
			Timestamp:      sl.Timestamp,
		})
	}
	s.ring.Head = int(m.WriteIndex)
	s.lastUpdatedAt = m.LastUpdatedAt
	s.multiplier = new(uint256.Int).SetBytes32(m.Multiplier[:])
	return s, nil
}

// writeSlot persists the snapshot at [index] together with the metadata.
func (s *state) writeSlot(db database.KeyValueWriter, index int) error {
	snapshot := s.ring.At(index)
	slotBytes, err := Codec.Marshal(CodecVersion, &slot{
		CumulativeRate: snapshot.CumulativeRate.Bytes32(),
		Timestamp:      snapshot.Timestamp,
	})
	if err != nil {
		return err
	}
	if err := db.Put(slotKey(uint64(index)), slotBytes); err != nil {
		return err
	}

	metaBytes, err := Codec.Marshal(CodecVersion, &meta{
		WriteIndex:    uint64(s.ring.Head),
		Length:        uint64(s.ring.Len()),
		LastUpdatedAt: s.lastUpdatedAt,
		Multiplier:    s.multiplier.Bytes32(),
	})
	if err != nil {
		return err
	}
	return db.Put(metaKey, metaBytes)
}

func slotKey(index uint64) []byte {
	return append(append([]byte{}, slotPrefix...), database.PackUInt64(index)...)
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
