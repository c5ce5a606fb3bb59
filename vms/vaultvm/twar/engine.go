// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package twar maintains a time-weighted average of a lending market's borrow
// rate and turns it into a voting power multiplier.
//
// Snapshots of the cumulative rate are kept in a fixed-size circular buffer.
// The multiplier is 1e18 minus the annualized average rate over the window
// the buffer covers, saturating at zero.
package twar

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/log"

	safemath "github.com/luxfi/govvault/utils/math"
)

// BlocksPerYear assumes a 14 second average block time.
const BlocksPerYear = 2_252_857

var (
	ErrArithmeticOverflow = safemath.ErrOverflow
	ErrDivisionByZero     = safemath.ErrDivisionByZero
	ErrTimeWentBackwards  = errors.New("timestamp precedes the latest snapshot")
	ErrInvalidConfig      = errors.New("invalid TWAR config")

	blocksPerYear = uint256.NewInt(BlocksPerYear)
)

// RateSource provides the lending market's current borrow rate per block,
// scaled by 1e18.
type RateSource interface {
	BorrowRatePerBlock() (*uint256.Int, error)
}

// Snapshot is a sample of the cumulative borrow rate.
type Snapshot struct {
	CumulativeRate *uint256.Int `json:"cumulativeRate"`
	Timestamp      uint64       `json:"timestamp"`
}

// Change describes a completed update.
type Change struct {
	OldMultiplier  *uint256.Int
	NewMultiplier  *uint256.Int
	AnnualizedRate *uint256.Int
	Snapshot       Snapshot
	WriteIndex     int
	// Length is the number of snapshots in the buffer after the update.
	Length int
}

// View is a read-only copy of the engine state.
type View struct {
	Snapshots     []Snapshot   `json:"snapshots"`
	WriteIndex    int          `json:"writeIndex"`
	LastUpdatedAt uint64       `json:"lastUpdatedAt"`
	Multiplier    *uint256.Int `json:"multiplier"`
}

type Config struct {
	// Period is the minimum number of seconds between two snapshots.
	Period uint64
	// MaxSnapshots bounds the circular buffer.
	MaxSnapshots int
}

func (c Config) Verify() error {
	switch {
	case c.Period == 0:
		return fmt.Errorf("%w: period must be positive", ErrInvalidConfig)
	case c.MaxSnapshots <= 0:
		return fmt.Errorf("%w: max snapshots must be positive", ErrInvalidConfig)
	default:
		return nil
	}
}

// Engine owns the snapshot buffer and the multiplier. All state lives in
// [db]; callers that need atomicity hand in a versioned database.
type Engine struct {
	config Config
	db     database.Database
	rates  RateSource
	log    log.Logger
}

func New(config Config, db database.Database, rates RateSource, logger log.Logger) (*Engine, error) {
	if err := config.Verify(); err != nil {
		return nil, err
	}
	return &Engine{
		config: config,
		db:     db,
		rates:  rates,
		log:    logger,
	}, nil
}

// MaybeUpdate takes a new snapshot if more than one period has passed since
// the last update. It returns nil when nothing changed.
func (e *Engine) MaybeUpdate(now uint64) (*Change, error) {
	s, err := loadState(e.db, e.config.MaxSnapshots)
	if err != nil {
		return nil, err
	}
	nextUpdate, err := safemath.Add(s.lastUpdatedAt, e.config.Period)
	if err != nil {
		return nil, err
	}
	if now <= nextUpdate {
		return nil, nil
	}
	return e.update(s, now)
}

// Update unconditionally takes a new snapshot at [now] and recomputes the
// multiplier.
func (e *Engine) Update(now uint64) (*Change, error) {
	s, err := loadState(e.db, e.config.MaxSnapshots)
	if err != nil {
		return nil, err
	}
	return e.update(s, now)
}

func (e *Engine) update(s *state, now uint64) (*Change, error) {
	rate, err := e.rates.BorrowRatePerBlock()
	if err != nil {
		return nil, fmt.Errorf("failed to read borrow rate: %w", err)
	}

	last, ok := s.ring.Latest()
	if !ok {
		// Bootstrap one period back so the first sample covers a full period.
		start, err := safemath.Sub(now, e.config.Period)
		if err != nil {
			return nil, fmt.Errorf("%w: now %d is before the first period", ErrTimeWentBackwards, now)
		}
		last = Snapshot{
			CumulativeRate: new(uint256.Int),
			Timestamp:      start,
		}
	}

	elapsed, err := safemath.Sub(now, last.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("%w: now %d, latest %d", ErrTimeWentBackwards, now, last.Timestamp)
	}
	accrued, err := safemath.Mul256(rate, uint256.NewInt(elapsed))
	if err != nil {
		return nil, err
	}
	cumulative, err := safemath.Add256(last.CumulativeRate, accrued)
	if err != nil {
		return nil, err
	}
	snapshot := Snapshot{
		CumulativeRate: cumulative,
		Timestamp:      now,
	}

	index := s.ring.Push(snapshot)
	subtract := s.ring.At(s.ring.Oldest())
	if s.ring.Oldest() == index {
		// The window holds a single sample: measure against its predecessor.
		subtract = last
	}

	annualized, err := annualize(snapshot, subtract)
	if err != nil {
		return nil, err
	}

	change := &Change{
		OldMultiplier:  s.multiplier,
		NewMultiplier:  safemath.SaturatingSub256(safemath.Scale(), annualized),
		AnnualizedRate: annualized,
		Snapshot:       snapshot,
		WriteIndex:     index,
		Length:         s.ring.Len(),
	}
	s.multiplier = change.NewMultiplier
	s.lastUpdatedAt = now
	if err := s.writeSlot(e.db, index); err != nil {
		return nil, err
	}

	e.log.Debug("TWAR multiplier updated",
		log.Uint64("timestamp", now),
		log.Int("writeIndex", index),
		log.Int("snapshots", s.ring.Len()),
		log.String("annualizedRate", annualized.Dec()),
		log.String("oldMultiplier", change.OldMultiplier.Dec()),
		log.String("newMultiplier", change.NewMultiplier.Dec()),
	)
	return change, nil
}

// annualize scales the average per-second rate between two snapshots up to
// a yearly rate.
func annualize(newer, older Snapshot) (*uint256.Int, error) {
	if newer.Timestamp == older.Timestamp {
		return nil, fmt.Errorf("%w: snapshots share timestamp %d", ErrDivisionByZero, newer.Timestamp)
	}
	interval, err := safemath.Sub(newer.Timestamp, older.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("%w: %d < %d", ErrTimeWentBackwards, newer.Timestamp, older.Timestamp)
	}
	delta, err := safemath.Sub256(newer.CumulativeRate, older.CumulativeRate)
	if err != nil {
		return nil, fmt.Errorf("%w: cumulative rate decreased", errCorruptedState)
	}
	average, err := safemath.Div256(delta, uint256.NewInt(interval))
	if err != nil {
		return nil, err
	}
	return safemath.Mul256(average, blocksPerYear)
}

// Multiplier returns the current multiplier, scaled by 1e18.
func (e *Engine) Multiplier() (*uint256.Int, error) {
	s, err := loadState(e.db, e.config.MaxSnapshots)
	if err != nil {
		return nil, err
	}
	return s.multiplier, nil
}

// View returns a copy of the snapshot buffer in slot order.
func (e *Engine) View() (View, error) {
	s, err := loadState(e.db, e.config.MaxSnapshots)
	if err != nil {
		return View{}, err
	}
	snapshots := make([]Snapshot, len(s.ring.Data))
	copy(snapshots, s.ring.Data)
	return View{
		Snapshots:     snapshots,
		WriteIndex:    s.ring.Head,
		LastUpdatedAt: s.lastUpdatedAt,
		Multiplier:    s.multiplier,
	}, nil
}

func (e *Engine) Config() Config {
	return e.config
}
