// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package twar

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	safemath "github.com/luxfi/govvault/utils/math"
)

const testPeriod = 60

var errRateUnavailable = errors.New("rate unavailable")

type testRates struct {
	rate *uint256.Int
	err  error
}

func (r *testRates) BorrowRatePerBlock() (*uint256.Int, error) {
	return r.rate, r.err
}

func newTestEngine(t *testing.T, db database.Database, maxSnapshots int, rates RateSource) *Engine {
	engine, err := New(Config{
		Period:       testPeriod,
		MaxSnapshots: maxSnapshots,
	}, db, rates, log.NewNoOpLogger())
	require.NoError(t, err)
	return engine
}

func expectedMultiplier(averageRate uint64) *uint256.Int {
	annualized := new(uint256.Int).Mul(uint256.NewInt(averageRate), uint256.NewInt(BlocksPerYear))
	return safemath.SaturatingSub256(safemath.Scale(), annualized)
}

func TestConfigVerify(t *testing.T) {
	require := require.New(t)

	require.NoError(Config{Period: 1, MaxSnapshots: 1}.Verify())
	require.ErrorIs(Config{Period: 0, MaxSnapshots: 1}.Verify(), ErrInvalidConfig)
	require.ErrorIs(Config{Period: 1, MaxSnapshots: 0}.Verify(), ErrInvalidConfig)
}

func TestInitialMultiplier(t *testing.T) {
	require := require.New(t)

	engine := newTestEngine(t, memdb.New(), 3, &testRates{rate: uint256.NewInt(1)})
	multiplier, err := engine.Multiplier()
	require.NoError(err)
	require.Equal(safemath.Scale(), multiplier)

	view, err := engine.View()
	require.NoError(err)
	require.Empty(view.Snapshots)
	require.Zero(view.LastUpdatedAt)
}

func TestFirstUpdateBootstraps(t *testing.T) {
	require := require.New(t)

	rates := &testRates{rate: uint256.NewInt(1_000_000_000)}
	engine := newTestEngine(t, memdb.New(), 3, rates)

	change, err := engine.MaybeUpdate(1_000)
	require.NoError(err)
	require.NotNil(change)
	require.Equal(safemath.Scale(), change.OldMultiplier)
	require.Equal(expectedMultiplier(1_000_000_000), change.NewMultiplier)
	require.Zero(change.WriteIndex)
	require.Equal(uint64(1_000), change.Snapshot.Timestamp)
	require.Equal(uint256.NewInt(60*1_000_000_000), change.Snapshot.CumulativeRate)

	view, err := engine.View()
	require.NoError(err)
	require.Len(view.Snapshots, 1)
	require.Equal(uint64(1_000), view.LastUpdatedAt)
	require.Equal(change.NewMultiplier, view.Multiplier)
}

func TestMaybeUpdateWithinPeriodIsNoop(t *testing.T) {
	require := require.New(t)

	rates := &testRates{rate: uint256.NewInt(1_000_000_000)}
	engine := newTestEngine(t, memdb.New(), 3, rates)

	_, err := engine.MaybeUpdate(1_000)
	require.NoError(err)
	before, err := engine.View()
	require.NoError(err)

	rates.rate = uint256.NewInt(5_000_000_000)
	change, err := engine.MaybeUpdate(1_000 + testPeriod)
	require.NoError(err)
	require.Nil(change)

	after, err := engine.View()
	require.NoError(err)
	require.Equal(before, after)

	change, err = engine.MaybeUpdate(1_000 + testPeriod + 1)
	require.NoError(err)
	require.NotNil(change)
}

func TestMaybeUpdateBeforeFirstPeriod(t *testing.T) {
	require := require.New(t)

	engine := newTestEngine(t, memdb.New(), 3, &testRates{rate: uint256.NewInt(1)})
	change, err := engine.MaybeUpdate(testPeriod)
	require.NoError(err)
	require.Nil(change)

	_, err = engine.Update(testPeriod - 1)
	require.ErrorIs(err, ErrTimeWentBackwards)
}

func TestAverageAgainstFirstSnapshotUntilFull(t *testing.T) {
	require := require.New(t)

	rates := &testRates{rate: uint256.NewInt(1_000_000_000)}
	engine := newTestEngine(t, memdb.New(), 3, rates)

	_, err := engine.Update(1_000)
	require.NoError(err)

	// cumulative: 60e9 at 1000, 60e9 + 3e9*100 = 360e9 at 1100
	rates.rate = uint256.NewInt(3_000_000_000)
	change, err := engine.Update(1_100)
	require.NoError(err)
	require.Equal(1, change.WriteIndex)
	require.Equal(uint256.NewInt(360_000_000_000), change.Snapshot.CumulativeRate)
	require.Equal(expectedMultiplier(3_000_000_000), change.NewMultiplier)
}

func TestAverageAgainstOldestOnceWrapped(t *testing.T) {
	require := require.New(t)

	rates := &testRates{}
	engine := newTestEngine(t, memdb.New(), 3, rates)

	steps := []struct {
		now  uint64
		rate uint64
	}{
		{now: 1_000, rate: 1_000_000_000}, // cumulative 60e9
		{now: 1_100, rate: 2_000_000_000}, // cumulative 260e9
		{now: 1_200, rate: 4_000_000_000}, // cumulative 660e9
		{now: 1_300, rate: 1_000_000_000}, // cumulative 760e9, overwrites slot 0
	}
	var change *Change
	for _, step := range steps {
		rates.rate = uint256.NewInt(step.rate)
		var err error
		change, err = engine.Update(step.now)
		require.NoError(err)
	}

	require.Zero(change.WriteIndex)
	// Oldest surviving snapshot is the 1100 one: (760e9 - 260e9) / 200 = 2.5e9.
	require.Equal(expectedMultiplier(2_500_000_000), change.NewMultiplier)

	view, err := engine.View()
	require.NoError(err)
	require.Len(view.Snapshots, 3)
	require.Equal(uint64(1_300), view.Snapshots[0].Timestamp)
	require.Equal(uint64(1_100), view.Snapshots[1].Timestamp)
	require.Equal(uint64(1_200), view.Snapshots[2].Timestamp)
}

func TestBufferNeverGrowsPastCapacity(t *testing.T) {
	require := require.New(t)

	engine := newTestEngine(t, memdb.New(), 4, &testRates{rate: uint256.NewInt(7)})
	now := uint64(10_000)
	for i := 0; i < 20; i++ {
		now += testPeriod + 1
		change, err := engine.MaybeUpdate(now)
		require.NoError(err)
		require.NotNil(change)

		view, err := engine.View()
		require.NoError(err)
		require.LessOrEqual(len(view.Snapshots), 4)
		require.Equal(i%4, view.WriteIndex)
	}
}

func TestSingleSnapshotBuffer(t *testing.T) {
	require := require.New(t)

	rates := &testRates{rate: uint256.NewInt(1_000_000_000)}
	engine := newTestEngine(t, memdb.New(), 1, rates)

	_, err := engine.Update(1_000)
	require.NoError(err)

	rates.rate = uint256.NewInt(2_000_000_000)
	change, err := engine.Update(1_100)
	require.NoError(err)
	require.Zero(change.WriteIndex)
	require.Equal(expectedMultiplier(2_000_000_000), change.NewMultiplier)
}

func TestMultiplierClampsAtZero(t *testing.T) {
	require := require.New(t)

	// 1e13 per block annualizes to ~2252% which exceeds 100%.
	engine := newTestEngine(t, memdb.New(), 3, &testRates{rate: uint256.NewInt(10_000_000_000_000)})
	change, err := engine.Update(1_000)
	require.NoError(err)
	require.True(change.NewMultiplier.IsZero())
	require.True(change.AnnualizedRate.Gt(safemath.Scale()))
}

func TestMultiplierStaysInRange(t *testing.T) {
	require := require.New(t)

	rates := &testRates{}
	engine := newTestEngine(t, memdb.New(), 5, rates)
	now := uint64(5_000)
	for i, rate := range []uint64{0, 1, 1e9, 1e12, 1e15, 1e18, 3, 1e11} {
		rates.rate = uint256.NewInt(rate)
		now += testPeriod + uint64(i) + 1
		change, err := engine.MaybeUpdate(now)
		require.NoError(err)
		require.False(change.NewMultiplier.Gt(safemath.Scale()))
	}
}

func TestDivisionByZeroGuard(t *testing.T) {
	require := require.New(t)

	engine := newTestEngine(t, memdb.New(), 2, &testRates{rate: uint256.NewInt(1)})
	_, err := engine.Update(1_000)
	require.NoError(err)
	_, err = engine.Update(1_100)
	require.NoError(err)

	before, err := engine.View()
	require.NoError(err)

	// A forced update at the same timestamp compares two snapshots taken at
	// the same second.
	_, err = engine.Update(1_100)
	require.ErrorIs(err, ErrDivisionByZero)

	after, err := engine.View()
	require.NoError(err)
	require.Equal(before, after)
}

func TestCumulativeRateOverflow(t *testing.T) {
	require := require.New(t)

	engine := newTestEngine(t, memdb.New(), 2, &testRates{rate: new(uint256.Int).SetAllOne()})
	_, err := engine.Update(1_000)
	require.ErrorIs(err, ErrArithmeticOverflow)
}

func TestRateSourceError(t *testing.T) {
	engine := newTestEngine(t, memdb.New(), 2, &testRates{err: errRateUnavailable})
	_, err := engine.Update(1_000)
	require.ErrorIs(t, err, errRateUnavailable)
}

func TestStateSurvivesReload(t *testing.T) {
	require := require.New(t)

	db := memdb.New()
	rates := &testRates{rate: uint256.NewInt(1_000_000_000)}
	engine := newTestEngine(t, db, 2, rates)
	for _, now := range []uint64{1_000, 1_100, 1_200} {
		_, err := engine.Update(now)
		require.NoError(err)
	}
	expected, err := engine.View()
	require.NoError(err)

	reloaded := newTestEngine(t, db, 2, rates)
	got, err := reloaded.View()
	require.NoError(err)
	require.Equal(expected, got)
}
