// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mockable

import (
	"sync"
	"time"
)

// Clock reports the height and time of the block being executed. Until a
// block is set it reports height zero and the wall clock, which lets tests
// fake the chain without a consensus engine.
// It is safe for concurrent use.
type Clock struct {
	mu     sync.RWMutex
	faked  bool
	height uint64
	time   time.Time
}

// Set the time on the clock, keeping the current height.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.faked = true
	c.time = t
}

// SetBlock sets both the height and the time on the clock.
func (c *Clock) SetBlock(height uint64, t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.faked = true
	c.height = height
	c.time = t
}

// Advance moves the clock [blocks] blocks and [d] forward.
func (c *Clock) Advance(blocks uint64, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.faked {
		c.faked = true
		c.time = time.Now()
	}
	c.height += blocks
	c.time = c.time.Add(d)
}

// Sync this clock with global time
func (c *Clock) Sync() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.faked = false
}

// Height returns the block height on this clock
func (c *Clock) Height() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height
}

// Time returns the time on this clock
func (c *Clock) Time() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.faked {
		return c.time
	}
	return time.Now()
}

// Unix returns the unix timestamp on this clock.
func (c *Clock) Unix() uint64 {
	unix := max(c.Time().Unix(), 0)
	return uint64(unix)
}
