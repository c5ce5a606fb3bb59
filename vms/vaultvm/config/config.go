// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/luxfi/govvault/vms/vaultvm/twar"
)

var (
	ErrInvalidConfig = errors.New("invalid vault config")

	Default = Config{
		Period:                 3_600,
		StaleBlockLag:          185_000,
		TWARSnapshotsMaxLength: 24,
		QueryCacheSize:         2048,
	}
)

// Config contains the user-configurable parameters of the vault. It is fixed
// once the vault is built.
type Config struct {
	// Period is the minimum number of seconds between two TWAR snapshots.
	Period uint64 `json:"period"`
	// StaleBlockLag is how many blocks of checkpoint history stay queryable
	// when a delegate's history is pruned.
	StaleBlockLag uint64 `json:"staleBlockLag"`
	// TWARSnapshotsMaxLength bounds the snapshot ring buffer.
	TWARSnapshotsMaxLength int `json:"twarSnapshotsMaxLength"`
	// QueryCacheSize is the number of historical vote power lookups the API
	// keeps in memory.
	QueryCacheSize int `json:"queryCacheSize"`
}

// GetConfig returns a Config from the provided json encoded bytes. If a
// configuration is not provided in the bytes, the default value is set. If
// empty bytes are provided, the default config is returned.
func GetConfig(b []byte) (Config, error) {
	c := Default

	// An empty slice is invalid json, so handle that as a special case.
	if len(b) == 0 {
		return c, nil
	}

	if err := json.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return c, c.Verify()
}

func (c Config) Verify() error {
	if err := c.TWAR().Verify(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.QueryCacheSize < 0 {
		return fmt.Errorf("%w: negative query cache size %d", ErrInvalidConfig, c.QueryCacheSize)
	}
	return nil
}

// TWAR returns the engine parameters.
func (c Config) TWAR() twar.Config {
	return twar.Config{
		Period:       c.Period,
		MaxSnapshots: c.TWARSnapshotsMaxLength,
	}
}
