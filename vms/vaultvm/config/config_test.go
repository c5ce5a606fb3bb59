// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/govvault/vms/vaultvm/twar"
)

func TestGetConfig(t *testing.T) {
	tests := []struct {
		name        string
		givenJSON   []byte
		expected    Config
		expectedErr error
	}{
		{
			name:      "empty bytes",
			givenJSON: nil,
			expected:  Default,
		},
		{
			name:      "empty object",
			givenJSON: []byte(`{}`),
			expected:  Default,
		},
		{
			name:      "custom values",
			givenJSON: []byte(`{"period":60,"staleBlockLag":100,"twarSnapshotsMaxLength":3,"queryCacheSize":0}`),
			expected: Config{
				Period:                 60,
				StaleBlockLag:          100,
				TWARSnapshotsMaxLength: 3,
				QueryCacheSize:         0,
			},
		},
		{
			name:        "zero period",
			givenJSON:   []byte(`{"period":0}`),
			expectedErr: twar.ErrInvalidConfig,
		},
		{
			name:        "zero snapshots",
			givenJSON:   []byte(`{"twarSnapshotsMaxLength":0}`),
			expectedErr: ErrInvalidConfig,
		},
		{
			name:        "negative cache",
			givenJSON:   []byte(`{"queryCacheSize":-1}`),
			expectedErr: ErrInvalidConfig,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			c, err := GetConfig(test.givenJSON)
			require.ErrorIs(err, test.expectedErr)
			if test.expectedErr != nil {
				return
			}
			require.Equal(test.expected, c)
		})
	}
}

func TestGetConfigMalformed(t *testing.T) {
	_, err := GetConfig([]byte(`{"period":`))
	require.Error(t, err)
}

func TestTWARConfig(t *testing.T) {
	require.Equal(t, twar.Config{Period: 3_600, MaxSnapshots: 24}, Default.TWAR())
}
