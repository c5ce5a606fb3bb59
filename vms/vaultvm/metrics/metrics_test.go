// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/rpc/v2"
	"github.com/holiman/uint256"
	"github.com/luxfi/metric"
	"github.com/stretchr/testify/require"
)

var errRequest = errors.New("request failed")

func TestNew(t *testing.T) {
	require := require.New(t)

	m, err := New(metric.NewRegistry())
	require.NoError(err)

	m.MarkMultiplier(uint256.NewInt(900_000_000_000_000_000), uint256.NewInt(100_000_000_000_000_000), 3)
	m.MarkDeposit()
	m.MarkWithdrawal()
	m.MarkFailed("deposit")
}

func TestToFloat(t *testing.T) {
	require.InDelta(t, 1e18, toFloat(uint256.NewInt(1_000_000_000_000_000_000)), 1)
	require.Zero(t, toFloat(new(uint256.Int)))
}

func TestAPIInterceptor(t *testing.T) {
	require := require.New(t)

	interceptor, err := NewAPIInterceptor(metric.NewRegistry())
	require.NoError(err)

	info := &rpc.RequestInfo{
		Method:  "vault.ping",
		Request: httptest.NewRequest("POST", "/", nil),
	}
	info.Request = interceptor.InterceptRequest(info)
	_, ok := info.Request.Context().Value(requestTimestampKey).(time.Time)
	require.True(ok)

	info.Error = errRequest
	interceptor.AfterRequest(info)
}
