// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/rpc/v2"
	"github.com/luxfi/metric"
)

const methodLabel = "method"

type APIInterceptor interface {
	InterceptRequest(i *rpc.RequestInfo) *http.Request
	AfterRequest(i *rpc.RequestInfo)
}

type contextKey int

const requestTimestampKey contextKey = iota

type apiInterceptor struct {
	requestCount       metric.CounterVec
	requestDurationSum metric.GaugeVec
	requestErrors      metric.CounterVec
}

// NewAPIInterceptor records, per RPC method, how often it was called, how
// long it took in total and how often it failed.
func NewAPIInterceptor(registry metric.Registry) (APIInterceptor, error) {
	metricsInstance := metric.NewWithRegistry("vault_api", registry)
	labels := []string{methodLabel}
	return &apiInterceptor{
		requestCount: metricsInstance.NewCounterVec(
			"request_count",
			"Number of times this method was called",
			labels,
		),
		requestDurationSum: metricsInstance.NewGaugeVec(
			"request_duration_sum",
			"Nanoseconds spent handling this method",
			labels,
		),
		requestErrors: metricsInstance.NewCounterVec(
			"request_error_count",
			"Number of failed calls to this method",
			labels,
		),
	}, nil
}

func (*apiInterceptor) InterceptRequest(i *rpc.RequestInfo) *http.Request {
	ctx := context.WithValue(i.Request.Context(), requestTimestampKey, time.Now())
	return i.Request.WithContext(ctx)
}

func (a *apiInterceptor) AfterRequest(i *rpc.RequestInfo) {
	start, ok := i.Request.Context().Value(requestTimestampKey).(time.Time)
	if !ok {
		return
	}

	labels := metric.Labels{
		methodLabel: i.Method,
	}
	a.requestCount.With(labels).Inc()
	a.requestDurationSum.With(labels).Add(float64(time.Since(start)))
	if i.Error != nil {
		a.requestErrors.With(labels).Inc()
	}
}
