// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/metric"

	"github.com/luxfi/govvault/utils/wrappers"
)

const opLabel = "op"

var (
	_ Metrics = (*metricsImpl)(nil)

	opLabels = []string{opLabel}
)

type Metrics interface {
	APIInterceptor

	// Mark a new TWAR multiplier computed from [annualizedRate] over a buffer
	// of [snapshots] entries.
	MarkMultiplier(multiplier, annualizedRate *uint256.Int, snapshots int)
	// Mark that a deposit was committed.
	MarkDeposit()
	// Mark that a withdrawal was committed.
	MarkWithdrawal()
	// Mark that an operation was aborted.
	MarkFailed(op string)
}

func New(registerer metric.Registerer) (Metrics, error) {
	m := &metricsImpl{
		multiplier: metric.NewGauge(metric.GaugeOpts{
			Name: "vault_multiplier",
			Help: "Current TWAR voting power multiplier, scaled by 1e18",
		}),
		annualizedRate: metric.NewGauge(metric.GaugeOpts{
			Name: "vault_annualized_rate",
			Help: "Annualized average borrow rate used for the last multiplier, scaled by 1e18",
		}),
		snapshots: metric.NewGauge(metric.GaugeOpts{
			Name: "vault_snapshots",
			Help: "Number of snapshots in the TWAR buffer",
		}),
		deposits: metric.NewCounter(metric.CounterOpts{
			Name: "vault_deposits",
			Help: "Number of committed deposits",
		}),
		withdrawals: metric.NewCounter(metric.CounterOpts{
			Name: "vault_withdrawals",
			Help: "Number of committed withdrawals",
		}),
		failed: metric.NewCounterVec(
			metric.CounterOpts{
				Name: "vault_failed_ops",
				Help: "Number of aborted vault operations",
			},
			opLabels,
		),
	}

	errs := wrappers.Errs{}
	registry, ok := registerer.(metric.Registry)
	if !ok {
		return nil, errors.New("registerer must be a Registry")
	}
	apiRequestMetrics, err := NewAPIInterceptor(registry)
	errs.Add(err)
	m.APIInterceptor = apiRequestMetrics

	errs.Add(
		registerer.Register(metric.AsCollector(m.multiplier)),
		registerer.Register(metric.AsCollector(m.annualizedRate)),
		registerer.Register(metric.AsCollector(m.snapshots)),
		registerer.Register(metric.AsCollector(m.deposits)),
		registerer.Register(metric.AsCollector(m.withdrawals)),
		registerer.Register(metric.AsCollector(m.failed)),
	)
	return m, errs.Err
}

type metricsImpl struct {
	APIInterceptor

	multiplier     metric.Gauge
	annualizedRate metric.Gauge
	snapshots      metric.Gauge

	deposits    metric.Counter
	withdrawals metric.Counter
	failed      metric.CounterVec
}

func (m *metricsImpl) MarkMultiplier(multiplier, annualizedRate *uint256.Int, snapshots int) {
	m.multiplier.Set(toFloat(multiplier))
	m.annualizedRate.Set(toFloat(annualizedRate))
	m.snapshots.Set(float64(snapshots))
}

func (m *metricsImpl) MarkDeposit() {
	m.deposits.Inc()
}

func (m *metricsImpl) MarkWithdrawal() {
	m.withdrawals.Inc()
}

func (m *metricsImpl) MarkFailed(op string) {
	m.failed.With(metric.Labels{
		opLabel: op,
	}).Inc()
}

func toFloat(v *uint256.Int) float64 {
	f, _ := new(big.Float).SetInt(v.ToBig()).Float64()
	return f
}
