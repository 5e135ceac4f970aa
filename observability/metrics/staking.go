package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// StakingMetrics tracks the staking engine's balances and flow counters.
type StakingMetrics struct {
	totalStaked prometheus.Gauge
	rewardPool  prometheus.Gauge
	stakes      *prometheus.CounterVec
	withdrawals *prometheus.CounterVec
}

var (
	stakingOnce     sync.Once
	stakingRegistry *StakingMetrics
)

// Staking returns the process-wide staking metric registry.
func Staking() *StakingMetrics {
	stakingOnce.Do(func() {
		stakingRegistry = &StakingMetrics{
			totalStaked: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "staking_total_staked",
				Help: "Live principal held by the staking vault.",
			}),
			rewardPool: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "staking_reward_pool",
				Help: "Accounting balance of the reward pool.",
			}),
			stakes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "staking_stakes_total",
				Help: "Count of accepted stakes by plan index.",
			}, []string{"plan"}),
			withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "staking_withdrawals_total",
				Help: "Count of withdrawals by kind (matured or early).",
			}, []string{"kind"}),
		}
		prometheus.MustRegister(
			stakingRegistry.totalStaked,
			stakingRegistry.rewardPool,
			stakingRegistry.stakes,
			stakingRegistry.withdrawals,
		)
	})
	return stakingRegistry
}

func gaugeValue(amount *big.Int) float64 {
	if amount == nil {
		return 0
	}
	value, _ := new(big.Float).SetInt(amount).Float64()
	return value
}

// SetTotalStaked records the live staked principal.
func (m *StakingMetrics) SetTotalStaked(amount *big.Int) {
	if m == nil {
		return
	}
	m.totalStaked.Set(gaugeValue(amount))
}

// SetRewardPool records the reward pool balance.
func (m *StakingMetrics) SetRewardPool(amount *big.Int) {
	if m == nil {
		return
	}
	m.rewardPool.Set(gaugeValue(amount))
}

// ObserveStake counts an accepted stake against its plan.
func (m *StakingMetrics) ObserveStake(plan string) {
	if m == nil {
		return
	}
	if plan == "" {
		plan = "unknown"
	}
	m.stakes.WithLabelValues(plan).Inc()
}

// ObserveWithdrawal counts a withdrawal by kind.
func (m *StakingMetrics) ObserveWithdrawal(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.withdrawals.WithLabelValues(kind).Inc()
}
