package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// GovernanceMetrics tracks proposal and timelock lifecycle counters.
type GovernanceMetrics struct {
	proposals  *prometheus.CounterVec
	votes      prometheus.Counter
	operations *prometheus.CounterVec
}

var (
	governanceOnce     sync.Once
	governanceRegistry *GovernanceMetrics
)

// Governance returns the process-wide governance metric registry.
func Governance() *GovernanceMetrics {
	governanceOnce.Do(func() {
		governanceRegistry = &GovernanceMetrics{
			proposals: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "governance_proposals_total",
				Help: "Count of proposal lifecycle transitions by outcome.",
			}, []string{"outcome"}),
			votes: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "governance_votes_total",
				Help: "Count of ballots accepted.",
			}),
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "timelock_operations_total",
				Help: "Count of timelock operations by transition.",
			}, []string{"transition"}),
		}
		prometheus.MustRegister(
			governanceRegistry.proposals,
			governanceRegistry.votes,
			governanceRegistry.operations,
		)
	})
	return governanceRegistry
}

// ObserveProposal counts a proposal transition by outcome.
func (m *GovernanceMetrics) ObserveProposal(outcome string) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.proposals.WithLabelValues(outcome).Inc()
}

// ObserveVote counts an accepted ballot.
func (m *GovernanceMetrics) ObserveVote() {
	if m == nil {
		return
	}
	m.votes.Inc()
}

// ObserveTimelock counts a timelock transition (scheduled or executed).
func (m *GovernanceMetrics) ObserveTimelock(transition string) {
	if m == nil {
		return
	}
	if transition == "" {
		transition = "unknown"
	}
	m.operations.WithLabelValues(transition).Inc()
}
