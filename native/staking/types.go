package staking

import "math/big"

// Plan defines a lock tier selectable at stake time. Plans are immutable
// after construction and referenced everywhere by index.
type Plan struct {
	// LockPeriod is the lock duration in seconds.
	LockPeriod uint64 `json:"lockPeriod"`
	// RewardRate is the annualized simple-interest rate in whole percent.
	RewardRate uint64 `json:"rewardRate"`
	// EarlyWithdrawalPenalty is the percentage of principal forfeited when
	// withdrawing before LockPeriod elapses.
	EarlyWithdrawalPenalty uint64 `json:"earlyWithdrawalPenalty"`
	// VotingMultiplierBps scales principal into voting power in basis
	// points. Construction validates the multiplier is non-decreasing in
	// lock period; the longest reference tier is 20_000 (2x).
	VotingMultiplierBps uint64 `json:"votingMultiplierBps"`
}

// Position records one deposit's principal, plan, and start time. Positions
// are owned exclusively by their staker and become terminal once withdrawn.
type Position struct {
	Owner     [20]byte `json:"owner"`
	Amount    *big.Int `json:"amount"`
	PlanIndex uint64   `json:"planIndex"`
	StartTime uint64   `json:"startTime"`
	Withdrawn bool     `json:"withdrawn"`
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Amount != nil {
		clone.Amount = new(big.Int).Set(p.Amount)
	}
	return &clone
}

// Checkpoint captures an account's voting power at a point in the global
// checkpoint sequence. The log is append-only so historical voting power can
// be resolved for governance snapshots without trusting a live value.
type Checkpoint struct {
	Seq   uint64   `json:"seq"`
	Power *big.Int `json:"power"`
}

// PositionInfo exposes position metadata for account queries, including the
// derived maturity timestamp.
type PositionInfo struct {
	Index     uint64   `json:"index"`
	Amount    *big.Int `json:"amount"`
	PlanIndex uint64   `json:"planIndex"`
	StartTime uint64   `json:"startTime"`
	MatureAt  uint64   `json:"matureAt"`
	Withdrawn bool     `json:"withdrawn"`
}
