package events

import (
	"math/big"
	"strconv"

	"wagmi/core/types"
	"wagmi/crypto"
)

const (
	// TypeStaked captures a new stake position being recorded.
	TypeStaked = "staking.staked"
	// TypeWithdrawn captures a matured withdrawal paying principal plus reward.
	TypeWithdrawn = "staking.withdrawn"
	// TypeEarlyWithdrawal captures a pre-maturity withdrawal with a penalty.
	TypeEarlyWithdrawal = "staking.earlyWithdrawal"
	// TypeRewardPoolToppedUp captures an explicit reward pool contribution.
	TypeRewardPoolToppedUp = "staking.rewardPoolToppedUp"
	// TypeLockedFundsAccessed captures a privileged liquidity draw against custody.
	TypeLockedFundsAccessed = "staking.lockedFundsAccessed"
)

// Staked records the principal credited to a new position.
type Staked struct {
	Account   [20]byte
	Amount    *big.Int
	PlanIndex uint64
}

// EventType satisfies the Event interface.
func (Staked) EventType() string { return TypeStaked }

// Event renders the attribute payload for emission.
func (s Staked) Event() *types.Event {
	return &types.Event{
		Type: TypeStaked,
		Attributes: map[string]string{
			"account":   crypto.NewAddress(crypto.WagmiPrefix, append([]byte(nil), s.Account[:]...)).String(),
			"amount":    bigIntString(s.Amount),
			"planIndex": strconv.FormatUint(s.PlanIndex, 10),
		},
	}
}

// Withdrawn records a matured withdrawal and the reward paid from the pool.
type Withdrawn struct {
	Account   [20]byte
	Principal *big.Int
	Reward    *big.Int
}

// EventType satisfies the Event interface.
func (Withdrawn) EventType() string { return TypeWithdrawn }

// Event renders the attribute payload for emission.
func (w Withdrawn) Event() *types.Event {
	return &types.Event{
		Type: TypeWithdrawn,
		Attributes: map[string]string{
			"account":   crypto.NewAddress(crypto.WagmiPrefix, append([]byte(nil), w.Account[:]...)).String(),
			"principal": bigIntString(w.Principal),
			"reward":    bigIntString(w.Reward),
		},
	}
}

// EarlyWithdrawal records a pre-maturity withdrawal and the penalty retained
// by the reward pool.
type EarlyWithdrawal struct {
	Account   [20]byte
	Principal *big.Int
	Penalty   *big.Int
}

// EventType satisfies the Event interface.
func (EarlyWithdrawal) EventType() string { return TypeEarlyWithdrawal }

// Event renders the attribute payload for emission.
func (w EarlyWithdrawal) Event() *types.Event {
	return &types.Event{
		Type: TypeEarlyWithdrawal,
		Attributes: map[string]string{
			"account":   crypto.NewAddress(crypto.WagmiPrefix, append([]byte(nil), w.Account[:]...)).String(),
			"principal": bigIntString(w.Principal),
			"penalty":   bigIntString(w.Penalty),
		},
	}
}

// RewardPoolToppedUp records an external contribution to the shared pool.
type RewardPoolToppedUp struct {
	From    [20]byte
	Amount  *big.Int
	Balance *big.Int
}

// EventType satisfies the Event interface.
func (RewardPoolToppedUp) EventType() string { return TypeRewardPoolToppedUp }

// Event renders the attribute payload for emission.
func (t RewardPoolToppedUp) Event() *types.Event {
	return &types.Event{
		Type: TypeRewardPoolToppedUp,
		Attributes: map[string]string{
			"from":    crypto.NewAddress(crypto.WagmiPrefix, append([]byte(nil), t.From[:]...)).String(),
			"amount":  bigIntString(t.Amount),
			"balance": bigIntString(t.Balance),
		},
	}
}

// LockedFundsAccessed records a privileged draw against aggregate custody.
type LockedFundsAccessed struct {
	Recipient   [20]byte
	Amount      *big.Int
	TotalStaked *big.Int
}

// EventType satisfies the Event interface.
func (LockedFundsAccessed) EventType() string { return TypeLockedFundsAccessed }

// Event renders the attribute payload for emission.
func (l LockedFundsAccessed) Event() *types.Event {
	return &types.Event{
		Type: TypeLockedFundsAccessed,
		Attributes: map[string]string{
			"recipient":   crypto.NewAddress(crypto.WagmiPrefix, append([]byte(nil), l.Recipient[:]...)).String(),
			"amount":      bigIntString(l.Amount),
			"totalStaked": bigIntString(l.TotalStaked),
		},
	}
}

func bigIntString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
