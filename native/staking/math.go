package staking

import "math/big"

const secondsPerYear = 365 * 24 * 60 * 60

var (
	hundred     = big.NewInt(100)
	yearSeconds = big.NewInt(secondsPerYear)
	bpsDenom    = big.NewInt(10_000)
)

// rewardAmount computes the simple-interest reward for a principal held for
// elapsed seconds at an annualized whole-percent rate over a 365-day year.
// The multiplication happens before any division so truncation matches the
// reference vectors exactly.
func rewardAmount(principal *big.Int, ratePercent, elapsedSeconds uint64) *big.Int {
	if principal == nil || principal.Sign() <= 0 || ratePercent == 0 || elapsedSeconds == 0 {
		return big.NewInt(0)
	}
	reward := new(big.Int).Mul(principal, new(big.Int).SetUint64(ratePercent))
	reward.Mul(reward, new(big.Int).SetUint64(elapsedSeconds))
	reward.Quo(reward, new(big.Int).Mul(hundred, yearSeconds))
	return reward
}

// penaltyAmount computes the principal share forfeited on early withdrawal.
func penaltyAmount(principal *big.Int, penaltyPercent uint64) *big.Int {
	if principal == nil || principal.Sign() <= 0 || penaltyPercent == 0 {
		return big.NewInt(0)
	}
	penalty := new(big.Int).Mul(principal, new(big.Int).SetUint64(penaltyPercent))
	penalty.Quo(penalty, hundred)
	return penalty
}

// votingWeight scales a principal by a plan multiplier in basis points.
func votingWeight(principal *big.Int, multiplierBps uint64) *big.Int {
	if principal == nil || principal.Sign() <= 0 {
		return big.NewInt(0)
	}
	weight := new(big.Int).Mul(principal, new(big.Int).SetUint64(multiplierBps))
	weight.Quo(weight, bpsDenom)
	return weight
}

// liquidityCap returns the maximum privileged draw, 30% of total staked.
func liquidityCap(totalStaked *big.Int) *big.Int {
	if totalStaked == nil || totalStaked.Sign() <= 0 {
		return big.NewInt(0)
	}
	limit := new(big.Int).Mul(totalStaked, big.NewInt(30))
	limit.Quo(limit, hundred)
	return limit
}
