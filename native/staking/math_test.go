package staking

import (
	"math/big"
	"testing"
)

func TestRewardAmountReferenceVector(t *testing.T) {
	principal := tokens(500)
	want, _ := new(big.Int).SetString("2054794520547945205", 10)
	got := rewardAmount(principal, 5, 30*day)
	if got.Cmp(want) != 0 {
		t.Fatalf("reward mismatch: got %s want %s", got, want)
	}
}

func TestRewardAmountFullYear(t *testing.T) {
	// A full year at 20% pays exactly a fifth of principal.
	principal := tokens(1000)
	got := rewardAmount(principal, 20, 365*day)
	if got.Cmp(tokens(200)) != 0 {
		t.Fatalf("full-year reward mismatch: got %s want %s", got, tokens(200))
	}
}

func TestRewardAmountTruncates(t *testing.T) {
	// 1 wei for 1 second rounds down to zero, never up.
	got := rewardAmount(big.NewInt(1), 5, 1)
	if got.Sign() != 0 {
		t.Fatalf("expected truncation to zero, got %s", got)
	}
}

func TestRewardAmountZeroInputs(t *testing.T) {
	if got := rewardAmount(nil, 5, day); got.Sign() != 0 {
		t.Fatalf("nil principal: %s", got)
	}
	if got := rewardAmount(tokens(100), 0, day); got.Sign() != 0 {
		t.Fatalf("zero rate: %s", got)
	}
	if got := rewardAmount(tokens(100), 5, 0); got.Sign() != 0 {
		t.Fatalf("zero elapsed: %s", got)
	}
}

func TestPenaltyAmount(t *testing.T) {
	if got := penaltyAmount(tokens(500), 20); got.Cmp(tokens(100)) != 0 {
		t.Fatalf("penalty mismatch: %s", got)
	}
	if got := penaltyAmount(big.NewInt(7), 15); got.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("penalty truncation mismatch: %s", got)
	}
	if got := penaltyAmount(tokens(500), 0); got.Sign() != 0 {
		t.Fatalf("zero penalty: %s", got)
	}
}

func TestVotingWeightMultipliers(t *testing.T) {
	principal := tokens(100)
	cases := []struct {
		bps  uint64
		want *big.Int
	}{
		{10_000, tokens(100)},
		{12_500, tokens(125)},
		{15_000, tokens(150)},
		{20_000, tokens(200)},
	}
	for _, tc := range cases {
		if got := votingWeight(principal, tc.bps); got.Cmp(tc.want) != 0 {
			t.Fatalf("weight at %d bps: got %s want %s", tc.bps, got, tc.want)
		}
	}
}

func TestLiquidityCap(t *testing.T) {
	if got := liquidityCap(tokens(1000)); got.Cmp(tokens(300)) != 0 {
		t.Fatalf("cap mismatch: %s", got)
	}
	if got := liquidityCap(big.NewInt(0)); got.Sign() != 0 {
		t.Fatalf("zero total cap: %s", got)
	}
	if got := liquidityCap(big.NewInt(10)); got.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("small total cap: %s", got)
	}
}
