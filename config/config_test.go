package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wagmi/crypto"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func testAddress(t *testing.T, b byte) string {
	t.Helper()
	raw := make([]byte, 20)
	raw[19] = b
	addr := crypto.NewAddress(crypto.WagmiPrefix, raw)
	return addr.String()
}

func TestLoadFullConfig(t *testing.T) {
	owner := testAddress(t, 1)
	whale := testAddress(t, 2)
	path := writeConfig(t, `ListenAddress = "0.0.0.0:8645"
DataDir = "./data"
NetworkName = "wagmi-test"
RPCAuthToken = "secret"

[token]
Name = "WAGMI"
Symbol = "WAGMI"
Owner = "`+owner+`"
InitialSupply = "1000000000000000000000000"
BurnFee = 1
TreasuryFee = 2

[staking]
MaxStakePerUser = "500000000000000000000"
MaxStakePerWhale = "5000000000000000000000"
Whales = ["`+whale+`"]
CapAccrualAtMaturity = true

[[staking.plans]]
LockPeriodSeconds = 2592000
RewardRatePercent = 5
PenaltyPercent = 20
VotingMultiplierBps = 10000

[[staking.plans]]
LockPeriodSeconds = 31536000
RewardRatePercent = 20
PenaltyPercent = 5
VotingMultiplierBps = 20000

[governance]
ProposalThreshold = "100000000000000000000"
VotingPeriodSeconds = 604800
QuorumPower = "1000000000000000000000"
PassThresholdBps = 5000
GracePeriodSeconds = 1209600

[timelock]
MinDelaySeconds = 3600
Proposers = ["`+owner+`"]
Executors = ["`+owner+`"]

[treasury]
Categories = ["grants", "operations"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddress != "0.0.0.0:8645" {
		t.Fatalf("listen address mismatch: %s", cfg.ListenAddress)
	}
	if cfg.Token.BurnFee != 1 || cfg.Token.TreasuryFee != 2 {
		t.Fatalf("token fees mismatch: %+v", cfg.Token)
	}
	if len(cfg.Staking.Plans) != 2 {
		t.Fatalf("expected 2 plans, got %d", len(cfg.Staking.Plans))
	}
	if cfg.Staking.Plans[1].VotingMultiplierBps != 20000 {
		t.Fatalf("plan multiplier mismatch: %+v", cfg.Staking.Plans[1])
	}
	if !cfg.Staking.CapAccrualAtMaturity {
		t.Fatal("accrual cap flag lost")
	}
	if cfg.Governance.VotingPeriodSeconds != 604800 {
		t.Fatalf("voting period mismatch: %d", cfg.Governance.VotingPeriodSeconds)
	}
	if cfg.Timelock.MinDelaySeconds != 3600 {
		t.Fatalf("min delay mismatch: %d", cfg.Timelock.MinDelaySeconds)
	}
	if len(cfg.Treasury.Categories) != 2 {
		t.Fatalf("category list mismatch: %v", cfg.Treasury.Categories)
	}

	threshold, err := ParseAmount(cfg.Governance.ProposalThreshold)
	if err != nil {
		t.Fatalf("parse threshold: %v", err)
	}
	if threshold.String() != "100000000000000000000" {
		t.Fatalf("threshold mismatch: %s", threshold)
	}
	decoded, err := ParseAddress(cfg.Token.Owner)
	if err != nil {
		t.Fatalf("parse owner: %v", err)
	}
	if decoded[19] != 1 {
		t.Fatalf("owner address mismatch: %x", decoded)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `ListenAddress = "127.0.0.1:8645"
DataDir = "./data"
Bogus = true
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unknown keys") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestValidateFeeBound(t *testing.T) {
	cfg := Default()
	cfg.Token.BurnFee = 60
	cfg.Token.TreasuryFee = 41
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "total fee cannot exceed 100%") {
		t.Fatalf("expected fee bound error, got %v", err)
	}

	// A sum that wraps around uint64 must still be rejected.
	cfg = Default()
	cfg.Token.BurnFee = math.MaxUint64
	cfg.Token.TreasuryFee = 101
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "total fee cannot exceed 100%") {
		t.Fatalf("expected fee bound error, got %v", err)
	}
}

func TestValidatePlanOrdering(t *testing.T) {
	cfg := Default()
	cfg.Staking.Plans[2].LockPeriodSeconds = cfg.Staking.Plans[1].LockPeriodSeconds
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "lock periods must increase") {
		t.Fatalf("expected lock ordering error, got %v", err)
	}

	cfg = Default()
	cfg.Staking.Plans[3].VotingMultiplierBps = 9000
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "voting multiplier below 1x") {
		t.Fatalf("expected multiplier error, got %v", err)
	}
}

func TestValidateTimelockDelay(t *testing.T) {
	cfg := Default()
	cfg.Timelock.MinDelaySeconds = 0
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "MinDelaySeconds") {
		t.Fatalf("expected delay error, got %v", err)
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
