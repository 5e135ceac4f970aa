package config

import (
	"fmt"
	"strings"
)

// Validate enforces the construction-time invariants of the configuration.
// Engines assume a validated config, so everything that would make an engine
// constructor panic or misbehave is rejected here.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil configuration")
	}
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress must be set")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("config: DataDir must be set")
	}

	// Bound each fee before summing so the uint64 sum cannot wrap.
	if cfg.Token.BurnFee > 100 || cfg.Token.TreasuryFee > 100 || cfg.Token.BurnFee+cfg.Token.TreasuryFee > 100 {
		return fmt.Errorf("token: total fee cannot exceed 100%%")
	}
	if strings.TrimSpace(cfg.Token.Owner) != "" {
		if _, err := ParseAddress(cfg.Token.Owner); err != nil {
			return fmt.Errorf("token: %w", err)
		}
	}
	if _, err := ParseAmount(cfg.Token.InitialSupply); err != nil {
		return fmt.Errorf("token: %w", err)
	}
	if _, err := ParseAddresses(cfg.Token.FeeExempt); err != nil {
		return fmt.Errorf("token: %w", err)
	}

	if len(cfg.Staking.Plans) == 0 {
		return fmt.Errorf("staking: at least one plan required")
	}
	var prevLock, prevMultiplier uint64
	for i, plan := range cfg.Staking.Plans {
		if plan.LockPeriodSeconds == 0 {
			return fmt.Errorf("staking: plan %d has zero lock period", i)
		}
		if plan.RewardRatePercent > 100 {
			return fmt.Errorf("staking: plan %d reward rate exceeds 100%%", i)
		}
		if plan.PenaltyPercent > 100 {
			return fmt.Errorf("staking: plan %d penalty exceeds 100%%", i)
		}
		if plan.VotingMultiplierBps < 10_000 {
			return fmt.Errorf("staking: plan %d voting multiplier below 1x", i)
		}
		if i > 0 {
			if plan.LockPeriodSeconds <= prevLock {
				return fmt.Errorf("staking: plan lock periods must increase (plan %d)", i)
			}
			if plan.VotingMultiplierBps < prevMultiplier {
				return fmt.Errorf("staking: plan voting multipliers must not decrease (plan %d)", i)
			}
		}
		prevLock = plan.LockPeriodSeconds
		prevMultiplier = plan.VotingMultiplierBps
	}
	if _, err := ParseAmount(cfg.Staking.MaxStakePerUser); err != nil {
		return fmt.Errorf("staking: %w", err)
	}
	if _, err := ParseAmount(cfg.Staking.MaxStakePerWhale); err != nil {
		return fmt.Errorf("staking: %w", err)
	}
	if _, err := ParseAddresses(cfg.Staking.Whales); err != nil {
		return fmt.Errorf("staking: %w", err)
	}

	if cfg.Governance.VotingPeriodSeconds == 0 {
		return fmt.Errorf("governance: VotingPeriodSeconds must be positive")
	}
	if cfg.Governance.PassThresholdBps > 10_000 {
		return fmt.Errorf("governance: PassThresholdBps exceeds 10000")
	}
	if _, err := ParseAmount(cfg.Governance.ProposalThreshold); err != nil {
		return fmt.Errorf("governance: %w", err)
	}
	if _, err := ParseAmount(cfg.Governance.QuorumPower); err != nil {
		return fmt.Errorf("governance: %w", err)
	}

	if cfg.Timelock.MinDelaySeconds == 0 {
		return fmt.Errorf("timelock: MinDelaySeconds must be positive")
	}
	for _, group := range [][]string{cfg.Timelock.Admins, cfg.Timelock.Proposers, cfg.Timelock.Executors} {
		if _, err := ParseAddresses(group); err != nil {
			return fmt.Errorf("timelock: %w", err)
		}
	}

	seen := make(map[string]struct{}, len(cfg.Treasury.Categories))
	for _, category := range cfg.Treasury.Categories {
		name := strings.ToLower(strings.TrimSpace(category))
		if name == "" {
			return fmt.Errorf("treasury: empty category name")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("treasury: duplicate category %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
