package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/BurntSushi/toml"

	"wagmi/crypto"
)

// Config is the top-level daemon configuration, decoded from TOML.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	NetworkName   string `toml:"NetworkName"`
	RPCAuthToken  string `toml:"RPCAuthToken"`

	Token      Token      `toml:"token"`
	Staking    Staking    `toml:"staking"`
	Governance Governance `toml:"governance"`
	Timelock   Timelock   `toml:"timelock"`
	Treasury   Treasury   `toml:"treasury"`
}

// Token configures the native fee-on-transfer ledger.
type Token struct {
	Name          string   `toml:"Name"`
	Symbol        string   `toml:"Symbol"`
	Owner         string   `toml:"Owner"`
	InitialSupply string   `toml:"InitialSupply"`
	BurnFee       uint64   `toml:"BurnFee"`
	TreasuryFee   uint64   `toml:"TreasuryFee"`
	FeeExempt     []string `toml:"FeeExempt"`
}

// StakingPlan is one lock tier. Rates and penalties are whole percentages;
// the voting multiplier is in basis points.
type StakingPlan struct {
	LockPeriodSeconds   uint64 `toml:"LockPeriodSeconds"`
	RewardRatePercent   uint64 `toml:"RewardRatePercent"`
	PenaltyPercent      uint64 `toml:"PenaltyPercent"`
	VotingMultiplierBps uint64 `toml:"VotingMultiplierBps"`
}

// Staking configures the staking engine's plans and policy knobs.
type Staking struct {
	Plans                []StakingPlan `toml:"plans"`
	MaxStakePerUser      string        `toml:"MaxStakePerUser"`
	MaxStakePerWhale     string        `toml:"MaxStakePerWhale"`
	Whales               []string      `toml:"Whales"`
	CapAccrualAtMaturity bool          `toml:"CapAccrualAtMaturity"`
	RestrictTopUps       bool          `toml:"RestrictTopUps"`
}

// Governance configures proposal admission and outcome thresholds.
type Governance struct {
	ProposalThreshold   string `toml:"ProposalThreshold"`
	VotingPeriodSeconds uint64 `toml:"VotingPeriodSeconds"`
	QuorumPower         string `toml:"QuorumPower"`
	PassThresholdBps    uint64 `toml:"PassThresholdBps"`
	GracePeriodSeconds  uint64 `toml:"GracePeriodSeconds"`
}

// Timelock configures the execution delay and the initial role holders.
type Timelock struct {
	MinDelaySeconds uint64   `toml:"MinDelaySeconds"`
	Admins          []string `toml:"Admins"`
	Proposers       []string `toml:"Proposers"`
	Executors       []string `toml:"Executors"`
}

// Treasury seeds the spending category allow-list.
type Treasury struct {
	Categories []string `toml:"Categories"`
}

// Load decodes and validates the configuration at path.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration: the four standard lock tiers
// with their published rates, penalties, and voting multipliers.
func Default() *Config {
	day := uint64(24 * 60 * 60)
	return &Config{
		ListenAddress: "127.0.0.1:8645",
		DataDir:       "./wagmi-data",
		NetworkName:   "wagmi-local",
		Token: Token{
			Name:   "WAGMI",
			Symbol: "WAGMI",
		},
		Staking: Staking{
			Plans: []StakingPlan{
				{LockPeriodSeconds: 30 * day, RewardRatePercent: 5, PenaltyPercent: 20, VotingMultiplierBps: 10_000},
				{LockPeriodSeconds: 90 * day, RewardRatePercent: 10, PenaltyPercent: 15, VotingMultiplierBps: 12_500},
				{LockPeriodSeconds: 180 * day, RewardRatePercent: 15, PenaltyPercent: 10, VotingMultiplierBps: 15_000},
				{LockPeriodSeconds: 365 * day, RewardRatePercent: 20, PenaltyPercent: 5, VotingMultiplierBps: 20_000},
			},
		},
		Governance: Governance{
			ProposalThreshold:   "0",
			VotingPeriodSeconds: 7 * day,
			QuorumPower:         "0",
			PassThresholdBps:    5_000,
			GracePeriodSeconds:  14 * day,
		},
		Timelock: Timelock{
			MinDelaySeconds: 3600,
		},
		Treasury: Treasury{
			Categories: []string{"operations"},
		},
	}
}

// ParseAmount converts a decimal string amount into a big integer. Empty
// strings parse as zero so optional caps can be omitted.
func ParseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("config: invalid amount %q", raw)
	}
	return amount, nil
}

// ParseAddress decodes a bech32 account address into its 20-byte form.
func ParseAddress(raw string) ([20]byte, error) {
	var out [20]byte
	addr, err := crypto.DecodeAddress(strings.TrimSpace(raw))
	if err != nil {
		return out, fmt.Errorf("config: invalid address %q: %w", raw, err)
	}
	copy(out[:], addr.Bytes())
	return out, nil
}

// ParseAddresses decodes a list of bech32 addresses.
func ParseAddresses(raw []string) ([][20]byte, error) {
	out := make([][20]byte, 0, len(raw))
	for _, entry := range raw {
		addr, err := ParseAddress(entry)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}
