package staking

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"time"

	"wagmi/core"
	"wagmi/core/events"
	"wagmi/core/types"
	"wagmi/observability/metrics"
)

type engineState interface {
	StakingPositions(owner [20]byte) ([]*Position, error)
	PutStakingPositions(owner [20]byte, positions []*Position) error
	StakingRewardPool() (*big.Int, error)
	SetStakingRewardPool(balance *big.Int) error
	StakingTotalStaked() (*big.Int, error)
	SetStakingTotalStaked(total *big.Int) error
	StakingCheckpointSeq() (uint64, error)
	StakingNextCheckpointSeq() (uint64, error)
	StakingCheckpoints(owner [20]byte) ([]Checkpoint, error)
	AppendStakingCheckpoint(owner [20]byte, cp Checkpoint) error
}

// TokenLedger is the collaborator interface the engine uses to move the
// staking asset. Both transfer methods report the net amount received by the
// destination, which may be less than the nominal amount when the ledger
// applies transfer fees.
type TokenLedger interface {
	Transfer(from, to [20]byte, amount *big.Int) (*big.Int, error)
	TransferFrom(spender, from, to [20]byte, amount *big.Int) (*big.Int, error)
}

// Policy captures the runtime knobs resolved at construction.
type Policy struct {
	// MaxStakePerUser caps the sum of non-withdrawn principal per account.
	MaxStakePerUser *big.Int
	// MaxStakePerWhale, when set, replaces the per-user cap for addresses
	// in the Whales set.
	MaxStakePerWhale *big.Int
	// Whales enumerates the accounts eligible for the whale cap.
	Whales [][20]byte
	// CapAccrualAtMaturity stops reward accrual at the plan's lock period
	// instead of letting late withdrawals keep accruing.
	CapAccrualAtMaturity bool
	// RestrictTopUps limits AddRewardPool to the owner account.
	RestrictTopUps bool
}

type stakingEvent struct {
	evt *types.Event
}

func (s stakingEvent) EventType() string {
	if s.evt == nil {
		return ""
	}
	return s.evt.Type
}

func (s stakingEvent) Event() *types.Event { return s.evt }

// Engine owns stake positions, lock plans, the shared reward pool, and
// voting-power derivation. All mutating operations are all-or-nothing: state
// is only persisted after every validation has passed.
type Engine struct {
	state     engineState
	token     TokenLedger
	emitter   events.Emitter
	nowFn     func() time.Time
	telemetry *metrics.StakingMetrics

	vault  [20]byte
	owner  [20]byte
	plans  []Plan
	policy Policy
	whales map[[20]byte]struct{}
}

// NewEngine constructs a staking engine bound to its custody vault address
// and owner capability. Plans must already be validated by configuration.
func NewEngine(vault, owner [20]byte, plans []Plan, policy Policy) *Engine {
	whales := make(map[[20]byte]struct{}, len(policy.Whales))
	for _, addr := range policy.Whales {
		whales[addr] = struct{}{}
	}
	if policy.MaxStakePerUser == nil {
		policy.MaxStakePerUser = big.NewInt(0)
	}
	return &Engine{
		emitter:   events.NoopEmitter{},
		nowFn:     func() time.Time { return time.Now().UTC() },
		telemetry: metrics.Staking(),
		vault:     vault,
		owner:     owner,
		plans:     append([]Plan(nil), plans...),
		policy:    policy,
		whales:    whales,
	}
}

// SetState wires the engine to the state backend providing persistence.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetToken wires the engine to the staking asset ledger.
func (e *Engine) SetToken(token TokenLedger) { e.token = token }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source. Nil restores the default UTC clock.
func (e *Engine) SetNowFunc(now func() time.Time) {
	if now == nil {
		e.nowFn = func() time.Time { return time.Now().UTC() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(stakingEvent{evt: event})
}

func (e *Engine) now() time.Time {
	if e == nil || e.nowFn == nil {
		return time.Now().UTC()
	}
	return e.nowFn()
}

// Vault returns the module custody address.
func (e *Engine) Vault() [20]byte { return e.vault }

// Owner returns the privileged capability account.
func (e *Engine) Owner() [20]byte { return e.owner }

// Plans returns a copy of the configured lock plans.
func (e *Engine) Plans() []Plan { return append([]Plan(nil), e.plans...) }

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return ErrStateNotConfigured
	}
	if e.token == nil {
		return ErrTokenNotConfigured
	}
	return nil
}

func (e *Engine) capFor(account [20]byte) *big.Int {
	if _, ok := e.whales[account]; ok && e.policy.MaxStakePerWhale != nil && e.policy.MaxStakePerWhale.Sign() > 0 {
		return e.policy.MaxStakePerWhale
	}
	return e.policy.MaxStakePerUser
}

// Stake locks amount under the selected plan, pulling the staking token from
// the caller into vault custody. The position is credited with the net amount
// the vault actually received so fee-on-transfer ledgers cannot inflate
// principal. Returns the index of the new position.
func (e *Engine) Stake(caller [20]byte, amount *big.Int, planIndex uint64) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if planIndex >= uint64(len(e.plans)) {
		return 0, ErrInvalidPlan
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return 0, ErrZeroAmount
	}

	positions, err := e.state.StakingPositions(caller)
	if err != nil {
		return 0, err
	}
	staked := liveStake(positions)
	limit := e.capFor(caller)
	if limit.Sign() > 0 && new(big.Int).Add(staked, amt).Cmp(limit) > 0 {
		return 0, ErrExceedsMaximumStake
	}

	received, err := e.token.TransferFrom(e.vault, caller, e.vault, amt)
	if err != nil {
		return 0, err
	}

	position := &Position{
		Owner:     caller,
		Amount:    received,
		PlanIndex: planIndex,
		StartTime: uint64(e.now().Unix()),
	}
	positions = append(positions, position)
	if err := e.state.PutStakingPositions(caller, positions); err != nil {
		return 0, err
	}

	total, err := e.state.StakingTotalStaked()
	if err != nil {
		return 0, err
	}
	total = new(big.Int).Add(total, received)
	if err := e.state.SetStakingTotalStaked(total); err != nil {
		return 0, err
	}
	if err := e.checkpoint(caller, positions); err != nil {
		return 0, err
	}

	e.telemetry.ObserveStake(strconv.FormatUint(planIndex, 10))
	e.telemetry.SetTotalStaked(total)
	e.emit(events.Staked{Account: caller, Amount: received, PlanIndex: planIndex}.Event())
	return uint64(len(positions) - 1), nil
}

// Withdraw closes the caller's position at the given index. A matured
// position pays principal plus the accrued reward from the shared pool; an
// early withdrawal returns principal minus the plan penalty and credits the
// penalty to the pool. Either way the position becomes terminal.
func (e *Engine) Withdraw(caller [20]byte, positionIndex uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	positions, err := e.state.StakingPositions(caller)
	if err != nil {
		return err
	}
	if positionIndex >= uint64(len(positions)) {
		return ErrInvalidStakeIndex
	}
	position := positions[positionIndex]
	if position == nil || position.Withdrawn {
		return ErrInvalidStakeIndex
	}
	plan := e.plans[position.PlanIndex]

	now := uint64(e.now().Unix())
	var elapsed uint64
	if now > position.StartTime {
		elapsed = now - position.StartTime
	}

	pool, err := e.state.StakingRewardPool()
	if err != nil {
		return err
	}

	if elapsed >= plan.LockPeriod {
		accrual := elapsed
		if e.policy.CapAccrualAtMaturity && accrual > plan.LockPeriod {
			accrual = plan.LockPeriod
		}
		reward := rewardAmount(position.Amount, plan.RewardRate, accrual)
		if pool.Cmp(reward) < 0 {
			return ErrInsufficientRewardPool
		}
		payout := new(big.Int).Add(position.Amount, reward)
		if _, err := e.token.Transfer(e.vault, caller, payout); err != nil {
			return err
		}
		pool = new(big.Int).Sub(pool, reward)
		if err := e.state.SetStakingRewardPool(pool); err != nil {
			return err
		}
		e.telemetry.ObserveWithdrawal("matured")
		e.emit(events.Withdrawn{Account: caller, Principal: position.Amount, Reward: reward}.Event())
	} else {
		penalty := penaltyAmount(position.Amount, plan.EarlyWithdrawalPenalty)
		payout := new(big.Int).Sub(position.Amount, penalty)
		// A 100% penalty leaves nothing to pay out; the position still closes.
		if payout.Sign() > 0 {
			if _, err := e.token.Transfer(e.vault, caller, payout); err != nil {
				return err
			}
		}
		pool = new(big.Int).Add(pool, penalty)
		if err := e.state.SetStakingRewardPool(pool); err != nil {
			return err
		}
		e.telemetry.ObserveWithdrawal("early")
		e.emit(events.EarlyWithdrawal{Account: caller, Principal: position.Amount, Penalty: penalty}.Event())
	}

	position.Withdrawn = true
	if err := e.state.PutStakingPositions(caller, positions); err != nil {
		return err
	}
	total, err := e.state.StakingTotalStaked()
	if err != nil {
		return err
	}
	total = new(big.Int).Sub(total, position.Amount)
	if err := e.state.SetStakingTotalStaked(total); err != nil {
		return err
	}
	e.telemetry.SetTotalStaked(total)
	e.telemetry.SetRewardPool(pool)
	return e.checkpoint(caller, positions)
}

// AddRewardPool pulls amount of the staking token from the caller into the
// shared reward pool. Open to anyone unless the RestrictTopUps policy limits
// it to the owner.
func (e *Engine) AddRewardPool(caller [20]byte, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if e.policy.RestrictTopUps && caller != e.owner {
		return ErrTopUpsRestricted
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return ErrZeroAmount
	}
	received, err := e.token.TransferFrom(e.vault, caller, e.vault, amt)
	if err != nil {
		return err
	}
	pool, err := e.state.StakingRewardPool()
	if err != nil {
		return err
	}
	balance := new(big.Int).Add(pool, received)
	if err := e.state.SetStakingRewardPool(balance); err != nil {
		return err
	}
	e.telemetry.SetRewardPool(balance)
	e.emit(events.RewardPoolToppedUp{From: caller, Amount: received, Balance: balance}.Event())
	return nil
}

// AccessLockedFunds transfers amount of the staking token out of vault
// custody to the owner capability, bounded by 30% of the current total staked
// principal. The cap is recomputed against live state on every call and holds
// regardless of reward pool health; individual positions are untouched.
func (e *Engine) AccessLockedFunds(caller [20]byte, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if caller != e.owner {
		return ErrNotOwner
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return ErrZeroAmount
	}
	total, err := e.state.StakingTotalStaked()
	if err != nil {
		return err
	}
	if amt.Cmp(liquidityCap(total)) > 0 {
		return ErrExceedsLiquidityCap
	}
	if _, err := e.token.Transfer(e.vault, caller, amt); err != nil {
		return err
	}
	pool, err := e.state.StakingRewardPool()
	if err != nil {
		return err
	}
	pool = new(big.Int).Sub(pool, amt)
	if err := e.state.SetStakingRewardPool(pool); err != nil {
		return err
	}
	e.telemetry.SetRewardPool(pool)
	e.emit(events.LockedFundsAccessed{Recipient: caller, Amount: amt, TotalStaked: total}.Event())
	return nil
}

// VotingPower returns the live voting power derived from the account's
// non-withdrawn positions.
func (e *Engine) VotingPower(account [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrStateNotConfigured
	}
	positions, err := e.state.StakingPositions(account)
	if err != nil {
		return nil, err
	}
	return e.votingPowerOf(positions), nil
}

// VotingPowerAt resolves the account's voting power as of the given
// checkpoint sequence. A reference of zero returns the latest checkpoint.
func (e *Engine) VotingPowerAt(account [20]byte, ref uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrStateNotConfigured
	}
	checkpoints, err := e.state.StakingCheckpoints(account)
	if err != nil {
		return nil, err
	}
	if len(checkpoints) == 0 {
		return big.NewInt(0), nil
	}
	if ref == 0 {
		return cloneBigInt(checkpoints[len(checkpoints)-1].Power), nil
	}
	// First checkpoint strictly after ref; the answer precedes it.
	idx := sort.Search(len(checkpoints), func(i int) bool {
		return checkpoints[i].Seq > ref
	})
	if idx == 0 {
		return big.NewInt(0), nil
	}
	return cloneBigInt(checkpoints[idx-1].Power), nil
}

// CheckpointSeq returns the last allocated checkpoint sequence number, which
// governance records as its snapshot reference. Checkpoints written after the
// snapshot carry a higher sequence and are excluded from historical lookups.
func (e *Engine) CheckpointSeq() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrStateNotConfigured
	}
	return e.state.StakingCheckpointSeq()
}

// UserTotalStake returns the sum of the account's non-withdrawn principal.
func (e *Engine) UserTotalStake(account [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrStateNotConfigured
	}
	positions, err := e.state.StakingPositions(account)
	if err != nil {
		return nil, err
	}
	return liveStake(positions), nil
}

// Positions returns the account's positions with derived maturity metadata.
func (e *Engine) Positions(account [20]byte) ([]PositionInfo, error) {
	if e == nil || e.state == nil {
		return nil, ErrStateNotConfigured
	}
	positions, err := e.state.StakingPositions(account)
	if err != nil {
		return nil, err
	}
	infos := make([]PositionInfo, 0, len(positions))
	for i, position := range positions {
		if position == nil {
			continue
		}
		plan := e.plans[position.PlanIndex]
		infos = append(infos, PositionInfo{
			Index:     uint64(i),
			Amount:    cloneBigInt(position.Amount),
			PlanIndex: position.PlanIndex,
			StartTime: position.StartTime,
			MatureAt:  position.StartTime + plan.LockPeriod,
			Withdrawn: position.Withdrawn,
		})
	}
	return infos, nil
}

// RewardPool returns the shared pool balance.
func (e *Engine) RewardPool() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrStateNotConfigured
	}
	return e.state.StakingRewardPool()
}

// TotalStaked returns the aggregate non-withdrawn principal.
func (e *Engine) TotalStaked() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrStateNotConfigured
	}
	return e.state.StakingTotalStaked()
}

func (e *Engine) votingPowerOf(positions []*Position) *big.Int {
	power := big.NewInt(0)
	for _, position := range positions {
		if position == nil || position.Withdrawn {
			continue
		}
		plan := e.plans[position.PlanIndex]
		power.Add(power, votingWeight(position.Amount, plan.VotingMultiplierBps))
	}
	return power
}

func (e *Engine) checkpoint(account [20]byte, positions []*Position) error {
	seq, err := e.state.StakingNextCheckpointSeq()
	if err != nil {
		return err
	}
	return e.state.AppendStakingCheckpoint(account, Checkpoint{
		Seq:   seq,
		Power: e.votingPowerOf(positions),
	})
}

// HandleCall dispatches router calls against the privileged staking surface.
// The timelock reaches this path when executing approved proposals.
func (e *Engine) HandleCall(from [20]byte, value *big.Int, data []byte) error {
	var envelope core.CallEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("staking: invalid calldata: %w", err)
	}
	switch envelope.Method {
	case "accessLockedFunds":
		amount, err := parseAmount(envelope.Params["amount"])
		if err != nil {
			return err
		}
		return e.AccessLockedFunds(from, amount)
	default:
		return fmt.Errorf("staking: unsupported method %q", envelope.Method)
	}
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("staking: amount is required")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("staking: invalid amount %q", raw)
	}
	return value, nil
}

func liveStake(positions []*Position) *big.Int {
	total := big.NewInt(0)
	for _, position := range positions {
		if position == nil || position.Withdrawn {
			continue
		}
		total.Add(total, position.Amount)
	}
	return total
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
