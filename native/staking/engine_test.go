package staking

import (
	"errors"
	"math/big"
	"testing"
	"time"
)

type mockState struct {
	positions   map[[20]byte][]*Position
	checkpoints map[[20]byte][]Checkpoint
	rewardPool  *big.Int
	totalStaked *big.Int
	seq         uint64
}

func newMockState() *mockState {
	return &mockState{
		positions:   make(map[[20]byte][]*Position),
		checkpoints: make(map[[20]byte][]Checkpoint),
		rewardPool:  big.NewInt(0),
		totalStaked: big.NewInt(0),
	}
}

func (m *mockState) StakingPositions(owner [20]byte) ([]*Position, error) {
	stored := m.positions[owner]
	out := make([]*Position, len(stored))
	for i, position := range stored {
		out[i] = position.Clone()
	}
	return out, nil
}

func (m *mockState) PutStakingPositions(owner [20]byte, positions []*Position) error {
	stored := make([]*Position, len(positions))
	for i, position := range positions {
		stored[i] = position.Clone()
	}
	m.positions[owner] = stored
	return nil
}

func (m *mockState) StakingRewardPool() (*big.Int, error) {
	return new(big.Int).Set(m.rewardPool), nil
}

func (m *mockState) SetStakingRewardPool(balance *big.Int) error {
	m.rewardPool = new(big.Int).Set(balance)
	return nil
}

func (m *mockState) StakingTotalStaked() (*big.Int, error) {
	return new(big.Int).Set(m.totalStaked), nil
}

func (m *mockState) SetStakingTotalStaked(total *big.Int) error {
	m.totalStaked = new(big.Int).Set(total)
	return nil
}

func (m *mockState) StakingCheckpointSeq() (uint64, error) { return m.seq, nil }

func (m *mockState) StakingNextCheckpointSeq() (uint64, error) {
	m.seq++
	return m.seq, nil
}

func (m *mockState) StakingCheckpoints(owner [20]byte) ([]Checkpoint, error) {
	return append([]Checkpoint(nil), m.checkpoints[owner]...), nil
}

func (m *mockState) AppendStakingCheckpoint(owner [20]byte, cp Checkpoint) error {
	m.checkpoints[owner] = append(m.checkpoints[owner], cp)
	return nil
}

// mockLedger moves balances exactly; feeBps, when set, shaves the transferred
// amount the way a fee-on-transfer ledger would.
type mockLedger struct {
	balances map[[20]byte]*big.Int
	feeBps   uint64
}

func newMockLedger() *mockLedger {
	return &mockLedger{balances: make(map[[20]byte]*big.Int)}
}

func (l *mockLedger) credit(addr [20]byte, amount *big.Int) {
	balance, ok := l.balances[addr]
	if !ok {
		balance = big.NewInt(0)
	}
	l.balances[addr] = new(big.Int).Add(balance, amount)
}

func (l *mockLedger) balance(addr [20]byte) *big.Int {
	balance, ok := l.balances[addr]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(balance)
}

func (l *mockLedger) move(from, to [20]byte, amount *big.Int) (*big.Int, error) {
	balance := l.balance(from)
	if balance.Cmp(amount) < 0 {
		return nil, errors.New("insufficient balance")
	}
	l.balances[from] = new(big.Int).Sub(balance, amount)
	net := new(big.Int).Set(amount)
	if l.feeBps > 0 {
		fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(l.feeBps))
		fee.Quo(fee, big.NewInt(10_000))
		net.Sub(net, fee)
	}
	l.credit(to, net)
	return net, nil
}

func (l *mockLedger) Transfer(from, to [20]byte, amount *big.Int) (*big.Int, error) {
	return l.move(from, to, amount)
}

func (l *mockLedger) TransferFrom(spender, from, to [20]byte, amount *big.Int) (*big.Int, error) {
	return l.move(from, to, amount)
}

var (
	testVault = [20]byte{0xff, 0x01}
	testOwner = [20]byte{0xff, 0x02}
	staker    = [20]byte{0x01}
	whale     = [20]byte{0x02}
)

const (
	day       = uint64(24 * 60 * 60)
	startTime = int64(1_700_000_000)
)

func referencePlans() []Plan {
	return []Plan{
		{LockPeriod: 30 * day, RewardRate: 5, EarlyWithdrawalPenalty: 20, VotingMultiplierBps: 10_000},
		{LockPeriod: 90 * day, RewardRate: 10, EarlyWithdrawalPenalty: 15, VotingMultiplierBps: 12_500},
		{LockPeriod: 180 * day, RewardRate: 15, EarlyWithdrawalPenalty: 10, VotingMultiplierBps: 15_000},
		{LockPeriod: 365 * day, RewardRate: 20, EarlyWithdrawalPenalty: 5, VotingMultiplierBps: 20_000},
	}
}

type fixture struct {
	engine *Engine
	state  *mockState
	ledger *mockLedger
	now    *time.Time
}

func newFixture(t *testing.T, policy Policy) *fixture {
	t.Helper()
	state := newMockState()
	ledger := newMockLedger()
	engine := NewEngine(testVault, testOwner, referencePlans(), policy)
	engine.SetState(state)
	engine.SetToken(ledger)
	now := time.Unix(startTime, 0).UTC()
	f := &fixture{engine: engine, state: state, ledger: ledger, now: &now}
	engine.SetNowFunc(func() time.Time { return *f.now })
	return f
}

func (f *fixture) advance(seconds uint64) {
	*f.now = f.now.Add(time.Duration(seconds) * time.Second)
}

func tokens(n int64) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return new(big.Int).Mul(big.NewInt(n), scale)
}

func TestStakeCreatesPosition(t *testing.T) {
	f := newFixture(t, Policy{})
	f.ledger.credit(staker, tokens(1000))

	index, err := f.engine.Stake(staker, tokens(500), 0)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	if index != 0 {
		t.Fatalf("expected index 0, got %d", index)
	}

	positions, err := f.engine.Positions(staker)
	if err != nil {
		t.Fatalf("positions: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("expected one position, got %d", len(positions))
	}
	if positions[0].Amount.Cmp(tokens(500)) != 0 {
		t.Fatalf("amount mismatch: %s", positions[0].Amount)
	}
	if positions[0].MatureAt != uint64(startTime)+30*day {
		t.Fatalf("maturity mismatch: %d", positions[0].MatureAt)
	}

	total, err := f.engine.TotalStaked()
	if err != nil {
		t.Fatalf("total staked: %v", err)
	}
	if total.Cmp(tokens(500)) != 0 {
		t.Fatalf("total staked mismatch: %s", total)
	}
	if f.ledger.balance(testVault).Cmp(tokens(500)) != 0 {
		t.Fatalf("vault balance mismatch: %s", f.ledger.balance(testVault))
	}
}

func TestStakeRejectsInvalidInputs(t *testing.T) {
	f := newFixture(t, Policy{})
	f.ledger.credit(staker, tokens(1000))

	if _, err := f.engine.Stake(staker, tokens(500), 7); !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("expected invalid plan, got %v", err)
	}
	if _, err := f.engine.Stake(staker, big.NewInt(0), 0); !errors.Is(err, ErrZeroAmount) {
		t.Fatalf("expected zero amount, got %v", err)
	}
	if _, err := f.engine.Stake(staker, big.NewInt(-5), 0); !errors.Is(err, ErrZeroAmount) {
		t.Fatalf("expected zero amount for negative, got %v", err)
	}
}

func TestStakeEnforcesPerUserCap(t *testing.T) {
	f := newFixture(t, Policy{MaxStakePerUser: tokens(600)})
	f.ledger.credit(staker, tokens(1000))

	if _, err := f.engine.Stake(staker, tokens(500), 0); err != nil {
		t.Fatalf("first stake: %v", err)
	}
	if _, err := f.engine.Stake(staker, tokens(200), 0); !errors.Is(err, ErrExceedsMaximumStake) {
		t.Fatalf("expected cap error, got %v", err)
	}
	// Cap counts only live stake, so withdrawing frees headroom.
	f.advance(30 * day)
	f.state.rewardPool = tokens(100)
	f.ledger.credit(testVault, tokens(100))
	if err := f.engine.Withdraw(staker, 0); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if _, err := f.engine.Stake(staker, tokens(200), 0); err != nil {
		t.Fatalf("stake after withdraw: %v", err)
	}
}

func TestWhaleCapOverridesUserCap(t *testing.T) {
	f := newFixture(t, Policy{
		MaxStakePerUser:  tokens(100),
		MaxStakePerWhale: tokens(1000),
		Whales:           [][20]byte{whale},
	})
	f.ledger.credit(staker, tokens(1000))
	f.ledger.credit(whale, tokens(1000))

	if _, err := f.engine.Stake(staker, tokens(500), 0); !errors.Is(err, ErrExceedsMaximumStake) {
		t.Fatalf("expected user cap error, got %v", err)
	}
	if _, err := f.engine.Stake(whale, tokens(500), 0); err != nil {
		t.Fatalf("whale stake: %v", err)
	}
}

func TestMaturedWithdrawalPaysReferenceReward(t *testing.T) {
	f := newFixture(t, Policy{})
	f.ledger.credit(staker, tokens(500))
	f.ledger.credit(testVault, tokens(100))
	f.state.rewardPool = tokens(100)

	if _, err := f.engine.Stake(staker, tokens(500), 0); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.advance(30 * day)
	if err := f.engine.Withdraw(staker, 0); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	// 500e18 * 5% * 30d / 365d, integer multiply before divide.
	wantReward, _ := new(big.Int).SetString("2054794520547945205", 10)
	wantBalance := new(big.Int).Add(tokens(500), wantReward)
	if got := f.ledger.balance(staker); got.Cmp(wantBalance) != 0 {
		t.Fatalf("payout mismatch: got %s want %s", got, wantBalance)
	}

	pool, _ := f.engine.RewardPool()
	wantPool := new(big.Int).Sub(tokens(100), wantReward)
	if pool.Cmp(wantPool) != 0 {
		t.Fatalf("pool mismatch: got %s want %s", pool, wantPool)
	}
	total, _ := f.engine.TotalStaked()
	if total.Sign() != 0 {
		t.Fatalf("total staked should be zero, got %s", total)
	}
}

func TestWithdrawalRejectedWhenPoolCannotCoverReward(t *testing.T) {
	f := newFixture(t, Policy{})
	f.ledger.credit(staker, tokens(500))

	if _, err := f.engine.Stake(staker, tokens(500), 0); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.advance(30 * day)
	if err := f.engine.Withdraw(staker, 0); !errors.Is(err, ErrInsufficientRewardPool) {
		t.Fatalf("expected insufficient pool, got %v", err)
	}

	// Rejection leaves everything untouched.
	positions, _ := f.engine.Positions(staker)
	if positions[0].Withdrawn {
		t.Fatal("position must stay live after rejected withdrawal")
	}
	total, _ := f.engine.TotalStaked()
	if total.Cmp(tokens(500)) != 0 {
		t.Fatalf("total staked mutated: %s", total)
	}
}

func TestEarlyWithdrawalAppliesPenalty(t *testing.T) {
	f := newFixture(t, Policy{})
	f.ledger.credit(staker, tokens(500))

	if _, err := f.engine.Stake(staker, tokens(500), 0); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.advance(10 * day)
	if err := f.engine.Withdraw(staker, 0); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	// Plan 0 carries a 20% early-exit penalty.
	if got := f.ledger.balance(staker); got.Cmp(tokens(400)) != 0 {
		t.Fatalf("payout mismatch: got %s want %s", got, tokens(400))
	}
	pool, _ := f.engine.RewardPool()
	if pool.Cmp(tokens(100)) != 0 {
		t.Fatalf("penalty not credited to pool: %s", pool)
	}
}

func TestFullPenaltyEarlyWithdrawalCloses(t *testing.T) {
	f := newFixture(t, Policy{})
	f.engine.plans[0].EarlyWithdrawalPenalty = 100
	f.ledger.credit(staker, tokens(500))

	if _, err := f.engine.Stake(staker, tokens(500), 0); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.advance(10 * day)
	if err := f.engine.Withdraw(staker, 0); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	// The whole principal is forfeited to the pool; nothing pays out.
	if got := f.ledger.balance(staker); got.Sign() != 0 {
		t.Fatalf("expected zero payout, got %s", got)
	}
	pool, _ := f.engine.RewardPool()
	if pool.Cmp(tokens(500)) != 0 {
		t.Fatalf("penalty not credited to pool: %s", pool)
	}
	total, _ := f.engine.TotalStaked()
	if total.Sign() != 0 {
		t.Fatalf("total staked should be zero, got %s", total)
	}
	if err := f.engine.Withdraw(staker, 0); !errors.Is(err, ErrInvalidStakeIndex) {
		t.Fatalf("expected terminal position error, got %v", err)
	}
}

func TestWithdrawalIsTerminal(t *testing.T) {
	f := newFixture(t, Policy{})
	f.ledger.credit(staker, tokens(500))

	if _, err := f.engine.Stake(staker, tokens(500), 0); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.advance(10 * day)
	if err := f.engine.Withdraw(staker, 0); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if err := f.engine.Withdraw(staker, 0); !errors.Is(err, ErrInvalidStakeIndex) {
		t.Fatalf("expected terminal position error, got %v", err)
	}
	if err := f.engine.Withdraw(staker, 5); !errors.Is(err, ErrInvalidStakeIndex) {
		t.Fatalf("expected index error, got %v", err)
	}
}

func TestAccrualCapPolicy(t *testing.T) {
	f := newFixture(t, Policy{CapAccrualAtMaturity: true})
	f.ledger.credit(staker, tokens(500))
	f.ledger.credit(testVault, tokens(100))
	f.state.rewardPool = tokens(100)

	if _, err := f.engine.Stake(staker, tokens(500), 0); err != nil {
		t.Fatalf("stake: %v", err)
	}
	// Wait twice the lock; the capped policy still pays the 30-day reward.
	f.advance(60 * day)
	if err := f.engine.Withdraw(staker, 0); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	wantReward, _ := new(big.Int).SetString("2054794520547945205", 10)
	wantBalance := new(big.Int).Add(tokens(500), wantReward)
	if got := f.ledger.balance(staker); got.Cmp(wantBalance) != 0 {
		t.Fatalf("capped payout mismatch: got %s want %s", got, wantBalance)
	}
}

func TestFeeOnTransferCreditsNetReceived(t *testing.T) {
	f := newFixture(t, Policy{})
	f.ledger.feeBps = 100 // 1%
	f.ledger.credit(staker, tokens(500))

	if _, err := f.engine.Stake(staker, tokens(500), 0); err != nil {
		t.Fatalf("stake: %v", err)
	}
	positions, _ := f.engine.Positions(staker)
	wantNet := tokens(495)
	if positions[0].Amount.Cmp(wantNet) != 0 {
		t.Fatalf("position credited with gross: %s", positions[0].Amount)
	}
	total, _ := f.engine.TotalStaked()
	if total.Cmp(wantNet) != 0 {
		t.Fatalf("total staked mismatch: %s", total)
	}
}

func TestAddRewardPool(t *testing.T) {
	f := newFixture(t, Policy{})
	f.ledger.credit(staker, tokens(50))

	if err := f.engine.AddRewardPool(staker, tokens(50)); err != nil {
		t.Fatalf("top-up: %v", err)
	}
	pool, _ := f.engine.RewardPool()
	if pool.Cmp(tokens(50)) != 0 {
		t.Fatalf("pool mismatch: %s", pool)
	}

	restricted := newFixture(t, Policy{RestrictTopUps: true})
	restricted.ledger.credit(staker, tokens(50))
	if err := restricted.engine.AddRewardPool(staker, tokens(50)); !errors.Is(err, ErrTopUpsRestricted) {
		t.Fatalf("expected restriction error, got %v", err)
	}
}

func TestAccessLockedFundsBoundedByLiquidityCap(t *testing.T) {
	f := newFixture(t, Policy{})
	f.ledger.credit(staker, tokens(1000))
	if _, err := f.engine.Stake(staker, tokens(1000), 0); err != nil {
		t.Fatalf("stake: %v", err)
	}

	if err := f.engine.AccessLockedFunds(staker, tokens(100)); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected owner error, got %v", err)
	}
	if err := f.engine.AccessLockedFunds(testOwner, tokens(301)); !errors.Is(err, ErrExceedsLiquidityCap) {
		t.Fatalf("expected cap error, got %v", err)
	}
	if err := f.engine.AccessLockedFunds(testOwner, tokens(300)); err != nil {
		t.Fatalf("access: %v", err)
	}
	if got := f.ledger.balance(testOwner); got.Cmp(tokens(300)) != 0 {
		t.Fatalf("owner balance mismatch: %s", got)
	}
	// The draw is booked against the pool so the deficit is visible.
	pool, _ := f.engine.RewardPool()
	if pool.Cmp(new(big.Int).Neg(tokens(300))) != 0 {
		t.Fatalf("pool accounting mismatch: %s", pool)
	}
	// Positions and total staked are untouched.
	total, _ := f.engine.TotalStaked()
	if total.Cmp(tokens(1000)) != 0 {
		t.Fatalf("total staked mutated: %s", total)
	}
}

func TestVotingPowerAppliesMultipliers(t *testing.T) {
	f := newFixture(t, Policy{})
	f.ledger.credit(staker, tokens(1000))

	if _, err := f.engine.Stake(staker, tokens(100), 0); err != nil {
		t.Fatalf("stake plan 0: %v", err)
	}
	if _, err := f.engine.Stake(staker, tokens(100), 3); err != nil {
		t.Fatalf("stake plan 3: %v", err)
	}

	power, err := f.engine.VotingPower(staker)
	if err != nil {
		t.Fatalf("voting power: %v", err)
	}
	// 100 at 1x plus 100 at exactly 2x.
	if power.Cmp(tokens(300)) != 0 {
		t.Fatalf("power mismatch: got %s want %s", power, tokens(300))
	}
}

func TestVotingPowerAtResolvesHistoricalCheckpoints(t *testing.T) {
	f := newFixture(t, Policy{})
	f.ledger.credit(staker, tokens(1000))

	if _, err := f.engine.Stake(staker, tokens(100), 0); err != nil {
		t.Fatalf("stake: %v", err)
	}
	snapshot, err := f.engine.CheckpointSeq()
	if err != nil {
		t.Fatalf("checkpoint seq: %v", err)
	}

	// Stake churn after the snapshot must not affect the snapshotted value.
	if _, err := f.engine.Stake(staker, tokens(400), 0); err != nil {
		t.Fatalf("second stake: %v", err)
	}

	historical, err := f.engine.VotingPowerAt(staker, snapshot)
	if err != nil {
		t.Fatalf("voting power at: %v", err)
	}
	if historical.Cmp(tokens(100)) != 0 {
		t.Fatalf("snapshot power mismatch: got %s want %s", historical, tokens(100))
	}

	latest, err := f.engine.VotingPowerAt(staker, 0)
	if err != nil {
		t.Fatalf("latest power: %v", err)
	}
	if latest.Cmp(tokens(500)) != 0 {
		t.Fatalf("latest power mismatch: got %s want %s", latest, tokens(500))
	}

	none, err := f.engine.VotingPowerAt([20]byte{0x99}, snapshot)
	if err != nil {
		t.Fatalf("unknown account power: %v", err)
	}
	if none.Sign() != 0 {
		t.Fatalf("expected zero power, got %s", none)
	}
}

func TestVaultConservation(t *testing.T) {
	f := newFixture(t, Policy{})
	f.ledger.credit(staker, tokens(800))
	f.ledger.credit(testOwner, tokens(200))

	if _, err := f.engine.Stake(staker, tokens(500), 0); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if err := f.engine.AddRewardPool(testOwner, tokens(200)); err != nil {
		t.Fatalf("top-up: %v", err)
	}
	f.advance(10 * day)
	if err := f.engine.Withdraw(staker, 0); err != nil {
		t.Fatalf("early withdraw: %v", err)
	}

	// Vault custody always equals live principal plus the pool balance.
	total, _ := f.engine.TotalStaked()
	pool, _ := f.engine.RewardPool()
	want := new(big.Int).Add(total, pool)
	if got := f.ledger.balance(testVault); got.Cmp(want) != 0 {
		t.Fatalf("conservation violated: vault %s, principal+pool %s", got, want)
	}
}
