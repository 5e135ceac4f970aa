package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"wagmi/native/governance"
	"wagmi/native/staking"
	"wagmi/native/timelock"
	"wagmi/native/token"
	"wagmi/storage"
)

// Manager persists module state in a key-value backend. Every engine talks to
// it through a narrow per-module interface; the manager is the only component
// that knows the key layout. Keys are keccak-hashed so backend iteration
// order never leaks into behaviour, and values are JSON documents.
type Manager struct {
	mu sync.Mutex
	db storage.Database
}

// NewManager creates a state manager operating on the provided backend.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func hashedKey(prefix, suffix []byte) []byte {
	buf := make([]byte, len(prefix)+len(suffix))
	copy(buf, prefix)
	copy(buf[len(prefix):], suffix)
	return ethcrypto.Keccak256(buf)
}

func (m *Manager) load(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("state: decode value: %w", err)
	}
	return true, nil
}

func (m *Manager) store(key []byte, value interface{}) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: encode value: %w", err)
	}
	return m.db.Put(key, encoded)
}

func (m *Manager) loadBigInt(key []byte) (*big.Int, error) {
	var raw string
	ok, err := m.load(key, &raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	value, valid := new(big.Int).SetString(raw, 10)
	if !valid {
		return nil, fmt.Errorf("state: corrupt big integer %q", raw)
	}
	return value, nil
}

func (m *Manager) storeBigInt(key []byte, value *big.Int) error {
	if value == nil {
		value = big.NewInt(0)
	}
	return m.store(key, value.String())
}

func (m *Manager) loadUint64(key []byte) (uint64, error) {
	var value uint64
	if _, err := m.load(key, &value); err != nil {
		return 0, err
	}
	return value, nil
}

// --- token ledger state ---

func (m *Manager) TokenBalance(addr [20]byte) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadBigInt(hashedKey(tokenBalancePrefix, addr[:]))
}

func (m *Manager) SetTokenBalance(addr [20]byte, balance *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeBigInt(hashedKey(tokenBalancePrefix, addr[:]), balance)
}

func allowanceSuffix(owner, spender [20]byte) []byte {
	buf := make([]byte, 0, len(owner)+1+len(spender))
	buf = append(buf, owner[:]...)
	buf = append(buf, ':')
	buf = append(buf, spender[:]...)
	return buf
}

func (m *Manager) TokenAllowance(owner, spender [20]byte) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadBigInt(hashedKey(tokenAllowancePrefix, allowanceSuffix(owner, spender)))
}

func (m *Manager) SetTokenAllowance(owner, spender [20]byte, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeBigInt(hashedKey(tokenAllowancePrefix, allowanceSuffix(owner, spender)), amount)
}

func (m *Manager) TokenTotalSupply() (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadBigInt(hashedKey(tokenSupplyKeyRaw, nil))
}

func (m *Manager) SetTokenTotalSupply(supply *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeBigInt(hashedKey(tokenSupplyKeyRaw, nil), supply)
}

// TokenFees returns the recorded fee structure and whether one has ever been
// stored. Startup seeding uses the flag to avoid clobbering fees applied
// through governance.
func (m *Manager) TokenFees() (token.FeeStructure, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var fees token.FeeStructure
	ok, err := m.load(hashedKey(tokenFeesKeyRaw, nil), &fees)
	if err != nil {
		return token.FeeStructure{}, false, err
	}
	return fees, ok, nil
}

func (m *Manager) SetTokenFees(fees token.FeeStructure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(hashedKey(tokenFeesKeyRaw, nil), fees)
}

func (m *Manager) TokenPaused() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var paused bool
	if _, err := m.load(hashedKey(tokenPausedKeyRaw, nil), &paused); err != nil {
		return false, err
	}
	return paused, nil
}

func (m *Manager) SetTokenPaused(paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(hashedKey(tokenPausedKeyRaw, nil), paused)
}

func (m *Manager) TokenFeeExempt(addr [20]byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var exempt bool
	if _, err := m.load(hashedKey(tokenExemptPrefix, addr[:]), &exempt); err != nil {
		return false, err
	}
	return exempt, nil
}

func (m *Manager) SetTokenFeeExempt(addr [20]byte, exempt bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(hashedKey(tokenExemptPrefix, addr[:]), exempt)
}

// --- staking state ---

func (m *Manager) StakingPositions(owner [20]byte) ([]*staking.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var positions []*staking.Position
	if _, err := m.load(hashedKey(stakingPositionsPrefix, owner[:]), &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

func (m *Manager) PutStakingPositions(owner [20]byte, positions []*staking.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if positions == nil {
		positions = []*staking.Position{}
	}
	return m.store(hashedKey(stakingPositionsPrefix, owner[:]), positions)
}

func (m *Manager) StakingRewardPool() (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadBigInt(hashedKey(stakingRewardPoolKeyRaw, nil))
}

func (m *Manager) SetStakingRewardPool(balance *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeBigInt(hashedKey(stakingRewardPoolKeyRaw, nil), balance)
}

func (m *Manager) StakingTotalStaked() (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadBigInt(hashedKey(stakingTotalKeyRaw, nil))
}

func (m *Manager) SetStakingTotalStaked(total *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeBigInt(hashedKey(stakingTotalKeyRaw, nil), total)
}

// StakingCheckpointSeq returns the last allocated checkpoint sequence number
// without advancing the counter.
func (m *Manager) StakingCheckpointSeq() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadUint64(hashedKey(stakingSeqKeyRaw, nil))
}

// StakingNextCheckpointSeq advances the global checkpoint counter and returns
// the freshly allocated sequence number. Sequence numbers start at 1 so zero
// stays free as the "latest" sentinel.
func (m *Manager) StakingNextCheckpointSeq() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := hashedKey(stakingSeqKeyRaw, nil)
	current, err := m.loadUint64(key)
	if err != nil {
		return 0, err
	}
	next := current + 1
	if err := m.store(key, next); err != nil {
		return 0, err
	}
	return next, nil
}

func (m *Manager) StakingCheckpoints(owner [20]byte) ([]staking.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var checkpoints []staking.Checkpoint
	if _, err := m.load(hashedKey(stakingCheckpointsPrefix, owner[:]), &checkpoints); err != nil {
		return nil, err
	}
	return checkpoints, nil
}

func (m *Manager) AppendStakingCheckpoint(owner [20]byte, cp staking.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := hashedKey(stakingCheckpointsPrefix, owner[:])
	var checkpoints []staking.Checkpoint
	if _, err := m.load(key, &checkpoints); err != nil {
		return err
	}
	checkpoints = append(checkpoints, cp)
	return m.store(key, checkpoints)
}

// --- timelock state ---

func (m *Manager) TimelockOperation(id [32]byte) (*timelock.Operation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	op := new(timelock.Operation)
	ok, err := m.load(hashedKey(timelockOperationPrefix, id[:]), op)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return op, true, nil
}

func (m *Manager) PutTimelockOperation(op *timelock.Operation) error {
	if op == nil {
		return fmt.Errorf("state: nil timelock operation")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(hashedKey(timelockOperationPrefix, op.ID[:]), op)
}

func (m *Manager) TimelockMinDelay() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadUint64(hashedKey(timelockDelayKeyRaw, nil))
}

func (m *Manager) SetTimelockMinDelay(delay uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(hashedKey(timelockDelayKeyRaw, nil), delay)
}

func roleSuffix(role string, account [20]byte) []byte {
	buf := make([]byte, 0, len(role)+1+len(account))
	buf = append(buf, role...)
	buf = append(buf, ':')
	buf = append(buf, account[:]...)
	return buf
}

func (m *Manager) TimelockHasRole(role string, account [20]byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var enabled bool
	if _, err := m.load(hashedKey(timelockRolePrefix, roleSuffix(role, account)), &enabled); err != nil {
		return false, err
	}
	return enabled, nil
}

func (m *Manager) SetTimelockRole(role string, account [20]byte, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(hashedKey(timelockRolePrefix, roleSuffix(role, account)), enabled)
}

// --- governance state ---

func (m *Manager) GovernancePutProposal(p *governance.Proposal) error {
	if p == nil {
		return fmt.Errorf("state: nil proposal")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(hashedKey(governanceProposalPrefix, p.ID[:]), p)
}

func (m *Manager) GovernanceGetProposal(id [32]byte) (*governance.Proposal, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	proposal := new(governance.Proposal)
	ok, err := m.load(hashedKey(governanceProposalPrefix, id[:]), proposal)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return proposal, true, nil
}

func voteSuffix(id [32]byte, voter [20]byte) []byte {
	buf := make([]byte, 0, len(id)+1+len(voter))
	buf = append(buf, id[:]...)
	buf = append(buf, ':')
	buf = append(buf, voter[:]...)
	return buf
}

// GovernancePutVote stores a ballot and registers the voter in the proposal's
// vote index. Re-voting overwrites the stored ballot without duplicating the
// index entry.
func (m *Manager) GovernancePutVote(v *governance.Vote) error {
	if v == nil {
		return fmt.Errorf("state: nil vote")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	indexKey := hashedKey(governanceVoteIndexPrefix, v.ProposalID[:])
	var voters [][20]byte
	if _, err := m.load(indexKey, &voters); err != nil {
		return err
	}
	seen := false
	for _, voter := range voters {
		if voter == v.Voter {
			seen = true
			break
		}
	}
	if !seen {
		voters = append(voters, v.Voter)
		if err := m.store(indexKey, voters); err != nil {
			return err
		}
	}
	return m.store(hashedKey(governanceVotePrefix, voteSuffix(v.ProposalID, v.Voter)), v)
}

func (m *Manager) GovernanceListVotes(id [32]byte) ([]*governance.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var voters [][20]byte
	if _, err := m.load(hashedKey(governanceVoteIndexPrefix, id[:]), &voters); err != nil {
		return nil, err
	}
	votes := make([]*governance.Vote, 0, len(voters))
	for _, voter := range voters {
		vote := new(governance.Vote)
		ok, err := m.load(hashedKey(governanceVotePrefix, voteSuffix(id, voter)), vote)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("state: vote index references missing ballot")
		}
		votes = append(votes, vote)
	}
	return votes, nil
}

// --- treasury state ---

func (m *Manager) TreasuryCategories() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var categories []string
	if _, err := m.load(hashedKey(treasuryCategoriesKeyRaw, nil), &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (m *Manager) PutTreasuryCategories(categories []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if categories == nil {
		categories = []string{}
	}
	return m.store(hashedKey(treasuryCategoriesKeyRaw, nil), categories)
}

func (m *Manager) TreasuryAllocation(category string) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadBigInt(hashedKey(treasuryAllocationPrefix, []byte(category)))
}

func (m *Manager) SetTreasuryAllocation(category string, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeBigInt(hashedKey(treasuryAllocationPrefix, []byte(category)), amount)
}

func (m *Manager) TreasurySpent(category string) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadBigInt(hashedKey(treasurySpentPrefix, []byte(category)))
}

func (m *Manager) SetTreasurySpent(category string, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeBigInt(hashedKey(treasurySpentPrefix, []byte(category)), amount)
}
