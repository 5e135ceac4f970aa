package governance

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"wagmi/core/events"
	"wagmi/core/types"
	"wagmi/native/timelock"
	"wagmi/observability/metrics"
)

const (
	// EventTypeProposalCreated is emitted when a new proposal is accepted.
	EventTypeProposalCreated = "gov.proposalCreated"
	// EventTypeVoteCast is emitted when a voter records or updates a ballot.
	EventTypeVoteCast = "gov.vote"
	// EventTypeProposalFinalized is emitted when the outcome is determined.
	EventTypeProposalFinalized = "gov.finalized"
	// EventTypeProposalQueued marks proposals scheduled into the timelock.
	EventTypeProposalQueued = "gov.queued"
	// EventTypeProposalExecuted marks proposals whose calls have run.
	EventTypeProposalExecuted = "gov.executed"
	// EventTypeProposalCanceled marks proposals withdrawn by their proposer.
	EventTypeProposalCanceled = "gov.canceled"
)

type proposalState interface {
	GovernancePutProposal(p *Proposal) error
	GovernanceGetProposal(id [32]byte) (*Proposal, bool, error)
	GovernancePutVote(v *Vote) error
	GovernanceListVotes(id [32]byte) ([]*Vote, error)
}

// PowerSource resolves voting power against the staking checkpoint log. The
// staking engine satisfies this interface.
type PowerSource interface {
	VotingPowerAt(account [20]byte, ref uint64) (*big.Int, error)
	CheckpointSeq() (uint64, error)
}

// Scheduler hands approved call batches to the timelock queue. The timelock
// controller satisfies this interface.
type Scheduler interface {
	MinDelay() (uint64, error)
	ScheduleBatch(caller [20]byte, calls []timelock.Call, predecessor, salt [32]byte, delay uint64) ([32]byte, error)
	ExecuteBatch(caller [20]byte, calls []timelock.Call, predecessor, salt [32]byte) error
}

// Policy captures the runtime knobs that control proposal admission and
// outcome determination.
type Policy struct {
	// ProposalThreshold is the minimum snapshotted voting power required
	// to create a proposal.
	ProposalThreshold *big.Int
	// VotingPeriodSeconds is the length of the voting window.
	VotingPeriodSeconds uint64
	// QuorumPower is the minimum turnout (yes+no+abstain power) for a
	// proposal to be eligible to pass.
	QuorumPower *big.Int
	// PassThresholdBps is the minimum yes/(yes+no) ratio in basis points.
	PassThresholdBps uint64
	// GracePeriodSeconds bounds how long a queued proposal stays
	// executable after its ETA before expiring.
	GracePeriodSeconds uint64
}

type governanceEvent struct {
	evt *types.Event
}

func (g governanceEvent) EventType() string {
	if g.evt == nil {
		return ""
	}
	return g.evt.Type
}

func (g governanceEvent) Event() *types.Event { return g.evt }

// Engine drives proposals from admission through voting, queueing, and
// execution. Voting weight comes from the staking checkpoint log sampled at
// proposal creation; approved call batches execute only through the timelock.
type Engine struct {
	state     proposalState
	power     PowerSource
	scheduler Scheduler
	emitter   events.Emitter
	nowFn     func() time.Time
	telemetry *metrics.GovernanceMetrics
	self      [20]byte
	policy    Policy
}

// NewEngine constructs a governance engine bound to its module address. The
// module address must hold the timelock's proposer and executor capabilities
// for queueing and execution to succeed.
func NewEngine(self [20]byte, policy Policy) *Engine {
	if policy.ProposalThreshold == nil {
		policy.ProposalThreshold = big.NewInt(0)
	}
	if policy.QuorumPower == nil {
		policy.QuorumPower = big.NewInt(0)
	}
	return &Engine{
		emitter:   events.NoopEmitter{},
		nowFn:     func() time.Time { return time.Now().UTC() },
		telemetry: metrics.Governance(),
		self:      self,
		policy:    policy,
	}
}

// SetState wires the engine to the state backend.
func (e *Engine) SetState(state proposalState) { e.state = state }

// SetPowerSource wires the engine to the staking voting-power log.
func (e *Engine) SetPowerSource(power PowerSource) { e.power = power }

// SetScheduler wires the engine to the timelock queue.
func (e *Engine) SetScheduler(scheduler Scheduler) { e.scheduler = scheduler }

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
	e.emitter.Emit(governanceEvent{evt: event})
}

func (e *Engine) now() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	return uint64(e.nowFn().Unix())
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return ErrStateNotConfigured
	}
	if e.power == nil {
		return ErrPowerSourceNotSet
	}
	return nil
}

// Propose admits a new proposal after checking the proposer's snapshotted
// voting power against the configured threshold. The argument arity follows
// the external interface: parallel target, value, and calldata slices.
func (e *Engine) Propose(proposer [20]byte, targets [][20]byte, values []*big.Int, calldatas [][]byte, description string) ([32]byte, error) {
	var zero [32]byte
	if err := e.ready(); err != nil {
		return zero, err
	}
	if len(targets) == 0 {
		return zero, ErrEmptyProposal
	}
	if len(targets) != len(values) || len(targets) != len(calldatas) {
		return zero, ErrArityMismatch
	}

	power, err := e.power.VotingPowerAt(proposer, 0)
	if err != nil {
		return zero, err
	}
	if power.Cmp(e.policy.ProposalThreshold) < 0 {
		return zero, ErrBelowProposalThreshold
	}

	actions := make([]Action, len(targets))
	for i := range targets {
		value := values[i]
		if value == nil {
			value = big.NewInt(0)
		}
		actions[i] = Action{
			Target: targets[i],
			Value:  new(big.Int).Set(value),
			Data:   append([]byte(nil), calldatas[i]...),
		}
	}
	id := HashProposal(actions, description)
	if _, exists, err := e.state.GovernanceGetProposal(id); err != nil {
		return zero, err
	} else if exists {
		return zero, ErrProposalExists
	}

	snapshot, err := e.power.CheckpointSeq()
	if err != nil {
		return zero, err
	}
	now := e.now()
	proposal := &Proposal{
		ID:          id,
		Proposer:    proposer,
		Actions:     actions,
		Description: description,
		SnapshotSeq: snapshot,
		VoteStart:   now,
		VoteEnd:     now + e.policy.VotingPeriodSeconds,
		Status:      ProposalStatusActive,
	}
	if err := e.state.GovernancePutProposal(proposal); err != nil {
		return zero, err
	}

	e.telemetry.ObserveProposal("created")
	e.emit(newProposalCreatedEvent(proposal))
	return id, nil
}

// GetVotes resolves the account's voting power at the given checkpoint
// reference; zero resolves the latest value.
func (e *Engine) GetVotes(account [20]byte, ref uint64) (*big.Int, error) {
	if e == nil || e.power == nil {
		return nil, ErrPowerSourceNotSet
	}
	return e.power.VotingPowerAt(account, ref)
}

// CastVote records the voter's ballot with weight sampled at the proposal's
// snapshot reference. A later submission overwrites the prior ballot.
func (e *Engine) CastVote(id [32]byte, voter [20]byte, choice string) error {
	if err := e.ready(); err != nil {
		return err
	}
	proposal, ok, err := e.state.GovernanceGetProposal(id)
	if err != nil {
		return err
	}
	if !ok || proposal == nil {
		return ErrProposalNotFound
	}
	if proposal.Status != ProposalStatusActive {
		return ErrVotingClosed
	}
	now := e.now()
	if now > proposal.VoteEnd {
		return ErrVotingClosed
	}

	normalized := VoteChoice(strings.ToLower(strings.TrimSpace(choice)))
	if !normalized.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidChoice, choice)
	}

	power, err := e.power.VotingPowerAt(voter, proposal.SnapshotSeq)
	if err != nil {
		return err
	}
	if power.Sign() == 0 {
		return ErrZeroVotingPower
	}

	vote := &Vote{
		ProposalID: id,
		Voter:      voter,
		Choice:     normalized,
		Power:      power,
		Timestamp:  now,
	}
	if err := e.state.GovernancePutVote(vote); err != nil {
		return err
	}
	e.telemetry.ObserveVote()
	e.emit(newVoteEvent(vote))
	return nil
}

// Finalize closes the voting window, tallies the recorded ballots, and
// transitions the proposal to Succeeded or Defeated.
func (e *Engine) Finalize(id [32]byte) (ProposalStatus, *Tally, error) {
	if err := e.ready(); err != nil {
		return ProposalStatusUnspecified, nil, err
	}
	proposal, ok, err := e.state.GovernanceGetProposal(id)
	if err != nil {
		return ProposalStatusUnspecified, nil, err
	}
	if !ok || proposal == nil {
		return ProposalStatusUnspecified, nil, ErrProposalNotFound
	}
	if proposal.Status != ProposalStatusActive {
		return proposal.Status, nil, fmt.Errorf("governance: proposal %s not in voting period", hex.EncodeToString(id[:8]))
	}
	if e.now() <= proposal.VoteEnd {
		return ProposalStatusUnspecified, nil, ErrVotingInProgress
	}

	votes, err := e.state.GovernanceListVotes(id)
	if err != nil {
		return ProposalStatusUnspecified, nil, err
	}
	tally := &Tally{
		YesPower:     big.NewInt(0),
		NoPower:      big.NewInt(0),
		AbstainPower: big.NewInt(0),
		Turnout:      big.NewInt(0),
	}
	for _, vote := range votes {
		if vote == nil || vote.Power == nil {
			continue
		}
		switch vote.Choice {
		case VoteChoiceYes:
			tally.YesPower.Add(tally.YesPower, vote.Power)
		case VoteChoiceNo:
			tally.NoPower.Add(tally.NoPower, vote.Power)
		case VoteChoiceAbstain:
			tally.AbstainPower.Add(tally.AbstainPower, vote.Power)
		default:
			return ProposalStatusUnspecified, nil, fmt.Errorf("%w: %q", ErrInvalidChoice, vote.Choice)
		}
		tally.TotalBallots++
	}
	tally.Turnout.Add(tally.Turnout, tally.YesPower)
	tally.Turnout.Add(tally.Turnout, tally.NoPower)
	tally.Turnout.Add(tally.Turnout, tally.AbstainPower)

	status := ProposalStatusDefeated
	if tally.Turnout.Cmp(e.policy.QuorumPower) >= 0 && passes(tally, e.policy.PassThresholdBps) {
		status = ProposalStatusSucceeded
	}

	proposal.Status = status
	proposal.Tally = tally
	if err := e.state.GovernancePutProposal(proposal); err != nil {
		return ProposalStatusUnspecified, nil, err
	}
	e.telemetry.ObserveProposal(status.String())
	e.emit(newFinalizedEvent(proposal, tally))
	return status, tally, nil
}

// Queue forwards a succeeded proposal's call batch to the timelock as a
// single operation salted with the proposal id.
func (e *Engine) Queue(id [32]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	if e.scheduler == nil {
		return ErrSchedulerNotSet
	}
	proposal, ok, err := e.state.GovernanceGetProposal(id)
	if err != nil {
		return err
	}
	if !ok || proposal == nil {
		return ErrProposalNotFound
	}
	switch proposal.Status {
	case ProposalStatusSucceeded:
	case ProposalStatusQueued:
		return ErrAlreadyQueued
	default:
		return ErrNotSucceeded
	}

	delay, err := e.scheduler.MinDelay()
	if err != nil {
		return err
	}
	if _, err := e.scheduler.ScheduleBatch(e.self, timelockCalls(proposal.Actions), [32]byte{}, proposal.ID, delay); err != nil {
		return err
	}
	proposal.Status = ProposalStatusQueued
	proposal.ETA = e.now() + delay
	if err := e.state.GovernancePutProposal(proposal); err != nil {
		return err
	}
	e.telemetry.ObserveTimelock("scheduled")
	e.emit(newQueuedEvent(proposal))
	return nil
}

// Execute runs a queued proposal's call batch through the timelock. The
// timelock enforces the delay; the engine additionally expires proposals
// whose grace period has lapsed.
func (e *Engine) Execute(id [32]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	if e.scheduler == nil {
		return ErrSchedulerNotSet
	}
	proposal, ok, err := e.state.GovernanceGetProposal(id)
	if err != nil {
		return err
	}
	if !ok || proposal == nil {
		return ErrProposalNotFound
	}
	switch proposal.Status {
	case ProposalStatusQueued:
	case ProposalStatusExecuted:
		return ErrAlreadyExecuted
	case ProposalStatusExpired:
		return ErrProposalExpired
	default:
		return ErrNotQueued
	}
	if e.policy.GracePeriodSeconds > 0 && e.now() > proposal.ETA+e.policy.GracePeriodSeconds {
		proposal.Status = ProposalStatusExpired
		if err := e.state.GovernancePutProposal(proposal); err != nil {
			return err
		}
		return ErrProposalExpired
	}

	if err := e.scheduler.ExecuteBatch(e.self, timelockCalls(proposal.Actions), [32]byte{}, proposal.ID); err != nil {
		return err
	}
	proposal.Status = ProposalStatusExecuted
	if err := e.state.GovernancePutProposal(proposal); err != nil {
		return err
	}
	e.telemetry.ObserveTimelock("executed")
	e.emit(newExecutedEvent(proposal))
	return nil
}

// Cancel withdraws an active proposal. Only the proposer may cancel, and only
// while the voting window is still open.
func (e *Engine) Cancel(caller [20]byte, id [32]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	proposal, ok, err := e.state.GovernanceGetProposal(id)
	if err != nil {
		return err
	}
	if !ok || proposal == nil {
		return ErrProposalNotFound
	}
	if proposal.Proposer != caller {
		return ErrNotProposer
	}
	if proposal.Status != ProposalStatusActive {
		return ErrNotCancelable
	}
	proposal.Status = ProposalStatusCanceled
	if err := e.state.GovernancePutProposal(proposal); err != nil {
		return err
	}
	e.telemetry.ObserveProposal("canceled")
	e.emit(newCanceledEvent(proposal))
	return nil
}

// Proposal returns the stored proposal for the id.
func (e *Engine) Proposal(id [32]byte) (*Proposal, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, ErrStateNotConfigured
	}
	return e.state.GovernanceGetProposal(id)
}

func passes(tally *Tally, thresholdBps uint64) bool {
	denom := new(big.Int).Add(tally.YesPower, tally.NoPower)
	if denom.Sign() == 0 {
		return false
	}
	ratio := new(big.Int).Mul(tally.YesPower, big.NewInt(10_000))
	ratio.Quo(ratio, denom)
	return ratio.Cmp(new(big.Int).SetUint64(thresholdBps)) >= 0
}

func timelockCalls(actions []Action) []timelock.Call {
	calls := make([]timelock.Call, len(actions))
	for i, action := range actions {
		calls[i] = timelock.Call{Target: action.Target, Value: action.Value, Data: action.Data}
	}
	return calls
}

func newProposalCreatedEvent(p *Proposal) *types.Event {
	attrs := make(map[string]string)
	if p == nil {
		return &types.Event{Type: EventTypeProposalCreated, Attributes: attrs}
	}
	attrs["id"] = hex.EncodeToString(p.ID[:])
	attrs["proposer"] = hex.EncodeToString(p.Proposer[:])
	attrs["actions"] = strconv.Itoa(len(p.Actions))
	attrs["snapshotSeq"] = strconv.FormatUint(p.SnapshotSeq, 10)
	attrs["voteStart"] = strconv.FormatUint(p.VoteStart, 10)
	attrs["voteEnd"] = strconv.FormatUint(p.VoteEnd, 10)
	if desc := strings.TrimSpace(p.Description); desc != "" {
		attrs["descriptionHash"] = hex.EncodeToString(ethcrypto.Keccak256([]byte(desc)))
	}
	return &types.Event{Type: EventTypeProposalCreated, Attributes: attrs}
}

func newVoteEvent(v *Vote) *types.Event {
	attrs := make(map[string]string)
	if v == nil {
		return &types.Event{Type: EventTypeVoteCast, Attributes: attrs}
	}
	attrs["id"] = hex.EncodeToString(v.ProposalID[:])
	attrs["voter"] = hex.EncodeToString(v.Voter[:])
	attrs["choice"] = v.Choice.String()
	if v.Power != nil {
		attrs["power"] = v.Power.String()
	}
	attrs["timestamp"] = strconv.FormatUint(v.Timestamp, 10)
	return &types.Event{Type: EventTypeVoteCast, Attributes: attrs}
}

func newFinalizedEvent(p *Proposal, tally *Tally) *types.Event {
	attrs := make(map[string]string)
	if p != nil {
		attrs["id"] = hex.EncodeToString(p.ID[:])
		attrs["status"] = p.Status.String()
	}
	if tally != nil {
		attrs["yesPower"] = tally.YesPower.String()
		attrs["noPower"] = tally.NoPower.String()
		attrs["abstainPower"] = tally.AbstainPower.String()
		attrs["turnout"] = tally.Turnout.String()
		attrs["totalBallots"] = strconv.FormatUint(tally.TotalBallots, 10)
	}
	return &types.Event{Type: EventTypeProposalFinalized, Attributes: attrs}
}

func newQueuedEvent(p *Proposal) *types.Event {
	attrs := make(map[string]string)
	if p != nil {
		attrs["id"] = hex.EncodeToString(p.ID[:])
		attrs["eta"] = strconv.FormatUint(p.ETA, 10)
	}
	return &types.Event{Type: EventTypeProposalQueued, Attributes: attrs}
}

func newExecutedEvent(p *Proposal) *types.Event {
	attrs := make(map[string]string)
	if p != nil {
		attrs["id"] = hex.EncodeToString(p.ID[:])
		attrs["status"] = p.Status.String()
	}
	return &types.Event{Type: EventTypeProposalExecuted, Attributes: attrs}
}

func newCanceledEvent(p *Proposal) *types.Event {
	attrs := make(map[string]string)
	if p != nil {
		attrs["id"] = hex.EncodeToString(p.ID[:])
	}
	return &types.Event{Type: EventTypeProposalCanceled, Attributes: attrs}
}
