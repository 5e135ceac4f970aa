package governance

import (
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"wagmi/native/timelock"
)

// ProposalStatus enumerates the lifecycle phases a proposal transitions
// through from submission to execution.
type ProposalStatus uint8

const (
	// ProposalStatusUnspecified indicates the proposal has not been
	// initialised and should not appear in state.
	ProposalStatusUnspecified ProposalStatus = iota
	// ProposalStatusActive identifies proposals accepting votes.
	ProposalStatusActive
	// ProposalStatusCanceled marks proposals withdrawn by their proposer
	// before the voting window closed.
	ProposalStatusCanceled
	// ProposalStatusDefeated marks proposals that failed quorum or the
	// pass threshold.
	ProposalStatusDefeated
	// ProposalStatusSucceeded marks proposals that passed and await
	// queueing into the timelock.
	ProposalStatusSucceeded
	// ProposalStatusQueued marks proposals whose call batch is scheduled
	// in the timelock.
	ProposalStatusQueued
	// ProposalStatusExpired marks queued proposals whose execution window
	// lapsed without execution.
	ProposalStatusExpired
	// ProposalStatusExecuted marks proposals whose calls have been applied.
	ProposalStatusExecuted
)

// String provides a textual representation for logs and APIs.
func (s ProposalStatus) String() string {
	switch s {
	case ProposalStatusActive:
		return "active"
	case ProposalStatusCanceled:
		return "canceled"
	case ProposalStatusDefeated:
		return "defeated"
	case ProposalStatusSucceeded:
		return "succeeded"
	case ProposalStatusQueued:
		return "queued"
	case ProposalStatusExpired:
		return "expired"
	case ProposalStatusExecuted:
		return "executed"
	default:
		return "unspecified"
	}
}

// Action is one (target, value, calldata) triple in a proposal's call list.
type Action struct {
	Target [20]byte `json:"target"`
	Value  *big.Int `json:"value"`
	Data   []byte   `json:"data"`
}

// Clone returns a deep copy of the action.
func (a Action) Clone() Action {
	clone := a
	if a.Value != nil {
		clone.Value = new(big.Int).Set(a.Value)
	}
	clone.Data = append([]byte(nil), a.Data...)
	return clone
}

// Proposal captures the immutable call list, snapshot reference, and
// lifecycle bookkeeping for one governance proposal.
type Proposal struct {
	ID          [32]byte       `json:"id"`
	Proposer    [20]byte       `json:"proposer"`
	Actions     []Action       `json:"actions"`
	Description string         `json:"description"`
	SnapshotSeq uint64         `json:"snapshotSeq"`
	VoteStart   uint64         `json:"voteStart"`
	VoteEnd     uint64         `json:"voteEnd"`
	Status      ProposalStatus `json:"status"`
	ETA         uint64         `json:"eta"`
	Tally       *Tally         `json:"tally,omitempty"`
}

// VoteChoice enumerates the supported ballot selections.
type VoteChoice string

const (
	// VoteChoiceYes signals support for the proposal.
	VoteChoiceYes VoteChoice = "yes"
	// VoteChoiceNo signals opposition.
	VoteChoiceNo VoteChoice = "no"
	// VoteChoiceAbstain counts towards quorum without taking a side.
	VoteChoiceAbstain VoteChoice = "abstain"
)

// Valid reports whether the choice is a supported selection.
func (c VoteChoice) Valid() bool {
	switch c {
	case VoteChoiceYes, VoteChoiceNo, VoteChoiceAbstain:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (c VoteChoice) String() string { return string(c) }

// Vote records one participant's weighted ballot. The weight is fixed at the
// proposal's snapshot reference so stake churn inside the window cannot
// change a recorded ballot's power.
type Vote struct {
	ProposalID [32]byte   `json:"proposalId"`
	Voter      [20]byte   `json:"voter"`
	Choice     VoteChoice `json:"choice"`
	Power      *big.Int   `json:"power"`
	Timestamp  uint64     `json:"timestamp"`
}

// Tally aggregates the recorded voting power per choice at finalization.
type Tally struct {
	YesPower     *big.Int `json:"yesPower"`
	NoPower      *big.Int `json:"noPower"`
	AbstainPower *big.Int `json:"abstainPower"`
	Turnout      *big.Int `json:"turnout"`
	TotalBallots uint64   `json:"totalBallots"`
}

// HashProposal derives the deterministic proposal identifier from the call
// list and description. The encoding matches the timelock batch hash over the
// same actions so indexers can correlate the two, with the description hash
// folded in as the differentiator.
func HashProposal(actions []Action, description string) [32]byte {
	calls := make([]timelock.Call, len(actions))
	for i, action := range actions {
		calls[i] = timelock.Call{Target: action.Target, Value: action.Value, Data: action.Data}
	}
	var descHash [32]byte
	copy(descHash[:], ethcrypto.Keccak256([]byte(description)))
	return timelock.HashOperationBatch(calls, [32]byte{}, descHash)
}
