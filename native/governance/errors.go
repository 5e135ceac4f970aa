package governance

import "errors"

var (
	ErrStateNotConfigured     = errors.New("governance: state not configured")
	ErrPowerSourceNotSet      = errors.New("governance: voting power source not configured")
	ErrSchedulerNotSet        = errors.New("governance: timelock scheduler not configured")
	ErrBelowProposalThreshold = errors.New("governance: proposer votes below proposal threshold")
	ErrProposalExists         = errors.New("governance: proposal already exists")
	ErrProposalNotFound       = errors.New("governance: proposal not found")
	ErrEmptyProposal          = errors.New("governance: proposal has no actions")
	ErrArityMismatch          = errors.New("governance: proposal argument arity mismatch")
	ErrVotingClosed           = errors.New("governance: voting period closed")
	ErrVotingInProgress       = errors.New("governance: voting still in progress")
	ErrInvalidChoice          = errors.New("governance: invalid vote choice")
	ErrZeroVotingPower        = errors.New("governance: voter has zero voting power")
	ErrNotSucceeded           = errors.New("governance: proposal has not succeeded")
	ErrNotQueued              = errors.New("governance: proposal not queued")
	ErrAlreadyQueued          = errors.New("governance: proposal already queued")
	ErrAlreadyExecuted        = errors.New("governance: proposal already executed")
	ErrProposalExpired        = errors.New("governance: proposal expired")
	ErrNotProposer            = errors.New("governance: caller is not the proposer")
	ErrNotCancelable          = errors.New("governance: proposal can no longer be canceled")
)
