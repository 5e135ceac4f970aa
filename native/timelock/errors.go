package timelock

import "errors"

var (
	ErrStateNotConfigured  = errors.New("timelock: state not configured")
	ErrRouterNotConfigured = errors.New("timelock: call router not configured")
	ErrMissingRole         = errors.New("timelock: account is missing role")
	ErrDelayTooShort       = errors.New("timelock: insufficient delay")
	ErrAlreadyScheduled    = errors.New("timelock: operation already scheduled")
	ErrNotScheduled        = errors.New("timelock: operation is not scheduled")
	ErrNotReady            = errors.New("timelock: operation is not ready")
	ErrPredecessorPending  = errors.New("timelock: missing dependency")
	ErrAlreadyExecuted     = errors.New("timelock: operation already executed")
	ErrEmptyBatch          = errors.New("timelock: empty call batch")
)
