package staking

import "errors"

var (
	ErrStateNotConfigured      = errors.New("staking: state not configured")
	ErrTokenNotConfigured      = errors.New("staking: token ledger not configured")
	ErrInvalidPlan             = errors.New("staking: invalid plan")
	ErrZeroAmount              = errors.New("staking: amount must be positive")
	ErrExceedsMaximumStake     = errors.New("staking: stake exceeds maximum allowed")
	ErrInvalidStakeIndex       = errors.New("staking: invalid stake index")
	ErrInsufficientRewardPool  = errors.New("staking: insufficient reward pool")
	ErrNotOwner                = errors.New("staking: caller is not the owner")
	ErrExceedsLiquidityCap     = errors.New("staking: exceeds allowed cap")
	ErrTopUpsRestricted        = errors.New("staking: reward pool top-ups restricted to owner")
)
