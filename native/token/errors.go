package token

import "errors"

var (
	ErrStateNotConfigured    = errors.New("token: state not configured")
	ErrNotOwner              = errors.New("token: caller is not the owner")
	ErrPaused                = errors.New("token: token transfers are paused")
	ErrZeroAmount            = errors.New("token: amount must be positive")
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrFeeExceedsMaximum     = errors.New("token: total fee cannot exceed 100%")
)
