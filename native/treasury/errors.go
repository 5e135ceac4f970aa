package treasury

import "errors"

var (
	ErrStateNotConfigured   = errors.New("treasury: state not configured")
	ErrTokenNotConfigured   = errors.New("treasury: token ledger not configured")
	ErrNotOwner             = errors.New("treasury: caller is not the owner")
	ErrInvalidCategory      = errors.New("treasury: invalid category")
	ErrCategoryExists       = errors.New("treasury: category already exists")
	ErrZeroAmount           = errors.New("treasury: amount must be positive")
	ErrInsufficientUnspent  = errors.New("treasury: allocation exceeds unallocated balance")
	ErrInsufficientAlloc    = errors.New("treasury: transfer exceeds category allocation")
	ErrCategoryHasAllocation = errors.New("treasury: category still holds allocated funds")
)
