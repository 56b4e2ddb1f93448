package service

import "errors"

var (
	ErrNotFound                 = errors.New("not found")
	ErrAlreadyHigherOrEqualTier = errors.New("already holding a higher or equal vip level")
	ErrInsufficientBalance      = errors.New("insufficient withdrawable balance")
	ErrBelowMinimum             = errors.New("amount is below the minimum")
	ErrInvalidPin               = errors.New("invalid withdraw pin")
	ErrNoActiveMembership       = errors.New("no active vip membership")
	ErrCooldownActive           = errors.New("daily task already completed, cooldown active")

	ErrUserBlocked       = errors.New("user is blocked")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidMethod     = errors.New("unsupported payment method")
	ErrInvalidInput      = errors.New("invalid input")
	ErrAlreadyResolved   = errors.New("transaction already resolved")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPhoneTaken        = errors.New("phone number already registered")
	ErrAlreadyRegistered = errors.New("telegram account already linked to a user")
	ErrForbidden         = errors.New("admin privileges required")
)
