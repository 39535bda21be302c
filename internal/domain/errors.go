package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	ErrMsgUnauthorized    = "unauthorized"
	ErrMsgInvalidMode     = "invalid streak mode"
	ErrMsgInvalidCooldown = "cooldown must be non-negative"
	ErrMsgStoreNotFound   = "store path not found"
	ErrMsgInvalidInput    = "invalid input"
)

// Common domain errors
// Wrap these with fmt.Errorf("%w: %s", domain.ErrXxx, details) for context.
var (
	ErrUnauthorized    = errors.New(ErrMsgUnauthorized)
	ErrInvalidMode     = errors.New(ErrMsgInvalidMode)
	ErrInvalidCooldown = errors.New(ErrMsgInvalidCooldown)
	ErrStoreNotFound   = errors.New(ErrMsgStoreNotFound)
	ErrInvalidInput    = errors.New(ErrMsgInvalidInput)
)
