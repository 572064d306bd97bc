package session

import "errors"

// Session error types.
var (
	ErrSessionNotFound = errors.New("reader session not found")
	ErrSlotOutOfRange  = errors.New("slot index out of range")
	ErrSlotEmpty       = errors.New("slot is empty")
	ErrInvalidAmount   = errors.New("amount must be positive")
)
