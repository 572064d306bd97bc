package codec

import "errors"

// Codec error types.
var (
	ErrCorruptPayload = errors.New("corrupt disk payload")
	ErrRecordTooLarge = errors.New("stack record field too large")
)
