package disk

import "errors"

// Disk error types.
var (
	ErrNotADisk        = errors.New("item is not a disk")
	ErrPayloadTooLarge = errors.New("payload exceeds disk capacity")
	ErrBayOutOfRange   = errors.New("bay index out of range")
)
