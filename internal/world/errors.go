package world

import "errors"

// World error types.
var (
	ErrCellOccupied   = errors.New("cell already occupied")
	ErrDriveNotFound  = errors.New("drive not found")
	ErrBayOccupied    = errors.New("bay already holds a disk")
	ErrUnknownClass   = errors.New("unknown item class")
	ErrStateNotFound  = errors.New("no saved world state")
	ErrUnknownBackend = errors.New("unknown state backend")
)
