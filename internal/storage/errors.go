package storage

import "errors"

// Storage error types.
var (
	ErrNoDisk      = errors.New("no disk in drive")
	ErrNotDropBox  = errors.New("position is not a drop box")
	ErrNoContainer = errors.New("no container at position")
)
