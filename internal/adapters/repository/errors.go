package repository

import "errors"

// Sentinel kinds for snapshot reads.
var (
	ErrEmpty    = errors.New("no snapshot available")
	ErrNotFound = errors.New("address not ranked")
)
