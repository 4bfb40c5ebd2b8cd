package ledger

import "errors"

// Sentinel kinds for ledger access errors.
var (
	ErrDial            = errors.New("ledger dial failed")
	ErrCall            = errors.New("ledger call failed")
	ErrInvalidContract = errors.New("invalid contract address")
)
