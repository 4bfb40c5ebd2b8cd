package engine

import "errors"

// Sentinel kinds for pipeline failures.
var (
	ErrDiscovery = errors.New("participant discovery failed")
	ErrAggregate = errors.New("participant aggregation failed")
)
