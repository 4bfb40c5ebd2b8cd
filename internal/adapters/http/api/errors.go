package api

import "errors"

// Sentinel kinds for request validation.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidAddress = errors.New("invalid address")
)
