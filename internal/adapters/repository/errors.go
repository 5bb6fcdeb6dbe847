package repository

import "errors"

// Sentinel kinds for history store errors.
var (
	ErrStore         = errors.New("history store failure")
	ErrUnknownDriver = errors.New("unknown history store driver")
	ErrInvalidLimit  = errors.New("invalid history limit")
)
