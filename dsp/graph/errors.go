package graph

import "errors"

// Errors returned by scheduled sources and node setters.
var (
	ErrAlreadyStarted = errors.New("graph: source already started")
	ErrNotStarted     = errors.New("graph: source not started")
	ErrInvalidTime    = errors.New("graph: time must be finite and >= 0")
)
