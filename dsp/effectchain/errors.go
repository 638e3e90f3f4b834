package effectchain

import "errors"

var (
	// ErrUnknownEffect is returned when a slot references an unregistered effect type.
	ErrUnknownEffect = errors.New("unknown effect type")
	// ErrUnknownSlot is returned for a slot name the rack does not have.
	ErrUnknownSlot = errors.New("unknown rack slot")
	// ErrUnknownImpulse is returned when the reverb names a missing impulse.
	ErrUnknownImpulse = errors.New("unknown impulse response")
)
