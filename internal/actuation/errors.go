package actuation

import "errors"

var (
	// ErrInvalidFrame is returned when a frame header (universe) is out of range.
	ErrInvalidFrame = errors.New("actuation: invalid frame")

	// ErrInvalidSlot is returned when a slot address or value cannot be used.
	ErrInvalidSlot = errors.New("actuation: invalid slot")

	// ErrUnsupportedType is returned by RunTest for a subdevice whose type has
	// no test action.
	ErrUnsupportedType = errors.New("actuation: unsupported subdevice type")
)
