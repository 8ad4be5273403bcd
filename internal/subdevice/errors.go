package subdevice

import "errors"

// Domain errors for the subdevice package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, subdevice.ErrCapacity) {
//	    // registry is full
//	}
var (
	// ErrCapacity is returned when adding to a registry that already holds MaxSubdevices entries.
	ErrCapacity = errors.New("subdevice: capacity reached")

	// ErrNotFound is returned when an index is outside the current list.
	ErrNotFound = errors.New("subdevice: not found")

	// ErrInvalidType is returned when a type tag is not one of the known actuator families.
	ErrInvalidType = errors.New("subdevice: invalid type")

	// ErrInvalidMapping is returned when a universe or start address is out of range.
	ErrInvalidMapping = errors.New("subdevice: invalid mapping")

	// ErrInvalidSettings is returned when global settings fail validation.
	ErrInvalidSettings = errors.New("subdevice: invalid settings")
)
