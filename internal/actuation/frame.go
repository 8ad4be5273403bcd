package actuation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nerrad567/novaprops-core/internal/subdevice"
)

// Slots maps 1-based DMX addresses to their byte value.
// Addresses that are not present read as 0.
type Slots map[int]uint8

// At returns the value at addr, or 0 when the slot is missing.
func (s Slots) At(addr int) int {
	return int(s[addr])
}

// word returns the big-endian 16-bit value of addr (high) and addr+1 (low).
func (s Slots) word(addr int) int {
	return s.At(addr)<<8 | s.At(addr+1)
}

// ValidateUniverse checks a frame's universe number.
func ValidateUniverse(universe int) error {
	if universe < 1 {
		return fmt.Errorf("%w: universe %d must be at least 1", ErrInvalidFrame, universe)
	}
	return nil
}

// ParseSlots converts a decoded JSON object of address → value into Slots.
//
// Keys must be integers within 1-512. Values must be numeric (JSON numbers or
// numeric strings) and are rounded and clamped into 0-255.
func ParseSlots(raw map[string]any) (Slots, error) {
	slots := make(Slots, len(raw))
	for key, v := range raw {
		addr, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("%w: address %q is not an integer", ErrInvalidSlot, key)
		}
		if addr < subdevice.MinAddress || addr > subdevice.MaxAddress {
			return nil, fmt.Errorf("%w: address %d outside %d-%d", ErrInvalidSlot,
				addr, subdevice.MinAddress, subdevice.MaxAddress)
		}
		f, ok := slotNumber(v)
		if !ok {
			return nil, fmt.Errorf("%w: value for address %d is not numeric", ErrInvalidSlot, addr)
		}
		slots[addr] = clampByte(f)
	}
	return slots, nil
}

func slotNumber(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case int:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func clampByte(f float64) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 255:
		return 255
	default:
		return uint8(math.Round(f))
	}
}
