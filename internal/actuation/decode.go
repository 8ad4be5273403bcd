package actuation

import (
	"math"

	"github.com/nerrad567/novaprops-core/internal/subdevice"
)

// Direction of a DC motor command.
type Direction string

const (
	Forward Direction = "fwd"
	Reverse Direction = "rev"
	Stop    Direction = "stop"
)

// Event kinds recorded by ApplyFrame.
const (
	KindDC      = "dc"
	KindStepper = "stepper"
	KindRelay   = "relay"
	KindLED     = "led"
	KindPixels  = "pixels"
)

const (
	dcCenter     = 32768
	maxWord      = 65535
	fullTurnDegs = 360.0
	onThreshold  = 128
)

// DecodeDC returns the signed command and direction for a DC motor at addr.
// In 16-bit mode addr is the high byte and addr+1 the low byte; otherwise
// slot addr is scaled by 257 to span the full 16-bit range.
func DecodeDC(p subdevice.DCMotorParams, slots Slots, addr int) (int, Direction) {
	var raw int
	if p.Command16Bit {
		raw = slots.word(addr)
	} else {
		raw = slots.At(addr) * 257
	}

	value := raw - dcCenter
	if abs(value) <= p.Deadband {
		value = 0
	}

	switch {
	case value > 0:
		return value, Forward
	case value < 0:
		return value, Reverse
	default:
		return 0, Stop
	}
}

// DecodeStepper returns the target angle in degrees, rounded to three places,
// for the 16-bit position at addr.
func DecodeStepper(slots Slots, addr int) float64 {
	return round3(float64(slots.word(addr)) / maxWord * fullTurnDegs)
}

// DecodeSwitch reports whether the slot at addr is in the upper half.
func DecodeSwitch(slots Slots, addr int) bool {
	return slots.At(addr) >= onThreshold
}

// DecodePixels returns the red, green and blue slots starting at addr.
func DecodePixels(slots Slots, addr int) []int {
	return []int{slots.At(addr), slots.At(addr + 1), slots.At(addr + 2)}
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
