package actuation

import (
	"fmt"

	"github.com/nerrad567/novaprops-core/internal/subdevice"
)

// Event kinds recorded by RunTest.
const (
	KindStepperTest = "stepper_test"
	KindDCTest      = "dc_test"
	KindRelayTest   = "relay_test"
	KindLEDTest     = "led_test"
	KindPixelsTest  = "pixels_test"
)

// RunTest records one diagnostic event for the subdevice at index and returns
// a human-readable summary.
//
//   - stepper: a quarter turn, reported in degrees
//   - DC motor: half of maxPwm, forward
//   - relay, LED: pin and polarity
//   - pixel strip: pin, count and brightness
//
// Returns subdevice.ErrNotFound for a bad index and ErrUnsupportedType for a
// type with no test action.
func (e *Engine) RunTest(index int) (string, error) {
	c, err := e.source.Get(index)
	if err != nil {
		return "", err
	}

	var kind string
	var payload map[string]any

	switch p := c.Params().(type) {
	case subdevice.StepperParams:
		kind = KindStepperTest
		payload = map[string]any{"name": c.Name, "deltaDegrees": quarterTurn(p.StepsPerRev)}
	case subdevice.DCMotorParams:
		kind = KindDCTest
		payload = map[string]any{"name": c.Name, "pwm": p.MaxPWM / 2, "direction": string(Forward)}
	case subdevice.RelayParams:
		kind = KindRelayTest
		payload = map[string]any{"name": c.Name, "pin": p.Pin, "activeHigh": p.ActiveHigh}
	case subdevice.LEDParams:
		kind = KindLEDTest
		payload = map[string]any{"name": c.Name, "pin": p.Pin, "activeHigh": p.ActiveHigh}
	case subdevice.PixelParams:
		kind = KindPixelsTest
		payload = map[string]any{"name": c.Name, "pin": p.Pin, "count": p.Count, "brightness": p.Brightness}
	default:
		return "", fmt.Errorf("%w: %d", ErrUnsupportedType, int(c.Type))
	}

	e.out.Emit(kind, payload)
	e.logger.Info("test triggered", "index", index, "name", c.Name, "kind", kind)
	return fmt.Sprintf("test triggered for %s (%s)", c.Name, c.Type.DisplayName()), nil
}

// quarterTurn converts a quarter of a revolution in steps back into degrees.
func quarterTurn(stepsPerRev int) float64 {
	if stepsPerRev <= 0 {
		return fullTurnDegs / 4
	}
	steps := float64(stepsPerRev) / 4
	return round3(fullTurnDegs * steps / float64(stepsPerRev))
}
