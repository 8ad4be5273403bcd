package subdevice

import "fmt"

// DefaultStepperParams returns the stepper block used when nothing is configured.
func DefaultStepperParams() StepperParams {
	return StepperParams{
		In1:          16,
		In2:          17,
		In3:          18,
		In4:          19,
		StepsPerRev:  4096,
		MaxDegPerSec: 90,
		MinDeg:       0,
		MaxDeg:       360,
	}
}

// DefaultDCMotorParams returns the DC motor block used when nothing is configured.
func DefaultDCMotorParams() DCMotorParams {
	return DCMotorParams{
		DirPin:       25,
		PWMPin:       27,
		PWMChannel:   0,
		PWMHz:        500,
		PWMBits:      8,
		Deadband:     900,
		MaxPWM:       255,
		RampBufferMs: 120,
	}
}

// DefaultRelayParams returns the relay block used when nothing is configured.
func DefaultRelayParams() OutputParams {
	return OutputParams{Pin: 22, ActiveHigh: true}
}

// DefaultLEDParams returns the LED block used when nothing is configured.
func DefaultLEDParams() OutputParams {
	return OutputParams{Pin: 21, ActiveHigh: true}
}

// DefaultPixelParams returns the pixel strip block used when nothing is configured.
func DefaultPixelParams() PixelParams {
	return PixelParams{Pin: 26, Count: 30, Brightness: 50}
}

// DefaultConfig returns an enabled subdevice of type t at universe 1, address 1,
// with every runtime block at its default.
func DefaultConfig(t Type, name string) Config {
	return Config{
		Enabled: true,
		Name:    name,
		Type:    t,
		Map:     Mapping{Universe: 1, StartAddr: 1},
		Stepper: DefaultStepperParams(),
		DC:      DefaultDCMotorParams(),
		Relay:   DefaultRelayParams(),
		LED:     DefaultLEDParams(),
		Pixels:  DefaultPixelParams(),
	}
}

// DefaultSettings returns the controller-wide defaults.
func DefaultSettings() Settings {
	return Settings{
		IP:            "192.168.1.60",
		Gateway:       "192.168.1.1",
		Mask:          "255.255.255.0",
		SACNMode:      SACNUnicast,
		LossMode:      LossForceOff,
		LossTimeoutMs: 1000,
	}
}

// DefaultSubdevices returns the built-in starter set: a DC motor on slots 1-2
// and a stepper on slots 3-4 of universe 1.
func DefaultSubdevices() []Config {
	dc := DefaultConfig(TypeDCMotor, "dc-1")
	stepper := DefaultConfig(TypeStepper, "stepper-1")
	stepper.Map.StartAddr = 3
	return []Config{dc, stepper}
}

// DefaultAppConfig returns the document written when no config file exists.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Settings:   DefaultSettings(),
		Subdevices: DefaultSubdevices(),
	}
}

// fallbackName is the name given to a subdevice whose stored name is blank.
func fallbackName(index int) string {
	return fmt.Sprintf("subdevice-%d", index+1)
}

// generatedName is the name given to a subdevice added without one.
func generatedName(t Type, count int) string {
	return fmt.Sprintf("%s-%d", t.DisplayName(), count)
}
