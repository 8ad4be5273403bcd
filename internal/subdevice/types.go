package subdevice

// MaxSubdevices is the registry capacity.
const MaxSubdevices = 12

// DMX512 slot address range.
const (
	MinAddress = 1
	MaxAddress = 512
)

// Type identifies the actuator family of a subdevice.
// The integer values are persisted and must not be renumbered.
type Type int

// Actuator families.
const (
	TypeStepper    Type = 0
	TypeDCMotor    Type = 1
	TypeRelay      Type = 2
	TypeLED        Type = 3
	TypePixelStrip Type = 4
)

// AllTypes returns every known actuator family in tag order.
func AllTypes() []Type {
	return []Type{TypeStepper, TypeDCMotor, TypeRelay, TypeLED, TypePixelStrip}
}

// Valid reports whether t is a known actuator family.
func (t Type) Valid() bool {
	return t >= TypeStepper && t <= TypePixelStrip
}

// DisplayName returns the human-readable family name used for generated names.
func (t Type) DisplayName() string {
	switch t {
	case TypeStepper:
		return "Stepper"
	case TypeDCMotor:
		return "DC Motor"
	case TypeRelay:
		return "Relay"
	case TypeLED:
		return "LED"
	case TypePixelStrip:
		return "Pixel Strip"
	default:
		return "Unknown"
	}
}

// String implements fmt.Stringer.
func (t Type) String() string {
	return t.DisplayName()
}

// SlotWidth returns how many consecutive DMX slots the family consumes.
// Unknown families consume none.
func (t Type) SlotWidth() int {
	switch t {
	case TypeStepper, TypeDCMotor:
		return 2
	case TypeRelay, TypeLED:
		return 1
	case TypePixelStrip:
		return 3
	default:
		return 0
	}
}

// SACNMode selects how the controller joins sACN universes.
type SACNMode int

const (
	SACNUnicast   SACNMode = 0
	SACNMulticast SACNMode = 1
)

// LossMode selects what happens when the DMX source goes quiet.
// It is stored and exposed but not acted on by the engine.
type LossMode int

const (
	LossForceOff LossMode = 0
	LossForceOn  LossMode = 1
	LossHoldLast LossMode = 2
)

// Mapping places a subdevice on a universe starting at a 1-based slot address.
type Mapping struct {
	Universe  int `json:"universe"`
	StartAddr int `json:"startAddr"`
}

// StepperParams configures a four-coil stepper motor.
// Limits and home offset are stored but not applied by frame decoding.
type StepperParams struct {
	In1             int     `json:"in1"`
	In2             int     `json:"in2"`
	In3             int     `json:"in3"`
	In4             int     `json:"in4"`
	StepsPerRev     int     `json:"stepsPerRev"`
	MaxDegPerSec    float64 `json:"maxDegPerSec"`
	LimitsEnabled   bool    `json:"limitsEnabled"`
	MinDeg          float64 `json:"minDeg"`
	MaxDeg          float64 `json:"maxDeg"`
	HomeOffsetSteps int     `json:"homeOffsetSteps"`
}

// DCMotorParams configures a direction-plus-PWM DC motor driver.
type DCMotorParams struct {
	DirPin       int  `json:"dirPin"`
	PWMPin       int  `json:"pwmPin"`
	PWMChannel   int  `json:"pwmChannel"`
	PWMHz        int  `json:"pwmHz"`
	PWMBits      int  `json:"pwmBits"`
	Deadband     int  `json:"deadband"`
	MaxPWM       int  `json:"maxPwm"`
	Command16Bit bool `json:"command16Bit"`
	RampBufferMs int  `json:"rampBufferMs"`
}

// OutputParams configures a single digital output (relay or LED).
type OutputParams struct {
	Pin        int  `json:"pin"`
	ActiveHigh bool `json:"activeHigh"`
}

// PixelParams configures an addressable pixel strip.
type PixelParams struct {
	Pin        int `json:"pin"`
	Count      int `json:"count"`
	Brightness int `json:"brightness"`
}

// Config describes one subdevice. Every runtime block is always populated;
// Type selects which one is consulted.
type Config struct {
	Enabled bool          `json:"enabled"`
	Name    string        `json:"name"`
	Type    Type          `json:"type"`
	Map     Mapping       `json:"map"`
	Stepper StepperParams `json:"stepper"`
	DC      DCMotorParams `json:"dc"`
	Relay   OutputParams  `json:"relay"`
	LED     OutputParams  `json:"led"`
	Pixels  PixelParams   `json:"pixels"`
}

// Params is the runtime block selected by a subdevice's Type.
// It is implemented by StepperParams, DCMotorParams, RelayParams, LEDParams
// and PixelParams.
type Params interface {
	paramsType() Type
}

// RelayParams is the relay view of an OutputParams block.
type RelayParams OutputParams

// LEDParams is the LED view of an OutputParams block.
type LEDParams OutputParams

func (StepperParams) paramsType() Type { return TypeStepper }
func (DCMotorParams) paramsType() Type { return TypeDCMotor }
func (RelayParams) paramsType() Type   { return TypeRelay }
func (LEDParams) paramsType() Type     { return TypeLED }
func (PixelParams) paramsType() Type   { return TypePixelStrip }

// Params returns the active runtime block, or nil for an unknown Type.
func (c Config) Params() Params {
	switch c.Type {
	case TypeStepper:
		return c.Stepper
	case TypeDCMotor:
		return c.DC
	case TypeRelay:
		return RelayParams(c.Relay)
	case TypeLED:
		return LEDParams(c.LED)
	case TypePixelStrip:
		return c.Pixels
	default:
		return nil
	}
}

// SetParams overwrites the block matching p's family and leaves the others
// untouched.
func (c *Config) SetParams(p Params) {
	switch v := p.(type) {
	case StepperParams:
		c.Stepper = v
	case DCMotorParams:
		c.DC = v
	case RelayParams:
		c.Relay = OutputParams(v)
	case LEDParams:
		c.LED = OutputParams(v)
	case PixelParams:
		c.Pixels = v
	}
}

// SlotWidth returns the number of DMX slots this subdevice reads.
func (c Config) SlotWidth() int {
	return c.Type.SlotWidth()
}

// Settings holds the controller-wide network and sACN fields.
type Settings struct {
	SSID          string   `json:"ssid"`
	Password      string   `json:"password"`
	UseStatic     bool     `json:"useStatic"`
	IP            string   `json:"ip"`
	Gateway       string   `json:"gw"`
	Mask          string   `json:"mask"`
	SACNMode      SACNMode `json:"sacnMode"`
	SACNBufferMs  int      `json:"sacnBufferMs"`
	LossMode      LossMode `json:"lossMode"`
	LossTimeoutMs int      `json:"lossTimeoutMs"`
}

// AppConfig is the persisted controller document.
type AppConfig struct {
	Settings
	Subdevices []Config `json:"subdevices"`
}

// Clone returns an independent copy of the document.
func (a *AppConfig) Clone() *AppConfig {
	if a == nil {
		return nil
	}
	cpy := *a
	cpy.Subdevices = make([]Config, len(a.Subdevices))
	copy(cpy.Subdevices, a.Subdevices)
	return &cpy
}
