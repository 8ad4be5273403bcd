package subdevice

import (
	"fmt"
	"net/netip"
)

// Sanity bounds applied when a document is loaded or a subdevice is updated.
const (
	minLossTimeoutMs = 100
	maxLossTimeoutMs = 60000
	minStepsPerRev   = 200
	maxStepsPerRev   = 20000
	minDegPerSec     = 1
	maxDegPerSec     = 5000
	minPWMBits       = 1
	maxPWMBits       = 16
	maxPWMChannel    = 15
	maxPixelCount    = 1024
	maxBrightness    = 255
)

// ValidateMapping checks a universe/start address pair.
func ValidateMapping(m Mapping) error {
	if m.Universe < 1 {
		return fmt.Errorf("%w: universe %d must be at least 1", ErrInvalidMapping, m.Universe)
	}
	if m.StartAddr < MinAddress || m.StartAddr > MaxAddress {
		return fmt.Errorf("%w: start address %d outside %d-%d", ErrInvalidMapping, m.StartAddr, MinAddress, MaxAddress)
	}
	return nil
}

// ValidateType checks that t is a known actuator family.
func ValidateType(t Type) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidType, int(t))
	}
	return nil
}

// ValidateSettings checks the controller-wide fields.
// Static addressing requires parseable IPv4 addresses.
func ValidateSettings(s Settings) error {
	if s.SACNMode != SACNUnicast && s.SACNMode != SACNMulticast {
		return fmt.Errorf("%w: sacn mode %d", ErrInvalidSettings, s.SACNMode)
	}
	if s.LossMode < LossForceOff || s.LossMode > LossHoldLast {
		return fmt.Errorf("%w: loss mode %d", ErrInvalidSettings, s.LossMode)
	}
	if s.LossTimeoutMs < minLossTimeoutMs || s.LossTimeoutMs > maxLossTimeoutMs {
		return fmt.Errorf("%w: loss timeout %dms outside %d-%d", ErrInvalidSettings,
			s.LossTimeoutMs, minLossTimeoutMs, maxLossTimeoutMs)
	}
	if s.SACNBufferMs < 0 {
		return fmt.Errorf("%w: negative sacn buffer", ErrInvalidSettings)
	}
	if s.UseStatic {
		for field, v := range map[string]string{"ip": s.IP, "gw": s.Gateway, "mask": s.Mask} {
			addr, err := netip.ParseAddr(v)
			if err != nil || !addr.Is4() {
				return fmt.Errorf("%w: %s %q is not an IPv4 address", ErrInvalidSettings, field, v)
			}
		}
	}
	return nil
}

// sanitize clamps every field of a loaded document into its working range.
func sanitize(cfg *AppConfig) {
	cfg.LossTimeoutMs = clamp(cfg.LossTimeoutMs, minLossTimeoutMs, maxLossTimeoutMs)
	if cfg.SACNBufferMs < 0 {
		cfg.SACNBufferMs = 0
	}
	for i := range cfg.Subdevices {
		c := &cfg.Subdevices[i]
		if c.Map.Universe < 1 {
			c.Map.Universe = 1
		}
		c.Map.StartAddr = clamp(c.Map.StartAddr, MinAddress, MaxAddress)
		sanitizeParams(c)
	}
}

// sanitizeParams clamps the runtime blocks of a single subdevice.
func sanitizeParams(c *Config) {
	st := &c.Stepper
	st.StepsPerRev = clamp(st.StepsPerRev, minStepsPerRev, maxStepsPerRev)
	if st.MaxDegPerSec < minDegPerSec {
		st.MaxDegPerSec = minDegPerSec
	} else if st.MaxDegPerSec > maxDegPerSec {
		st.MaxDegPerSec = maxDegPerSec
	}
	if st.MinDeg > st.MaxDeg {
		st.MinDeg, st.MaxDeg = st.MaxDeg, st.MinDeg
	}

	dc := &c.DC
	dc.PWMBits = clamp(dc.PWMBits, minPWMBits, maxPWMBits)
	dc.PWMChannel = clamp(dc.PWMChannel, 0, maxPWMChannel)
	if dc.PWMHz < 1 {
		dc.PWMHz = 1
	}
	if dc.Deadband < 0 {
		dc.Deadband = 0
	}
	if dc.MaxPWM < 0 {
		dc.MaxPWM = 0
	}
	if dc.RampBufferMs < 0 {
		dc.RampBufferMs = 0
	}

	c.Pixels.Count = clamp(c.Pixels.Count, 0, maxPixelCount)
	c.Pixels.Brightness = clamp(c.Pixels.Brightness, 0, maxBrightness)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
