package subdevice

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Store persists the controller document.
type Store interface {
	// Load returns the stored document, creating the built-in defaults when
	// nothing has been stored yet.
	Load() (*AppConfig, error)

	// Save replaces the stored document with cfg.
	Save(cfg *AppConfig) error
}

// FileStore keeps the controller document as a JSON file.
//
// Loading is tolerant: every key is coerced to its expected type on its own,
// so a bad value only resets that field to its default.
type FileStore struct {
	path   string
	logger Logger
}

// NewFileStore creates a store backed by the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, logger: noopLogger{}}
}

// SetLogger sets the logger for the store.
func (s *FileStore) SetLogger(logger Logger) {
	s.logger = logger
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the document from disk.
//
// A missing file yields DefaultAppConfig, which is written immediately.
// A file that is not a JSON object yields the defaults without touching the
// file. Only I/O failures are returned as errors.
func (s *FileStore) Load() (*AppConfig, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := DefaultAppConfig()
		if err := s.Save(cfg); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}
		s.logger.Info("default config created", "path", s.path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", s.path, err)
	}

	doc, err := decodeDocument(data)
	if err != nil {
		s.logger.Warn("config unreadable, using defaults", "path", s.path, "error", err)
		return DefaultAppConfig(), nil
	}

	cfg := buildAppConfig(doc)
	s.logger.Info("config loaded", "path", s.path, "subdevices", len(cfg.Subdevices))
	return cfg, nil
}

// Save writes the full document, replacing the previous file atomically.
func (s *FileStore) Save(cfg *AppConfig) error {
	if cfg == nil {
		return errors.New("subdevice: nil config")
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error takes precedence
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing config: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}

func decodeDocument(data []byte) (document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top level is %T, want object", raw)
	}
	return document(obj), nil
}

// buildAppConfig assembles a document key by key on top of the defaults.
func buildAppConfig(doc document) *AppConfig {
	def := DefaultSettings()
	cfg := &AppConfig{
		Settings: Settings{
			SSID:          doc.stringAt("ssid", def.SSID),
			Password:      doc.stringAt("password", def.Password),
			UseStatic:     doc.boolAt("useStatic", def.UseStatic),
			IP:            doc.stringAt("ip", def.IP),
			Gateway:       doc.stringAt("gw", def.Gateway),
			Mask:          doc.stringAt("mask", def.Mask),
			SACNMode:      SACNMode(doc.intAt("sacnMode", int(def.SACNMode))),
			SACNBufferMs:  doc.intAt("sacnBufferMs", def.SACNBufferMs),
			LossMode:      LossMode(doc.intAt("lossMode", int(def.LossMode))),
			LossTimeoutMs: doc.intAt("lossTimeoutMs", def.LossTimeoutMs),
		},
	}

	if list, ok := doc["subdevices"].([]any); ok {
		for _, item := range list {
			if len(cfg.Subdevices) == MaxSubdevices {
				break
			}
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			cfg.Subdevices = append(cfg.Subdevices, buildConfig(document(obj), len(cfg.Subdevices)))
		}
	}
	if len(cfg.Subdevices) == 0 {
		cfg.Subdevices = DefaultSubdevices()
	}

	sanitize(cfg)
	return cfg
}

// buildConfig overlays the keys present in doc onto a type-defaulted subdevice.
func buildConfig(doc document, index int) Config {
	t := Type(doc.intAt("type", int(TypeStepper)))
	c := DefaultConfig(t, "")
	c.Enabled = doc.boolAt("enabled", c.Enabled)
	c.Name = strings.TrimSpace(doc.stringAt("name", ""))
	if c.Name == "" {
		c.Name = fallbackName(index)
	}

	m := doc.object("map")
	c.Map.Universe = m.intAt("universe", c.Map.Universe)
	c.Map.StartAddr = m.intAt("startAddr", c.Map.StartAddr)

	st := doc.object("stepper")
	c.Stepper = StepperParams{
		In1:             st.intAt("in1", c.Stepper.In1),
		In2:             st.intAt("in2", c.Stepper.In2),
		In3:             st.intAt("in3", c.Stepper.In3),
		In4:             st.intAt("in4", c.Stepper.In4),
		StepsPerRev:     st.intAt("stepsPerRev", c.Stepper.StepsPerRev),
		MaxDegPerSec:    st.floatAt("maxDegPerSec", c.Stepper.MaxDegPerSec),
		LimitsEnabled:   st.boolAt("limitsEnabled", c.Stepper.LimitsEnabled),
		MinDeg:          st.floatAt("minDeg", c.Stepper.MinDeg),
		MaxDeg:          st.floatAt("maxDeg", c.Stepper.MaxDeg),
		HomeOffsetSteps: st.intAt("homeOffsetSteps", c.Stepper.HomeOffsetSteps),
	}

	dc := doc.object("dc")
	c.DC = DCMotorParams{
		DirPin:       dc.intAt("dirPin", c.DC.DirPin),
		PWMPin:       dc.intAt("pwmPin", c.DC.PWMPin),
		PWMChannel:   dc.intAt("pwmChannel", c.DC.PWMChannel),
		PWMHz:        dc.intAt("pwmHz", c.DC.PWMHz),
		PWMBits:      dc.intAt("pwmBits", c.DC.PWMBits),
		Deadband:     dc.intAt("deadband", c.DC.Deadband),
		MaxPWM:       dc.intAt("maxPwm", c.DC.MaxPWM),
		Command16Bit: dc.boolAt("command16Bit", c.DC.Command16Bit),
		RampBufferMs: dc.intAt("rampBufferMs", c.DC.RampBufferMs),
	}

	c.Relay = buildOutput(doc.object("relay"), c.Relay)
	c.LED = buildOutput(doc.object("led"), c.LED)

	px := doc.object("pixels")
	c.Pixels = PixelParams{
		Pin:        px.intAt("pin", c.Pixels.Pin),
		Count:      px.intAt("count", c.Pixels.Count),
		Brightness: px.intAt("brightness", c.Pixels.Brightness),
	}
	return c
}

func buildOutput(doc document, def OutputParams) OutputParams {
	return OutputParams{
		Pin:        doc.intAt("pin", def.Pin),
		ActiveHigh: doc.boolAt("activeHigh", def.ActiveHigh),
	}
}
