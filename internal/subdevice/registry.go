package subdevice

import (
	"fmt"
	"strings"
	"sync"
)

// Logger defines the logging interface used by the Registry and FileStore.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// UpdateRequest carries a full replacement for one subdevice.
// Params, when set, must belong to Type; when nil the stored block for Type
// is kept.
type UpdateRequest struct {
	Enabled bool
	Name    string
	Type    Type
	Map     Mapping
	Params  Params
}

// Registry holds the ordered subdevice list and the controller settings.
//
// Every mutation is applied to a copy of the document, persisted through the
// Store and only then made visible. A failed Save leaves the registry as it
// was.
//
// All public methods are thread-safe.
type Registry struct {
	store  Store
	mu     sync.RWMutex // Protects cfg, held across read-modify-persist
	cfg    *AppConfig
	logger Logger
}

// NewRegistry creates a registry persisted through store.
// Call Load before use.
func NewRegistry(store Store) *Registry {
	return &Registry{
		store:  store,
		cfg:    &AppConfig{Settings: DefaultSettings()},
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Load replaces the in-memory document with the stored one.
func (r *Registry) Load() error {
	cfg, err := r.store.Load()
	if err != nil {
		return fmt.Errorf("loading subdevices: %w", err)
	}

	r.mu.Lock()
	r.cfg = cfg.Clone()
	r.mu.Unlock()

	r.logger.Info("subdevices loaded", "count", len(cfg.Subdevices))
	return nil
}

// commit runs mutate on a copy of the document and persists it.
func (r *Registry) commit(mutate func(next *AppConfig) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.cfg.Clone()
	if err := mutate(next); err != nil {
		return err
	}
	if err := r.store.Save(next); err != nil {
		return fmt.Errorf("persisting subdevices: %w", err)
	}
	r.cfg = next
	return nil
}

// Add appends a subdevice of type t mapped at universe 1, address 1.
// A blank name becomes "<DisplayName>-<new count>".
// Returns ErrCapacity when the registry is full.
func (r *Registry) Add(t Type, name string) error {
	_, _, err := r.Append(t, name)
	return err
}

// Append is Add that also reports where the new subdevice landed and what
// was stored, as seen inside the same write section.
//
// Returns:
//   - int: Index of the new subdevice
//   - Config: The stored subdevice
//   - error: ErrInvalidType, ErrCapacity or a persistence failure
func (r *Registry) Append(t Type, name string) (int, Config, error) {
	if err := ValidateType(t); err != nil {
		return 0, Config{}, err
	}

	var added Config
	var index int
	err := r.commit(func(next *AppConfig) error {
		if len(next.Subdevices) >= MaxSubdevices {
			return fmt.Errorf("%w: %d subdevices", ErrCapacity, MaxSubdevices)
		}
		name := strings.TrimSpace(name)
		if name == "" {
			name = generatedName(t, len(next.Subdevices)+1)
		}
		added = DefaultConfig(t, name)
		index = len(next.Subdevices)
		next.Subdevices = append(next.Subdevices, added)
		return nil
	})
	if err != nil {
		return 0, Config{}, err
	}

	r.logger.Info("subdevice added", "index", index, "name", added.Name, "type", t.DisplayName())
	return index, added, nil
}

// Delete removes the subdevice at index. Later entries shift down by one.
// Returns ErrNotFound when index is out of range.
func (r *Registry) Delete(index int) error {
	_, err := r.Remove(index)
	return err
}

// Remove is Delete that also returns the subdevice it removed.
func (r *Registry) Remove(index int) (Config, error) {
	var removed Config
	err := r.commit(func(next *AppConfig) error {
		if index < 0 || index >= len(next.Subdevices) {
			return fmt.Errorf("%w: index %d", ErrNotFound, index)
		}
		removed = next.Subdevices[index]
		next.Subdevices = append(next.Subdevices[:index], next.Subdevices[index+1:]...)
		return nil
	})
	if err != nil {
		return Config{}, err
	}

	r.logger.Info("subdevice deleted", "index", index, "name", removed.Name)
	return removed, nil
}

// Update overwrites the subdevice at index with req. Only the runtime block
// of req.Type is replaced; the other blocks keep their stored values.
// Returns ErrNotFound when index is out of range.
func (r *Registry) Update(index int, req UpdateRequest) error {
	_, err := r.UpdateWith(index, func(Config) (UpdateRequest, error) {
		return req, nil
	})
	return err
}

// UpdateWith builds the replacement for the subdevice at index from its
// current value and applies it, all inside one write section. Use it for
// partial updates so that concurrent writers cannot interleave between the
// read and the write.
//
// build runs with the registry locked and must not call back into it. An
// error from build aborts the update and is returned unchanged.
//
// Parameters:
//   - index: Position of the subdevice
//   - build: Derives the full replacement from the stored subdevice
//
// Returns:
//   - Config: The subdevice as stored after the update
//   - error: ErrNotFound, ErrInvalidType, ErrInvalidMapping, build's error,
//     or a persistence failure
func (r *Registry) UpdateWith(index int, build func(current Config) (UpdateRequest, error)) (Config, error) {
	var updated Config
	err := r.commit(func(next *AppConfig) error {
		if index < 0 || index >= len(next.Subdevices) {
			return fmt.Errorf("%w: index %d", ErrNotFound, index)
		}
		c := next.Subdevices[index]
		req, err := build(c)
		if err != nil {
			return err
		}
		if err := validateUpdate(req); err != nil {
			return err
		}

		c.Enabled = req.Enabled
		c.Name = strings.TrimSpace(req.Name)
		if c.Name == "" {
			c.Name = fallbackName(index)
		}
		c.Type = req.Type
		c.Map = req.Map
		if req.Params != nil {
			c.SetParams(req.Params)
		}
		sanitizeParams(&c)
		next.Subdevices[index] = c
		updated = c
		return nil
	})
	if err != nil {
		return Config{}, err
	}

	r.logger.Info("subdevice updated", "index", index, "name", updated.Name, "type", updated.Type.DisplayName())
	return updated, nil
}

func validateUpdate(req UpdateRequest) error {
	if err := ValidateType(req.Type); err != nil {
		return err
	}
	if err := ValidateMapping(req.Map); err != nil {
		return err
	}
	if req.Params != nil && req.Params.paramsType() != req.Type {
		return fmt.Errorf("%w: %s parameters for a %s", ErrInvalidType,
			req.Params.paramsType().DisplayName(), req.Type.DisplayName())
	}
	return nil
}

// UpdateSettings replaces the controller-wide settings.
func (r *Registry) UpdateSettings(s Settings) error {
	_, err := r.UpdateSettingsWith(func(Settings) (Settings, error) {
		return s, nil
	})
	return err
}

// UpdateSettingsWith derives new settings from the stored ones and applies
// them inside one write section. build must not call back into the registry.
func (r *Registry) UpdateSettingsWith(build func(current Settings) (Settings, error)) (Settings, error) {
	var updated Settings
	err := r.commit(func(next *AppConfig) error {
		s, err := build(next.Settings)
		if err != nil {
			return err
		}
		if err := ValidateSettings(s); err != nil {
			return err
		}
		next.Settings = s
		updated = s
		return nil
	})
	if err != nil {
		return Settings{}, err
	}

	r.logger.Info("settings updated", "use_static", updated.UseStatic, "sacn_mode", updated.SACNMode)
	return updated, nil
}

// Get returns the subdevice at index.
func (r *Registry) Get(index int) (Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= len(r.cfg.Subdevices) {
		return Config{}, fmt.Errorf("%w: index %d", ErrNotFound, index)
	}
	return r.cfg.Subdevices[index], nil
}

// List returns a copy of the subdevices in registry order.
func (r *Registry) List() []Config {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Config, len(r.cfg.Subdevices))
	copy(out, r.cfg.Subdevices)
	return out
}

// Count returns the number of subdevices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cfg.Subdevices)
}

// Settings returns the controller-wide settings.
func (r *Registry) Settings() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg.Settings
}

// UniverseRange returns the lowest and highest universe used by an enabled
// subdevice. ok is false when nothing is enabled.
func (r *Registry) UniverseRange() (lo, hi int, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.cfg.Subdevices {
		if !c.Enabled {
			continue
		}
		if !ok || c.Map.Universe < lo {
			lo = c.Map.Universe
		}
		if !ok || c.Map.Universe > hi {
			hi = c.Map.Universe
		}
		ok = true
	}
	return lo, hi, ok
}
