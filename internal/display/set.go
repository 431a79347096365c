// Package display owns the named odometer controllers hosted by one process.
package display

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tinytelemetry/odometer/internal/clock"
	"github.com/tinytelemetry/odometer/internal/model"
	"github.com/tinytelemetry/odometer/internal/odometer"
)

var (
	// ErrNotFound is returned for a display name the set does not hold.
	ErrNotFound = errors.New("display: not found")

	// ErrDuplicate is returned when two displays share a name.
	ErrDuplicate = errors.New("display: duplicate name")
)

// Spec describes one display: its name and the option attributes layered on
// top of the service-wide options.
type Spec struct {
	Name    string         `yaml:"name" mapstructure:"name"`
	Options map[string]any `yaml:"options,omitempty" mapstructure:"options"`
}

// Config controls how a Set builds its controllers.
type Config struct {
	// Base is the service-wide option layer applied over the defaults.
	Base map[string]any
	// Displays to build. An empty list builds one display named
	// model.DefaultDisplayName.
	Displays []Spec

	Clock clock.Clock
	// OnComplete is called once per completed run of any display.
	OnComplete func(name string, value float64)
	// Observer returns the engine observer for a display, or nil.
	Observer func(name string) odometer.Observer
}

// Set is a fixed, ordered group of named controllers. It implements
// model.DisplayAPI for in-process callers.
type Set struct {
	mu          sync.RWMutex
	order       []string
	controllers map[string]*odometer.Controller
	resolved    map[string]odometer.Options
	stopOnce    sync.Once
}

var _ model.DisplayAPI = (*Set)(nil)

// Resolve merges the three option layers for one display: library defaults,
// base and then the display's own attributes.
func Resolve(base map[string]any, spec Spec) (odometer.Options, error) {
	opts := odometer.DefaultOptions()
	if err := opts.Apply(base); err != nil {
		return opts, fmt.Errorf("display: base options: %w", err)
	}
	if err := opts.Apply(spec.Options); err != nil {
		return opts, fmt.Errorf("display %s: %w", spec.Name, err)
	}
	return opts, nil
}

// Names assigns a uuid to every unnamed spec and rejects duplicates.
func Names(specs []Spec) ([]Spec, error) {
	if len(specs) == 0 {
		specs = []Spec{{Name: model.DefaultDisplayName}}
	}
	out := make([]Spec, len(specs))
	seen := make(map[string]bool, len(specs))
	for i, s := range specs {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			s.Name = uuid.NewString()
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, s.Name)
		}
		seen[s.Name] = true
		out[i] = s
	}
	return out, nil
}

// New builds every configured display. Active displays start counting
// immediately.
func New(cfg Config) (*Set, error) {
	specs, err := Names(cfg.Displays)
	if err != nil {
		return nil, err
	}

	s := &Set{
		controllers: make(map[string]*odometer.Controller, len(specs)),
		resolved:    make(map[string]odometer.Options, len(specs)),
	}
	for _, spec := range specs {
		opts, err := Resolve(cfg.Base, spec)
		if err != nil {
			s.StopAll()
			return nil, err
		}

		name := spec.Name
		options := []odometer.Option{odometer.WithName(name)}
		if cfg.Clock != nil {
			options = append(options, odometer.WithClock(cfg.Clock))
		}
		if cfg.OnComplete != nil {
			onComplete := cfg.OnComplete
			options = append(options, odometer.WithCompletion(func(v float64) { onComplete(name, v) }))
		}
		if cfg.Observer != nil {
			if obs := cfg.Observer(name); obs != nil {
				options = append(options, odometer.WithObserver(obs))
			}
		}

		ctl, err := odometer.New(opts, options...)
		if err != nil {
			s.StopAll()
			return nil, fmt.Errorf("display %s: %w", name, err)
		}
		s.order = append(s.order, name)
		s.controllers[name] = ctl
		s.resolved[name] = opts
	}
	return s, nil
}

// Controller returns the named controller.
func (s *Set) Controller(name string) (*odometer.Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctl, ok := s.controllers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return ctl, nil
}

// Resolved returns the options each display was built with, keyed by name.
func (s *Set) Resolved() map[string]odometer.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]odometer.Options, len(s.resolved))
	for k, v := range s.resolved {
		out[k] = v
	}
	return out
}

// Len reports the number of displays.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// ListDisplays returns display names in configuration order.
func (s *Set) ListDisplays() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...), nil
}

func (s *Set) Snapshot(name string) (odometer.Snapshot, error) {
	ctl, err := s.Controller(name)
	if err != nil {
		return odometer.Snapshot{}, err
	}
	return ctl.Snapshot(), nil
}

func (s *Set) Invoke(name, method string, arg float64) (float64, error) {
	ctl, err := s.Controller(name)
	if err != nil {
		return 0, err
	}
	return ctl.Invoke(method, arg)
}

func (s *Set) Option(name, option string) (any, error) {
	ctl, err := s.Controller(name)
	if err != nil {
		return nil, err
	}
	return ctl.Option(option)
}

func (s *Set) SetOption(name, option string, value any) error {
	ctl, err := s.Controller(name)
	if err != nil {
		return err
	}
	return ctl.SetOption(option, value)
}

// StopAll stops every display. It is safe to call more than once.
func (s *Set) StopAll() {
	s.stopOnce.Do(func() {
		s.mu.RLock()
		defer s.mu.RUnlock()
		for _, name := range s.order {
			s.controllers[name].Stop()
		}
	})
}
