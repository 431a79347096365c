package odometer

import (
	"fmt"
	"strings"
	"time"
)

// Direction is the counting direction.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == Down {
		return Up
	}
	return Down
}

func (d Direction) sign() float64 {
	if d == Down {
		return -1
	}
	return 1
}

// ParseDirection accepts "up" or "down" in any case.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Up:
		return Up, nil
	case Down:
		return Down, nil
	}
	return "", fmt.Errorf("%w: direction must be up or down, got %q", ErrInvalidOption, s)
}

var alignments = map[string]bool{"left": true, "right": true, "center": true, "inline": true}

// Default option values.
const (
	DefaultDigits      = 6
	DefaultDigitHeight = 40
	DefaultDigitWidth  = 30
	DefaultBustedness  = 2
	DefaultWaitTime    = 10 * time.Millisecond
	DefaultInterval    = time.Second
	DefaultTickAmount  = 0.15
	DefaultRandomLow   = 0.05
	DefaultRandomHigh  = 0.25
)

// Options configures one odometer. StartValue, EndValue, Direction and Active
// double as live state once a Controller owns them.
type Options struct {
	Format       string        `yaml:"format,omitempty" mapstructure:"format"`
	Digits       int           `yaml:"digits" mapstructure:"digits"`
	Tenths       bool          `yaml:"tenths" mapstructure:"tenths"`
	DigitHeight  int           `yaml:"digitHeight" mapstructure:"digitHeight"`
	DigitWidth   int           `yaml:"digitWidth" mapstructure:"digitWidth"`
	DigitPadding int           `yaml:"digitPadding" mapstructure:"digitPadding"`
	Bustedness   int           `yaml:"bustedness" mapstructure:"bustedness"`
	Flat         bool          `yaml:"flat" mapstructure:"flat"`
	Alignment    string        `yaml:"alignment" mapstructure:"alignment"`
	WaitTime     time.Duration `yaml:"waitTime" mapstructure:"waitTime"`
	StartValue   float64       `yaml:"startValue" mapstructure:"startValue"`
	EndValue     *float64      `yaml:"endValue,omitempty" mapstructure:"endValue"`
	Direction    Direction     `yaml:"direction" mapstructure:"direction"`
	Timestamp    *time.Time    `yaml:"timestamp,omitempty" mapstructure:"timestamp"`
	Interval     time.Duration `yaml:"interval" mapstructure:"interval"`
	TickAmount   float64       `yaml:"tickAmount" mapstructure:"tickAmount"`
	Random       bool          `yaml:"random" mapstructure:"random"`
	RandomLow    float64       `yaml:"randomLow" mapstructure:"randomLow"`
	RandomHigh   float64       `yaml:"randomHigh" mapstructure:"randomHigh"`
	Active       bool          `yaml:"active" mapstructure:"active"`
}

// DefaultOptions returns the library defaults.
func DefaultOptions() Options {
	return Options{
		Digits:      DefaultDigits,
		Tenths:      true,
		DigitHeight: DefaultDigitHeight,
		DigitWidth:  DefaultDigitWidth,
		Bustedness:  DefaultBustedness,
		Alignment:   "center",
		WaitTime:    DefaultWaitTime,
		Direction:   Up,
		Interval:    DefaultInterval,
		TickAmount:  DefaultTickAmount,
		RandomLow:   DefaultRandomLow,
		RandomHigh:  DefaultRandomHigh,
		Active:      true,
	}
}

// Float returns a pointer to v, for EndValue.
func Float(v float64) *float64 { return &v }

// Continuous reports whether a reference timestamp selects continuous mode.
func (o Options) Continuous() bool { return o.Timestamp != nil }

// Apply overlays named attributes onto o using the same converters as
// Controller.SetOption. Keys are matched case-insensitively.
func (o *Options) Apply(attrs map[string]any) error {
	for name, value := range attrs {
		p, err := lookupOption(name)
		if err != nil {
			return err
		}
		if err := p.set(o, value); err != nil {
			return fmt.Errorf("odometer: option %s: %w", p.name, invalid(err))
		}
	}
	return nil
}

// Validate reports the first out-of-range value.
func (o Options) Validate() error {
	switch {
	case o.Digits < 1:
		return fmt.Errorf("%w: digits must be at least 1, got %d", ErrInvalidOption, o.Digits)
	case o.DigitHeight < 1:
		return fmt.Errorf("%w: digitHeight must be at least 1, got %d", ErrInvalidOption, o.DigitHeight)
	case o.Bustedness < 0:
		return fmt.Errorf("%w: bustedness must not be negative, got %d", ErrInvalidOption, o.Bustedness)
	case o.StartValue < 0:
		return fmt.Errorf("%w: startValue must not be negative, got %g", ErrInvalidOption, o.StartValue)
	case o.EndValue != nil && *o.EndValue < 0:
		return fmt.Errorf("%w: endValue must not be negative, got %g", ErrInvalidOption, *o.EndValue)
	case o.WaitTime <= 0:
		return fmt.Errorf("%w: waitTime must be positive, got %s", ErrInvalidOption, o.WaitTime)
	case o.Interval <= 0:
		return fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidOption, o.Interval)
	case o.TickAmount <= 0:
		return fmt.Errorf("%w: tickAmount must be positive, got %g", ErrInvalidOption, o.TickAmount)
	case o.RandomLow < 0 || o.RandomLow > o.RandomHigh:
		return fmt.Errorf("%w: random range [%g, %g] is empty or negative", ErrInvalidOption, o.RandomLow, o.RandomHigh)
	case !alignments[o.Alignment]:
		return fmt.Errorf("%w: alignment %q", ErrInvalidOption, o.Alignment)
	}
	if _, err := ParseDirection(string(o.Direction)); err != nil {
		return err
	}
	return nil
}

// normalize derives digits from a format template, or a padded template from
// digits when the format has no digit slots.
func (o *Options) normalize() {
	if n := strings.Count(o.Format, "0"); n > 0 {
		o.Digits = n
	} else {
		o.Format = PadFormat(o.Digits)
	}
	if o.Continuous() {
		o.Tenths = false
	}
}
