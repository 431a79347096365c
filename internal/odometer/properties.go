package odometer

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/tinytelemetry/odometer/internal/timestamp"
)

// option is a typed accessor pair for one named configuration field.
type option struct {
	name string
	get  func(o *Options) any
	set  func(o *Options, v any) error
	// structural options rebuild the digit slots when set on a controller.
	structural bool
}

var optionList = []option{
	{
		name: "format",
		get:  func(o *Options) any { return o.Format },
		set: func(o *Options, v any) error {
			s, err := cast.ToStringE(v)
			if err != nil {
				return err
			}
			o.Format = s
			if n := strings.Count(s, "0"); n > 0 {
				o.Digits = n
			}
			return nil
		},
		structural: true,
	},
	{name: "digits", get: func(o *Options) any { return o.Digits }, set: intSetter(func(o *Options) *int { return &o.Digits }), structural: true},
	{name: "tenths", get: func(o *Options) any { return o.Tenths }, set: boolSetter(func(o *Options) *bool { return &o.Tenths }), structural: true},
	{name: "digitHeight", get: func(o *Options) any { return o.DigitHeight }, set: intSetter(func(o *Options) *int { return &o.DigitHeight }), structural: true},
	{name: "digitWidth", get: func(o *Options) any { return o.DigitWidth }, set: intSetter(func(o *Options) *int { return &o.DigitWidth })},
	{name: "digitPadding", get: func(o *Options) any { return o.DigitPadding }, set: intSetter(func(o *Options) *int { return &o.DigitPadding })},
	{name: "bustedness", get: func(o *Options) any { return o.Bustedness }, set: intSetter(func(o *Options) *int { return &o.Bustedness }), structural: true},
	{name: "flat", get: func(o *Options) any { return o.Flat }, set: boolSetter(func(o *Options) *bool { return &o.Flat })},
	{
		name: "alignment",
		get:  func(o *Options) any { return o.Alignment },
		set: func(o *Options, v any) error {
			s, err := cast.ToStringE(v)
			if err != nil {
				return err
			}
			o.Alignment = strings.ToLower(strings.TrimSpace(s))
			return nil
		},
	},
	{
		name: "waitTime",
		get:  func(o *Options) any { return millis(o.WaitTime) },
		set:  durationSetter(func(o *Options) *time.Duration { return &o.WaitTime }, time.Millisecond),
	},
	{name: "startValue", get: func(o *Options) any { return o.StartValue }, set: floatSetter(func(o *Options) *float64 { return &o.StartValue })},
	{
		name: "endValue",
		get: func(o *Options) any {
			if o.EndValue == nil {
				return nil
			}
			return *o.EndValue
		},
		set: func(o *Options, v any) error {
			if unset(v) {
				o.EndValue = nil
				return nil
			}
			f, err := cast.ToFloat64E(v)
			if err != nil {
				return err
			}
			o.EndValue = Float(f)
			return nil
		},
	},
	{
		name: "direction",
		get:  func(o *Options) any { return string(o.Direction) },
		set: func(o *Options, v any) error {
			s, err := cast.ToStringE(v)
			if err != nil {
				return err
			}
			d, err := ParseDirection(s)
			if err != nil {
				return err
			}
			o.Direction = d
			return nil
		},
	},
	{
		name: "timestamp",
		get: func(o *Options) any {
			if o.Timestamp == nil {
				return nil
			}
			return *o.Timestamp
		},
		set: func(o *Options, v any) error {
			if unset(v) {
				o.Timestamp = nil
				return nil
			}
			t, err := toTime(v)
			if err != nil {
				return err
			}
			o.Timestamp = &t
			return nil
		},
		structural: true,
	},
	{
		name: "interval",
		get:  func(o *Options) any { return o.Interval.Seconds() },
		set:  durationSetter(func(o *Options) *time.Duration { return &o.Interval }, time.Second),
	},
	{name: "tickAmount", get: func(o *Options) any { return o.TickAmount }, set: floatSetter(func(o *Options) *float64 { return &o.TickAmount })},
	{name: "random", get: func(o *Options) any { return o.Random }, set: boolSetter(func(o *Options) *bool { return &o.Random })},
	{name: "randomLow", get: func(o *Options) any { return o.RandomLow }, set: floatSetter(func(o *Options) *float64 { return &o.RandomLow })},
	{name: "randomHigh", get: func(o *Options) any { return o.RandomHigh }, set: floatSetter(func(o *Options) *float64 { return &o.RandomHigh })},
	{name: "active", get: func(o *Options) any { return o.Active }, set: boolSetter(func(o *Options) *bool { return &o.Active })},
}

var optionIndex = func() map[string]*option {
	idx := make(map[string]*option, len(optionList))
	for i := range optionList {
		idx[strings.ToLower(optionList[i].name)] = &optionList[i]
	}
	return idx
}()

// OptionNames lists every readable and writable option, sorted.
func OptionNames() []string {
	names := make([]string, 0, len(optionList))
	for _, p := range optionList {
		names = append(names, p.name)
	}
	sort.Strings(names)
	return names
}

func lookupOption(name string) (*option, error) {
	p, ok := optionIndex[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: option %q", ErrUnsupported, name)
	}
	return p, nil
}

func unset(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		s := strings.TrimSpace(t)
		return s == "" || strings.EqualFold(s, "false") || strings.EqualFold(s, "null")
	}
	return false
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("%w: nil timestamp", ErrInvalidOption)
		}
		return *t, nil
	case string:
		return timestamp.Parse(t)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return time.Time{}, err
	}
	return timestamp.FromEpoch(f), nil
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func intSetter(field func(o *Options) *int) func(o *Options, v any) error {
	return func(o *Options, v any) error {
		if f, ok := v.(float64); ok && f != math.Trunc(f) {
			return fmt.Errorf("%w: %v is not a whole number", ErrInvalidOption, v)
		}
		if f, ok := v.(float32); ok && float64(f) != math.Trunc(float64(f)) {
			return fmt.Errorf("%w: %v is not a whole number", ErrInvalidOption, v)
		}
		n, err := cast.ToIntE(v)
		if err != nil {
			return err
		}
		*field(o) = n
		return nil
	}
}

func boolSetter(field func(o *Options) *bool) func(o *Options, v any) error {
	return func(o *Options, v any) error {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return err
		}
		*field(o) = b
		return nil
	}
}

func floatSetter(field func(o *Options) *float64) func(o *Options, v any) error {
	return func(o *Options, v any) error {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return err
		}
		*field(o) = f
		return nil
	}
}

// durationSetter accepts a time.Duration, a duration string ("250ms"), or a
// bare number counted in unit.
func durationSetter(field func(o *Options) *time.Duration, unit time.Duration) func(o *Options, v any) error {
	return func(o *Options, v any) error {
		switch t := v.(type) {
		case time.Duration:
			*field(o) = t
			return nil
		case string:
			if d, err := time.ParseDuration(strings.TrimSpace(t)); err == nil {
				*field(o) = d
				return nil
			}
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return err
		}
		*field(o) = time.Duration(f * float64(unit))
		return nil
	}
}

// invalid tags a conversion failure as ErrInvalidOption.
func invalid(err error) error {
	if errors.Is(err, ErrInvalidOption) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrInvalidOption, err)
}
