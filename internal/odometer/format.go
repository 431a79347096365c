// Package odometer implements a mechanical odometer display engine: a numeric
// value decomposed into rolling digit wheels, each rendered through two
// alternating faces, advanced over time by a single-timer scheduler.
package odometer

import (
	"math"
	"strconv"
	"strings"
)

// Decomposition is a value split into per-slot digits. Both slices are ordered
// most significant first.
type Decomposition struct {
	Digits    []int
	Fractions []float64
	// Fraction is the fractional remainder of the least significant digit.
	Fraction float64
}

// Decompose splits value into digits decimal digits plus the partial roll of
// each wheel. With tenths the least significant digit counts tenths. Digits
// above the slot count are dropped. The fraction carries into a more
// significant wheel only through 9s, the way a mechanical carry cascades.
func Decompose(value float64, digits int, tenths bool) Decomposition {
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}
	if tenths {
		value *= 10
	}
	if digits < 0 {
		digits = 0
	}

	whole := math.Floor(value)
	fraction := value - whole
	text := strconv.FormatFloat(whole, 'f', 0, 64)

	d := Decomposition{
		Digits:    make([]int, digits),
		Fractions: make([]float64, digits),
		Fraction:  fraction,
	}

	carry := fraction
	for i := 0; i < digits; i++ {
		digit := 0
		if i < len(text) {
			digit = int(text[len(text)-1-i] - '0')
		}
		pos := digits - 1 - i
		d.Digits[pos] = digit
		d.Fractions[pos] = carry
		if digit != 9 {
			carry = 0
		}
	}
	return d
}

// Cell is one position of a format template: a digit wheel or a fixed
// separator.
type Cell struct {
	Digit   bool   `json:"digit,omitempty"`
	Literal string `json:"literal,omitempty"`
}

// Layout is a parsed format template.
type Layout []Cell

// Digits counts the digit cells.
func (l Layout) Digits() int {
	n := 0
	for _, c := range l {
		if c.Digit {
			n++
		}
	}
	return n
}

// String renders the layout back into template form.
func (l Layout) String() string {
	var b strings.Builder
	for _, c := range l {
		if c.Digit {
			b.WriteByte('0')
			continue
		}
		b.WriteString(c.Literal)
	}
	return b.String()
}

// PadFormat returns a template of digits zero characters.
func PadFormat(digits int) string {
	if digits < 1 {
		digits = 1
	}
	return strings.Repeat("0", digits)
}

// ParseFormat reads a template where '0' marks a digit slot and any other
// character is a literal separator. A template without any '0' falls back to
// PadFormat(digits).
func ParseFormat(format string, digits int) Layout {
	if !strings.ContainsRune(format, '0') {
		format = PadFormat(digits)
	}
	layout := make(Layout, 0, len(format))
	for _, r := range format {
		if r == '0' {
			layout = append(layout, Cell{Digit: true})
			continue
		}
		layout = append(layout, Cell{Literal: string(r)})
	}
	return layout
}
