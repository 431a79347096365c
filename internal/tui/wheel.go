package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/odometer/internal/odometer"
)

const (
	// wheelRows is the height of the window each digit wheel is seen through.
	wheelRows = 3
	// rowsPerFace is how many rows one face height spans, so a face half
	// rolled out sits one row away from the center.
	rowsPerFace = 2
	maxPadding  = 3
)

// faceRow maps a face's top offset to the window row its glyph lands on.
// Rows outside [0, wheelRows) are hidden.
func faceRow(top, digitHeight int) int {
	if digitHeight < 1 {
		digitHeight = 1
	}
	return wheelRows/2 + floorDiv(top*rowsPerFace, digitHeight)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// column is one rendered layout cell: wheelRows glyphs, blank where no face
// is visible.
type column struct {
	rows  [wheelRows]rune
	digit bool
	tenth bool
}

// buildColumns places both faces of every slot in its window; literal cells
// sit on the center row.
func buildColumns(snap odometer.Snapshot) []column {
	cols := make([]column, 0, len(snap.Layout))
	slot := 0
	for _, cell := range snap.Layout {
		var col column
		for i := range col.rows {
			col.rows[i] = ' '
		}
		if !cell.Digit {
			if r := []rune(cell.Literal); len(r) > 0 {
				col.rows[wheelRows/2] = r[0]
			}
			cols = append(cols, col)
			continue
		}

		col.digit = true
		if slot < len(snap.Slots) {
			s := snap.Slots[slot]
			col.tenth = s.Tenth
			for _, face := range []odometer.FaceState{s.Trail, s.Lead} {
				row := faceRow(face.Top, snap.DigitHeight)
				if row >= 0 && row < wheelRows && face.Text != "" {
					col.rows[row] = []rune(face.Text)[0]
				}
			}
		}
		slot++
		cols = append(cols, col)
	}
	return cols
}

func padding(snap odometer.Snapshot) int {
	return min(max(snap.Padding, 0), maxPadding)
}

// renderColumns returns the plain wheelRows lines of a snapshot.
func renderColumns(snap odometer.Snapshot) []string {
	cols := buildColumns(snap)
	gap := strings.Repeat(" ", padding(snap))
	lines := make([]string, wheelRows)
	for r := range lines {
		var b strings.Builder
		for i, col := range cols {
			if i > 0 {
				b.WriteString(gap)
			}
			b.WriteRune(col.rows[r])
		}
		lines[r] = b.String()
	}
	return lines
}

// renderWheels styles the columns with the active skin: tenths in their own
// colour, a rounded frame unless the display is flat, placed in width by the
// display's alignment.
func renderWheels(snap odometer.Snapshot, width int) string {
	digitStyle := lipgloss.NewStyle().Foreground(ColorDigit).Bold(true)
	tenthStyle := lipgloss.NewStyle().Foreground(ColorTenth).Bold(true)
	literalStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	cols := buildColumns(snap)
	gap := strings.Repeat(" ", padding(snap))
	rendered := make([]string, 0, 2*len(cols))
	for i, col := range cols {
		if i > 0 && gap != "" {
			rendered = append(rendered, strings.Repeat(gap+"\n", wheelRows-1)+gap)
		}
		style := literalStyle
		switch {
		case col.tenth:
			style = tenthStyle
		case col.digit:
			style = digitStyle
		}
		glyphs := make([]string, wheelRows)
		for r, g := range col.rows {
			glyphs[r] = style.Render(string(g))
		}
		rendered = append(rendered, strings.Join(glyphs, "\n"))
	}
	wheels := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)

	if !snap.Flat {
		wheels = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1).
			Render(wheels)
	}

	switch snap.Alignment {
	case "left", "inline":
		return lipgloss.PlaceHorizontal(width, lipgloss.Left, wheels)
	case "right":
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, wheels)
	default:
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, wheels)
	}
}
