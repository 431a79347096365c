package odometer

import (
	"math"
	"strconv"
)

// unsetDigit marks a slot that has never rendered a digit.
const unsetDigit = -1

// Face is one of the two rendering surfaces of a digit slot. The engine only
// pushes into faces; it never reads geometry back.
type Face interface {
	SetText(text string)
	SetTop(px int)
}

// FaceFactory creates the two faces of the slot at index slot (most
// significant first).
type FaceFactory func(slot int) (a, b Face)

type nopFace struct{}

func (nopFace) SetText(string) {}
func (nopFace) SetTop(int)     {}

// FaceState is the last content and vertical offset pushed into a face.
type FaceState struct {
	Text string `json:"text"`
	Top  int    `json:"top"`
}

// SlotState is a read-only copy of a digit slot for renderers and transports.
type SlotState struct {
	Digit  int       `json:"digit"`
	Offset int       `json:"offset"`
	Desync int       `json:"desync"`
	Tenth  bool      `json:"tenth,omitempty"`
	Lead   FaceState `json:"lead"`
	Trail  FaceState `json:"trail"`
}

// DigitSlot is the double-buffered rendering state of one digit wheel.
type DigitSlot struct {
	faces    [2]Face
	rendered [2]FaceState
	lead     int

	lastValue  int
	lastOffset int
	desync     int
	tenth      bool
}

// NewDigitSlot returns a slot pushing into a and b. Nil faces discard output.
// desync is added to every offset for the slot's lifetime.
func NewDigitSlot(a, b Face, desync int) *DigitSlot {
	if a == nil {
		a = nopFace{}
	}
	if b == nil {
		b = nopFace{}
	}
	return &DigitSlot{
		faces:      [2]Face{a, b},
		lastValue:  unsetDigit,
		lastOffset: -1,
		desync:     desync,
	}
}

// Apply renders digit rolled by fraction of a face height. When the digit
// changes the faces swap roles: the leading face shows digit and the trailing
// face the next digit scrolling into view.
func (s *DigitSlot) Apply(digit int, fraction float64, height int) {
	px := int(math.Floor(float64(height)*fraction)) + s.desync

	if digit != s.lastValue {
		s.lead ^= 1
		s.setText(s.lead, strconv.Itoa(digit))
		s.setText(s.lead^1, strconv.Itoa((digit+1)%10))
		s.lastValue = digit
		s.lastOffset = height
	}

	if px != s.lastOffset {
		s.setTop(s.lead, -px)
		s.setTop(s.lead^1, height-px)
		s.lastOffset = px
	}
}

// State copies what the slot last pushed.
func (s *DigitSlot) State() SlotState {
	return SlotState{
		Digit:  s.lastValue,
		Offset: s.lastOffset,
		Desync: s.desync,
		Tenth:  s.tenth,
		Lead:   s.rendered[s.lead],
		Trail:  s.rendered[s.lead^1],
	}
}

func (s *DigitSlot) setText(face int, text string) {
	s.faces[face].SetText(text)
	s.rendered[face].Text = text
}

func (s *DigitSlot) setTop(face int, px int) {
	s.faces[face].SetTop(px)
	s.rendered[face].Top = px
}
