package odometer

// Snapshot is a consistent copy of a controller's display state.
type Snapshot struct {
	Name        string      `json:"name"`
	Value       float64     `json:"value"`
	Active      bool        `json:"active"`
	Direction   Direction   `json:"direction"`
	StartValue  float64     `json:"startValue"`
	EndValue    *float64    `json:"endValue,omitempty"`
	Continuous  bool        `json:"continuous"`
	DigitHeight int         `json:"digitHeight"`
	DigitWidth  int         `json:"digitWidth"`
	Padding     int         `json:"digitPadding"`
	Alignment   string      `json:"alignment"`
	Flat        bool        `json:"flat"`
	Layout      Layout      `json:"layout"`
	Slots       []SlotState `json:"slots"`
}

// Snapshot copies the current value, options and slot state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Name:        c.name,
		Value:       c.current,
		Active:      c.opts.Active,
		Direction:   c.opts.Direction,
		StartValue:  c.opts.StartValue,
		Continuous:  c.opts.Continuous(),
		DigitHeight: c.opts.DigitHeight,
		DigitWidth:  c.opts.DigitWidth,
		Padding:     c.opts.DigitPadding,
		Alignment:   c.opts.Alignment,
		Flat:        c.opts.Flat,
		Layout:      append(Layout(nil), c.layout...),
		Slots:       make([]SlotState, len(c.slots)),
	}
	if c.opts.EndValue != nil {
		s.EndValue = Float(*c.opts.EndValue)
	}
	for i, slot := range c.slots {
		s.Slots[i] = slot.State()
	}
	return s
}

// Text renders the snapshot's leading digits through its layout, e.g.
// "001,250".
func (s Snapshot) Text() string {
	out := make([]byte, 0, len(s.Layout))
	slot := 0
	for _, cell := range s.Layout {
		if !cell.Digit {
			out = append(out, cell.Literal...)
			continue
		}
		text := "0"
		if slot < len(s.Slots) && s.Slots[slot].Lead.Text != "" {
			text = s.Slots[slot].Lead.Text
		}
		out = append(out, text...)
		slot++
	}
	return string(out)
}
