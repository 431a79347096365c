package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/odometer/internal/model"
	"github.com/tinytelemetry/odometer/internal/odometer"
)

const (
	historyLen      = 240
	sampleInterval  = 250 * time.Millisecond
	sparklineHeight = 4
)

// frameMsg drives a page's refresh loop. gen ties it to the Init that
// started the loop so a page re-entered through navigation runs one loop.
type frameMsg struct {
	page string
	gen  int
	at   time.Time
}

type snapshotMsg struct {
	page string
	snap odometer.Snapshot
	at   time.Time
	err  error
}

type invokeMsg struct {
	page   string
	method string
	err    error
}

// DisplayPage renders one display and forwards key presses to it.
type DisplayPage struct {
	api   model.DisplayAPI
	name  string
	frame time.Duration
	keys  KeyMap
	help  help.Model

	gen      int
	inFlight bool
	loaded   bool
	snap     odometer.Snapshot
	lastErr  string

	history    []float64
	lastSample time.Time

	width  int
	height int
}

// NewDisplayPage creates a page for the named display refreshed every frame.
func NewDisplayPage(api model.DisplayAPI, name string, frame time.Duration) *DisplayPage {
	if frame <= 0 {
		frame = model.DefaultFrameInterval
	}
	return &DisplayPage{
		api:   api,
		name:  name,
		frame: frame,
		keys:  DefaultKeyMap(),
		help:  help.New(),
	}
}

func (p *DisplayPage) ID() string { return p.name }

func (p *DisplayPage) Init() tea.Cmd {
	p.gen++
	p.inFlight = true
	return tea.Batch(p.fetch(), p.nextFrame())
}

func (p *DisplayPage) nextFrame() tea.Cmd {
	page, gen := p.name, p.gen
	return tea.Tick(p.frame, func(t time.Time) tea.Msg {
		return frameMsg{page: page, gen: gen, at: t}
	})
}

func (p *DisplayPage) fetch() tea.Cmd {
	api, name := p.api, p.name
	return func() tea.Msg {
		snap, err := api.Snapshot(name)
		return snapshotMsg{page: name, snap: snap, at: time.Now(), err: err}
	}
}

func (p *DisplayPage) invoke(method string, arg float64) tea.Cmd {
	api, name := p.api, p.name
	return func() tea.Msg {
		_, err := api.Invoke(name, method, arg)
		return invokeMsg{page: name, method: method, err: err}
	}
}

func (p *DisplayPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		p.help.Width = msg.Width
		return nil, nil

	case frameMsg:
		if msg.page != p.name || msg.gen != p.gen {
			return nil, nil
		}
		if p.inFlight {
			return p.nextFrame(), nil
		}
		p.inFlight = true
		return tea.Batch(p.fetch(), p.nextFrame()), nil

	case snapshotMsg:
		if msg.page != p.name {
			return nil, nil
		}
		p.inFlight = false
		if msg.err != nil {
			p.lastErr = msg.err.Error()
			return nil, nil
		}
		p.lastErr = ""
		p.loaded = true
		p.snap = msg.snap
		p.sample(msg.snap.Value, msg.at)
		return nil, nil

	case invokeMsg:
		if msg.page != p.name {
			return nil, nil
		}
		if msg.err != nil {
			p.lastErr = fmt.Sprintf("%s: %v", msg.method, msg.err)
		}
		if p.inFlight {
			return nil, nil
		}
		p.inFlight = true
		return p.fetch(), nil

	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return nil, nil
}

func (p *DisplayPage) handleKey(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	switch {
	case key.Matches(msg, p.keys.Quit), key.Matches(msg, p.keys.ForceQuit):
		return tea.Quit, nil
	case key.Matches(msg, p.keys.Help):
		p.help.ShowAll = !p.help.ShowAll
	case key.Matches(msg, p.keys.NextPage):
		return nil, &PageNav{Step: 1}
	case key.Matches(msg, p.keys.PrevPage):
		return nil, &PageNav{Step: -1}
	case key.Matches(msg, p.keys.Toggle):
		if p.snap.Active {
			return p.invoke("stop", 0), nil
		}
		return p.invoke("start", 0), nil
	case key.Matches(msg, p.keys.Reset):
		return p.invoke("reset", 0), nil
	case key.Matches(msg, p.keys.Reverse):
		return p.invoke("reverse", 0), nil
	case key.Matches(msg, p.keys.Increment):
		return p.invoke("increment", 1), nil
	case key.Matches(msg, p.keys.Decrement):
		return p.invoke("decrement", 1), nil
	case key.Matches(msg, p.keys.Redraw):
		return p.invoke("redraw", 0), nil
	}
	return nil, nil
}

// sample appends to the sparkline history at most once per sampleInterval.
func (p *DisplayPage) sample(v float64, at time.Time) {
	if !p.lastSample.IsZero() && at.Sub(p.lastSample) < sampleInterval {
		return
	}
	p.lastSample = at
	p.history = append(p.history, v)
	if len(p.history) > historyLen {
		p.history = p.history[len(p.history)-historyLen:]
	}
}

func (p *DisplayPage) View(width, height int) string {
	if width <= 0 {
		width = 80
	}
	titleStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	status := "stopped"
	if p.snap.Active {
		status = "running " + string(p.snap.Direction)
	}
	header := titleStyle.Render(p.name) + mutedStyle.Render("  "+status)

	parts := []string{header, ""}
	if !p.loaded {
		parts = append(parts, mutedStyle.Render("waiting for display..."))
	} else {
		parts = append(parts,
			renderWheels(p.snap, width),
			mutedStyle.Render(valueLine(p.snap)),
			"",
			p.renderHistory(width),
		)
	}
	if p.lastErr != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(ColorError).Render(p.lastErr))
	}
	parts = append(parts, "", p.help.View(p.keys))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func valueLine(snap odometer.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "value %.2f", snap.Value)
	if snap.EndValue != nil {
		fmt.Fprintf(&b, "  end %.2f", *snap.EndValue)
	}
	if snap.Continuous {
		b.WriteString("  continuous")
	}
	return b.String()
}

func (p *DisplayPage) renderHistory(width int) string {
	w := min(width-2, historyLen)
	if w < 4 || len(p.history) < 2 {
		return ""
	}
	sl := sparkline.New(w, sparklineHeight, sparkline.WithStyle(lipgloss.NewStyle().Foreground(ColorAccent)))
	start := max(0, len(p.history)-w)
	sl.PushAll(p.history[start:])
	sl.Draw()
	return sl.View()
}
