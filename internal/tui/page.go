package tui

import tea "github.com/charmbracelet/bubbletea"

// Page represents a top-level screen in the TUI. Each display gets one.
type Page interface {
	ID() string
	Init() tea.Cmd
	Update(msg tea.Msg) (tea.Cmd, *PageNav)
	View(width, height int) string
}

// PageNav is returned from Update to request a page switch, either to PageID
// or by Step pages through the app's order when PageID is empty.
type PageNav struct {
	PageID string
	Step   int
}
