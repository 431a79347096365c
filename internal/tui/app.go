package tui

import tea "github.com/charmbracelet/bubbletea"

// App is the top-level Bubble Tea model that routes between pages.
type App struct {
	pages      map[string]Page
	order      []string
	activePage string
	width      int
	height     int
}

// NewApp creates a new App with the given pages. The first page is the default.
func NewApp(pages ...Page) *App {
	a := &App{pages: make(map[string]Page, len(pages))}
	for _, p := range pages {
		if _, dup := a.pages[p.ID()]; dup {
			continue
		}
		a.pages[p.ID()] = p
		a.order = append(a.order, p.ID())
	}
	if len(a.order) > 0 {
		a.activePage = a.order[0]
	}
	return a
}

// ActivePage returns the ID of the page currently shown.
func (a *App) ActivePage() string { return a.activePage }

func (a *App) Init() tea.Cmd {
	if p, ok := a.pages[a.activePage]; ok {
		return p.Init()
	}
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		a.width = wsm.Width
		a.height = wsm.Height
	}

	p, ok := a.pages[a.activePage]
	if !ok {
		if _, quit := msg.(tea.KeyMsg); quit {
			return a, tea.Quit
		}
		return a, nil
	}

	cmd, nav := p.Update(msg)
	if nav == nil {
		return a, cmd
	}

	target := nav.PageID
	if target == "" {
		target = a.step(nav.Step)
	}
	if _, exists := a.pages[target]; !exists || target == a.activePage {
		return a, cmd
	}
	a.activePage = target
	next := a.pages[target]
	initCmd := next.Init()
	if a.width > 0 {
		// the new page has not seen the current size yet
		sizeCmd, _ := next.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
		initCmd = tea.Batch(initCmd, sizeCmd)
	}
	return a, tea.Batch(cmd, initCmd)
}

func (a *App) step(n int) string {
	if len(a.order) == 0 {
		return ""
	}
	cur := 0
	for i, id := range a.order {
		if id == a.activePage {
			cur = i
			break
		}
	}
	idx := ((cur+n)%len(a.order) + len(a.order)) % len(a.order)
	return a.order[idx]
}

func (a *App) View() string {
	if p, ok := a.pages[a.activePage]; ok {
		return p.View(a.width, a.height)
	}
	return "No displays"
}
