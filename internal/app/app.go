// Package app hosts the terminal test-taker.
package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/router"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/screen"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/screens/assessment"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/screens/welcome"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/ui/layout"
)

// Options holds the dependencies of the terminal app.
type Options struct {
	// Context bounds every session operation.
	Context context.Context

	// Session is the test to run, usually fresh from diagnostic.New.
	Session *diagnostic.Session

	// SkipIntro starts directly on the test screen.
	SkipIntro bool
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	width  int
	height int
}

func newAppModel(opts Options) AppModel {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	test := func() screen.Screen { return assessment.New(ctx, opts.Session) }

	var first screen.Screen
	if opts.SkipIntro {
		first = test()
	} else {
		first = welcome.New(test)
	}
	return AppModel{router: router.New(first)}
}

func (m AppModel) Init() tea.Cmd {
	if active := m.router.Active(); active != nil {
		return active.Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if c, ok := m.router.Active().(screen.Capturing); ok && c.CapturesEsc() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	var title, badge string
	hints := []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	if active != nil {
		title = active.Title()
		if b, ok := active.(screen.BadgeProvider); ok {
			badge = b.Badge()
		}
		if h, ok := active.(screen.KeyHintProvider); ok {
			hints = h.KeyHints()
		}
	}

	header := layout.RenderHeader(title, badge, m.width)
	footer := layout.RenderFooter(hints, m.width)

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	if opts.Session == nil {
		return fmt.Errorf("app: no session")
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	p := tea.NewProgram(newAppModel(opts), tea.WithContext(opts.Context))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
