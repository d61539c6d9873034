// Package roadmap shows the outcome of a completed test.
package roadmap

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/screen"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/ui/layout"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/ui/theme"
)

// Result is what the screen displays.
type Result struct {
	StudentName string
	Severity    diagnostic.Severity
	Answered    int
	Correct     int
	Blockers    []diagnostic.Blocker
	Roadmap     *diagnostic.Roadmap
}

// FromSession collects the result of a completed session.
func FromSession(s *diagnostic.Session) Result {
	r := Result{
		StudentName: s.StudentName(),
		Severity:    s.Severity(),
		Blockers:    s.Blockers(),
		Roadmap:     s.Roadmap(),
	}
	for _, resp := range s.Responses() {
		r.Answered++
		if resp.IsCorrect {
			r.Correct++
		}
	}
	return r
}

// Screen renders the severity, blockers and remediation steps. Up and down
// scroll through the steps.
type Screen struct {
	result Result
	offset int
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.BadgeProvider   = (*Screen)(nil)
)

func New(r Result) *Screen {
	return &Screen{result: r}
}

func (s *Screen) Init() tea.Cmd { return nil }

func (s *Screen) Title() string { return "Results" }

func (s *Screen) Badge() string { return s.result.StudentName }

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Q", Description: "Finish"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok {
		switch kmsg.String() {
		case "q", "Q", "enter", "esc":
			return s, tea.Quit
		case "up", "k":
			if s.offset > 0 {
				s.offset--
			}
		case "down", "j":
			s.offset++
		}
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	lines := strings.Split(s.render(width, layout.IsCompactHeight(height)), "\n")
	maxOffset := max(0, len(lines)-height)
	if s.offset > maxOffset {
		s.offset = maxOffset
	}
	end := min(len(lines), s.offset+height)
	return strings.Join(lines[s.offset:end], "\n")
}

func (s *Screen) render(width int, compact bool) string {
	r := s.result
	var b strings.Builder

	b.WriteString(layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Primary).Bold(true), "Check-up complete"))
	b.WriteString("\n\n")

	sev := lipgloss.NewStyle().Foreground(theme.SeverityColor(string(r.Severity))).Bold(true).
		Render(strings.ToUpper(string(r.Severity)))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		fmt.Sprintf("Overall difficulty: %s    Correct: %d/%d", sev, r.Correct, r.Answered)))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", min(width-8, 60)))

	if len(r.Blockers) > 0 {
		b.WriteString(layout.Centered(width, lipgloss.NewStyle().Foreground(theme.TextDim), "Areas to work on"))
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
		b.WriteString("\n")
		for _, bl := range r.Blockers {
			line := fmt.Sprintf("%s  (%d errors)", bl.Construct, bl.ErrorCount)
			b.WriteString(layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Accent), line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	rm := r.Roadmap
	if rm == nil {
		return b.String()
	}

	b.WriteString(layout.Centered(width, lipgloss.NewStyle().Foreground(theme.TextDim), "Next steps"))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
	b.WriteString("\n")
	if rm.Summary != "" {
		b.WriteString(layout.Wrapped(width, 70, theme.Body, rm.Summary))
		b.WriteString("\n\n")
	}
	for _, st := range rm.Steps {
		title := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).
			Render(fmt.Sprintf("%d. %s", st.StepNumber, st.Title))
		b.WriteString(layout.Wrapped(width, 70, lipgloss.NewStyle(), title))
		b.WriteString("\n")
		b.WriteString(layout.Wrapped(width, 70, theme.Body, st.ExecutionPlan))
		b.WriteString("\n")
		if !compact && len(st.Resources) > 0 {
			b.WriteString(layout.Wrapped(width, 70, theme.Hint, "Resources: "+strings.Join(st.Resources, ", ")))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
