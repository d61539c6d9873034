package assessment

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/ui/components"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/ui/layout"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/ui/theme"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (s *Screen) View(width, height int) string {
	if s.quitAsk {
		return renderQuitConfirm(width)
	}

	var b strings.Builder
	switch stage := s.sess.Stage(); {
	case stage == diagnostic.StageCollectingAge:
		b.WriteString(s.renderPrompt(width, "How old is the student?", "Type the age and press Enter."))
	case stage == diagnostic.StageEnrolling:
		b.WriteString(s.renderPrompt(width, "What is the student's name?", "The name is kept with the results."))
	case stage.Testing():
		b.WriteString(s.renderQuestion(width))
	}

	b.WriteString("\n\n")
	b.WriteString(s.renderStatus(width))
	return b.String()
}

func (s *Screen) renderPrompt(width int, question, hint string) string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Text).Bold(true), question))
	b.WriteString("\n")
	b.WriteString(layout.Centered(width, theme.Hint, hint))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.input.View()))
	return b.String()
}

func (s *Screen) renderQuestion(width int) string {
	q, ok := s.sess.CurrentQuestion()
	if !ok {
		return ""
	}
	p := s.sess.Progress()

	label := "Check-up"
	if p.Stage == diagnostic.StageConfirmatoryTest {
		label = "Follow-up"
	}
	bar := components.NewProgressBar(label, p.Answered, p.Total, min(width-8, 60))

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
	b.WriteString("\n")
	b.WriteString(layout.Centered(width, lipgloss.NewStyle().Foreground(theme.TextDim),
		fmt.Sprintf("%s  %s", q.Construct, difficultyDots(q.Difficulty))))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", min(width-8, 60)))))
	b.WriteString("\n\n")
	b.WriteString(layout.Wrapped(width, 70, lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Align(lipgloss.Center), q.Text))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, "Answer: "+s.input.View()))
	return b.String()
}

func (s *Screen) renderStatus(width int) string {
	switch {
	case s.busy:
		frame := spinnerFrames[s.spinner%len(spinnerFrames)]
		return layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Secondary),
			frame+" "+s.busyText())
	case s.errMsg != "":
		msg := s.errMsg
		if s.retry != nil {
			msg += "\nPress Enter to try again."
		}
		return layout.Wrapped(width, 70, theme.ErrorText.Align(lipgloss.Center), msg)
	case s.notice != "":
		return layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Success), s.notice)
	}
	return ""
}

func (s *Screen) busyText() string {
	switch s.sess.Stage() {
	case diagnostic.StageEnrolling:
		return "Preparing questions..."
	case diagnostic.StageMainTest, diagnostic.StageConfirmatoryTest:
		if p := s.sess.Progress(); p.Answered == p.Total-1 {
			return "Looking at the answers..."
		}
		return "Saving..."
	}
	return "One moment..."
}

func difficultyDots(level int) string {
	level = max(0, min(level, 5))
	return strings.Repeat("●", level) + strings.Repeat("○", 5-level)
}

func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Text).Bold(true), "Leave the check-up?"))
	b.WriteString("\n")
	b.WriteString(layout.Centered(width, lipgloss.NewStyle().Foreground(theme.TextDim), "This check-up will not be finished."))
	b.WriteString("\n\n")
	b.WriteString(layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Error), "[Y] Yes, leave"))
	b.WriteString("\n")
	b.WriteString(layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Primary), "[N] No, keep going"))
	return b.String()
}
