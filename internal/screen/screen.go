// Package screen defines the contract between the router and the views it
// stacks.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/ui/layout"
)

// Screen is one full-frame view below the header.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the content area, excluding header and footer.
	View(width, height int) string

	// Title is shown in the header.
	Title() string
}

// KeyHintProvider is implemented by screens with their own footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// BadgeProvider is implemented by screens that label the right side of the
// header, e.g. with the student's name.
type BadgeProvider interface {
	Badge() string
}

// Capturing is implemented by screens that consume Esc themselves, such as a
// running test that asks before quitting.
type Capturing interface {
	CapturesEsc() bool
}
