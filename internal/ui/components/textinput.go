package components

import (
	"strconv"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/ui/theme"
)

// TextInput wraps bubbles/textinput with the app's styling.
type TextInput struct {
	Model       textinput.Model
	NumericOnly bool
	invalid     string
}

// NewTextInput creates a focused text input. charLimit of 0 means no limit.
func NewTextInput(placeholder string, numericOnly bool, charLimit int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	if charLimit > 0 {
		ti.CharLimit = charLimit
	}
	return TextInput{Model: ti, NumericOnly: numericOnly}
}

func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update handles messages. Non-digit keys are dropped in numeric mode.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok {
		if t.NumericOnly {
			key := kmsg.String()
			if len(key) == 1 && (key[0] < '0' || key[0] > '9') {
				return t, nil
			}
		}
		t.invalid = ""
	}

	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

func (t TextInput) View() string {
	view := t.Model.View()
	if t.invalid != "" {
		view += "\n" + lipgloss.NewStyle().Foreground(theme.Error).Render(t.invalid)
	}
	return view
}

// Value returns the input trimmed of surrounding whitespace.
func (t TextInput) Value() string {
	return strings.TrimSpace(t.Model.Value())
}

// NumericValue returns the input value as an integer.
func (t TextInput) NumericValue() (int, error) {
	return strconv.Atoi(t.Value())
}

// Reject keeps the typed value and shows why it was not accepted.
func (t *TextInput) Reject(reason string) {
	t.invalid = reason
}

// Reset clears the value and any rejection message.
func (t *TextInput) Reset() {
	t.Model.SetValue("")
	t.invalid = ""
}
