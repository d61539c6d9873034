package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func TestProgressFraction(t *testing.T) {
	tests := []struct {
		done, total int
		want        float64
	}{
		{0, 10, 0},
		{5, 10, 0.5},
		{12, 10, 1},
		{3, 0, 0},
	}
	for _, tt := range tests {
		p := NewProgressBar("", tt.done, tt.total, 40)
		if got := p.Fraction(); got != tt.want {
			t.Errorf("Fraction(%d/%d) = %v, want %v", tt.done, tt.total, got, tt.want)
		}
	}
}

func TestProgressViewShowsCounter(t *testing.T) {
	view := NewProgressBar("Main test", 3, 10, 50).View()
	if !strings.Contains(view, "3/10") {
		t.Errorf("expected counter in view, got %q", view)
	}
	if !strings.Contains(view, "Main test") {
		t.Errorf("expected label in view, got %q", view)
	}
}

func TestNumericInputDropsLetters(t *testing.T) {
	in := NewTextInput("age", true, 3)
	in, _ = in.Update(tea.KeyPressMsg{Code: '7', Text: "7"})
	in, _ = in.Update(tea.KeyPressMsg{Code: 'x', Text: "x"})
	if in.Value() != "7" {
		t.Errorf("Value = %q, want %q", in.Value(), "7")
	}
	n, err := in.NumericValue()
	if err != nil || n != 7 {
		t.Errorf("NumericValue = %d, %v", n, err)
	}
}

func TestRejectAndReset(t *testing.T) {
	in := NewTextInput("name", false, 0)
	in, _ = in.Update(tea.KeyPressMsg{Code: 'a', Text: "a"})
	in.Reject("too short")
	if !strings.Contains(in.View(), "too short") {
		t.Error("rejection message should be rendered")
	}
	in.Reset()
	if in.Value() != "" || strings.Contains(in.View(), "too short") {
		t.Error("Reset should clear value and message")
	}
}
