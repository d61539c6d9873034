// Package router moves the terminal app between screens. The check-up is a
// mostly linear flow (intro, questions, roadmap), so screens usually replace
// each other; the stack exists for overlays that return to their caller.
package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/screen"
)

// PushScreenMsg opens Screen on top of the current one.
type PushScreenMsg struct {
	Screen screen.Screen
}

// PopScreenMsg closes the top screen and returns to the one below.
type PopScreenMsg struct{}

// ReplaceScreenMsg moves on to Screen. The screen it replaces cannot be
// returned to.
type ReplaceScreenMsg struct {
	Screen screen.Screen
}

type Router struct {
	stack []screen.Screen
}

func New(initial screen.Screen) *Router {
	return &Router{stack: []screen.Screen{initial}}
}

// Push opens s above the active screen.
func (r *Router) Push(s screen.Screen) tea.Cmd {
	r.stack = append(r.stack, s)
	return s.Init()
}

// Pop closes the active screen. The bottom screen is never closed.
func (r *Router) Pop() tea.Cmd {
	if n := len(r.stack); n > 1 {
		r.stack[n-1] = nil
		r.stack = r.stack[:n-1]
	}
	return nil
}

// Replace puts s in place of the active screen.
func (r *Router) Replace(s screen.Screen) tea.Cmd {
	if n := len(r.stack); n > 0 {
		r.stack[n-1] = s
		return s.Init()
	}
	return r.Push(s)
}

// Active is the screen receiving input, or nil for an empty router.
func (r *Router) Active() screen.Screen {
	if n := len(r.stack); n > 0 {
		return r.stack[n-1]
	}
	return nil
}

func (r *Router) Depth() int { return len(r.stack) }

// Update applies navigation messages and hands everything else to the
// active screen.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case PushScreenMsg:
		return r.Push(m.Screen)
	case PopScreenMsg:
		return r.Pop()
	case ReplaceScreenMsg:
		return r.Replace(m.Screen)
	}

	n := len(r.stack)
	if n == 0 {
		return nil
	}
	next, cmd := r.stack[n-1].Update(msg)
	r.stack[n-1] = next
	return cmd
}

func (r *Router) View(width, height int) string {
	if active := r.Active(); active != nil {
		return active.View(width, height)
	}
	return ""
}
