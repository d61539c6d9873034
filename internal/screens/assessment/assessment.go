// Package assessment is the screen a student takes the test on.
package assessment

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/llm"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/router"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/screen"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/screens/roadmap"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/ui/components"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/ui/layout"
)

// Screen walks one session from the age prompt to completion.
type Screen struct {
	ctx  context.Context
	sess *diagnostic.Session

	input   components.TextInput
	busy    bool
	spinner int

	// retry repeats the last failed transition with the same input.
	retry   tea.Cmd
	errMsg  string
	notice  string
	quitAsk bool
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.BadgeProvider   = (*Screen)(nil)
	_ screen.Capturing       = (*Screen)(nil)
)

// New creates the screen for sess. ctx bounds every operation it runs.
func New(ctx context.Context, sess *diagnostic.Session) *Screen {
	s := &Screen{ctx: ctx, sess: sess}
	s.resetInput()
	return s
}

func (s *Screen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *Screen) Title() string {
	switch s.sess.Stage() {
	case diagnostic.StageCollectingAge, diagnostic.StageEnrolling:
		return "Getting started"
	case diagnostic.StageMainTest:
		return "Check-up"
	case diagnostic.StageConfirmatoryTest:
		return "Follow-up"
	default:
		return "Results"
	}
}

func (s *Screen) Badge() string {
	return s.sess.StudentName()
}

func (s *Screen) CapturesEsc() bool {
	return true
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch {
	case s.quitAsk:
		return []layout.KeyHint{
			{Key: "Y", Description: "Leave"},
			{Key: "N", Description: "Keep going"},
		}
	case s.busy:
		return []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	case s.retry != nil:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Try again"},
			{Key: "Esc", Description: "Leave"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Submit"},
		{Key: "Esc", Description: "Leave"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case opDoneMsg:
		return s.handleDone(msg)

	case spinnerTickMsg:
		if !s.busy {
			return s, nil
		}
		s.spinner++
		return s, spinnerTick()

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *Screen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.quitAsk {
		switch key {
		case "y", "Y":
			return s, tea.Quit
		case "n", "N", "esc":
			s.quitAsk = false
		}
		return s, nil
	}

	if s.busy {
		return s, nil
	}

	switch key {
	case "esc":
		s.quitAsk = true
		return s, nil
	case "enter":
		if s.retry != nil {
			return s, s.run(s.retry)
		}
		return s.submit()
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// submit turns the typed value into the operation for the current stage.
func (s *Screen) submit() (screen.Screen, tea.Cmd) {
	s.notice = ""
	switch stage := s.sess.Stage(); {
	case stage == diagnostic.StageCollectingAge:
		age, err := s.input.NumericValue()
		if err != nil {
			s.input.Reject("Please type the age as a number.")
			return s, nil
		}
		return s, s.run(s.submitAge(age))

	case stage == diagnostic.StageEnrolling:
		name := s.input.Value()
		if name == "" {
			s.input.Reject("Please type a name.")
			return s, nil
		}
		return s, s.run(s.enroll(name))

	case stage.Testing():
		answer := s.input.Value()
		if diagnostic.IsBlankAnswer(answer) {
			s.input.Reject("Type an answer first. It's fine to guess.")
			return s, nil
		}
		return s, s.run(s.answer(answer))
	}
	return s, nil
}

// run starts op in the background and shows the loading state.
func (s *Screen) run(op tea.Cmd) tea.Cmd {
	s.busy = true
	s.errMsg = ""
	s.retry = nil
	return tea.Batch(op, spinnerTick())
}

func (s *Screen) submitAge(age int) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{Kind: opAge, Err: s.sess.SubmitAge(s.ctx, age)}
	}
}

func (s *Screen) enroll(name string) tea.Cmd {
	return func() tea.Msg {
		err := s.sess.Enroll(s.ctx, diagnostic.Enrollment{StudentName: name})
		return opDoneMsg{Kind: opEnroll, Err: err}
	}
}

func (s *Screen) answer(answer string) tea.Cmd {
	return func() tea.Msg {
		res, err := s.sess.SubmitAnswer(s.ctx, answer)
		return opDoneMsg{Kind: opAnswer, Result: res, Err: err}
	}
}

func (s *Screen) handleDone(msg opDoneMsg) (screen.Screen, tea.Cmd) {
	s.busy = false

	if msg.Err != nil {
		switch {
		case errors.Is(msg.Err, diagnostic.ErrValidation):
			s.input.Reject(validationText(msg.Kind))
		case diagnostic.IsRetryable(msg.Err):
			s.errMsg = describe(msg.Err)
			s.retry = s.retryFor(msg.Kind)
		default:
			s.errMsg = describe(msg.Err)
		}
		return s, nil
	}

	if s.sess.Completed() {
		return s, func() tea.Msg {
			return router.ReplaceScreenMsg{Screen: roadmap.New(roadmap.FromSession(s.sess))}
		}
	}

	if msg.Kind == opAnswer && msg.Result.Advanced && msg.Result.Stage == diagnostic.StageConfirmatoryTest {
		s.notice = "Nice work. A few more questions to go."
	}
	s.resetInput()
	return s, s.input.Init()
}

// retryFor rebuilds the failed operation from the input, which is kept as
// typed after a failure.
func (s *Screen) retryFor(kind opKind) tea.Cmd {
	switch kind {
	case opAge:
		age, _ := s.input.NumericValue()
		return s.submitAge(age)
	case opEnroll:
		return s.enroll(s.input.Value())
	default:
		return s.answer(s.input.Value())
	}
}

func (s *Screen) resetInput() {
	switch s.sess.Stage() {
	case diagnostic.StageCollectingAge:
		s.input = components.NewTextInput("Age in years", true, 3)
	case diagnostic.StageEnrolling:
		s.input = components.NewTextInput("First name", false, 40)
	default:
		s.input = components.NewTextInput("Your answer", false, 40)
	}
}

func validationText(kind opKind) string {
	switch kind {
	case opAge:
		return "The check-up is for children aged 5 and up."
	case opEnroll:
		return "Please type a name."
	default:
		return "Type an answer first."
	}
}

// describe turns an operation failure into a line for the student's adult.
func describe(err error) string {
	var quota *llm.ErrQuotaExceeded
	switch {
	case errors.As(err, &quota):
		return "The question service has run out of credit. Ask an adult to check the API account."
	case errors.Is(err, diagnostic.ErrUpstreamRateLimited):
		return "The question service is busy right now. Wait a moment, then try again."
	case errors.Is(err, diagnostic.ErrUpstreamUnavailable):
		return "Could not reach the question service."
	case errors.Is(err, diagnostic.ErrPersistence):
		return "Could not save progress."
	case errors.Is(err, diagnostic.ErrBusy):
		return "Still working on the last step."
	}
	return err.Error()
}

func spinnerTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}
