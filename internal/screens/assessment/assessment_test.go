package assessment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/llm"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/router"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/screens/roadmap"
)

type stubQuestions struct {
	fail []error
}

func (q *stubQuestions) FetchBatch(_ context.Context, req diagnostic.BatchRequest) ([]diagnostic.Question, error) {
	if len(q.fail) > 0 {
		err := q.fail[0]
		q.fail = q.fail[1:]
		return nil, err
	}
	out := make([]diagnostic.Question, req.Count)
	for i := range out {
		out[i] = diagnostic.Question{
			Text:            fmt.Sprintf("What is %d + 1?", i),
			ReferenceAnswer: fmt.Sprint(i + 1),
			Construct:       "Arithmetic Facts",
			Difficulty:      2,
		}
	}
	return out, nil
}

type stubRoadmaps struct{}

func (stubRoadmaps) Generate(context.Context, diagnostic.RoadmapRequest) (*diagnostic.Roadmap, error) {
	rm := &diagnostic.Roadmap{OverallSeverity: "none", Summary: "Keep practicing."}
	for i := 1; i <= diagnostic.RoadmapLength; i++ {
		rm.Steps = append(rm.Steps, diagnostic.RoadmapStep{StepNumber: i, Title: "Practice", ExecutionPlan: "Daily."})
	}
	return rm, nil
}

func newScreen(qs *stubQuestions) *Screen {
	sess := diagnostic.New("owner-1", diagnostic.Deps{Questions: qs, Roadmaps: stubRoadmaps{}})
	return New(context.Background(), sess)
}

func typeText(s *Screen, text string) {
	for _, r := range text {
		s.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

func pressEnter(s *Screen) tea.Cmd {
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	return cmd
}

// pump runs cmd and feeds operation results back to the screen. It returns
// the command the screen produced for the last finished operation.
func pump(s *Screen, cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	var last tea.Cmd
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			if next := pump(s, c); next != nil {
				last = next
			}
		}
	case opDoneMsg:
		_, last = s.Update(msg)
	case spinnerTickMsg:
		s.Update(msg)
	}
	return last
}

func submit(s *Screen, text string) tea.Cmd {
	typeText(s, text)
	return pump(s, pressEnter(s))
}

func TestFullRun(t *testing.T) {
	s := newScreen(&stubQuestions{})

	submit(s, "8")
	if got := s.sess.Stage(); got != diagnostic.StageEnrolling {
		t.Fatalf("stage = %s, want enrolling", got)
	}

	submit(s, "Ada")
	if got := s.sess.Stage(); got != diagnostic.StageMainTest {
		t.Fatalf("stage = %s, want main_test", got)
	}
	if s.Badge() != "Ada" {
		t.Errorf("Badge = %q", s.Badge())
	}
	if !strings.Contains(s.View(100, 30), "What is 0 + 1?") {
		t.Error("first question should be on screen")
	}

	var last tea.Cmd
	for i := range diagnostic.MainTestLength {
		last = submit(s, fmt.Sprint(i+1))
	}
	if !s.sess.Completed() {
		t.Fatalf("stage = %s, want complete", s.sess.Stage())
	}
	if last == nil {
		t.Fatal("expected navigation command after completion")
	}
	msg, ok := last().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatalf("expected ReplaceScreenMsg, got %T", last())
	}
	if _, ok := msg.Screen.(*roadmap.Screen); !ok {
		t.Errorf("expected roadmap screen, got %T", msg.Screen)
	}
}

func TestRetryAfterRateLimit(t *testing.T) {
	qs := &stubQuestions{fail: []error{&llm.ErrRateLimit{Err: errors.New("429")}}}
	s := newScreen(qs)

	submit(s, "9")
	submit(s, "Ada")
	if got := s.sess.Stage(); got != diagnostic.StageEnrolling {
		t.Fatalf("stage = %s, want enrolling after rate limit", got)
	}
	if s.retry == nil || s.errMsg == "" {
		t.Fatal("expected a retryable error on screen")
	}
	if !strings.Contains(s.View(100, 30), "try again") {
		t.Error("view should offer a retry")
	}

	pump(s, pressEnter(s))
	if got := s.sess.Stage(); got != diagnostic.StageMainTest {
		t.Fatalf("stage = %s, want main_test after retry", got)
	}
	if s.errMsg != "" || s.retry != nil {
		t.Error("error should clear after a successful retry")
	}
}

func TestAgeInput(t *testing.T) {
	s := newScreen(&stubQuestions{})

	typeText(s, "abc")
	if cmd := pressEnter(s); cmd != nil {
		t.Error("empty age should not start an operation")
	}

	submit(s, "3")
	if got := s.sess.Stage(); got != diagnostic.StageCollectingAge {
		t.Fatalf("stage = %s, want collecting_age", got)
	}
	if !strings.Contains(s.View(100, 30), "aged 5 and up") {
		t.Error("view should explain the age limit")
	}
}

func TestBlankAnswerRejected(t *testing.T) {
	s := newScreen(&stubQuestions{})
	submit(s, "8")
	submit(s, "Ada")

	typeText(s, "   ")
	if cmd := pressEnter(s); cmd != nil {
		t.Error("blank answer should not start an operation")
	}
	if len(s.sess.Responses()) != 0 {
		t.Error("blank answer must not be recorded")
	}
}

func TestQuitConfirm(t *testing.T) {
	s := newScreen(&stubQuestions{})

	s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if !s.quitAsk {
		t.Fatal("Esc should ask before leaving")
	}
	if !strings.Contains(s.View(100, 30), "Leave the check-up?") {
		t.Error("quit prompt should be shown")
	}

	s.Update(tea.KeyPressMsg{Code: 'n', Text: "n"})
	if s.quitAsk {
		t.Error("N should dismiss the prompt")
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	_, cmd := s.Update(tea.KeyPressMsg{Code: 'y', Text: "y"})
	if cmd == nil {
		t.Fatal("Y should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected QuitMsg, got %T", cmd())
	}
}
