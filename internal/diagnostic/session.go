package diagnostic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Deps are the collaborators a session drives. Recorder may be nil for
// sessions that are never persisted.
type Deps struct {
	Questions QuestionSource
	Roadmaps  RoadmapSource
	Recorder  Recorder
	Logger    *slog.Logger
	Now       func() time.Time
}

// Enrollment identifies the student taking the test. An empty StudentID
// creates a new student record.
type Enrollment struct {
	StudentName string
	StudentID   string
}

// AnswerResult is returned for every accepted answer.
type AnswerResult struct {
	Response Response
	Stage    Stage
	Advanced bool
}

// Session is one diagnostic test run. Mutating operations are serialized:
// a call made while another is in flight fails with ErrBusy. Readers always
// see the last committed state.
type Session struct {
	busy sync.Mutex
	mu   sync.RWMutex
	deps Deps

	id          string
	ownerID     string
	studentID   string
	studentName string
	stage       Stage
	age         int
	questions   []Question
	responses   []Response
	blockers    []Blocker
	severity    Severity
	roadmap     *Roadmap
	createdAt   time.Time
	completedAt time.Time

	// Fetched but not yet committed, reused when a failed transition is retried.
	pending pendingWork
}

type pendingWork struct {
	StudentID string          `json:"student_id,omitempty"`
	Batch     *pendingBatch   `json:"batch,omitempty"`
	Roadmap   *pendingRoadmap `json:"roadmap,omitempty"`
}

type pendingBatch struct {
	Request   BatchRequest `json:"request"`
	Questions []Question   `json:"questions"`
}

type pendingRoadmap struct {
	Request RoadmapRequest `json:"request"`
	Roadmap *Roadmap       `json:"roadmap"`
}

// New starts a session in StageCollectingAge.
func New(ownerID string, deps Deps) *Session {
	s := &Session{
		deps:    deps,
		id:      uuid.NewString(),
		ownerID: ownerID,
		stage:   StageCollectingAge,
	}
	s.createdAt = s.now()
	return s
}

func (s *Session) now() time.Time {
	if s.deps.Now != nil {
		return s.deps.Now()
	}
	return time.Now()
}

func (s *Session) logger() *slog.Logger {
	l := s.deps.Logger
	if l == nil {
		l = slog.Default()
	}
	return l.With("session_id", s.id)
}

// begin claims the session for one mutating operation.
func (s *Session) begin(op string) (func(), error) {
	if !s.busy.TryLock() {
		return nil, newError(ErrBusy, op, nil)
	}
	return s.busy.Unlock, nil
}

// SubmitAge records the student's age and moves to enrollment.
func (s *Session) SubmitAge(ctx context.Context, age int) error {
	const op = "submit age"
	done, err := s.begin(op)
	if err != nil {
		return err
	}
	defer done()

	if s.stage != StageCollectingAge {
		return newError(ErrInvalidState, op, fmt.Errorf("session is in stage %s", s.stage))
	}
	if age < MinAge {
		return newError(ErrValidation, op, fmt.Errorf("age must be at least %d, got %d", MinAge, age))
	}

	s.mu.Lock()
	s.age = age
	s.stage = StageEnrolling
	s.mu.Unlock()

	s.logTransition(ctx, StageCollectingAge, StageEnrolling)
	return nil
}

// Enroll records the student and loads the main-test batch. On any failure
// the session stays in StageEnrolling and the call can be repeated.
func (s *Session) Enroll(ctx context.Context, e Enrollment) error {
	const op = "enroll"
	done, err := s.begin(op)
	if err != nil {
		return err
	}
	defer done()

	if s.stage != StageEnrolling {
		return newError(ErrInvalidState, op, fmt.Errorf("session is in stage %s", s.stage))
	}
	name := strings.TrimSpace(e.StudentName)
	if name == "" {
		return newError(ErrValidation, op, errors.New("student name is required"))
	}

	studentID := strings.TrimSpace(e.StudentID)
	if studentID == "" {
		if s.pending.StudentID == "" {
			s.mu.Lock()
			s.pending.StudentID = uuid.NewString()
			s.mu.Unlock()
		}
		studentID = s.pending.StudentID
	}

	batch, err := s.fetchBatch(ctx, op, BatchRequest{Age: s.age, Count: MainTestLength})
	if err != nil {
		return err
	}

	if rec := s.deps.Recorder; rec != nil {
		err := rec.StartTest(ctx, TestRecord{
			ID:          s.id,
			OwnerID:     s.ownerID,
			StudentID:   studentID,
			StudentName: name,
			Age:         s.age,
			Stage:       StageMainTest,
			CreatedAt:   s.createdAt,
		})
		if errors.Is(err, ErrUnknownStudent) {
			return newError(ErrValidation, op, err)
		}
		if err != nil {
			return newError(ErrPersistence, op, err)
		}
	}

	s.mu.Lock()
	s.studentID = studentID
	s.studentName = name
	s.questions = batch
	s.responses = nil
	s.stage = StageMainTest
	s.pending = pendingWork{}
	s.mu.Unlock()

	s.logTransition(ctx, StageEnrolling, StageMainTest)
	return nil
}

// SubmitAnswer grades the answer to the current question. The answer that
// closes a stage is committed only together with that stage's side effects;
// if any of them fails the answer is not recorded and the same call can be
// retried.
func (s *Session) SubmitAnswer(ctx context.Context, answer string) (AnswerResult, error) {
	const op = "submit answer"
	done, err := s.begin(op)
	if err != nil {
		return AnswerResult{}, err
	}
	defer done()

	stage := s.stage
	if !stage.Testing() {
		return AnswerResult{}, newError(ErrInvalidState, op, fmt.Errorf("session is in stage %s", stage))
	}
	idx := len(s.responses)
	if idx >= len(s.questions) {
		return AnswerResult{}, newError(ErrInvalidState, op, errors.New("question queue is empty"))
	}
	if IsBlankAnswer(answer) {
		return AnswerResult{}, newError(ErrValidation, op, errors.New("answer is empty"))
	}

	q := s.questions[idx]
	resp := Response{
		QuestionIndex:   idx,
		QuestionText:    q.Text,
		StudentAnswer:   strings.TrimSpace(answer),
		ReferenceAnswer: q.ReferenceAnswer,
		IsCorrect:       Evaluate(answer, q.ReferenceAnswer),
		Construct:       q.Construct,
		Difficulty:      q.Difficulty,
	}
	responses := append(slices.Clip(s.responses), resp)

	if !isStageComplete(stage, len(responses)) {
		s.mu.Lock()
		s.responses = responses
		s.mu.Unlock()
		return AnswerResult{Response: resp, Stage: stage}, nil
	}

	next, err := s.closeStage(ctx, op, stage, responses)
	if err != nil {
		return AnswerResult{}, err
	}
	return AnswerResult{Response: resp, Stage: next, Advanced: true}, nil
}

// closeStage runs the side effects of a finished testing stage on the
// tentative response list and commits only when all of them succeed.
func (s *Session) closeStage(ctx context.Context, op string, stage Stage, responses []Response) (Stage, error) {
	rec := s.deps.Recorder
	stageResponses := responses[stageStart(stage):]
	if rec != nil {
		if err := rec.SaveResponses(ctx, s.ownerID, s.id, stageResponses); err != nil {
			return stage, newError(ErrPersistence, op, err)
		}
	}

	if stage == StageConfirmatoryTest {
		return s.complete(ctx, op, stage, responses, s.blockers)
	}

	blockers := Detect(responses)
	primary, ok := Primary(blockers)
	if !ok {
		return s.complete(ctx, op, stage, responses, nil)
	}

	if rec != nil {
		if err := rec.SaveBlockers(ctx, s.ownerID, s.id, blockers); err != nil {
			return stage, newError(ErrPersistence, op, err)
		}
	}

	batch, err := s.fetchBatch(ctx, op, BatchRequest{
		Age:          s.age,
		ErrorHistory: []ErrorHint{{Construct: primary.Construct}},
		Count:        ConfirmatoryLength,
	})
	if err != nil {
		return stage, err
	}

	if rec != nil {
		if err := rec.AdvanceStage(ctx, s.ownerID, s.id, StageConfirmatoryTest); err != nil {
			return stage, newError(ErrPersistence, op, err)
		}
	}

	s.mu.Lock()
	s.responses = responses
	s.blockers = blockers
	s.questions = append(slices.Clip(s.questions), batch...)
	s.stage = StageConfirmatoryTest
	s.pending.Batch = nil
	s.mu.Unlock()

	s.logTransition(ctx, stage, StageConfirmatoryTest, "blockers", len(blockers), "primary", primary.Construct)
	return StageConfirmatoryTest, nil
}

// complete scores the run, attaches the roadmap and seals the session.
func (s *Session) complete(ctx context.Context, op string, from Stage, responses []Response, blockers []Blocker) (Stage, error) {
	severity, err := Score(blockers, responses)
	if err != nil {
		return from, err
	}

	roadmap, err := s.fetchRoadmap(ctx, op, RoadmapRequest{
		Age:       s.age,
		Blockers:  summarize(blockers),
		Responses: responses,
	})
	if err != nil {
		return from, err
	}

	// Every blocker is stamped confirmed, including those the confirmatory
	// batch did not target.
	confirmed := confirmAll(blockers)
	completedAt := s.now()

	if rec := s.deps.Recorder; rec != nil {
		err := rec.CompleteTest(ctx, Completion{
			OwnerID:     s.ownerID,
			TestID:      s.id,
			Severity:    severity,
			Blockers:    confirmed,
			Roadmap:     roadmap,
			CompletedAt: completedAt,
		})
		if err != nil {
			return from, newError(ErrPersistence, op, err)
		}
	}

	s.mu.Lock()
	s.responses = responses
	s.blockers = confirmed
	s.severity = severity
	s.roadmap = roadmap
	s.completedAt = completedAt
	s.stage = StageComplete
	s.pending = pendingWork{}
	s.mu.Unlock()

	s.logTransition(ctx, from, StageComplete, "severity", string(severity), "responses", len(responses))
	return StageComplete, nil
}

func (s *Session) fetchBatch(ctx context.Context, op string, req BatchRequest) ([]Question, error) {
	if p := s.pending.Batch; p != nil && reflect.DeepEqual(p.Request, req) {
		return p.Questions, nil
	}
	if s.deps.Questions == nil {
		return nil, newError(ErrUpstreamUnavailable, op, errors.New("no question source configured"))
	}

	batch, err := s.deps.Questions.FetchBatch(ctx, req)
	if err != nil {
		s.logger().WarnContext(ctx, "question batch request failed", "count", req.Count, "error", err)
		return nil, upstreamError(op, err)
	}
	if err := validateBatch(batch, req.Count); err != nil {
		s.logger().WarnContext(ctx, "question batch rejected", "error", err)
		return nil, newError(ErrUpstreamUnavailable, op, err)
	}

	s.mu.Lock()
	s.pending.Batch = &pendingBatch{Request: req, Questions: batch}
	s.mu.Unlock()
	return batch, nil
}

func (s *Session) fetchRoadmap(ctx context.Context, op string, req RoadmapRequest) (*Roadmap, error) {
	if p := s.pending.Roadmap; p != nil && reflect.DeepEqual(p.Request, req) {
		return p.Roadmap, nil
	}
	if s.deps.Roadmaps == nil {
		return nil, newError(ErrUpstreamUnavailable, op, errors.New("no roadmap source configured"))
	}

	roadmap, err := s.deps.Roadmaps.Generate(ctx, req)
	if err != nil {
		s.logger().WarnContext(ctx, "roadmap request failed", "error", err)
		return nil, upstreamError(op, err)
	}
	if err := roadmap.Validate(); err != nil {
		s.logger().WarnContext(ctx, "roadmap rejected", "error", err)
		return nil, newError(ErrUpstreamUnavailable, op, err)
	}

	s.mu.Lock()
	s.pending.Roadmap = &pendingRoadmap{Request: req, Roadmap: roadmap}
	s.mu.Unlock()
	return roadmap, nil
}

// validateBatch rejects partial or malformed batches.
func validateBatch(batch []Question, want int) error {
	if len(batch) != want {
		return fmt.Errorf("batch has %d questions, want %d", len(batch), want)
	}
	for i, q := range batch {
		switch {
		case strings.TrimSpace(q.Text) == "":
			return fmt.Errorf("question %d has no text", i)
		case strings.TrimSpace(q.ReferenceAnswer) == "":
			return fmt.Errorf("question %d has no reference answer", i)
		case strings.TrimSpace(q.Construct) == "":
			return fmt.Errorf("question %d has no construct", i)
		case q.Difficulty < 1 || q.Difficulty > 5:
			return fmt.Errorf("question %d has difficulty %d outside 1..5", i, q.Difficulty)
		}
	}
	return nil
}

func (s *Session) logTransition(ctx context.Context, from, to Stage, attrs ...any) {
	args := append([]any{"from", from.String(), "to", to.String()}, attrs...)
	s.logger().InfoContext(ctx, "stage transition", args...)
}

// ID returns the session ID, which is also the persisted test ID.
func (s *Session) ID() string { return s.id }

// OwnerID returns the party that created the session.
func (s *Session) OwnerID() string { return s.ownerID }

func (s *Session) Stage() Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stage
}

func (s *Session) Age() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.age
}

func (s *Session) StudentName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.studentName
}

func (s *Session) StudentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.studentID
}

// CurrentQuestion returns the question awaiting an answer.
func (s *Session) CurrentQuestion() (Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.stage.Testing() || len(s.responses) >= len(s.questions) {
		return Question{}, false
	}
	return s.questions[len(s.responses)], true
}

// Responses returns a copy of the response history.
func (s *Session) Responses() []Response {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.responses)
}

// Blockers returns a copy of the detected blockers.
func (s *Session) Blockers() []Blocker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.blockers)
}

// Severity is empty until the session completes.
func (s *Session) Severity() Severity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.severity
}

// Roadmap is nil until the session completes.
func (s *Session) Roadmap() *Roadmap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roadmap
}

func (s *Session) Completed() bool {
	return s.Stage() == StageComplete
}

// CompletedAt is zero until the session completes.
func (s *Session) CompletedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completedAt
}

func (s *Session) Progress() Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return progressFor(s.stage, len(s.responses))
}
