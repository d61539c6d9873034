package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/store"
)

type questionView struct {
	Index      int    `json:"index"`
	Text       string `json:"text"`
	Construct  string `json:"construct"`
	Difficulty int    `json:"difficulty"`
}

// sessionView never carries reference answers for unanswered questions.
type sessionView struct {
	ID          string                `json:"id"`
	Stage       diagnostic.Stage      `json:"stage"`
	Age         int                   `json:"age,omitempty"`
	StudentID   string                `json:"student_id,omitempty"`
	StudentName string                `json:"student_name,omitempty"`
	Progress    diagnostic.Progress   `json:"progress"`
	Question    *questionView         `json:"question,omitempty"`
	Blockers    []diagnostic.Blocker  `json:"blockers,omitempty"`
	Severity    diagnostic.Severity   `json:"severity,omitempty"`
	Roadmap     *diagnostic.Roadmap   `json:"roadmap,omitempty"`
	Responses   []diagnostic.Response `json:"responses,omitempty"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
}

func viewOf(snap diagnostic.Snapshot) (sessionView, error) {
	sess, err := diagnostic.Restore(snap, diagnostic.Deps{})
	if err != nil {
		return sessionView{}, err
	}
	v := sessionView{
		ID:          sess.ID(),
		Stage:       sess.Stage(),
		Age:         sess.Age(),
		StudentID:   sess.StudentID(),
		StudentName: sess.StudentName(),
		Progress:    sess.Progress(),
		Blockers:    sess.Blockers(),
		Severity:    sess.Severity(),
		Roadmap:     sess.Roadmap(),
	}
	if q, ok := sess.CurrentQuestion(); ok {
		v.Question = &questionView{
			Index:      len(snap.Responses),
			Text:       q.Text,
			Construct:  q.Construct,
			Difficulty: q.Difficulty,
		}
	}
	if sess.Completed() {
		v.Responses = sess.Responses()
		t := sess.CompletedAt()
		v.CompletedAt = &t
	}
	return v, nil
}

func (s *Server) writeSession(w http.ResponseWriter, r *http.Request, status int, snap diagnostic.Snapshot) {
	v, err := viewOf(snap)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, status, v)
}

// do runs op on the session named in the URL.
func (s *Server) do(r *http.Request, op func(ctx context.Context, sess *diagnostic.Session) error) (diagnostic.Snapshot, error) {
	return s.registry.Do(r.Context(), OwnerFrom(r.Context()), chi.URLParam(r, "id"), op)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			writeErr(w, http.StatusServiceUnavailable, "unhealthy", err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /v1/sessions
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.registry.Create(r.Context(), OwnerFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": snap.ID, "stage": snap.Stage})
}

// GET /v1/sessions/{id}
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.registry.Get(r.Context(), OwnerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSession(w, r, http.StatusOK, snap)
}

// POST /v1/sessions/{id}/age  {"age": 8}
func (s *Server) submitAge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Age *int `json:"age"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("bad json: %v", err))
		return
	}
	if req.Age == nil {
		writeErr(w, http.StatusUnprocessableEntity, "validation", "age is required")
		return
	}
	snap, err := s.do(r, func(ctx context.Context, sess *diagnostic.Session) error {
		return sess.SubmitAge(ctx, *req.Age)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSession(w, r, http.StatusOK, snap)
}

// POST /v1/sessions/{id}/enroll  {"student_name": "...", "student_id": "..."}
func (s *Server) enroll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentName string `json:"student_name"`
		StudentID   string `json:"student_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("bad json: %v", err))
		return
	}
	snap, err := s.do(r, func(ctx context.Context, sess *diagnostic.Session) error {
		return sess.Enroll(ctx, diagnostic.Enrollment{StudentName: req.StudentName, StudentID: req.StudentID})
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSession(w, r, http.StatusOK, snap)
}

type answerResp struct {
	IsCorrect bool                `json:"is_correct"`
	Stage     diagnostic.Stage    `json:"stage"`
	Advanced  bool                `json:"advanced"`
	Progress  diagnostic.Progress `json:"progress"`
	Session   sessionView         `json:"session"`
}

// POST /v1/sessions/{id}/answers  {"answer": "12"}
func (s *Server) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answer string `json:"answer"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("bad json: %v", err))
		return
	}
	var res diagnostic.AnswerResult
	snap, err := s.do(r, func(ctx context.Context, sess *diagnostic.Session) error {
		var err error
		res, err = sess.SubmitAnswer(ctx, req.Answer)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	v, err := viewOf(snap)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResp{
		IsCorrect: res.Response.IsCorrect,
		Stage:     res.Stage,
		Advanced:  res.Advanced,
		Progress:  v.Progress,
		Session:   v,
	})
}

type testSummaryView struct {
	ID          string              `json:"id"`
	StudentID   string              `json:"student_id"`
	Stage       diagnostic.Stage    `json:"stage"`
	Age         int                 `json:"age"`
	Severity    diagnostic.Severity `json:"severity,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

func summaryView(t store.TestSummary) testSummaryView {
	return testSummaryView{
		ID:          t.ID,
		StudentID:   t.StudentID,
		Stage:       t.Stage,
		Age:         t.Age,
		Severity:    t.Severity,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
	}
}

type studentView struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"created_at"`
	Tests     []testSummaryView `json:"tests,omitempty"`
}

// GET /v1/students?include_tests=true
func (s *Server) listStudents(w http.ResponseWriter, r *http.Request) {
	var opts store.ListOpts
	if v := r.URL.Query().Get("include_tests"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "bad_request", "include_tests must be true or false")
			return
		}
		opts.IncludeTests = b
	}
	students, err := s.students.ListStudents(r.Context(), OwnerFrom(r.Context()), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]studentView, 0, len(students))
	for _, st := range students {
		sv := studentView{ID: st.ID, Name: st.Name, CreatedAt: st.CreatedAt}
		for _, t := range st.Tests {
			sv.Tests = append(sv.Tests, summaryView(t))
		}
		out = append(out, sv)
	}
	writeJSON(w, http.StatusOK, map[string]any{"students": out})
}

type testDetailView struct {
	testSummaryView
	StudentName string                `json:"student_name"`
	Responses   []diagnostic.Response `json:"responses"`
	Blockers    []diagnostic.Blocker  `json:"blockers"`
	Roadmap     *diagnostic.Roadmap   `json:"roadmap,omitempty"`
}

// GET /v1/tests/{id}
func (s *Server) getTest(w http.ResponseWriter, r *http.Request) {
	t, err := s.students.GetTest(r.Context(), OwnerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	v := testDetailView{
		testSummaryView: summaryView(t.TestSummary),
		StudentName:     t.StudentName,
		Responses:       t.Responses,
		Blockers:        t.Blockers,
		Roadmap:         t.Roadmap,
	}
	if v.Responses == nil {
		v.Responses = []diagnostic.Response{}
	}
	if v.Blockers == nil {
		v.Blockers = []diagnostic.Blocker{}
	}
	writeJSON(w, http.StatusOK, v)
}
