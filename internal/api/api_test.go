package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/llm"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/sessions"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/store"
)

const testSecret = "test-secret-0123456789"

type stubQuestions struct {
	fail  []error
	calls int
}

func (s *stubQuestions) FetchBatch(_ context.Context, req diagnostic.BatchRequest) ([]diagnostic.Question, error) {
	s.calls++
	if len(s.fail) > 0 {
		err := s.fail[0]
		s.fail = s.fail[1:]
		return nil, err
	}
	out := make([]diagnostic.Question, req.Count)
	for i := range out {
		out[i] = diagnostic.Question{
			Text:            fmt.Sprintf("What is %d + 0?", i),
			ReferenceAnswer: fmt.Sprint(i),
			Construct:       "Number Sense",
			Difficulty:      1,
		}
	}
	return out, nil
}

type stubRoadmaps struct{}

func (stubRoadmaps) Generate(context.Context, diagnostic.RoadmapRequest) (*diagnostic.Roadmap, error) {
	rm := &diagnostic.Roadmap{OverallSeverity: "none", Summary: "On track."}
	for i := 1; i <= diagnostic.RoadmapLength; i++ {
		rm.Steps = append(rm.Steps, diagnostic.RoadmapStep{
			StepNumber:    i,
			Title:         fmt.Sprintf("Step %d", i),
			ExecutionPlan: "Practice daily.",
			Resources:     []string{"number line"},
		})
	}
	return rm, nil
}

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	auth   *Auth
	qs     *stubQuestions
	tokens map[string]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, store.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	qs := &stubQuestions{}
	reg := sessions.NewRegistry(sessions.NewMemory(), diagnostic.Deps{
		Questions: qs,
		Roadmaps:  stubRoadmaps{},
		Recorder:  st.Recorder(),
	}, sessions.Options{})

	auth := NewAuth(testSecret)
	s, err := New(Options{Registry: reg, Students: st.StudentRepo(), Auth: auth, Health: st})
	require.NoError(t, err)

	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return &harness{t: t, srv: srv, auth: auth, qs: qs, tokens: map[string]string{}}
}

func (h *harness) token(owner string) string {
	if tok, ok := h.tokens[owner]; ok {
		return tok
	}
	tok, err := h.auth.IssueToken(owner, time.Hour)
	require.NoError(h.t, err)
	h.tokens[owner] = tok
	return tok
}

func (h *harness) call(owner, method, path string, body any, out any) int {
	h.t.Helper()
	var rd bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&rd).Encode(body))
	}
	req, err := http.NewRequest(method, h.srv.URL+path, &rd)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set("Authorization", "Bearer "+h.token(owner))
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(h.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (h *harness) createSession(owner string) string {
	var created struct {
		ID    string `json:"id"`
		Stage string `json:"stage"`
	}
	require.Equal(h.t, http.StatusCreated, h.call(owner, "POST", "/v1/sessions", nil, &created))
	require.Equal(h.t, "collecting_age", created.Stage)
	return created.ID
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	var out map[string]string
	assert.Equal(t, http.StatusOK, h.call("", "GET", "/healthz", nil, &out))
	assert.Equal(t, "ok", out["status"])
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)
	var e errResp
	assert.Equal(t, http.StatusUnauthorized, h.call("", "POST", "/v1/sessions", nil, &e))
	assert.Equal(t, "unauthorized", e.Code)

	other := NewAuth("another-secret-0123456789")
	tok, err := other.IssueToken("owner-1", time.Hour)
	require.NoError(t, err)
	req, _ := http.NewRequest("GET", h.srv.URL+"/v1/students", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFullSession(t *testing.T) {
	h := newHarness(t)
	id := h.createSession("owner-1")

	var e errResp
	assert.Equal(t, http.StatusUnprocessableEntity, h.call("owner-1", "POST", "/v1/sessions/"+id+"/age", map[string]int{"age": 3}, &e))
	assert.Equal(t, "validation", e.Code)

	assert.Equal(t, http.StatusConflict, h.call("owner-1", "POST", "/v1/sessions/"+id+"/answers", map[string]string{"answer": "1"}, &e))
	assert.Equal(t, "invalid_state", e.Code)

	var view sessionView
	require.Equal(t, http.StatusOK, h.call("owner-1", "POST", "/v1/sessions/"+id+"/age", map[string]int{"age": 8}, &view))
	assert.Equal(t, diagnostic.StageEnrolling, view.Stage)

	require.Equal(t, http.StatusOK, h.call("owner-1", "POST", "/v1/sessions/"+id+"/enroll", map[string]string{"student_name": "Ada"}, &view))
	assert.Equal(t, diagnostic.StageMainTest, view.Stage)
	require.NotNil(t, view.Question)
	assert.Equal(t, "What is 0 + 0?", view.Question.Text)

	// Reference answers never leave the server for pending questions.
	var raw map[string]any
	require.Equal(t, http.StatusOK, h.call("owner-1", "GET", "/v1/sessions/"+id, nil, &raw))
	q := raw["question"].(map[string]any)
	assert.NotContains(t, q, "reference_answer")

	var ans answerResp
	for i := range diagnostic.MainTestLength {
		require.Equal(t, http.StatusOK, h.call("owner-1", "POST", "/v1/sessions/"+id+"/answers", map[string]string{"answer": fmt.Sprint(i)}, &ans))
		assert.True(t, ans.IsCorrect)
	}
	assert.True(t, ans.Advanced)
	assert.Equal(t, diagnostic.StageComplete, ans.Stage)
	assert.Equal(t, diagnostic.SeverityNone, ans.Session.Severity)
	require.NotNil(t, ans.Session.Roadmap)
	assert.Len(t, ans.Session.Roadmap.Steps, diagnostic.RoadmapLength)

	var students struct {
		Students []studentView `json:"students"`
	}
	require.Equal(t, http.StatusOK, h.call("owner-1", "GET", "/v1/students?include_tests=true", nil, &students))
	require.Len(t, students.Students, 1)
	assert.Equal(t, "Ada", students.Students[0].Name)
	require.Len(t, students.Students[0].Tests, 1)
	assert.Equal(t, id, students.Students[0].Tests[0].ID)

	var detail testDetailView
	require.Equal(t, http.StatusOK, h.call("owner-1", "GET", "/v1/tests/"+id, nil, &detail))
	assert.Equal(t, diagnostic.StageComplete, detail.Stage)
	assert.Len(t, detail.Responses, diagnostic.MainTestLength)
	assert.Empty(t, detail.Blockers)
	require.NotNil(t, detail.Roadmap)

	assert.Equal(t, http.StatusNotFound, h.call("owner-2", "GET", "/v1/tests/"+id, nil, &e))
	assert.Equal(t, http.StatusNotFound, h.call("owner-2", "GET", "/v1/sessions/"+id, nil, &e))

	require.Equal(t, http.StatusOK, h.call("owner-2", "GET", "/v1/students", nil, &students))
	assert.Empty(t, students.Students)
}

func TestUpstreamErrorsAreRetryable(t *testing.T) {
	h := newHarness(t)
	h.qs.fail = []error{
		&llm.ErrRateLimit{Err: errors.New("429")},
		&llm.ErrQuotaExceeded{Err: errors.New("402")},
	}
	id := h.createSession("owner-1")
	require.Equal(t, http.StatusOK, h.call("owner-1", "POST", "/v1/sessions/"+id+"/age", map[string]int{"age": 9}, nil))

	var e errResp
	assert.Equal(t, http.StatusTooManyRequests, h.call("owner-1", "POST", "/v1/sessions/"+id+"/enroll", map[string]string{"student_name": "Ada"}, &e))
	assert.Equal(t, "rate_limited", e.Code)
	assert.True(t, e.Retryable)

	assert.Equal(t, http.StatusPaymentRequired, h.call("owner-1", "POST", "/v1/sessions/"+id+"/enroll", map[string]string{"student_name": "Ada"}, &e))
	assert.Equal(t, "quota_exceeded", e.Code)

	var view sessionView
	require.Equal(t, http.StatusOK, h.call("owner-1", "POST", "/v1/sessions/"+id+"/enroll", map[string]string{"student_name": "Ada"}, &view))
	assert.Equal(t, diagnostic.StageMainTest, view.Stage)
	assert.Equal(t, 3, h.qs.calls)
}

func TestEnrollForeignStudent(t *testing.T) {
	h := newHarness(t)
	id := h.createSession("owner-1")
	require.Equal(t, http.StatusOK, h.call("owner-1", "POST", "/v1/sessions/"+id+"/age", map[string]int{"age": 8}, nil))
	require.Equal(t, http.StatusOK, h.call("owner-1", "POST", "/v1/sessions/"+id+"/enroll", map[string]string{"student_name": "Ada"}, nil))

	var students struct {
		Students []studentView `json:"students"`
	}
	require.Equal(t, http.StatusOK, h.call("owner-1", "GET", "/v1/students", nil, &students))
	require.Len(t, students.Students, 1)
	adaID := students.Students[0].ID

	other := h.createSession("owner-2")
	require.Equal(t, http.StatusOK, h.call("owner-2", "POST", "/v1/sessions/"+other+"/age", map[string]int{"age": 8}, nil))

	var e errResp
	assert.Equal(t, http.StatusNotFound, h.call("owner-2", "POST", "/v1/sessions/"+other+"/enroll",
		map[string]string{"student_name": "Ada", "student_id": adaID}, &e))
	assert.Equal(t, "not_found", e.Code)
	assert.False(t, e.Retryable)

	var view sessionView
	require.Equal(t, http.StatusOK, h.call("owner-2", "GET", "/v1/sessions/"+other, nil, &view))
	assert.Equal(t, diagnostic.StageEnrolling, view.Stage)
}

func TestBadRequests(t *testing.T) {
	h := newHarness(t)
	id := h.createSession("owner-1")

	var e errResp
	assert.Equal(t, http.StatusBadRequest, h.call("owner-1", "POST", "/v1/sessions/"+id+"/age", map[string]string{"years": "8"}, &e))
	assert.Equal(t, http.StatusUnprocessableEntity, h.call("owner-1", "POST", "/v1/sessions/"+id+"/age", map[string]any{}, &e))
	assert.Equal(t, http.StatusBadRequest, h.call("owner-1", "GET", "/v1/students?include_tests=maybe", nil, &e))
	assert.Equal(t, http.StatusNotFound, h.call("owner-1", "POST", "/v1/sessions/missing/age", map[string]int{"age": 8}, &e))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &diagnostic.Error{Kind: diagnostic.ErrValidation, Op: "x"}, http.StatusUnprocessableEntity},
		{"state", &diagnostic.Error{Kind: diagnostic.ErrInvalidState, Op: "x"}, http.StatusConflict},
		{"busy", fmt.Errorf("session s: %w", diagnostic.ErrBusy), http.StatusConflict},
		{"rate", &diagnostic.Error{Kind: diagnostic.ErrUpstreamRateLimited, Op: "x"}, http.StatusTooManyRequests},
		{"quota", &diagnostic.Error{Kind: diagnostic.ErrUpstreamUnavailable, Op: "x", Err: &llm.ErrQuotaExceeded{Err: errors.New("402")}}, http.StatusPaymentRequired},
		{"unavailable", &diagnostic.Error{Kind: diagnostic.ErrUpstreamUnavailable, Op: "x"}, http.StatusBadGateway},
		{"persistence", &diagnostic.Error{Kind: diagnostic.ErrPersistence, Op: "x"}, http.StatusServiceUnavailable},
		{"foreign student", &diagnostic.Error{Kind: diagnostic.ErrValidation, Op: "x", Err: fmt.Errorf("%w: %w", store.ErrNotFound, diagnostic.ErrUnknownStudent)}, http.StatusNotFound},
		{"session", sessions.ErrNotFound, http.StatusNotFound},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := statusFor(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	a := NewAuth(testSecret)
	tok, err := a.IssueToken("owner-1", time.Minute)
	require.NoError(t, err)

	c, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", c.Subject)

	a.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = a.Parse(tok)
	assert.Error(t, err)

	_, err = a.IssueToken(" ", time.Minute)
	assert.Error(t, err)
}
