package diagnostic

import (
	"fmt"
	"slices"
	"time"
)

// Snapshot is the serializable form of a session, including work fetched
// for a transition that has not committed yet.
type Snapshot struct {
	ID          string      `json:"id"`
	OwnerID     string      `json:"owner_id"`
	StudentID   string      `json:"student_id,omitempty"`
	StudentName string      `json:"student_name,omitempty"`
	Stage       Stage       `json:"stage"`
	Age         int         `json:"age,omitempty"`
	Questions   []Question  `json:"questions,omitempty"`
	Responses   []Response  `json:"responses,omitempty"`
	Blockers    []Blocker   `json:"blockers,omitempty"`
	Severity    Severity    `json:"severity,omitempty"`
	Roadmap     *Roadmap    `json:"roadmap,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Pending     pendingWork `json:"pending"`
}

// Snapshot captures the committed state of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ID:          s.id,
		OwnerID:     s.ownerID,
		StudentID:   s.studentID,
		StudentName: s.studentName,
		Stage:       s.stage,
		Age:         s.age,
		Questions:   slices.Clone(s.questions),
		Responses:   slices.Clone(s.responses),
		Blockers:    slices.Clone(s.blockers),
		Severity:    s.severity,
		Roadmap:     s.roadmap,
		CreatedAt:   s.createdAt,
		Pending:     s.pending,
	}
	if !s.completedAt.IsZero() {
		t := s.completedAt
		snap.CompletedAt = &t
	}
	return snap
}

// Restore rebuilds a session from a snapshot.
func Restore(snap Snapshot, deps Deps) (*Session, error) {
	if snap.ID == "" {
		return nil, fmt.Errorf("restore session: missing id")
	}
	if snap.Stage < StageCollectingAge || snap.Stage > StageComplete {
		return nil, fmt.Errorf("restore session %s: invalid stage %d", snap.ID, int(snap.Stage))
	}
	if len(snap.Responses) > len(snap.Questions) {
		return nil, fmt.Errorf("restore session %s: %d responses for %d questions",
			snap.ID, len(snap.Responses), len(snap.Questions))
	}

	s := &Session{
		deps:        deps,
		id:          snap.ID,
		ownerID:     snap.OwnerID,
		studentID:   snap.StudentID,
		studentName: snap.StudentName,
		stage:       snap.Stage,
		age:         snap.Age,
		questions:   slices.Clone(snap.Questions),
		responses:   slices.Clone(snap.Responses),
		blockers:    slices.Clone(snap.Blockers),
		severity:    snap.Severity,
		roadmap:     snap.Roadmap,
		createdAt:   snap.CreatedAt,
		pending:     snap.Pending,
	}
	if snap.CompletedAt != nil {
		s.completedAt = *snap.CompletedAt
	}
	return s, nil
}
