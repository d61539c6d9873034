package diagnostic

import (
	"fmt"
	"strings"
)

// Stage is a phase of a diagnostic test session.
type Stage int

const (
	StageCollectingAge Stage = iota
	StageEnrolling
	StageMainTest
	StageConfirmatoryTest
	StageComplete
)

var stageNames = [...]string{
	StageCollectingAge:    "collecting_age",
	StageEnrolling:        "enrolling",
	StageMainTest:         "main_test",
	StageConfirmatoryTest: "confirmatory_test",
	StageComplete:         "complete",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// ParseStage converts the persisted form of a stage back to a Stage.
func ParseStage(s string) (Stage, error) {
	for i, name := range stageNames {
		if name == s {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", s)
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(b []byte) error {
	v, err := ParseStage(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Testing reports whether the stage accepts answers.
func (s Stage) Testing() bool {
	return s == StageMainTest || s == StageConfirmatoryTest
}

// Severity is the coarse overall-difficulty label of a completed test.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// ParseSeverity validates a severity label.
func ParseSeverity(s string) (Severity, error) {
	switch v := Severity(strings.ToLower(strings.TrimSpace(s))); v {
	case SeverityNone, SeverityMild, SeverityModerate, SeveritySevere:
		return v, nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// Question is one externally generated diagnostic item.
type Question struct {
	Text            string `json:"text"`
	ReferenceAnswer string `json:"reference_answer"`
	Construct       string `json:"construct"`
	Difficulty      int    `json:"difficulty"` // 1..5
}

// Response records one answered question. Index numbering is continuous
// across the main and confirmatory stages.
type Response struct {
	QuestionIndex   int    `json:"question_index"`
	QuestionText    string `json:"question_text"`
	StudentAnswer   string `json:"student_answer"`
	ReferenceAnswer string `json:"reference_answer"`
	IsCorrect       bool   `json:"is_correct"`
	Construct       string `json:"construct"`
	Difficulty      int    `json:"difficulty"`
}

// Blocker is a construct promoted after repeated errors in the main test.
type Blocker struct {
	Construct  string `json:"construct"`
	ErrorCount int    `json:"error_count"`
	Confirmed  bool   `json:"confirmed"`
}

// RoadmapLength is the exact number of steps in a remediation roadmap.
const RoadmapLength = 5

// Roadmap is the structured remediation plan attached at completion.
// OverallSeverity is the generator's own description and is never used in
// place of the scored severity.
type Roadmap struct {
	OverallSeverity string        `json:"overall_severity"`
	Summary         string        `json:"summary"`
	Steps           []RoadmapStep `json:"steps"`
}

// RoadmapStep is one ordered remediation step.
type RoadmapStep struct {
	StepNumber    int      `json:"step_number"`
	Title         string   `json:"title"`
	ExecutionPlan string   `json:"execution_plan"`
	Resources     []string `json:"resources"`
}

// Validate checks the roadmap has exactly RoadmapLength steps numbered in order.
func (r *Roadmap) Validate() error {
	if r == nil {
		return fmt.Errorf("roadmap is nil")
	}
	if len(r.Steps) != RoadmapLength {
		return fmt.Errorf("roadmap has %d steps, want %d", len(r.Steps), RoadmapLength)
	}
	for i, st := range r.Steps {
		if st.StepNumber != i+1 {
			return fmt.Errorf("step %d is numbered %d", i+1, st.StepNumber)
		}
		if strings.TrimSpace(st.Title) == "" {
			return fmt.Errorf("step %d has an empty title", st.StepNumber)
		}
		if strings.TrimSpace(st.ExecutionPlan) == "" {
			return fmt.Errorf("step %d has an empty execution plan", st.StepNumber)
		}
	}
	return nil
}
