package diagnostic

// Stage lengths and the enrollment age floor.
const (
	MinAge             = 5
	MainTestLength     = 10
	ConfirmatoryLength = 5
)

// stageStart is the response index at which a testing stage begins.
func stageStart(stage Stage) int {
	if stage == StageConfirmatoryTest {
		return MainTestLength
	}
	return 0
}

// stageLength is the number of questions in a testing stage.
func stageLength(stage Stage) int {
	switch stage {
	case StageMainTest:
		return MainTestLength
	case StageConfirmatoryTest:
		return ConfirmatoryLength
	}
	return 0
}

// isStageComplete reports whether answered responses close the stage.
func isStageComplete(stage Stage, answered int) bool {
	if !stage.Testing() {
		return false
	}
	return answered == stageStart(stage)+stageLength(stage)
}

// Progress describes how far a student is through the current stage. The
// main and confirmatory stages are reported independently.
type Progress struct {
	Stage    Stage `json:"stage"`
	Answered int   `json:"answered"`
	Total    int   `json:"total"`
	Percent  int   `json:"percent"`
}

func progressFor(stage Stage, responses int) Progress {
	p := Progress{Stage: stage}
	switch {
	case stage.Testing():
		p.Total = stageLength(stage)
		p.Answered = responses - stageStart(stage)
		p.Percent = p.Answered * 100 / p.Total
	case stage == StageComplete:
		p.Answered, p.Total, p.Percent = responses, responses, 100
	}
	return p
}
