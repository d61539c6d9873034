package assessment

import (
	"time"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
)

// opDoneMsg is sent when a session operation returns.
type opDoneMsg struct {
	Kind   opKind
	Result diagnostic.AnswerResult
	Err    error
}

// spinnerTickMsg animates the loading indicator.
type spinnerTickMsg time.Time

type opKind int

const (
	opAge opKind = iota
	opEnroll
	opAnswer
)
