package diagnostic

import (
	"errors"
	"fmt"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/llm"
)

// Error kinds. Match with errors.Is.
var (
	// ErrValidation: invalid age, empty name, blank answer. The stage does
	// not advance and the caller re-prompts.
	ErrValidation = errors.New("validation error")

	// ErrInvalidState: the operation is not allowed in the current stage.
	ErrInvalidState = errors.New("invalid state")

	// ErrUpstreamRateLimited: a generator throttled the request. State is
	// unchanged and the identical call can be retried later.
	ErrUpstreamRateLimited = errors.New("upstream rate limited")

	// ErrUpstreamUnavailable: a generator failed or returned an unusable
	// payload. State is unchanged.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrPersistence: the store rejected a write. The stage does not advance.
	ErrPersistence = errors.New("persistence error")

	// ErrBusy: another mutating operation is in flight on the same session.
	ErrBusy = errors.New("session busy")
)

// ErrUnknownStudent is wrapped by Recorder.StartTest when the enrollment
// names a student the owner does not have. Enroll reports it as a
// validation error.
var ErrUnknownStudent = errors.New("unknown student")

var errNoResponses = errors.New("no responses to score")

// Error carries an error kind, the operation that failed and the cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func newError(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause, so errors.As still reaches
// transport errors such as *llm.ErrQuotaExceeded.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// upstreamError classifies a generator failure. Throttling is kept distinct
// from every other failure, cancellation included.
func upstreamError(op string, err error) *Error {
	var rl *llm.ErrRateLimit
	if errors.As(err, &rl) {
		return newError(ErrUpstreamRateLimited, op, err)
	}
	return newError(ErrUpstreamUnavailable, op, err)
}

// IsRetryable reports whether the same call may succeed when repeated.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamRateLimited) ||
		errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, ErrPersistence) ||
		errors.Is(err, ErrBusy)
}
