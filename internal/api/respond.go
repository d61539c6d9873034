package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/llm"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/sessions"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/store"
)

type errResp struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errResp{Error: msg, Code: code})
}

// statusFor maps an error to its HTTP status and a stable error code.
// Quota exhaustion is checked before the generic upstream kinds because it
// is carried inside ErrUpstreamUnavailable.
func statusFor(err error) (int, string) {
	var quota *llm.ErrQuotaExceeded
	switch {
	case errors.Is(err, sessions.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, diagnostic.ErrValidation):
		return http.StatusUnprocessableEntity, "validation"
	case errors.Is(err, diagnostic.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, diagnostic.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, diagnostic.ErrUpstreamRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.As(err, &quota):
		return http.StatusPaymentRequired, "quota_exceeded"
	case errors.Is(err, diagnostic.ErrUpstreamUnavailable):
		return http.StatusBadGateway, "upstream_unavailable"
	case errors.Is(err, diagnostic.ErrPersistence):
		return http.StatusServiceUnavailable, "persistence"
	}
	return http.StatusInternalServerError, "internal"
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errResp{
		Error:     err.Error(),
		Code:      code,
		Retryable: diagnostic.IsRetryable(err),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
