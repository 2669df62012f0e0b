package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/internal/app"
	"github.com/James99309/stargirl-reader/internal/leaderboard"
	"github.com/James99309/stargirl-reader/internal/lookup"
	"github.com/James99309/stargirl-reader/internal/review"
	"github.com/James99309/stargirl-reader/internal/speech"
)

// Error codes
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeWordNotFound    = "WORD_NOT_FOUND"
	CodeOutOfHearts     = "OUT_OF_HEARTS"
	CodeInsufficientXP  = "INSUFFICIENT_XP"
	CodeHeartsFull      = "HEARTS_FULL"
	CodeSessionFinished = "SESSION_FINISHED"
	CodeNoWordsDue      = "NO_WORDS_DUE"
	CodeNoSession       = "NO_READING_SESSION"
	CodeSuperseded      = "SUPERSEDED"
	CodeUnavailable     = "UNAVAILABLE"
	CodeRejected        = "REJECTED"
	CodeInternal        = "INTERNAL_ERROR"
)

// APIError is the error body
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse wraps APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) ErrorResponse {
	return ErrorResponse{
		Error: APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func decode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// writeError maps domain errors to status codes
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, CodeInternal
	switch {
	case errors.Is(err, lookup.ErrStale), errors.Is(err, speech.ErrCanceled):
		status, code = http.StatusConflict, CodeSuperseded
	case errors.Is(err, lookup.ErrNotFound):
		status, code = http.StatusNotFound, CodeWordNotFound
	case errors.Is(err, app.ErrSessionNotFound):
		status, code = http.StatusNotFound, CodeNotFound
	case errors.Is(err, app.ErrLoginRequired):
		status, code = http.StatusConflict, CodeRejected
	case errors.Is(err, app.ErrUnavailable), errors.Is(err, leaderboard.ErrNotConfigured):
		status, code = http.StatusServiceUnavailable, CodeUnavailable
	case errors.Is(err, review.ErrOutOfHearts):
		status, code = http.StatusConflict, CodeOutOfHearts
	case errors.Is(err, review.ErrSessionFinished), errors.Is(err, review.ErrQuestionFailed):
		status, code = http.StatusConflict, CodeSessionFinished
	case errors.Is(err, review.ErrNoWordsDue):
		status, code = http.StatusConflict, CodeNoWordsDue
	case errors.Is(err, speech.ErrEmptyText):
		status, code = http.StatusBadRequest, CodeValidation
	case errors.Is(err, leaderboard.ErrUnavailable):
		status, code = http.StatusBadGateway, CodeUnavailable
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, status, errorResp(code, "Internal error", r))
		return
	}
	writeJSON(w, status, errorResp(code, err.Error(), r))
}
