package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/James99309/stargirl-reader/internal/review"
)

type reviewResponse struct {
	ID       string           `json:"id"`
	Summary  review.Summary   `json:"summary"`
	Question *review.Question `json:"question,omitempty"`
}

func sessionResponse(sess *review.Session) reviewResponse {
	resp := reviewResponse{ID: sess.ID, Summary: sess.Summary()}
	if q, err := sess.Current(); err == nil {
		resp.Question = q
	}
	return resp
}

func (h *Handler) DueWords(w http.ResponseWriter, r *http.Request) {
	due := h.app.Review.WordsForReview()
	writeJSON(w, http.StatusOK, map[string]interface{}{"words": due, "count": len(due)})
}

func (h *Handler) StartReview(w http.ResponseWriter, r *http.Request) {
	sess, err := h.app.StartReview()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	switch sess.State() {
	case review.StateNoWordsDue:
		writeJSON(w, http.StatusConflict, errorResp(CodeNoWordsDue, "No words are due for review", r))
		return
	case review.StateFailed:
		h.writeError(w, r, review.ErrQuestionFailed)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse(sess))
}

func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request) {
	sess, err := h.app.ReviewSession(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(sess))
}

func (h *Handler) AnswerReview(w http.ResponseWriter, r *http.Request) {
	var req review.Answer
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp(CodeValidation, "Invalid request body", r))
		return
	}
	res, err := h.app.AnswerReview(chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) EndReview(w http.ResponseWriter, r *http.Request) {
	sum, err := h.app.EndReview(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
