package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/James99309/stargirl-reader/internal/economy"
)

func (h *Handler) writeProgress(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, viewOf(h.app.Economy.Snapshot()))
}

func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	h.writeProgress(w)
}

func (h *Handler) CheckHearts(w http.ResponseWriter, r *http.Request) {
	restored := h.app.Economy.CheckAndRestoreHearts()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"restored": restored,
		"progress": viewOf(h.app.Economy.Snapshot()),
	})
}

func (h *Handler) ExchangeHeart(w http.ResponseWriter, r *http.Request) {
	p := h.app.Economy.Snapshot()
	if p.Hearts >= p.MaxHearts {
		writeJSON(w, http.StatusConflict, errorResp(CodeHeartsFull, "Hearts are already full", r))
		return
	}
	if !h.app.Economy.ExchangeXPForHeart() {
		writeJSON(w, http.StatusConflict, errorResp(CodeInsufficientXP, "Not enough XP for a heart", r))
		return
	}
	h.writeProgress(w)
}

func (h *Handler) PurchaseMembership(w http.ResponseWriter, r *http.Request) {
	if !h.app.PurchaseSuperMember() {
		writeJSON(w, http.StatusConflict, errorResp(CodeInsufficientXP, "Not enough XP for super membership", r))
		return
	}
	h.writeProgress(w)
}

func (h *Handler) UpdateStreak(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"streak": h.app.Economy.UpdateStreak()})
}

type xpRequest struct {
	Amount int `json:"amount"`
}

func (h *Handler) AddXP(w http.ResponseWriter, r *http.Request) {
	var req xpRequest
	if err := decode(r, &req); err != nil || req.Amount <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResp(CodeValidation, "amount must be a positive integer", r))
		return
	}
	h.app.Economy.AddXP(req.Amount)
	h.writeProgress(w)
}

type quizRequest struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

func (h *Handler) RecordQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := decode(r, &req); err != nil || req.Total <= 0 || req.Correct < 0 || req.Correct > req.Total {
		writeJSON(w, http.StatusBadRequest, errorResp(CodeValidation, "correct must be between 0 and total", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"bonus": h.app.Economy.RecordQuizResult(req.Correct, req.Total)})
}

func (h *Handler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	h.app.Economy.CompleteOnboarding()
	h.writeProgress(w)
}

type achievementResponse struct {
	ID       string `json:"id"`
	Unlocked bool   `json:"unlocked"`
}

func (h *Handler) GetAchievement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, achievementResponse{ID: id, Unlocked: h.app.Economy.HasAchievement(id)})
}

// UnlockAchievement records a client-side achievement such as bookworm; unlocking twice is a no-op
func (h *Handler) UnlockAchievement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !economy.IsAchievement(id) {
		writeJSON(w, http.StatusBadRequest, errorResp(CodeValidation, "unknown achievement", r))
		return
	}
	h.app.Economy.UnlockAchievement(id)
	h.writeProgress(w)
}

type goalRequest struct {
	Minutes int `json:"minutes"`
}

func (h *Handler) SetDailyGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decode(r, &req); err != nil || !h.app.Economy.SetDailyGoal(req.Minutes) {
		writeJSON(w, http.StatusBadRequest, errorResp(CodeValidation, "minutes must be a positive integer", r))
		return
	}
	h.writeProgress(w)
}

type positionRequest struct {
	ChapterID int `json:"chapter_id"`
	SectionID int `json:"section_id"`
}

func (h *Handler) SetPosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decode(r, &req); err != nil || req.ChapterID <= 0 || req.SectionID < 0 {
		writeJSON(w, http.StatusBadRequest, errorResp(CodeValidation, "chapter_id and section_id are required", r))
		return
	}
	h.app.Economy.SetCurrentPosition(req.ChapterID, req.SectionID)
	h.writeProgress(w)
}

type completeChapterRequest struct {
	QuizCorrect int `json:"quiz_correct"`
	QuizTotal   int `json:"quiz_total"`
}

func (h *Handler) CompleteChapter(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResp(CodeValidation, "Invalid chapter id", r))
		return
	}
	var req completeChapterRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResp(CodeValidation, "Invalid request body", r))
		return
	}
	if req.QuizTotal < 0 || req.QuizCorrect < 0 || req.QuizCorrect > req.QuizTotal {
		writeJSON(w, http.StatusBadRequest, errorResp(CodeValidation, "quiz_correct must be between 0 and quiz_total", r))
		return
	}
	writeJSON(w, http.StatusOK, h.app.CompleteChapter(id, req.QuizCorrect, req.QuizTotal))
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decode(r, &req); err != nil || req.ChapterID <= 0 || req.SectionID < 0 {
		writeJSON(w, http.StatusBadRequest, errorResp(CodeValidation, "chapter_id and section_id are required", r))
		return
	}
	h.app.Economy.StartSession(req.ChapterID, req.SectionID)
	writeJSON(w, http.StatusCreated, h.app.Economy.Snapshot().Session)
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	ended, ok := h.app.Economy.EndSession()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp(CodeNoSession, "No reading session is open", r))
		return
	}
	writeJSON(w, http.StatusOK, ended)
}

func (h *Handler) ClaimReadingReward(w http.ResponseWriter, r *http.Request) {
	if h.app.Economy.Snapshot().Session == nil {
		writeJSON(w, http.StatusNotFound, errorResp(CodeNoSession, "No reading session is open", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"xp": h.app.Economy.ClaimReadingReward()})
}
