package api

import (
	"net/http"
	"strings"

	"github.com/James99309/stargirl-reader/pkg/models"
)

func (h *Handler) ListWords(w http.ResponseWriter, r *http.Request) {
	var words []models.VocabularyRecord
	switch r.URL.Query().Get("filter") {
	case "", "all":
		words = h.app.Vocabulary.All()
	case "mastered":
		words = h.app.Vocabulary.MasteredWords()
	case "learning":
		words = h.app.Vocabulary.LearningWords()
	case "saved":
		for _, key := range h.app.Vocabulary.SavedWords() {
			if rec, ok := h.app.Vocabulary.Get(key); ok {
				words = append(words, rec)
			}
		}
	default:
		writeJSON(w, http.StatusBadRequest, errorResp(CodeValidation, "filter must be all, mastered, learning or saved", r))
		return
	}
	if words == nil {
		words = []models.VocabularyRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"words": words, "count": len(words)})
}

func (h *Handler) AddWord(w http.ResponseWriter, r *http.Request) {
	var rec models.VocabularyRecord
	if err := decode(r, &rec); err != nil || strings.TrimSpace(rec.Word) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp(CodeValidation, "word is required", r))
		return
	}
	stored, created := h.app.AddWord(rec)
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, stored)
}

type wordRequest struct {
	Word      string `json:"word"`
	Sentence  string `json:"sentence"`
	ChapterID int    `json:"chapter_id"`
	Save      bool   `json:"save"`
}

func (req wordRequest) context() *models.WordContext {
	if strings.TrimSpace(req.Sentence) == "" {
		return nil
	}
	return &models.WordContext{Sentence: req.Sentence, ChapterID: req.ChapterID}
}

func (h *Handler) LookupWord(w http.ResponseWriter, r *http.Request) {
	var req wordRequest
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Word) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp(CodeValidation, "word is required", r))
		return
	}
	res, err := h.app.LookupWord(r.Context(), req.Word, req.context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res.Record)
}

func (h *Handler) LearnWord(w http.ResponseWriter, r *http.Request) {
	var req wordRequest
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Word) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp(CodeValidation, "word is required", r))
		return
	}
	rec, err := h.app.LearnWord(r.Context(), req.Word, req.context(), req.Save)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) GetWord(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.app.Vocabulary.Get(wordParam(r))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp(CodeWordNotFound, "Word not found", r))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) DeleteWord(w http.ResponseWriter, r *http.Request) {
	if !h.app.Vocabulary.DeleteWord(wordParam(r)) {
		writeJSON(w, http.StatusNotFound, errorResp(CodeWordNotFound, "Word not found", r))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SaveWord(w http.ResponseWriter, r *http.Request) {
	h.setSaved(w, r, true)
}

func (h *Handler) UnsaveWord(w http.ResponseWriter, r *http.Request) {
	h.setSaved(w, r, false)
}

func (h *Handler) setSaved(w http.ResponseWriter, r *http.Request, saved bool) {
	word := wordParam(r)
	if _, ok := h.app.Vocabulary.Get(word); !ok {
		writeJSON(w, http.StatusNotFound, errorResp(CodeWordNotFound, "Word not found", r))
		return
	}
	if saved {
		h.app.Vocabulary.SaveWord(word)
	} else {
		h.app.Vocabulary.UnsaveWord(word)
	}
	rec, _ := h.app.Vocabulary.Get(word)
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	word := wordParam(r)
	if _, ok := h.app.Vocabulary.Get(word); !ok {
		writeJSON(w, http.StatusNotFound, errorResp(CodeWordNotFound, "Word not found", r))
		return
	}
	h.app.Vocabulary.MarkWordViewed(word)
	w.WriteHeader(http.StatusNoContent)
}
