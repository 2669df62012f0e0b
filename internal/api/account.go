package api

import (
	"net/http"
	"strconv"
	"strings"
)

type loginRequest struct {
	Username string `json:"username"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Username) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp(CodeValidation, "username is required", r))
		return
	}
	p, err := h.app.Login(r.Context(), req.Username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(p))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.app.Logout()
	w.WriteHeader(http.StatusNoContent)
}

type redeemRequest struct {
	Code string `json:"code"`
}

func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Code) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp(CodeValidation, "code is required", r))
		return
	}
	xp, err := h.app.RedeemCode(r.Context(), req.Code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"xp": xp})
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.app.Leaderboard(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

type locationRequest struct {
	Location string `json:"location"`
}

func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Location) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp(CodeValidation, "location is required", r))
		return
	}
	if err := h.app.UpdateLocation(req.Location); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type speechRequest struct {
	Text string `json:"text"`
}

func (h *Handler) Speak(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp(CodeValidation, "Invalid request body", r))
		return
	}
	audio, err := h.app.Speak(r.Context(), req.Text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", audio.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(audio.Data)))
	w.Header().Set("X-Speech-Source", audio.Source)
	w.WriteHeader(http.StatusOK)
	w.Write(audio.Data)
}

func (h *Handler) StopSpeaking(w http.ResponseWriter, r *http.Request) {
	h.app.StopSpeaking()
	w.WriteHeader(http.StatusNoContent)
}
