package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/skill-tracker/internal/service"
)

// ProgressHandler records and lists study sessions.
type ProgressHandler struct {
	progress *service.ProgressService
	logger   *slog.Logger
}

func NewProgressHandler(progress *service.ProgressService, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{progress: progress, logger: logger}
}

type sessionRequest struct {
	Minutes int    `json:"minutes"`
	SkillID string `json:"skillId"`
	Notes   string `json:"notes"`
}

// HandleLogSession adds study minutes to today's activity and the streak.
//
// HTTP: POST /api/progress/sessions {minutes, skillId?, notes?} → 201
func (h *ProgressHandler) HandleLogSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.progress.LogStudySession(r.Context(), userID(r), req.Minutes, req.SkillID, req.Notes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HandleListSessions: GET /api/progress/sessions?limit=N
func (h *ProgressHandler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", service.DefaultSessionsLimit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	sessions, err := h.progress.Sessions(r.Context(), userID(r), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}
