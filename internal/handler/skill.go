package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/skill-tracker/internal/model"
	"github.com/sakif/skill-tracker/internal/service"
)

// SkillHandler serves skill CRUD under /api/skills.
type SkillHandler struct {
	skills *service.SkillService
	logger *slog.Logger
}

func NewSkillHandler(skills *service.SkillService, logger *slog.Logger) *SkillHandler {
	return &SkillHandler{skills: skills, logger: logger}
}

// HandleList: GET /api/skills
func (h *SkillHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	skills, err := h.skills.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if skills == nil {
		skills = []model.Skill{}
	}
	writeJSON(w, http.StatusOK, skills)
}

// HandleCreate: POST /api/skills
func (h *SkillHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.SkillInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	skill, err := h.skills.Create(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, skill)
}

// HandleGet: GET /api/skills/{id}
func (h *SkillHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	skill, err := h.skills.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, skill)
}

// HandleUpdate: PUT /api/skills/{id}
func (h *SkillHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in service.SkillInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	skill, err := h.skills.Update(r.Context(), userID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, skill)
}

// HandleDelete: DELETE /api/skills/{id} → 204
func (h *SkillHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.skills.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
