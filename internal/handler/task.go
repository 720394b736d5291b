package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/skill-tracker/internal/service"
)

// TaskHandler serves task creation, listing and completion.
type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// HandleCreate: POST /api/skills/{id}/tasks
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.TaskInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	task, err := h.tasks.Create(r.Context(), userID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// HandleListBySkill: GET /api/skills/{id}/tasks
func (h *TaskHandler) HandleListBySkill(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListBySkill(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// HandleComplete marks a task done and reports the XP, level and streak
// outcome. Completing an already completed task is not an error: the
// response is 200 with alreadyCompleted set.
//
// HTTP: PUT /api/tasks/{id}/complete
func (h *TaskHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	res, err := h.tasks.Complete(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if res.AlreadyCompleted {
		writeJSON(w, http.StatusOK, map[string]any{
			"taskId":           res.TaskID,
			"alreadyCompleted": true,
			"message":          "Task already completed",
		})
		return
	}
	writeJSON(w, http.StatusOK, res)
}
