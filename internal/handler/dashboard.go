package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/skill-tracker/internal/service"
)

// DashboardHandler serves the read-only progress views under
// /api/dashboard and the AI learning plan.
type DashboardHandler struct {
	dashboard *service.DashboardService
	advice    *service.AdviceService
	logger    *slog.Logger
}

func NewDashboardHandler(dashboard *service.DashboardService, advice *service.AdviceService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, advice: advice, logger: logger}
}

// serve wraps the common shape of every dashboard read: call the service
// with the caller's ID, write 200 or the mapped error.
func serve[T any](h *DashboardHandler, fn func(ctx context.Context, userID string) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := fn(r.Context(), userID(r))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /api/dashboard/overview
func (h *DashboardHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	serve(h, h.dashboard.Overview)(w, r)
}

// GET /api/dashboard/user-stats
func (h *DashboardHandler) HandleUserStats(w http.ResponseWriter, r *http.Request) {
	serve(h, h.dashboard.UserStats)(w, r)
}

// HandleHeatmap returns days+1 daily cells ending today. days defaults to
// the configured window.
//
// HTTP: GET /api/dashboard/heatmap?days=N
func (h *DashboardHandler) HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", h.dashboard.DefaultHeatmapDays())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	cells, err := h.dashboard.Heatmap(r.Context(), userID(r), days)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"days":    days,
		"heatmap": cells,
	})
}

// GET /api/dashboard/analysis
func (h *DashboardHandler) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	serve(h, h.dashboard.SkillAnalysis)(w, r)
}

// The four slices below return one field of the full analysis each.

// GET /api/dashboard/weak-areas
func (h *DashboardHandler) HandleWeakAreas(w http.ResponseWriter, r *http.Request) {
	h.analysisField(w, r, "weakAreas")
}

// GET /api/dashboard/priorities
func (h *DashboardHandler) HandlePriorities(w http.ResponseWriter, r *http.Request) {
	h.analysisField(w, r, "priorityRanking")
}

// GET /api/dashboard/deadline-alerts
func (h *DashboardHandler) HandleDeadlineAlerts(w http.ResponseWriter, r *http.Request) {
	h.analysisField(w, r, "deadlineAlerts")
}

// GET /api/dashboard/learning-plan
func (h *DashboardHandler) HandleLearningPlan(w http.ResponseWriter, r *http.Request) {
	h.analysisField(w, r, "adviceTiers")
}

func (h *DashboardHandler) analysisField(w http.ResponseWriter, r *http.Request, field string) {
	a, err := h.dashboard.SkillAnalysis(r.Context(), userID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var value any
	switch field {
	case "weakAreas":
		value = a.WeakAreas
	case "priorityRanking":
		value = a.PriorityRanking
	case "deadlineAlerts":
		value = a.DeadlineAlerts
	default:
		value = a.AdviceTiers
	}
	writeJSON(w, http.StatusOK, map[string]any{field: value})
}

// GET /api/dashboard/recommendations
func (h *DashboardHandler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	serve(h, h.dashboard.Recommendations)(w, r)
}

// GET /api/dashboard/skills-progress
func (h *DashboardHandler) HandleSkillsProgress(w http.ResponseWriter, r *http.Request) {
	serve(h, h.dashboard.SkillsProgress)(w, r)
}

// GET /api/dashboard/skills-summary
func (h *DashboardHandler) HandleSkillsSummary(w http.ResponseWriter, r *http.Request) {
	serve(h, h.dashboard.SkillsSummary)(w, r)
}

// GET /api/dashboard/recent-tasks
func (h *DashboardHandler) HandleRecentTasks(w http.ResponseWriter, r *http.Request) {
	serve(h, h.dashboard.RecentTasks)(w, r)
}

// HandleLeaderboard: GET /api/dashboard/leaderboard?limit=N
func (h *DashboardHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", service.DefaultLeaderboardLimit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	entries, err := h.dashboard.Leaderboard(r.Context(), userID(r), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GET /api/dashboard/productivity
func (h *DashboardHandler) HandleProductivity(w http.ResponseWriter, r *http.Request) {
	serve(h, h.dashboard.Productivity)(w, r)
}

// GET /api/dashboard/badges
func (h *DashboardHandler) HandleBadges(w http.ResponseWriter, r *http.Request) {
	serve(h, h.dashboard.Badges)(w, r)
}

// HandleAdvice returns the AI learning plan. A call inside the cooldown is
// answered with 200, rateLimited=true and retryAfterSeconds, plus a
// Retry-After header.
//
// HTTP: GET /api/dashboard/advice
func (h *DashboardHandler) HandleAdvice(w http.ResponseWriter, r *http.Request) {
	advice, err := h.advice.RequestAdvice(r.Context(), userID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if advice.RateLimited {
		w.Header().Set("Retry-After", strconv.Itoa(advice.RetryAfterSeconds))
	}
	writeJSON(w, http.StatusOK, advice)
}
