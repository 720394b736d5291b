package gamification

import (
	"time"

	"github.com/sakif/skill-tracker/internal/clock"
	"github.com/sakif/skill-tracker/internal/model"
)

const (
	DefaultHeatmapDays = 365
	MaxHeatmapDays     = 5 * 366
	MaxIntensity       = 4
)

// HeatmapDay is one cell of the activity heatmap.
type HeatmapDay struct {
	Date           string `json:"date"`
	TasksCompleted int    `json:"tasksCompleted"`
	MinutesSpent   int    `json:"minutesSpent"`
	XPEarned       int    `json:"xpEarned"`
	Intensity      int    `json:"intensity"` // 0..4
}

// HeatmapRange returns the inclusive [start, end] date range covered by a
// window of windowDays ending today.
func HeatmapRange(today time.Time, windowDays int) (start, end time.Time) {
	end = clock.DateOf(today)
	return clock.AddDays(end, -windowDays), end
}

// Heatmap builds the dense, gap-filled day sequence for the window ending
// today. It always returns exactly windowDays+1 records in ascending date
// order; days without a ledger row are all zeros with intensity 0. Rows
// outside the window are ignored.
func Heatmap(rows []model.DailyActivity, today time.Time, windowDays int) []HeatmapDay {
	if windowDays < 0 {
		windowDays = 0
	}
	start, _ := HeatmapRange(today, windowDays)

	byDate := make(map[string]model.DailyActivity, len(rows))
	for _, r := range rows {
		byDate[clock.FormatDate(clock.DateOf(r.Date))] = r
	}

	days := make([]HeatmapDay, 0, windowDays+1)
	for i := 0; i <= windowDays; i++ {
		key := clock.FormatDate(clock.AddDays(start, i))
		day := HeatmapDay{Date: key}
		if r, ok := byDate[key]; ok {
			day.TasksCompleted = r.TasksCompleted
			day.MinutesSpent = r.MinutesSpent
			day.XPEarned = r.XPEarned
		}
		day.Intensity = Intensity(day.TasksCompleted)
		days = append(days, day)
	}
	return days
}

// Intensity buckets a day's completed-task count into 0..4.
func Intensity(tasksCompleted int) int {
	if tasksCompleted <= 0 {
		return 0
	}
	return min(MaxIntensity, tasksCompleted)
}
