package gamification

import (
	"fmt"
	"time"

	"github.com/sakif/skill-tracker/internal/clock"
	"github.com/sakif/skill-tracker/internal/model"
)

// CompletionDelta is the ledger increment for one completed task.
func CompletionDelta(task model.Task) model.ActivityDelta {
	return model.ActivityDelta{
		TasksCompleted: 1,
		MinutesSpent:   task.EstimatedMinutes,
		XPEarned:       task.XPReward,
	}
}

// ValidateDelta rejects negative increments; ledger counters only grow.
func ValidateDelta(delta model.ActivityDelta) error {
	if delta.TasksCompleted < 0 || delta.MinutesSpent < 0 || delta.XPEarned < 0 {
		return fmt.Errorf("gamification: negative activity delta %+v", delta)
	}
	return nil
}

// ApplyActivity accumulates delta into the row for (userID, date).
//
// existing is the stored row for that day, or nil when this is the first
// activity of the day, in which case a new row initialised to delta is
// returned. Rows for other dates are never touched.
func ApplyActivity(existing *model.DailyActivity, userID string, date time.Time, delta model.ActivityDelta) model.DailyActivity {
	row := model.DailyActivity{
		UserID: userID,
		Date:   clock.DateOf(date),
	}
	if existing != nil {
		row = *existing
	}

	row.TasksCompleted += delta.TasksCompleted
	row.MinutesSpent += delta.MinutesSpent
	row.XPEarned += delta.XPEarned
	return row
}
