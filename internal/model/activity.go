package model

import "time"

// DailyActivity is the per-user, per-calendar-day accumulator behind the
// heatmap. There is at most one row per (UserID, Date); the counters only
// ever grow.
type DailyActivity struct {
	UserID         string    `json:"userId"`
	Date           time.Time `json:"date"`
	TasksCompleted int       `json:"tasksCompleted"`
	MinutesSpent   int       `json:"minutesSpent"`
	XPEarned       int       `json:"xpEarned"`
}

// ActivityDelta is what one event adds to a DailyActivity row.
type ActivityDelta struct {
	TasksCompleted int
	MinutesSpent   int
	XPEarned       int
}

// LearningSession is one logged block of study time. SkillID is empty when
// the session was not tied to a skill or the skill has since been deleted.
type LearningSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	SkillID   string    `json:"skillId,omitempty"`
	Date      time.Time `json:"date"`
	Minutes   int       `json:"minutes"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
