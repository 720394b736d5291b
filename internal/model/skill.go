package model

import "time"

// Skill categories accepted on create/update.
var SkillCategories = []string{
	"programming", "languages", "fitness", "music",
	"design", "business", "science", "personal", "other",
}

// Skill is something a user is learning. TotalHoursSpent is maintained by
// the CRUD layer and is read-only to the gamification engine.
//
// GoalDate is an optional deadline stored as a calendar date.
type Skill struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	Priority        int        `json:"priority"` // 1=low, 2=medium, 3=high
	TargetHours     float64    `json:"targetHours"`
	TotalHoursSpent float64    `json:"totalHoursSpent"`
	GoalDate        *time.Time `json:"goalDate,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// SkillStats is the (skill, total, completed) triple every scoring function
// reads. The repository computes it with one aggregate query per request.
type SkillStats struct {
	SkillID        string     `json:"skillId"`
	Name           string     `json:"name"`
	Category       string     `json:"category"`
	GoalDate       *time.Time `json:"goalDate,omitempty"`
	TotalTasks     int        `json:"totalTasks"`
	CompletedTasks int        `json:"completedTasks"`
}
