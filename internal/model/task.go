package model

import "time"

// Task is a unit of work under a skill.
//
// IsCompleted only ever moves false → true; CompletedAt is set exactly once,
// at that transition. XPReward is fixed at creation.
type Task struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	SkillID          string     `json:"skillId"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	IsCompleted      bool       `json:"isCompleted"`
	XPReward         int        `json:"xpReward"`
	EstimatedMinutes int        `json:"estimatedMinutes"`
	CreatedAt        time.Time  `json:"createdAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
}
