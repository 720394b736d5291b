package gamification

import "github.com/sakif/skill-tracker/internal/model"

// UserStats is the progress-bar view of a user's gamification state.
type UserStats struct {
	XPPoints             int     `json:"xpPoints"`
	Level                int     `json:"level"`
	CurrentStreak        int     `json:"currentStreak"`
	LongestStreak        int     `json:"longestStreak"`
	XPProgressInLevel    int     `json:"xpProgressInLevel"`
	XPNeededForNext      int     `json:"xpNeededForNext"`
	LevelProgressPercent float64 `json:"levelProgressPercent"`
}

// StatsFor derives level progress from a user snapshot.
func StatsFor(user model.User) UserStats {
	level := max(1, user.Level)
	floor := LevelFloor(level)
	next := NextLevelThreshold(level)

	progress := max(0, user.XPPoints-floor)
	needed := next - floor

	pct := 100.0
	if needed > 0 {
		pct = min(100, round(float64(progress)/float64(needed)*100, 1))
	}

	return UserStats{
		XPPoints:             user.XPPoints,
		Level:                level,
		CurrentStreak:        user.CurrentStreak,
		LongestStreak:        user.LongestStreak,
		XPProgressInLevel:    progress,
		XPNeededForNext:      needed,
		LevelProgressPercent: pct,
	}
}

// Overview summarises all of a user's skills and tasks.
type Overview struct {
	TotalSkills            int     `json:"totalSkills"`
	TotalTasks             int     `json:"totalTasks"`
	CompletedTasks         int     `json:"completedTasks"`
	PendingTasks           int     `json:"pendingTasks"`
	OverallProgressPercent float64 `json:"overallProgressPercent"`
}

// OverviewOf totals the per-skill triples.
func OverviewOf(stats []model.SkillStats) Overview {
	var o Overview
	o.TotalSkills = len(stats)
	for _, s := range stats {
		o.TotalTasks += s.TotalTasks
		o.CompletedTasks += s.CompletedTasks
	}
	o.PendingTasks = o.TotalTasks - o.CompletedTasks
	if o.TotalTasks > 0 {
		o.OverallProgressPercent = round(float64(o.CompletedTasks)/float64(o.TotalTasks)*100, 2)
	}
	return o
}

// SkillProgress is a skill's completion percentage.
type SkillProgress struct {
	SkillID         string  `json:"skillId"`
	Name            string  `json:"skillName"`
	ProgressPercent float64 `json:"progressPercent"`
}

func SkillsProgress(stats []model.SkillStats) []SkillProgress {
	out := make([]SkillProgress, 0, len(stats))
	for _, s := range stats {
		out = append(out, SkillProgress{
			SkillID:         s.SkillID,
			Name:            s.Name,
			ProgressPercent: percent(CompletionRatio(s), 2),
		})
	}
	return out
}

// SkillsSummary counts fully completed skills against everything else.
// A skill with no tasks counts as in progress.
type SkillsSummary struct {
	CompletedSkills  int `json:"completedSkills"`
	InProgressSkills int `json:"inProgressSkills"`
}

func SummarizeSkills(stats []model.SkillStats) SkillsSummary {
	var sum SkillsSummary
	for _, s := range stats {
		if s.TotalTasks > 0 && s.CompletedTasks == s.TotalTasks {
			sum.CompletedSkills++
		} else {
			sum.InProgressSkills++
		}
	}
	return sum
}

// Productivity is an integer completion score with a coarse label.
type Productivity struct {
	Score int    `json:"score"`
	Tier  string `json:"level"`
}

func ProductivityOf(totalTasks, completedTasks int) Productivity {
	score := 0
	if totalTasks > 0 {
		score = completedTasks * 100 / totalTasks
	}

	tier := "needs focus"
	switch {
	case score >= 80:
		tier = "excellent"
	case score >= 50:
		tier = "average"
	}
	return Productivity{Score: score, Tier: tier}
}

// Badge is earned once a user has completed Threshold tasks.
type Badge struct {
	Name      string `json:"name"`
	Threshold int    `json:"threshold"`
}

var badges = []Badge{
	{Name: "Beginner Achiever", Threshold: 10},
	{Name: "Consistency Master", Threshold: 30},
	{Name: "Productivity Beast", Threshold: 60},
}

// BadgesFor lists the badges unlocked by completedTasks, lowest first.
func BadgesFor(completedTasks int) []Badge {
	out := make([]Badge, 0, len(badges))
	for _, b := range badges {
		if completedTasks >= b.Threshold {
			out = append(out, b)
		}
	}
	return out
}
