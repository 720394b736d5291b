package gamification

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/sakif/skill-tracker/internal/clock"
	"github.com/sakif/skill-tracker/internal/model"
)

// Thresholds used by the scoring suite.
const (
	WeakAreaRatio        = 0.5
	RecommendationRatio  = 0.4
	DeadlineWindowDays   = 7
	DeadlineProgressPct  = 50.0
	TierDiversifyFromPct = 30.0
	TierApplyFromPct     = 70.0
)

// AdviceTier classifies a skill's completion for the learning plan.
type AdviceTier string

const (
	TierFundamentals AdviceTier = "fundamentals"
	TierDiversify    AdviceTier = "diversify"
	TierApplyRevise  AdviceTier = "apply/revise"
)

var tierAdvice = map[AdviceTier]string{
	TierFundamentals: "Focus on fundamentals and daily practice",
	TierDiversify:    "Increase difficulty and diversify tasks",
	TierApplyRevise:  "Revise & apply knowledge in projects",
}

// Advice returns the human-readable advice for the tier.
func (t AdviceTier) Advice() string {
	return tierAdvice[t]
}

// CompletionRatio is completed/total, defined as 0 when there are no tasks.
func CompletionRatio(s model.SkillStats) float64 {
	if s.TotalTasks <= 0 {
		return 0
	}
	return float64(s.CompletedTasks) / float64(s.TotalTasks)
}

// PendingTasks is total - completed, never negative.
func PendingTasks(s model.SkillStats) int {
	return max(0, s.TotalTasks-s.CompletedTasks)
}

// WeakArea is a skill with tasks whose completion is below 50%.
type WeakArea struct {
	SkillID         string  `json:"skillId"`
	Name            string  `json:"skillName"`
	Category        string  `json:"category"`
	ProgressPercent float64 `json:"progressPercent"`
	PendingTasks    int     `json:"pendingTasks"`
	Recommendation  string  `json:"recommendation"`

	ratio float64
}

// WeakAreas flags skills with total > 0 and ratio < 0.5, weakest first.
// Skills without tasks never appear.
func WeakAreas(stats []model.SkillStats) []WeakArea {
	out := make([]WeakArea, 0)
	for _, s := range stats {
		if s.TotalTasks <= 0 {
			continue
		}
		ratio := CompletionRatio(s)
		if ratio >= WeakAreaRatio {
			continue
		}
		pending := PendingTasks(s)
		out = append(out, WeakArea{
			SkillID:         s.SkillID,
			Name:            s.Name,
			Category:        s.Category,
			ProgressPercent: percent(ratio, 1),
			PendingTasks:    pending,
			Recommendation:  fmt.Sprintf("Focus on completing %d remaining tasks in %s", pending, s.Name),
			ratio:           ratio,
		})
	}
	slices.SortStableFunc(out, func(a, b WeakArea) int {
		return cmp.Compare(a.ratio, b.ratio)
	})
	return out
}

// Recommendation messages.
const (
	AdviceAddTasks    = "Add tasks to start progress"
	AdviceLowProgress = "Low progress – focus more this week"
)

// Recommendation is a one-line nudge for a skill that needs attention.
type Recommendation struct {
	SkillID string `json:"skillId"`
	Name    string `json:"skill"`
	Advice  string `json:"advice"`
}

// Recommendations nudges skills with no tasks yet and skills whose
// completion is below 40%, in input order. Unlike WeakAreas, empty skills
// are included.
func Recommendations(stats []model.SkillStats) []Recommendation {
	out := make([]Recommendation, 0)
	for _, s := range stats {
		var advice string
		switch {
		case s.TotalTasks <= 0:
			advice = AdviceAddTasks
		case CompletionRatio(s) < RecommendationRatio:
			advice = AdviceLowProgress
		default:
			continue
		}
		out = append(out, Recommendation{SkillID: s.SkillID, Name: s.Name, Advice: advice})
	}
	return out
}

// Priority ranks a skill by how much attention it needs.
type Priority struct {
	SkillID         string  `json:"skillId"`
	Name            string  `json:"skillName"`
	PendingTasks    int     `json:"pendingTasks"`
	ProgressPercent float64 `json:"progressPercent"`
	Score           float64 `json:"priorityScore"`

	rawScore float64
}

// PriorityScore is pending * (1 - ratio): many pending tasks AND little
// relative progress outrank skills that are merely large.
func PriorityScore(s model.SkillStats) float64 {
	return float64(PendingTasks(s)) * (1 - CompletionRatio(s))
}

// PriorityRanking scores every skill, highest score first.
func PriorityRanking(stats []model.SkillStats) []Priority {
	out := make([]Priority, 0, len(stats))
	for _, s := range stats {
		score := PriorityScore(s)
		out = append(out, Priority{
			SkillID:         s.SkillID,
			Name:            s.Name,
			PendingTasks:    PendingTasks(s),
			ProgressPercent: percent(CompletionRatio(s), 2),
			Score:           round(score, 2),
			rawScore:        score,
		})
	}
	slices.SortStableFunc(out, func(a, b Priority) int {
		return cmp.Compare(b.rawScore, a.rawScore)
	})
	return out
}

// DeadlineAlert warns that a goal date is close (or past) with low progress.
type DeadlineAlert struct {
	SkillID         string  `json:"skillId"`
	Name            string  `json:"skillName"`
	GoalDate        string  `json:"goalDate"`
	DaysLeft        int     `json:"daysLeft"`
	ProgressPercent float64 `json:"progressPercent"`
	Message         string  `json:"alert"`
}

// DaysLeft is goalDate - today in whole calendar days; negative when overdue.
func DaysLeft(goalDate, today time.Time) int {
	return clock.DaysBetween(clock.DateOf(today), clock.DateOf(goalDate))
}

// DeadlineAlerts raises an alert for every skill with a goal date where
// days_left <= 7 and progress < 50%. Most urgent first.
func DeadlineAlerts(stats []model.SkillStats, today time.Time) []DeadlineAlert {
	out := make([]DeadlineAlert, 0)
	for _, s := range stats {
		if s.GoalDate == nil {
			continue
		}
		daysLeft := DaysLeft(*s.GoalDate, today)
		pct := CompletionRatio(s) * 100
		if daysLeft > DeadlineWindowDays || pct >= DeadlineProgressPct {
			continue
		}

		msg := "Deadline approaching with low progress!"
		if daysLeft < 0 {
			msg = "Deadline passed with low progress!"
		}
		out = append(out, DeadlineAlert{
			SkillID:         s.SkillID,
			Name:            s.Name,
			GoalDate:        clock.FormatDate(clock.DateOf(*s.GoalDate)),
			DaysLeft:        daysLeft,
			ProgressPercent: round(pct, 2),
			Message:         msg,
		})
	}
	slices.SortStableFunc(out, func(a, b DeadlineAlert) int {
		return cmp.Compare(a.DaysLeft, b.DaysLeft)
	})
	return out
}

// TierFor classifies a completion percentage (0..100).
func TierFor(progressPct float64) AdviceTier {
	switch {
	case progressPct < TierDiversifyFromPct:
		return TierFundamentals
	case progressPct < TierApplyFromPct:
		return TierDiversify
	default:
		return TierApplyRevise
	}
}

// LearningPlanItem is one skill's advice tier.
type LearningPlanItem struct {
	SkillID         string     `json:"skillId"`
	Name            string     `json:"skillName"`
	ProgressPercent float64    `json:"progressPercent"`
	Tier            AdviceTier `json:"tier"`
	Advice          string     `json:"learningAdvice"`
}

// AdviceTiers classifies every skill, in input order.
func AdviceTiers(stats []model.SkillStats) []LearningPlanItem {
	out := make([]LearningPlanItem, 0, len(stats))
	for _, s := range stats {
		pct := CompletionRatio(s) * 100
		tier := TierFor(pct)
		out = append(out, LearningPlanItem{
			SkillID:         s.SkillID,
			Name:            s.Name,
			ProgressPercent: round(pct, 2),
			Tier:            tier,
			Advice:          tier.Advice(),
		})
	}
	return out
}

// Analysis bundles the four read-side analyses.
type Analysis struct {
	WeakAreas       []WeakArea         `json:"weakAreas"`
	PriorityRanking []Priority         `json:"priorityRanking"`
	DeadlineAlerts  []DeadlineAlert    `json:"deadlineAlerts"`
	AdviceTiers     []LearningPlanItem `json:"adviceTiers"`
}

// Analyze fans one set of per-skill triples out to every analysis.
func Analyze(stats []model.SkillStats, today time.Time) Analysis {
	return Analysis{
		WeakAreas:       WeakAreas(stats),
		PriorityRanking: PriorityRanking(stats),
		DeadlineAlerts:  DeadlineAlerts(stats, today),
		AdviceTiers:     AdviceTiers(stats),
	}
}

func percent(ratio float64, places int) float64 {
	return round(ratio*100, places)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
