package gamification

import (
	"time"

	"github.com/sakif/skill-tracker/internal/clock"
	"github.com/sakif/skill-tracker/internal/model"
)

// StreakTransition names which branch of the streak state machine ran.
type StreakTransition string

const (
	StreakHeld      StreakTransition = "held"      // already active today
	StreakContinued StreakTransition = "continued" // last activity was yesterday
	StreakReset     StreakTransition = "reset"     // first activity, or a gap of 2+ days
)

// Streak is the result of UpdateStreak.
type Streak struct {
	CurrentStreak int              `json:"currentStreak"`
	LongestStreak int              `json:"longestStreak"`
	Maintained    bool             `json:"streakMaintained"`
	Transition    StreakTransition `json:"transition"`
}

// UpdateStreak advances the user's streak for activity on today.
//
//	last activity   | transition | effect
//	----------------+------------+---------------------
//	today           | held       | unchanged
//	yesterday       | continued  | current += 1
//	nil or earlier  | reset      | current = 1
//
// Afterwards longest = max(longest, current) and last activity = today.
// Calling it again on the same day always lands in the first row.
func UpdateStreak(user model.User, today time.Time) (model.User, Streak) {
	today = clock.DateOf(today)
	yesterday := clock.AddDays(today, -1)

	var transition StreakTransition
	switch {
	case user.LastActivityDate != nil && user.LastActivityDate.Equal(today):
		return user, Streak{
			CurrentStreak: user.CurrentStreak,
			LongestStreak: user.LongestStreak,
			Maintained:    true,
			Transition:    StreakHeld,
		}
	case user.LastActivityDate != nil && user.LastActivityDate.Equal(yesterday):
		user.CurrentStreak++
		transition = StreakContinued
	default:
		// A last-activity date in the future (clock skew between deployments)
		// is treated like a gap.
		user.CurrentStreak = 1
		transition = StreakReset
	}

	if user.CurrentStreak > user.LongestStreak {
		user.LongestStreak = user.CurrentStreak
	}
	user.LastActivityDate = &today

	return user, Streak{
		CurrentStreak: user.CurrentStreak,
		LongestStreak: user.LongestStreak,
		Maintained:    transition == StreakContinued,
		Transition:    transition,
	}
}
