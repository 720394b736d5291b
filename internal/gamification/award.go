package gamification

import (
	"fmt"

	"github.com/sakif/skill-tracker/internal/model"
)

// Award describes the outcome of one experience credit.
type Award struct {
	Earned        int  `json:"xpEarned"`
	Total         int  `json:"totalXp"`
	Level         int  `json:"level"`
	LeveledUp     bool `json:"levelUp"`
	NextThreshold int  `json:"xpForNextLevel"`
}

// AwardExperience credits amount to the user and recomputes the level.
//
// The returned user is a new snapshot; the input is untouched. The level
// never decreases, even if a stored level was somehow ahead of the curve.
func AwardExperience(user model.User, amount int) (model.User, Award, error) {
	if amount < 0 {
		return user, Award{}, fmt.Errorf("gamification: negative experience amount %d", amount)
	}

	oldLevel := user.Level
	if oldLevel < 1 {
		oldLevel = 1
	}

	user.XPPoints += amount
	newLevel := LevelFromXP(user.XPPoints)

	leveledUp := newLevel > oldLevel
	if leveledUp {
		user.Level = newLevel
	} else {
		user.Level = oldLevel
	}

	return user, Award{
		Earned:        amount,
		Total:         user.XPPoints,
		Level:         user.Level,
		LeveledUp:     leveledUp,
		NextThreshold: NextLevelThreshold(user.Level),
	}, nil
}
