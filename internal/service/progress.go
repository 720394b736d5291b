// Package service contains the business rules of the skill tracker.
//
// THE THREE LAYERS:
//
//	Handler (HTTP)      → parses requests, writes responses
//	Service (this)      → validates, enforces rules, orchestrates
//	Repository (SQLite) → reads and writes rows
//
// Services depend on the repository interfaces, never on *sqlite.DB, and
// return apperror values that the handlers translate into status codes.
// The gamification maths itself lives in the gamification package as pure
// functions; services load a snapshot, apply those functions and persist the
// result inside one transaction.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/skill-tracker/internal/apperror"
	"github.com/sakif/skill-tracker/internal/clock"
	"github.com/sakif/skill-tracker/internal/gamification"
	"github.com/sakif/skill-tracker/internal/model"
	"github.com/sakif/skill-tracker/internal/repository"
)

// MaxSessionMinutes bounds one logged study session to a single day.
const MaxSessionMinutes = 24 * 60

// Session notes and history limits.
const (
	MaxSessionNotesLength = 1000
	DefaultSessionsLimit  = 20
	MaxSessionsLimit      = 100
)

// ProgressService owns every write to a user's gamification state. The task
// service borrows its per-user locks for completions.
type ProgressService struct {
	store  repository.Store
	clock  clock.Clock
	locks  *userLocks
	logger *slog.Logger
}

func NewProgressService(store repository.Store, clk clock.Clock, logger *slog.Logger) *ProgressService {
	return &ProgressService{
		store:  store,
		clock:  clk,
		locks:  newUserLocks(),
		logger: logger,
	}
}

// inUserTx serialises fn with every other gamification write for userID
// and runs it in a single transaction.
func (s *ProgressService) inUserTx(ctx context.Context, userID string, fn func(tx repository.Store) error) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	return s.store.InTx(ctx, fn)
}

// AwardExperience credits amount XP to the user and persists the new level.
// A failed write leaves the stored user untouched.
func (s *ProgressService) AwardExperience(ctx context.Context, userID string, amount int) (gamification.Award, error) {
	if amount < 0 {
		return gamification.Award{}, apperror.ValidationFailed("amount", "experience amount must not be negative")
	}

	var award gamification.Award
	err := s.inUserTx(ctx, userID, func(tx repository.Store) error {
		user, err := tx.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}

		updated, a, err := gamification.AwardExperience(*user, amount)
		if err != nil {
			return apperror.ValidationFailed("amount", err.Error())
		}
		if err := tx.SaveProgress(ctx, updated); err != nil {
			return err
		}
		award = a
		return nil
	})
	if err != nil {
		return gamification.Award{}, fmt.Errorf("service/progress: awarding %d xp to %s: %w", amount, userID, err)
	}

	if award.LeveledUp {
		s.logger.Info("user leveled up",
			slog.String("userID", userID),
			slog.Int("level", award.Level),
			slog.Int("xp", award.Total),
		)
	}
	return award, nil
}

// UpdateStreak records activity for today and returns the streak outcome.
// Calling it several times on the same day is harmless.
func (s *ProgressService) UpdateStreak(ctx context.Context, userID string) (gamification.Streak, error) {
	today := s.clock.Today()

	var streak gamification.Streak
	err := s.inUserTx(ctx, userID, func(tx repository.Store) error {
		user, err := tx.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}

		updated, st := gamification.UpdateStreak(*user, today)
		streak = st
		if st.Transition == gamification.StreakHeld {
			return nil
		}
		return tx.SaveProgress(ctx, updated)
	})
	if err != nil {
		return gamification.Streak{}, fmt.Errorf("service/progress: updating streak for %s: %w", userID, err)
	}
	return streak, nil
}

// LogDailyActivity adds the given counters to the user's ledger row for date.
func (s *ProgressService) LogDailyActivity(ctx context.Context, userID string, date time.Time, tasks, minutes, xp int) (model.DailyActivity, error) {
	delta := model.ActivityDelta{TasksCompleted: tasks, MinutesSpent: minutes, XPEarned: xp}
	if err := gamification.ValidateDelta(delta); err != nil {
		return model.DailyActivity{}, apperror.ValidationFailed("delta", "activity counters must not be negative")
	}

	row, err := s.store.AddDailyActivity(ctx, userID, clock.DateOf(date), delta)
	if err != nil {
		return model.DailyActivity{}, fmt.Errorf("service/progress: logging activity for %s: %w", userID, err)
	}
	return row, nil
}

// SessionResult is returned by LogStudySession.
type SessionResult struct {
	Session  model.LearningSession `json:"session"`
	Activity model.DailyActivity   `json:"activity"`
	Streak   gamification.Streak   `json:"streak"`
}

// LogStudySession records minutes of study for today. It counts toward the
// streak and the heatmap's minutes but awards no XP. When skillID is set the
// minutes are also added to that skill's hours. The session itself is kept
// in the user's history with its optional notes.
func (s *ProgressService) LogStudySession(ctx context.Context, userID string, minutes int, skillID, notes string) (*SessionResult, error) {
	if minutes <= 0 || minutes > MaxSessionMinutes {
		return nil, apperror.ValidationFailed("minutes", fmt.Sprintf("minutes must be between 1 and %d", MaxSessionMinutes))
	}
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) > MaxSessionNotesLength {
		return nil, apperror.ValidationFailed("notes", fmt.Sprintf("notes must be %d characters or fewer", MaxSessionNotesLength))
	}
	today := s.clock.Today()

	var result SessionResult
	err := s.inUserTx(ctx, userID, func(tx repository.Store) error {
		if skillID != "" {
			if err := tx.AddSkillHours(ctx, userID, skillID, float64(minutes)/60); err != nil {
				return err
			}
		}

		user, err := tx.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		updated, streak := gamification.UpdateStreak(*user, today)
		if streak.Transition != gamification.StreakHeld {
			if err := tx.SaveProgress(ctx, updated); err != nil {
				return err
			}
		}

		row, err := tx.AddDailyActivity(ctx, userID, today, model.ActivityDelta{MinutesSpent: minutes})
		if err != nil {
			return err
		}

		session := model.LearningSession{UserID: userID, SkillID: skillID, Date: today, Minutes: minutes, Notes: notes}
		if err := tx.CreateSession(ctx, &session); err != nil {
			return err
		}
		result = SessionResult{Session: session, Activity: row, Streak: streak}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service/progress: logging session for %s: %w", userID, err)
	}
	return &result, nil
}

// Sessions returns the user's logged study sessions, newest first. limit <= 0
// means the default and values above MaxSessionsLimit are clamped.
func (s *ProgressService) Sessions(ctx context.Context, userID string, limit int) ([]model.LearningSession, error) {
	switch {
	case limit <= 0:
		limit = DefaultSessionsLimit
	case limit > MaxSessionsLimit:
		limit = MaxSessionsLimit
	}

	sessions, err := s.store.ListSessions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("service/progress: listing sessions for %s: %w", userID, err)
	}
	return sessions, nil
}
