package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/skill-tracker/internal/apperror"
	"github.com/sakif/skill-tracker/internal/clock"
	"github.com/sakif/skill-tracker/internal/gamification"
	"github.com/sakif/skill-tracker/internal/model"
	"github.com/sakif/skill-tracker/internal/repository"
)

const (
	DefaultTaskXP      = 10
	DefaultTaskMinutes = 30
	MaxTaskXP          = 1000
	MaxTitleLength     = 200
)

// TaskInput is the create payload. Zero XPReward and EstimatedMinutes take
// the defaults.
type TaskInput struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	XPReward         int    `json:"xpReward"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
}

// CompletionResult is the outcome of TaskService.Complete. When
// AlreadyCompleted is true nothing was written and the other fields are zero.
type CompletionResult struct {
	TaskID           string `json:"taskId"`
	AlreadyCompleted bool   `json:"alreadyCompleted"`
	XPEarned         int    `json:"xpEarned"`
	TotalXP          int    `json:"totalXp"`
	Level            int    `json:"level"`
	LevelUp          bool   `json:"levelUp"`
	CurrentStreak    int    `json:"currentStreak"`
	LongestStreak    int    `json:"longestStreak"`
	StreakMaintained bool   `json:"streakMaintained"`
}

type TaskService struct {
	store    repository.Store
	progress *ProgressService
	clock    clock.Clock
	logger   *slog.Logger
}

func NewTaskService(store repository.Store, progress *ProgressService, clk clock.Clock, logger *slog.Logger) *TaskService {
	return &TaskService{
		store:    store,
		progress: progress,
		clock:    clk,
		logger:   logger,
	}
}

func (s *TaskService) Create(ctx context.Context, userID, skillID string, in TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "task title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title", fmt.Sprintf("task title must be %d characters or less", MaxTitleLength))
	}
	if in.XPReward < 0 || in.XPReward > MaxTaskXP {
		return nil, apperror.ValidationFailed("xpReward", fmt.Sprintf("xpReward must be between 0 and %d", MaxTaskXP))
	}
	if in.EstimatedMinutes < 0 || in.EstimatedMinutes > MaxSessionMinutes {
		return nil, apperror.ValidationFailed("estimatedMinutes", fmt.Sprintf("estimatedMinutes must be between 0 and %d", MaxSessionMinutes))
	}

	task := &model.Task{
		UserID:           userID,
		SkillID:          skillID,
		Title:            title,
		Description:      strings.TrimSpace(in.Description),
		XPReward:         in.XPReward,
		EstimatedMinutes: in.EstimatedMinutes,
	}
	if task.XPReward == 0 {
		task.XPReward = DefaultTaskXP
	}
	if task.EstimatedMinutes == 0 {
		task.EstimatedMinutes = DefaultTaskMinutes
	}

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("service/task: creating task: %w", err)
	}

	s.logger.Debug("task created",
		slog.String("taskID", task.ID),
		slog.String("skillID", skillID),
	)
	return task, nil
}

// ListBySkill returns the skill's tasks. A skill the user does not own is
// reported as not found.
func (s *TaskService) ListBySkill(ctx context.Context, userID, skillID string) ([]model.Task, error) {
	if _, err := s.store.GetSkill(ctx, userID, skillID); err != nil {
		return nil, fmt.Errorf("service/task: loading skill %s: %w", skillID, err)
	}

	tasks, err := s.store.ListTasksBySkill(ctx, userID, skillID)
	if err != nil {
		return nil, fmt.Errorf("service/task: listing tasks: %w", err)
	}
	return tasks, nil
}

// Complete marks a task done and applies every consequence as one unit:
//
//  1. flip is_completed false → true (conditional update)
//  2. award the task's xp_reward and recompute the level
//  3. advance the streak for today
//  4. add +1 task, +estimated minutes, +xp to today's ledger row
//
// The whole sequence runs under the user's lock inside one transaction; any
// failure rolls all four back. Completing a task twice returns
// AlreadyCompleted and writes nothing.
func (s *TaskService) Complete(ctx context.Context, userID, taskID string) (*CompletionResult, error) {
	result := CompletionResult{TaskID: taskID}

	err := s.progress.inUserTx(ctx, userID, func(tx repository.Store) error {
		task, err := tx.GetTask(ctx, userID, taskID)
		if err != nil {
			return err
		}
		if task.IsCompleted {
			result.AlreadyCompleted = true
			return nil
		}

		flipped, err := tx.MarkTaskCompleted(ctx, userID, taskID, s.clock.Now())
		if err != nil {
			return err
		}
		if !flipped {
			result.AlreadyCompleted = true
			return nil
		}

		user, err := tx.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}

		today := s.clock.Today()
		updated, award, err := gamification.AwardExperience(*user, task.XPReward)
		if err != nil {
			return err
		}
		updated, streak := gamification.UpdateStreak(updated, today)

		if err := tx.SaveProgress(ctx, updated); err != nil {
			return err
		}
		if _, err := tx.AddDailyActivity(ctx, userID, today, gamification.CompletionDelta(*task)); err != nil {
			return err
		}

		result.XPEarned = award.Earned
		result.TotalXP = award.Total
		result.Level = award.Level
		result.LevelUp = award.LeveledUp
		result.CurrentStreak = streak.CurrentStreak
		result.LongestStreak = streak.LongestStreak
		result.StreakMaintained = streak.Maintained
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service/task: completing task %s: %w", taskID, err)
	}

	if result.AlreadyCompleted {
		s.logger.Debug("task already completed", slog.String("taskID", taskID))
		return &result, nil
	}

	s.logger.Info("task completed",
		slog.String("userID", userID),
		slog.String("taskID", taskID),
		slog.Int("xpEarned", result.XPEarned),
		slog.Int("level", result.Level),
		slog.Bool("levelUp", result.LevelUp),
		slog.Int("streak", result.CurrentStreak),
	)
	return &result, nil
}
