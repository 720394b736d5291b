package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/skill-tracker/internal/apperror"
	"github.com/sakif/skill-tracker/internal/clock"
	"github.com/sakif/skill-tracker/internal/gamification"
	"github.com/sakif/skill-tracker/internal/model"
	"github.com/sakif/skill-tracker/internal/repository"
)

const (
	RecentTasksLimit        = 5
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// DashboardService serves the read-only dashboard views. Every analysis is
// computed from one SkillStats query per request.
type DashboardService struct {
	store       repository.Store
	clock       clock.Clock
	heatmapDays int
	logger      *slog.Logger
}

// NewDashboardService uses heatmapDays as the window when the caller does
// not pick one; zero means gamification.DefaultHeatmapDays.
func NewDashboardService(store repository.Store, clk clock.Clock, heatmapDays int, logger *slog.Logger) *DashboardService {
	if heatmapDays <= 0 || heatmapDays > gamification.MaxHeatmapDays {
		heatmapDays = gamification.DefaultHeatmapDays
	}
	return &DashboardService{
		store:       store,
		clock:       clk,
		heatmapDays: heatmapDays,
		logger:      logger,
	}
}

// DefaultHeatmapDays is the window used when a request does not set one.
func (s *DashboardService) DefaultHeatmapDays() int { return s.heatmapDays }

// Heatmap returns windowDays+1 consecutive days ending today, oldest first.
func (s *DashboardService) Heatmap(ctx context.Context, userID string, windowDays int) ([]gamification.HeatmapDay, error) {
	if windowDays < 0 || windowDays > gamification.MaxHeatmapDays {
		return nil, apperror.ValidationFailed("days",
			fmt.Sprintf("days must be between 0 and %d", gamification.MaxHeatmapDays))
	}

	today := s.clock.Today()
	from, to := gamification.HeatmapRange(today, windowDays)

	rows, err := s.store.ActivityBetween(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: loading activity: %w", err)
	}
	return gamification.Heatmap(rows, today, windowDays), nil
}

func (s *DashboardService) skillStats(ctx context.Context, userID string) ([]model.SkillStats, error) {
	stats, err := s.store.SkillStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: loading skill stats: %w", err)
	}
	return stats, nil
}

// SkillAnalysis runs weak areas, priorities, deadline alerts and advice
// tiers over the same snapshot.
func (s *DashboardService) SkillAnalysis(ctx context.Context, userID string) (gamification.Analysis, error) {
	stats, err := s.skillStats(ctx, userID)
	if err != nil {
		return gamification.Analysis{}, err
	}
	return gamification.Analyze(stats, s.clock.Today()), nil
}

// Recommendations nudges skills that have no tasks or are under 40% done.
func (s *DashboardService) Recommendations(ctx context.Context, userID string) ([]gamification.Recommendation, error) {
	stats, err := s.skillStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return gamification.Recommendations(stats), nil
}

func (s *DashboardService) Overview(ctx context.Context, userID string) (gamification.Overview, error) {
	stats, err := s.skillStats(ctx, userID)
	if err != nil {
		return gamification.Overview{}, err
	}
	return gamification.OverviewOf(stats), nil
}

func (s *DashboardService) UserStats(ctx context.Context, userID string) (gamification.UserStats, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return gamification.UserStats{}, fmt.Errorf("service/dashboard: loading user: %w", err)
	}
	return gamification.StatsFor(*user), nil
}

func (s *DashboardService) SkillsProgress(ctx context.Context, userID string) ([]gamification.SkillProgress, error) {
	stats, err := s.skillStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return gamification.SkillsProgress(stats), nil
}

func (s *DashboardService) SkillsSummary(ctx context.Context, userID string) (gamification.SkillsSummary, error) {
	stats, err := s.skillStats(ctx, userID)
	if err != nil {
		return gamification.SkillsSummary{}, err
	}
	return gamification.SummarizeSkills(stats), nil
}

// RecentTasks returns the user's newest tasks, completed or not.
func (s *DashboardService) RecentTasks(ctx context.Context, userID string) ([]model.Task, error) {
	tasks, err := s.store.RecentTasks(ctx, userID, RecentTasksLimit)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: loading recent tasks: %w", err)
	}
	return tasks, nil
}

// Leaderboard ranks users by XP. limit <= 0 means the default and values
// above MaxLeaderboardLimit are clamped.
func (s *DashboardService) Leaderboard(ctx context.Context, userID string, limit int) ([]model.LeaderboardEntry, error) {
	switch {
	case limit <= 0:
		limit = DefaultLeaderboardLimit
	case limit > MaxLeaderboardLimit:
		limit = MaxLeaderboardLimit
	}

	users, err := s.store.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: loading leaderboard: %w", err)
	}

	entries := make([]model.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, model.LeaderboardEntry{
			Rank:          i + 1,
			UserID:        u.ID,
			Name:          u.Name,
			Level:         u.Level,
			XPPoints:      u.XPPoints,
			CurrentStreak: u.CurrentStreak,
			IsCurrentUser: u.ID == userID,
		})
	}
	return entries, nil
}

func (s *DashboardService) Productivity(ctx context.Context, userID string) (gamification.Productivity, error) {
	total, completed, err := s.store.CountTasks(ctx, userID)
	if err != nil {
		return gamification.Productivity{}, fmt.Errorf("service/dashboard: counting tasks: %w", err)
	}
	return gamification.ProductivityOf(total, completed), nil
}

func (s *DashboardService) Badges(ctx context.Context, userID string) ([]gamification.Badge, error) {
	_, completed, err := s.store.CountTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: counting tasks: %w", err)
	}
	return gamification.BadgesFor(completed), nil
}
