// Package repository defines the persistence contracts the service layer
// depends on. Implementations live in subpackages (sqlite).
//
// Every lookup that takes a userID is owner-scoped: a record that exists but
// belongs to someone else is reported as apperror.ErrNotFound, exactly like a
// record that does not exist.
package repository

import (
	"context"
	"time"

	"github.com/sakif/skill-tracker/internal/model"
)

type UserRepository interface {
	// CreateUser inserts a password account. Duplicate email → apperror.ErrConflict.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertGitHubUser creates or refreshes the account linked to user.GitHubID.
	UpsertGitHubUser(ctx context.Context, user *model.User) error
	// SaveProgress persists the gamification fields of a user snapshot.
	SaveProgress(ctx context.Context, user model.User) error
	// Leaderboard returns the top users by XP.
	Leaderboard(ctx context.Context, limit int) ([]model.User, error)
}

type SkillRepository interface {
	CreateSkill(ctx context.Context, skill *model.Skill) error
	GetSkill(ctx context.Context, userID, id string) (*model.Skill, error)
	ListSkills(ctx context.Context, userID string) ([]model.Skill, error)
	UpdateSkill(ctx context.Context, skill *model.Skill) error
	// DeleteSkill removes the skill and its tasks.
	DeleteSkill(ctx context.Context, userID, id string) error
	AddSkillHours(ctx context.Context, userID, id string, hours float64) error
	// SkillStats returns one (skill, total, completed) triple per skill.
	SkillStats(ctx context.Context, userID string) ([]model.SkillStats, error)
}

type TaskRepository interface {
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, userID, id string) (*model.Task, error)
	ListTasksBySkill(ctx context.Context, userID, skillID string) ([]model.Task, error)
	RecentTasks(ctx context.Context, userID string, limit int) ([]model.Task, error)
	// MarkTaskCompleted flips is_completed false → true. It returns false
	// without error when the task was already completed.
	MarkTaskCompleted(ctx context.Context, userID, id string, at time.Time) (bool, error)
	CountTasks(ctx context.Context, userID string) (total, completed int, err error)
}

type ActivityRepository interface {
	// AddDailyActivity accumulates delta into the (userID, date) row,
	// creating it if needed, and returns the row after the update.
	AddDailyActivity(ctx context.Context, userID string, date time.Time, delta model.ActivityDelta) (model.DailyActivity, error)
	// ActivityBetween returns the rows with from <= date <= to, ascending.
	ActivityBetween(ctx context.Context, userID string, from, to time.Time) ([]model.DailyActivity, error)
	// CreateSession stores a logged study session and assigns its ID and
	// CreatedAt.
	CreateSession(ctx context.Context, session *model.LearningSession) error
	// ListSessions returns at most limit sessions, newest first.
	ListSessions(ctx context.Context, userID string, limit int) ([]model.LearningSession, error)
}

// Store is the full persistence surface.
type Store interface {
	UserRepository
	SkillRepository
	TaskRepository
	ActivityRepository

	// InTx runs fn against a transactional Store. fn's error (or panic)
	// rolls everything back; otherwise the transaction commits. Calling InTx
	// on a transactional Store joins the outer transaction.
	InTx(ctx context.Context, fn func(tx Store) error) error
}
