package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/skill-tracker/internal/apperror"
	"github.com/sakif/skill-tracker/internal/model"
)

const taskColumns = `id, user_id, skill_id, title, description, is_completed,
	xp_reward, estimated_minutes, created_at, completed_at`

func scanTask(row rowScanner) (*model.Task, error) {
	var (
		t           model.Task
		completedAt sql.NullTime
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.SkillID, &t.Title, &t.Description, &t.IsCompleted,
		&t.XPReward, &t.EstimatedMinutes, &t.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		at := completedAt.Time
		t.CompletedAt = &at
	}
	return &t, nil
}

// CreateTask inserts a task. The skill must belong to task.UserID.
func (db *DB) CreateTask(ctx context.Context, task *model.Task) error {
	task.ID = xid.New().String()
	task.CreatedAt = time.Now().UTC()
	task.IsCompleted = false
	task.CompletedAt = nil

	res, err := db.q.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 SELECT ?, ?, ?, ?, ?, 0, ?, ?, ?, NULL
		 WHERE EXISTS (SELECT 1 FROM skills WHERE id = ? AND user_id = ?)`,
		task.ID, task.UserID, task.SkillID, task.Title, task.Description,
		task.XPReward, task.EstimatedMinutes, task.CreatedAt,
		task.SkillID, task.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting task: %w", err)
	}
	return requireAffected(res, "skill", task.SkillID)
}

func (db *DB) GetTask(ctx context.Context, userID, id string) (*model.Task, error) {
	t, err := scanTask(db.q.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("task", id)
		}
		return nil, fmt.Errorf("sqlite: getting task %s: %w", id, err)
	}
	return t, nil
}

func (db *DB) ListTasksBySkill(ctx context.Context, userID, skillID string) ([]model.Task, error) {
	return db.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE user_id = ? AND skill_id = ?
		 ORDER BY created_at ASC, id ASC`, userID, skillID)
}

// RecentTasks returns the newest tasks across all skills.
func (db *DB) RecentTasks(ctx context.Context, userID string, limit int) ([]model.Task, error) {
	return db.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, userID, limit)
}

func (db *DB) queryTasks(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning task row: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tasks: %w", err)
	}
	return tasks, nil
}

// MarkTaskCompleted is a conditional update: only a row that is still open
// matches, so two racing completions cannot both see "changed".
func (db *DB) MarkTaskCompleted(ctx context.Context, userID, id string, at time.Time) (bool, error) {
	res, err := db.q.ExecContext(ctx,
		`UPDATE tasks SET is_completed = 1, completed_at = ?
		 WHERE id = ? AND user_id = ? AND is_completed = 0`,
		at.UTC(), id, userID)
	if err != nil {
		return false, fmt.Errorf("sqlite: completing task %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n == 1, nil
}

func (db *DB) CountTasks(ctx context.Context, userID string) (total, completed int, err error) {
	err = db.q.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_completed = 1 THEN 1 ELSE 0 END), 0)
		 FROM tasks WHERE user_id = ?`, userID,
	).Scan(&total, &completed)
	if err != nil {
		return 0, 0, fmt.Errorf("sqlite: counting tasks: %w", err)
	}
	return total, completed, nil
}
