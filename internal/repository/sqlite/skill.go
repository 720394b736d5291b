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

const skillColumns = `id, user_id, name, description, category, priority,
	target_hours, total_hours_spent, goal_date, created_at, updated_at`

func scanSkill(row rowScanner) (*model.Skill, error) {
	var (
		s    model.Skill
		goal sql.NullString
	)
	err := row.Scan(
		&s.ID, &s.UserID, &s.Name, &s.Description, &s.Category, &s.Priority,
		&s.TargetHours, &s.TotalHoursSpent, &goal, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if s.GoalDate, err = parseNullDate(goal); err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) CreateSkill(ctx context.Context, skill *model.Skill) error {
	now := time.Now().UTC()
	skill.ID = xid.New().String()
	skill.CreatedAt = now
	skill.UpdatedAt = now

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO skills (`+skillColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		skill.ID, skill.UserID, skill.Name, skill.Description, skill.Category,
		skill.Priority, skill.TargetHours, skill.TotalHoursSpent,
		formatNullDate(skill.GoalDate), skill.CreatedAt, skill.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting skill: %w", err)
	}
	return nil
}

func (db *DB) GetSkill(ctx context.Context, userID, id string) (*model.Skill, error) {
	s, err := scanSkill(db.q.QueryRowContext(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("skill", id)
		}
		return nil, fmt.Errorf("sqlite: getting skill %s: %w", id, err)
	}
	return s, nil
}

// ListSkills returns the user's skills, highest priority first, then newest.
func (db *DB) ListSkills(ctx context.Context, userID string) ([]model.Skill, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT `+skillColumns+` FROM skills
		 WHERE user_id = ?
		 ORDER BY priority DESC, created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing skills: %w", err)
	}
	defer rows.Close()

	skills := make([]model.Skill, 0)
	for rows.Next() {
		s, err := scanSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning skill row: %w", err)
		}
		skills = append(skills, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating skills: %w", err)
	}
	return skills, nil
}

// UpdateSkill overwrites the editable fields. TotalHoursSpent is not editable.
func (db *DB) UpdateSkill(ctx context.Context, skill *model.Skill) error {
	skill.UpdatedAt = time.Now().UTC()

	res, err := db.q.ExecContext(ctx,
		`UPDATE skills
		 SET name = ?, description = ?, category = ?, priority = ?,
		     target_hours = ?, goal_date = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		skill.Name, skill.Description, skill.Category, skill.Priority,
		skill.TargetHours, formatNullDate(skill.GoalDate), skill.UpdatedAt,
		skill.ID, skill.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating skill %s: %w", skill.ID, err)
	}
	return requireAffected(res, "skill", skill.ID)
}

// DeleteSkill relies on ON DELETE CASCADE to remove the skill's tasks.
func (db *DB) DeleteSkill(ctx context.Context, userID, id string) error {
	res, err := db.q.ExecContext(ctx,
		`DELETE FROM skills WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting skill %s: %w", id, err)
	}
	return requireAffected(res, "skill", id)
}

func (db *DB) AddSkillHours(ctx context.Context, userID, id string, hours float64) error {
	res, err := db.q.ExecContext(ctx,
		`UPDATE skills SET total_hours_spent = total_hours_spent + ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		hours, time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("sqlite: adding hours to skill %s: %w", id, err)
	}
	return requireAffected(res, "skill", id)
}

// SkillStats aggregates task counts per skill in one query. Skills without
// tasks appear with zero counts.
func (db *DB) SkillStats(ctx context.Context, userID string) ([]model.SkillStats, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT s.id, s.name, s.category, s.goal_date,
		        COUNT(t.id),
		        COALESCE(SUM(CASE WHEN t.is_completed = 1 THEN 1 ELSE 0 END), 0)
		 FROM skills s
		 LEFT JOIN tasks t ON t.skill_id = s.id AND t.user_id = s.user_id
		 WHERE s.user_id = ?
		 GROUP BY s.id, s.name, s.category, s.goal_date, s.created_at
		 ORDER BY s.created_at ASC, s.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying skill stats: %w", err)
	}
	defer rows.Close()

	stats := make([]model.SkillStats, 0)
	for rows.Next() {
		var (
			st   model.SkillStats
			goal sql.NullString
		)
		if err := rows.Scan(&st.SkillID, &st.Name, &st.Category, &goal, &st.TotalTasks, &st.CompletedTasks); err != nil {
			return nil, fmt.Errorf("sqlite: scanning skill stats: %w", err)
		}
		if st.GoalDate, err = parseNullDate(goal); err != nil {
			return nil, fmt.Errorf("sqlite: parsing goal date: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating skill stats: %w", err)
	}
	return stats, nil
}
