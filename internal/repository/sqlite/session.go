package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/skill-tracker/internal/clock"
	"github.com/sakif/skill-tracker/internal/model"
)

// CreateSession inserts session. An empty SkillID is stored as NULL, and
// deleting the skill later nulls it again instead of dropping the session.
func (db *DB) CreateSession(ctx context.Context, session *model.LearningSession) error {
	session.ID = xid.New().String()
	session.CreatedAt = time.Now().UTC()
	session.Date = clock.DateOf(session.Date)

	skillID := sql.NullString{String: session.SkillID, Valid: session.SkillID != ""}
	_, err := db.q.ExecContext(ctx,
		`INSERT INTO learning_sessions (id, user_id, skill_id, date, minutes, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, skillID, clock.FormatDate(session.Date),
		session.Minutes, session.Notes, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting learning session: %w", err)
	}
	return nil
}

func (db *DB) ListSessions(ctx context.Context, userID string, limit int) ([]model.LearningSession, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT id, skill_id, date, minutes, notes, created_at
		 FROM learning_sessions
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying learning sessions: %w", err)
	}
	defer rows.Close()

	out := make([]model.LearningSession, 0)
	for rows.Next() {
		var (
			s       = model.LearningSession{UserID: userID}
			skillID sql.NullString
			date    string
		)
		if err := rows.Scan(&s.ID, &skillID, &date, &s.Minutes, &s.Notes, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning learning session: %w", err)
		}
		s.SkillID = skillID.String
		if s.Date, err = clock.ParseDate(date); err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating learning sessions: %w", err)
	}
	return out, nil
}
