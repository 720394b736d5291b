package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/skill-tracker/internal/clock"
	"github.com/sakif/skill-tracker/internal/model"
)

// AddDailyActivity accumulates in the database (col = col + excluded.col)
// rather than read-modify-write, so concurrent writers for the same day
// never lose an increment.
func (db *DB) AddDailyActivity(ctx context.Context, userID string, date time.Time, delta model.ActivityDelta) (model.DailyActivity, error) {
	day := clock.DateOf(date)
	row := model.DailyActivity{UserID: userID, Date: day}

	err := db.q.QueryRowContext(ctx,
		`INSERT INTO daily_activities (user_id, date, tasks_completed, minutes_spent, xp_earned)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, date) DO UPDATE SET
		     tasks_completed = tasks_completed + excluded.tasks_completed,
		     minutes_spent   = minutes_spent + excluded.minutes_spent,
		     xp_earned       = xp_earned + excluded.xp_earned
		 RETURNING tasks_completed, minutes_spent, xp_earned`,
		userID, clock.FormatDate(day), delta.TasksCompleted, delta.MinutesSpent, delta.XPEarned,
	).Scan(&row.TasksCompleted, &row.MinutesSpent, &row.XPEarned)
	if err != nil {
		return model.DailyActivity{}, fmt.Errorf("sqlite: adding daily activity for %s: %w", clock.FormatDate(day), err)
	}
	return row, nil
}

// ActivityBetween relies on "YYYY-MM-DD" sorting lexically in date order.
func (db *DB) ActivityBetween(ctx context.Context, userID string, from, to time.Time) ([]model.DailyActivity, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT date, tasks_completed, minutes_spent, xp_earned
		 FROM daily_activities
		 WHERE user_id = ? AND date >= ? AND date <= ?
		 ORDER BY date ASC`,
		userID, clock.FormatDate(clock.DateOf(from)), clock.FormatDate(clock.DateOf(to)))
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying daily activity: %w", err)
	}
	defer rows.Close()

	out := make([]model.DailyActivity, 0)
	for rows.Next() {
		var (
			a    = model.DailyActivity{UserID: userID}
			date string
		)
		if err := rows.Scan(&date, &a.TasksCompleted, &a.MinutesSpent, &a.XPEarned); err != nil {
			return nil, fmt.Errorf("sqlite: scanning daily activity: %w", err)
		}
		if a.Date, err = clock.ParseDate(date); err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating daily activity: %w", err)
	}
	return out, nil
}
