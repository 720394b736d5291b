package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/skill-tracker/internal/apperror"
	"github.com/sakif/skill-tracker/internal/clock"
	"github.com/sakif/skill-tracker/internal/model"
)

const userColumns = `id, name, email, password_hash, github_id, avatar_url,
	xp_points, level, current_streak, longest_streak, last_activity_date,
	created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u        model.User
		email    sql.NullString
		githubID sql.NullInt64
		lastDate sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.Name, &email, &u.PasswordHash, &githubID, &u.AvatarURL,
		&u.XPPoints, &u.Level, &u.CurrentStreak, &u.LongestStreak, &lastDate,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Email = email.String
	u.GitHubID = githubID.Int64
	if u.LastActivityDate, err = parseNullDate(lastDate); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new account. Emails are stored lower-cased.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.Email = normalizeEmail(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Level < 1 {
		user.Level = 1
	}

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, nullString(user.Email), user.PasswordHash,
		nullInt64(user.GitHubID), user.AvatarURL,
		user.XPPoints, user.Level, user.CurrentStreak, user.LongestStreak,
		formatNullDate(user.LastActivityDate),
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}
	return nil
}

// GetUserByID returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = normalizeEmail(email)
	u, err := scanUser(db.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return u, nil
}

// UpsertGitHubUser links a GitHub identity to an account.
//
// An existing row with the same github_id keeps its ID, gamification state
// and created_at; only the profile (name, email, avatar) is refreshed. On
// return user holds the full stored record.
func (db *DB) UpsertGitHubUser(ctx context.Context, user *model.User) error {
	if user.GitHubID == 0 {
		return apperror.ValidationFailed("github_id", "must be set")
	}

	var existingID string
	err := db.q.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existingID == "" {
		return db.CreateUser(ctx, user)
	}

	_, err = db.q.ExecContext(ctx,
		`UPDATE users SET name = ?, email = COALESCE(?, email), avatar_url = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name, nullString(normalizeEmail(user.Email)), user.AvatarURL, time.Now().UTC(), existingID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: updating user %s: %w", existingID, err)
	}

	stored, err := db.GetUserByID(ctx, existingID)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

// SaveProgress writes the gamification columns of user.
func (db *DB) SaveProgress(ctx context.Context, user model.User) error {
	res, err := db.q.ExecContext(ctx,
		`UPDATE users
		 SET xp_points = ?, level = ?, current_streak = ?, longest_streak = ?,
		     last_activity_date = ?, updated_at = ?
		 WHERE id = ?`,
		user.XPPoints, user.Level, user.CurrentStreak, user.LongestStreak,
		formatNullDate(user.LastActivityDate), time.Now().UTC(), user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving progress for user %s: %w", user.ID, err)
	}
	return requireAffected(res, "user", user.ID)
}

// Leaderboard orders by XP, earliest account first on ties.
func (db *DB) Leaderboard(ctx context.Context, limit int) ([]model.User, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 ORDER BY xp_points DESC, created_at ASC, id ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying leaderboard: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning leaderboard row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating leaderboard: %w", err)
	}
	return users, nil
}

// ===== helpers shared by the repositories =====

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: n != 0}
}

func formatNullDate(d *time.Time) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: clock.FormatDate(clock.DateOf(*d)), Valid: true}
}

func parseNullDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := clock.ParseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// requireAffected maps "no row matched" to apperror.NotFound.
func requireAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
