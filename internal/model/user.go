// Package model defines the data structures used throughout the application.
//
// The types here are VALUE SNAPSHOTS: functions that change gamification
// state take a User by value and return a new User, and the repository layer
// commits the result. Nothing in the engine mutates a shared pointer.
package model

import "time"

// User represents a registered account together with its gamification state.
//
// INVARIANTS:
//   - XPPoints never decreases.
//   - Level == gamification.LevelFromXP(XPPoints) after every award.
//   - LongestStreak >= CurrentStreak.
//
// LastActivityDate is a calendar date (midnight UTC, see the clock package);
// nil means the user has never logged a qualifying activity.
type User struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	GitHubID         int64      `json:"githubId,omitempty"` // 0 when the account was not created via GitHub
	AvatarURL        string     `json:"avatarUrl,omitempty"`
	XPPoints         int        `json:"xpPoints"`
	Level            int        `json:"level"`
	CurrentStreak    int        `json:"currentStreak"`
	LongestStreak    int        `json:"longestStreak"`
	LastActivityDate *time.Time `json:"lastActivityDate,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// LeaderboardEntry is one row of the XP leaderboard.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"userId"`
	Name          string `json:"name"`
	Level         int    `json:"level"`
	XPPoints      int    `json:"xpPoints"`
	CurrentStreak int    `json:"currentStreak"`
	IsCurrentUser bool   `json:"isCurrentUser"`
}
