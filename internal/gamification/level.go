// Package gamification turns raw task and skill records into motivational
// and planning signals: experience and levels, streaks, the daily activity
// ledger, heatmaps, and the progress scoring suite.
//
// Everything in this package is PURE. Functions take value snapshots and an
// explicit "today", and return new snapshots plus a result describing what
// changed. Persistence and locking live in the service and repository layers.
package gamification

import "math"

// exactLevelLimit bounds the levels for which 10000*level^3 fits in an int64.
const exactLevelLimit = 90000

// XPThreshold is floor(100 * level^1.5): the cumulative experience a user
// needs to advance out of level. XPThreshold(1) == 100.
//
// 100*l^1.5 == sqrt(10000*l^3), so the floor is an integer square root and
// perfect squares (4, 9, 16, ...) land exactly on 800, 2700, 6400.
func XPThreshold(level int) int {
	if level < 1 {
		return 0
	}
	if level > exactLevelLimit {
		return int(math.Floor(100 * math.Pow(float64(level), 1.5)))
	}

	l := int64(level)
	n := 10000 * l * l * l
	r := int64(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return int(r)
}

// LevelFromXP maps cumulative experience to a level.
//
// Everyone starts at level 1; the level increments while the next threshold
// is still met. The result is monotonic non-decreasing in xp:
//
//	xp:     0 .. 99 → 1
//	xp:   100 .. 281 → 2
//	xp:   282 .. 518 → 3
func LevelFromXP(xp int) int {
	level := 1
	for XPThreshold(level) <= xp {
		level++
	}
	return level
}

// LevelFloor is the cumulative experience at which level begins.
func LevelFloor(level int) int {
	if level <= 1 {
		return 0
	}
	return XPThreshold(level - 1)
}

// NextLevelThreshold is the cumulative experience needed to leave level.
func NextLevelThreshold(level int) int {
	return XPThreshold(level)
}
