package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sakif/skill-tracker/internal/model"
)

func TestAddDailyActivity_Accumulates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "Ada", "ada@example.com")
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	first, err := db.AddDailyActivity(ctx, user.ID, day, model.ActivityDelta{TasksCompleted: 1, MinutesSpent: 30, XPEarned: 10})
	if err != nil {
		t.Fatalf("AddDailyActivity() error = %v", err)
	}
	if first.TasksCompleted != 1 || first.MinutesSpent != 30 || first.XPEarned != 10 {
		t.Errorf("first row = %+v", first)
	}

	// a later time on the same calendar day lands in the same row
	second, err := db.AddDailyActivity(ctx, user.ID, day.Add(20*time.Hour), model.ActivityDelta{TasksCompleted: 1, MinutesSpent: 15, XPEarned: 25})
	if err != nil {
		t.Fatalf("AddDailyActivity() error = %v", err)
	}
	if second.TasksCompleted != 2 || second.MinutesSpent != 45 || second.XPEarned != 35 {
		t.Errorf("accumulated row = %+v, want 2/45/35", second)
	}

	rows, err := db.ActivityBetween(ctx, user.ID, day, day)
	if err != nil {
		t.Fatalf("ActivityBetween() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want exactly one per day", len(rows))
	}
	if !rows[0].Date.Equal(day) {
		t.Errorf("Date = %v, want %v", rows[0].Date, day)
	}
}

func TestAddDailyActivity_OtherDaysUntouched(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "Ada", "ada@example.com")
	mon := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	tue := mon.AddDate(0, 0, 1)

	db.AddDailyActivity(ctx, user.ID, mon, model.ActivityDelta{TasksCompleted: 3})
	db.AddDailyActivity(ctx, user.ID, tue, model.ActivityDelta{TasksCompleted: 1})

	rows, err := db.ActivityBetween(ctx, user.ID, mon, tue)
	if err != nil {
		t.Fatalf("ActivityBetween() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].TasksCompleted != 3 || rows[1].TasksCompleted != 1 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestActivityBetween_WindowBounds(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "Ada", "ada@example.com")
	other := createTestUser(t, db, "Bob", "bob@example.com")

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		db.AddDailyActivity(ctx, user.ID, base.AddDate(0, 0, i), model.ActivityDelta{TasksCompleted: 1})
	}
	db.AddDailyActivity(ctx, other.ID, base.AddDate(0, 0, 3), model.ActivityDelta{TasksCompleted: 7})

	rows, err := db.ActivityBetween(ctx, user.ID, base.AddDate(0, 0, 2), base.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("ActivityBetween() error = %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4 (inclusive bounds)", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if !rows[i-1].Date.Before(rows[i].Date) {
			t.Errorf("rows not ascending at %d", i)
		}
	}
	for _, r := range rows {
		if r.TasksCompleted != 1 {
			t.Errorf("row %v picked up another user's activity", r.Date)
		}
	}
}

func TestAddDailyActivity_ConcurrentWritersLoseNothing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "Ada", "ada@example.com")
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := db.AddDailyActivity(ctx, user.ID, day, model.ActivityDelta{TasksCompleted: 1, XPEarned: 5}); err != nil {
				t.Errorf("AddDailyActivity() error = %v", err)
			}
		}()
	}
	wg.Wait()

	rows, _ := db.ActivityBetween(ctx, user.ID, day, day)
	if len(rows) != 1 || rows[0].TasksCompleted != writers || rows[0].XPEarned != writers*5 {
		t.Errorf("rows = %+v, want one row with %d tasks", rows, writers)
	}
}
