package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/skill-tracker/internal/apperror"
	"github.com/sakif/skill-tracker/internal/model"
)

func TestCreateTask(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "Ada", "ada@example.com")
	skill := createTestSkill(t, db, user.ID, "Go")

	task := createTestTask(t, db, user.ID, skill.ID, "Tour of Go")
	if task.ID == "" {
		t.Fatal("CreateTask() did not set ID")
	}

	got, err := db.GetTask(ctx, user.ID, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got.Title != "Tour of Go" || got.XPReward != 10 || got.EstimatedMinutes != 30 {
		t.Errorf("unexpected task: %+v", got)
	}
	if got.IsCompleted || got.CompletedAt != nil {
		t.Errorf("new task should be open: %+v", got)
	}
}

func TestCreateTask_ForeignSkillIsNotFound(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "Ada", "ada@example.com")
	intruder := createTestUser(t, db, "Eve", "eve@example.com")
	skill := createTestSkill(t, db, owner.ID, "Go")

	err := db.CreateTask(context.Background(), &model.Task{UserID: intruder.ID, SkillID: skill.ID, Title: "x"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("CreateTask() error = %v, want ErrNotFound", err)
	}
}

func TestMarkTaskCompleted_OnlyOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "Ada", "ada@example.com")
	skill := createTestSkill(t, db, user.ID, "Go")
	task := createTestTask(t, db, user.ID, skill.ID, "Tour")

	at := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	changed, err := db.MarkTaskCompleted(ctx, user.ID, task.ID, at)
	if err != nil || !changed {
		t.Fatalf("first MarkTaskCompleted() = %v, %v; want true, nil", changed, err)
	}

	changed, err = db.MarkTaskCompleted(ctx, user.ID, task.ID, at.Add(time.Hour))
	if err != nil || changed {
		t.Fatalf("second MarkTaskCompleted() = %v, %v; want false, nil", changed, err)
	}

	got, _ := db.GetTask(ctx, user.ID, task.ID)
	if !got.IsCompleted {
		t.Error("task should be completed")
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(at) {
		t.Errorf("CompletedAt = %v, want the first completion time %v", got.CompletedAt, at)
	}
}

func TestListAndRecentTasks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "Ada", "ada@example.com")
	goSkill := createTestSkill(t, db, user.ID, "Go")
	piano := createTestSkill(t, db, user.ID, "Piano")

	createTestTask(t, db, user.ID, goSkill.ID, "a")
	createTestTask(t, db, user.ID, goSkill.ID, "b")
	createTestTask(t, db, user.ID, piano.ID, "c")

	list, err := db.ListTasksBySkill(ctx, user.ID, goSkill.ID)
	if err != nil {
		t.Fatalf("ListTasksBySkill() error = %v", err)
	}
	if len(list) != 2 {
		t.Errorf("len = %d, want 2", len(list))
	}

	recent, err := db.RecentTasks(ctx, user.ID, 2)
	if err != nil {
		t.Fatalf("RecentTasks() error = %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("len = %d, want 2", len(recent))
	}
}

func TestCountTasks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "Ada", "ada@example.com")

	total, completed, err := db.CountTasks(ctx, user.ID)
	if err != nil || total != 0 || completed != 0 {
		t.Fatalf("CountTasks() on empty = %d, %d, %v", total, completed, err)
	}

	skill := createTestSkill(t, db, user.ID, "Go")
	first := createTestTask(t, db, user.ID, skill.ID, "a")
	createTestTask(t, db, user.ID, skill.ID, "b")
	createTestTask(t, db, user.ID, skill.ID, "c")
	if _, err := db.MarkTaskCompleted(ctx, user.ID, first.ID, time.Now()); err != nil {
		t.Fatalf("MarkTaskCompleted() error = %v", err)
	}

	total, completed, err = db.CountTasks(ctx, user.ID)
	if err != nil {
		t.Fatalf("CountTasks() error = %v", err)
	}
	if total != 3 || completed != 1 {
		t.Errorf("CountTasks() = %d, %d; want 3, 1", total, completed)
	}
}
