package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sakif/skill-tracker/internal/apperror"
	"github.com/sakif/skill-tracker/internal/clock"
	"github.com/sakif/skill-tracker/internal/model"
	"github.com/sakif/skill-tracker/internal/repository"
)

// =========================================================================
// FAKE STORE
// =========================================================================
//
// fakeStore is an in-memory repository.Store. InTx snapshots every map and
// restores the snapshot when fn fails, so rollback behaviour can be asserted
// without a database. failOn makes a named method return an error.

type fakeStore struct {
	mu       sync.Mutex
	users    map[string]model.User
	skills   map[string]model.Skill
	tasks    map[string]model.Task
	activity map[string]model.DailyActivity // "userID|2006-01-02"
	sessions []model.LearningSession        // insertion order
	nextID   int
	failOn   map[string]error
	txCount  int
}

var _ repository.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]model.User),
		skills:   make(map[string]model.Skill),
		tasks:    make(map[string]model.Task),
		activity: make(map[string]model.DailyActivity),
		failOn:   make(map[string]error),
	}
}

// id returns ordered IDs so sorting by ID follows creation order.
func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%04d", prefix, f.nextID)
}

func (f *fakeStore) fail(method string) error {
	return f.failOn[method]
}

func (f *fakeStore) InTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	f.mu.Lock()
	f.txCount++
	users, skills := maps.Clone(f.users), maps.Clone(f.skills)
	tasks, activity := maps.Clone(f.tasks), maps.Clone(f.activity)
	sessions := slices.Clone(f.sessions)
	f.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in transaction: %v", p)
		}
		if err != nil {
			f.mu.Lock()
			f.users, f.skills, f.tasks, f.activity = users, skills, tasks, activity
			f.sessions = sessions
			f.mu.Unlock()
		}
	}()

	return fn(f)
}

// ----- users -----

func (f *fakeStore) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateUser"); err != nil {
		return err
	}
	user.Email = strings.ToLower(user.Email)
	for _, u := range f.users {
		if user.Email != "" && u.Email == user.Email {
			return apperror.Conflict("user", user.Email)
		}
	}
	user.ID = f.id("user")
	if user.Level < 1 {
		user.Level = 1
	}
	user.CreatedAt = time.Now()
	f.users[user.ID] = *user
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("GetUserByID"); err != nil {
		return nil, err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &u, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email != "" && u.Email == strings.ToLower(email) {
			return &u, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeStore) UpsertGitHubUser(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	for id, u := range f.users {
		if u.GitHubID == user.GitHubID {
			u.Name, u.AvatarURL = user.Name, user.AvatarURL
			if user.Email != "" {
				u.Email = strings.ToLower(user.Email)
			}
			f.users[id] = u
			*user = u
			f.mu.Unlock()
			return nil
		}
	}
	f.mu.Unlock()
	return f.CreateUser(ctx, user)
}

func (f *fakeStore) SaveProgress(_ context.Context, user model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("SaveProgress"); err != nil {
		return err
	}
	stored, ok := f.users[user.ID]
	if !ok {
		return apperror.NotFound("user", user.ID)
	}
	stored.XPPoints, stored.Level = user.XPPoints, user.Level
	stored.CurrentStreak, stored.LongestStreak = user.CurrentStreak, user.LongestStreak
	stored.LastActivityDate = user.LastActivityDate
	f.users[user.ID] = stored
	return nil
}

func (f *fakeStore) Leaderboard(_ context.Context, limit int) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := slices.Collect(maps.Values(f.users))
	slices.SortFunc(users, func(a, b model.User) int {
		if a.XPPoints != b.XPPoints {
			return b.XPPoints - a.XPPoints
		}
		return strings.Compare(a.ID, b.ID)
	})
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

// ----- skills -----

func (f *fakeStore) CreateSkill(_ context.Context, skill *model.Skill) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	skill.ID = f.id("skill")
	skill.CreatedAt = time.Now()
	f.skills[skill.ID] = *skill
	return nil
}

func (f *fakeStore) GetSkill(_ context.Context, userID, id string) (*model.Skill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.skills[id]
	if !ok || s.UserID != userID {
		return nil, apperror.NotFound("skill", id)
	}
	return &s, nil
}

func (f *fakeStore) ListSkills(_ context.Context, userID string) ([]model.Skill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Skill
	for _, id := range slices.Sorted(maps.Keys(f.skills)) {
		if s := f.skills[id]; s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateSkill(_ context.Context, skill *model.Skill) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.skills[skill.ID]
	if !ok || s.UserID != skill.UserID {
		return apperror.NotFound("skill", skill.ID)
	}
	skill.TotalHoursSpent = s.TotalHoursSpent
	f.skills[skill.ID] = *skill
	return nil
}

func (f *fakeStore) DeleteSkill(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.skills[id]
	if !ok || s.UserID != userID {
		return apperror.NotFound("skill", id)
	}
	delete(f.skills, id)
	for tid, t := range f.tasks {
		if t.SkillID == id {
			delete(f.tasks, tid)
		}
	}
	return nil
}

func (f *fakeStore) AddSkillHours(_ context.Context, userID, id string, hours float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.skills[id]
	if !ok || s.UserID != userID {
		return apperror.NotFound("skill", id)
	}
	s.TotalHoursSpent += hours
	f.skills[id] = s
	return nil
}

func (f *fakeStore) SkillStats(_ context.Context, userID string) ([]model.SkillStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("SkillStats"); err != nil {
		return nil, err
	}
	out := []model.SkillStats{}
	for _, id := range slices.Sorted(maps.Keys(f.skills)) {
		s := f.skills[id]
		if s.UserID != userID {
			continue
		}
		st := model.SkillStats{SkillID: s.ID, Name: s.Name, Category: s.Category, GoalDate: s.GoalDate}
		for _, t := range f.tasks {
			if t.SkillID == s.ID {
				st.TotalTasks++
				if t.IsCompleted {
					st.CompletedTasks++
				}
			}
		}
		out = append(out, st)
	}
	return out, nil
}

// ----- tasks -----

func (f *fakeStore) CreateTask(_ context.Context, task *model.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.skills[task.SkillID]
	if !ok || s.UserID != task.UserID {
		return apperror.NotFound("skill", task.SkillID)
	}
	task.ID = f.id("task")
	task.CreatedAt = time.Now()
	f.tasks[task.ID] = *task
	return nil
}

func (f *fakeStore) GetTask(_ context.Context, userID, id string) (*model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return nil, apperror.NotFound("task", id)
	}
	return &t, nil
}

func (f *fakeStore) ListTasksBySkill(_ context.Context, userID, skillID string) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Task{}
	for _, id := range slices.Sorted(maps.Keys(f.tasks)) {
		if t := f.tasks[id]; t.UserID == userID && t.SkillID == skillID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) RecentTasks(_ context.Context, userID string, limit int) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Task{}
	ids := slices.Sorted(maps.Keys(f.tasks))
	slices.Reverse(ids)
	for _, id := range ids {
		if t := f.tasks[id]; t.UserID == userID && len(out) < limit {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkTaskCompleted(_ context.Context, userID, id string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("MarkTaskCompleted"); err != nil {
		return false, err
	}
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID || t.IsCompleted {
		return false, nil
	}
	t.IsCompleted = true
	t.CompletedAt = &at
	f.tasks[id] = t
	return true, nil
}

func (f *fakeStore) CountTasks(_ context.Context, userID string) (total, completed int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.UserID == userID {
			total++
			if t.IsCompleted {
				completed++
			}
		}
	}
	return total, completed, nil
}

// ----- activity -----

func activityKey(userID string, date time.Time) string {
	return userID + "|" + clock.FormatDate(date)
}

func (f *fakeStore) AddDailyActivity(_ context.Context, userID string, date time.Time, delta model.ActivityDelta) (model.DailyActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("AddDailyActivity"); err != nil {
		return model.DailyActivity{}, err
	}
	key := activityKey(userID, date)
	row, ok := f.activity[key]
	if !ok {
		row = model.DailyActivity{UserID: userID, Date: clock.DateOf(date)}
	}
	row.TasksCompleted += delta.TasksCompleted
	row.MinutesSpent += delta.MinutesSpent
	row.XPEarned += delta.XPEarned
	f.activity[key] = row
	return row, nil
}

func (f *fakeStore) ActivityBetween(_ context.Context, userID string, from, to time.Time) ([]model.DailyActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.DailyActivity
	for _, row := range f.activity {
		if row.UserID == userID && !row.Date.Before(from) && !row.Date.After(to) {
			out = append(out, row)
		}
	}
	slices.SortFunc(out, func(a, b model.DailyActivity) int { return a.Date.Compare(b.Date) })
	return out, nil
}

func (f *fakeStore) CreateSession(_ context.Context, session *model.LearningSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateSession"); err != nil {
		return err
	}
	session.ID = f.id("session")
	session.CreatedAt = time.Now().UTC()
	session.Date = clock.DateOf(session.Date)
	f.sessions = append(f.sessions, *session)
	return nil
}

func (f *fakeStore) ListSessions(_ context.Context, userID string, limit int) ([]model.LearningSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListSessions"); err != nil {
		return nil, err
	}
	out := []model.LearningSession{}
	for i := len(f.sessions) - 1; i >= 0 && len(out) < limit; i-- {
		if f.sessions[i].UserID == userID {
			out = append(out, f.sessions[i])
		}
	}
	return out, nil
}

// ----- helpers -----

func (f *fakeStore) user(id string) model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id]
}

func (f *fakeStore) task(id string) model.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tasks[id]
}

func (f *fakeStore) dayRow(userID string, date time.Time) (model.DailyActivity, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.activity[activityKey(userID, date)]
	return row, ok
}

func (f *fakeStore) seedUser(u model.User) model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = f.id("user")
	}
	if u.Level == 0 {
		u.Level = 1
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeStore) seedSkill(userID, name string) model.Skill {
	s := model.Skill{UserID: userID, Name: name, Category: "other", Priority: 1}
	f.CreateSkill(context.Background(), &s)
	return s
}

func (f *fakeStore) seedTask(userID, skillID string, xp, minutes int) model.Task {
	t := model.Task{UserID: userID, SkillID: skillID, Title: "task", XPReward: xp, EstimatedMinutes: minutes}
	if err := f.CreateTask(context.Background(), &t); err != nil {
		panic(err)
	}
	return t
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testToday is the fixed "today" every service test runs on.
var testToday = clock.Date(2026, time.March, 14)

func newTestClock() *clock.Fixed {
	return clock.NewFixed(testToday.Add(15 * time.Hour))
}
