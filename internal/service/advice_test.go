package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/skill-tracker/internal/advisor"
	"github.com/sakif/skill-tracker/internal/clock"
	"github.com/sakif/skill-tracker/internal/cooldown"
	"github.com/sakif/skill-tracker/internal/model"
)

// fakeGenerator counts calls and answers with plan, err, or by blocking
// until the context is done.
type fakeGenerator struct {
	calls      atomic.Int32
	lastPrompt atomic.Value
	plan       string
	err        error
	block      bool
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	g.lastPrompt.Store(prompt)
	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return g.plan, g.err
}

type brokenCooldownStore struct{}

func (brokenCooldownStore) Acquire(context.Context, string, time.Time, time.Duration) (bool, time.Duration, error) {
	return false, 0, errors.New("redis: connection refused")
}

func newTestAdviceService(store *fakeStore, gen advisor.Generator, clk clock.Clock, cdStore cooldown.Store) *AdviceService {
	gate := cooldown.NewGate(cdStore, time.Minute, discardLogger())
	return NewAdviceService(store, gate, gen, clk, 50*time.Millisecond, discardLogger())
}

func TestAdviceService_Generates(t *testing.T) {
	store := newFakeStore()
	user := store.seedUser(model.User{Name: "Ada"})
	store.seedSkill(user.ID, "Go")
	gen := &fakeGenerator{plan: "  Day 1: write tests.\n"}
	svc := newTestAdviceService(store, gen, newTestClock(), cooldown.NewMemoryStore())

	advice, err := svc.RequestAdvice(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, "Day 1: write tests.", advice.Plan)
	assert.False(t, advice.RateLimited)
	assert.False(t, advice.Fallback)
	assert.Contains(t, gen.lastPrompt.Load().(string), "- Go: 0/0 tasks")
}

func TestAdviceService_Cooldown(t *testing.T) {
	store := newFakeStore()
	user := store.seedUser(model.User{Name: "Ada"})
	other := store.seedUser(model.User{Name: "Bob"})
	store.seedSkill(user.ID, "Go")
	store.seedSkill(other.ID, "Chess")
	gen := &fakeGenerator{plan: "plan"}
	clk := newTestClock()
	svc := newTestAdviceService(store, gen, clk, cooldown.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.RequestAdvice(ctx, user.ID)
	require.NoError(t, err)

	clk.Advance(20 * time.Second)
	blocked, err := svc.RequestAdvice(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, blocked.RateLimited)
	assert.Equal(t, 40, blocked.RetryAfterSeconds)
	assert.Empty(t, blocked.Plan)
	assert.Equal(t, int32(1), gen.calls.Load(), "blocked call must not reach the generator")

	// the window is per user
	otherAdvice, err := svc.RequestAdvice(ctx, other.ID)
	require.NoError(t, err)
	assert.False(t, otherAdvice.RateLimited)

	clk.Advance(41 * time.Second)
	again, err := svc.RequestAdvice(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, again.RateLimited)
	assert.Equal(t, int32(3), gen.calls.Load())
}

func TestAdviceService_NoSkills(t *testing.T) {
	store := newFakeStore()
	user := store.seedUser(model.User{Name: "Ada"})
	gen := &fakeGenerator{plan: "plan"}
	svc := newTestAdviceService(store, gen, newTestClock(), cooldown.NewMemoryStore())

	advice, err := svc.RequestAdvice(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, advisor.NoSkillsPlan, advice.Plan)
	assert.Zero(t, gen.calls.Load())
}

func TestAdviceService_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"generator error", &fakeGenerator{err: errors.New("upstream 503")}},
		{"timeout", &fakeGenerator{block: true}},
		{"empty answer", &fakeGenerator{plan: "   "}},
		{"not configured", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			user := store.seedUser(model.User{Name: "Ada"})
			store.seedSkill(user.ID, "Go")

			var gen advisor.Generator = advisor.Disabled{}
			if tt.gen != nil {
				gen = tt.gen
			}
			svc := newTestAdviceService(store, gen, newTestClock(), cooldown.NewMemoryStore())

			advice, err := svc.RequestAdvice(context.Background(), user.ID)
			require.NoError(t, err)
			assert.Equal(t, advisor.FallbackPlan, advice.Plan)
			assert.True(t, advice.Fallback)
		})
	}
}

func TestAdviceService_CooldownStoreDownFailsOpen(t *testing.T) {
	store := newFakeStore()
	user := store.seedUser(model.User{Name: "Ada"})
	store.seedSkill(user.ID, "Go")
	gen := &fakeGenerator{plan: "plan"}
	svc := newTestAdviceService(store, gen, newTestClock(), brokenCooldownStore{})

	for i := 0; i < 2; i++ {
		advice, err := svc.RequestAdvice(context.Background(), user.ID)
		require.NoError(t, err)
		assert.False(t, advice.RateLimited)
	}
	assert.Equal(t, int32(2), gen.calls.Load())
}

func TestAdviceService_StorageError(t *testing.T) {
	store := newFakeStore()
	user := store.seedUser(model.User{Name: "Ada"})
	dbErr := errors.New("db gone")
	store.failOn["SkillStats"] = dbErr
	svc := newTestAdviceService(store, &fakeGenerator{plan: "x"}, newTestClock(), cooldown.NewMemoryStore())

	_, err := svc.RequestAdvice(context.Background(), user.ID)
	assert.ErrorIs(t, err, dbErr)
}
