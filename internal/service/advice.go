package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/skill-tracker/internal/advisor"
	"github.com/sakif/skill-tracker/internal/clock"
	"github.com/sakif/skill-tracker/internal/cooldown"
	"github.com/sakif/skill-tracker/internal/repository"
)

// DefaultAdviceTimeout bounds one call to the generator.
const DefaultAdviceTimeout = 20 * time.Second

// Advice is the learning-plan response. A rate-limited request carries no
// plan, only the seconds until the next allowed call.
type Advice struct {
	Plan              string `json:"plan,omitempty"`
	RateLimited       bool   `json:"rateLimited"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"`
	Fallback          bool   `json:"fallback"`
}

type AdviceService struct {
	skills    repository.SkillRepository
	gate      *cooldown.Gate
	generator advisor.Generator
	clock     clock.Clock
	timeout   time.Duration
	logger    *slog.Logger
}

func NewAdviceService(
	skills repository.SkillRepository,
	gate *cooldown.Gate,
	generator advisor.Generator,
	clk clock.Clock,
	timeout time.Duration,
	logger *slog.Logger,
) *AdviceService {
	if timeout <= 0 {
		timeout = DefaultAdviceTimeout
	}
	return &AdviceService{
		skills:    skills,
		gate:      gate,
		generator: generator,
		clock:     clk,
		timeout:   timeout,
		logger:    logger,
	}
}

// RequestAdvice returns a 7-day learning plan for the user.
//
// The cooldown gate runs first; a blocked call is answered with the wait and
// never reaches the generator. Generator failures and timeouts degrade to
// advisor.FallbackPlan, so the only errors returned are storage errors.
func (s *AdviceService) RequestAdvice(ctx context.Context, userID string) (*Advice, error) {
	decision := s.gate.Check(ctx, userID, s.clock.Now())
	if !decision.Allowed {
		return &Advice{
			RateLimited:       true,
			RetryAfterSeconds: decision.RetryAfterSeconds(),
		}, nil
	}

	stats, err := s.skills.SkillStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/advice: loading skill stats: %w", err)
	}
	if len(stats) == 0 {
		return &Advice{Plan: advisor.NoSkillsPlan}, nil
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	plan, err := s.generator.Generate(genCtx, advisor.BuildPrompt(stats))
	if err == nil {
		plan = strings.TrimSpace(plan)
	}
	if err != nil || plan == "" {
		attrs := []any{slog.String("userID", userID), slog.Duration("elapsed", time.Since(start))}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		s.logger.Warn("advice generation failed, using fallback", attrs...)
		return &Advice{Plan: advisor.FallbackPlan, Fallback: true}, nil
	}

	s.logger.Info("advice generated",
		slog.String("userID", userID),
		slog.Int("skills", len(stats)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return &Advice{Plan: plan}, nil
}
