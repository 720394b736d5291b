// Package advisor writes short learning plans from a user's skill progress
// using an OpenAI-compatible chat completion endpoint.
package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/sakif/skill-tracker/internal/gamification"
	"github.com/sakif/skill-tracker/internal/model"
)

// FallbackPlan is returned whenever generation fails or times out.
const FallbackPlan = "AI unavailable. Focus on completing 1 task per skill daily."

// NoSkillsPlan is returned without calling the model when there is nothing to plan.
const NoSkillsPlan = "Add some skills to get AI-powered learning recommendations!"

const systemPrompt = "You are a productivity coach."

// Generator produces a plan from a prompt describing the user's skills.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// BuildPrompt renders one line per skill plus the planning instruction.
func BuildPrompt(stats []model.SkillStats) string {
	var b strings.Builder
	b.WriteString("User skills and progress:\n\n")
	for _, s := range stats {
		pct := gamification.CompletionRatio(s) * 100
		fmt.Fprintf(&b, "- %s: %d/%d tasks (%.0f%%)", s.Name, s.CompletedTasks, s.TotalTasks, pct)
		if s.GoalDate != nil {
			fmt.Fprintf(&b, ", goal %s", s.GoalDate.Format("2006-01-02"))
		}
		b.WriteByte('\n')
	}
	b.WriteString("\nCreate a 7-day focused learning & productivity plan.\n")
	b.WriteString("Keep it short, actionable, and motivating.\n")
	return b.String()
}

// Disabled is a Generator that always fails; used when no API key is configured.
type Disabled struct{}

func (Disabled) Generate(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}
