package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/sakif/skill-tracker/internal/apperror"
	"github.com/sakif/skill-tracker/internal/clock"
	"github.com/sakif/skill-tracker/internal/model"
	"github.com/sakif/skill-tracker/internal/repository"
)

const (
	MaxSkillNameLength   = 100
	MaxDescriptionLength = 2000
	DefaultCategory      = "other"
	DefaultPriority      = 1
)

// SkillInput is the create/update payload. GoalDate is "YYYY-MM-DD" or
// empty for no deadline.
type SkillInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Priority    int     `json:"priority"`
	TargetHours float64 `json:"targetHours"`
	GoalDate    string  `json:"goalDate"`
}

// SkillService handles skill CRUD. Hours spent are maintained by the
// progress service and cannot be set here.
type SkillService struct {
	repo   repository.SkillRepository
	logger *slog.Logger
}

func NewSkillService(repo repository.SkillRepository, logger *slog.Logger) *SkillService {
	return &SkillService{repo: repo, logger: logger}
}

// apply validates and normalises in, then copies it onto skill.
func (in SkillInput) apply(skill *model.Skill) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return apperror.ValidationFailed("name", "skill name is required")
	}
	if len(name) > MaxSkillNameLength {
		return apperror.ValidationFailed("name", fmt.Sprintf("skill name must be %d characters or less", MaxSkillNameLength))
	}

	description := strings.TrimSpace(in.Description)
	if len(description) > MaxDescriptionLength {
		return apperror.ValidationFailed("description", fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}

	category := strings.ToLower(strings.TrimSpace(in.Category))
	if category == "" {
		category = DefaultCategory
	}
	if !slices.Contains(model.SkillCategories, category) {
		return apperror.ValidationFailed("category",
			fmt.Sprintf("category must be one of: %s", strings.Join(model.SkillCategories, ", ")))
	}

	priority := in.Priority
	if priority == 0 {
		priority = DefaultPriority
	}
	if priority < 1 || priority > 3 {
		return apperror.ValidationFailed("priority", "priority must be 1 (low), 2 (medium) or 3 (high)")
	}

	if in.TargetHours < 0 {
		return apperror.ValidationFailed("targetHours", "targetHours must not be negative")
	}

	var goal *time.Time
	if g := strings.TrimSpace(in.GoalDate); g != "" {
		d, err := clock.ParseDate(g)
		if err != nil {
			return apperror.ValidationFailed("goalDate", "goalDate must be a date in YYYY-MM-DD format")
		}
		goal = &d
	}

	skill.Name = name
	skill.Description = description
	skill.Category = category
	skill.Priority = priority
	skill.TargetHours = in.TargetHours
	skill.GoalDate = goal
	return nil
}

func (s *SkillService) Create(ctx context.Context, userID string, in SkillInput) (*model.Skill, error) {
	skill := &model.Skill{UserID: userID}
	if err := in.apply(skill); err != nil {
		return nil, err
	}

	if err := s.repo.CreateSkill(ctx, skill); err != nil {
		return nil, fmt.Errorf("service/skill: creating skill: %w", err)
	}

	s.logger.Info("skill created",
		slog.String("skillID", skill.ID),
		slog.String("userID", userID),
		slog.String("category", skill.Category),
	)
	return skill, nil
}

func (s *SkillService) Get(ctx context.Context, userID, id string) (*model.Skill, error) {
	skill, err := s.repo.GetSkill(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("service/skill: getting skill %s: %w", id, err)
	}
	return skill, nil
}

func (s *SkillService) List(ctx context.Context, userID string) ([]model.Skill, error) {
	skills, err := s.repo.ListSkills(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/skill: listing skills: %w", err)
	}
	return skills, nil
}

// Update replaces the editable fields of an existing skill.
func (s *SkillService) Update(ctx context.Context, userID, id string, in SkillInput) (*model.Skill, error) {
	skill, err := s.repo.GetSkill(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("service/skill: getting skill %s: %w", id, err)
	}
	if err := in.apply(skill); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateSkill(ctx, skill); err != nil {
		return nil, fmt.Errorf("service/skill: updating skill %s: %w", id, err)
	}
	return skill, nil
}

// Delete removes the skill together with its tasks.
func (s *SkillService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteSkill(ctx, userID, id); err != nil {
		return fmt.Errorf("service/skill: deleting skill %s: %w", id, err)
	}

	s.logger.Info("skill deleted", slog.String("skillID", id), slog.String("userID", userID))
	return nil
}
