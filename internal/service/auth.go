package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/skill-tracker/internal/apperror"
	"github.com/sakif/skill-tracker/internal/auth"
	"github.com/sakif/skill-tracker/internal/gamification"
	"github.com/sakif/skill-tracker/internal/model"
	"github.com/sakif/skill-tracker/internal/repository"
)

const MaxUserNameLength = 100

// errBadCredentials deliberately does not say whether the email or the
// password was wrong.
var errBadCredentials = apperror.Unauthorized("invalid email or password")

// AuthService handles registration, password login, GitHub sign-in and the
// profile lookup behind /api/me.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user and the issued JWT so the handler can set the
// cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Profile is the /api/me payload: the account plus its progress bars.
type Profile struct {
	User  *model.User            `json:"user"`
	Stats gamification.UserStats `json:"stats"`
}

// Register creates a password account and signs it in. A taken email is
// apperror.ErrConflict.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxUserNameLength {
		return nil, apperror.ValidationFailed("name", fmt.Sprintf("name must be %d characters or less", MaxUserNameLength))
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}
	if err := auth.CheckStrength(password); err != nil {
		return nil, apperror.ValidationFailed("password", strings.TrimPrefix(err.Error(), "auth: "))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Level:        1,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: registering %s: %w", email, err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))
	return s.issue(user)
}

// Login checks email and password. Unknown emails, GitHub-only accounts and
// wrong passwords all produce the same apperror.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("credentials", "email and password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}
	if user.PasswordHash == "" {
		return nil, errBadCredentials
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Warn("failed login", slog.String("userID", user.ID))
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	return s.issue(user)
}

// LoginOrRegisterGitHub upserts the account linked to the GitHub ID and
// signs it in. Returning users keep their ID and progress.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		Name:      ghUser.DisplayName(),
		Email:     ghUser.Email,
		GitHubID:  ghUser.ID,
		AvatarURL: ghUser.AvatarURL,
		Level:     1,
	}
	if err := s.users.UpsertGitHubUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", ghUser.Login),
	)
	return s.issue(user)
}

// Me returns the caller's profile and level progress.
func (s *AuthService) Me(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("not signed in")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}
	return &Profile{User: user, Stats: gamification.StatsFor(*user)}, nil
}

// TokenMaxAge is the session cookie's Max-Age in seconds; it matches the
// token TTL.
func (s *AuthService) TokenMaxAge() int {
	return int(s.tokens.TTL().Seconds())
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
