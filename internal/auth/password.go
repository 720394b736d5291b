package auth

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// PASSWORD STORAGE:
// bcrypt salts every hash and embeds salt and cost in its output
// ("$2a$12$<salt><hash>"), so the users table needs a single column and
// two identical passwords never produce the same hash.

// defaultCost is the bcrypt work factor: roughly 250ms per hash on a modern
// server. Slow enough to hurt offline guessing, fast enough for a login.
const defaultCost = 12

// Password length bounds. bcrypt ignores everything after byte 72, so longer
// inputs are rejected instead of silently truncated.
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
)

var (
	// ErrInvalidPassword is returned by Verify when the password does not match.
	ErrInvalidPassword = errors.New("auth: invalid password")
	ErrPasswordTooLong = fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordBytes)
)

// PasswordService hashes and verifies passwords. The cost is a field so tests
// can drop it to bcrypt.MinCost.
type PasswordService struct {
	cost int
}

// NewPasswordService uses the default cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

func newPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// NewPasswordServiceForTest lets tests in other packages use a cheap cost.
// Never use it in production.
func NewPasswordServiceForTest() *PasswordService {
	return newPasswordServiceWithCost(bcrypt.MinCost)
}

// CheckStrength enforces the registration length rules.
func CheckStrength(plaintext string) error {
	if utf8.RuneCountInString(plaintext) < MinPasswordLength {
		return fmt.Errorf("auth: password must be at least %d characters", MinPasswordLength)
	}
	if len(plaintext) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// Hash returns the bcrypt hash of plaintext.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plaintext matches hash and ErrInvalidPassword when
// it does not. The comparison is constant-time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
