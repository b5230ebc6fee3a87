package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	domain "github.com/tyumu/Roamloid/domain/user"
	"github.com/google/uuid"
)

var (
	// ErrCredentialsRequired is returned when username or password is missing.
	ErrCredentialsRequired = errors.New("Username and password are required.")
	// ErrUsernameInvalid is returned when the username contains forbidden characters.
	ErrUsernameInvalid = errors.New("Username can only contain alphanumeric characters and underscores.")
	// ErrUsernameTaken is returned when the username is already registered.
	ErrUsernameTaken = errors.New("This username is already taken.")
	// ErrPasswordTooShort is returned when the password has fewer than 8 characters.
	ErrPasswordTooShort = errors.New("Password must be at least 8 characters long.")
	// ErrPasswordTooWeak is returned when the password lacks letters or digits.
	ErrPasswordTooWeak = errors.New("Password must contain both letters and numbers.")
	// ErrInvalidCredentials is returned when login credentials do not match.
	ErrInvalidCredentials = errors.New("Invalid username or password.")
	// ErrPasswordsRequired is returned when old or new password is missing.
	ErrPasswordsRequired = errors.New("Old password and new password are required.")
	// ErrPasswordUnchanged is returned when the new password equals the old one.
	ErrPasswordUnchanged = errors.New("New password must be different from old password.")
	// ErrNewPasswordTooShort is returned when the new password has fewer than 8 characters.
	ErrNewPasswordTooShort = errors.New("New password must be at least 8 characters long.")
	// ErrNewPasswordTooWeak is returned when the new password lacks letters or digits.
	ErrNewPasswordTooWeak = errors.New("New password must contain both letters and numbers.")
	// ErrOldPasswordIncorrect is returned when the old password does not verify.
	ErrOldPasswordIncorrect = errors.New("Old password is incorrect.")
)

var (
	usernameRe = regexp.MustCompile(`^\w+$`)
	letterRe   = regexp.MustCompile(`[A-Za-z]`)
	digitRe    = regexp.MustCompile(`\d`)
)

// AuthService handles account and session business logic.
type AuthService struct {
	repo   *UserRepository
	hasher *PasswordHasher
	jwt    *JWTManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, jwt *JWTManager) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		jwt:    jwt,
	}
}

// validatePasswordStrength checks the shared password rules.
func validatePasswordStrength(password string, tooShort, tooWeak error) error {
	if len(password) < 8 {
		return tooShort
	}
	if !letterRe.MatchString(password) || !digitRe.MatchString(password) {
		return tooWeak
	}
	return nil
}

// Signup creates a new user account.
func (s *AuthService) Signup(_ context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, ErrCredentialsRequired
	}
	if !usernameRe.MatchString(username) {
		return nil, ErrUsernameInvalid
	}

	exists, err := s.repo.UsernameExists(username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username existence: %w", err)
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	if err := validatePasswordStrength(password, ErrPasswordTooShort, ErrPasswordTooWeak); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user and returns a session token.
func (s *AuthService) Login(_ context.Context, username, password string) (*domain.Session, error) {
	if username == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	user, err := s.repo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	return &domain.Session{
		Token:     token,
		ExpiresIn: s.jwt.SessionTokenDuration(),
		TokenType: "Bearer",
	}, nil
}

// ChangePassword verifies the old password and stores a new hash.
func (s *AuthService) ChangePassword(_ context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return ErrPasswordsRequired
	}
	if oldPassword == newPassword {
		return ErrPasswordUnchanged
	}
	if err := validatePasswordStrength(newPassword, ErrNewPasswordTooShort, ErrNewPasswordTooWeak); err != nil {
		return err
	}

	user, err := s.repo.FindByID(userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return ErrOldPasswordIncorrect
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePasswordHash(userID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// ValidateToken validates a session token and returns its claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	return &domain.Claims{
		UserID:   claims.UserID,
		Username: claims.Username,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(_ context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(userID)
}

// DeleteUser removes a user account and everything owned by it.
func (s *AuthService) DeleteUser(_ context.Context, userID string) error {
	return s.repo.Delete(userID)
}
