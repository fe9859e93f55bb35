package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/prowe12/plantswap/internal/models"
	"github.com/prowe12/plantswap/internal/store"
)

const (
	maxUsernameLen = 50
	dummyPassword  = "plantswap-dummy-password"
)

// CredentialStore is the persistence the auth service needs.
type CredentialStore interface {
	CredentialFinder
	Insert(ctx context.Context, username, passwordHash string) (*models.User, error)
	SetActive(ctx context.Context, username string, active bool) error
}

// TokenIssuer mints bearer tokens for a subject.
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (string, error)
}

// Service implements registration, login and account activation.
type Service struct {
	users     CredentialStore
	hasher    PasswordHasher
	tokens    TokenIssuer
	tokenTTL  time.Duration
	log       *slog.Logger
	dummyHash string
}

func NewService(users CredentialStore, hasher PasswordHasher, tokens TokenIssuer, tokenTTL time.Duration, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	// Compared against on unknown usernames so both login failures cost a hash.
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		log.Warn("hasher rejected dummy password, using bcrypt default cost", "error", err)
		b, _ := bcrypt.GenerateFromPassword([]byte(dummyPassword), bcrypt.DefaultCost)
		dummy = string(b)
	}
	return &Service{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		tokenTTL:  tokenTTL,
		log:       log,
		dummyHash: dummy,
	}
}

// Register creates an active user with a hashed password.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if password == "" || len(password) > MaxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be 1 to %d bytes", ErrInvalidInput, MaxPasswordBytes)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Insert(ctx, username, hash)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("register %q: %w", username, err)
	}
	s.log.InfoContext(ctx, "user registered", "username", username, "id", user.ID)
	return user, nil
}

// Login checks the credentials and mints an access token valid for the
// configured ttl.
func (s *Service) Login(ctx context.Context, username, password string) (*models.TokenResponse, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("login lookup: %w", err)
		}
		s.hasher.Verify(password, s.dummyHash)
		s.log.DebugContext(ctx, "login rejected", "username", username, "reason", "unknown user")
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.DebugContext(ctx, "login rejected", "username", username, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &models.TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

// SetActive enables or disables an account. Disabled accounts keep logging in
// but are refused by the Authenticator.
func (s *Service) SetActive(ctx context.Context, username string, active bool) error {
	if err := s.users.SetActive(ctx, username, active); err != nil {
		return fmt.Errorf("set active %q: %w", username, err)
	}
	s.log.InfoContext(ctx, "user activation changed", "username", username, "active", active)
	return nil
}

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n == 0 || n > maxUsernameLen {
		return fmt.Errorf("%w: username must be 1 to %d characters", ErrInvalidInput, maxUsernameLen)
	}
	if strings.TrimSpace(username) != username {
		return fmt.Errorf("%w: username has leading or trailing spaces", ErrInvalidInput)
	}
	return nil
}
