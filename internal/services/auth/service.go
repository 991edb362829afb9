package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/reactimer/internal/dependencies/clock"
	"github.com/mcoot/reactimer/internal/model"
	"github.com/mcoot/reactimer/internal/session"
	"github.com/mcoot/reactimer/internal/storage"
)

// Mode reports whether an upsert registered a new account or logged in
type Mode string

const (
	ModeRegister Mode = "register"
	ModeLogin    Mode = "login"
)

// Result is the outcome of a successful upsert
type Result struct {
	Mode     Mode
	Username string
	Token    string
}

// Service handles credential upsert and session issuance
type Service struct {
	storage  storage.Storage
	clock    clock.Clock
	sessions *session.Manager

	bcryptCost int
}

// Config holds configuration for the auth service
type Config struct {
	BcryptCost int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		BcryptCost: 10,
	}
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, sessions *session.Manager, cfg Config) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultConfig().BcryptCost
	}
	return &Service{
		storage:    storage,
		clock:      clock,
		sessions:   sessions,
		bcryptCost: cfg.BcryptCost,
	}
}

// Upsert logs in an existing user or registers an unseen username
func (s *Service) Upsert(ctx context.Context, username, password string) (*Result, error) {
	username = model.NormalizeUsername(username)
	if username == "" {
		return nil, model.ErrInvalidUsername
	}

	user, err := s.storage.GetUserByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		return s.register(ctx, username, password)
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return s.issue(ModeLogin, username)
}

// CurrentUser returns the username bound to a session token, if any
func (s *Service) CurrentUser(token string) (string, bool) {
	claims, ok := s.sessions.Verify(token)
	if !ok {
		return "", false
	}
	return claims.Username, true
}

// register hashes the password and creates the user; a lost race surfaces as ErrUsernameTaken
func (s *Service) register(ctx context.Context, username, password string) (*Result, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, fmt.Errorf("%w: password too long", model.ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	}
	if err := s.storage.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return s.issue(ModeRegister, username)
}

func (s *Service) issue(mode Mode, username string) (*Result, error) {
	token, err := s.sessions.Issue(username)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &Result{Mode: mode, Username: username, Token: token}, nil
}
