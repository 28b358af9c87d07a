// Package auth registers users and checks their credentials.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/agusespa/securecode/internal/store"
	"github.com/agusespa/securecode/internal/types"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrUsernameTaken      = store.ErrUsernameTaken
)

// UserStore is the persistence the service needs.
type UserStore interface {
	AddUser(ctx context.Context, username, passwordHash string) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*types.User, error)
}

type Service struct {
	users  UserStore
	cost   int
	logger *zap.Logger
}

func NewService(users UserStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, cost: bcrypt.DefaultCost, logger: logger}
}

func (s *Service) Register(ctx context.Context, username, password, confirm string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return 0, ErrMissingCredentials
	}
	if password != confirm {
		return 0, ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := s.users.AddUser(ctx, username, string(hash))
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login rejected", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
