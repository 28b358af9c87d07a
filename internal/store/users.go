package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/agusespa/securecode/internal/types"
)

func (s *Store) AddUser(ctx context.Context, username, passwordHash string) (int64, error) {
	query := s.rebind(`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?) RETURNING id`)

	var id int64
	err := s.db.QueryRowContext(ctx, query, username, passwordHash, s.timestamp()).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrUsernameTaken
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}

	s.logger.Info("user created", zap.Int64("user_id", id), zap.String("username", username))
	return id, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	query := s.rebind(`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`)

	var user types.User
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	user.CreatedAt, err = types.ParseTimestamp(createdAt)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", user.ID, err)
	}
	return &user, nil
}
