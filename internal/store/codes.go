package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/agusespa/securecode/internal/types"
)

// SaveCode records a submission. output is nil for a scan that has not been
// resolved.
func (s *Store) SaveCode(ctx context.Context, userID int64, title, language, input string, output *string) (int64, error) {
	query := s.rebind(`INSERT INTO code_submissions (user_id, title, language, input_code, output_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)

	var out sql.NullString
	if output != nil {
		out = sql.NullString{String: *output, Valid: true}
	}

	var id int64
	err := s.db.QueryRowContext(ctx, query, userID, title, language, input, out, s.timestamp()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save code: %w", err)
	}

	s.logger.Debug("code saved",
		zap.Int64("submission_id", id),
		zap.Int64("user_id", userID),
		zap.Bool("resolved", output != nil))
	return id, nil
}

// GetRecentCodes returns a user's submissions newest first. A non-positive
// limit returns all of them.
func (s *Store) GetRecentCodes(ctx context.Context, userID int64, limit int) ([]types.Submission, error) {
	query := `SELECT id, user_id, title, language, input_code, output_code, created_at
		FROM code_submissions WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query codes: %w", err)
	}
	defer rows.Close()

	subs := []types.Submission{}
	for rows.Next() {
		var sub types.Submission
		var output sql.NullString
		var createdAt string
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Title, &sub.Language, &sub.InputCode, &output, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan code row: %w", err)
		}
		if output.Valid {
			sub.OutputCode = &output.String
		}
		sub.CreatedAt, err = types.ParseTimestamp(createdAt)
		if err != nil {
			return nil, fmt.Errorf("submission %d: %w", sub.ID, err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate codes: %w", err)
	}

	return subs, nil
}
