package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mcoot/reactimer/internal/model"
	"github.com/mcoot/reactimer/internal/storage"
)

// Storage implements storage.Storage on PostgreSQL
type Storage struct{ db *DB }

// New creates a storage over an open pool
func New(db *DB) *Storage { return &Storage{db: db} }

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// CreateUser inserts a user; the primary key on username rejects duplicates
func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	const q = `
INSERT INTO users (username, password_hash, created_at)
VALUES ($1, $2, $3)`
	_, err := s.db.Pool.Exec(ctx, q, user.Username, user.PasswordHash, user.CreatedAt)
	if isUniqueViolation(err) {
		return model.ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByUsername selects a user by normalized username
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	const q = `
SELECT username, password_hash, created_at
FROM users WHERE username=$1`
	var u model.User
	err := s.db.Pool.QueryRow(ctx, q, username).Scan(&u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// InsertScore inserts a record; the primary key on id turns collisions into conflicts
func (s *Storage) InsertScore(ctx context.Context, record *model.ScoreRecord) error {
	const q = `
INSERT INTO scores (id, owner, display_name, elapsed_ms, score, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.Pool.Exec(ctx, q,
		int64(record.ID), record.Owner, record.DisplayName, record.ElapsedMs, record.Score, record.CreatedAt)
	if isUniqueViolation(err) {
		return model.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

// ListScores returns the owner's records ranked by elapsed time, then id
func (s *Storage) ListScores(ctx context.Context, owner string) ([]model.ScoreRecord, error) {
	const q = `
SELECT id, owner, display_name, elapsed_ms, score, created_at
FROM scores WHERE owner=$1
ORDER BY elapsed_ms ASC, id ASC`
	rows, err := s.db.Pool.Query(ctx, q, owner)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	records := []model.ScoreRecord{}
	for rows.Next() {
		var (
			id, elapsed, score int64
			r                  model.ScoreRecord
			createdAt          time.Time
		)
		if err := rows.Scan(&id, &r.Owner, &r.DisplayName, &elapsed, &score, &createdAt); err != nil {
			return nil, fmt.Errorf("list scores: %w", err)
		}
		r.ID = model.ScoreID(id)
		r.ElapsedMs = elapsed
		r.Score = score
		r.CreatedAt = createdAt
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return records, nil
}

// RenameScore updates the display name; zero affected rows is not an error
func (s *Storage) RenameScore(ctx context.Context, owner string, id model.ScoreID, displayName string) error {
	const q = `
UPDATE scores SET display_name=$3
WHERE id=$1 AND owner=$2`
	if _, err := s.db.Pool.Exec(ctx, q, int64(id), owner, displayName); err != nil {
		return fmt.Errorf("rename score: %w", err)
	}
	return nil
}

// DeleteScore removes the record; zero affected rows is not an error
func (s *Storage) DeleteScore(ctx context.Context, owner string, id model.ScoreID) error {
	const q = `
DELETE FROM scores
WHERE id=$1 AND owner=$2`
	if _, err := s.db.Pool.Exec(ctx, q, int64(id), owner); err != nil {
		return fmt.Errorf("delete score: %w", err)
	}
	return nil
}

// Ping checks the pool
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Pool.Ping(ctx)
}

// Close closes the pool
func (s *Storage) Close() error {
	s.db.Pool.Close()
	return nil
}
