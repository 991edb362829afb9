package storage

import (
	"context"

	"github.com/mcoot/reactimer/internal/model"
)

// Storage defines the interface for data persistence.
// Every operation is independently atomic; uniqueness violations are reported as
// model.ErrUsernameTaken and model.ErrConflict rather than overwriting.
type Storage interface {
	// User operations
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)

	// Score operations, always scoped to one owner
	InsertScore(ctx context.Context, record *model.ScoreRecord) error
	ListScores(ctx context.Context, owner string) ([]model.ScoreRecord, error)
	RenameScore(ctx context.Context, owner string, id model.ScoreID, displayName string) error
	DeleteScore(ctx context.Context, owner string, id model.ScoreID) error

	// Ping reports whether the backend is reachable
	Ping(ctx context.Context) error

	// Close releases the backend connection
	Close() error
}
