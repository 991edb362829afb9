package memory

import (
	"context"
	"sync"

	"github.com/mcoot/reactimer/internal/model"
	"github.com/mcoot/reactimer/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	users       map[string]*model.User
	scores      map[model.ScoreID]*model.ScoreRecord
	ownerScores map[string]map[model.ScoreID]struct{}
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users:       make(map[string]*model.User),
		scores:      make(map[model.ScoreID]*model.ScoreRecord),
		ownerScores: make(map[string]map[model.ScoreID]struct{}),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Username]; ok {
		return model.ErrUsernameTaken
	}
	u := *user
	s.users[user.Username] = &u
	return nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

// Score operations

func (s *Storage) InsertScore(ctx context.Context, record *model.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scores[record.ID]; ok {
		return model.ErrConflict
	}
	r := *record
	s.scores[record.ID] = &r

	ids, ok := s.ownerScores[record.Owner]
	if !ok {
		ids = make(map[model.ScoreID]struct{})
		s.ownerScores[record.Owner] = ids
	}
	ids[record.ID] = struct{}{}
	return nil
}

func (s *Storage) ListScores(ctx context.Context, owner string) ([]model.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.ownerScores[owner]
	records := make([]model.ScoreRecord, 0, len(ids))
	for id := range ids {
		records = append(records, *s.scores[id])
	}
	model.SortScores(records)
	return records, nil
}

func (s *Storage) RenameScore(ctx context.Context, owner string, id model.ScoreID, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.scores[id]
	if !ok || record.Owner != owner {
		return nil
	}
	record.DisplayName = displayName
	return nil
}

func (s *Storage) DeleteScore(ctx context.Context, owner string, id model.ScoreID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.scores[id]
	if !ok || record.Owner != owner {
		return nil
	}
	delete(s.scores, id)
	delete(s.ownerScores[owner], id)
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

func (s *Storage) Close() error {
	return nil
}
