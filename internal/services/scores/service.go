// Package scores implements the per-user score repository
package scores

import (
	"context"

	"github.com/mcoot/reactimer/internal/dependencies/clock"
	"github.com/mcoot/reactimer/internal/model"
	"github.com/mcoot/reactimer/internal/storage"
)

// Service manages score records. Every operation is scoped to the caller's Principal
// and returns the owner's freshly ranked list.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
}

// New creates a new score Service
func New(storage storage.Storage, clock clock.Clock) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
	}
}

// List returns the principal's records ranked best first
func (s *Service) List(ctx context.Context, p model.Principal) ([]model.ScoreRecord, error) {
	if p.Username == "" {
		return nil, model.ErrAuthRequired
	}
	records, err := s.storage.ListScores(ctx, p.Username)
	if err != nil {
		return nil, err
	}
	model.SortScores(records)
	return records, nil
}

// Submit saves a new record for the principal.
// An id collision fails with model.ErrConflict; callers may retry to get a fresh id.
func (s *Service) Submit(ctx context.Context, p model.Principal, displayName string, elapsedMs float64) ([]model.ScoreRecord, error) {
	if p.Username == "" {
		return nil, model.ErrAuthRequired
	}
	elapsed, ok := model.NormalizeElapsed(elapsedMs)
	if !ok {
		return nil, model.ErrInvalidElapsed
	}

	now := s.clock.Now()
	record := &model.ScoreRecord{
		ID:          model.ScoreID(now.UnixMilli()),
		Owner:       p.Username,
		DisplayName: model.NormalizeDisplayName(displayName),
		ElapsedMs:   elapsed,
		Score:       model.ComputeScore(elapsed),
		CreatedAt:   now,
	}
	if err := s.storage.InsertScore(ctx, record); err != nil {
		return nil, err
	}

	return s.List(ctx, p)
}

// Rename changes the display name of one of the principal's records.
// A record that does not exist or belongs to someone else is left untouched.
func (s *Service) Rename(ctx context.Context, p model.Principal, id float64, displayName string) ([]model.ScoreRecord, error) {
	if p.Username == "" {
		return nil, model.ErrAuthRequired
	}
	scoreID, valid, match := model.ParseScoreID(id)
	if !valid {
		return nil, model.ErrInvalidScoreID
	}
	name, ok := model.NormalizeRename(displayName)
	if !ok {
		return nil, model.ErrNameRequired
	}

	if match {
		if err := s.storage.RenameScore(ctx, p.Username, scoreID, name); err != nil {
			return nil, err
		}
	}

	return s.List(ctx, p)
}

// Delete removes one of the principal's records; absence is not an error
func (s *Service) Delete(ctx context.Context, p model.Principal, id float64) ([]model.ScoreRecord, error) {
	if p.Username == "" {
		return nil, model.ErrAuthRequired
	}
	scoreID, valid, match := model.ParseScoreID(id)
	if !valid {
		return nil, model.ErrInvalidScoreID
	}

	if match {
		if err := s.storage.DeleteScore(ctx, p.Username, scoreID); err != nil {
			return nil, err
		}
	}

	return s.List(ctx, p)
}
