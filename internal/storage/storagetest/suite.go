// Package storagetest holds the behavioural contract every storage engine must satisfy
package storagetest

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/reactimer/internal/model"
	"github.com/mcoot/reactimer/internal/storage"
)

// Suite runs the storage contract against the engine returned by NewStorage.
// Engines embed it and set NewStorage in their own SetupTest.
type Suite struct {
	suite.Suite
	NewStorage func() storage.Storage

	Storage storage.Storage
	Ctx     context.Context
}

// SetupTest creates a fresh engine for each test
func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewStorage, "NewStorage must be set before SetupTest")
	s.Storage = s.NewStorage()
	s.Ctx = context.Background()
}

// TearDownTest closes the engine
func (s *Suite) TearDownTest() {
	if s.Storage != nil {
		_ = s.Storage.Close()
	}
}

func (s *Suite) record(owner string, id model.ScoreID, elapsed int64) *model.ScoreRecord {
	return &model.ScoreRecord{
		ID:          id,
		Owner:       owner,
		DisplayName: "Player",
		ElapsedMs:   elapsed,
		Score:       model.ComputeScore(elapsed),
		CreatedAt:   time.UnixMilli(int64(id)).UTC(),
	}
}

func (s *Suite) ids(records []model.ScoreRecord) []model.ScoreID {
	ids := make([]model.ScoreID, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

// User tests

func (s *Suite) TestCreateAndGetUser() {
	user := &model.User{Username: "alice", PasswordHash: "hash", CreatedAt: time.Now().UTC()}

	s.Require().NoError(s.Storage.CreateUser(s.Ctx, user))

	got, err := s.Storage.GetUserByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal("alice", got.Username)
	s.Equal("hash", got.PasswordHash)
}

func (s *Suite) TestGetUserNotFound() {
	_, err := s.Storage.GetUserByUsername(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *Suite) TestCreateUserDuplicateIsRejected() {
	s.Require().NoError(s.Storage.CreateUser(s.Ctx, &model.User{Username: "alice", PasswordHash: "first"}))

	err := s.Storage.CreateUser(s.Ctx, &model.User{Username: "alice", PasswordHash: "second"})
	s.ErrorIs(err, model.ErrUsernameTaken)

	got, err := s.Storage.GetUserByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal("first", got.PasswordHash, "existing user must not be overwritten")
}

func (s *Suite) TestConcurrentCreateUserSingleWinner() {
	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Storage.CreateUser(s.Ctx, &model.User{Username: "alice", PasswordHash: "h"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			s.ErrorIs(err, model.ErrUsernameTaken)
		}
	}
	s.Equal(1, succeeded)
}

// Score tests

func (s *Suite) TestListScoresEmpty() {
	records, err := s.Storage.ListScores(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Empty(records)
}

func (s *Suite) TestInsertAndListRanked() {
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.record("alice", 1000, 200)))
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.record("alice", 1001, 100)))
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.record("alice", 1002, 200)))

	records, err := s.Storage.ListScores(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal([]model.ScoreID{1001, 1000, 1002}, s.ids(records))

	s.Equal("alice", records[0].Owner)
	s.Equal(int64(100), records[0].ElapsedMs)
	s.Equal(model.ComputeScore(100), records[0].Score)
	s.Equal("Player", records[0].DisplayName)
}

func (s *Suite) TestInsertDuplicateIDIsConflict() {
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.record("alice", 1000, 200)))

	err := s.Storage.InsertScore(s.Ctx, s.record("bob", 1000, 50))
	s.ErrorIs(err, model.ErrConflict)

	records, err := s.Storage.ListScores(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(int64(200), records[0].ElapsedMs, "existing record must not be overwritten")

	bobs, err := s.Storage.ListScores(s.Ctx, "bob")
	s.Require().NoError(err)
	s.Empty(bobs)
}

func (s *Suite) TestListScoresIsOwnerScoped() {
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.record("alice", 1000, 200)))
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.record("bob", 1001, 100)))

	records, err := s.Storage.ListScores(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal("alice", records[0].Owner)
}

func (s *Suite) TestRenameScore() {
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.record("alice", 1000, 200)))

	s.Require().NoError(s.Storage.RenameScore(s.Ctx, "alice", 1000, "Renamed"))

	records, err := s.Storage.ListScores(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal("Renamed", records[0].DisplayName)
	s.Equal(int64(200), records[0].ElapsedMs)
}

func (s *Suite) TestRenameForeignOrMissingIsNoop() {
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.record("alice", 1000, 200)))

	s.Require().NoError(s.Storage.RenameScore(s.Ctx, "bob", 1000, "Hijacked"))
	s.Require().NoError(s.Storage.RenameScore(s.Ctx, "alice", 9999, "Ghost"))

	records, err := s.Storage.ListScores(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal("Player", records[0].DisplayName)
}

func (s *Suite) TestDeleteScore() {
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.record("alice", 1000, 200)))
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.record("alice", 1001, 300)))

	s.Require().NoError(s.Storage.DeleteScore(s.Ctx, "alice", 1000))

	records, err := s.Storage.ListScores(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal([]model.ScoreID{1001}, s.ids(records))
}

func (s *Suite) TestDeleteForeignOrMissingIsNoop() {
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.record("alice", 1000, 200)))

	s.Require().NoError(s.Storage.DeleteScore(s.Ctx, "bob", 1000))
	s.Require().NoError(s.Storage.DeleteScore(s.Ctx, "alice", 9999))

	records, err := s.Storage.ListScores(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Len(records, 1)
}

func (s *Suite) TestDeletedIDCanBeReused() {
	s.Require().NoError(s.Storage.InsertScore(s.Ctx, s.record("alice", 1000, 200)))
	s.Require().NoError(s.Storage.DeleteScore(s.Ctx, "alice", 1000))

	s.NoError(s.Storage.InsertScore(s.Ctx, s.record("alice", 1000, 150)))
}

func (s *Suite) TestPing() {
	s.NoError(s.Storage.Ping(s.Ctx))
}
