// Package mongo is a MongoDB implementation of the storage interface
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/mcoot/reactimer/internal/model"
	"github.com/mcoot/reactimer/internal/storage"
)

const (
	usersCollection  = "users"
	scoresCollection = "scores"
)

type userDoc struct {
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"passHash"`
	CreatedAt    time.Time `bson:"createdAt"`
}

type scoreDoc struct {
	Ts        int64     `bson:"ts"`
	Username  string    `bson:"username"`
	Name      string    `bson:"name"`
	TimeMs    int64     `bson:"timeMs"`
	Score     int64     `bson:"score"`
	CreatedAt time.Time `bson:"createdAt"`
}

// Storage implements storage.Storage on MongoDB
type Storage struct {
	client *mongo.Client
	users  *mongo.Collection
	scores *mongo.Collection
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Connect dials the server, verifies it and ensures indexes
func Connect(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := NewWithDatabase(client, client.Database(cfg.Database))
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// NewWithDatabase creates a storage over an existing client and database
func NewWithDatabase(client *mongo.Client, db *mongo.Database) *Storage {
	return &Storage{
		client: client,
		users:  db.Collection(usersCollection),
		scores: db.Collection(scoresCollection),
	}
}

// EnsureIndexes creates the unique and ranking indexes
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}

	_, err = s.scores.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}, {Key: "timeMs", Value: 1}}},
		{Keys: bson.D{{Key: "timeMs", Value: 1}}},
		{Keys: bson.D{{Key: "ts", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create scores indexes: %w", err)
	}
	return nil
}

// CreateUser inserts a user; the unique username index rejects duplicates
func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.users.InsertOne(ctx, userDoc{
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return model.ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByUsername finds a user by normalized username
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, bson.D{{Key: "username", Value: username}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &model.User{
		Username:     doc.Username,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

// InsertScore inserts a record; the unique ts index turns collisions into conflicts
func (s *Storage) InsertScore(ctx context.Context, record *model.ScoreRecord) error {
	_, err := s.scores.InsertOne(ctx, scoreDoc{
		Ts:        int64(record.ID),
		Username:  record.Owner,
		Name:      record.DisplayName,
		TimeMs:    record.ElapsedMs,
		Score:     record.Score,
		CreatedAt: record.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return model.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

// ListScores returns the owner's records ranked by elapsed time, then id
func (s *Storage) ListScores(ctx context.Context, owner string) ([]model.ScoreRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timeMs", Value: 1}, {Key: "ts", Value: 1}})
	cur, err := s.scores.Find(ctx, bson.D{{Key: "username", Value: owner}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer cur.Close(ctx)

	var docs []scoreDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}

	records := make([]model.ScoreRecord, 0, len(docs))
	for _, d := range docs {
		records = append(records, model.ScoreRecord{
			ID:          model.ScoreID(d.Ts),
			Owner:       d.Username,
			DisplayName: d.Name,
			ElapsedMs:   d.TimeMs,
			Score:       d.Score,
			CreatedAt:   d.CreatedAt,
		})
	}
	return records, nil
}

// RenameScore updates the display name; no match is not an error
func (s *Storage) RenameScore(ctx context.Context, owner string, id model.ScoreID, displayName string) error {
	filter := bson.D{{Key: "ts", Value: int64(id)}, {Key: "username", Value: owner}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "name", Value: displayName}}}}
	if _, err := s.scores.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("rename score: %w", err)
	}
	return nil
}

// DeleteScore removes the record; no match is not an error
func (s *Storage) DeleteScore(ctx context.Context, owner string, id model.ScoreID) error {
	filter := bson.D{{Key: "ts", Value: int64(id)}, {Key: "username", Value: owner}}
	if _, err := s.scores.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("delete score: %w", err)
	}
	return nil
}

// Ping checks the primary is reachable
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (s *Storage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
