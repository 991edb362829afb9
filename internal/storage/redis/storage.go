package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/reactimer/internal/model"
	"github.com/mcoot/reactimer/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
	keys   keys
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}
	if cfg.TxRetries <= 0 {
		cfg.TxRetries = DefaultConfig().TxRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
		keys:   keys{prefix: cfg.KeyPrefix},
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ping checks the connection
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	// SETNX is the uniqueness constraint on username
	created, err := s.client.SetNX(ctx, s.keys.user(user.Username), data, 0).Result()
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if !created {
		return model.ErrUsernameTaken
	}
	return nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	data, err := s.client.Get(ctx, s.keys.user(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Score operations

func (s *Storage) InsertScore(ctx context.Context, record *model.ScoreRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	key := s.keys.score(record.ID)
	indexKey := s.keys.ownerScores(record.Owner)

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return model.ErrConflict
		}

		// Record and index are written atomically
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(record.ElapsedMs), Member: scoreMember(record.ID)})
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrConflict), errors.Is(err, redis.TxFailedErr):
		// A concurrent writer claimed the same id between WATCH and EXEC
		return model.ErrConflict
	default:
		return fmt.Errorf("insert score: %w", err)
	}
}

func (s *Storage) ListScores(ctx context.Context, owner string) ([]model.ScoreRecord, error) {
	members, err := s.client.ZRange(ctx, s.keys.ownerScores(owner), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}

	if len(members) == 0 {
		return []model.ScoreRecord{}, nil
	}

	recordKeys := make([]string, len(members))
	for i, m := range members {
		var id int64
		if _, err := fmt.Sscanf(m, "%d", &id); err != nil {
			return nil, fmt.Errorf("list scores: bad index member %q: %w", m, err)
		}
		recordKeys[i] = s.keys.score(model.ScoreID(id))
	}

	values, err := s.client.MGet(ctx, recordKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}

	records := make([]model.ScoreRecord, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // Deleted between ZRANGE and MGET
		}
		str, ok := val.(string)
		if !ok {
			continue
		}
		var record model.ScoreRecord
		if err := json.Unmarshal([]byte(str), &record); err != nil {
			continue // Skip invalid data
		}
		if record.Owner != owner {
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

func (s *Storage) RenameScore(ctx context.Context, owner string, id model.ScoreID, displayName string) error {
	key := s.keys.score(id)

	return s.withRecord(ctx, key, owner, func(tx *redis.Tx, record *model.ScoreRecord) error {
		record.DisplayName = displayName
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, redis.KeepTTL)
			return nil
		})
		return err
	})
}

func (s *Storage) DeleteScore(ctx context.Context, owner string, id model.ScoreID) error {
	key := s.keys.score(id)

	return s.withRecord(ctx, key, owner, func(tx *redis.Tx, record *model.ScoreRecord) error {
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.ZRem(ctx, s.keys.ownerScores(owner), scoreMember(id))
			return nil
		})
		return err
	})
}

// withRecord watches a score key and runs fn only when the record exists and belongs to owner.
// A missing or foreign record is a silent no-op.
func (s *Storage) withRecord(ctx context.Context, key, owner string, fn func(tx *redis.Tx, record *model.ScoreRecord) error) error {
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil
			}
			return err
		}

		var record model.ScoreRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return err
		}
		if record.Owner != owner {
			return nil
		}
		return fn(tx, &record)
	}

	var err error
	for i := 0; i < s.cfg.TxRetries; i++ {
		err = s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	return nil
}
