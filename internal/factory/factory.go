// Package factory wires storage, services and sessions into an application
package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gorilla/securecookie"

	"github.com/mcoot/reactimer/internal/dependencies/clock"
	"github.com/mcoot/reactimer/internal/middleware"
	"github.com/mcoot/reactimer/internal/services/auth"
	"github.com/mcoot/reactimer/internal/services/scores"
	"github.com/mcoot/reactimer/internal/session"
	"github.com/mcoot/reactimer/internal/storage"
	"github.com/mcoot/reactimer/internal/storage/memory"
	mongostorage "github.com/mcoot/reactimer/internal/storage/mongo"
	"github.com/mcoot/reactimer/internal/storage/postgres"
	redisstorage "github.com/mcoot/reactimer/internal/storage/redis"
)

// Storage types
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypeMongo    = "mongo"
	StorageTypePostgres = "postgres"
)

// Config holds everything needed to build the application
type Config struct {
	Logger *slog.Logger
	Clock  clock.Clock

	StorageType string
	RedisConfig *redisstorage.Config
	MongoConfig *mongostorage.Config
	PostgresDSN string

	// SessionSecret signs session cookies; when empty a random key is generated
	// and sessions do not survive a restart
	SessionSecret []byte
	SessionCodec  string
	CookieSecure  bool
	BcryptCost    int
}

// App holds the wired application components
type App struct {
	Logger       *slog.Logger
	Clock        clock.Clock
	Storage      storage.Storage
	Sessions     *session.Manager
	AuthService  *auth.Service
	ScoreService *scores.Service
	Metrics      *middleware.Metrics
}

// New builds the application. The storage handle is created once here and injected everywhere.
func New(ctx context.Context, cfg Config) (*App, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	store, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	secret := cfg.SessionSecret
	if len(secret) == 0 {
		cfg.Logger.Warn("SESSION_SECRET not set, using an ephemeral key")
		secret = securecookie.GenerateRandomKey(32)
		if secret == nil {
			_ = store.Close()
			return nil, errors.New("generate session key")
		}
	}

	sessionCfg := session.DefaultConfig()
	sessionCfg.Secure = cfg.CookieSecure
	codec, err := session.NewCodec(cfg.SessionCodec, secret, cfg.Clock, sessionCfg.MaxAge)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	sessions := session.NewManager(codec, cfg.Clock, sessionCfg)

	authCfg := auth.DefaultConfig()
	if cfg.BcryptCost != 0 {
		authCfg.BcryptCost = cfg.BcryptCost
	}

	return &App{
		Logger:       cfg.Logger,
		Clock:        cfg.Clock,
		Storage:      store,
		Sessions:     sessions,
		AuthService:  auth.New(store, cfg.Clock, sessions, authCfg),
		ScoreService: scores.New(store, cfg.Clock),
		Metrics:      middleware.NewMetrics(),
	}, nil
}

// Close releases the storage backend
func (a *App) Close() error {
	return a.Storage.Close()
}

func newStorage(ctx context.Context, cfg Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case "", StorageTypeMemory:
		cfg.Logger.Info("using in-memory storage")
		return memory.New(), nil

	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("redis storage requires RedisConfig")
		}
		store, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("create redis storage: %w", err)
		}
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		cfg.Logger.Info("using redis storage")
		return store, nil

	case StorageTypeMongo:
		mongoCfg := mongostorage.DefaultConfig()
		if cfg.MongoConfig != nil {
			mongoCfg = *cfg.MongoConfig
		}
		store, err := mongostorage.Connect(ctx, mongoCfg)
		if err != nil {
			return nil, err
		}
		cfg.Logger.Info("using mongo storage", slog.String("database", mongoCfg.Database))
		return store, nil

	case StorageTypePostgres:
		if cfg.PostgresDSN == "" {
			return nil, errors.New("postgres storage requires PostgresDSN")
		}
		if err := postgres.Migrate(ctx, cfg.PostgresDSN); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		cfg.Logger.Info("using postgres storage")
		return postgres.New(db), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}
}
