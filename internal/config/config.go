// Package config loads server settings from the environment
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the server settings
type Config struct {
	Host     string
	Port     int
	AppEnv   string
	LogLevel slog.Level

	SessionSecret string
	SessionCodec  string
	CookieSecure  bool
	BcryptCost    int

	StorageType   string
	RedisURL      string
	MongoURI      string
	MongoDatabase string
	DatabaseURL   string

	CORSOrigins []string
}

// Load reads a .env file if present, then the process environment
func Load() (Config, error) {
	_ = godotenv.Load() // a missing .env is fine
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function
func FromEnv(getenv func(string) string) (Config, error) {
	env := lookup(getenv)

	port, err := env.integer("PORT", 3000)
	if err != nil {
		return Config{}, err
	}
	cost, err := env.integer("BCRYPT_COST", 10)
	if err != nil {
		return Config{}, err
	}

	appEnv := env.str("APP_ENV", "development")
	secure, err := env.boolean("COOKIE_SECURE", appEnv == "production")
	if err != nil {
		return Config{}, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(env.str("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg := Config{
		Host:          env.str("HOST", ""),
		Port:          port,
		AppEnv:        appEnv,
		LogLevel:      level,
		SessionSecret: env.str("SESSION_SECRET", ""),
		SessionCodec:  strings.ToLower(env.str("SESSION_CODEC", "securecookie")),
		CookieSecure:  secure,
		BcryptCost:    cost,
		StorageType:   strings.ToLower(env.str("STORAGE_TYPE", "memory")),
		RedisURL:      env.str("REDIS_URL", ""),
		MongoURI:      env.str("MONGODB_URI", "mongodb://127.0.0.1:27017"),
		MongoDatabase: env.str("MONGODB_DATABASE", "a3persistence"),
		DatabaseURL:   env.str("DATABASE_URL", ""),
		CORSOrigins:   env.list("CORS_ORIGINS"),
	}
	return cfg, cfg.Validate()
}

// Validate checks that the selected storage engine has what it needs
func (c Config) Validate() error {
	switch c.StorageType {
	case "memory", "mongo":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL required when STORAGE_TYPE=redis")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL required when STORAGE_TYPE=postgres")
		}
	default:
		return fmt.Errorf("unknown STORAGE_TYPE %q", c.StorageType)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	return nil
}

// Production reports whether the server runs in production mode
func (c Config) Production() bool {
	return c.AppEnv == "production"
}

type lookup func(string) string

func (l lookup) str(key, def string) string {
	if v := strings.TrimSpace(l(key)); v != "" {
		return v
	}
	return def
}

func (l lookup) integer(key string, def int) (int, error) {
	v := l.str(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func (l lookup) boolean(key string, def bool) (bool, error) {
	v := l.str(key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func (l lookup) list(key string) []string {
	var out []string
	for _, part := range strings.Split(l.str(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
