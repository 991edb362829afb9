package mongo

import "time"

// Config holds MongoDB connection settings
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// DefaultConfig returns the settings for a local development server
func DefaultConfig() Config {
	return Config{
		URI:            "mongodb://127.0.0.1:27017",
		Database:       "a3persistence",
		ConnectTimeout: 10 * time.Second,
	}
}
