package model

import (
	"strings"
	"time"
)

// User is a registered account
type User struct {
	Username     string    `json:"username"`      // normalized, unique
	PasswordHash string    `json:"password_hash"` // bcrypt hash
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeUsername trims surrounding whitespace and lowercases the username
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Principal is the authorization context for a request.
// It is derived once from a verified session and every score operation is scoped to it.
type Principal struct {
	Username string
}
