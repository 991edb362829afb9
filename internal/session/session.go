// Package session issues and verifies signed session cookies
package session

import (
	"net/http"
	"time"

	"github.com/mcoot/reactimer/internal/dependencies/clock"
)

const (
	// CookieName is the name of the session cookie
	CookieName = "sid"
	// DefaultMaxAge is the absolute lifetime of a session
	DefaultMaxAge = 24 * time.Hour
)

// Claims is the content of a session token
type Claims struct {
	Username string
	IssuedAt time.Time
}

// Config holds session cookie settings
type Config struct {
	MaxAge time.Duration
	Secure bool
}

// DefaultConfig returns default session settings
func DefaultConfig() Config {
	return Config{MaxAge: DefaultMaxAge}
}

// Manager issues and verifies session tokens and manages the cookie
type Manager struct {
	codec  Codec
	clock  clock.Clock
	maxAge time.Duration
	secure bool
}

// NewManager creates a session manager
func NewManager(codec Codec, clk clock.Clock, cfg Config) *Manager {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	return &Manager{codec: codec, clock: clk, maxAge: cfg.MaxAge, secure: cfg.Secure}
}

// Issue creates a signed token for the username
func (m *Manager) Issue(username string) (string, error) {
	return m.codec.Encode(Claims{Username: username, IssuedAt: m.clock.Now()})
}

// Verify decodes a token. Any failure, including expiry, yields false.
func (m *Manager) Verify(token string) (Claims, bool) {
	if token == "" {
		return Claims{}, false
	}
	claims, err := m.codec.Decode(token)
	if err != nil || claims.Username == "" || claims.IssuedAt.IsZero() {
		return Claims{}, false
	}
	if !m.clock.Now().Before(claims.IssuedAt.Add(m.maxAge)) {
		return Claims{}, false
	}
	return claims, true
}

// FromRequest verifies the session cookie on the request
func (m *Manager) FromRequest(r *http.Request) (Claims, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return Claims{}, false
	}
	return m.Verify(c.Value)
}

// SetCookie writes the session cookie
func (m *Manager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.maxAge / time.Second),
		Expires:  m.clock.Now().Add(m.maxAge),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
