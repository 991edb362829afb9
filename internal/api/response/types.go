package response

import (
	"github.com/mcoot/reactimer/internal/model"
	"github.com/mcoot/reactimer/internal/services/auth"
)

// RegisterNote accompanies a response that created a new account
const RegisterNote = "New account created automatically."

// Entry is a score record as seen by its owner
type Entry struct {
	Name   string `json:"name"`
	TimeMs int64  `json:"timeMs"`
	Score  int64  `json:"score"`
	Ts     int64  `json:"ts"`
}

// EntriesFromModel converts ranked records, preserving order
func EntriesFromModel(records []model.ScoreRecord) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, Entry{
			Name:   r.DisplayName,
			TimeMs: r.ElapsedMs,
			Score:  r.Score,
			Ts:     int64(r.ID),
		})
	}
	return entries
}

// AuthResponse is the response for POST /auth/upsert
type AuthResponse struct {
	OK       bool   `json:"ok"`
	Mode     string `json:"mode"`
	Username string `json:"username"`
	Note     string `json:"note,omitempty"`
}

// AuthResponseFromResult creates an AuthResponse from an upsert result
func AuthResponseFromResult(res *auth.Result) AuthResponse {
	resp := AuthResponse{
		OK:       true,
		Mode:     string(res.Mode),
		Username: res.Username,
	}
	if res.Mode == auth.ModeRegister {
		resp.Note = RegisterNote
	}
	return resp
}

// User identifies the signed-in user
type User struct {
	Username string `json:"username"`
}

// MeResponse is the response for GET /me; User is null when signed out
type MeResponse struct {
	User *User `json:"user"`
}

// OKResponse is a bare acknowledgement
type OKResponse struct {
	OK bool `json:"ok"`
}

// EntriesResponse is the response for GET /highscores
type EntriesResponse struct {
	Entries []Entry `json:"entries"`
}

// MutationResponse is the response for score mutations
type MutationResponse struct {
	OK      bool    `json:"ok"`
	Entries []Entry `json:"entries"`
}

// HealthResponse is the response for GET /health
type HealthResponse struct {
	Status string `json:"status"`
}
