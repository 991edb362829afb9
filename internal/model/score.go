package model

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// RoundDuration is the countdown length of a single round
	RoundDuration = 5 * time.Second

	// MaxDisplayNameLength is the maximum number of characters kept from a display name
	MaxDisplayNameLength = 40

	// DefaultDisplayName is used when a score is submitted without a name
	DefaultDisplayName = "Anonymous"

	// maxSafeInteger is the largest integer a JSON client can send without precision loss
	maxSafeInteger = 1<<53 - 1
)

// ScoreID identifies a score record; it is the creation time in Unix milliseconds
type ScoreID int64

// ScoreRecord is a single saved round result owned by one user
type ScoreRecord struct {
	ID          ScoreID   `json:"id"`
	Owner       string    `json:"owner"`
	DisplayName string    `json:"display_name"`
	ElapsedMs   int64     `json:"elapsed_ms"`
	Score       int64     `json:"score"`
	CreatedAt   time.Time `json:"created_at"`
}

// ComputeScore derives the score from the elapsed time.
// Values above the round duration produce negative scores, which are kept as-is.
func ComputeScore(elapsedMs int64) int64 {
	return roundHalfUp(float64(RoundDuration.Milliseconds()-elapsedMs) / 50)
}

// NormalizeElapsed validates a client-supplied elapsed time and rounds it to whole milliseconds
func NormalizeElapsed(elapsedMs float64) (int64, bool) {
	if math.IsNaN(elapsedMs) || math.IsInf(elapsedMs, 0) || elapsedMs < 0 {
		return 0, false
	}
	return roundHalfUp(elapsedMs), true
}

// NormalizeDisplayName trims the name, falls back to the default and truncates to the max length
func NormalizeDisplayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultDisplayName
	}
	return truncateRunes(name, MaxDisplayNameLength)
}

// NormalizeRename trims a replacement display name; empty names are rejected
func NormalizeRename(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	return truncateRunes(name, MaxDisplayNameLength), true
}

// ParseScoreID converts a client-supplied id.
// valid is false for non-finite values. match is false for finite values that no record can carry
// (fractions, out of range), which callers treat as a lookup that matches nothing.
func ParseScoreID(id float64) (scoreID ScoreID, valid bool, match bool) {
	if math.IsNaN(id) || math.IsInf(id, 0) {
		return 0, false, false
	}
	if id != math.Trunc(id) || id < 0 || id > maxSafeInteger {
		return 0, true, false
	}
	return ScoreID(int64(id)), true, true
}

// SortScores orders records best first: lowest elapsed time, then oldest id
func SortScores(records []ScoreRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].ElapsedMs != records[j].ElapsedMs {
			return records[i].ElapsedMs < records[j].ElapsedMs
		}
		return records[i].ID < records[j].ID
	})
}

// roundHalfUp rounds halves towards positive infinity
func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
