package model

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeScore(t *testing.T) {
	tests := []struct {
		elapsed int64
		want    int64
	}{
		{0, 100},
		{5000, 0},
		{6000, -20},
		{2500, 50},
		{25, 100}, // 99.5 rounds up
		{5025, 0}, // -0.5 rounds towards +inf
		{5075, -1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ComputeScore(tt.elapsed), "elapsed=%d", tt.elapsed)
	}
}

func TestNormalizeElapsed(t *testing.T) {
	v, ok := NormalizeElapsed(1234.5)
	assert.True(t, ok)
	assert.Equal(t, int64(1235), v)

	v, ok = NormalizeElapsed(0)
	assert.True(t, ok)
	assert.Equal(t, int64(0), v)

	for _, bad := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, ok := NormalizeElapsed(bad)
		assert.False(t, ok, "value %v should be rejected", bad)
	}
}

func TestNormalizeDisplayName(t *testing.T) {
	assert.Equal(t, DefaultDisplayName, NormalizeDisplayName(""))
	assert.Equal(t, DefaultDisplayName, NormalizeDisplayName("   "))
	assert.Equal(t, "Alice", NormalizeDisplayName("  Alice "))

	long := strings.Repeat("é", 50)
	assert.Equal(t, strings.Repeat("é", MaxDisplayNameLength), NormalizeDisplayName(long))
}

func TestNormalizeRename(t *testing.T) {
	_, ok := NormalizeRename("  ")
	assert.False(t, ok)

	name, ok := NormalizeRename(" Bob ")
	assert.True(t, ok)
	assert.Equal(t, "Bob", name)
}

func TestParseScoreID(t *testing.T) {
	id, valid, match := ParseScoreID(1700000000000)
	assert.True(t, valid)
	assert.True(t, match)
	assert.Equal(t, ScoreID(1700000000000), id)

	_, valid, match = ParseScoreID(12.5)
	assert.True(t, valid)
	assert.False(t, match)

	_, valid, match = ParseScoreID(-3)
	assert.True(t, valid)
	assert.False(t, match)

	_, valid, _ = ParseScoreID(math.NaN())
	assert.False(t, valid)
}

func TestSortScoresRanksByElapsedThenID(t *testing.T) {
	records := []ScoreRecord{
		{ID: 3, ElapsedMs: 200},
		{ID: 2, ElapsedMs: 100},
		{ID: 1, ElapsedMs: 200},
	}

	SortScores(records)

	assert.Equal(t, []ScoreID{2, 1, 3}, []ScoreID{records[0].ID, records[1].ID, records[2].ID})
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "alice", NormalizeUsername("  ALICE "))
	assert.Equal(t, "", NormalizeUsername("   "))
}
