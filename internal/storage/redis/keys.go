package redis

import (
	"fmt"

	"github.com/mcoot/reactimer/internal/model"
)

// keys builds Redis keys under a configurable prefix
type keys struct {
	prefix string
}

// user returns the key holding a User, unique per normalized username
func (k keys) user(username string) string {
	return fmt.Sprintf("%s:user:%s", k.prefix, username)
}

// score returns the key holding a ScoreRecord, unique per id across all owners
func (k keys) score(id model.ScoreID) string {
	return fmt.Sprintf("%s:score:%d", k.prefix, id)
}

// ownerScores returns the sorted set ranking an owner's records by elapsed time
func (k keys) ownerScores(owner string) string {
	return fmt.Sprintf("%s:idx:scores:%s", k.prefix, owner)
}

// scoreMember encodes an id as a fixed-width sorted-set member so equal elapsed times
// fall back to lexicographic order, which is id order
func scoreMember(id model.ScoreID) string {
	return fmt.Sprintf("%020d", id)
}
