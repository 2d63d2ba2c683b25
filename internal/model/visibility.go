package model

import (
	"slices"
	"time"
)

// VisibilityStatusSet is the policy declaring which visibility statuses a
// hunt uses and what each one permits.
//
// Implementations must be immutable once constructed.
type VisibilityStatusSet interface {
	// DefaultStatus is the status of a (team, puzzle) pair that has never
	// been written.
	DefaultStatus() string

	// Statuses lists every legal status in increasing order of progress.
	// Unlock rules never move a pair to an earlier status in this order.
	Statuses() []string

	// IsAllowedStatus reports whether status belongs to the set.
	IsAllowedStatus(status string) bool

	// AllowsSubmissions reports whether a new submission may be accepted
	// while a puzzle is in status for a team.
	AllowsSubmissions(status string) bool
}

// Standard visibility statuses, in increasing order of progress.
const (
	VisibilityInvisible = "INVISIBLE"
	VisibilityVisible   = "VISIBLE"
	VisibilityUnlocked  = "UNLOCKED"
	VisibilitySolved    = "SOLVED"
)

// StandardStatusSet is the INVISIBLE/VISIBLE/UNLOCKED/SOLVED vocabulary.
// Only UNLOCKED accepts submissions.
type StandardStatusSet struct{}

var standardStatuses = []string{
	VisibilityInvisible,
	VisibilityVisible,
	VisibilityUnlocked,
	VisibilitySolved,
}

func (StandardStatusSet) DefaultStatus() string { return VisibilityInvisible }

func (StandardStatusSet) Statuses() []string {
	out := make([]string, len(standardStatuses))
	copy(out, standardStatuses)
	return out
}

func (StandardStatusSet) IsAllowedStatus(status string) bool {
	return Rank(status) >= 0
}

func (StandardStatusSet) AllowsSubmissions(status string) bool {
	return status == VisibilityUnlocked
}

// Rank returns the position of a standard status in the progress order, or
// -1 for a status outside the standard set.
func Rank(status string) int {
	return slices.Index(standardStatuses, status)
}

// RankIn returns the position of status in set's progress order, or -1 if
// the set does not contain it.
func RankIn(set VisibilityStatusSet, status string) int {
	return slices.Index(set.Statuses(), status)
}

// Visibility is the current status of one (team, puzzle) pair.
type Visibility struct {
	TeamID   string `json:"teamId"`
	PuzzleID string `json:"puzzleId"`
	Status   string `json:"status"`
}

// VisibilityChange is one immutable entry of the visibility history.
// Seq is assigned by the store and increases monotonically across all pairs.
type VisibilityChange struct {
	Seq       int64     `json:"seq"`
	TeamID    string    `json:"teamId"`
	PuzzleID  string    `json:"puzzleId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
