package model

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// SubmissionStatus is the lifecycle state of a submission.
type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "SUBMITTED"
	SubmissionAssigned  SubmissionStatus = "ASSIGNED"
	SubmissionIncorrect SubmissionStatus = "INCORRECT"
	SubmissionCorrect   SubmissionStatus = "CORRECT"
)

// DefaultSubmissionStatus is the status every new submission starts in.
const DefaultSubmissionStatus = SubmissionSubmitted

// Valid reports whether s is one of the declared submission statuses.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionSubmitted, SubmissionAssigned, SubmissionIncorrect, SubmissionCorrect:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted out of s.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionIncorrect || s == SubmissionCorrect
}

// Submission is one answer attempt by a team for a puzzle.
type Submission struct {
	ID         int64            `json:"submissionId"`
	TeamID     string           `json:"teamId"`
	PuzzleID   string           `json:"puzzleId"`
	Answer     string           `json:"submission"`
	Status     SubmissionStatus `json:"status"`
	CreatedAt  time.Time        `json:"timestamp"`
	ModifiedAt time.Time        `json:"modified"`
}

// NormalizeAnswer trims surrounding whitespace and converts the answer to
// Unicode NFC so that visually identical answers compare equal.
func NormalizeAnswer(answer string) string {
	return norm.NFC.String(strings.TrimSpace(answer))
}
