package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind identifies the concrete type of an Event.
type EventKind string

const (
	KindSubmissionCreated       EventKind = "SubmissionCreated"
	KindSubmissionStatusChanged EventKind = "SubmissionStatusChanged"
	KindVisibilityChanged       EventKind = "VisibilityChanged"
	KindHuntStart               EventKind = "HuntStart"
	KindFullRelease             EventKind = "FullRelease"
	KindPeriodicTimer           EventKind = "PeriodicTimer"
)

// Event is an immutable dispatch unit routed by the engine.
type Event interface {
	Kind() EventKind
}

// SubmissionCreated is emitted after a new submission has been persisted.
type SubmissionCreated struct {
	SubmissionID int64  `json:"submissionId"`
	TeamID       string `json:"teamId"`
	PuzzleID     string `json:"puzzleId"`
}

// SubmissionStatusChanged is emitted after a submission status update.
type SubmissionStatusChanged struct {
	SubmissionID int64            `json:"submissionId"`
	TeamID       string           `json:"teamId"`
	PuzzleID     string           `json:"puzzleId"`
	OldStatus    SubmissionStatus `json:"oldStatus"`
	NewStatus    SubmissionStatus `json:"newStatus"`
}

// VisibilityChanged is emitted after a visibility record changed. Seq is the
// history sequence number, or zero when the change was not recorded.
type VisibilityChanged struct {
	TeamID    string `json:"teamId"`
	PuzzleID  string `json:"puzzleId"`
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
	Seq       int64  `json:"seq"`
}

// HuntStart marks the beginning of a run.
type HuntStart struct {
	RunID string `json:"runId"`
}

// FullRelease forces a puzzle open for every team.
type FullRelease struct {
	RunID    string `json:"runId"`
	PuzzleID string `json:"puzzleId"`
}

// PeriodicTimer is ticked in by the timer source.
type PeriodicTimer struct {
	FiredAt time.Time `json:"firedAt"`
}

func (SubmissionCreated) Kind() EventKind       { return KindSubmissionCreated }
func (SubmissionStatusChanged) Kind() EventKind { return KindSubmissionStatusChanged }
func (VisibilityChanged) Kind() EventKind       { return KindVisibilityChanged }
func (HuntStart) Kind() EventKind               { return KindHuntStart }
func (FullRelease) Kind() EventKind             { return KindFullRelease }
func (PeriodicTimer) Kind() EventKind           { return KindPeriodicTimer }

// DecodeEvent parses an externally posted event. The "eventType" field
// selects the kind; only administrative kinds may be posted.
func DecodeEvent(data []byte) (Event, error) {
	var envelope struct {
		EventType EventKind `json:"eventType"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	switch envelope.EventType {
	case KindHuntStart:
		var ev HuntStart
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", envelope.EventType, err)
		}
		if ev.RunID == "" {
			return nil, fmt.Errorf("decode %s: runId is required", envelope.EventType)
		}
		return ev, nil

	case KindFullRelease:
		var ev FullRelease
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", envelope.EventType, err)
		}
		if ev.RunID == "" || ev.PuzzleID == "" {
			return nil, fmt.Errorf("decode %s: runId and puzzleId are required", envelope.EventType)
		}
		return ev, nil

	case "":
		return nil, fmt.Errorf("decode event: eventType is required")

	default:
		return nil, fmt.Errorf("decode event: unsupported eventType %q", envelope.EventType)
	}
}
