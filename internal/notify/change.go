// Package notify turns consecutive entity snapshots into change events.
package notify

import (
	"strings"
	"time"
)

type Kind string

const (
	KindReservation Kind = "reservation"
	KindOrder       Kind = "order"
	KindTable       Kind = "table"
)

type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionCancelled Action = "cancelled"
	ActionConfirmed Action = "confirmed"
	ActionCompleted Action = "completed"
)

// Change is a diff artifact. It is never persisted.
type Change struct {
	Kind      Kind      `json:"kind"`
	Action    Action    `json:"action"`
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Classify maps a new status label onto an action by keyword, covering the
// Spanish and English spellings. Labels with no keyword are plain updates.
func Classify(label string) Action {
	s := strings.ToLower(label)
	switch {
	case strings.Contains(s, "cancel"):
		return ActionCancelled
	case strings.Contains(s, "confirm"):
		return ActionConfirmed
	case strings.Contains(s, "complet"):
		return ActionCompleted
	}
	return ActionUpdated
}
