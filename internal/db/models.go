package db

import "time"

type PushSubscription struct {
	ID        int64
	Endpoint  string
	P256dh    string
	Auth      string
	Scope     string
	CreatedAt time.Time
}

type UpsertPushSubscriptionParams struct {
	Endpoint string
	P256dh   string
	Auth     string
	Scope    string
}

// ChangeEvent is a notification the poller emitted, kept for the history
// feed.
type ChangeEvent struct {
	ID         int64
	Kind       string
	Action     string
	EntityID   int64
	Scope      string
	Message    string
	FromStatus string
	ToStatus   string
	CreatedAt  time.Time
}

type InsertChangeEventParams struct {
	Kind       string
	Action     string
	EntityID   int64
	Scope      string
	Message    string
	FromStatus string
	ToStatus   string
	CreatedAt  time.Time
}
