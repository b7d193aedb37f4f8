package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Queries struct {
	db *sql.DB
}

func unixNow() int64 { return time.Now().Unix() }

func tFromUnix(u int64) time.Time {
	if u <= 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

/* ---------------- Session tokens ---------------- */

func (q *Queries) PutSealedToken(ctx context.Context, slot string, sealed []byte) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO session_tokens(slot,sealed,updated_at) VALUES(?,?,?)
		ON CONFLICT(slot) DO UPDATE SET sealed=excluded.sealed, updated_at=excluded.updated_at`,
		slot, sealed, unixNow())
	return err
}

// GetSealedToken returns nil without error when the slot is empty.
func (q *Queries) GetSealedToken(ctx context.Context, slot string) ([]byte, error) {
	var sealed []byte
	err := q.db.QueryRowContext(ctx, `SELECT sealed FROM session_tokens WHERE slot=?`, slot).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sealed, nil
}

func (q *Queries) DeleteSealedToken(ctx context.Context, slot string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM session_tokens WHERE slot=?`, slot)
	return err
}

/* ---------------- Push subscriptions ---------------- */

func (q *Queries) UpsertPushSubscription(ctx context.Context, p UpsertPushSubscriptionParams) (int64, error) {
	if strings.TrimSpace(p.Endpoint) == "" {
		return 0, errors.New("endpoint required")
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO push_subscriptions(endpoint,p256dh,auth,scope,created_at) VALUES(?,?,?,?,?)
		ON CONFLICT(endpoint) DO UPDATE SET p256dh=excluded.p256dh, auth=excluded.auth, scope=excluded.scope`,
		p.Endpoint, p.P256dh, p.Auth, p.Scope, unixNow())
	if err != nil {
		return 0, err
	}
	var id int64
	if err := q.db.QueryRowContext(ctx, `SELECT id FROM push_subscriptions WHERE endpoint=?`, p.Endpoint).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// ListPushSubscriptions returns subscriptions for scope. Staff-wide
// subscriptions (empty scope) are always included.
func (q *Queries) ListPushSubscriptions(ctx context.Context, scope string) ([]PushSubscription, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id,endpoint,p256dh,auth,scope,created_at
		FROM push_subscriptions
		WHERE scope=? OR scope=''
		ORDER BY id ASC`, scope)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PushSubscription
	for rows.Next() {
		var s PushSubscription
		var ca int64
		if err := rows.Scan(&s.ID, &s.Endpoint, &s.P256dh, &s.Auth, &s.Scope, &ca); err != nil {
			return nil, err
		}
		s.CreatedAt = tFromUnix(ca)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (q *Queries) DeletePushSubscription(ctx context.Context, endpoint string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE endpoint=?`, endpoint)
	return err
}

/* ---------------- Change events ---------------- */

func (q *Queries) InsertChangeEvent(ctx context.Context, p InsertChangeEventParams) (int64, error) {
	ts := p.CreatedAt.Unix()
	if p.CreatedAt.IsZero() {
		ts = unixNow()
	}
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO change_events(kind,action,entity_id,scope,message,from_status,to_status,created_at)
		VALUES(?,?,?,?,?,?,?,?)`,
		p.Kind, p.Action, p.EntityID, p.Scope, p.Message, p.FromStatus, p.ToStatus, ts)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListChangeEvents returns the newest events first. An empty scope lists
// every scope.
func (q *Queries) ListChangeEvents(ctx context.Context, scope string, limit int) ([]ChangeEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT id,kind,action,entity_id,scope,message,from_status,to_status,created_at
		FROM change_events
		WHERE (?='' OR scope=?)
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, scope, scope, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChangeEvent
	for rows.Next() {
		var e ChangeEvent
		var ca int64
		if err := rows.Scan(&e.ID, &e.Kind, &e.Action, &e.EntityID, &e.Scope, &e.Message, &e.FromStatus, &e.ToStatus, &ca); err != nil {
			return nil, err
		}
		e.CreatedAt = tFromUnix(ca)
		out = append(out, e)
	}
	return out, rows.Err()
}

// PruneChangeEvents drops events older than before.
func (q *Queries) PruneChangeEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM change_events WHERE created_at < ?`, before.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DebugCounts() (string, error) {
	checks := []struct {
		name string
		qry  string
	}{
		{"tokens", "SELECT COUNT(1) FROM session_tokens"},
		{"push", "SELECT COUNT(1) FROM push_subscriptions"},
		{"events", "SELECT COUNT(1) FROM change_events"},
	}
	var parts []string
	for _, it := range checks {
		row := q.db.QueryRow(it.qry)
		var n int
		if err := row.Scan(&n); err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("%s=%d", it.name, n))
	}
	return strings.Join(parts, " | "), nil
}
