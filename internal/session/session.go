// Package session holds the console's API session: the bearer token, the
// claims decoded from it and a persisted copy that survives restarts.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoToken = errors.New("session: not logged in")
	ErrExpired = errors.New("session: token expired")
)

// Persister stores the raw token. LoadToken returns "" when empty.
type Persister interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	DeleteToken(ctx context.Context) error
}

// Snapshot is an immutable view of the session. ID changes on every login
// so cookies bound to an older session stop matching.
type Snapshot struct {
	ID     string
	Token  string
	Claims Claims
	Since  time.Time
}

func (s Snapshot) LoggedIn() bool { return s.Token != "" }

// Authenticated is false when there is no token or it has expired.
func (s Snapshot) Authenticated(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	return s.Claims.ExpiresAt.IsZero() || now.Before(s.Claims.ExpiresAt)
}

type State struct {
	store Persister
	log   *slog.Logger
	now   func() time.Time

	mu     sync.RWMutex
	snap   Snapshot
	subs   map[int]chan Snapshot
	nextID int
}

func New(store Persister, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{store: store, log: logger, now: time.Now, subs: map[int]chan Snapshot{}}
}

// Init restores a persisted token. An unreadable token is discarded rather
// than failing startup.
func (s *State) Init(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	tok, err := s.store.LoadToken(ctx)
	if err != nil {
		s.log.Warn("discarding persisted session", "err", err)
		return s.store.DeleteToken(ctx)
	}
	if tok == "" {
		return nil
	}
	snap := s.build(tok)
	if !snap.Authenticated(s.now()) {
		s.log.Info("persisted session expired")
		return s.store.DeleteToken(ctx)
	}
	s.replace(snap)
	s.log.Info("session restored", "role", snap.Claims.Role, "employee", snap.Claims.EmployeeID)
	return nil
}

// Set installs a new token and persists it.
func (s *State) Set(ctx context.Context, token string) (Snapshot, error) {
	if token == "" {
		return Snapshot{}, ErrNoToken
	}
	snap := s.build(token)
	if s.store != nil {
		if err := s.store.SaveToken(ctx, token); err != nil {
			return Snapshot{}, err
		}
	}
	s.replace(snap)
	return snap, nil
}

// Clear logs out. It satisfies the API client's forced-logout hook.
func (s *State) Clear(ctx context.Context) error {
	s.mu.RLock()
	had := s.snap.Token != ""
	s.mu.RUnlock()

	var err error
	if s.store != nil {
		err = s.store.DeleteToken(ctx)
	}
	if had {
		s.replace(Snapshot{})
		s.log.Info("session cleared")
	}
	return err
}

func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Token
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Current returns the live session or why there is none.
func (s *State) Current() (Snapshot, error) {
	snap := s.Snapshot()
	switch {
	case snap.Token == "":
		return snap, ErrNoToken
	case !snap.Authenticated(s.now()):
		return snap, ErrExpired
	}
	return snap, nil
}

// Subscribe delivers every later snapshot. Slow readers miss intermediate
// values, never the channel close.
func (s *State) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *State) build(token string) Snapshot {
	claims, err := ParseClaims(token)
	if err != nil {
		s.log.Debug("token is not a readable JWT", "err", err)
	}
	return Snapshot{ID: uuid.NewString(), Token: token, Claims: claims, Since: s.now()}
}

func (s *State) replace(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
