// Package poller runs fixed-interval fetch-and-diff loops. One loop exists
// per (kind, scope) key no matter how many views watch it; the loop starts
// with the first subscriber and stops with the last.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"restaurant-console-go/internal/metrics"
	"restaurant-console-go/internal/notify"
)

var ErrClosed = errors.New("poller: manager closed")

type Key struct {
	Kind  notify.Kind
	Scope string
}

func (k Key) String() string { return string(k.Kind) + ":" + k.Scope }

// FetchFunc loads the current snapshot for a key.
type FetchFunc func(ctx context.Context) ([]notify.Item, error)

// Sink receives every change after subscribers have been offered it.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, key Key, c notify.Change) error
}

type Options struct {
	Interval time.Duration
	Sinks    []Sink
	Logger   *slog.Logger
	Metrics  *metrics.Metrics

	// PrimeOnly makes the first successful fetch only fill the cache. By
	// default it is diffed against an empty snapshot, so every entity is
	// reported as created.
	PrimeOnly bool
}

type Manager struct {
	interval  time.Duration
	sinks     []Sink
	log       *slog.Logger
	metrics   *metrics.Metrics
	primeOnly bool
	now       func() time.Time

	mu       sync.Mutex
	sessions map[Key]*session
	closed   bool
}

type session struct {
	key    Key
	fetch  FetchFunc
	subs   map[int]chan notify.Change
	nextID int
	cancel context.CancelFunc
	done   chan struct{}

	// owned by the loop goroutine
	cache  []notify.Item
	primed bool
}

func NewManager(opts Options) *Manager {
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		interval:  opts.Interval,
		sinks:     opts.Sinks,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		primeOnly: opts.PrimeOnly,
		now:       time.Now,
		sessions:  map[Key]*session{},
	}
}

// AddSink registers another delivery target. Call before subscribing.
func (m *Manager) AddSink(s Sink) {
	m.mu.Lock()
	m.sinks = append(m.sinks, s)
	m.mu.Unlock()
}

// Subscribe joins the loop for key, starting it with fetch if none runs.
// A later subscriber's fetch is ignored while the loop is alive. The
// returned cancel is idempotent and closes the channel.
func (m *Manager) Subscribe(key Key, fetch FetchFunc, buf int) (<-chan notify.Change, func(), error) {
	if buf <= 0 {
		buf = 16
	}
	ch := make(chan notify.Change, buf)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, nil, ErrClosed
	}
	s := m.sessions[key]
	if s == nil {
		ctx, cancel := context.WithCancel(context.Background())
		s = &session{
			key:    key,
			fetch:  fetch,
			subs:   map[int]chan notify.Change{},
			cancel: cancel,
			done:   make(chan struct{}),
		}
		m.sessions[key] = s
		m.metrics.AddPollSessions(1)
		m.log.Info("polling started", "key", key.String(), "interval", m.interval)
		go m.run(ctx, s)
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() { m.unsubscribe(s, id) })
	}
	return ch, cancel, nil
}

func (m *Manager) unsubscribe(s *session, id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := s.subs[id]
	if !ok {
		return
	}
	delete(s.subs, id)
	close(ch)
	if len(s.subs) > 0 {
		return
	}
	if m.sessions[s.key] == s {
		delete(m.sessions, s.key)
	}
	s.cancel()
	m.metrics.AddPollSessions(-1)
	m.log.Info("polling stopped", "key", s.key.String())
}

// Sessions reports how many loops are running.
func (m *Manager) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops every loop and closes every subscriber channel.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	var waits []chan struct{}
	for k, s := range m.sessions {
		for id, ch := range s.subs {
			close(ch)
			delete(s.subs, id)
		}
		s.cancel()
		waits = append(waits, s.done)
		delete(m.sessions, k)
		m.metrics.AddPollSessions(-1)
	}
	m.mu.Unlock()
	for _, w := range waits {
		<-w
	}
}

func (m *Manager) run(ctx context.Context, s *session) {
	defer close(s.done)

	m.tick(ctx, s)
	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.tick(ctx, s)
		}
	}
}

// tick runs one fetch → diff → publish pass. The next tick cannot start
// before this one returns.
func (m *Manager) tick(ctx context.Context, s *session) {
	kind := string(s.key.Kind)
	items, err := s.fetch(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		m.metrics.IncPollTick(kind, "error")
		m.log.Warn("poll fetch failed", "key", s.key.String(), "err", err)
		return
	}
	m.metrics.IncPollTick(kind, "ok")

	if !s.primed && m.primeOnly {
		s.cache, s.primed = items, true
		return
	}
	prev := s.cache
	s.cache, s.primed = items, true

	for _, c := range notify.Diff(s.key.Kind, prev, items, m.now()) {
		if ctx.Err() != nil {
			return
		}
		m.publish(ctx, s, c)
	}
}

func (m *Manager) publish(ctx context.Context, s *session, c notify.Change) {
	m.metrics.IncNotification(string(c.Kind), string(c.Action))

	m.mu.Lock()
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
			// slow subscriber; it will catch up on the next refresh
		}
	}
	sinks := m.sinks
	m.mu.Unlock()

	for _, sink := range sinks {
		if err := sink.Deliver(ctx, s.key, c); err != nil {
			m.metrics.IncSinkError(sink.Name())
			m.log.Warn("notification sink failed", "sink", sink.Name(), "key", s.key.String(), "err", err)
		}
	}
}
