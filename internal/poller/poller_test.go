package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-console-go/internal/notify"
)

// script returns snapshots in order and repeats the last one forever.
type script struct {
	mu    sync.Mutex
	steps []step
	calls atomic.Int32
}

type step struct {
	items []notify.Item
	err   error
}

func (s *script) fetch(ctx context.Context) ([]notify.Item, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.steps[0]
	if len(s.steps) > 1 {
		s.steps = s.steps[1:]
	}
	return st.items, st.err
}

type recordingSink struct {
	mu  sync.Mutex
	got []notify.Change
	err error
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) Deliver(ctx context.Context, key Key, c notify.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, c)
	return r.err
}

func (r *recordingSink) changes() []notify.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Change(nil), r.got...)
}

// newTestManager primes on the first fetch so tests only see the changes
// they script.
func newTestManager(sinks ...Sink) *Manager {
	return NewManager(Options{
		Interval:  5 * time.Millisecond,
		Sinks:     sinks,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		PrimeOnly: true,
	})
}

func recv(t *testing.T, ch <-chan notify.Change) notify.Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		require.True(t, ok, "channel closed")
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
	}
	return notify.Change{}
}

func TestPrimeOnlySkipsFirstFetch(t *testing.T) {
	s := &script{steps: []step{
		{items: []notify.Item{{ID: 1, Status: "Pendiente"}}},
		{items: []notify.Item{{ID: 1, Status: "Confirmada"}, {ID: 2, Status: "Pendiente", Created: "new"}}},
	}}
	m := newTestManager()
	defer m.Close()

	ch, cancel, err := m.Subscribe(Key{Kind: notify.KindReservation, Scope: "a@b.c"}, s.fetch, 8)
	require.NoError(t, err)
	defer cancel()

	first := recv(t, ch)
	assert.Equal(t, notify.ActionConfirmed, first.Action)
	assert.Equal(t, int64(1), first.ID)

	second := recv(t, ch)
	assert.Equal(t, notify.ActionCreated, second.Action)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, "new", second.Message)
}

func TestFirstFetchReportsEverythingAsCreated(t *testing.T) {
	s := &script{steps: []step{
		{items: []notify.Item{{ID: 7, Status: "Pendiente", Created: "New order 7"}, {ID: 8, Status: "Listo"}}},
		{items: []notify.Item{{ID: 7, Status: "Cancelado"}, {ID: 8, Status: "Listo"}}},
	}}
	m := NewManager(Options{
		Interval: 5 * time.Millisecond,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	defer m.Close()

	ch, cancel, err := m.Subscribe(Key{Kind: notify.KindOrder}, s.fetch, 8)
	require.NoError(t, err)
	defer cancel()

	c := recv(t, ch)
	assert.Equal(t, notify.ActionCreated, c.Action)
	assert.Equal(t, int64(7), c.ID)
	assert.Equal(t, "New order 7", c.Message)
	assert.Equal(t, int64(8), recv(t, ch).ID)

	next := recv(t, ch)
	assert.Equal(t, notify.ActionCancelled, next.Action)
	assert.Equal(t, int64(7), next.ID)
}

func TestFetchErrorKeepsPreviousSnapshot(t *testing.T) {
	s := &script{steps: []step{
		{items: []notify.Item{{ID: 1, Status: "Pendiente"}}},
		{err: errors.New("boom")},
		{err: errors.New("boom again")},
		{items: []notify.Item{{ID: 1, Status: "Cancelada"}}},
	}}
	m := newTestManager()
	defer m.Close()

	ch, cancel, err := m.Subscribe(Key{Kind: notify.KindReservation}, s.fetch, 8)
	require.NoError(t, err)
	defer cancel()

	c := recv(t, ch)
	assert.Equal(t, notify.ActionCancelled, c.Action)
	assert.Equal(t, "Pendiente", c.From)
	assert.Equal(t, "Cancelada", c.To)

	select {
	case extra := <-ch:
		t.Fatalf("unexpected change %+v", extra)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestSubscribersShareOneLoop(t *testing.T) {
	s := &script{steps: []step{{items: nil}}}
	other := &script{steps: []step{{items: nil}}}
	m := newTestManager()
	defer m.Close()

	key := Key{Kind: notify.KindOrder, Scope: "kitchen"}
	_, cancelA, err := m.Subscribe(key, s.fetch, 1)
	require.NoError(t, err)
	_, cancelB, err := m.Subscribe(key, other.fetch, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, m.Sessions())
	require.Eventually(t, func() bool { return s.calls.Load() >= 3 }, time.Second, time.Millisecond)
	assert.Zero(t, other.calls.Load(), "second subscriber's fetch must not run")

	cancelA()
	assert.Equal(t, 1, m.Sessions(), "loop survives while a subscriber remains")

	cancelB()
	cancelB()
	assert.Equal(t, 0, m.Sessions())

	time.Sleep(20 * time.Millisecond)
	stopped := s.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, s.calls.Load(), "fetch keeps running after last unsubscribe")
}

func TestDifferentScopesRunSeparately(t *testing.T) {
	a := &script{steps: []step{{items: nil}}}
	b := &script{steps: []step{{items: nil}}}
	m := newTestManager()
	defer m.Close()

	_, ca, err := m.Subscribe(Key{Kind: notify.KindReservation, Scope: "a@x.io"}, a.fetch, 1)
	require.NoError(t, err)
	defer ca()
	_, cb, err := m.Subscribe(Key{Kind: notify.KindReservation, Scope: "b@x.io"}, b.fetch, 1)
	require.NoError(t, err)
	defer cb()

	assert.Equal(t, 2, m.Sessions())
	require.Eventually(t, func() bool { return a.calls.Load() > 0 && b.calls.Load() > 0 }, time.Second, time.Millisecond)
}

func TestTicksNeverOverlap(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	fetch := func(ctx context.Context) ([]notify.Item, error) {
		n := inFlight.Add(1)
		for {
			cur := maxInFlight.Load()
			if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(15 * time.Millisecond)
		inFlight.Add(-1)
		return nil, nil
	}
	m := newTestManager()
	_, cancel, err := m.Subscribe(Key{Kind: notify.KindTable}, fetch, 1)
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)
	cancel()
	m.Close()
	assert.Equal(t, int32(1), maxInFlight.Load())
}

func TestSinksReceiveChangesAndFailuresAreTolerated(t *testing.T) {
	failing := &recordingSink{err: errors.New("broker down")}
	ok := &recordingSink{}
	s := &script{steps: []step{
		{items: []notify.Item{{ID: 1, Status: "Pendiente"}}},
		{items: []notify.Item{{ID: 1, Status: "Completada"}}},
	}}
	m := newTestManager(failing, ok)
	defer m.Close()

	ch, cancel, err := m.Subscribe(Key{Kind: notify.KindReservation}, s.fetch, 4)
	require.NoError(t, err)
	defer cancel()

	c := recv(t, ch)
	assert.Equal(t, notify.ActionCompleted, c.Action)
	require.Eventually(t, func() bool { return len(ok.changes()) == 1 }, time.Second, time.Millisecond)
	assert.Len(t, failing.changes(), 1)
	assert.Equal(t, c, ok.changes()[0])
}

func TestCloseClosesChannelsAndRejectsSubscribers(t *testing.T) {
	s := &script{steps: []step{{items: nil}}}
	m := newTestManager()
	ch, cancel, err := m.Subscribe(Key{Kind: notify.KindOrder}, s.fetch, 1)
	require.NoError(t, err)

	m.Close()
	_, open := <-ch
	assert.False(t, open)
	cancel()

	_, _, err = m.Subscribe(Key{Kind: notify.KindOrder}, s.fetch, 1)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, m.Sessions())
}
