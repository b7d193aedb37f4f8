package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "console.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, Migrate(s.DB))
	return s
}

func testKey(b byte) []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = b
	}
	return k
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, Migrate(s.DB))
	counts, err := s.Q.DebugCounts()
	require.NoError(t, err)
	assert.Equal(t, "tokens=0 | push=0 | events=0", counts)
}

func TestTokenStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	ts, err := NewTokenStore(s.Q, testKey(1))
	require.NoError(t, err)

	tok, err := ts.LoadToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, ts.SaveToken(ctx, "eyJhbGciOi.payload.sig"))
	tok, err = ts.LoadToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "eyJhbGciOi.payload.sig", tok)

	sealed, err := s.Q.GetSealedToken(ctx, defaultTokenSlot)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "payload", "token must not be stored in clear")

	require.NoError(t, ts.DeleteToken(ctx))
	tok, err = ts.LoadToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestTokenStoreWrongKey(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	a, err := NewTokenStore(s.Q, testKey(1))
	require.NoError(t, err)
	require.NoError(t, a.SaveToken(ctx, "secret"))

	b, err := NewTokenStore(s.Q, testKey(2))
	require.NoError(t, err)
	_, err = b.LoadToken(ctx)
	assert.ErrorIs(t, err, ErrBadSeal)

	_, err = NewTokenStore(s.Q, []byte("short"))
	assert.Error(t, err)
}

func TestPushSubscriptions(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id1, err := s.Q.UpsertPushSubscription(ctx, UpsertPushSubscriptionParams{Endpoint: "https://push/1", P256dh: "k1", Auth: "a1"})
	require.NoError(t, err)
	_, err = s.Q.UpsertPushSubscription(ctx, UpsertPushSubscriptionParams{Endpoint: "https://push/2", P256dh: "k2", Auth: "a2", Scope: "ana@example.com"})
	require.NoError(t, err)
	id1again, err := s.Q.UpsertPushSubscription(ctx, UpsertPushSubscriptionParams{Endpoint: "https://push/1", P256dh: "k1b", Auth: "a1b"})
	require.NoError(t, err)
	assert.Equal(t, id1, id1again)

	_, err = s.Q.UpsertPushSubscription(ctx, UpsertPushSubscriptionParams{})
	assert.Error(t, err)

	staff, err := s.Q.ListPushSubscriptions(ctx, "")
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, "k1b", staff[0].P256dh)

	ana, err := s.Q.ListPushSubscriptions(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Len(t, ana, 2)

	require.NoError(t, s.Q.DeletePushSubscription(ctx, "https://push/2"))
	ana, err = s.Q.ListPushSubscriptions(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Len(t, ana, 1)
}

func TestChangeEvents(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	base := time.Unix(1_700_000_000, 0)

	for i, scope := range []string{"kitchen", "ana@example.com", "kitchen"} {
		_, err := s.Q.InsertChangeEvent(ctx, InsertChangeEventParams{
			Kind:      "order",
			Action:    "updated",
			EntityID:  int64(i + 1),
			Scope:     scope,
			ToStatus:  "Listo",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	_, err := s.Q.InsertChangeEvent(ctx, InsertChangeEventParams{Kind: "bogus", Action: "updated", EntityID: 9})
	assert.Error(t, err, "kind is constrained")

	all, err := s.Q.ListChangeEvents(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].EntityID, "newest first")

	kitchen, err := s.Q.ListChangeEvents(ctx, "kitchen", 10)
	require.NoError(t, err)
	assert.Len(t, kitchen, 2)

	n, err := s.Q.PruneChangeEvents(ctx, base.Add(90*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
