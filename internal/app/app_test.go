package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/golang-jwt/jwt/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-console-go/internal/db"
	"restaurant-console-go/internal/notify"
	"restaurant-console-go/internal/poller"
	"restaurant-console-go/internal/session"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestApp(t *testing.T, apiURL string) *App {
	t.Helper()
	a, err := New(Config{
		DataDir:         t.TempDir(),
		APIBaseURL:      apiURL,
		APITimeout:      2 * time.Second,
		PollInterval:    10 * time.Millisecond,
		SessionHashKey:  []byte(strings.Repeat("h", 32)),
		SessionBlockKey: []byte(strings.Repeat("b", 32)),
	}, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func testToken(t *testing.T, role string, employeeID int64) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"rol":        role,
		"empleadoId": employeeID,
		"exp":        time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("remote"))
	require.NoError(t, err)
	return tok
}

func TestLoadConfigLayersYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "console.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
api_base_url: "${TEST_API_HOST}/api"
poll_interval: 30s
redis_addr: "redis:6379"
`), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("TEST_API_HOST", "http://backend")
	t.Setenv("POLL_INTERVAL", "5s")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("SESSION_BLOCK_KEY_HEX", strings.Repeat("ab", 32))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "http://backend/api", cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.PollInterval, "env beats file")
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.False(t, cfg.MetricsEnabled)
	assert.Len(t, cfg.SessionBlockKey, 32)
	assert.Equal(t, 15*time.Second, cfg.APITimeout)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "soon")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "POLL_INTERVAL")

	t.Setenv("POLL_INTERVAL", "")
	t.Setenv("SESSION_HASH_KEY_HEX", "zz")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "SESSION_HASH_KEY_HEX")
}

func TestSSEHubTopics(t *testing.T) {
	h := NewSSEHub(quietLogger())
	staff, cancelStaff := h.Subscribe([]string{TopicStaff()}, 4)
	defer cancelStaff()
	cust, cancelCust := h.Subscribe([]string{TopicCustomer("Ana@Example.com ")}, 4)

	assert.Equal(t, 1, h.Broadcast(TopicCustomer("ana@example.com"), SSEEvent{Type: "toast"}))
	h.BroadcastStaff(SSEEvent{Type: "session"})

	assert.Equal(t, "toast", (<-cust).Type)
	assert.Equal(t, "session", (<-staff).Type)

	cancelCust()
	cancelCust()
	assert.Equal(t, 0, h.Broadcast(TopicCustomer("ana@example.com"), SSEEvent{Type: "toast"}))
}

func TestToastSinkRoutesByWatchTopic(t *testing.T) {
	h := NewSSEHub(quietLogger())
	kitchen := poller.Key{Kind: notify.KindOrder, Scope: ScopeKitchen}
	staff, cancelStaff := h.Subscribe([]string{TopicWatch(kitchen)}, 4)
	defer cancelStaff()
	cust, cancelCust := h.Subscribe([]string{TopicWatch(CustomerKey("Ana@Example.com"))}, 4)
	defer cancelCust()

	sink := &ToastSink{Hub: h}
	c := notify.Change{Kind: notify.KindReservation, Action: notify.ActionCancelled, ID: 3, Message: "Reservation 3 cancelled"}
	require.NoError(t, sink.Deliver(context.Background(), CustomerKey("ana@example.com"), c))
	ev := <-cust
	toast := ev.Data.(Toast)
	assert.Equal(t, ToastWarning, toast.Level)
	assert.Equal(t, int64(3), toast.ID)

	require.NoError(t, sink.Deliver(context.Background(), kitchen,
		notify.Change{Kind: notify.KindOrder, Action: notify.ActionCreated, ID: 9}))
	assert.Equal(t, ToastInfo, (<-staff).Data.(Toast).Level)
	assert.Empty(t, cust)
}

func openStore(t *testing.T) *db.Store {
	t.Helper()
	s, err := db.Open(filepath.Join(t.TempDir(), "t.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, db.Migrate(s.DB))
	return s
}

// fakeChannel numbers publishes like a confirm-mode channel.
type fakeChannel struct {
	next      uint64
	published []string
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, _ amqp.Publishing) error {
	f.next++
	f.published = append(f.published, key)
	return nil
}

func (f *fakeChannel) GetNextPublishSeqNo() uint64 { return f.next + 1 }
func (f *fakeChannel) Close() error                { return nil }

func TestAMQPSinkSkipsConfirmsOfAbandonedPublishes(t *testing.T) {
	ch := &fakeChannel{}
	acks := make(chan amqp.Confirmation, 4)
	sink := &AMQPSink{exchange: "changes", ch: ch, acks: acks}
	key := poller.Key{Kind: notify.KindOrder, Scope: "all"}
	change := notify.Change{Kind: notify.KindOrder, Action: notify.ActionCreated, ID: 1}

	// The first publish gives up before the broker answers.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sink.Deliver(ctx, key, change), context.Canceled)

	// Its NACK arrives late, ahead of the ACK for the second publish.
	acks <- amqp.Confirmation{DeliveryTag: 1, Ack: false}
	acks <- amqp.Confirmation{DeliveryTag: 2, Ack: true}
	require.NoError(t, sink.Deliver(context.Background(), key, change))

	acks <- amqp.Confirmation{DeliveryTag: 3, Ack: false}
	assert.EqualError(t, sink.Deliver(context.Background(), key, change), "publish NACK from broker")
	assert.Len(t, ch.published, 3)
	assert.Empty(t, acks)
}

func TestHistorySinkRecordsChanges(t *testing.T) {
	s := openStore(t)
	sink := &HistorySink{Q: s.Q}
	now := time.Unix(1_700_000_000, 0)
	require.NoError(t, sink.Deliver(context.Background(), poller.Key{Kind: notify.KindOrder, Scope: ScopeKitchen}, notify.Change{
		Kind: notify.KindOrder, Action: notify.ActionUpdated, ID: 4, From: "Pendiente", To: "Listo", Timestamp: now,
	}))

	evs, err := s.Q.ListChangeEvents(context.Background(), ScopeKitchen, 10)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "Listo", evs[0].ToStatus)
	assert.True(t, now.Equal(evs[0].CreatedAt))
}

func TestPushSinkSendsAndPrunesGoneSubscriptions(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_, err := s.Q.UpsertPushSubscription(ctx, db.UpsertPushSubscriptionParams{Endpoint: "https://push/live", P256dh: "k", Auth: "a"})
	require.NoError(t, err)
	_, err = s.Q.UpsertPushSubscription(ctx, db.UpsertPushSubscriptionParams{Endpoint: "https://push/gone", P256dh: "k", Auth: "a"})
	require.NoError(t, err)

	sink := NewPushSink(PushConfig{Subscriber: "ops@example.com", VAPIDPublicKey: "pub", VAPIDPrivateKey: "priv"}, s.Q, quietLogger())
	var sent []string
	sink.send = func(ctx context.Context, msg []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error) {
		sent = append(sent, sub.Endpoint)
		assert.Equal(t, 60, opts.TTL)
		assert.Contains(t, string(msg), `"action":"confirmed"`)
		rec := httptest.NewRecorder()
		if strings.HasSuffix(sub.Endpoint, "gone") {
			rec.WriteHeader(http.StatusGone)
		} else {
			rec.WriteHeader(http.StatusCreated)
		}
		return rec.Result(), nil
	}

	err = sink.Deliver(ctx, poller.Key{Kind: notify.KindReservation, Scope: ScopeAll},
		notify.Change{Kind: notify.KindReservation, Action: notify.ActionConfirmed, ID: 1})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"https://push/live", "https://push/gone"}, sent)

	left, err := s.Q.ListPushSubscriptions(ctx, "")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "https://push/live", left[0].Endpoint)
}

func TestStaffKeys(t *testing.T) {
	keys := StaffKeys(session.Claims{Role: RoleWaiter, EmployeeID: 12})
	assert.Equal(t, []poller.Key{
		{Kind: notify.KindOrder, Scope: "employee:12"},
		{Kind: notify.KindTable, Scope: ScopeAll},
	}, keys)
	assert.Equal(t, []poller.Key{{Kind: notify.KindOrder, Scope: ScopeKitchen}}, StaffKeys(session.Claims{Role: RoleCook}))
	assert.Len(t, StaffKeys(session.Claims{Role: RoleAdmin}), 3)
}

func TestFetcherUsesMatchingEndpoint(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.RequestURI())
		_, _ = io.WriteString(w, `[{"id":1,"estado":"Pendiente","estadoReserva":"Pendiente"}]`)
	}))
	defer srv.Close()
	a := newTestApp(t, srv.URL)
	ctx := context.Background()

	got, err := a.Fetcher(CustomerKey("ana@example.com"))(ctx)
	require.NoError(t, err)
	assert.Equal(t, []notify.Item{{ID: 1, Status: "Pendiente", Created: "New reservation created for "}}, got)

	_, err = a.Fetcher(poller.Key{Kind: notify.KindOrder, Scope: EmployeeScope(5)})(ctx)
	require.NoError(t, err)
	_, err = a.Fetcher(poller.Key{Kind: notify.KindTable, Scope: ScopeAll})(ctx)
	require.NoError(t, err)

	require.Len(t, paths, 3)
	assert.Contains(t, paths[0], "correo=ana%40example.com")
	assert.Contains(t, paths[1], "/5")
	assert.Equal(t, "/mesas", paths[2])
}

func TestFetcherReportsAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	a := newTestApp(t, srv.URL)

	_, err := a.Fetcher(poller.Key{Kind: notify.KindTable, Scope: ScopeAll})(context.Background())
	assert.Error(t, err)
}

func TestLoginSetsSessionAndCookieBindsIt(t *testing.T) {
	tok := testToken(t, RoleCashier, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"token":"`+tok+`"}`)
	}))
	defer srv.Close()
	a := newTestApp(t, srv.URL)

	snap, errInfo := a.Login(context.Background(), " Caja@Example.com", "secret")
	require.Nil(t, errInfo)
	assert.Equal(t, RoleCashier, snap.Claims.Role)

	rec := httptest.NewRecorder()
	require.NoError(t, a.SetSessionCookie(rec, snap))
	cookie := rec.Result().Cookies()[0]

	var seen session.Snapshot
	h := a.MiddlewareLoadSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = a.CurrentSession(r)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, snap.ID, seen.ID)

	require.NoError(t, a.Logout(context.Background()))
	seen = session.Snapshot{}
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, seen.ID, "cookie for an ended session is ignored")
}

func TestRequireAnyRole(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1")
	snap, err := a.session.Set(context.Background(), testToken(t, RoleCook, 1))
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	require.NoError(t, a.SetSessionCookie(rec, snap))
	cookie := rec.Result().Cookies()[0]

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	guarded := a.MiddlewareLoadSession(a.RequireAnyRole(RoleWaiter, RoleAdmin)(ok))
	kitchen := a.MiddlewareLoadSession(a.RequireRole(RoleCook)(ok))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	kitchen.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestForcedLogoutIsBroadcast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	a := newTestApp(t, srv.URL)

	ch, cancel := a.SSE().Subscribe([]string{TopicStaff()}, 8)
	defer cancel()
	_, err := a.session.Set(context.Background(), testToken(t, RoleAdmin, 1))
	require.NoError(t, err)

	r := a.API().ListTables(context.Background())
	require.False(t, r.OK())
	assert.Empty(t, a.Session().Token())

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Type == "toast" {
				assert.Equal(t, ToastWarning, ev.Data.(Toast).Level)
				return
			}
		case <-deadline:
			t.Fatal("no logout toast")
		}
	}
}
