package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"restaurant-console-go/internal/api"
	"restaurant-console-go/internal/db"
	"restaurant-console-go/internal/metrics"
	"restaurant-console-go/internal/poller"
	"restaurant-console-go/internal/session"
)

type App struct {
	cfg      Config
	store    *db.Store
	log      *slog.Logger
	sseHub   *SSEHub
	session  *session.State
	api      *api.Client
	pollers  *poller.Manager
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	closers   []io.Closer
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func New(cfg Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = def.APIBaseURL
	}
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "console.db")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}

	// NOTE: /data is a Docker volume; ensure paths exist.
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir data dir: %w", err)
	}

	if len(cfg.SessionHashKey) < 32 {
		cfg.SessionHashKey = randomKey()
		logger.Warn("SESSION_HASH_KEY_HEX not set (or too short), generating ephemeral cookie key; browsers must log in again after restart")
	}
	if len(cfg.SessionBlockKey) < 32 {
		cfg.SessionBlockKey = randomKey()
		logger.Warn("SESSION_BLOCK_KEY_HEX not set (or too short), generating ephemeral token key; the API session will not survive restart")
	}

	store, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Migrate(store.DB); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	tokens, err := db.NewTokenStore(store.Q, cfg.SessionBlockKey)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	a := &App{
		cfg:      cfg,
		store:    store,
		log:      logger,
		sseHub:   NewSSEHub(logger),
		registry: reg,
		metrics:  m,
		stop:     make(chan struct{}),
	}

	a.session = session.New(tokens, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.session.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}

	a.api = api.New(api.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout}, a.session, logger, m)

	a.pollers = poller.NewManager(poller.Options{
		Interval: cfg.PollInterval,
		Sinks:    a.buildSinks(ctx),
		Logger:   logger,
		Metrics:  m,
	})

	snaps, unsubscribe := a.session.Subscribe()
	a.wg.Add(1)
	go a.watchSession(snaps, unsubscribe, a.session.Snapshot().LoggedIn())

	a.wg.Add(1)
	go a.pruneHistory(historyRetention, time.Hour)

	if counts, err := store.Q.DebugCounts(); err == nil {
		logger.Info("store ready", "path", cfg.DBPath, "counts", counts)
	}
	return a, nil
}

const historyRetention = 7 * 24 * time.Hour

// pruneHistory drops old change events once at startup and then every
// period.
func (a *App) pruneHistory(keep, period time.Duration) {
	defer a.wg.Done()

	t := time.NewTicker(period)
	defer t.Stop()
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		n, err := a.store.Q.PruneChangeEvents(ctx, time.Now().Add(-keep))
		cancel()
		if err != nil {
			a.log.Warn("prune change events", "err", err)
		} else if n > 0 {
			a.log.Debug("pruned change events", "rows", n)
		}

		select {
		case <-a.stop:
			return
		case <-t.C:
		}
	}
}

// buildSinks wires the optional brokers. A broker that is down at startup
// is logged and skipped; the console works without it.
func (a *App) buildSinks(ctx context.Context) []poller.Sink {
	sinks := []poller.Sink{
		&HistorySink{Q: a.store.Q},
		&ToastSink{Hub: a.sseHub},
	}

	if a.cfg.AMQPURL != "" {
		s, err := DialAMQPSink(a.cfg.AMQPURL, a.cfg.AMQPExchange)
		if err != nil {
			a.log.Warn("amqp sink disabled", "err", err)
		} else {
			sinks = append(sinks, s)
			a.closers = append(a.closers, s)
			a.log.Info("amqp sink enabled", "exchange", a.cfg.AMQPExchange)
		}
	}

	if a.cfg.RedisAddr != "" {
		s := NewRedisSink(a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisChannel)
		if err := s.Ping(ctx); err != nil {
			a.log.Warn("redis not reachable yet", "err", err)
		}
		sinks = append(sinks, s)
		a.closers = append(a.closers, s)
		a.log.Info("redis sink enabled", "channel", a.cfg.RedisChannel)
	}

	if a.cfg.VAPIDPublicKey != "" && a.cfg.VAPIDPrivateKey != "" {
		sinks = append(sinks, NewPushSink(PushConfig{
			Subscriber:      a.cfg.VAPIDSubscriber,
			VAPIDPublicKey:  a.cfg.VAPIDPublicKey,
			VAPIDPrivateKey: a.cfg.VAPIDPrivateKey,
		}, a.store.Q, a.log))
		a.log.Info("web push sink enabled")
	}
	return sinks
}

// watchSession tells open streams when the API session starts or ends,
// including the forced logout after a 401.
func (a *App) watchSession(ch <-chan session.Snapshot, cancel func(), loggedIn bool) {
	defer a.wg.Done()
	defer cancel()

	for {
		select {
		case <-a.stop:
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			now := snap.LoggedIn()
			a.sseHub.BroadcastStaff(SSEEvent{Type: "session", Data: map[string]any{
				"loggedIn": now,
				"role":     snap.Claims.Role,
			}})
			if loggedIn && !now {
				a.Notify(TopicStaff(), ToastWarning, "Session ended, please log in again")
			}
			loggedIn = now
		}
	}
}

func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var err error
	a.closeOnce.Do(func() {
		a.pollers.Close()
		close(a.stop)
		a.wg.Wait()
		for _, c := range a.closers {
			if cerr := c.Close(); cerr != nil {
				a.log.Warn("close sink", "err", cerr)
			}
		}
		err = a.store.Close()
	})
	return err
}

func randomKey() []byte {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return b
}

func (a *App) Store() *db.Store          { return a.store }
func (a *App) SSE() *SSEHub              { return a.sseHub }
func (a *App) Config() Config            { return a.cfg }
func (a *App) API() *api.Client          { return a.api }
func (a *App) Session() *session.State   { return a.session }
func (a *App) Pollers() *poller.Manager  { return a.pollers }
func (a *App) Logger() *slog.Logger      { return a.log }
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry})
}
