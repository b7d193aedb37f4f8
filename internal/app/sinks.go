package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"restaurant-console-go/internal/db"
	"restaurant-console-go/internal/notify"
	"restaurant-console-go/internal/poller"
)

// changeMessage is the wire form every external sink publishes.
type changeMessage struct {
	Key    string        `json:"key"`
	Scope  string        `json:"scope,omitempty"`
	Change notify.Change `json:"change"`
}

func encodeChange(key poller.Key, c notify.Change) ([]byte, error) {
	return json.Marshal(changeMessage{Key: key.String(), Scope: key.Scope, Change: c})
}

/* ---------------- history ---------------- */

// HistorySink records every change in the local store for the
// notifications feed.
type HistorySink struct {
	Q *db.Queries
}

func (s *HistorySink) Name() string { return "history" }

func (s *HistorySink) Deliver(ctx context.Context, key poller.Key, c notify.Change) error {
	_, err := s.Q.InsertChangeEvent(ctx, db.InsertChangeEventParams{
		Kind:       string(c.Kind),
		Action:     string(c.Action),
		EntityID:   c.ID,
		Scope:      key.Scope,
		Message:    c.Message,
		FromStatus: c.From,
		ToStatus:   c.To,
		CreatedAt:  c.Timestamp,
	})
	return err
}

/* ---------------- toast ---------------- */

// ToastSink turns changes into toasts on the SSE hub, on the watch topic
// of the loop that produced them.
type ToastSink struct {
	Hub *SSEHub
}

func (s *ToastSink) Name() string { return "toast" }

func (s *ToastSink) Deliver(ctx context.Context, key poller.Key, c notify.Change) error {
	s.Hub.Broadcast(TopicWatch(key), SSEEvent{Type: "toast", Data: ToastFor(c)})
	return nil
}

/* ---------------- amqp ---------------- */

// amqpChannel is the part of *amqp.Channel the sink publishes through.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	GetNextPublishSeqNo() uint64
	Close() error
}

// AMQPSink publishes changes to a fanout exchange and waits for the
// broker's confirm of that publish.
type AMQPSink struct {
	exchange string
	conn     *amqp.Connection
	ch       amqpChannel
	acks     <-chan amqp.Confirmation

	mu sync.Mutex // one publish awaits its confirm at a time
}

func DialAMQPSink(url, exchange string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp confirm: %w", err)
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 64))
	return &AMQPSink{exchange: exchange, conn: conn, ch: ch, acks: acks}, nil
}

func (s *AMQPSink) Name() string { return "amqp" }

func (s *AMQPSink) Deliver(ctx context.Context, key poller.Key, c notify.Change) error {
	body, err := encodeChange(key, c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tag := s.ch.GetNextPublishSeqNo()
	if err := s.ch.PublishWithContext(ctx, s.exchange, key.String(), false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now(),
		Type:         string(c.Kind) + "." + string(c.Action),
		Body:         body,
	}); err != nil {
		return err
	}

	for {
		select {
		case conf, ok := <-s.acks:
			if !ok {
				return errors.New("amqp channel closed")
			}
			if conf.DeliveryTag < tag {
				// late confirm of a publish whose wait was cancelled
				continue
			}
			if !conf.Ack {
				return errors.New("publish NACK from broker")
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *AMQPSink) Ping() error {
	if s.conn == nil || s.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	return nil
}

func (s *AMQPSink) Close() error {
	if s.ch != nil {
		_ = s.ch.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

/* ---------------- redis ---------------- */

// RedisSink publishes changes on a pub/sub channel so other console
// instances and dashboards can follow along.
type RedisSink struct {
	client  *redis.Client
	channel string
}

func NewRedisSink(addr, password, channel string) *RedisSink {
	return &RedisSink{
		client:  redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		channel: channel,
	}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Deliver(ctx context.Context, key poller.Key, c notify.Change) error {
	body, err := encodeChange(key, c)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel, body).Err()
}

func (s *RedisSink) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

func (s *RedisSink) Close() error { return s.client.Close() }

/* ---------------- web push ---------------- */

type PushConfig struct {
	Subscriber      string
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	TTL             int
}

// PushSink sends each change to the browsers subscribed for its scope.
// Subscriptions the push service reports gone are removed.
type PushSink struct {
	cfg PushConfig
	q   *db.Queries
	log *slog.Logger

	// send is swapped in tests
	send func(ctx context.Context, msg []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error)
}

func NewPushSink(cfg PushConfig, q *db.Queries, logger *slog.Logger) *PushSink {
	if cfg.TTL <= 0 {
		cfg.TTL = 60
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PushSink{cfg: cfg, q: q, log: logger, send: webpush.SendNotificationWithContext}
}

func (s *PushSink) Name() string { return "webpush" }

func (s *PushSink) Deliver(ctx context.Context, key poller.Key, c notify.Change) error {
	subs, err := s.q.ListPushSubscriptions(ctx, key.Scope)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}
	payload, err := json.Marshal(ToastFor(c))
	if err != nil {
		return err
	}

	var errs []error
	for _, sub := range subs {
		resp, err := s.send(ctx, payload, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
		}, &webpush.Options{
			Subscriber:      s.cfg.Subscriber,
			VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
			VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
			TTL:             s.cfg.TTL,
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		_ = resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
			s.log.Info("push subscription expired", "endpoint", sub.Endpoint)
			if err := s.q.DeletePushSubscription(ctx, sub.Endpoint); err != nil {
				errs = append(errs, err)
			}
		case resp.StatusCode >= 400:
			errs = append(errs, fmt.Errorf("push %s: status %d", sub.Endpoint, resp.StatusCode))
		}
	}
	return errors.Join(errs...)
}
