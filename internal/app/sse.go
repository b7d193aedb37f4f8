package app

import (
	"log/slog"
	"sync"

	"restaurant-console-go/internal/poller"
)

type SSEEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// SSEHub fans console events (toasts, session changes) out to open
// streams by topic. Poller changes reach streams through the poller's own
// subscriptions.
type SSEHub struct {
	log *slog.Logger

	mu   sync.RWMutex
	subs map[string]map[chan SSEEvent]struct{} // topic -> set(ch)
}

func NewSSEHub(logger *slog.Logger) *SSEHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &SSEHub{
		log:  logger,
		subs: map[string]map[chan SSEEvent]struct{}{},
	}
}

func (h *SSEHub) Subscribe(topics []string, buf int) (<-chan SSEEvent, func()) {
	if buf <= 0 {
		buf = 16
	}
	ch := make(chan SSEEvent, buf)

	h.mu.Lock()
	for _, t := range topics {
		if h.subs[t] == nil {
			h.subs[t] = map[chan SSEEvent]struct{}{}
		}
		h.subs[t][ch] = struct{}{}
	}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			for _, t := range topics {
				if set, ok := h.subs[t]; ok {
					delete(set, ch)
					if len(set) == 0 {
						delete(h.subs, t)
					}
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Broadcast holds the read lock while sending so a concurrent cancel
// cannot close a channel mid-send.
func (h *SSEHub) Broadcast(topic string, ev SSEEvent) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for ch := range h.subs[topic] {
		select {
		case ch <- ev:
			sent++
		default:
			h.log.Debug("sse subscriber slow, dropping event", "topic", topic, "type", ev.Type)
		}
	}
	return sent
}

/* ---- topic helpers ---- */

func TopicStaff() string                { return "staff" }
func TopicRole(role string) string      { return "role:" + role }
func TopicCustomer(email string) string { return "customer:" + NormalizeEmail(email) }

// TopicWatch carries the toasts of one polling loop.
func TopicWatch(key poller.Key) string { return "watch:" + key.String() }

func (h *SSEHub) BroadcastStaff(ev SSEEvent)             { h.Broadcast(TopicStaff(), ev) }
func (h *SSEHub) BroadcastRole(role string, ev SSEEvent) { h.Broadcast(TopicRole(role), ev) }
