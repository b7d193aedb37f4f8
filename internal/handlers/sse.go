package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"restaurant-console-go/internal/app"
	"restaurant-console-go/internal/notify"
	"restaurant-console-go/internal/poller"
)

const keepAlive = 25 * time.Second

// StaffSSEGet streams the logged-in role's changes plus console toasts.
func (s *Server) StaffSSEGet(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.App.CurrentSession(r)
	if !ok {
		app.WriteFail(w, http.StatusUnauthorized, "Log in first.")
		return
	}
	keys := app.StaffKeys(snap.Claims)
	topics := []string{app.TopicStaff(), app.TopicRole(snap.Claims.Role)}
	s.stream(w, r, keys, topics)
}

// ReservationWatchGet streams reservation changes for one customer email.
func (s *Server) ReservationWatchGet(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(r)
	if !ok {
		badRequest(w, "A valid email is required.")
		return
	}
	s.stream(w, r, []poller.Key{app.CustomerKey(email)}, []string{app.TopicCustomer(email)})
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request, keys []poller.Key, topics []string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	changes := make(chan notify.Change, 32)
	var fw sync.WaitGroup
	for _, k := range keys {
		topics = append(topics, app.TopicWatch(k))
		ch, unsub, err := s.App.Pollers().Subscribe(k, s.App.Fetcher(k), 16)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, poller.ErrClosed) {
				status = http.StatusServiceUnavailable
			}
			app.WriteFail(w, status, "Notifications are unavailable.")
			return
		}
		defer unsub()
		fw.Add(1)
		go func() {
			defer fw.Done()
			forward(ctx, ch, changes)
		}()
	}
	// changes closes once every loop has ended, which ends the stream.
	go func() {
		fw.Wait()
		close(changes)
	}()

	events, unsubHub := s.App.SSE().Subscribe(topics, 32)
	defer unsubHub()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	hello, _ := json.Marshal(map[string]any{"ok": true, "ts": time.Now().Unix(), "watching": keyNames(keys)})
	fmt.Fprintf(w, "event: hello\ndata: %s\n\n", hello)
	flusher.Flush()

	keep := time.NewTicker(keepAlive)
	defer keep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keep.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case c, ok := <-changes:
			if !ok {
				return
			}
			writeEvent(w, "change", c)
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			writeEvent(w, ev.Type, ev.Data)
			flusher.Flush()
		}
	}
}

// forward copies one loop's changes into the stream until either side ends.
func forward(ctx context.Context, in <-chan notify.Change, out chan<- notify.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-in:
			if !ok {
				return
			}
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, typ string, data any) {
	b, _ := json.Marshal(data)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", typ, b)
}

func keyNames(keys []poller.Key) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.String())
	}
	return out
}
