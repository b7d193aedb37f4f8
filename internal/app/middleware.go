package app

import (
	"context"
	"net/http"
	"time"

	"restaurant-console-go/internal/session"
)

type ctxKey string

const ctxKeySession ctxKey = "session"

// middlewareLoadSession attaches the API session when the request's cookie
// names it and the token is still valid.
func (a *App) middlewareLoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sid, ok := a.sessionIDFromCookie(r); ok {
			snap := a.session.Snapshot()
			if snap.ID == sid && snap.Authenticated(time.Now()) {
				r = r.WithContext(context.WithValue(r.Context(), ctxKeySession, snap))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (a *App) middlewareNoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func (a *App) CurrentSession(r *http.Request) (session.Snapshot, bool) {
	snap, ok := r.Context().Value(ctxKeySession).(session.Snapshot)
	return snap, ok
}

// Exported wrappers so router wiring can live outside the app package (no handlers import cycle).
func (a *App) MiddlewareNoStore(next http.Handler) http.Handler {
	return a.middlewareNoStore(next)
}

func (a *App) MiddlewareLoadSession(next http.Handler) http.Handler {
	return a.middlewareLoadSession(next)
}
