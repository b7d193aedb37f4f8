package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"restaurant-console-go/internal/app"
	"restaurant-console-go/internal/db"
)

// pushForm is the browser's PushSubscription JSON plus the customer email
// for visitors without a staff session.
type pushForm struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
	Email string `json:"email"`
}

func (s *Server) PushKeyGet(w http.ResponseWriter, r *http.Request) {
	key := s.App.Config().VAPIDPublicKey
	if key == "" {
		app.WriteFail(w, http.StatusNotFound, "Push notifications are not configured.")
		return
	}
	app.WriteOK(w, map[string]string{"publicKey": key})
}

func (s *Server) PushSubscribePost(w http.ResponseWriter, r *http.Request) {
	var f pushForm
	if err := decode(r, &f); err != nil {
		badRequest(w, err.Error())
		return
	}
	if !strings.HasPrefix(f.Endpoint, "https://") || f.Keys.P256dh == "" || f.Keys.Auth == "" {
		badRequest(w, "Invalid push subscription.")
		return
	}

	scope := ""
	if _, ok := s.App.CurrentSession(r); !ok {
		email := app.NormalizeEmail(f.Email)
		if email == "" {
			app.WriteFail(w, http.StatusUnauthorized, "Log in or give the reservation email.")
			return
		}
		scope = app.CustomerScope(email)
	}

	id, err := s.App.Store().Q.UpsertPushSubscription(r.Context(), db.UpsertPushSubscriptionParams{
		Endpoint: f.Endpoint,
		P256dh:   f.Keys.P256dh,
		Auth:     f.Keys.Auth,
		Scope:    scope,
	})
	if err != nil {
		s.App.Logger().Error("save push subscription", "err", err)
		app.WriteFail(w, http.StatusInternalServerError, "Could not save the subscription.")
		return
	}
	app.WriteOK(w, map[string]any{"id": id, "scope": scope})
}

func (s *Server) PushUnsubscribePost(w http.ResponseWriter, r *http.Request) {
	var f pushForm
	if err := decode(r, &f); err != nil || f.Endpoint == "" {
		badRequest(w, "Endpoint is required.")
		return
	}
	if err := s.App.Store().Q.DeletePushSubscription(r.Context(), f.Endpoint); err != nil {
		s.App.Logger().Error("delete push subscription", "err", err)
		app.WriteFail(w, http.StatusInternalServerError, "Could not remove the subscription.")
		return
	}
	app.WriteOK(w, nil)
}

type eventView struct {
	ID       int64  `json:"id"`
	Kind     string `json:"kind"`
	Action   string `json:"action"`
	EntityID int64  `json:"entityId"`
	Scope    string `json:"scope"`
	Message  string `json:"message"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	At       string `json:"at"`
}

// NotificationsGet lists recent changes, newest first.
func (s *Server) NotificationsGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	evs, err := s.App.Store().Q.ListChangeEvents(r.Context(), q.Get("scope"), limit)
	if err != nil {
		s.App.Logger().Error("list change events", "err", err)
		app.WriteFail(w, http.StatusInternalServerError, "Could not load notifications.")
		return
	}
	out := make([]eventView, 0, len(evs))
	for _, e := range evs {
		out = append(out, eventView{
			ID:       e.ID,
			Kind:     e.Kind,
			Action:   e.Action,
			EntityID: e.EntityID,
			Scope:    e.Scope,
			Message:  e.Message,
			From:     e.FromStatus,
			To:       e.ToStatus,
			At:       e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	app.WriteOK(w, out)
}
