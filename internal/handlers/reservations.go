package handlers

import (
	"context"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"restaurant-console-go/internal/api"
	"restaurant-console-go/internal/app"
	"restaurant-console-go/internal/domain"
)

type reservationForm struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	PartySize int    `json:"partySize"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (f reservationForm) validate(now time.Time) string {
	if strings.TrimSpace(f.FirstName) == "" {
		return "First name is required."
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(f.Email)); err != nil {
		return "A valid email is required."
	}
	if f.PartySize < 1 || f.PartySize > 20 {
		return "Party size must be between 1 and 20."
	}
	day, err := time.ParseInLocation(time.DateOnly, f.Date, now.Location())
	if err != nil {
		return "Date must look like 2006-01-02."
	}
	if day.Before(dayStart(now)) {
		return "Date cannot be in the past."
	}
	if _, err := time.Parse("15:04", f.Time); err != nil {
		return "Time must look like 19:30."
	}
	return ""
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func emailParam(r *http.Request) (string, bool) {
	e := app.NormalizeEmail(r.URL.Query().Get("email"))
	if e == "" {
		return "", false
	}
	if _, err := mail.ParseAddress(e); err != nil {
		return "", false
	}
	return e, true
}

func (s *Server) PublicReservationCreatePost(w http.ResponseWriter, r *http.Request) {
	var f reservationForm
	if err := decode(r, &f); err != nil {
		badRequest(w, err.Error())
		return
	}
	if msg := f.validate(time.Now()); msg != "" {
		badRequest(w, msg)
		return
	}
	res := s.App.API().CreatePublicReservation(r.Context(), domain.ReservationRequest{
		Date:      f.Date,
		Time:      f.Time,
		PartySize: f.PartySize,
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Email:     app.NormalizeEmail(f.Email),
		Phone:     strings.TrimSpace(f.Phone),
	})
	if !res.OK() {
		s.fail(w, res.Err, "Could not create the reservation.")
		return
	}
	app.WriteJSON(w, http.StatusOK, app.Envelope{
		OK:    true,
		Data:  res.Value,
		Toast: &app.Toast{Level: app.ToastSuccess, Message: "Reservation created. Check your email to confirm it.", At: time.Now()},
	})
}

func (s *Server) PublicReservationsGet(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(r)
	if !ok {
		badRequest(w, "A valid email is required.")
		return
	}
	respond(s, w, s.App.API().ListReservationsByEmail(r.Context(), email), "Could not load reservations.")
}

func (s *Server) PublicReservationGet(w http.ResponseWriter, r *http.Request) {
	s.publicAction(w, r, s.App.API().GetPublicReservation, "Could not load the reservation.")
}

func (s *Server) PublicReservationCancelPost(w http.ResponseWriter, r *http.Request) {
	s.publicAction(w, r, s.App.API().CancelPublicReservation, "Could not cancel the reservation.")
}

func (s *Server) PublicReservationConfirmPost(w http.ResponseWriter, r *http.Request) {
	s.publicAction(w, r, s.App.API().ConfirmPublicReservation, "Could not confirm the reservation.")
}

type publicCall func(ctx context.Context, id int64, email string) api.Result[domain.Reservation]

func (s *Server) publicAction(w http.ResponseWriter, r *http.Request, fn publicCall, fallback string) {
	id, ok := idParam(r, "id")
	if !ok {
		badRequest(w, "Invalid reservation.")
		return
	}
	email, ok := emailParam(r)
	if !ok {
		badRequest(w, "A valid email is required.")
		return
	}
	respond(s, w, fn(r.Context(), id, email), fallback)
}

func (s *Server) AvailabilityGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	size, err := strconv.Atoi(q.Get("partySize"))
	if err != nil || size < 1 {
		badRequest(w, "Party size is required.")
		return
	}
	if q.Get("date") == "" || q.Get("time") == "" {
		badRequest(w, "Date and time are required.")
		return
	}
	tableID, _ := parseInt64(q.Get("tableId"))
	respond(s, w, s.App.API().CheckAvailability(r.Context(), api.AvailabilityQuery{
		Date:      q.Get("date"),
		Time:      q.Get("time"),
		PartySize: size,
		TableID:   tableID,
	}), "Could not check availability.")
}

/* ---------------- Staff ---------------- */

func (s *Server) ReservationsGet(w http.ResponseWriter, r *http.Request) {
	respond(s, w, s.App.API().ListReservations(r.Context()), "Could not load reservations.")
}

func (s *Server) ReservationCancelPost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		badRequest(w, "Invalid reservation.")
		return
	}
	respond(s, w, s.App.API().CancelReservation(r.Context(), id), "Could not cancel the reservation.")
}
