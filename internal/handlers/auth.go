package handlers

import (
	"net/http"
	"strings"
	"time"

	"restaurant-console-go/internal/app"
	"restaurant-console-go/internal/session"
)

type loginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionView struct {
	LoggedIn   bool       `json:"loggedIn"`
	Role       string     `json:"role,omitempty"`
	EmployeeID int64      `json:"employeeId,omitempty"`
	Name       string     `json:"name,omitempty"`
	Email      string     `json:"email,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

func viewOf(snap session.Snapshot) sessionView {
	v := sessionView{
		LoggedIn:   snap.LoggedIn(),
		Role:       snap.Claims.Role,
		EmployeeID: snap.Claims.EmployeeID,
		Name:       snap.Claims.Name,
		Email:      snap.Claims.Email,
	}
	if exp := snap.Claims.ExpiresAt; !exp.IsZero() {
		v.ExpiresAt = &exp
	}
	return v
}

func (s *Server) LoginPost(w http.ResponseWriter, r *http.Request) {
	var f loginForm
	if err := decode(r, &f); err != nil {
		badRequest(w, err.Error())
		return
	}
	if strings.TrimSpace(f.Email) == "" || f.Password == "" {
		badRequest(w, "Email and password are required.")
		return
	}

	snap, e := s.App.Login(r.Context(), f.Email, f.Password)
	if e != nil {
		s.fail(w, e, "Invalid credentials.")
		return
	}
	if err := s.App.SetSessionCookie(w, snap); err != nil {
		app.WriteFail(w, http.StatusInternalServerError, "Could not start session.")
		return
	}
	app.WriteOK(w, viewOf(snap))
}

// LogoutPost ends the shared API session only for the browser bound to it.
// Any other caller just loses its cookie.
func (s *Server) LogoutPost(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.App.CurrentSession(r); ok {
		if err := s.App.Logout(r.Context()); err != nil {
			s.App.Logger().Warn("logout", "err", err)
		}
	}
	s.App.ClearSessionCookie(w)
	app.WriteOK(w, sessionView{})
}

func (s *Server) SessionGet(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.App.CurrentSession(r)
	if !ok {
		app.WriteOK(w, sessionView{})
		return
	}
	app.WriteOK(w, viewOf(snap))
}

/* ---------------- Password ---------------- */

func (s *Server) PasswordRecoverPost(w http.ResponseWriter, r *http.Request) {
	var f struct {
		Email string `json:"email"`
	}
	if err := decode(r, &f); err != nil || strings.TrimSpace(f.Email) == "" {
		badRequest(w, "Email is required.")
		return
	}
	respond(s, w, s.App.API().RequestPasswordReset(r.Context(), app.NormalizeEmail(f.Email)), "Could not send the recovery email.")
}

func (s *Server) PasswordResetPost(w http.ResponseWriter, r *http.Request) {
	var f struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decode(r, &f); err != nil || f.Token == "" || f.Password == "" {
		badRequest(w, "Token and new password are required.")
		return
	}
	respond(s, w, s.App.API().ResetPassword(r.Context(), f.Token, f.Password), "Could not reset the password.")
}

func (s *Server) PasswordChangePost(w http.ResponseWriter, r *http.Request) {
	var f struct {
		Current string `json:"current"`
		Next    string `json:"next"`
	}
	if err := decode(r, &f); err != nil || f.Current == "" || f.Next == "" {
		badRequest(w, "Current and new password are required.")
		return
	}
	respond(s, w, s.App.API().ChangePassword(r.Context(), f.Current, f.Next), "Could not change the password.")
}
