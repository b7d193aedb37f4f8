package app

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"restaurant-console-go/internal/api"
	"restaurant-console-go/internal/domain"
	"restaurant-console-go/internal/session"
)

const sessionCookieName = "rc_session"

// defaultCookieTTL applies when the API token carries no expiry.
const defaultCookieTTL = 12 * time.Hour

// sessionPayload binds a browser to one API session. A new login or a
// forced logout changes the session id and orphans older cookies.
type sessionPayload struct {
	SID string `json:"sid"`
	Exp int64  `json:"exp"`
}

func NormalizeEmail(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	return s
}

// Login exchanges credentials with the API and installs the token.
func (a *App) Login(ctx context.Context, email, password string) (session.Snapshot, *api.ErrorInfo) {
	r := a.api.Login(ctx, domain.LoginRequest{Email: NormalizeEmail(email), Password: password})
	if !r.OK() {
		return session.Snapshot{}, r.Err
	}
	snap, err := a.session.Set(ctx, r.Value.Token)
	if err != nil {
		return session.Snapshot{}, &api.ErrorInfo{Message: "store session: " + err.Error()}
	}
	a.log.Info("logged in", "role", snap.Claims.Role, "employee", snap.Claims.EmployeeID)
	return snap, nil
}

func (a *App) Logout(ctx context.Context) error {
	return a.session.Clear(ctx)
}

// SetSessionCookie sets a signed cookie naming the current session.
func (a *App) SetSessionCookie(w http.ResponseWriter, snap session.Snapshot) error {
	exp := time.Now().Add(defaultCookieTTL)
	if !snap.Claims.ExpiresAt.IsZero() {
		exp = snap.Claims.ExpiresAt
	}
	val, err := a.signJSON(sessionPayload{SID: snap.ID, Exp: exp.Unix()})
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    val,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.secureCookies(),
		Expires:  exp,
	})
	return nil
}

func (a *App) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.secureCookies(),
	})
}

func (a *App) sessionIDFromCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	var pl sessionPayload
	if err := a.verifyJSON(c.Value, &pl); err != nil {
		return "", false
	}
	if pl.SID == "" || pl.Exp <= 0 || time.Now().Unix() > pl.Exp {
		return "", false
	}
	return pl.SID, true
}

func (a *App) secureCookies() bool {
	return strings.HasPrefix(strings.ToLower(a.cfg.BaseURL), "https://")
}

/* ---------- signed cookie helpers ---------- */

func (a *App) signJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(b)
	sig := a.sign(payload)
	return payload + "." + sig, nil
}

func (a *App) verifyJSON(s string, out any) error {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return errors.New("bad format")
	}
	payload, sig := parts[0], parts[1]
	if !a.verify(payload, sig) {
		return errors.New("bad signature")
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (a *App) sign(payload string) string {
	m := hmac.New(sha256.New, a.cfg.SessionHashKey)
	_, _ = m.Write([]byte(payload))
	return hex.EncodeToString(m.Sum(nil))
}

func (a *App) verify(payload, sigHex string) bool {
	got, err := hex.DecodeString(sigHex)
	if err != nil {
		return false
	}
	m := hmac.New(sha256.New, a.cfg.SessionHashKey)
	_, _ = m.Write([]byte(payload))
	return hmac.Equal(got, m.Sum(nil))
}
