package app

import (
	"net/http"
)

const (
	RoleAdmin   = "ADMIN"
	RoleWaiter  = "MESERO"
	RoleCook    = "COCINERO"
	RoleCashier = "CAJERO"
)

func (a *App) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := a.CurrentSession(r); !ok {
			WriteFail(w, http.StatusUnauthorized, "login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *App) RequireRole(role string) func(http.Handler) http.Handler {
	return a.RequireAnyRole(role)
}

func (a *App) RequireAnyRole(roles ...string) func(http.Handler) http.Handler {
	set := map[string]bool{}
	for _, r := range roles {
		set[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap, ok := a.CurrentSession(r)
			if !ok {
				WriteFail(w, http.StatusUnauthorized, "login required")
				return
			}
			if !set[snap.Claims.Role] {
				WriteFail(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
