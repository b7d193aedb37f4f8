package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"restaurant-console-go/internal/api"
	"restaurant-console-go/internal/app"
)

type Server struct {
	App *app.App
}

const maxBody = 1 << 20

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if err := s.App.Store().Ping(); err != nil {
		http.Error(w, "db not ok", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// decode reads a JSON body into v. Unknown fields are tolerated.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return errors.New("invalid JSON body")
	}
	return nil
}

// fail reports an API failure. Client errors keep their status; transport
// and server failures become 502.
func (s *Server) fail(w http.ResponseWriter, e *api.ErrorInfo, fallback string) {
	status := http.StatusBadGateway
	if e != nil && e.Status >= 400 && e.Status < 500 {
		status = e.Status
	}
	s.App.Logger().Debug("request failed", "status", status, "err", e)
	app.WriteFail(w, status, e.HumanMessage(fallback))
}

func badRequest(w http.ResponseWriter, msg string) {
	app.WriteFail(w, http.StatusBadRequest, msg)
}

// respond writes the value of r or its error.
func respond[T any](s *Server, w http.ResponseWriter, r api.Result[T], fallback string) {
	if !r.OK() {
		s.fail(w, r.Err, fallback)
		return
	}
	app.WriteOK(w, r.Value)
}

func parseInt64(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func idParam(r *http.Request, name string) (int64, bool) {
	return parseInt64(chi.URLParam(r, name))
}
