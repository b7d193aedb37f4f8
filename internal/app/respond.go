package app

import (
	"encoding/json"
	"net/http"
)

// Envelope is the console's response shape.
type Envelope struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
	Toast *Toast `json:"toast,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Envelope{OK: true, Data: data})
}

func WriteFail(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Envelope{OK: false, Error: msg, Toast: &Toast{Level: ToastError, Message: msg}})
}
